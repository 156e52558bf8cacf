/* Copyright 2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

// Entity is what the kernel requires from every participant.
type Entity interface {
	// ID returns the entity's unique id.
	ID() ID

	// Update is called once per tick.
	Update()

	// Receive is called when a telegram is delivered, either
	// immediately or after its delay.  The result reports whether
	// something handled it.
	Receive(t *Telegram) bool
}

// Poster is the part of the post office that entities use.
//
// An unknown receiver isn't an error.  The telegram is just dropped.
type Poster interface {
	Post(delay Time, sender, receiver ID, typ MsgType, payload interface{})
}

// Runner is a state machine with its entity type erased.
type Runner interface {
	Start()
	Update()
	HandleMessage(t *Telegram) bool
	StateName() string
}

// Stateful is implemented by entities that own a state machine.  A
// nil Runner means the entity doesn't have one (yet).
type Stateful interface {
	Machine() Runner
}

// Base carries an entity's id and its post office.  Embed it.
type Base struct {
	id ID

	// Poster is the post office that this entity posts through.
	Poster Poster
}

// NewBase claims the given id from ids and returns a Base bound to
// the given Poster.
//
// An id below the allocator's next valid id results in an
// ErrIDBelowMinimum.  Use NextBase when any fresh id will do.
func NewBase(ids *IDs, id ID, p Poster) (Base, error) {
	if err := ids.Claim(id); err != nil {
		return Base{}, err
	}
	return Base{
		id:     id,
		Poster: p,
	}, nil
}

// NextBase returns a Base with the next id from ids.
func NextBase(ids *IDs, p Poster) Base {
	return Base{
		id:     ids.Next(),
		Poster: p,
	}
}

// ID returns the entity's id.
func (b *Base) ID() ID {
	return b.id
}

// Send posts a telegram from this entity.  Without a Poster, Send
// does nothing.
func (b *Base) Send(delay Time, to ID, typ MsgType, payload interface{}) {
	if b.Poster == nil {
		return
	}
	b.Poster.Post(delay, b.id, to, typ, payload)
}

// Agent is an entity whose Update and Receive just drive its state
// machine.
//
// Typical use:
//
//	type Miner struct {
//		core.Agent[*Miner]
//		Gold int
//	}
//
//	m := &Miner{}
//	m.Agent = core.NewAgent(base, m)
//	m.FSM.Init(EnterMine, MinerGlobal, nil)
type Agent[E any] struct {
	Base
	FSM *Machine[E]
}

// NewAgent makes an Agent with a fresh machine owned by owner.
func NewAgent[E any](b Base, owner E) Agent[E] {
	return Agent[E]{
		Base: b,
		FSM:  NewMachine(owner),
	}
}

// Update executes the machine's global and current states.
func (a *Agent[E]) Update() {
	if a.FSM != nil {
		a.FSM.Update()
	}
}

// Receive offers the telegram to the machine.
func (a *Agent[E]) Receive(t *Telegram) bool {
	if a.FSM == nil {
		return false
	}
	return a.FSM.HandleMessage(t)
}

// Machine implements Stateful.
func (a *Agent[E]) Machine() Runner {
	if a.FSM == nil {
		return nil
	}
	return a.FSM
}
