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

package crew

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/util"
)

var (
	ErrNotEntity      = errors.New("not an entity")
	ErrInvalidID      = errors.New("invalid id")
	ErrDuplicateID    = errors.New("duplicate id")
	ErrAlreadyStarted = errors.New("already started")
)

// RegistrationError reports why an entity couldn't join the crew.
type RegistrationError struct {
	ID  core.ID
	Err error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register %d: %s", e.ID, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// Crew is the directory of entities that take part in a simulation.
//
// The Crew owns the ID allocator that its entities draw from, and it
// remembers the order entities joined so that UpdateAll is
// deterministic.
//
// The lock only guards the directory.  It's never held while calling
// into an entity, so hooks can Register, Unregister, and Lookup
// freely.
type Crew struct {
	sync.RWMutex

	Id      string `json:"id"`
	Verbose bool   `json:"-"`

	ids      *core.IDs
	entities map[core.ID]core.Entity
	order    []core.ID
	started  bool
}

// NewCrew makes an empty crew with a fresh ID allocator.
func NewCrew(id string) *Crew {
	return &Crew{
		Id:       id,
		ids:      core.NewIDs(),
		entities: make(map[core.ID]core.Entity, 32),
	}
}

// Logf logs when the crew is verbose.
func (c *Crew) Logf(format string, args ...interface{}) {
	util.Vlogf(c.Verbose, "crew "+c.Id+" ", format, args...)
}

// IDs returns the allocator that entities of this crew should use.
func (c *Crew) IDs() *core.IDs {
	return c.ids
}

// Register adds the entity under its ID.
func (c *Crew) Register(e core.Entity) error {
	if e == nil {
		return &RegistrationError{Err: ErrNotEntity}
	}
	id := e.ID()
	if id < core.MinID {
		return &RegistrationError{ID: id, Err: ErrInvalidID}
	}

	c.Lock()
	defer c.Unlock()

	if _, have := c.entities[id]; have {
		return &RegistrationError{ID: id, Err: ErrDuplicateID}
	}
	c.entities[id] = e
	c.order = append(c.order, id)
	c.Logf("registered %d", id)

	return nil
}

// Unregister removes the binding for the entity's ID.  The result
// reports whether anything was bound.
func (c *Crew) Unregister(e core.Entity) bool {
	if e == nil {
		return false
	}
	id := e.ID()

	c.Lock()
	defer c.Unlock()

	if _, have := c.entities[id]; !have {
		c.Logf("unregister %d: not registered", id)
		return false
	}
	delete(c.entities, id)
	for i, x := range c.order {
		if x == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.Logf("unregistered %d", id)

	return true
}

// Lookup returns the entity with the given ID or nil.
func (c *Crew) Lookup(id core.ID) core.Entity {
	c.RLock()
	e := c.entities[id]
	c.RUnlock()
	return e
}

// Len returns the number of registered entities.
func (c *Crew) Len() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.entities)
}

// Entities returns the registered entities in the order they joined.
func (c *Crew) Entities() []core.Entity {
	c.RLock()
	defer c.RUnlock()
	acc := make([]core.Entity, 0, len(c.order))
	for _, id := range c.order {
		acc = append(acc, c.entities[id])
	}
	return acc
}

// UpdateAll calls Update on every entity in the order they joined.
//
// The sweep works on a snapshot.  An entity that an earlier Update
// unregistered is skipped.  An entity registered during the sweep
// gets its first Update on the next sweep.
func (c *Crew) UpdateAll() {
	for _, e := range c.Entities() {
		if c.Lookup(e.ID()) == nil {
			continue
		}
		e.Update()
	}
}

// StartAll starts the state machine of every entity that has one.
//
// Call StartAll once, after registering the initial population.  The
// result is the number of machines started.
func (c *Crew) StartAll() (int, error) {
	c.Lock()
	if c.started {
		c.Unlock()
		return 0, ErrAlreadyStarted
	}
	c.started = true
	c.Unlock()

	n := 0
	for _, e := range c.Entities() {
		s, is := e.(core.Stateful)
		if !is {
			c.Logf("start %d: no state machine", e.ID())
			continue
		}
		m := s.Machine()
		if m == nil {
			c.Logf("start %d: nil state machine", e.ID())
			continue
		}
		m.Start()
		n++
	}

	return n, nil
}

// Started reports whether StartAll has been called.
func (c *Crew) Started() bool {
	c.RLock()
	defer c.RUnlock()
	return c.started
}
