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

// Machine is the state machine owned by one entity.
//
// A Machine has exactly three slots: current, global, and previous.
// The global state (if any) runs every tick before the current one.
// The previous state is whatever was current right before the last
// transition.  It's a single slot, not a stack.
//
// Not thread-safe.  Hooks may call ChangeState, RevertToPrevious, and
// whatever else they like, and those calls take effect immediately.
type Machine[E any] struct {
	owner E

	current  State[E]
	global   State[E]
	previous State[E]

	started bool
}

// NewMachine makes a Machine for the given owner.  Call Init before
// Start or Update.
func NewMachine[E any](owner E) *Machine[E] {
	return &Machine[E]{
		owner: owner,
	}
}

// Owner returns the entity that owns this machine.
func (m *Machine[E]) Owner() E {
	return m.owner
}

// Init sets the three slots directly without running any hooks.
//
// Enter isn't called here because an entity is usually initialized
// before the other entities it might talk to exist.  Start runs the
// Enter hooks later.  A nil previous becomes the null state.  A nil
// pointer counts as nil.
func (m *Machine[E]) Init(current, global, previous State[E]) {
	if absent(current) {
		current = nil
	}
	if absent(global) {
		global = nil
	}
	if absent(previous) {
		previous = Null[E]()
	}
	m.current = current
	m.global = global
	m.previous = previous
}

// Start runs the global state's Enter (if any) and then the current
// state's Enter.
//
// Call Start once, after every entity that could receive a telegram
// from an Enter hook has been registered.  Later calls do nothing.
func (m *Machine[E]) Start() {
	if m.started {
		return
	}
	m.started = true
	if m.global != nil {
		m.global.Enter(m.owner)
	}
	if m.current != nil {
		m.current.Enter(m.owner)
	}
}

// Started reports whether Start has been called.
func (m *Machine[E]) Started() bool {
	return m.started
}

// Update runs the global state's Execute (if any) and then the
// current state's Execute.
func (m *Machine[E]) Update() {
	if m.global != nil {
		m.global.Execute(m.owner)
	}
	if m.current != nil {
		m.current.Execute(m.owner)
	}
}

// ChangeState leaves the current state and enters the given one.
//
// Nothing happens when there's no current state or when s is nil
// (including a nil pointer to a state type).  Otherwise the current state is remembered as the previous state,
// its Leave runs, s becomes current, and then its Enter runs.
func (m *Machine[E]) ChangeState(s State[E]) {
	if m.current == nil || absent(s) {
		return
	}
	m.previous = m.current
	m.current.Leave(m.owner)
	m.current = s
	m.current.Enter(m.owner)
}

// RevertToPrevious changes back to the previous state.
//
// This undo is one level deep.  Reverting twice in a row just swaps
// the last two states.
func (m *Machine[E]) RevertToPrevious() {
	m.ChangeState(m.previous)
}

// HandleMessage offers the telegram to the current state and then,
// if that state didn't handle it, to the global state.
func (m *Machine[E]) HandleMessage(t *Telegram) bool {
	if m.current != nil && m.current.OnMessage(m.owner, t) {
		return true
	}
	if m.global != nil && m.global.OnMessage(m.owner, t) {
		return true
	}
	return false
}

// IsInState reports whether s is the current state.
func (m *Machine[E]) IsInState(s State[E]) bool {
	return m.current != nil && m.current == s
}

// Current returns the current state.
func (m *Machine[E]) Current() State[E] {
	return m.current
}

// Global returns the global state, which might be nil.
func (m *Machine[E]) Global() State[E] {
	return m.global
}

// Previous returns the previous state.
func (m *Machine[E]) Previous() State[E] {
	return m.previous
}

// SetGlobal replaces the global state.  No hooks run.  A nil
// pointer clears the slot.
func (m *Machine[E]) SetGlobal(s State[E]) {
	if absent(s) {
		s = nil
	}
	m.global = s
}

// StateName returns the name of the current state.
func (m *Machine[E]) StateName() string {
	return StateName(m.current)
}

// StateNames returns the names of the current, previous, and global
// states.  An empty slot has the empty name.
func (m *Machine[E]) StateNames() (current, previous, global string) {
	return StateName(m.current), StateName(m.previous), StateName(m.global)
}
