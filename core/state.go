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

import (
	"fmt"
	"reflect"
)

// State is a behavior for entities of type E.
//
// A State is shared by all the entities that use it, so it holds no
// entity data.  States are compared with ==, so use pointers or
// comparable values.  (A struct with func fields isn't comparable.)
//
// Embed Stateless to get no-op defaults for the hooks you don't
// need.
type State[E any] interface {
	// Enter runs once, right after the state becomes current.
	Enter(E)

	// Execute runs once per tick while the state is current.
	Execute(E)

	// Leave runs once, right before the state stops being
	// current.
	Leave(E)

	// OnMessage tries to handle a telegram and reports whether it
	// did.
	OnMessage(E, *Telegram) bool
}

// Stateless provides no-op hooks.  OnMessage reports that nothing
// was handled.
type Stateless[E any] struct{}

func (Stateless[E]) Enter(E)                     {}
func (Stateless[E]) Execute(E)                   {}
func (Stateless[E]) Leave(E)                     {}
func (Stateless[E]) OnMessage(E, *Telegram) bool { return false }

// NullState is the placeholder state.  All null states for the same
// E are equal.
type NullState[E any] struct {
	Stateless[E]
}

func (NullState[E]) Name() string { return "null" }

// Null returns the null state for E.
func Null[E any]() State[E] {
	return NullState[E]{}
}

// absent reports whether s is nil, including a nil pointer (or other
// nil value) inside a non-nil State.
func absent[E any](s State[E]) bool {
	if s == nil {
		return true
	}
	switch v := reflect.ValueOf(s); v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// IsNull reports whether s is the null state.
func IsNull[E any](s State[E]) bool {
	_, is := s.(NullState[E])
	return is
}

// FuncState is a State built from a table of optional functions.
//
// Use a *FuncState.
type FuncState[E any] struct {
	Label string

	EnterFunc   func(E)
	ExecuteFunc func(E)
	LeaveFunc   func(E)
	MessageFunc func(E, *Telegram) bool
}

func (s *FuncState[E]) Name() string {
	return s.Label
}

func (s *FuncState[E]) Enter(e E) {
	if s.EnterFunc != nil {
		s.EnterFunc(e)
	}
}

func (s *FuncState[E]) Execute(e E) {
	if s.ExecuteFunc != nil {
		s.ExecuteFunc(e)
	}
}

func (s *FuncState[E]) Leave(e E) {
	if s.LeaveFunc != nil {
		s.LeaveFunc(e)
	}
}

func (s *FuncState[E]) OnMessage(e E, t *Telegram) bool {
	if s.MessageFunc != nil {
		return s.MessageFunc(e, t)
	}
	return false
}

// Named is implemented by states that know their names.
type Named interface {
	Name() string
}

// StateName returns a name for diagnostics: the state's own name if
// it has one, "" for nil, and otherwise its type.
func StateName[E any](s State[E]) string {
	if absent(s) {
		return ""
	}
	if n, is := s.(Named); is {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}
