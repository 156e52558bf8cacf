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
	"github.com/Comcast/telegraph/core"
)

// Machine is a serializable view of one crew member.
type Machine struct {
	Id   core.ID `json:"id" yaml:"id"`
	Name string  `json:"name,omitempty" yaml:"name,omitempty"`

	// State, Previous, and Global are state names.  They are empty
	// when the member has no state machine.
	State    string `json:"state,omitempty" yaml:"state,omitempty"`
	Previous string `json:"previous,omitempty" yaml:"previous,omitempty"`
	Global   string `json:"global,omitempty" yaml:"global,omitempty"`

	Bindings map[string]interface{} `json:"bindings,omitempty" yaml:"bindings,omitempty"`
}

// Named is an entity with a human-readable name.
type Named interface {
	Name() string
}

// StateNamer reports the names of a machine's three slots.
// core.Machine is a StateNamer.
type StateNamer interface {
	StateNames() (current, previous, global string)
}

// Bound is an entity that carries a map of bindings.
type Bound interface {
	Bindings() map[string]interface{}
}

// Describe makes a Machine for the given entity.
//
// Bindings are copied via a JSON round trip.  Bindings that can't be
// copied are left out.
func Describe(e core.Entity) *Machine {
	m := &Machine{
		Id: e.ID(),
	}
	if n, is := e.(Named); is {
		m.Name = n.Name()
	}
	if s, is := e.(core.Stateful); is {
		if r := s.Machine(); r != nil {
			if sn, is := r.(StateNamer); is {
				m.State, m.Previous, m.Global = sn.StateNames()
			} else {
				m.State = r.StateName()
			}
		}
	}
	if b, is := e.(Bound); is {
		if x, err := core.Canonicalize(b.Bindings()); err == nil {
			m.Bindings, _ = x.(map[string]interface{})
		}
	}
	return m
}

// Snapshot describes every member in the order they joined.
func (c *Crew) Snapshot() []*Machine {
	es := c.Entities()
	acc := make([]*Machine, 0, len(es))
	for _, e := range es {
		acc = append(acc, Describe(e))
	}
	return acc
}
