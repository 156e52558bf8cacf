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

package sio

import (
	"context"
	"fmt"
	"io/ioutil"
	"sort"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/interpreters/goja"

	"github.com/jsccast/yaml"
)

// Scenario is a scripted population: a set of named states and the
// agents that use them.
//
// A Scenario is usually written in YAML.  Each state's hooks are
// ECMAScript.  See the goja package for what a hook can do.
type Scenario struct {
	Name string `json:"name" yaml:"name"`

	// Doc is Markdown.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Tick, when positive, overrides the Conf's tick.
	Tick core.Time `json:"tick,omitempty" yaml:"tick,omitempty"`

	States map[string]*goja.StateSource `json:"states" yaml:"states"`

	Agents []*AgentSpec `json:"agents" yaml:"agents"`
}

// AgentSpec describes one scripted agent.
type AgentSpec struct {
	// Id is optional.  When given, ids must increase down the list
	// of agents.
	Id core.ID `json:"id,omitempty" yaml:"id,omitempty"`

	Name string `json:"name" yaml:"name"`

	// State is the initial state.
	State string `json:"state" yaml:"state"`

	// Global is an optional global state.
	Global string `json:"global,omitempty" yaml:"global,omitempty"`

	Bindings map[string]interface{} `json:"bindings,omitempty" yaml:"bindings,omitempty"`
}

// ParseScenario parses YAML (or JSON).
func ParseScenario(bs []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScenario reads and parses a scenario file.
func LoadScenario(filename string) (*Scenario, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	s, err := ParseScenario(bs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// StateNames returns the names of the scenario's states in order.
func (s *Scenario) StateNames() []string {
	acc := make([]string, 0, len(s.States))
	for name := range s.States {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// Compile compiles every state into a new library.
func (s *Scenario) Compile(ctx context.Context, i *goja.Interpreter) (*goja.Library, error) {
	lib := goja.NewLibrary(i)
	for _, name := range s.StateNames() {
		if _, err := lib.Add(ctx, name, s.States[name]); err != nil {
			return nil, err
		}
	}
	return lib, nil
}

// Populate compiles the states and registers the agents with the
// sim's crew.  The agents' machines aren't started.
//
// Call Populate before the sim runs.  A scenario tick replaces the
// sim's clock.  When Populate fails, nothing is registered and the
// clock is left alone, but any explicit IDs it claimed stay claimed.
func (s *Scenario) Populate(ctx context.Context, sim *Sim) ([]*goja.Agent, error) {
	lib, err := s.Compile(ctx, sim.Interpreter)
	if err != nil {
		return nil, err
	}

	ids := sim.Crew.IDs()
	acc := make([]*goja.Agent, 0, len(s.Agents))
	for _, spec := range s.Agents {
		var b core.Base
		if spec.Id == 0 {
			b = core.NextBase(ids, sim.Dispatcher)
		} else if b, err = core.NewBase(ids, spec.Id, sim.Dispatcher); err != nil {
			return nil, fmt.Errorf("agent %s: %w", spec.Name, err)
		}

		a, err := lib.NewAgent(b, spec.Name, spec.State, spec.Global, sim.Now)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", spec.Name, err)
		}
		if spec.Bindings != nil {
			x, err := core.Canonicalize(spec.Bindings)
			if err != nil {
				return nil, fmt.Errorf("agent %s bindings: %w", spec.Name, err)
			}
			bs, _ := x.(map[string]interface{})
			a.SetBindings(bs)
		}
		acc = append(acc, a)
	}

	for i, a := range acc {
		if err = sim.Crew.Register(a); err != nil {
			for _, done := range acc[:i] {
				sim.Crew.Unregister(done)
			}
			return nil, err
		}
	}

	if 0 < s.Tick {
		sim.Clock = core.NewClock(s.Tick)
	}
	for _, a := range acc {
		sim.Logf("Scenario %s agent %d %s %s", s.Name, a.ID(), a.Name(), JShort(a.Bindings(), 70))
	}

	return acc, nil
}
