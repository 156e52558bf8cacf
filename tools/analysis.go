/* Copyright 2018 Comcast Cable Communications Management, LLC
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

package tools

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/Comcast/telegraph/interpreters/goja"
	"github.com/Comcast/telegraph/sio"
)

// Transition is a state change that some hook might make.
//
// Transitions are found by looking for literal '_.change("NAME")'
// calls in hook source, so a computed target won't show up.
type Transition struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`

	// Hook is "enter", "execute", "leave", or "message".
	Hook string `json:"hook" yaml:"hook"`
}

var (
	changePattern = regexp.MustCompile("_\\.change\\(\\s*[\"'`]([^\"'`]+)[\"'`]\\s*\\)")
	revertPattern = regexp.MustCompile(`_\.revert\(\s*\)`)
	postPattern   = regexp.MustCompile(`_\.post\(`)
)

// hooks returns the source of each of the state's hooks, keyed by
// hook name.  Hooks that aren't plain strings (or maps with "code")
// are skipped.
func hooks(s *goja.StateSource) map[string]string {
	acc := make(map[string]string, 4)
	if s == nil {
		return acc
	}
	for hook, x := range map[string]interface{}{
		"enter":   s.Enter,
		"execute": s.Execute,
		"leave":   s.Leave,
		"message": s.Message,
	} {
		if x == nil {
			continue
		}
		code, _, err := goja.AsSource(x)
		if err != nil || code == "" {
			continue
		}
		acc[hook] = code
	}
	return acc
}

// Transitions finds the literal transitions in the scenario's hooks.
// The result is sorted by From, then Hook, then To.
func Transitions(sc *sio.Scenario) []Transition {
	var acc []Transition
	seen := make(map[Transition]bool)
	for _, name := range sc.StateNames() {
		for hook, code := range hooks(sc.States[name]) {
			for _, m := range changePattern.FindAllStringSubmatch(code, -1) {
				t := Transition{From: name, To: m[1], Hook: hook}
				if !seen[t] {
					seen[t] = true
					acc = append(acc, t)
				}
			}
		}
	}
	sort.Slice(acc, func(i, j int) bool {
		a, b := acc[i], acc[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.Hook != b.Hook {
			return a.Hook < b.Hook
		}
		return a.To < b.To
	})
	return acc
}

// ScenarioAnalysis is a static summary of a scenario.
type ScenarioAnalysis struct {
	Errors []string

	StateCount int
	AgentCount int
	Hooks      int

	// Handlers are states with a message hook.
	Handlers []string

	// Posters are states that might post telegrams.
	Posters []string

	// Reverters are states that might revert.
	Reverters []string

	Transitions []Transition

	// TerminalStates have no literal outgoing transitions and
	// never revert.
	TerminalStates []string

	// Orphans are states that nothing starts in or changes to.
	Orphans []string

	// MissingTargets are transition targets that aren't states.
	MissingTargets []string

	// Globals are the global states used by agents.
	Globals []string
}

// Analyze looks for problems in a scenario without running it.
//
// An agent using an unknown state is reported in Errors.  Missing
// transition targets are reported in both MissingTargets and Errors.
func Analyze(sc *sio.Scenario) (*ScenarioAnalysis, error) {
	if sc == nil {
		return nil, fmt.Errorf("no scenario")
	}

	a := ScenarioAnalysis{
		StateCount:  len(sc.States),
		AgentCount:  len(sc.Agents),
		Errors:      make([]string, 0, 8),
		Transitions: Transitions(sc),
	}

	var (
		handlers  = make(map[string]bool)
		posters   = make(map[string]bool)
		reverters = make(map[string]bool)
		outgoing  = make(map[string]bool)
		targeted  = make(map[string]bool)
		missing   = make(map[string]bool)
		globals   = make(map[string]bool)
	)

	for name, s := range sc.States {
		for hook, code := range hooks(s) {
			a.Hooks++
			if hook == "message" {
				handlers[name] = true
			}
			if postPattern.MatchString(code) {
				posters[name] = true
			}
			if revertPattern.MatchString(code) {
				reverters[name] = true
			}
		}
	}

	for _, t := range a.Transitions {
		outgoing[t.From] = true
		targeted[t.To] = true
		if _, have := sc.States[t.To]; !have {
			missing[t.To] = true
			a.Errors = append(a.Errors, fmt.Sprintf("state %s changes to unknown state %s", t.From, t.To))
		}
	}

	for _, spec := range sc.Agents {
		targeted[spec.State] = true
		if _, have := sc.States[spec.State]; !have {
			a.Errors = append(a.Errors, fmt.Sprintf("agent %s starts in unknown state %s", spec.Name, spec.State))
		}
		if spec.Global == "" {
			continue
		}
		targeted[spec.Global] = true
		globals[spec.Global] = true
		if _, have := sc.States[spec.Global]; !have {
			a.Errors = append(a.Errors, fmt.Sprintf("agent %s has unknown global state %s", spec.Name, spec.Global))
		}
	}

	terminal := make(map[string]bool)
	for name := range sc.States {
		if !outgoing[name] && !reverters[name] && !globals[name] {
			terminal[name] = true
		}
	}

	a.Handlers = keysToStringSlice(handlers)
	a.Posters = keysToStringSlice(posters)
	a.Reverters = keysToStringSlice(reverters)
	a.TerminalStates = keysToStringSlice(terminal)
	a.Orphans = keysToStringSlice(diffKeys(sc.States, targeted))
	a.MissingTargets = keysToStringSlice(missing)
	a.Globals = keysToStringSlice(globals)

	return &a, nil
}

// keysToStringSlice returns the sorted keys of the map.  When the map
// is empty and a default is given, the result is just that default.
func keysToStringSlice(m map[string]bool, defaultValue ...string) []string {
	var list []string
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)

	if len(list) == 0 && len(defaultValue) > 0 {
		return []string{defaultValue[0]}
	}

	return list
}

// diffKeys returns the keys in all that aren't in used.
func diffKeys(all map[string]*goja.StateSource, used map[string]bool) map[string]bool {
	diff := make(map[string]bool)
	for key := range all {
		if _, found := used[key]; !found {
			diff[key] = true
		}
	}
	return diff
}
