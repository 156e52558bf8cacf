/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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

// Package expect is a tool for testing scenarios.
//
// You construct a Session, which says how long to run a scenario,
// which telegrams should (or shouldn't) be discharged along the way,
// and which states the agents should end up in.  Then run the session
// to see if that's what actually happened.
//
// Specifying what's expected can be simple, as in a telegram type,
// or fairly fancy, as in a guard that computes some property of the
// telegram.
package expect

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"strings"
	"sync"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/dispatch"
	"github.com/Comcast/telegraph/interpreters/goja"
	"github.com/Comcast/telegraph/sio"
	. "github.com/Comcast/telegraph/util/testutil"

	js "github.com/dop251/goja"
	"github.com/jsccast/yaml"
)

// Output describes a telegram that's expected to be
// discharged.
type Output struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Type must equal the telegram's type.
	Type core.MsgType `json:"type" yaml:"type"`

	// Receiver, if not zero, must equal the telegram's receiver.
	Receiver core.ID `json:"receiver,omitempty" yaml:"receiver,omitempty"`

	// At, if not zero, must equal the discharge time.
	At core.Time `json:"at,omitempty" yaml:"at,omitempty"`

	// Guard is optional ECMAScript that's run after the other
	// fields match.  The telegram is "_.msg", and the discharge
	// time is "_.at".  The guard should return a boolean.
	Guard interface{} `json:"guard,omitempty" yaml:"guard,omitempty"`

	// Inverted means that a matching telegram isn't desired!
	Inverted bool `json:"inverted,omitempty" yaml:"inverted,omitempty"`

	// Seen records the discharge times of matching telegrams.
	// Just for diagnostics.
	Seen []core.Time `json:"seen,omitempty" yaml:"seen,omitempty"`

	guard *js.Program
}

func (o *Output) String() string {
	if o.Doc != "" {
		return o.Doc
	}
	return fmt.Sprintf("%s to %d at %d", o.Type, o.Receiver, o.At)
}

// Session is a scenario run with expectations.
type Session struct {
	// Doc is an opaque documentation string.
	Doc string `json:"doc,omitempty" yaml:"doc,omitempty"`

	// Scenario is the filename of the scenario to run.  Run
	// accepts a parsed scenario, so this field is only used by
	// Load.
	Scenario string `json:"scenario,omitempty" yaml:"scenario,omitempty"`

	// Ticks is the number of ticks to run.
	Ticks int `json:"ticks" yaml:"ticks"`

	// OutputSet is the set (not a list) of outputs to verify.
	OutputSet []*Output `json:"outputSet,omitempty" yaml:"outputSet,omitempty"`

	// States maps agent names to the states they should be in
	// after the last tick.
	States map[string]string `json:"states,omitempty" yaml:"states,omitempty"`

	// Interpreter compiles guards.  NewInterpreter is used if
	// this field is nil.
	Interpreter *goja.Interpreter `json:"-" yaml:"-"`

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Failures is the collection of unmet expectations.
type Failures []string

func (fs Failures) Error() string {
	return fmt.Sprintf("%d failures: %s", len(fs), strings.Join(fs, "; "))
}

// ParseSession parses YAML (or JSON).
func ParseSession(bs []byte) (*Session, error) {
	var s Session
	if err := yaml.Unmarshal(bs, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSession reads and parses a session file.
func LoadSession(filename string) (*Session, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseSession(bs)
}

func (s *Session) logf(format string, args ...interface{}) {
	if s.Verbose {
		log.Printf(format, args...)
	}
}

func (s *Session) compile(ctx context.Context) error {
	if s.Interpreter == nil {
		s.Interpreter = goja.NewInterpreter()
	}
	for _, o := range s.OutputSet {
		o.Seen = nil
		if o.Guard == nil {
			continue
		}
		p, err := s.Interpreter.Compile(ctx, o.Guard)
		if err != nil {
			return fmt.Errorf("guard for %s: %w", o, err)
		}
		o.guard = p
	}
	return nil
}

func (s *Session) matches(ctx context.Context, o *Output, e *dispatch.Event) (bool, error) {
	t := e.Telegram
	if t.Type() != o.Type {
		return false, nil
	}
	if o.Receiver != 0 && t.Receiver() != o.Receiver {
		return false, nil
	}
	if o.At != 0 && e.At != o.At {
		return false, nil
	}
	if o.guard == nil {
		return true, nil
	}

	msg, err := core.Canonicalize(t)
	if err != nil {
		return false, err
	}
	v, err := s.Interpreter.Exec(ctx, o.guard, func(_ *js.Runtime, env map[string]interface{}) {
		env["msg"] = msg
		env["at"] = int64(e.At)
	})
	if err != nil {
		return false, err
	}
	return v != nil && v.ToBoolean(), nil
}

// Run populates a new sim with the scenario, runs it, and checks the
// results.  Unmet expectations are returned as Failures.
func (s *Session) Run(ctx context.Context, sc *sio.Scenario, conf *sio.Conf) error {
	if s.Ticks <= 0 {
		return fmt.Errorf("session needs a positive number of ticks, not %d", s.Ticks)
	}
	if err := s.compile(ctx); err != nil {
		return err
	}

	sim, err := sio.NewSim(conf)
	if err != nil {
		return err
	}
	agents, err := sc.Populate(ctx, sim)
	if err != nil {
		return err
	}

	var (
		lock sync.Mutex
		errs []error
	)

	sim.Trace(dispatch.TracerFunc(func(e *dispatch.Event) {
		if e.Kind != dispatch.Discharged {
			return
		}
		s.logf("expect discharged %s", JS(e.Telegram))
		for _, o := range s.OutputSet {
			matched, err := s.matches(ctx, o, e)
			if err != nil {
				lock.Lock()
				errs = append(errs, err)
				lock.Unlock()
				continue
			}
			if matched {
				o.Seen = append(o.Seen, e.At)
			}
		}
	}))

	if _, err = sim.Start(); err != nil {
		return err
	}
	if err = sim.Run(ctx, s.Ticks); err != nil {
		return err
	}

	if 0 < len(errs) {
		return fmt.Errorf("guard error: %w", errs[0])
	}

	var fs Failures
	for _, o := range s.OutputSet {
		switch {
		case o.Inverted && 0 < len(o.Seen):
			fs = append(fs, fmt.Sprintf("unwanted %s at %v", o, o.Seen))
		case !o.Inverted && len(o.Seen) == 0:
			fs = append(fs, fmt.Sprintf("missing %s", o))
		}
	}

	byName := make(map[string]*goja.Agent, len(agents))
	for _, a := range agents {
		byName[a.Name()] = a
	}
	for name, want := range s.States {
		a, have := byName[name]
		if !have {
			fs = append(fs, fmt.Sprintf("no agent %s", name))
			continue
		}
		if got := a.FSM.StateName(); got != want {
			fs = append(fs, fmt.Sprintf("agent %s in %s, not %s", name, got, want))
		}
	}

	if 0 < len(fs) {
		return fs
	}
	return nil
}
