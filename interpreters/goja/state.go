package goja

import (
	"context"
	"log"

	"github.com/Comcast/telegraph/core"

	"github.com/dop251/goja"
)

// StateSource is the uncompiled form of a State.
//
// Each hook is optional.  A hook is either a string of code or a map
// with "code" and "requires".
type StateSource struct {
	Doc     string      `json:"doc,omitempty" yaml:"doc,omitempty"`
	Enter   interface{} `json:"enter,omitempty" yaml:"enter,omitempty"`
	Execute interface{} `json:"execute,omitempty" yaml:"execute,omitempty"`
	Leave   interface{} `json:"leave,omitempty" yaml:"leave,omitempty"`
	Message interface{} `json:"message,omitempty" yaml:"message,omitempty"`
}

// State is a core.State for Agents with scripted hooks.
//
// A State holds no agent data, so one State serves every agent that
// uses it.
type State struct {
	Label  string
	Source *StateSource

	interpreter *Interpreter
	lib         *Library

	enter, execute, leave, message *goja.Program
}

// CompileState makes a State from the given source.  The library resolves
// the names given to "change".
func (i *Interpreter) CompileState(ctx context.Context, lib *Library, name string, src *StateSource) (*State, error) {
	s := &State{
		Label:       name,
		Source:      src,
		interpreter: i,
		lib:         lib,
	}
	if src == nil {
		return s, nil
	}
	for _, h := range []struct {
		src interface{}
		p   **goja.Program
	}{
		{src.Enter, &s.enter},
		{src.Execute, &s.execute},
		{src.Leave, &s.leave},
		{src.Message, &s.message},
	} {
		if h.src == nil {
			continue
		}
		p, err := i.Compile(ctx, h.src)
		if err != nil {
			return nil, &StateError{State: name, Err: err}
		}
		*h.p = p
	}
	return s, nil
}

func (s *State) Name() string {
	return s.Label
}

func (s *State) Enter(a *Agent) {
	s.run("enter", s.enter, a, nil)
}

func (s *State) Execute(a *Agent) {
	s.run("execute", s.execute, a, nil)
}

func (s *State) Leave(a *Agent) {
	s.run("leave", s.leave, a, nil)
}

func (s *State) OnMessage(a *Agent, t *core.Telegram) bool {
	v := s.run("message", s.message, a, t)
	return v != nil && v.ToBoolean()
}

// run executes one hook.  Failures are logged, and the hook counts as
// having done nothing.
func (s *State) run(hook string, p *goja.Program, a *Agent, t *core.Telegram) goja.Value {
	if p == nil {
		return nil
	}

	ctx, cancel := s.interpreter.hookContext()
	defer cancel()

	v, err := s.interpreter.Exec(ctx, p, func(o *goja.Runtime, env map[string]interface{}) {
		a.bind(o, env, s.lib)
		if t != nil {
			env["msg"] = telegramMap(t)
		}
	})
	if err != nil {
		log.Printf("goja %s.%s for %d (%s): %s", s.Label, hook, a.ID(), a.Name(), err)
		return nil
	}
	return v
}

func telegramMap(t *core.Telegram) map[string]interface{} {
	return map[string]interface{}{
		"from":    int64(t.Sender()),
		"to":      int64(t.Receiver()),
		"type":    string(t.Type()),
		"payload": t.Payload(),
		"delay":   int64(t.Delay()),
		"sent":    int64(t.Sent()),
	}
}
