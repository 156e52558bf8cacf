package goja

import (
	"context"
	"errors"
	"sort"

	"github.com/Comcast/telegraph/core"
)

// Library is a set of named scripted states.
type Library struct {
	Interpreter *Interpreter

	states map[string]*State
}

func NewLibrary(i *Interpreter) *Library {
	if i == nil {
		i = NewInterpreter()
	}
	return &Library{
		Interpreter: i,
		states:      make(map[string]*State),
	}
}

// Add compiles the source and adds the result under the given name,
// replacing any state already there.
func (l *Library) Add(ctx context.Context, name string, src *StateSource) (*State, error) {
	if name == "" {
		return nil, &StateError{Err: errors.New("empty name")}
	}
	s, err := l.Interpreter.CompileState(ctx, l, name, src)
	if err != nil {
		return nil, err
	}
	l.states[name] = s
	return s, nil
}

// State finds the named state.
func (l *Library) State(name string) (*State, error) {
	s, have := l.states[name]
	if !have {
		return nil, &StateError{State: name, Err: ErrUnknownState}
	}
	return s, nil
}

// Names returns the states' names in order.
func (l *Library) Names() []string {
	acc := make([]string, 0, len(l.states))
	for name := range l.states {
		acc = append(acc, name)
	}
	sort.Strings(acc)
	return acc
}

// NewAgent makes an agent whose machine starts in the named state
// with the (optional) named global state.
//
// The machine isn't started.
func (l *Library) NewAgent(b core.Base, name, current, global string, now func() core.Time) (*Agent, error) {
	cur, err := l.State(current)
	if err != nil {
		return nil, err
	}
	var g core.State[*Agent]
	if global != "" {
		s, err := l.State(global)
		if err != nil {
			return nil, err
		}
		g = s
	}
	a := NewAgent(b, name, now)
	a.FSM.Init(cur, g, nil)
	return a, nil
}
