package goja

import (
	"github.com/Comcast/telegraph/core"

	"github.com/dop251/goja"
)

// Agent is an entity whose states are usually scripted.
type Agent struct {
	core.Agent[*Agent]

	name string
	bs   map[string]interface{}
	now  func() core.Time
}

// NewAgent makes an agent with empty bindings and an uninitialized
// machine.  The function now is used for "_.now".
func NewAgent(b core.Base, name string, now func() core.Time) *Agent {
	a := &Agent{
		name: name,
		bs:   make(map[string]interface{}),
		now:  now,
	}
	a.Agent = core.NewAgent(b, a)
	return a
}

func (a *Agent) Name() string {
	return a.name
}

// Bindings returns the agent's bindings.  Not a copy.
func (a *Agent) Bindings() map[string]interface{} {
	return a.bs
}

// SetBindings replaces the agent's bindings.
func (a *Agent) SetBindings(bs map[string]interface{}) {
	if bs == nil {
		bs = make(map[string]interface{})
	}
	a.bs = bs
}

func (a *Agent) bind(o *goja.Runtime, env map[string]interface{}, lib *Library) {
	env["id"] = int64(a.ID())
	env["name"] = a.name
	env["bindings"] = a.bs
	if a.now != nil {
		env["now"] = int64(a.now())
	} else {
		env["now"] = int64(0)
	}

	env["post"] = func(call goja.FunctionCall) goja.Value {
		var (
			delay   = call.Argument(0).ToInteger()
			to      = call.Argument(1).ToInteger()
			typ     = call.Argument(2).String()
			payload interface{}
		)
		if x := call.Argument(3); !goja.IsUndefined(x) && !goja.IsNull(x) {
			p, err := core.Canonicalize(x.Export())
			if err != nil {
				protest(o, err.Error())
			}
			payload = p
		}
		a.Send(core.Time(delay), core.ID(to), core.MsgType(typ), payload)
		return goja.Undefined()
	}

	env["change"] = func(name string) {
		if a.FSM == nil {
			protest(o, "no state machine")
		}
		if lib == nil {
			protest(o, "no library")
		}
		s, err := lib.State(name)
		if err != nil {
			protest(o, err.Error())
		}
		a.FSM.ChangeState(s)
	}

	env["revert"] = func() {
		if a.FSM != nil {
			a.FSM.RevertToPrevious()
		}
	}

	env["inState"] = func(name string) bool {
		return a.FSM != nil && a.FSM.StateName() == name
	}
}
