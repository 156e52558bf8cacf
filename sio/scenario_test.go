package sio

import (
	"context"
	"os"
	"testing"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/dispatch"
	"github.com/Comcast/telegraph/interpreters/goja"
	"github.com/Comcast/telegraph/util/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var westworld = "../specs/westworld.yaml"

func num(x interface{}) float64 {
	switch vv := x.(type) {
	case int:
		return float64(vv)
	case int64:
		return float64(vv)
	case float64:
		return vv
	}
	return -1
}

func loadWestworld(t *testing.T) (*Sim, []*goja.Agent, *testutil.Recorder) {
	if _, err := os.Stat(westworld); os.IsNotExist(err) {
		t.Skipf("%s isn't available", westworld)
	}

	s, err := LoadScenario(westworld)
	require.NoError(t, err)
	assert.Equal(t, "westworld", s.Name)
	assert.Contains(t, s.Doc, "Miner Bob")

	sim, err := NewSim(nil)
	require.NoError(t, err)
	r := &testutil.Recorder{}
	sim.Trace(r)

	agents, err := s.Populate(context.Background(), sim)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	return sim, agents, r
}

func TestWestworld(t *testing.T) {
	sim, agents, r := loadWestworld(t)
	bob, elsa := agents[0], agents[1]
	assert.Equal(t, core.ID(1), bob.ID())
	assert.Equal(t, "Elsa", elsa.Name())

	n, err := sim.Start()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for i := 0; i < 12; i++ {
		sim.Step()
	}
	assert.Equal(t, "eatStew", bob.FSM.StateName())
	assert.Equal(t, "doHouseWork", elsa.FSM.StateName())

	sim.Step()
	cur, prev, _ := bob.FSM.StateNames()
	assert.Equal(t, "goHomeAndSleep", cur)
	assert.Equal(t, "eatStew", prev)

	bs := bob.Bindings()
	assert.Equal(t, 1.0, num(bs["stews"]))
	assert.Equal(t, 6.0, num(bs["bank"]))
	assert.Equal(t, "shack", bs["location"])
	assert.Equal(t, false, elsa.Bindings()["cooking"])
	assert.Equal(t, 13.0, num(elsa.Bindings()["chores"]))

	assert.Equal(t, []string{"HiHoneyImHome", "StewReady", "StewReady"}, r.Types(dispatch.Discharged))
	assert.Equal(t, 0, r.Count(dispatch.Dropped))
	assert.Equal(t, 0, sim.Dispatcher.Pending())

	ms := sim.Crew.Snapshot()
	require.Len(t, ms, 2)
	assert.Equal(t, "Bob", ms[0].Name)
	assert.Equal(t, "wifeGlobal", ms[1].Global)
}

func TestScenarioErrors(t *testing.T) {
	ctx := context.Background()

	for name, src := range map[string]string{
		"unknown state": `
states:
  a: {}
agents:
  - name: x
    state: b
`,
		"unknown global": `
states:
  a: {}
agents:
  - name: x
    state: a
    global: g
`,
		"decreasing ids": `
states:
  a: {}
agents:
  - {id: 5, name: x, state: a}
  - {id: 3, name: y, state: a}
`,
		"bad hook": `
states:
  a:
    enter: "return {"
agents: []
`,
	} {
		t.Run(name, func(t *testing.T) {
			s, err := ParseScenario([]byte(src))
			require.NoError(t, err)
			sim, err := NewSim(nil)
			require.NoError(t, err)
			_, err = s.Populate(ctx, sim)
			assert.Error(t, err)
		})
	}
}

func TestScenarioPopulateFails(t *testing.T) {
	s, err := ParseScenario([]byte(`
tick: 7
states:
  a: {}
agents:
  - {name: x, state: a}
  - {name: y, state: a}
  - {name: z, state: nope}
`))
	require.NoError(t, err)
	sim, err := NewSim(nil)
	require.NoError(t, err)

	_, err = s.Populate(context.Background(), sim)
	require.Error(t, err)
	assert.Equal(t, 0, sim.Crew.Len())
	assert.EqualValues(t, 1, sim.Clock.Tick())

	// The same sim still takes a good scenario.
	s.Agents = s.Agents[:2]
	agents, err := s.Populate(context.Background(), sim)
	require.NoError(t, err)
	assert.Len(t, agents, 2)
	assert.Equal(t, 2, sim.Crew.Len())
	assert.EqualValues(t, 7, sim.Clock.Tick())
}

func TestScenarioTick(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: slow
tick: 10
states:
  a:
    enter: _.post(20, _.id, "ping");
    message: _.bindings.heard = _.now; return true;
agents:
  - name: x
    state: a
  - name: y
    state: a
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, s.StateNames())

	sim, err := NewSim(nil)
	require.NoError(t, err)
	agents, err := s.Populate(context.Background(), sim)
	require.NoError(t, err)
	assert.Equal(t, core.ID(2), agents[1].ID())

	_, err = sim.Start()
	require.NoError(t, err)
	sim.Step()
	assert.Nil(t, agents[0].Bindings()["heard"])
	sim.Step()
	assert.Equal(t, 20.0, num(agents[0].Bindings()["heard"]))
}
