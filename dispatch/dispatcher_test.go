package dispatch

import (
	"testing"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/crew"
	"github.com/Comcast/telegraph/timers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ear records what it receives and when.
type ear struct {
	core.Base
	clock *core.Clock
	heard []*core.Telegram
	when  []core.Time
}

func (e *ear) Update() {}

func (e *ear) Receive(t *core.Telegram) bool {
	e.heard = append(e.heard, t)
	e.when = append(e.when, e.clock.Now())
	return true
}

func (e *ear) types() string {
	acc := ""
	for _, t := range e.heard {
		acc += string(t.Type())
	}
	return acc
}

type rig struct {
	clock *core.Clock
	crew  *crew.Crew
	d     *Dispatcher
}

func newRig() *rig {
	r := &rig{
		clock: core.NewClock(1),
		crew:  crew.NewCrew("test"),
	}
	r.d = NewDispatcher(r.clock.Now, r.crew)
	return r
}

func (r *rig) ear(t *testing.T) *ear {
	b := core.NextBase(r.crew.IDs(), r.d)
	e := &ear{Base: b, clock: r.clock}
	require.NoError(t, r.crew.Register(e))
	return e
}

func (r *rig) tick() int {
	r.clock.Advance()
	r.crew.UpdateAll()
	return r.d.FlushDue()
}

func TestImmediate(t *testing.T) {
	r := newRig()
	e := r.ear(t)

	r.d.Post(0, 0, e.ID(), "now", nil)
	require.Len(t, e.heard, 1)

	r.d.Post(-2, 0, e.ID(), "now", nil)
	require.Len(t, e.heard, 2)
	assert.Equal(t, 0, r.d.Pending())
}

func TestDelayed(t *testing.T) {
	r := newRig()
	e := r.ear(t)

	r.d.Post(2, 0, e.ID(), "later", 42)
	assert.Empty(t, e.heard)
	assert.Equal(t, 1, r.d.Pending())
	at, ok := r.d.Peek()
	require.True(t, ok)
	assert.Equal(t, core.Time(2), at)

	assert.Equal(t, 0, r.tick())
	assert.Empty(t, e.heard)
	assert.Equal(t, 1, r.tick())
	require.Len(t, e.heard, 1)
	assert.Equal(t, core.Time(2), e.when[0])
	assert.Equal(t, 42, e.heard[0].Payload())
	assert.Equal(t, 0, r.d.Pending())
}

func TestDelayedForever(t *testing.T) {
	r := newRig()
	e := r.ear(t)

	r.tick()
	r.d.Post(core.MaxTime, 0, e.ID(), "never", nil)
	r.d.Post(core.MaxTime-1, 0, e.ID(), "never", nil)
	require.Equal(t, 2, r.d.Pending())
	at, ok := r.d.Peek()
	require.True(t, ok)
	assert.Equal(t, core.MaxTime, at)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 0, r.tick())
	}
	assert.Empty(t, e.heard)
	assert.Equal(t, 2, r.d.Pending())
}

func TestOrdering(t *testing.T) {
	r := newRig()
	e := r.ear(t)

	r.d.Post(3, 0, e.ID(), "c", nil)
	r.d.Post(1, 0, e.ID(), "a", nil)
	r.d.Post(3, 0, e.ID(), "d", nil)
	r.d.Post(2, 0, e.ID(), "b", nil)

	qs := r.d.Queued()
	require.Len(t, qs, 4)
	assert.Equal(t, core.MsgType("a"), qs[0].Type())

	for i := 0; i < 4; i++ {
		r.tick()
	}
	assert.Equal(t, "abcd", e.types())
	assert.Equal(t, []core.Time{1, 2, 3, 3}, e.when)
}

func TestSameTickFlush(t *testing.T) {
	r := newRig()
	e := r.ear(t)

	r.clock.Advance()
	r.clock.Advance()
	r.d.Post(1, 0, e.ID(), "x", nil)

	// Two ticks pass without a flush.
	r.clock.Advance()
	r.clock.Advance()
	assert.Equal(t, 1, r.d.FlushDue())
	assert.Equal(t, 0, r.d.FlushDue())
}

func TestDroppedUnknownReceiver(t *testing.T) {
	r := newRig()
	var dropped []*Event
	r.d.Tracers = append(r.d.Tracers, TracerFunc(func(e *Event) {
		if e.Kind == Dropped {
			dropped = append(dropped, e)
		}
	}))

	r.d.Post(0, 0, 99, "nobody", nil)
	r.d.Post(1, 0, 99, "nobody", nil)
	assert.Equal(t, 0, r.d.Pending())
	for i := 0; i < 3; i++ {
		assert.Equal(t, 0, r.tick())
	}
	require.Len(t, dropped, 2)
	assert.Equal(t, "no receiver", dropped[0].Reason)
}

func TestReceiverGone(t *testing.T) {
	r := newRig()
	e := r.ear(t)

	r.d.Post(2, 0, e.ID(), "x", nil)
	r.tick()
	require.True(t, r.crew.Unregister(e))
	assert.Equal(t, 0, r.tick())
	assert.Empty(t, e.heard)
	assert.Equal(t, 0, r.d.Pending())
}

func TestCancel(t *testing.T) {
	r := newRig()
	e := r.ear(t)
	var drops []*Event
	r.d.Tracers = append(r.d.Tracers, TracerFunc(func(ev *Event) {
		if ev.Kind == Dropped {
			drops = append(drops, ev)
		}
	}))

	r.d.Post(1, 0, e.ID(), "a", nil)
	r.d.Post(2, 0, e.ID(), "b", nil)
	queued := r.d.Queued()
	require.Len(t, queued, 2)

	require.NoError(t, r.d.Cancel(queued[0]))
	assert.ErrorIs(t, r.d.Cancel(queued[0]), timers.NotFound)
	require.Len(t, drops, 1)
	assert.Equal(t, "canceled", drops[0].Reason)

	r.tick()
	r.tick()
	assert.Equal(t, "b", e.types())
	assert.Equal(t, 0, r.d.Pending())
}

func TestMaxPending(t *testing.T) {
	r := newRig()
	e := r.ear(t)
	r.d.SetMaxPending(1)

	var kinds []EventKind
	r.d.Tracers = Tracers{TracerFunc(func(e *Event) {
		kinds = append(kinds, e.Kind)
	})}

	r.d.Post(1, 0, e.ID(), "a", nil)
	r.d.Post(1, 0, e.ID(), "b", nil)
	assert.Equal(t, 1, r.d.Pending())
	assert.Equal(t, []EventKind{Posted, Queued, Posted, Dropped}, kinds)

	r.tick()
	assert.Equal(t, "a", e.types())
}

// TestDelayedFromEnter has the first entity's initial state post a
// telegram with delay 3 to the second.
func TestDelayedFromEnter(t *testing.T) {
	r := newRig()

	type sender struct {
		core.Agent[*struct{}]
	}
	b, err := core.NewBase(r.crew.IDs(), 1, r.d)
	require.NoError(t, err)
	s := &sender{}
	s.Agent = core.NewAgent[*struct{}](b, nil)
	require.NoError(t, r.crew.Register(s))

	e := r.ear(t)
	require.Equal(t, core.ID(2), e.ID())

	s.FSM.Init(&core.FuncState[*struct{}]{
		EnterFunc: func(*struct{}) {
			s.Send(3, e.ID(), "hello", nil)
		},
	}, nil, nil)

	n, err := r.crew.StartAll()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	for i := 1; i <= 3; i++ {
		r.tick()
		if i < 3 {
			assert.Empty(t, e.heard, "tick %d", i)
		}
	}
	require.Len(t, e.heard, 1)
	assert.Equal(t, core.Time(3), e.when[0])
	assert.Equal(t, core.ID(1), e.heard[0].Sender())

	r.tick()
	assert.Len(t, e.heard, 1)
}

// TestReentrantPost has a receiver post while it's being delivered
// to.
func TestReentrantPost(t *testing.T) {
	r := newRig()
	e := r.ear(t)

	b := core.NextBase(r.crew.IDs(), r.d)
	x := &echoer{Base: b, to: e.ID()}
	require.NoError(t, r.crew.Register(x))

	r.d.Post(1, 0, x.ID(), "ping", nil)
	r.tick()
	assert.Equal(t, "pong", e.types())
}

type echoer struct {
	core.Base
	to core.ID
}

func (x *echoer) Update() {}

func (x *echoer) Receive(t *core.Telegram) bool {
	x.Send(0, x.to, "pong", nil)
	return true
}

func TestMetrics(t *testing.T) {
	r := newRig()
	e := r.ear(t)

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg, r.d)
	require.NoError(t, err)
	r.d.Tracers = append(r.d.Tracers, m)

	r.d.Post(0, 0, e.ID(), "a", nil)
	r.d.Post(2, 0, e.ID(), "b", nil)
	r.d.Post(1, 0, 77, "c", nil)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.Telegrams.WithLabelValues("posted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Telegrams.WithLabelValues("queued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Telegrams.WithLabelValues("discharged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Telegrams.WithLabelValues("dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Pending))

	r.tick()
	r.tick()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Telegrams.WithLabelValues("discharged")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Pending))

	_, err = NewMetrics(reg, r.d)
	assert.Error(t, err)
}
