package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/crew"
	"github.com/Comcast/telegraph/dispatch"
	"github.com/Comcast/telegraph/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpl(t *testing.T) {
	var _ storage.Storage = &Storage{}
}

func open(t *testing.T) (context.Context, *Storage) {
	ctx := context.Background()
	s, err := NewStorage(filepath.Join(t.TempDir(), "storage.db"))
	require.NoError(t, err)
	s.NoSync = true
	require.NoError(t, s.Open(ctx))
	t.Cleanup(func() {
		assert.NoError(t, s.Close(ctx))
	})
	return ctx, s
}

func TestState(t *testing.T) {
	ctx, s := open(t)
	run := "simpsons"
	require.NoError(t, s.MakeRun(ctx, run))

	require.NoError(t, s.WriteState(ctx, run, []*crew.Machine{
		{Id: 2, Name: "marge", State: "cooking"},
		{Id: 1, Name: "homer", State: "napping", Bindings: map[string]interface{}{"likes": "donuts"}},
	}))

	ms, err := s.GetState(ctx, run)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "homer", ms[0].Name)
	assert.Equal(t, "donuts", ms[0].Bindings["likes"])
	assert.Equal(t, "marge", ms[1].Name)

	require.NoError(t, s.WriteState(ctx, run, []*crew.Machine{
		{Id: 1, Name: "homer", State: "eating"},
	}))
	ms, err = s.GetState(ctx, run)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "eating", ms[0].State)
	assert.Equal(t, "cooking", ms[1].State)

	require.NoError(t, s.RemRun(ctx, run))
	_, err = s.GetState(ctx, run)
	assert.True(t, errors.Is(err, NotFound))
}

func TestEvents(t *testing.T) {
	ctx, s := open(t)
	run := "flanders"
	require.NoError(t, s.MakeRun(ctx, run))
	assert.Error(t, s.MakeRun(ctx, run))

	for i, typ := range []core.MsgType{"a", "b", "c"} {
		e, err := storage.AsEvent(&dispatch.Event{
			Kind:     dispatch.Posted,
			At:       core.Time(i),
			Telegram: core.NewTelegram(core.Time(i), 1, 1, 2, typ, nil),
		})
		require.NoError(t, err)
		require.NoError(t, s.AppendEvent(ctx, run, e))
	}

	es, err := s.Events(ctx, run)
	require.NoError(t, err)
	require.Len(t, es, 3)
	for i, e := range es {
		assert.Equal(t, core.Time(i), e.At)
		assert.Equal(t, dispatch.Posted, e.Kind)
	}
	assert.Contains(t, string(es[2].Telegram), `"type":"c"`)

	assert.Error(t, s.AppendEvent(ctx, "nope", es[0]))
}

func TestJournal(t *testing.T) {
	ctx, s := open(t)

	c := crew.NewCrew("test")
	clock := core.NewClock(1)
	d := dispatch.NewDispatcher(clock.Now, c)

	j := storage.NewJournal(&opened{s})
	require.NotEmpty(t, j.Run)
	require.NoError(t, j.Start(ctx))
	d.Tracers = append(d.Tracers, j)

	d.Post(1, 0, 5, "lost", nil)
	j.Snapshot(c)

	es, err := s.Events(ctx, j.Run)
	require.NoError(t, err)
	require.Len(t, es, 2)
	assert.Equal(t, dispatch.Posted, es[0].Kind)
	assert.Equal(t, dispatch.Dropped, es[1].Kind)
	assert.Equal(t, 0, j.Errors())
}

// opened is a Storage that's already open.
type opened struct {
	*Storage
}

func (o *opened) Open(ctx context.Context) error  { return nil }
func (o *opened) Close(ctx context.Context) error { return nil }
