package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/crew"
	"github.com/Comcast/telegraph/dispatch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// broken fails every write.
type broken struct {
	NoopStorage
}

func (b *broken) AppendEvent(ctx context.Context, run string, e *Event) error {
	return errors.New("disk on fire")
}

func (b *broken) WriteState(ctx context.Context, run string, ms []*crew.Machine) error {
	return errors.New("disk on fire")
}

func TestJournalErrors(t *testing.T) {
	j := NewJournal(&broken{})
	require.NoError(t, j.Start(context.Background()))

	j.Trace(&dispatch.Event{
		Kind:     dispatch.Posted,
		Telegram: core.NewTelegram(0, 0, 1, 2, "x", nil),
	})
	j.Snapshot(crew.NewCrew("test"))
	assert.Equal(t, 2, j.Errors())
	assert.NoError(t, j.Stop(context.Background()))
}

func TestJournalRunIds(t *testing.T) {
	a := NewJournal(&NoopStorage{})
	b := NewJournal(&NoopStorage{})
	assert.NotEqual(t, a.Run, b.Run)
	assert.Len(t, a.Run, 36)
}

func TestAsEvent(t *testing.T) {
	e, err := AsEvent(&dispatch.Event{
		Kind:     dispatch.Discharged,
		At:       3,
		Telegram: core.NewTelegram(1, 2, 1, 2, "hi", "there"),
		Handled:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, core.Time(3), e.At)
	assert.True(t, e.Handled)
	assert.JSONEq(t, `{"delay":2,"from":1,"to":2,"type":"hi","payload":"there","sent":1,"due":3}`, string(e.Telegram))
}
