package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/telegraph/sio"
	"github.com/Comcast/telegraph/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	opts := &Opts{
		scenario:  "../../specs/westworld.yaml",
		ticks:     13,
		stateOut:  filepath.Join(dir, "state.json"),
		snapshots: filepath.Join(dir, "snapshots.yaml"),
		journal:   filepath.Join(dir, "journal.db"),
	}

	require.NoError(t, opts.run(context.Background()))

	ms, err := sio.NewJSONStore(opts.stateOut).ReadState()
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "goHomeAndSleep", ms[0].State)
	assert.Equal(t, "eatStew", ms[0].Previous)

	f, err := os.Open(opts.snapshots)
	require.NoError(t, err)
	defer f.Close()
	ss, err := tools.ReadSnapshots(f)
	require.NoError(t, err)
	require.Len(t, ss, 13)
	assert.EqualValues(t, 13, ss[12].At)
	assert.Equal(t, "eatStew", ss[11].Machines[0].State)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := &Opts{
		scenario: "../../specs/westworld.yaml",
	}
	assert.NoError(t, opts.run(ctx))
}

func TestRender(t *testing.T) {
	dir := t.TempDir()
	opts := &Opts{
		scenario: "../../specs/westworld.yaml",
		dot:      filepath.Join(dir, "g.dot"),
		html:     filepath.Join(dir, "g.html"),
	}
	require.NoError(t, opts.run(context.Background()))
	for _, filename := range []string{opts.dot, opts.html} {
		info, err := os.Stat(filename)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}
	bs, err := os.ReadFile(opts.dot)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(string(bs)), "}"), "truncated dot output")
}

func TestConfs(t *testing.T) {
	opts := &Opts{tick: 5, pace: "1ms", verbose: true}
	conf, err := opts.confs()
	require.NoError(t, err)
	assert.EqualValues(t, 5, conf.Tick)
	assert.Equal(t, "1ms", conf.Pace)
	assert.True(t, conf.Verbose)

	opts.conf = "nope.yaml"
	_, err = opts.confs()
	assert.Error(t, err)
}

func TestBuiltin(t *testing.T) {
	opts := &Opts{
		builtin:  "westworld",
		ticks:    13,
		stateOut: filepath.Join(t.TempDir(), "state.json"),
	}
	require.NoError(t, opts.run(context.Background()))

	ms, err := sio.NewJSONStore(opts.stateOut).ReadState()
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, "Elsa", ms[1].Name)
	assert.Equal(t, "doHouseWork", ms[1].State)

	opts.builtin = "eastworld"
	assert.Error(t, opts.run(context.Background()))
}
