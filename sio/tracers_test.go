package sio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Comcast/telegraph/core"
	"github.com/Comcast/telegraph/crew"
	"github.com/Comcast/telegraph/dispatch"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(kind dispatch.EventKind) *dispatch.Event {
	return &dispatch.Event{
		Kind:     kind,
		At:       3,
		Telegram: core.NewTelegram(3, 0, 1, 2, "ping", nil),
	}
}

func TestJSONTracer(t *testing.T) {
	var buf bytes.Buffer
	tr := NewJSONTracer(&buf)
	tr.Only = map[dispatch.EventKind]bool{dispatch.Discharged: true}

	tr.Trace(event(dispatch.Posted))
	tr.Trace(event(dispatch.Discharged))

	line := strings.TrimSpace(buf.String())
	require.True(t, strings.HasPrefix(line, "discharged "), line)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "discharged ")), &m))
	assert.Equal(t, "discharged", m["event"])
	assert.Equal(t, 3.0, m["at"])

	buf.Reset()
	tr.Only = nil
	tr.Tags = false
	tr.Trace(event(dispatch.Dropped))
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())
}

func TestJSONStore(t *testing.T) {
	c := crew.NewCrew("store")
	s := NewJSONStore("")
	assert.NoError(t, s.WriteState(c))

	s = NewJSONStore(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, s.WriteState(c))
	ms, err := s.ReadState()
	require.NoError(t, err)
	assert.Empty(t, ms)

	_, err = NewJSONStore(filepath.Join(t.TempDir(), "nope.json")).ReadState()
	assert.Error(t, err)
}

func TestWSTracer(t *testing.T) {
	ctx := context.Background()
	w := NewWSTracer("127.0.0.1:0")
	require.NoError(t, w.Start(ctx))
	defer w.Stop(ctx)

	url := "ws://" + w.ListenAddr() + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	// Wait for the server to register the connection.
	registered := func() bool {
		n := 0
		w.conns.Range(func(k, v interface{}) bool {
			n++
			return true
		})
		return 0 < n
	}
	require.Eventually(t, registered, 2*time.Second, 10*time.Millisecond)

	w.Trace(event(dispatch.Queued))

	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, js, err := c.ReadMessage()
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(js, &m))
	assert.Equal(t, "queued", m["event"])
}

type fakeToken struct {
	mqtt.Token
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

type fakeClient struct {
	mqtt.Client
	topics       []string
	payloads     [][]byte
	connectErr   error
	disconnected bool
}

func (c *fakeClient) Connect() mqtt.Token {
	return &fakeToken{err: c.connectErr}
}

func (c *fakeClient) Disconnect(quiesce uint) {
	c.disconnected = true
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topics = append(c.topics, topic)
	c.payloads = append(c.payloads, payload.([]byte))
	return &fakeToken{}
}

func TestMQTTTracer(t *testing.T) {
	ctx := context.Background()
	c := &fakeClient{}
	m := &MQTTTracer{
		Client:  c,
		Topic:   "sim/%s",
		Timeout: time.Second,
	}
	require.NoError(t, m.Start(ctx))

	m.Trace(event(dispatch.Posted))
	m.Trace(event(dispatch.Dropped))

	assert.Equal(t, []string{"sim/posted", "sim/dropped"}, c.topics)
	var e map[string]interface{}
	require.NoError(t, json.Unmarshal(c.payloads[0], &e))
	assert.Equal(t, "posted", e["event"])

	require.NoError(t, m.Stop(ctx))
	assert.True(t, c.disconnected)

	c.connectErr = errors.New("refused")
	assert.Error(t, m.Start(ctx))
}

func TestMetricsServer(t *testing.T) {
	ctx := context.Background()

	sim, err := NewSim(nil)
	require.NoError(t, err)
	m, err := NewMetricsServer("127.0.0.1:0", sim.Dispatcher)
	require.NoError(t, err)
	sim.Couple(m)

	require.NoError(t, sim.Open(ctx))
	defer sim.Close(ctx)

	// Nobody's home, so this one is dropped.
	sim.Dispatcher.Post(0, 1, 2, "knock", nil)

	resp, err := http.Get("http://" + m.ListenAddr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	bs, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)

	page := string(bs)
	assert.Contains(t, page, `telegraph_telegrams_total{event="dropped"} 1`)
	assert.Contains(t, page, "telegraph_telegrams_pending 0")
	assert.Contains(t, page, "go_goroutines")
}
