package ltapi

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/txn2/linkterm/pkg/ltapi/types"
	"github.com/txn2/linkterm/pkg/ltevents"
	"github.com/txn2/linkterm/pkg/ltlog"
	"github.com/txn2/linkterm/pkg/ltmsg"
	"github.com/txn2/linkterm/pkg/ltsession"
)

type fixture struct {
	logs    *ltlog.Set
	history *ltsession.History
	bus     *ltevents.Bus
	manager *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		logs:    ltlog.NewSet(10),
		history: ltsession.NewHistory(10),
		bus:     ltevents.NewBus(10),
	}
	f.bus.Start()
	t.Cleanup(f.bus.Stop)
	f.manager = New(Options{
		Version: "1.2.3",
		Logs:    f.logs,
		History: f.history,
		Bus:     f.bus,
		Nodes:   map[string]string{"relay": "serial:///dev/ttyACM0"},
		Sink:    "log",
	})
	return f
}

func (f *fixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, types.Response) {
	t.Helper()
	w := httptest.NewRecorder()
	f.manager.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var resp types.Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	w := httptest.NewRecorder()
	f.manager.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health types.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestInfo(t *testing.T) {
	f := newFixture(t)
	w, resp := f.get(t, "/api/info")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "1.2.3", data["version"])
	assert.Equal(t, "log", data["sink"])
	assert.Equal(t, map[string]interface{}{"relay": "serial:///dev/ttyACM0"}, data["nodes"])
}

func TestLogsRecent(t *testing.T) {
	f := newFixture(t)
	relay := f.logs.Channel(ltlog.Relay)
	for _, s := range []string{"a", "b", "0.1[INFO] c"} {
		relay.Append(s)
	}

	w, resp := f.get(t, "/api/v1/logs/relay?count=2")
	require.Equal(t, http.StatusOK, w.Code)

	var logs types.LogsResponse
	raw, _ := json.Marshal(resp.Data)
	require.NoError(t, json.Unmarshal(raw, &logs))
	assert.Equal(t, "relay", logs.Node)
	assert.Equal(t, 10, logs.Capacity)
	require.Len(t, logs.Lines, 2)
	assert.Equal(t, "b", logs.Lines[0].Text)
	assert.Equal(t, ltlog.LevelInfo, logs.Lines[1].Level)
	assert.Equal(t, 2, resp.Meta.Count)
}

func TestLogsByNumberAndEmpty(t *testing.T) {
	f := newFixture(t)
	w, resp := f.get(t, "/api/v1/logs/3")
	require.Equal(t, http.StatusOK, w.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "drone", data["node"])
	assert.Equal(t, []interface{}{}, data["lines"])
}

func TestLogsUnknownNode(t *testing.T) {
	f := newFixture(t)
	w, resp := f.get(t, "/api/v1/logs/tower")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "UNKNOWN_NODE", resp.Error.Code)
}

func TestHistoryList(t *testing.T) {
	f := newFixture(t)
	first := f.history.Add(ltmsg.Ping{})
	second := f.history.Add(ltmsg.SetThrust{Value: 0.5})
	f.history.Resolve(first.ID, nil)
	f.history.Resolve(second.ID, errors.New("link down"))

	w, resp := f.get(t, "/api/v1/history")
	require.Equal(t, http.StatusOK, w.Code)
	entries := resp.Data.(map[string]interface{})["entries"].([]interface{})
	require.Len(t, entries, 2)
	assert.Equal(t, "SetThrust(0.5)", entries[0].(map[string]interface{})["text"])

	_, resp = f.get(t, "/api/v1/history?status=sent")
	entries = resp.Data.(map[string]interface{})["entries"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "Ping", entries[0].(map[string]interface{})["text"])

	_, resp = f.get(t, "/api/v1/history?count=1")
	assert.Equal(t, 1, resp.Meta.Count)
}

func TestNotReady(t *testing.T) {
	m := New(Options{})
	for _, path := range []string{"/api/v1/logs/relay", "/api/v1/history", "/api/v1/events"} {
		w := httptest.NewRecorder()
		m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func TestEventsUnknownType(t *testing.T) {
	f := newFixture(t)
	w, resp := f.get(t, "/api/v1/events?type=Bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_EVENT_TYPE", resp.Error.Code)
}

func TestEventsStream(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.manager.Handler())
	defer srv.Close()

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(srv.URL + "/api/v1/events?type=MessageSent")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	f.bus.Publish(ltevents.NewMessageEvent(ltevents.MessageQueued, "id0", "Ping", "Ping", nil))
	f.bus.Publish(ltevents.NewMessageEvent(ltevents.MessageSent, "id1", "Ping", "Ping", nil))

	for {
		line, err = r.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: ") {
			break
		}
	}
	assert.Equal(t, "event: MessageSent\n", line)

	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"historyId":"id1"`)
}

func TestEventStreamerAdapterCancel(t *testing.T) {
	bus := ltevents.NewBus(10)
	bus.Start()
	a := NewEventStreamerAdapter(bus)

	ch, cancel := a.Subscribe()
	assert.Equal(t, 1, a.Count())
	cancel()
	cancel()
	assert.Equal(t, 0, a.Count())

	_, ok := <-ch
	assert.False(t, ok)

	// publishing after cancel must not panic on the closed channel
	bus.Publish(ltevents.NewLineEvent("relay", "x"))
	bus.Stop()
}

func TestEventStreamerAdapterNilBus(t *testing.T) {
	ch, cancel := NewEventStreamerAdapter(nil).SubscribeType(ltevents.LineReceived)
	defer cancel()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestRunAndStop(t *testing.T) {
	m := New(Options{Listen: "127.0.0.1:0"})
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run() }()

	select {
	case <-m.Ready():
	case err := <-errCh:
		t.Fatalf("run failed: %v", err)
	}

	resp, err := http.Get("http://" + m.Addr().String() + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	m.Stop()
	m.Stop()
	require.NoError(t, <-errCh)
	<-m.Done()
}

func TestRunListenError(t *testing.T) {
	m := New(Options{Listen: "256.0.0.1:bad"})
	assert.Error(t, m.Run())
}
