package wsserver

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/calclog/internal/broadcast"
	"github.com/rzbill/calclog/internal/logstore"
)

// fakeService commits every draft and publishes it, like the real pipeline
// without storage.
type fakeService struct {
	mu     sync.Mutex
	hub    *broadcast.Hub
	drafts []logstore.Draft
	nextID uint64
}

func (f *fakeService) SubmitPush(ctx context.Context, d logstore.Draft) (logstore.Record, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts = append(f.drafts, d)
	f.nextID++
	rec := logstore.Record{ID: f.nextID, Expression: d.Expression, IsValid: d.IsValid, Output: d.Output, CreatedOn: time.Now().UTC(), Status: d.Status}
	f.hub.Publish(rec)
	return rec, true, nil
}

func (f *fakeService) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.drafts)
}

func startServer(t *testing.T) (*httptest.Server, *fakeService, *broadcast.Hub) {
	t.Helper()
	hub := broadcast.NewHub(8, nil)
	svc := &fakeService{hub: hub}
	h := NewHandler(svc, hub, Options{PingInterval: time.Second, AllowedOrigins: []string{"*"}})
	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return srv, svc, hub
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitObservers(t *testing.T, hub *broadcast.Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Len() == n }, 2*time.Second, 5*time.Millisecond)
}

type inbound struct {
	Event string          `json:"event"`
	Data  logstore.Record `json:"data"`
}

func TestLogEventIsBroadcastToAllObservers(t *testing.T) {
	srv, svc, hub := startServer(t)
	sender := dial(t, srv)
	watcher := dial(t, srv)
	waitObservers(t, hub, 2)

	frame := `{"event":"log","data":{"expression":"2+2","isValid":true,"output":4,"status":"completed"}}`
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(frame)))

	for _, c := range []*websocket.Conn{watcher, sender} {
		require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg inbound
		require.NoError(t, c.ReadJSON(&msg))
		assert.Equal(t, EventNewLog, msg.Event)
		assert.Equal(t, "2+2", msg.Data.Expression)
		require.NotNil(t, msg.Data.Output)
		assert.Equal(t, 4.0, *msg.Data.Output)
		assert.Equal(t, logstore.StatusCompleted, msg.Data.Status)
		assert.Equal(t, uint64(1), msg.Data.ID)
	}
	assert.Equal(t, 1, svc.count())
}

func TestMalformedFramesAreIgnored(t *testing.T) {
	srv, svc, hub := startServer(t)
	conn := dial(t, srv)
	waitObservers(t, hub, 1)

	for _, f := range []string{
		`not json`,
		`{"event":"log","data":"2+2"}`,
		`{"event":"log","data":{"expression":5}}`,
		`{"event":"log","data":{"expression":"1+1","isValid":"yes"}}`,
		`{"event":"other","data":{"expression":"1+1"}}`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(f)))
	}
	// the connection stays usable after bad frames
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"log","data":{"expression":"1+1","isValid":true,"output":2}}`)))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg inbound
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "1+1", msg.Data.Expression)
	assert.Equal(t, 1, svc.count())
}

func TestDisconnectUnsubscribes(t *testing.T) {
	srv, _, hub := startServer(t)
	conn := dial(t, srv)
	waitObservers(t, hub, 1)
	require.NoError(t, conn.Close())
	waitObservers(t, hub, 0)
}

func TestHubCloseEndsConnections(t *testing.T) {
	srv, _, hub := startServer(t)
	conn := dial(t, srv)
	waitObservers(t, hub, 1)
	hub.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "%v", err)
}

func TestParseFrame(t *testing.T) {
	h := NewHandler(nil, nil, Options{})
	p := h.parsers.Get()
	defer h.parsers.Put(p)

	d, ok, err := parseFrame(p, []byte(`{"event":"log","data":{"expression":"1/0","isValid":false,"output":null}}`))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, d.Output)
	assert.False(t, d.IsValid)

	_, _, err = parseFrame(p, []byte(`{"event":"log","data":{"expression":"1","output":"x"}}`))
	assert.ErrorIs(t, err, errMalformed)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173"})
	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	assert.True(t, check(req))
	req.Header.Set("Origin", "http://evil.test")
	assert.False(t, check(req))
	assert.Nil(t, originChecker(nil))
}
