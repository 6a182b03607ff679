package transports

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rzbill/calclog/internal/logstore"
)

// Watcher follows the WebSocket push channel.
type Watcher struct {
	url    string
	dialer *websocket.Dialer
}

// NewWatcher derives the push URL from an HTTP base URL and channel path.
func NewWatcher(httpBase, path string) (*Watcher, error) {
	u, err := url.Parse(strings.TrimRight(httpBase, "/"))
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += path
	return &Watcher{url: u.String(), dialer: websocket.DefaultDialer}, nil
}

// URL is the resolved push endpoint.
func (w *Watcher) URL() string { return w.url }

// Watch sends each draft as a "log" event, then delivers every "new-log"
// payload to onRecord until ctx is done or the server closes the channel.
func (w *Watcher) Watch(ctx context.Context, send []logstore.Draft, onRecord func(logstore.Record) error) error {
	conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadlineSoon())
			_ = conn.Close()
		case <-done:
		}
	}()

	for _, d := range send {
		frame := struct {
			Event string         `json:"event"`
			Data  logstore.Draft `json:"data"`
		}{Event: "log", Data: d}
		if err := conn.WriteJSON(frame); err != nil {
			return err
		}
	}

	for {
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		if env.Event != "new-log" {
			continue
		}
		var rec logstore.Record
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			return err
		}
		if err := onRecord(rec); err != nil {
			return err
		}
	}
}

func deadlineSoon() time.Time { return time.Now().Add(time.Second) }
