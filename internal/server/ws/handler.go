package wsserver

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/valyala/fastjson"

	"github.com/rzbill/calclog/internal/broadcast"
	"github.com/rzbill/calclog/internal/logstore"
	"github.com/rzbill/calclog/pkg/log"
)

const (
	defaultPingInterval = 30 * time.Second
	writeTimeout        = 10 * time.Second
	maxFrameBytes       = 64 << 10
)

// Submitter records push-channel drafts.
type Submitter interface {
	SubmitPush(ctx context.Context, d logstore.Draft) (logstore.Record, bool, error)
}

// Subscriber hands out feeds of committed records.
type Subscriber interface {
	Subscribe() *broadcast.Subscription
}

// Options tunes the push channel.
type Options struct {
	PingInterval time.Duration
	// ReadTimeout defaults to twice PingInterval and is refreshed by pongs.
	ReadTimeout    time.Duration
	AllowedOrigins []string
	Logger         log.Logger
}

// Handler upgrades requests to WebSocket observers.
type Handler struct {
	svc      Submitter
	hub      Subscriber
	upgrader websocket.Upgrader
	parsers  fastjson.ParserPool
	ping     time.Duration
	readTO   time.Duration
	logger   log.Logger

	wg sync.WaitGroup
}

func NewHandler(svc Submitter, hub Subscriber, opts Options) *Handler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 2 * opts.PingInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	h := &Handler{
		svc:    svc,
		hub:    hub,
		ping:   opts.PingInterval,
		readTO: opts.ReadTimeout,
		logger: opts.Logger.WithComponent("ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(opts.AllowedOrigins),
	}
	return h
}

// Wait blocks until every connection served by h has finished.
func (h *Handler) Wait() { h.wg.Wait() }

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.wg.Add(1)
	defer h.wg.Done()
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error.
		h.logger.Warn("websocket upgrade failed", log.Err(err))
		return
	}

	id := uuid.NewString()
	logger := h.logger.With(log.Str("observer", id), log.Str("remote", r.RemoteAddr))
	logger.Info("New WebSocket connection")

	sub := h.hub.Subscribe()
	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(conn, sub, done, logger)
	}()

	h.readLoop(r.Context(), conn, logger)

	close(done)
	<-writerDone
	sub.Close()
	_ = conn.Close()
	logger.Info("WebSocket disconnected")
}

// readLoop consumes observer frames until the connection fails.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, logger log.Logger) {
	conn.SetReadLimit(maxFrameBytes)
	_ = conn.SetReadDeadline(time.Now().Add(h.readTO))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTO))
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read ended", log.Err(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.readTO))
		h.handleFrame(ctx, frame, logger)
	}
}

func (h *Handler) handleFrame(ctx context.Context, frame []byte, logger log.Logger) {
	p := h.parsers.Get()
	draft, ok, err := parseFrame(p, frame)
	h.parsers.Put(p)
	if err != nil {
		logger.Warn("ignoring websocket frame", log.Err(err))
		return
	}
	if !ok {
		return
	}
	// Push submissions get no acknowledgement; failures are only logged.
	if _, _, err := h.svc.SubmitPush(ctx, draft); err != nil {
		logger.Error("Error logging expression via WebSocket", log.Str("expression", draft.Expression), log.Err(err))
	}
}

// writeLoop is the only goroutine writing to conn.
func (h *Handler) writeLoop(conn *websocket.Conn, sub *broadcast.Subscription, done <-chan struct{}, logger log.Logger) {
	ticker := time.NewTicker(h.ping)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case rec, ok := <-sub.C():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeTimeout))
				_ = conn.Close()
				return
			}
			frame, err := json.Marshal(Envelope{Event: EventNewLog, Data: rec})
			if err != nil {
				logger.Error("encode new-log", log.Err(err))
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				logger.Debug("websocket write failed", log.Err(err))
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
