package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rzbill/calclog/internal/runtime"
	"github.com/rzbill/calclog/internal/server/http/controllers"
	wsserver "github.com/rzbill/calclog/internal/server/ws"
	"github.com/rzbill/calclog/pkg/log"
)

const shutdownGrace = 5 * time.Second

type Server struct {
	rt     *runtime.Runtime
	srv    *http.Server
	ws     *wsserver.Handler
	lis    net.Listener
	logger log.Logger

	// base is the parent of every request context; cancelling it ends
	// long-poll streams and push connections on shutdown.
	base   context.Context
	cancel context.CancelFunc
}

// New builds the HTTP surface: REST, long-poll, push channel, health and metrics.
func New(rt *runtime.Runtime, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	cfg := rt.Config()
	base, cancel := context.WithCancel(context.Background())
	s := &Server{rt: rt, logger: logger.WithComponent("http"), base: base, cancel: cancel}

	mux := http.NewServeMux()
	controllers.NewControllerRegistry(rt, logger).RegisterAllRoutes(mux)
	s.ws = wsserver.NewHandler(rt.Logs(), rt.Hub(), wsserver.Options{
		PingInterval:   cfg.PushChannel.PingInterval(),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})
	mux.Handle(cfg.PushChannel.Path, s.ws)

	s.srv = &http.Server{
		Handler:           cors(cfg.AllowedOrigins, mux),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
		ErrorLog:          log.ToStdLogger(s.logger, log.WarnLevel),
	}
	return s
}

// Handler exposes the routed handler, CORS included.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ListenAndServe binds addr and serves until ctx is done, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

// Serve serves on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.lis = l
	s.logger.Info("http listening", log.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		s.shutdown()
		return nil
	case err := <-errCh:
		s.cancel()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) shutdown() {
	s.cancel()
	cctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.srv.Shutdown(cctx); err != nil {
		s.logger.Warn("http shutdown", log.Err(err))
	}
	// Push connections are hijacked, so Shutdown does not track them.
	// Closing the hub makes every writer send a close frame.
	s.rt.Hub().Close()
	waited := make(chan struct{})
	go func() {
		s.ws.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-cctx.Done():
		s.logger.Warn("push connections still open after grace period")
	}
}

func (s *Server) Close() {
	s.cancel()
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

// cors allows the configured origins; "*" allows any.
func cors(allowed []string, next http.Handler) http.Handler {
	anyOrigin := false
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			anyOrigin = true
		}
		set[strings.TrimSpace(o)] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		if anyOrigin {
			h.Set("Access-Control-Allow-Origin", "*")
		} else if origin := r.Header.Get("Origin"); origin != "" {
			h.Add("Vary", "Origin")
			if _, ok := set[origin]; ok {
				h.Set("Access-Control-Allow-Origin", origin)
			}
		}
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
