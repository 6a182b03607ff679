package serverrun

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	cfgpkg "github.com/rzbill/calclog/internal/config"
	"github.com/rzbill/calclog/internal/metrics"
	"github.com/rzbill/calclog/internal/runtime"
	grpcserver "github.com/rzbill/calclog/internal/server/grpc"
	httpserver "github.com/rzbill/calclog/internal/server/http"
	logpkg "github.com/rzbill/calclog/pkg/log"
)

type Options struct {
	Config cfgpkg.Config
	// InMemory runs without touching disk.
	InMemory bool
	// Logger overrides the logger built from Config.
	Logger logpkg.Logger
	// Ready, if set, is called once both listeners are bound.
	Ready func(httpAddr, grpcAddr net.Addr)
}

// Run opens the runtime, serves HTTP and gRPC, and blocks until ctx is
// cancelled or the process receives SIGINT/SIGTERM. Failing to open the store
// or bind a listener is returned immediately.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := opts.Logger
	if logger == nil {
		l, err := logpkg.ApplyConfig(&logpkg.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: cfg.LogOutput})
		if err != nil {
			return fmt.Errorf("configure logging: %w", err)
		}
		logger = l
	}
	// Pebble and net/http report through the standard logger.
	logpkg.RedirectStdLog(logger)

	m := metrics.New()
	rt, err := runtime.Open(runtime.Options{Config: cfg, InMemory: opts.InMemory, Logger: logger, Metrics: m})
	if err != nil {
		logger.Error("Error opening store", logpkg.Err(err))
		return err
	}
	defer rt.Close()

	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen http %s: %w", cfg.HTTPAddr, err)
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpLis.Close()
		return fmt.Errorf("listen grpc %s: %w", cfg.GRPCAddr, err)
	}

	logger.Info("Starting calclog server",
		logpkg.Str("http", httpLis.Addr().String()),
		logpkg.Str("grpc", grpcLis.Addr().String()),
		logpkg.Str("level", cfg.LogLevel),
		logpkg.Dur("dedup_window", cfg.Logs.DedupWindow()),
		logpkg.Dur("longpoll_interval", cfg.Logs.LongPollInterval()),
	)

	hsrv := httpserver.New(rt, logger)
	gsrv := grpcserver.New(rt, logger)

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	serve := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && sctx.Err() == nil {
				logger.Error(name+" server failed", logpkg.Err(err))
				errCh <- err
			}
		}()
	}
	serve("http", func() error { return hsrv.Serve(sctx, httpLis) })
	serve("grpc", func() error { return gsrv.Serve(sctx, grpcLis) })

	if opts.Ready != nil {
		opts.Ready(httpLis.Addr(), grpcLis.Addr())
	}

	var runErr error
	select {
	case <-sctx.Done():
	case runErr = <-errCh:
		stop()
	}
	wg.Wait()
	logger.Info("calclog server stopped")
	return runErr
}
