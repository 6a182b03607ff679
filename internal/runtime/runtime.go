package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rzbill/calclog/internal/broadcast"
	cfgpkg "github.com/rzbill/calclog/internal/config"
	"github.com/rzbill/calclog/internal/evaluator"
	"github.com/rzbill/calclog/internal/logstore"
	"github.com/rzbill/calclog/internal/metrics"
	logsvc "github.com/rzbill/calclog/internal/services/logs"
	pebblestore "github.com/rzbill/calclog/internal/storage/pebble"
	"github.com/rzbill/calclog/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// InMemory keeps the store in memory; DataDir is ignored.
	InMemory bool
	Logger   log.Logger
	// Metrics may be nil to disable collection.
	Metrics *metrics.Metrics
}

// Runtime wires storage, evaluation, fan-out and the log services for a
// single-node instance.
type Runtime struct {
	db       *pebblestore.DB
	store    *logstore.Store
	hub      *broadcast.Hub
	logs     *logsvc.Service
	longPoll *logsvc.Responder
	config   cfgpkg.Config
	logger   log.Logger
	metrics  *metrics.Metrics
}

// Open initializes storage and the services on top of it.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	fsync, err := pebblestore.ParseFsyncMode(cfg.Fsync)
	if err != nil {
		return nil, err
	}
	dataDir := cfg.DataDir
	if dataDir == "" && !opts.InMemory {
		dataDir = cfgpkg.DefaultDataDir()
	}
	if !opts.InMemory {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("runtime: create data dir: %w", err)
		}
	}

	var hook pebblestore.MetricsHook
	if opts.Metrics != nil {
		hook = opts.Metrics.StoreHook()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       dataDir,
		InMemory:      opts.InMemory,
		Fsync:         fsync,
		FsyncInterval: cfgDuration(cfg.FsyncIntervalMs),
		Metrics:       hook,
	})
	if err != nil {
		return nil, fmt.Errorf("runtime: open store at %s: %w", dataDir, err)
	}
	store, err := logstore.Open(db, logstore.Options{})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	ev, err := evaluator.New()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	hub := broadcast.NewHub(cfg.PushChannel.ObserverBuffer, opts.Metrics)
	rt := &Runtime{
		db:      db,
		store:   store,
		hub:     hub,
		config:  cfg,
		logger:  logger,
		metrics: opts.Metrics,
		logs: logsvc.New(store, ev, hub, logsvc.Options{
			DedupWindow: cfg.Logs.DedupWindow(),
			RecentLimit: cfg.Logs.RecentLimit,
			Logger:      logger,
			Metrics:     opts.Metrics,
		}),
		longPoll: logsvc.NewResponder(store, logsvc.ResponderOptions{
			SeedLimit: cfg.Logs.LongPollSeedLimit,
			Interval:  cfg.Logs.LongPollInterval(),
			Logger:    logger,
			Metrics:   opts.Metrics,
		}),
	}
	logger.Info("store opened", log.Str("data_dir", dataDir), log.Bool("in_memory", opts.InMemory), log.Uint64("last_id", store.LastID()))
	return rt, nil
}

// Close ends every push subscription and closes the store.
func (r *Runtime) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	r.hub.Close()
	return r.db.Close()
}

// CheckHealth reports whether the store can serve requests.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r == nil || r.store == nil {
		return errors.New("runtime not open")
	}
	return r.store.Health(ctx)
}

func (r *Runtime) Store() *logstore.Store      { return r.store }
func (r *Runtime) Hub() *broadcast.Hub         { return r.hub }
func (r *Runtime) Logs() *logsvc.Service       { return r.logs }
func (r *Runtime) LongPoll() *logsvc.Responder { return r.longPoll }
func (r *Runtime) Metrics() *metrics.Metrics   { return r.metrics }
func (r *Runtime) Logger() log.Logger          { return r.logger }
func (r *Runtime) Config() cfgpkg.Config       { return r.config }
func (r *Runtime) DB() *pebblestore.DB         { return r.db }

func cfgDuration(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }
