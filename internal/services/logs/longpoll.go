package logsvc

import (
	"context"
	"errors"
	"time"

	"github.com/rzbill/calclog/internal/logstore"
	"github.com/rzbill/calclog/internal/metrics"
	"github.com/rzbill/calclog/pkg/log"
)

// ErrNoContent reports an empty long-poll seed; nothing was written to the sink.
var ErrNoContent = errors.New("no records to stream")

const (
	DefaultSeedLimit    = 5
	DefaultPollInterval = 3 * time.Second
)

// Querier reads the newest records above a cursor.
type Querier interface {
	QueryRecent(ctx context.Context, cursor uint64, limit int) ([]logstore.Record, error)
}

// Sink is implemented by transports to receive a long-poll stream.
type Sink interface {
	// Start commits the response headers. It is called once, before the first Send.
	Start() error
	Send(rec logstore.Record) error
	Flush() error
}

// ResponderOptions tunes a Responder. Zero values select the defaults.
type ResponderOptions struct {
	SeedLimit int
	Interval  time.Duration
	Logger    log.Logger
	Metrics   *metrics.Metrics
}

// Responder streams a snapshot of recent records, one per tick.
type Responder struct {
	q        Querier
	seed     int
	interval time.Duration
	logger   log.Logger
	metrics  *metrics.Metrics
}

func NewResponder(q Querier, opts ResponderOptions) *Responder {
	if opts.SeedLimit <= 0 {
		opts.SeedLimit = DefaultSeedLimit
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	return &Responder{
		q:        q,
		seed:     opts.SeedLimit,
		interval: opts.Interval,
		logger:   opts.Logger.WithComponent("longpoll"),
		metrics:  opts.Metrics,
	}
}

// Serve seeds up to SeedLimit records above cursor and writes them to sink,
// newest first, one per interval. Records committed after seeding are not
// included. It returns ErrNoContent without touching sink when the seed is
// empty, and ctx.Err() when ctx ends mid-stream.
func (r *Responder) Serve(ctx context.Context, cursor uint64, sink Sink) error {
	recs, err := r.q.QueryRecent(ctx, cursor, r.seed)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return ErrNoContent
	}
	if err := sink.Start(); err != nil {
		return err
	}
	defer r.metrics.LongPollStarted()()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for i, rec := range recs {
		select {
		case <-ctx.Done():
			r.logger.Debug("long-poll ended early", log.Int("sent", i), log.Int("seeded", len(recs)))
			return ctx.Err()
		case <-ticker.C:
		}
		if err := sink.Send(rec); err != nil {
			return err
		}
		if err := sink.Flush(); err != nil {
			return err
		}
		r.metrics.LongPollRecord()
	}
	return nil
}
