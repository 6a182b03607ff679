package logsvc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rzbill/calclog/internal/dedup"
	"github.com/rzbill/calclog/internal/logstore"
	"github.com/rzbill/calclog/internal/metrics"
	"github.com/rzbill/calclog/pkg/log"
)

var (
	// ErrEmptyExpression rejects empty or whitespace-only submissions.
	ErrEmptyExpression = errors.New("expression is empty")
	// ErrInvalidRecord rejects malformed push-path drafts.
	ErrInvalidRecord = errors.New("invalid log record")
)

// Store is the persistence surface the service needs.
type Store interface {
	Append(ctx context.Context, d logstore.Draft) (logstore.Record, error)
	QueryRecent(ctx context.Context, cursor uint64, limit int) ([]logstore.Record, error)
	FindLatestByExpression(ctx context.Context, expr string) (logstore.Record, bool, error)
}

// Evaluator computes an expression's numeric value.
type Evaluator interface {
	Evaluate(text string) (float64, error)
}

// Publisher receives every committed record, in id order.
type Publisher interface {
	Publish(rec logstore.Record)
}

// Options tunes a Service.
type Options struct {
	// DedupWindow suppresses repeated push submissions; zero disables
	// suppression. Callers wanting the usual window pass dedup.DefaultWindow.
	DedupWindow time.Duration
	// RecentLimit bounds Recent; zero or less selects 10.
	RecentLimit int
	Logger      log.Logger
	Metrics     *metrics.Metrics
	// Clock drives dedup decisions. Defaults to time.Now.
	Clock func() time.Time
}

// Result is the outcome of a request/response submission.
type Result struct {
	Message string
	Output  *float64
	IsValid bool
	Record  logstore.Record
}

// Service is the ingestion pipeline: validate, evaluate, append, publish.
type Service struct {
	store   Store
	eval    Evaluator
	pub     Publisher
	guard   *dedup.Guard
	recent  int
	logger  log.Logger
	metrics *metrics.Metrics

	// commit serializes append+publish so observers see ids in order, and
	// makes the push-path dedup check and its append one step.
	commit sync.Mutex
}

// New wires a Service. pub may be nil when nothing observes records.
func New(store Store, eval Evaluator, pub Publisher, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = log.NewNopLogger()
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 10
	}
	var guardOpts []dedup.Option
	if opts.Clock != nil {
		guardOpts = append(guardOpts, dedup.WithClock(opts.Clock))
	}
	return &Service{
		store:   store,
		eval:    eval,
		pub:     pub,
		guard:   dedup.New(store, opts.DedupWindow, guardOpts...),
		recent:  opts.RecentLimit,
		logger:  opts.Logger.WithComponent("logs"),
		metrics: opts.Metrics,
	}
}

// Submit evaluates expression, records the attempt and publishes it.
// Evaluation failures are recorded as invalid, not returned.
func (s *Service) Submit(ctx context.Context, expression string) (Result, error) {
	if strings.TrimSpace(expression) == "" {
		s.logger.Warn("Received an empty expression")
		s.metrics.Submission(metrics.PathHTTP, metrics.OutcomeEmpty)
		return Result{}, ErrEmptyExpression
	}

	draft := logstore.Draft{Expression: expression}
	if v, err := s.eval.Evaluate(expression); err != nil {
		s.logger.Warn("Invalid expression attempted", log.Str("expression", expression), log.Err(err))
	} else {
		draft.IsValid = true
		draft.Output = &v
	}

	rec, err := s.appendAndPublish(ctx, draft)
	if err != nil {
		s.logger.Error("append failed", log.Str("expression", expression), log.Err(err))
		s.metrics.Submission(metrics.PathHTTP, metrics.OutcomeError)
		return Result{}, err
	}
	if rec.IsValid {
		s.logger.Info("Expression logged", log.Uint64("id", rec.ID), log.Str("expression", expression), log.Float64("output", *rec.Output))
		s.metrics.Submission(metrics.PathHTTP, metrics.OutcomeValid)
	} else {
		s.metrics.Submission(metrics.PathHTTP, metrics.OutcomeInvalid)
	}
	return Result{
		Message: Message(rec.IsValid, rec.Output),
		Output:  rec.Output,
		IsValid: rec.IsValid,
		Record:  rec,
	}, nil
}

// SubmitPush records a pre-evaluated draft from the push channel. It
// returns false without writing when an identical expression was recorded
// within the dedup window.
func (s *Service) SubmitPush(ctx context.Context, d logstore.Draft) (logstore.Record, bool, error) {
	if err := validateDraft(d); err != nil {
		s.logger.Warn("push record rejected", log.Err(err))
		s.metrics.Submission(metrics.PathPush, metrics.OutcomeRejected)
		return logstore.Record{}, false, err
	}
	if !d.IsValid {
		d.Output = nil
	}

	s.commit.Lock()
	defer s.commit.Unlock()

	ok, err := s.guard.Allow(ctx, d.Expression)
	if err != nil {
		s.logger.Error("dedup lookup failed", log.Str("expression", d.Expression), log.Err(err))
		s.metrics.Submission(metrics.PathPush, metrics.OutcomeError)
		return logstore.Record{}, false, err
	}
	if !ok {
		s.logger.Debug("duplicate expression suppressed", log.Str("expression", d.Expression), log.Dur("window", s.guard.Window()))
		s.metrics.Submission(metrics.PathPush, metrics.OutcomeSuppressed)
		return logstore.Record{}, false, nil
	}
	rec, err := s.appendLocked(ctx, d)
	if err != nil {
		s.logger.Error("append failed", log.Str("expression", d.Expression), log.Err(err))
		s.metrics.Submission(metrics.PathPush, metrics.OutcomeError)
		return logstore.Record{}, false, err
	}
	s.logger.Info("Expression logged via push channel", log.Uint64("id", rec.ID), log.Str("expression", rec.Expression), log.Bool("valid", rec.IsValid))
	if rec.IsValid {
		s.metrics.Submission(metrics.PathPush, metrics.OutcomeValid)
	} else {
		s.metrics.Submission(metrics.PathPush, metrics.OutcomeInvalid)
	}
	return rec, true, nil
}

// Recent returns the newest records above cursor, newest first.
func (s *Service) Recent(ctx context.Context, cursor uint64) ([]logstore.Record, error) {
	recs, err := s.store.QueryRecent(ctx, cursor, s.recent)
	if err != nil {
		s.logger.Error("query recent failed", log.Uint64("since_id", cursor), log.Err(err))
		return nil, err
	}
	s.logger.Debug("Successfully retrieved logs", log.Int("count", len(recs)))
	return recs, nil
}

func (s *Service) appendAndPublish(ctx context.Context, d logstore.Draft) (logstore.Record, error) {
	s.commit.Lock()
	defer s.commit.Unlock()
	return s.appendLocked(ctx, d)
}

func (s *Service) appendLocked(ctx context.Context, d logstore.Draft) (logstore.Record, error) {
	rec, err := s.store.Append(ctx, d)
	if err != nil {
		return logstore.Record{}, err
	}
	if s.pub != nil {
		s.pub.Publish(rec)
	}
	return rec, nil
}

func validateDraft(d logstore.Draft) error {
	if strings.TrimSpace(d.Expression) == "" {
		return fmt.Errorf("%w: expression is required", ErrInvalidRecord)
	}
	if !d.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, d.Status)
	}
	if d.IsValid && d.Output == nil {
		return fmt.Errorf("%w: valid record without output", ErrInvalidRecord)
	}
	return nil
}

// Message renders the response text for an evaluation outcome.
func Message(valid bool, output *float64) string {
	if !valid || output == nil {
		return "Invalid expression"
	}
	return "Expression evaluated to " + strconv.FormatFloat(*output, 'f', -1, 64)
}
