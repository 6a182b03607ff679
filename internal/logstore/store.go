package logstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rzbill/calclog/internal/eventlog"
	pebblestore "github.com/rzbill/calclog/internal/storage/pebble"
)

// ErrStoreUnavailable wraps every persistence failure surfaced by Store.
var ErrStoreUnavailable = errors.New("log store unavailable")

// DefaultTopic is the eventlog topic holding calculator records.
const DefaultTopic = "calc"

// Options configures a Store.
type Options struct {
	Topic string
	// Clock stamps createdOn. Defaults to time.Now.
	Clock func() time.Time
}

// Store persists calculator records in an eventlog topic, with an exact-match
// expression index maintained in the same batch as each entry.
type Store struct {
	db    *pebblestore.DB
	log   *eventlog.Log
	clock func() time.Time

	mu     sync.Mutex
	lastMs int64
}

// Open binds a Store to db.
func Open(db *pebblestore.DB, opts Options) (*Store, error) {
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	l, err := eventlog.OpenLog(db, opts.Topic)
	if err != nil {
		return nil, unavailable(err)
	}
	return &Store{db: db, log: l, clock: opts.Clock}, nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

// Append assigns id and createdOn to d and persists it. createdOn never
// moves backwards relative to earlier ids, even if the clock does.
func (s *Store) Append(ctx context.Context, d Draft) (Record, error) {
	if d.Expression == "" {
		return Record{}, errors.New("logstore: expression is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ms := s.clock().UnixMilli()
	if ms < s.lastMs {
		ms = s.lastMs
	}
	rec, err := encodeEntry(d, ms)
	if err != nil {
		return Record{}, fmt.Errorf("logstore: encode: %w", err)
	}
	seqs, err := s.log.Append(ctx, []eventlog.AppendRecord{rec})
	if err != nil {
		return Record{}, unavailable(err)
	}
	s.lastMs = ms
	return Record{
		ID:         seqs[0],
		Expression: d.Expression,
		IsValid:    d.IsValid,
		Output:     d.Output,
		CreatedOn:  time.UnixMilli(ms).UTC(),
		Status:     d.Status,
	}, nil
}

// QueryRecent returns up to limit records with id > cursor, newest first.
// A zero cursor means no lower bound.
func (s *Store) QueryRecent(ctx context.Context, cursor uint64, limit int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Record{}, nil
	}
	items, err := s.log.Read(eventlog.ReadOptions{After: cursor, Limit: limit, Reverse: true})
	if err != nil {
		return nil, unavailable(err)
	}
	out := make([]Record, 0, len(items))
	for _, it := range items {
		r, err := decodeEntry(it)
		if err != nil {
			return nil, unavailable(err)
		}
		out = append(out, r)
	}
	return out, nil
}

// FindLatestByExpression returns the newest record whose expression is
// byte-equal to expr.
func (s *Store) FindLatestByExpression(ctx context.Context, expr string) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	it, ok, err := s.log.LatestByIndex([]byte(expr))
	if err != nil {
		return Record{}, false, unavailable(err)
	}
	if !ok {
		return Record{}, false, nil
	}
	r, err := decodeEntry(it)
	if err != nil {
		return Record{}, false, unavailable(err)
	}
	return r, true, nil
}

// LastID returns the newest assigned id, 0 when empty.
func (s *Store) LastID() uint64 { return s.log.LastSeq() }

// Health reports whether the underlying database is serving.
func (s *Store) Health(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.db.Ping(); err != nil {
		return unavailable(err)
	}
	return nil
}
