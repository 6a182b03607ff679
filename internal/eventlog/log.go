package eventlog

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	pebblestore "github.com/rzbill/calclog/internal/storage/pebble"
)

var ErrNotFound = errors.New("event not found")

// AppendRecord is a single appendable entry. Each Index value gets a
// secondary key pointing at the entry, written in the same batch.
type AppendRecord struct {
	Header  []byte
	Payload []byte
	Index   [][]byte
}

// Log provides append-only operations for one topic.
type Log struct {
	db    *pebblestore.DB
	topic string

	mu      sync.Mutex
	lastSeq uint64
}

// OpenLog initializes a Log and restores the last sequence from metadata.
func OpenLog(db *pebblestore.DB, topic string) (*Log, error) {
	l := &Log{db: db, topic: topic}
	meta, err := db.Get(KeyLogMeta(topic))
	switch {
	case err == nil:
		if len(meta) >= 8 {
			l.lastSeq = binary.BigEndian.Uint64(meta[:8])
		}
	case errors.Is(err, pebblestore.ErrNotFound):
	default:
		return nil, fmt.Errorf("eventlog: load meta for %q: %w", topic, err)
	}
	return l, nil
}

// Topic returns the topic the log was opened for.
func (l *Log) Topic() string { return l.topic }

// LastSeq returns the most recently assigned sequence, 0 when empty.
func (l *Log) LastSeq() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastSeq
}

// Append writes recs as a single atomic batch and returns their sequences.
// Sequences start at 1 and are only consumed when the batch commits.
func (l *Log) Append(ctx context.Context, recs []AppendRecord) ([]uint64, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.db.NewBatch()
	defer b.Close()

	seqs := make([]uint64, len(recs))
	next := l.lastSeq
	for i, r := range recs {
		next++
		if err := b.Set(KeyLogEntry(l.topic, next), EncodeRecord(r.Header, r.Payload), nil); err != nil {
			return nil, err
		}
		for _, v := range r.Index {
			if err := b.Set(KeyIndex(l.topic, v, next), nil, nil); err != nil {
				return nil, err
			}
		}
		seqs[i] = next
	}

	var meta [8]byte
	binary.BigEndian.PutUint64(meta[:], next)
	if err := b.Set(KeyLogMeta(l.topic), meta[:], nil); err != nil {
		return nil, err
	}
	if err := l.db.CommitBatch(ctx, b); err != nil {
		return nil, err
	}
	l.lastSeq = next
	return seqs, nil
}
