package eventlog

import (
	"errors"
	"math"

	"github.com/cockroachdb/pebble"
	pebblestore "github.com/rzbill/calclog/internal/storage/pebble"
)

type ReadOptions struct {
	// After is an exclusive lower bound; only entries with Seq > After are read.
	After   uint64
	Limit   int
	Reverse bool
}

type Item struct {
	Seq     uint64
	Header  []byte
	Payload []byte
}

// Read returns up to Limit entries above After, ascending or, with Reverse,
// newest first. Entries failing their checksum are skipped.
func (l *Log) Read(opts ReadOptions) ([]Item, error) {
	items := make([]Item, 0, max(1, opts.Limit))
	if opts.After == math.MaxUint64 {
		return items, nil
	}
	iter, err := l.db.NewIter(&pebble.IterOptions{
		LowerBound: KeyLogEntry(l.topic, opts.After+1),
		UpperBound: append(KeyLogEntry(l.topic, math.MaxUint64), 0x00),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var valid bool
	step := iter.Next
	if opts.Reverse {
		valid, step = iter.Last(), iter.Prev
	} else {
		valid = iter.First()
	}
	for ; valid && (opts.Limit <= 0 || len(items) < opts.Limit); valid = step() {
		dec, err := DecodeRecord(iter.Value())
		if err != nil {
			continue
		}
		items = append(items, Item{Seq: seqSuffix(iter.Key()), Header: dec.Header, Payload: dec.Payload})
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns the entry stored at seq.
func (l *Log) Get(seq uint64) (Item, error) {
	raw, err := l.db.Get(KeyLogEntry(l.topic, seq))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	dec, err := DecodeRecord(raw)
	if err != nil {
		return Item{}, err
	}
	return Item{Seq: seq, Header: dec.Header, Payload: dec.Payload}, nil
}

// LatestByIndex returns the newest entry indexed under value.
func (l *Log) LatestByIndex(value []byte) (Item, bool, error) {
	prefix := KeyIndexPrefix(l.topic, value)
	iter, err := l.db.NewIter(&pebble.IterOptions{LowerBound: prefix, UpperBound: prefixEnd(prefix)})
	if err != nil {
		return Item{}, false, err
	}
	defer iter.Close()
	if !iter.Last() {
		return Item{}, false, iter.Error()
	}
	// only exact matches live under the length-prefixed value
	if len(iter.Key()) != len(prefix)+8 {
		return Item{}, false, nil
	}
	item, err := l.Get(seqSuffix(iter.Key()))
	if errors.Is(err, ErrNotFound) {
		return Item{}, false, nil
	}
	if err != nil {
		return Item{}, false, err
	}
	return item, true, nil
}
