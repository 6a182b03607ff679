// Package eventlog implements calclog's append-only log over Pebble.
//
// # Overview
//
// Each topic owns a contiguous keyspace:
//   - log/{topic}/m                              (metadata: last seq)
//   - log/{topic}/e/{seq_be8}                    (entries)
//   - log/{topic}/x/{uvarint len}{value}{seq_be8} (secondary index)
//
// Entries are stored as: uvarint headerLen | header | payload | crc32c(header|payload).
// Index keys carry no value; they are written in the same batch as their entry,
// so an index hit always resolves.
//
// API surface (internal)
//
//	l, _ := OpenLog(db, "calc")
//	seqs, _ := l.Append(ctx, []AppendRecord{{Header: h, Payload: p, Index: [][]byte{key}}})
//
//	// newest five entries above a cursor
//	items, _ := l.Read(ReadOptions{After: cursor, Limit: 5, Reverse: true})
//
//	// newest entry indexed under key
//	item, ok, _ := l.LatestByIndex(key)
package eventlog
