package eventlog

import (
	"context"
	"testing"

	pebblestore "github.com/rzbill/calclog/internal/storage/pebble"
)

func openTestDB(t *testing.T, dir string) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	return db
}

func newTestLog(t *testing.T) *Log {
	t.Helper()
	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	l, err := OpenLog(db, "calc")
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	return l
}

func TestAppendAssignsSequential(t *testing.T) {
	l := newTestLog(t)
	seqs, err := l.Append(context.Background(), []AppendRecord{{Header: []byte("h1"), Payload: []byte("p1")}, {Header: []byte("h2"), Payload: []byte("p2")}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(seqs) != 2 || seqs[0] != 1 || seqs[1] != 2 {
		t.Fatalf("want seqs [1 2], got %v", seqs)
	}
	if l.LastSeq() != 2 {
		t.Fatalf("last seq %d", l.LastSeq())
	}
}

func TestAppendDurableAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db := openTestDB(t, dir)
	l, err := OpenLog(db, "calc")
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	ctx := context.Background()
	if _, err := l.Append(ctx, []AppendRecord{{Payload: []byte("x"), Index: [][]byte{[]byte("x")}}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2 := openTestDB(t, dir)
	t.Cleanup(func() { _ = db2.Close() })
	l2, err := OpenLog(db2, "calc")
	if err != nil {
		t.Fatalf("open log2: %v", err)
	}
	seqs, err := l2.Append(ctx, []AppendRecord{{Payload: []byte("y")}})
	if err != nil {
		t.Fatalf("append2: %v", err)
	}
	if seqs[0] != 2 {
		t.Fatalf("expected seq 2 after reopen, got %d", seqs[0])
	}
	item, ok, err := l2.LatestByIndex([]byte("x"))
	if err != nil || !ok || item.Seq != 1 {
		t.Fatalf("index lost across reopen: %+v %v %v", item, ok, err)
	}
}

func TestAppendCanceledContextConsumesNothing(t *testing.T) {
	l := newTestLog(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Append(ctx, []AppendRecord{{Payload: []byte("x")}}); err == nil {
		t.Fatalf("expected error on canceled context")
	}
	seqs, err := l.Append(context.Background(), []AppendRecord{{Payload: []byte("y")}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if seqs[0] != 1 {
		t.Fatalf("failed append consumed a seq: %d", seqs[0])
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	db := openTestDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	a, _ := OpenLog(db, "a")
	b, _ := OpenLog(db, "b")
	ctx := context.Background()
	if _, err := a.Append(ctx, []AppendRecord{{Payload: []byte("1")}, {Payload: []byte("2")}}); err != nil {
		t.Fatalf("append a: %v", err)
	}
	items, err := b.Read(ReadOptions{})
	if err != nil {
		t.Fatalf("read b: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("topic b sees %d entries of topic a", len(items))
	}
}
