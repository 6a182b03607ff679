package eventlog

import (
	"context"
	"testing"
)

func seedLog(t *testing.T, n int) *Log {
	t.Helper()
	l := newTestLog(t)
	recs := make([]AppendRecord, n)
	for i := 0; i < n; i++ {
		recs[i] = AppendRecord{Header: []byte{byte(i)}, Payload: []byte{byte(i)}}
	}
	if _, err := l.Append(context.Background(), recs); err != nil {
		t.Fatalf("append: %v", err)
	}
	return l
}

func seqsOf(items []Item) []uint64 {
	out := make([]uint64, len(items))
	for i, it := range items {
		out[i] = it.Seq
	}
	return out
}

func TestReadForward(t *testing.T) {
	l := seedLog(t, 5)
	items, err := l.Read(ReadOptions{Limit: 3})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := seqsOf(items)
	if len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("unexpected seqs %v", got)
	}
	if items[1].Payload[0] != 1 {
		t.Fatalf("payload mismatch")
	}
}

func TestReadReverseNewestFirst(t *testing.T) {
	l := seedLog(t, 4)
	items, err := l.Read(ReadOptions{Reverse: true, Limit: 2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := seqsOf(items)
	if len(got) != 2 || got[0] != 4 || got[1] != 3 {
		t.Fatalf("unexpected reverse order %v", got)
	}
}

func TestReadAfterIsExclusive(t *testing.T) {
	l := seedLog(t, 12)
	items, err := l.Read(ReadOptions{After: 7, Reverse: true, Limit: 10})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := seqsOf(items)
	want := []uint64{12, 11, 10, 9, 8}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}

	items, err = l.Read(ReadOptions{After: 12, Reverse: true, Limit: 10})
	if err != nil || len(items) != 0 {
		t.Fatalf("expected nothing above the newest seq, got %v %v", seqsOf(items), err)
	}
}

func TestLatestByIndex(t *testing.T) {
	l := newTestLog(t)
	ctx := context.Background()
	recs := []AppendRecord{
		{Payload: []byte("a1"), Index: [][]byte{[]byte("2+2")}},
		{Payload: []byte("b1"), Index: [][]byte{[]byte("2+22")}},
		{Payload: []byte("a2"), Index: [][]byte{[]byte("2+2")}},
		{Payload: []byte("c1"), Index: [][]byte{[]byte("2+")}},
	}
	if _, err := l.Append(ctx, recs); err != nil {
		t.Fatalf("append: %v", err)
	}
	item, ok, err := l.LatestByIndex([]byte("2+2"))
	if err != nil || !ok {
		t.Fatalf("lookup: %v %v", ok, err)
	}
	if item.Seq != 3 || string(item.Payload) != "a2" {
		t.Fatalf("expected newest exact match, got seq %d payload %q", item.Seq, item.Payload)
	}
	if _, ok, err := l.LatestByIndex([]byte("2 + 2")); ok || err != nil {
		t.Fatalf("non-identical value matched: %v %v", ok, err)
	}
}

func TestGetMissing(t *testing.T) {
	l := seedLog(t, 1)
	if _, err := l.Get(9); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
