package logsvc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzbill/calclog/internal/broadcast"
	"github.com/rzbill/calclog/internal/evaluator"
	"github.com/rzbill/calclog/internal/logstore"
	pebblestore "github.com/rzbill/calclog/internal/storage/pebble"
)

func newTestStore(t *testing.T) (*logstore.Store, *pebblestore.DB) {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st, err := logstore.Open(db, logstore.Options{})
	require.NoError(t, err)
	return st, db
}

type testEnv struct {
	svc   *Service
	store *logstore.Store
	db    *pebblestore.DB
	hub   *broadcast.Hub
	now   time.Time
	mu    sync.Mutex
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	e.now = e.now.Add(d)
	e.mu.Unlock()
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{now: time.Now()}
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeAlways})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	st, err := logstore.Open(db, logstore.Options{Clock: env.clock})
	require.NoError(t, err)
	ev, err := evaluator.New()
	require.NoError(t, err)
	env.store, env.db = st, db
	env.hub = broadcast.NewHub(16, nil)
	env.svc = New(st, ev, env.hub, Options{DedupWindow: 5 * time.Second, Clock: env.clock})
	return env
}

func TestSubmitValidExpression(t *testing.T) {
	env := newTestEnv(t)
	sub := env.hub.Subscribe()
	defer sub.Close()

	res, err := env.svc.Submit(context.Background(), "3*4")
	require.NoError(t, err)
	assert.Equal(t, "Expression evaluated to 12", res.Message)
	require.NotNil(t, res.Output)
	assert.Equal(t, 12.0, *res.Output)
	assert.True(t, res.IsValid)

	got := <-sub.C()
	assert.Equal(t, res.Record, got)
	assert.Equal(t, "3*4", got.Expression)
}

func TestSubmitInvalidExpressionIsRecorded(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.svc.Submit(context.Background(), "1/0")
	require.NoError(t, err)
	assert.Equal(t, "Invalid expression", res.Message)
	assert.Nil(t, res.Output)
	assert.False(t, res.IsValid)

	recs, err := env.svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].IsValid)
	assert.Nil(t, recs[0].Output)
}

func TestSubmitEmptyExpressionWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	for _, in := range []string{"", "   ", "\t\n"} {
		_, err := env.svc.Submit(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyExpression)
	}
	recs, err := env.svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestSubmitSkipsDedup(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		_, err := env.svc.Submit(context.Background(), "2+2")
		require.NoError(t, err)
	}
	recs, err := env.svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestSubmitStoreFailure(t *testing.T) {
	env := newTestEnv(t)
	sub := env.hub.Subscribe()
	defer sub.Close()
	require.NoError(t, env.db.Close())

	_, err := env.svc.Submit(context.Background(), "3*4")
	assert.ErrorIs(t, err, logstore.ErrStoreUnavailable)
	assert.Len(t, sub.C(), 0, "nothing may be published on failure")
}

func TestSubmitPushDedupWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	draft := logstore.Draft{Expression: "2+2", IsValid: true, Output: logstore.Float(4)}
	sub := env.hub.Subscribe()
	defer sub.Close()

	first, ok, err := env.svc.SubmitPush(ctx, draft)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, <-sub.C())

	env.advance(2 * time.Second)
	_, ok, err = env.svc.SubmitPush(ctx, draft)
	require.NoError(t, err)
	assert.False(t, ok, "repeat inside the window must be suppressed")
	assert.Len(t, sub.C(), 0)

	env.advance(5 * time.Second)
	second, ok, err := env.svc.SubmitPush(ctx, draft)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Greater(t, second.ID, first.ID)

	// a differently spelled expression is not a duplicate
	_, ok, err = env.svc.SubmitPush(ctx, logstore.Draft{Expression: "2 + 2", IsValid: true, Output: logstore.Float(4)})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSubmitPushZeroWindowKeepsRepeats(t *testing.T) {
	st, _ := newTestStore(t)
	ev, err := evaluator.New()
	require.NoError(t, err)
	svc := New(st, ev, nil, Options{})
	draft := logstore.Draft{Expression: "5-1", IsValid: true, Output: logstore.Float(4)}

	for i := 0; i < 3; i++ {
		_, ok, err := svc.SubmitPush(context.Background(), draft)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	recs, err := svc.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestSubmitPushConcurrentDuplicatesWriteOnce(t *testing.T) {
	env := newTestEnv(t)
	draft := logstore.Draft{Expression: "9*9", IsValid: true, Output: logstore.Float(81)}

	var wg sync.WaitGroup
	var mu sync.Mutex
	written := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := env.svc.SubmitPush(context.Background(), draft)
			if err == nil && ok {
				mu.Lock()
				written++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, written)
}

func TestSubmitPushRejectsInvalidDrafts(t *testing.T) {
	env := newTestEnv(t)
	cases := []logstore.Draft{
		{Expression: " "},
		{Expression: "1+1", Status: "done"},
		{Expression: "1+1", IsValid: true},
	}
	for _, d := range cases {
		_, ok, err := env.svc.SubmitPush(context.Background(), d)
		assert.True(t, errors.Is(err, ErrInvalidRecord), "%+v: %v", d, err)
		assert.False(t, ok)
	}
}

func TestSubmitPushKeepsStatusAndDropsInvalidOutput(t *testing.T) {
	env := newTestEnv(t)
	rec, ok, err := env.svc.SubmitPush(context.Background(), logstore.Draft{Expression: "1/", Output: logstore.Float(3), Status: logstore.StatusPending})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Nil(t, rec.Output)
	assert.Equal(t, logstore.StatusPending, rec.Status)
}

func TestBroadcastOrderMatchesIDs(t *testing.T) {
	env := newTestEnv(t)
	sub := env.hub.Subscribe()
	defer sub.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = env.svc.Submit(context.Background(), "1+1")
		}()
	}
	wg.Wait()

	var last uint64
	for i := 0; i < 10; i++ {
		rec := <-sub.C()
		assert.Greater(t, rec.ID, last)
		last = rec.ID
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Expression evaluated to 0.5", Message(true, logstore.Float(0.5)))
	assert.Equal(t, "Expression evaluated to 3.33", Message(true, logstore.Float(3.33)))
	assert.Equal(t, "Expression evaluated to -3", Message(true, logstore.Float(-3)))
	assert.Equal(t, "Expression evaluated to 100000000", Message(true, logstore.Float(1e8)))
	assert.Equal(t, "Invalid expression", Message(false, nil))
}
