package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndGauges(t *testing.T) {
	m := New()
	m.Submission(PathHTTP, OutcomeValid)
	m.Submission(PathHTTP, OutcomeValid)
	m.Submission(PathPush, OutcomeSuppressed)
	m.DeliverySent()
	m.DeliveryDropped()
	m.ObserverAdded(2)
	m.ObserverAdded(-1)
	done := m.LongPollStarted()
	m.LongPollRecord()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues(PathHTTP, OutcomeValid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues(PathPush, OutcomeSuppressed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deliveries.WithLabelValues("dropped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.observers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.longPollActive))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.longPollActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.longPollRecords))
}

func TestStoreHookAndHandler(t *testing.T) {
	m := New()
	hook := m.StoreHook()
	hook.ObserveBatchCommit(2*time.Millisecond, 3, 128)
	hook.ObserveRead(time.Millisecond, 16)
	assert.Equal(t, 128.0, testutil.ToFloat64(m.storeCommitBytes))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "calclog_store_commit_duration_seconds"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Submission(PathHTTP, OutcomeError)
	m.DeliverySent()
	m.DeliveryDropped()
	m.ObserverAdded(1)
	m.LongPollStarted()()
	m.LongPollRecord()
	m.StoreHook().ObserveBatchCommit(time.Millisecond, 1, 1)
	assert.Nil(t, m.Registry())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
