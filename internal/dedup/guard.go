// Package dedup suppresses push submissions that repeat an expression
// recorded moments ago.
package dedup

import (
	"context"
	"time"

	"github.com/rzbill/calclog/internal/logstore"
)

// DefaultWindow is the suppression window for identical expressions.
const DefaultWindow = 5 * time.Second

// Finder looks up the newest record with a byte-equal expression.
type Finder interface {
	FindLatestByExpression(ctx context.Context, expr string) (logstore.Record, bool, error)
}

// Guard decides whether a submission may be written.
type Guard struct {
	finder Finder
	window time.Duration
	now    func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(g *Guard) { g.now = now } }

// New returns a Guard over finder. A non-positive window disables suppression.
func New(finder Finder, window time.Duration, opts ...Option) *Guard {
	g := &Guard{finder: finder, window: window, now: time.Now}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Window returns the configured suppression window.
func (g *Guard) Window() time.Duration { return g.window }

// Allow reports whether expression may be written now. It is allowed when no
// record with the same expression exists, or when the newest one is strictly
// older than the window.
func (g *Guard) Allow(ctx context.Context, expression string) (bool, error) {
	if g.window <= 0 {
		return true, nil
	}
	last, ok, err := g.finder.FindLatestByExpression(ctx, expression)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return g.now().Sub(last.CreatedOn) > g.window, nil
}
