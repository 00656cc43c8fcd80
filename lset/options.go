package lset

import (
	"go.uber.org/zap"

	"github.com/g-m-twostay/lockset/hp"
)

// options configures both List and WindowList. Grounded on
// hupe1980-vecgo/options.go's functional-options shape: a private struct,
// an Option func(*options) alias, and a family of With... constructors
// that never expose the struct itself.
type options struct {
	maxThreads int
	threshold  int
	logger     *zap.Logger
	stats      *Stats
	recycle    bool
}

type Option func(*options)

func defaultOptions() options {
	return options{
		maxThreads: hp.DefaultMaxThreads,
		threshold:  -1,
		logger:     zap.NewNop(),
		recycle:    true,
	}
}

// WithMaxThreads raises or lowers the dense thread-id ceiling (T_MAX):
// the number of hazard-slot handles this list may ever pin.
func WithMaxThreads(t int) Option { return func(o *options) { o.maxThreads = t } }

// WithThreshold overrides the retire-list scan threshold R. Negative (the
// default) selects the same per-discipline default hp.New/hp.NewIndexed
// would pick on their own.
func WithThreshold(r int) Option { return func(o *options) { o.threshold = r } }

// WithLogger attaches a zap logger; a nil logger is treated as zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
	}
}

// WithStats attaches list-level counters.
func WithStats(s *Stats) Option { return func(o *options) { o.stats = s } }

// WithRecycling toggles whether retired nodes are returned to a sync.Pool
// for reuse by future inserts (the Go rendering of ValPtr.go's "You can
// recycle the deleted pointers via a sync.Pool" doc comment) instead of
// simply being dropped for the garbage collector to reclaim outright.
// Disable it to make retirement timing easier to reason about in tests.
func WithRecycling(on bool) Option { return func(o *options) { o.recycle = on } }

func (o options) hpOptions() []hp.Option {
	opts := []hp.Option{hp.WithMaxThreads(o.maxThreads), hp.WithLogger(o.logger)}
	if o.threshold >= 0 {
		opts = append(opts, hp.WithThreshold(o.threshold))
	}
	return opts
}
