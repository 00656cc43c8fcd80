package hp

import "go.uber.org/zap"

// DefaultMaxHPs is the default per-thread hazard-slot count (K in the HP
// paper).
const DefaultMaxHPs = 5

// DefaultMaxThreads is the default thread ceiling (T_MAX).
const DefaultMaxThreads = 128

type options struct {
	maxHPs     int
	maxThreads int
	threshold  int
	logger     *zap.Logger
}

// Option configures a Domain or IndexedDomain constructor.
type Option func(*options)

func defaultOptions() options {
	return options{
		maxHPs:     DefaultMaxHPs,
		maxThreads: DefaultMaxThreads,
		threshold:  -1, // resolved per-domain-kind once K/T_MAX are known
		logger:     zap.NewNop(),
	}
}

// WithMaxHPs sets K, the number of hazard-pointer slots each pinned thread
// owns. Must be at least 3 for List's conservative find (HPNext, HPCurr,
// HPPrev) or 4 for WindowList's window search (adds HPStart).
func WithMaxHPs(k int) Option {
	return func(o *options) { o.maxHPs = k }
}

// WithMaxThreads sets T_MAX, the static ceiling on distinct pinned
// goroutines. Pin panics with a *MisuseError once this ceiling is crossed.
func WithMaxThreads(t int) Option {
	return func(o *options) { o.maxThreads = t }
}

// WithThreshold sets R, the retire-list scan cadence. For the array-form
// Domain the classical default is T_MAX*K (scan once the retire list has
// accumulated that many entries); for IndexedDomain the default is 0 (scan
// on every retire), matching their respective ground-truth sources.
func WithThreshold(r int) Option {
	return func(o *options) { o.threshold = r }
}

// WithLogger attaches a *zap.Logger for the structured debug event emitted
// at each reclamation scan. Never consulted on the wait-free fast
// path (Protect/ProtectRelease/Clear/Retire-without-scan). A nil logger is
// replaced by a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
	}
}
