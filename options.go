package distkmeans

import (
	"github.com/hupe1980/distkmeans/resource"
)

const (
	// DefaultK is the default number of clusters.
	DefaultK = 3

	// DefaultMaxRounds is the default number of assignment+update rounds.
	DefaultMaxRounds = 100

	// DefaultSeed seeds the coordinator's center sampling.
	DefaultSeed int64 = 1
)

type options struct {
	k                int
	maxRounds        int
	seed             int64
	coordinator      int
	stop             StopPredicate
	metricsCollector MetricsCollector
	logger           *Logger
	resource         *resource.Controller
}

// Option configures a Worker.
//
// Every worker of a group must be configured with the same k, max rounds and
// coordinator; the coordinator's values are checked on every worker.
type Option func(*options)

// WithK sets the number of clusters.
func WithK(k int) Option {
	return func(o *options) {
		o.k = k
	}
}

// WithMaxRounds sets the round budget (max_rounds).
// Without a stop predicate exactly this many rounds run. It must be at
// least 1.
func WithMaxRounds(rounds int) Option {
	return func(o *options) {
		o.maxRounds = rounds
	}
}

// WithSeed seeds the coordinator's sampling of initial centers.
// Other workers never draw random numbers.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithCoordinator selects the rank that loads the dataset and samples centers.
func WithCoordinator(rank int) Option {
	return func(o *options) {
		o.coordinator = rank
	}
}

// WithStopPredicate ends the loop early once p reports true.
// Pass nil to always run the full round budget.
func WithStopPredicate(p StopPredicate) Option {
	return func(o *options) {
		o.stop = p
	}
}

// WithTolerance stops once no center moves farther than tol in a round.
// Convenience wrapper for WithStopPredicate(CentersWithin(tol)).
func WithTolerance(tol float64) Option {
	return func(o *options) {
		o.stop = CentersWithin(tol)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring runs.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &distkmeans.BasicMetricsCollector{}
//	w, _ := distkmeans.NewWorker(comm, distkmeans.WithMetricsCollector(metrics))
//	// ... run ...
//	stats := metrics.GetStats()
//	fmt.Printf("Rounds: %d, Avg latency: %dns\n", stats.RoundCount, stats.RoundAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithResourceController budgets the memory of the replicated dataset.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resource = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		k:                DefaultK,
		maxRounds:        DefaultMaxRounds,
		seed:             DefaultSeed,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
