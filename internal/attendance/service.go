package attendance

import (
	"time"

	"go.uber.org/zap"

	"classroll/internal/metrics"
)

const (
	defaultSuffixLen    = 6
	defaultMaxAttempts  = 32
	defaultRetryBackoff = 10 * time.Millisecond
)

// Options tunes a Service. Zero values pick the defaults, except
// CodeRetryBackoff where zero retries without pausing.
type Options struct {
	CodeSuffixLen    int
	CodeMaxAttempts  int
	CodeRetryBackoff time.Duration

	// Cache, when set, is consulted before the store for code lookups.
	Cache   SessionCache
	Metrics *metrics.Metrics

	// Suffix overrides the random session-code suffix source.
	Suffix func(n int) (string, error)
}

// Service implements the enrollment ledger, the session registry and the
// attendance recorder on top of a Store. It holds no mutable state and is
// safe for concurrent use.
type Service struct {
	store   Store
	cache   SessionCache
	metrics *metrics.Metrics
	logger  *zap.Logger

	suffixLen    int
	maxAttempts  int
	retryBackoff time.Duration
	suffix       func(n int) (string, error)
}

// NewService creates a service backed by a store.
func NewService(store Store, logger *zap.Logger, opts Options) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:        store,
		cache:        opts.Cache,
		metrics:      opts.Metrics,
		logger:       logger,
		suffixLen:    opts.CodeSuffixLen,
		maxAttempts:  opts.CodeMaxAttempts,
		retryBackoff: opts.CodeRetryBackoff,
		suffix:       opts.Suffix,
	}
	if s.suffixLen <= 0 {
		s.suffixLen = defaultSuffixLen
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = defaultMaxAttempts
	}
	if s.retryBackoff < 0 {
		s.retryBackoff = defaultRetryBackoff
	}
	if s.suffix == nil {
		s.suffix = RandomSuffix
	}
	return s
}
