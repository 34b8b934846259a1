package engine

import (
	"log/slog"
	"time"

	"github.com/provelabs/witnessgen/pkg/observe"
	"github.com/provelabs/witnessgen/pkg/security"
)

// Config holds engine configuration.
type Config struct {
	PollInterval time.Duration
	Concurrency  int
	SaveRetry    *RetryConfig
}

// Option configures an Engine.
type Option interface {
	applyEngine(*engineSettings)
}

type engineSettings struct {
	config  Config
	logger  *slog.Logger
	metrics *observe.Metrics
}

type optionFunc func(*engineSettings)

func (f optionFunc) applyEngine(s *engineSettings) { f(s) }

// PollInterval sets how often the engine polls for claimable work.
func PollInterval(d time.Duration) Option {
	return optionFunc(func(s *engineSettings) {
		if d > 0 {
			s.config.PollInterval = d
		}
	})
}

// Concurrency sets the number of execution slots. Values are clamped to
// [1, security.MaxConcurrency].
func Concurrency(n int) Option {
	return optionFunc(func(s *engineSettings) {
		s.config.Concurrency = security.ClampConcurrency(n)
	})
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(s *engineSettings) {
		if l != nil {
			s.logger = l
		}
	})
}

// WithMetrics sets the duration recorder for the fetch and compute phases.
func WithMetrics(m *observe.Metrics) Option {
	return optionFunc(func(s *engineSettings) {
		if m != nil {
			s.metrics = m
		}
	})
}

// WithSaveRetry overrides the retry policy for persisting results and
// failures against the store.
func WithSaveRetry(cfg RetryConfig) Option {
	return optionFunc(func(s *engineSettings) {
		s.config.SaveRetry = &cfg
	})
}
