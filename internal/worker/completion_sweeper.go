// Package worker runs background jobs next to the HTTP server.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	sweepRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matching_completion_sweeps_total",
		Help: "Completion sweeps by result.",
	}, []string{"result"})
	sweepCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matching_bookings_completed_total",
		Help: "Bookings moved to completed by the sweeper.",
	})
	sweepLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "matching_completion_sweep_last_success_timestamp_seconds",
		Help: "Unix time of the last successful completion sweep.",
	})
)

// Completer completes accepted bookings whose last day has passed.
type Completer interface {
	CompleteEnded(ctx context.Context, batchSize int) (int, error)
}

// SweeperConfig defines tunables for the completion sweeper.
type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

// CompletionSweeper periodically completes ended bookings. A sweep keeps
// taking batches until one comes back short.
type CompletionSweeper struct {
	completer Completer
	cfg       SweeperConfig
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewCompletionSweeper constructs a sweeper.
func NewCompletionSweeper(completer Completer, cfg SweeperConfig, logger *zap.Logger) *CompletionSweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionSweeper{
		completer: completer,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer("service-matching.worker"),
	}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *CompletionSweeper) Run(ctx context.Context) error {
	if s.completer == nil {
		return errors.New("completion sweeper requires a completer")
	}
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		if _, err := s.SweepOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("completion sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepOnce runs one sweep and returns the number of bookings completed.
func (s *CompletionSweeper) SweepOnce(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "completion.sweep")
	defer span.End()

	total := 0
	for {
		n, err := s.completer.CompleteEnded(ctx, s.cfg.BatchSize)
		total += n
		sweepCompleted.Add(float64(n))
		if err != nil {
			sweepRuns.WithLabelValues("error").Inc()
			span.RecordError(err)
			return total, err
		}
		if n < s.cfg.BatchSize || ctx.Err() != nil {
			break
		}
	}

	sweepRuns.WithLabelValues("ok").Inc()
	sweepLastSuccess.SetToCurrentTime()
	span.SetAttributes(attribute.Int("bookings.completed", total))
	if total > 0 {
		s.logger.Info("completed ended bookings", zap.Int("count", total))
	}
	return total, nil
}
