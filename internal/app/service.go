// Package service orchestrates the analytics engines over a results store
// and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/trackrank/internal/adapters/mq/queue"
	"github.com/okian/trackrank/internal/adapters/mq/worker"
	"github.com/okian/trackrank/internal/adapters/repository"
	"github.com/okian/trackrank/internal/domain/badges"
	"github.com/okian/trackrank/internal/domain/codec"
	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/internal/domain/ranking"
	"github.com/okian/trackrank/pkg/logger"
	"github.com/okian/trackrank/pkg/metrics"
)

// Default service configuration.
const (
	defaultQueueSize    = 1024
	defaultMaxBatchSize = 100
	stopTimeout         = 10 * time.Second
)

// Operation names used for metrics and stats.
const (
	opConvert        = "convert"
	opResultRankings = "result_rankings"
	opPercentiles    = "percentiles"
	opOptions        = "percentile_options"
	opWhereDoIRank   = "where_do_i_rank"
	opHypothetical   = "hypothetical_rank"
	opDashboard      = "dashboard"
	opDashboards     = "dashboards"
)

// Service answers ranking, percentile and dashboard queries.
type Service struct {
	mu sync.RWMutex

	store repository.Store
	queue queue.Queue
	pool  *worker.Pool

	// Configuration
	workerCount      int
	queueSize        int
	maxBatchSize     int
	leaderboardLimit int
	band             float64
	thresholds       badges.Thresholds
	bestsSince       int
	defaultMeetType  model.MeetType

	// State
	started bool
	cancel  context.CancelFunc

	// Counters exposed through GetStats.
	calls    sync.Map // operation -> *atomic.Int64
	failures atomic.Int64

	logger logger.Logger
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:            store,
		workerCount:      runtime.NumCPU(),
		queueSize:        defaultQueueSize,
		maxBatchSize:     defaultMaxBatchSize,
		leaderboardLimit: ranking.DefaultLimit,
		band:             ranking.DefaultBand,
		thresholds:       defaultThresholds(),
		bestsSince:       badges.DefaultSinceYear,
		defaultMeetType:  model.MeetSectional,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	return s
}

// Start launches the dashboard worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting analytics service...")

	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	// Workers outlive the request that started the service.
	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool = worker.NewPool(s.workerCount, s.queue, worker.HandlerFunc(s.handleDashboard))
	s.pool.Start(poolCtx)

	s.started = true
	s.logger.Info(ctx, "analytics service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("max_batch_size", s.maxBatchSize),
	)
	return nil
}

// Stop drains the worker pool and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	s.logger.Info(ctx, "stopping analytics service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.cancel()

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "closing store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "analytics service stopped")
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ops := make(map[string]int64)
	s.calls.Range(func(k, v any) bool {
		ops[k.(string)] = v.(*atomic.Int64).Load()
		return true
	})

	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"maxBatchSize": s.maxBatchSize,
		"operations":   ops,
		"failures":     s.failures.Load(),
	}

	if s.started {
		ctx := context.Background()
		stats["queueLength"] = s.queue.Len(ctx)
		stats["busyWorkers"] = s.pool.Busy()
		if years, err := s.store.Years(ctx); err == nil {
			stats["years"] = years
		}
	}

	return stats
}

// track records the outcome of one operation. found is false when the
// operation answered "nothing matches".
func (s *Service) track(ctx context.Context, op string, start time.Time, found bool, err error) {
	counter, _ := s.calls.LoadOrStore(op, new(atomic.Int64))
	counter.(*atomic.Int64).Add(1)

	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
		s.failures.Add(1)
		switch {
		case errors.Is(err, codec.ErrFormat):
			metrics.RecordFormatError()
		case errors.Is(err, model.ErrInvalidScope):
			metrics.RecordScopeError()
		default:
			metrics.RecordErrorByComponent("service", op)
			s.logger.Error(ctx, "operation failed", logger.String("operation", op), logger.Error(err))
		}
	case !found:
		outcome = metrics.OutcomeNotFound
		metrics.RecordNotFound()
	}

	elapsed := time.Since(start)
	metrics.RecordOperation(op, outcome)
	metrics.RecordOperationLatency(op, float64(elapsed.Microseconds())/1000)
	s.logger.Debug(ctx, "operation",
		logger.String("operation", op),
		logger.String("outcome", outcome),
		logger.Duration("duration_ms", elapsed),
	)
}

// missing reports whether err means the requested entity does not exist.
func missing(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
