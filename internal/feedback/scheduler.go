package feedback

import (
	"context"
	"sync"
	"time"

	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
)

// DefaultCooldown throttles aggregation runs.
const DefaultCooldown = 6 * time.Hour

// RunResult reports whether an opportunistic invocation did any work.
type RunResult struct {
	Ran     bool `json:"ran"`
	Skipped bool `json:"skipped"`
}

// Scheduler gates the aggregator behind a cooldown and serializes runs. It is
// the sole authorized writer of the adjustment factors and the processing
// watermark; call MaybeRun on boot and from the admin surface.
type Scheduler struct {
	agg      *Aggregator
	store    FactorStore
	cooldown time.Duration
	log      *logger.Logger

	mu  sync.Mutex
	now func() time.Time
}

func NewScheduler(agg *Aggregator, store FactorStore, cooldown time.Duration, baseLog *logger.Logger) *Scheduler {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Scheduler{
		agg:      agg,
		store:    store,
		cooldown: cooldown,
		log:      baseLog.With("service", "FeedbackScheduler"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// MaybeRun runs the aggregator iff the cooldown has elapsed and no run is in
// flight. A concurrent call returns skipped rather than waiting.
func (s *Scheduler) MaybeRun(ctx context.Context) (RunResult, error) {
	if !s.mu.TryLock() {
		return RunResult{Skipped: true}, nil
	}
	defer s.mu.Unlock()

	last, err := s.store.LastProcessedAt(ctx, nil)
	if err != nil {
		return RunResult{Skipped: true}, err
	}
	if s.now().Sub(last) < s.cooldown {
		s.log.Debug("aggregation on cooldown", "last_processed_at", last)
		return RunResult{Skipped: true}, nil
	}

	if _, err := s.agg.Run(ctx); err != nil {
		return RunResult{Skipped: true}, err
	}
	return RunResult{Ran: true}, nil
}
