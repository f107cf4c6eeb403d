package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultInterval = time.Second

// StatusRefresher recomputes cached auction statuses
type StatusRefresher interface {
	RefreshStatuses(ctx context.Context) int
}

// StatusScheduler drives the periodic status refresh. It is the only
// caller of RefreshStatuses in a running process.
type StatusScheduler struct {
	refresher StatusRefresher
	interval  time.Duration
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	stopOnce  sync.Once
}

type StatusSchedulerParams struct {
	Refresher StatusRefresher
	Interval  time.Duration
	Logger    zerolog.Logger
}

func NewStatusScheduler(params StatusSchedulerParams) *StatusScheduler {
	ctx, cancel := context.WithCancel(context.Background())

	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}

	return &StatusScheduler{
		refresher: params.Refresher,
		interval:  interval,
		logger:    params.Logger.With().Str("component", "status_scheduler").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins the scheduler loop
func (s *StatusScheduler) Start() {
	s.logger.Info().Dur("interval", s.interval).Msg("Starting status scheduler")

	s.wg.Add(1)
	go s.schedulerLoop()
}

// Stop halts the loop and waits for an in-flight refresh to finish.
// No refresh runs after Stop returns.
func (s *StatusScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info().Msg("Stopping status scheduler")
		s.cancel()
		s.wg.Wait()
	})
}

func (s *StatusScheduler) schedulerLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if changed := s.refresher.RefreshStatuses(s.ctx); changed > 0 {
				s.logger.Debug().Int("changed", changed).Msg("Auction statuses refreshed")
			}
		case <-s.ctx.Done():
			s.logger.Info().Msg("Scheduler loop stopped")
			return
		}
	}
}
