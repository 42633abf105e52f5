package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/portalgate/portal/pkg/observability"
)

// Sweeper deletes expired sessions on a cron schedule
type Sweeper struct {
	manager *Manager
	logger  *observability.Logger
	metrics *observability.Metrics
	cron    *cron.Cron
}

// NewSweeper schedules expired-session deletion. The schedule is a cron
// expression ("@hourly", "*/10 * * * *").
func NewSweeper(manager *Manager, logger *observability.Logger, metrics *observability.Metrics, schedule string) (*Sweeper, error) {
	s := &Sweeper{
		manager: manager,
		logger:  logger,
		metrics: metrics,
		cron:    cron.New(),
	}

	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins the schedule
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := s.manager.DeleteExpired(ctx)
	if err != nil {
		s.logger.WithError(err).Error("session sweep failed")
		return
	}

	if s.metrics != nil {
		s.metrics.SessionsSwept.Add(float64(deleted))
		if active, err := s.manager.CountActive(ctx); err == nil {
			s.metrics.SessionsActive.Set(float64(active))
		}
	}

	if deleted > 0 {
		s.logger.WithField("deleted", deleted).Info("swept expired sessions")
	}
}
