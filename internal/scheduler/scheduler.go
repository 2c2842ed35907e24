// Package scheduler runs periodic maintenance jobs with gocron.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// TokenPurger deletes refresh tokens that expired or were revoked before
// cutoff.  repository.TokenRepo implements it.
type TokenPurger interface {
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler wraps a gocron scheduler and its registered jobs.
type Scheduler struct {
	s      gocron.Scheduler
	logger *log.Logger
	now    func() time.Time
}

// New creates a scheduler running in UTC.
func New(logger *log.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{s: s, logger: logger, now: time.Now}, nil
}

// AddTokenPurge registers the refresh token purge every interval.  Runs
// never overlap.
func (s *Scheduler) AddTokenPurge(p TokenPurger, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Hour
	}
	_, err := s.s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { s.PurgeTokens(p) }),
		gocron.WithName("purge-refresh-tokens"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

// PurgeTokens runs one purge pass.
func (s *Scheduler) PurgeTokens(p TokenPurger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := p.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		s.logger.Printf("purge refresh tokens: %v", err)
		return
	}
	if n > 0 {
		s.logger.Printf("purged %d refresh tokens", n)
	}
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() { s.s.Start() }

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error { return s.s.Shutdown() }
