package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Loader is anything that can resynchronise itself from the report table
type Loader interface {
	Load(ctx context.Context) error
}

// Scheduler periodically reloads the report list so the dashboard picks up
// rows created or changed by someone else
type Scheduler struct {
	cron    *cron.Cron
	loader  Loader
	spec    string
	timeout time.Duration
}

// NewScheduler creates a scheduler that reloads on the given cron spec.
// Descriptors such as "@every 1m" are accepted.
func NewScheduler(loader Loader, spec string, timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		loader:  loader,
		spec:    spec,
		timeout: timeout,
	}
}

// Start registers the refresh job and begins running it
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.refresh); err != nil {
		return fmt.Errorf("failed to register report refresh job %q: %w", s.spec, err)
	}

	s.cron.Start()
	zap.S().Infow("Report refresh scheduler started", "schedule", s.spec)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running refresh to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Report refresh scheduler stopped")
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.loader.Load(ctx); err != nil {
		// already logged by the view
		return
	}
	zap.S().Debug("Scheduled report refresh complete")
}
