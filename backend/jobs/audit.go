// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Recounter repairs enrollment counters from lesson progress records.
type Recounter interface {
	RecountAll(ctx context.Context) (users, fixed int, err error)
}

type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger
}

// NewAuditScheduler registers the progress audit under spec. The job is
// skipped while a previous run is still going.
func NewAuditScheduler(spec string, recounter Recounter, timeout time.Duration, logger *log.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(spec, func() {
		RunAudit(context.Background(), recounter, timeout, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("schedule audit %q: %w", spec, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

func (s *Scheduler) Start() {
	s.logger.Println("[AUDIT] scheduler started")
	s.cron.Start()
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Println("[AUDIT] scheduler stopped")
}

// RunAudit performs one audit pass and logs the outcome.
func RunAudit(ctx context.Context, recounter Recounter, timeout time.Duration, logger *log.Logger) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	users, fixed, err := recounter.RecountAll(ctx)
	if err != nil {
		logger.Printf("[AUDIT] failed after %d users: %v", users, err)
		return
	}
	logger.Printf("[AUDIT] checked %d users, corrected %d enrollments in %v", users, fixed, time.Since(start))
}
