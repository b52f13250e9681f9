// Package jobs runs periodic maintenance on a cron schedule.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

const expiryTimeout = 2 * time.Minute

// Expirer deactivates subscriptions whose end date has passed.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron    *cron.Cron
	expirer Expirer
}

// NewScheduler creates a scheduler evaluating specs in loc.
func NewScheduler(expirer Expirer, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	logger := cron.PrintfLogger(log.Default())
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger))),
		expirer: expirer,
	}
}

// Start registers the expiry sweep under spec and starts the scheduler.
func (s *Scheduler) Start(expirySpec string) error {
	if _, err := s.cron.AddFunc(expirySpec, s.runExpiry); err != nil {
		return err
	}
	log.Printf("INFO: Scheduled subscription expiry sweep (%s)", expirySpec)
	s.cron.Start()
	return nil
}

// Stop stops the scheduler. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) runExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), expiryTimeout)
	defer cancel()

	n, err := s.expirer.ExpireOverdue(ctx)
	if err != nil {
		log.Printf("ERROR: Subscription expiry sweep failed: %v", err)
		return
	}
	log.Printf("INFO: Subscription expiry sweep finished, %d deactivated", n)
}
