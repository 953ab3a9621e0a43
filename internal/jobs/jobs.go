// Package jobs runs periodic maintenance on the server's database.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/erazemk/skladisca/internal/store"
)

// PruneSchedule is the default schedule of the revoked token cleanup.
const PruneSchedule = "@hourly"

// jobTimeout bounds a single run.
const jobTimeout = time.Minute

// Job is a named task with a cron schedule.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// PruneRevokedTokens returns a job that removes revocations of tokens that
// have expired, since an expired token is rejected anyway.
func PruneRevokedTokens(q store.Querier, schedule string, now func() time.Time) Job {
	return Job{
		Name:     "prune-revoked-tokens",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			n, err := store.PruneRevokedTokens(ctx, q, now())
			if err != nil {
				return err
			}
			if n > 0 {
				slog.Info("pruned revoked tokens", "count", n)
			}
			return nil
		},
	}
}

// Start registers jobs on a new scheduler and starts it. Stop the returned
// scheduler on shutdown; its Stop context completes once running jobs return.
func Start(jobs ...Job) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	for _, j := range jobs {
		if _, err := c.AddFunc(j.Schedule, wrap(j)); err != nil {
			return nil, fmt.Errorf("registering job %s: %w", j.Name, err)
		}
	}
	c.Start()
	slog.Info("scheduler started", "jobs", len(jobs))
	return c, nil
}

func wrap(j Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := j.Run(ctx); err != nil {
			slog.Error("job failed", "job", j.Name, "error", err)
			return
		}
		slog.Debug("job finished", "job", j.Name, "duration", time.Since(start))
	}
}
