package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"
)

const schedulerLockKey = "draftmill:sched:lock"

// LastRunSource reports when the pipeline last produced a post.
type LastRunSource interface {
	LatestRunTime(ctx context.Context) (*time.Time, error)
}

// Scheduler fires pipeline runs on a cron schedule. A Redis lock keeps
// replicas from generating duplicate posts; without an archive store it
// falls back to the last run it fired itself.
type Scheduler struct {
	Cron   string
	Runner Runner
	Store  LastRunSource
	Rdb    *redis.Client
	Logger *log.Logger
	Stop   chan struct{}

	last *time.Time
}

func (s *Scheduler) Start() {
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

func (s *Scheduler) tick() {
	ctx := context.Background()

	last := s.last
	if s.Store != nil {
		if t, err := s.Store.LatestRunTime(ctx); err == nil && t != nil {
			last = t
		}
	}
	if !isDue(s.Cron, last) {
		return
	}

	// distributed lock to avoid duplicate runs
	if s.Rdb != nil {
		ok, _ := s.Rdb.SetNX(ctx, schedulerLockKey, "1", 2*time.Minute).Result()
		if !ok {
			return
		}
		defer s.Rdb.Del(ctx, schedulerLockKey)
	}

	now := time.Now().UTC()
	s.last = &now
	rec, err := s.Runner.Run(ctx)
	if err != nil {
		s.Logger.Printf("scheduled run %s failed: %v", rec.ID, err)
		return
	}
	s.Logger.Printf("scheduled run %s finished (%s)", rec.ID, rec.Status)
}

// isDue determines whether the schedule should fire now given the last
// run time. Supports "@daily", "@hourly", and standard 5-field cron
// expressions.
func isDue(cronSpec string, last *time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@daily":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= 24*time.Hour
	case "@hourly":
		if last == nil {
			return true
		}
		return now.Sub(*last) >= time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			// Fallback: treat as @daily if invalid
			if last == nil {
				return true
			}
			return now.Sub(*last) >= 24*time.Hour
		}
		if last == nil {
			// If never run, due now
			return true
		}
		next := expr.Next(*last)
		return !next.After(now)
	}
}
