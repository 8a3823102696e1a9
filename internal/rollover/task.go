package rollover

import (
	"context"
	"log/slog"
	"time"

	"omsz_portal/internal/metrics"
)

// timerFunc arms a one-shot timer and returns its channel and a stop function.
type timerFunc func(d time.Duration) (<-chan time.Time, func() bool)

func realTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

// Task runs the Roller once at every occurrence of an Instant.
type Task struct {
	roller  *Roller
	instant Instant
	loc     *time.Location
	catchUp bool
	log     *slog.Logger
	now     func() time.Time
	timer   timerFunc
}

func NewTask(roller *Roller, instant Instant, loc *time.Location, catchUp bool, log *slog.Logger) *Task {
	if loc == nil {
		loc = time.Local
	}
	return &Task{
		roller:  roller,
		instant: instant,
		loc:     loc,
		catchUp: catchUp,
		log:     log,
		now:     roller.now,
		timer:   realTimer,
	}
}

// Run blocks until ctx is cancelled. A failed rollover is logged and the
// task waits for the following week.
func (t *Task) Run(ctx context.Context) error {
	if t.catchUp {
		t.catchUpMissed(ctx)
	}

	for {
		now := t.now().In(t.loc)
		next := t.instant.Next(now)
		t.log.Debug("weekly_rollover_armed", "next", next.Format(time.RFC3339))

		c, stop := t.timer(next.Sub(now))
		select {
		case <-ctx.Done():
			stop()
			return nil
		case <-c:
		}

		if t.now().Before(next) {
			continue
		}
		if _, err := t.roller.Perform(ctx, metrics.TriggerScheduled); err != nil {
			t.log.Error("weekly_rollover_failed", "error", err)
		}
	}
}

// catchUpMissed performs one rollover when the process was down across
// the most recent trigger instant. An empty history never catches up, so
// a fresh install does not clear data on first start.
func (t *Task) catchUpMissed(ctx context.Context) {
	last, ok, err := t.roller.LastSnapshot(ctx)
	if err != nil {
		t.log.Error("weekly_rollover_catch_up_check_failed", "error", err)
		return
	}
	if !ok {
		return
	}

	prev := t.instant.Prev(t.now().In(t.loc))
	if !last.Before(prev) {
		return
	}

	t.log.Warn("weekly_rollover_missed", "last_snapshot", last.Format(time.RFC3339), "missed", prev.Format(time.RFC3339))
	if _, err := t.roller.Perform(ctx, metrics.TriggerCatchUp); err != nil {
		t.log.Error("weekly_rollover_failed", "error", err)
	}
}
