package rollover

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"omsz_portal/internal/metrics"
	"omsz_portal/internal/models"
	"omsz_portal/internal/store"
)

// SnapshotDateLayout is the timestamp format of WeeklyAnalysis.Date.
const SnapshotDateLayout = "2006-01-02T15:04:05.000Z07:00"

// Roller archives the live services and reports and clears them.
type Roller struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time
}

func NewRoller(s *store.Store, log *slog.Logger, now func() time.Time) *Roller {
	if now == nil {
		now = time.Now
	}
	return &Roller{store: s, log: log, now: now}
}

// Perform appends one WeeklyAnalysis holding the current services and
// reports and empties both collections in a single backend write, so a
// failure leaves all three untouched.
func (r *Roller) Perform(ctx context.Context, trigger string) (models.WeeklyAnalysis, error) {
	var snapshot models.WeeklyAnalysis

	err := r.store.Atomically(func() error {
		services, err := r.store.Services(ctx)
		if err != nil {
			return err
		}
		reports, err := r.store.Reports(ctx)
		if err != nil {
			return err
		}
		history, err := r.store.WeeklyAnalyses(ctx)
		if err != nil {
			return err
		}

		snapshot = models.WeeklyAnalysis{
			Date:     r.now().UTC().Format(SnapshotDateLayout),
			Services: services,
			Reports:  reports,
		}
		return r.store.CommitRollover(ctx, append(history, snapshot))
	})
	if err != nil {
		return models.WeeklyAnalysis{}, fmt.Errorf("weekly rollover: %w", err)
	}

	metrics.RecordRollover(trigger)
	r.log.Info("weekly_rollover",
		"trigger", trigger,
		"services", len(snapshot.Services),
		"reports", len(snapshot.Reports),
	)
	return snapshot, nil
}

// History returns every archived snapshot, oldest first.
func (r *Roller) History(ctx context.Context) ([]models.WeeklyAnalysis, error) {
	return r.store.WeeklyAnalyses(ctx)
}

// LastSnapshot returns the date of the newest snapshot, if any.
func (r *Roller) LastSnapshot(ctx context.Context) (time.Time, bool, error) {
	history, err := r.store.WeeklyAnalyses(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(history) == 0 {
		return time.Time{}, false, nil
	}
	last := history[len(history)-1].Date
	t, err := time.Parse(time.RFC3339Nano, last)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse snapshot date %q: %w", last, err)
	}
	return t, true, nil
}
