package records

import (
	"context"
	"fmt"
	"time"

	"omsz_portal/internal/models"
)

// Accepted shift timestamp layouts. The first two are what an HTML
// datetime-local input sends and are read in the manager's location.
var localLayouts = []string{"2006-01-02T15:04", "2006-01-02T15:04:05"}

// ParseTimestamp reads a shift boundary.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%q: %w", s, ErrInvalidTimestamp)
}

// DurationMinutes is the floor of (end - start) in whole minutes.
func DurationMinutes(start, end time.Time) int {
	d := end.Sub(start)
	mins := d / time.Minute
	if d%time.Minute < 0 {
		mins--
	}
	return int(mins)
}

// SubmitService logs a shift for owner. Name and rank are taken from the
// owner's profile. A negative duration is rejected and nothing is written.
func (m *Manager) SubmitService(ctx context.Context, owner models.User, start, end string) (models.Service, error) {
	st, err := ParseTimestamp(start, m.loc)
	if err != nil {
		return models.Service{}, err
	}
	et, err := ParseTimestamp(end, m.loc)
	if err != nil {
		return models.Service{}, err
	}

	mins := DurationMinutes(st, et)
	if mins < 0 {
		return models.Service{}, ErrNegativeDuration
	}

	now := m.now()
	svc := models.Service{
		ID:                m.nextID(now),
		UserID:            owner.ID,
		ServiceName:       owner.FullName,
		ServiceRank:       owner.Rank,
		ServiceStart:      start,
		ServiceEnd:        end,
		DurationInMinutes: mins,
		CreatedAt:         now.UTC().Format(TimestampLayout),
	}

	err = m.store.Atomically(func() error {
		services, err := m.store.Services(ctx)
		if err != nil {
			return err
		}
		return m.store.SaveServices(ctx, append(services, svc))
	})
	if err != nil {
		return models.Service{}, err
	}
	return svc, nil
}

func (m *Manager) Services(ctx context.Context) ([]models.Service, error) {
	return m.store.Services(ctx)
}

// DeleteService removes one shift. Members may only delete their own.
func (m *Manager) DeleteService(ctx context.Context, actor models.User, id string) error {
	return m.store.Atomically(func() error {
		services, err := m.store.Services(ctx)
		if err != nil {
			return err
		}

		kept := make([]models.Service, 0, len(services))
		found := false
		for _, s := range services {
			if s.ID != id {
				kept = append(kept, s)
				continue
			}
			if !canModify(actor, s.UserID, s.ServiceName) {
				return ErrForbidden
			}
			found = true
		}
		if !found {
			return fmt.Errorf("service %s: %w", id, ErrNotFound)
		}
		return m.store.SaveServices(ctx, kept)
	})
}
