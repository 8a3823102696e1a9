package records

import (
	"context"
	"fmt"

	"omsz_portal/internal/models"
)

// NewReport is the input of SubmitReport. When Services is set the
// calculator fills CaseDescription and Ticket unless they are given.
type NewReport struct {
	ColleagueName   string
	ColleagueRank   string
	CaseDescription string
	Ticket          *float64
	ImageLink       string
	Services        []string
}

// SubmitReport stores a report for owner, taking name and rank from the
// owner's profile.
func (m *Manager) SubmitReport(ctx context.Context, owner models.User, in NewReport) (models.Report, error) {
	description := in.CaseDescription
	var ticket float64
	if in.Ticket != nil {
		ticket = *in.Ticket
	}

	if len(in.Services) > 0 {
		q, err := QuoteItems(in.Services)
		if err != nil {
			return models.Report{}, err
		}
		if description == "" {
			description = q.Description()
		}
		if in.Ticket == nil {
			ticket = q.Total
		}
	}
	if ticket < 0 {
		return models.Report{}, ErrNegativeTicket
	}

	now := m.now()
	rep := models.Report{
		ID:              m.nextID(now),
		UserID:          owner.ID,
		YourName:        owner.FullName,
		Rank:            owner.Rank,
		ColleagueName:   in.ColleagueName,
		ColleagueRank:   in.ColleagueRank,
		CaseDescription: description,
		Ticket:          ticket,
		ImageLink:       in.ImageLink,
		Date:            m.displayDate(now),
	}

	err := m.store.Atomically(func() error {
		reports, err := m.store.Reports(ctx)
		if err != nil {
			return err
		}
		return m.store.SaveReports(ctx, append(reports, rep))
	})
	if err != nil {
		return models.Report{}, err
	}
	return rep, nil
}

func (m *Manager) Reports(ctx context.Context) ([]models.Report, error) {
	return m.store.Reports(ctx)
}

// DeleteReport removes one report. It does nothing unless confirmed.
func (m *Manager) DeleteReport(ctx context.Context, actor models.User, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}

	return m.store.Atomically(func() error {
		reports, err := m.store.Reports(ctx)
		if err != nil {
			return err
		}

		kept := make([]models.Report, 0, len(reports))
		found := false
		for _, r := range reports {
			if r.ID != id {
				kept = append(kept, r)
				continue
			}
			if !canModify(actor, r.UserID, r.YourName) {
				return ErrForbidden
			}
			found = true
		}
		if !found {
			return fmt.Errorf("report %s: %w", id, ErrNotFound)
		}
		return m.store.SaveReports(ctx, kept)
	})
}
