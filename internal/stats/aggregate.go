package stats

import (
	"fmt"
	"sort"

	"omsz_portal/internal/models"
)

// UserTotals is the accumulated activity of one owner.
type UserTotals struct {
	Name         string  `json:"name"`
	TotalMinutes int     `json:"totalMinutes"`
	ShiftCount   int     `json:"shiftCount"`
	ReportCount  int     `json:"reportCount"`
	TicketTotal  float64 `json:"ticketTotal"`
	key          string
}

// Totals groups services and reports by owner. The result is sorted by
// name, so it does not depend on the order of the input.
func Totals(dir Directory, services []models.Service, reports []models.Report) []UserTotals {
	acc := map[string]*UserTotals{}
	get := func(ownerID, recorded string) *UserTotals {
		k := dir.key(ownerID, recorded)
		t, ok := acc[k]
		if !ok {
			t = &UserTotals{Name: dir.Name(ownerID, recorded), key: k}
			acc[k] = t
		}
		return t
	}

	for _, s := range services {
		t := get(s.UserID, s.ServiceName)
		t.TotalMinutes += s.DurationInMinutes
		t.ShiftCount++
	}
	for _, r := range reports {
		t := get(r.UserID, r.YourName)
		t.ReportCount++
		t.TicketTotal += r.Ticket
	}

	out := make([]UserTotals, 0, len(acc))
	for _, t := range acc {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].key < out[j].key
	})
	return out
}

// LeaderMinutes is the highest per-owner minute total, 0 when there are no shifts.
func LeaderMinutes(dir Directory, services []models.Service) int {
	leader := 0
	for _, t := range Totals(dir, services, nil) {
		if t.TotalMinutes > leader {
			leader = t.TotalMinutes
		}
	}
	return leader
}

// MinutesToBeFirst is how many more minutes the viewer needs to strictly
// overtake the leader. It is 0 once the viewer's total reaches the leader's.
func MinutesToBeFirst(leader, viewer int) int {
	if viewer >= leader {
		return 0
	}
	return leader - viewer + 1
}

// ServiceRow is a shift as shown in the overview. Index is the 1-based
// position in the full collection.
type ServiceRow struct {
	models.Service
	Index int `json:"globalIndex"`
}

type ServiceSummary struct {
	Rows             []ServiceRow `json:"services"`
	TotalMinutes     int          `json:"totalMinutes"`
	ViewerMinutes    int          `json:"viewerMinutes"`
	LeaderMinutes    int          `json:"leaderMinutes"`
	MinutesToBeFirst int          `json:"minutesToBeFirst"`
}

// SummarizeServices builds the shift overview for viewer. The leader is
// computed over every shift, not only the visible ones.
func SummarizeServices(viewer models.User, dir Directory, services []models.Service) ServiceSummary {
	sum := ServiceSummary{Rows: []ServiceRow{}}

	for _, s := range services {
		if Owns(viewer, s.UserID, s.ServiceName) {
			sum.ViewerMinutes += s.DurationInMinutes
		}
	}
	for _, row := range VisibleServices(viewer, services) {
		row.ServiceName = dir.Name(row.UserID, row.ServiceName)
		sum.Rows = append(sum.Rows, row)
		sum.TotalMinutes += row.DurationInMinutes
	}

	sum.LeaderMinutes = LeaderMinutes(dir, services)
	sum.MinutesToBeFirst = MinutesToBeFirst(sum.LeaderMinutes, sum.ViewerMinutes)
	return sum
}

// ReportRow is a report as shown in the overview. Index is the 1-based
// position among the visible reports.
type ReportRow struct {
	models.Report
	Index int `json:"index"`
}

// ReportTotals is one line of the admin's per-user report table.
type ReportTotals struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

type ReportSummary struct {
	Rows        []ReportRow    `json:"reports"`
	Count       int            `json:"count"`
	TotalAmount float64        `json:"totalAmount"`
	PerUser     []ReportTotals `json:"perUser,omitempty"`
}

// SummarizeReports builds the report overview for viewer. PerUser is only
// filled for an admin.
func SummarizeReports(viewer models.User, dir Directory, reports []models.Report) ReportSummary {
	visible := VisibleReports(viewer, reports)
	sum := ReportSummary{Rows: make([]ReportRow, 0, len(visible))}

	for i, r := range visible {
		r.YourName = dir.Name(r.UserID, r.YourName)
		sum.Rows = append(sum.Rows, ReportRow{Report: r, Index: i + 1})
		sum.Count++
		sum.TotalAmount += r.Ticket
	}

	if viewer.IsAdmin() {
		sum.PerUser = []ReportTotals{}
		for _, t := range Totals(dir, nil, reports) {
			sum.PerUser = append(sum.PerUser, ReportTotals{Name: t.Name, Count: t.ReportCount, Total: t.TicketTotal})
		}
	}
	return sum
}

// CaseTotals groups reports by submitter and colleague pair.
type CaseTotals struct {
	Key    string   `json:"key"`
	Count  int      `json:"count"`
	Total  float64  `json:"total"`
	Images []string `json:"images"`
}

// SummarizeCases groups reports under "<name> (<colleague> - <colleague rank>)"
// and collects their image links.
func SummarizeCases(dir Directory, reports []models.Report) []CaseTotals {
	acc := map[string]*CaseTotals{}
	for _, r := range reports {
		k := fmt.Sprintf("%s (%s - %s)", dir.Name(r.UserID, r.YourName), r.ColleagueName, r.ColleagueRank)
		c, ok := acc[k]
		if !ok {
			c = &CaseTotals{Key: k, Images: []string{}}
			acc[k] = c
		}
		c.Count++
		c.Total += r.Ticket
		if r.ImageLink != "" {
			c.Images = append(c.Images, r.ImageLink)
		}
	}

	out := make([]CaseTotals, 0, len(acc))
	for _, c := range acc {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// HomeStats are the counters on the landing page.
type HomeStats struct {
	UserCount    int `json:"userCount"`
	TotalReports int `json:"totalReports"`
	UserReports  int `json:"userReports"`
}

func Home(viewer models.User, users []models.User, reports []models.Report) HomeStats {
	h := HomeStats{UserCount: len(users), TotalReports: len(reports)}
	for _, r := range reports {
		if Owns(viewer, r.UserID, r.YourName) {
			h.UserReports++
		}
	}
	return h
}
