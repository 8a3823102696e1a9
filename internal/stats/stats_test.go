package stats

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omsz_portal/internal/models"
)

var (
	admin = models.User{ID: "u-admin", Username: "asd", FullName: "Admin", Role: models.RoleAdmin}
	userA = models.User{ID: "u-a", Username: "a", FullName: "A", Role: models.RoleMember}
	userB = models.User{ID: "u-b", Username: "b", FullName: "B", Role: models.RoleMember}
)

func fixtureServices() []models.Service {
	return []models.Service{
		{ID: "1", UserID: "u-a", ServiceName: "A", DurationInMinutes: 60},
		{ID: "2", UserID: "u-b", ServiceName: "B", DurationInMinutes: 150},
		{ID: "3", UserID: "u-a", ServiceName: "A", DurationInMinutes: 40},
		{ID: "4", ServiceName: "Legacy", DurationInMinutes: 10},
	}
}

func TestLeaderScenario(t *testing.T) {
	dir := NewDirectory([]models.User{userA, userB})
	services := []models.Service{
		{ID: "1", ServiceName: "A", DurationInMinutes: 100},
		{ID: "2", ServiceName: "B", DurationInMinutes: 150},
	}

	sum := SummarizeServices(userA, dir, services)
	assert.Equal(t, 150, sum.LeaderMinutes)
	assert.Equal(t, 100, sum.ViewerMinutes)
	assert.Equal(t, 51, sum.MinutesToBeFirst)

	lead := SummarizeServices(userB, dir, services)
	assert.Equal(t, 0, lead.MinutesToBeFirst)
}

func TestMinutesToBeFirst(t *testing.T) {
	for leader := 0; leader < 40; leader += 7 {
		for viewer := 0; viewer < 40; viewer += 3 {
			got := MinutesToBeFirst(leader, viewer)
			assert.GreaterOrEqual(t, got, 0)
			assert.Equal(t, viewer >= leader, got == 0, "leader=%d viewer=%d", leader, viewer)
		}
	}
	assert.Equal(t, 0, MinutesToBeFirst(0, 0))
}

func TestEmptyCollections(t *testing.T) {
	dir := NewDirectory(nil)
	sum := SummarizeServices(userA, dir, nil)
	assert.Equal(t, 0, sum.LeaderMinutes)
	assert.Equal(t, 0, sum.MinutesToBeFirst)
	assert.NotNil(t, sum.Rows)

	rs := SummarizeReports(userA, dir, nil)
	assert.Equal(t, 0, rs.Count)
	assert.Nil(t, rs.PerUser)
}

func TestVisibility(t *testing.T) {
	services := fixtureServices()

	all := VisibleServices(admin, services)
	require.Len(t, all, len(services))
	for i, row := range all {
		assert.Equal(t, services[i], row.Service)
		assert.Equal(t, i+1, row.Index)
	}

	gotA := VisibleServices(userA, services)
	require.Len(t, gotA, 2)
	assert.Equal(t, "1", gotA[0].ID)
	assert.Equal(t, "3", gotA[1].ID)
	assert.Equal(t, 3, gotA[1].Index)

	legacy := models.User{ID: "u-l", FullName: "Legacy"}
	gotL := VisibleServices(legacy, services)
	require.Len(t, gotL, 1)
	assert.Equal(t, "4", gotL[0].ID)

	nobody := models.User{ID: "u-x", FullName: "X"}
	assert.Empty(t, VisibleServices(nobody, services))
}

func TestLegacyNameMatchIsExact(t *testing.T) {
	reports := []models.Report{{ID: "1", YourName: "Kovács Béla"}}

	assert.Len(t, VisibleReports(models.User{ID: "x", FullName: "Kovács Béla"}, reports), 1)
	assert.Empty(t, VisibleReports(models.User{ID: "x", FullName: "kovács béla"}, reports))
	assert.Empty(t, VisibleReports(models.User{ID: "x", FullName: "Kovács Béla "}, reports))
}

func TestRenamedUserKeepsHistory(t *testing.T) {
	renamed := userA
	renamed.FullName = "A. Renamed"
	dir := NewDirectory([]models.User{renamed, userB})

	sum := SummarizeServices(renamed, dir, fixtureServices())
	require.Len(t, sum.Rows, 2)
	assert.Equal(t, "A. Renamed", sum.Rows[0].ServiceName)
	assert.Equal(t, 100, sum.ViewerMinutes)
}

func TestTotalsOrderIndependent(t *testing.T) {
	dir := NewDirectory([]models.User{userA, userB})
	services := fixtureServices()
	reports := []models.Report{
		{ID: "r1", UserID: "u-a", YourName: "A", Ticket: 50000},
		{ID: "r2", UserID: "u-a", YourName: "A", Ticket: 15000},
		{ID: "r3", UserID: "u-b", YourName: "B", Ticket: 9000},
	}
	want := Totals(dir, services, reports)

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		s := append([]models.Service(nil), services...)
		r := append([]models.Report(nil), reports...)
		rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
		rng.Shuffle(len(r), func(i, j int) { r[i], r[j] = r[j], r[i] })
		assert.Equal(t, want, Totals(dir, s, r))
	}

	require.Len(t, want, 3)
	assert.Equal(t, "A", want[0].Name)
	assert.Equal(t, 100, want[0].TotalMinutes)
	assert.Equal(t, 2, want[0].ShiftCount)
	assert.Equal(t, 2, want[0].ReportCount)
	assert.Equal(t, 65000.0, want[0].TicketTotal)
	assert.Equal(t, "B", want[1].Name)
	assert.Equal(t, "Legacy", want[2].Name)
}

func TestLegacyRecordsJoinUniqueOwner(t *testing.T) {
	dir := NewDirectory([]models.User{userA})
	services := []models.Service{
		{ID: "1", UserID: "u-a", ServiceName: "A", DurationInMinutes: 10},
		{ID: "2", ServiceName: "A", DurationInMinutes: 5},
	}

	totals := Totals(dir, services, nil)
	require.Len(t, totals, 1)
	assert.Equal(t, 15, totals[0].TotalMinutes)
}

func TestServiceRowsKeepGlobalIndex(t *testing.T) {
	dir := NewDirectory([]models.User{userA, userB})
	sum := SummarizeServices(userA, dir, fixtureServices())

	require.Len(t, sum.Rows, 2)
	assert.Equal(t, 1, sum.Rows[0].Index)
	assert.Equal(t, 3, sum.Rows[1].Index)
	assert.Equal(t, 100, sum.TotalMinutes)

	all := SummarizeServices(admin, dir, fixtureServices())
	assert.Len(t, all.Rows, 4)
	assert.Equal(t, 260, all.TotalMinutes)
	assert.Equal(t, 150, all.LeaderMinutes)
}

func TestSummarizeReports(t *testing.T) {
	dir := NewDirectory([]models.User{userA, userB})
	reports := []models.Report{
		{ID: "r1", UserID: "u-a", YourName: "A", Ticket: 50000},
		{ID: "r2", UserID: "u-b", YourName: "B", Ticket: 9000},
		{ID: "r3", UserID: "u-a", YourName: "A", Ticket: 15000},
	}

	mine := SummarizeReports(userA, dir, reports)
	assert.Equal(t, 2, mine.Count)
	assert.Equal(t, 65000.0, mine.TotalAmount)
	assert.Equal(t, 2, mine.Rows[1].Index)
	assert.Nil(t, mine.PerUser)

	all := SummarizeReports(admin, dir, reports)
	assert.Equal(t, 3, all.Count)
	assert.Equal(t, []ReportTotals{{Name: "A", Count: 2, Total: 65000}, {Name: "B", Count: 1, Total: 9000}}, all.PerUser)
}

func TestSummarizeCases(t *testing.T) {
	dir := NewDirectory([]models.User{userA})
	reports := []models.Report{
		{UserID: "u-a", YourName: "A", ColleagueName: "C", ColleagueRank: "Orvos", Ticket: 100, ImageLink: "https://i.imgur.com/1.png"},
		{UserID: "u-a", YourName: "A", ColleagueName: "C", ColleagueRank: "Orvos", Ticket: 50},
		{UserID: "u-a", YourName: "A", ColleagueName: "D", ColleagueRank: "Rezidens", Ticket: 10, ImageLink: "https://i.imgur.com/2.png"},
	}

	cases := SummarizeCases(dir, reports)
	require.Len(t, cases, 2)
	assert.Equal(t, "A (C - Orvos)", cases[0].Key)
	assert.Equal(t, 2, cases[0].Count)
	assert.Equal(t, 150.0, cases[0].Total)
	assert.Equal(t, []string{"https://i.imgur.com/1.png"}, cases[0].Images)
	assert.Equal(t, "A (D - Rezidens)", cases[1].Key)
}

func TestHome(t *testing.T) {
	reports := []models.Report{{UserID: "u-a"}, {UserID: "u-b"}, {UserID: "u-a"}}
	h := Home(userA, []models.User{admin, userA, userB}, reports)
	assert.Equal(t, HomeStats{UserCount: 3, TotalReports: 3, UserReports: 2}, h)
}

func TestFormatterAmount(t *testing.T) {
	f := NewFormatter("en")
	assert.Equal(t, "50,000$", f.Amount(50000))
	assert.Equal(t, "1,234.99$", f.Amount(1234.99))
	assert.Equal(t, "0$", f.Amount(0))
}

func TestFormatterAmountHungarian(t *testing.T) {
	f := NewFormatter("hu")
	assert.Equal(t, "9000$", f.Amount(9000))
	assert.Equal(t, "50\u00a0000$", f.Amount(50000))
	assert.Equal(t, "12,7$", f.Amount(12.7))

	// Unknown languages fall back to Hungarian.
	assert.Equal(t, "9000$", NewFormatter("???").Amount(9000))
}
