package records

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omsz_portal/internal/logger"
	"omsz_portal/internal/models"
	"omsz_portal/internal/store"
)

var budapest, _ = time.LoadLocation("Europe/Budapest")

var bootstrapAdmin = models.User{
	Username: "asd",
	Password: "1134",
	FullName: "Admin",
	Rank:     models.TopRank,
}

func newManager(t *testing.T) (*Manager, *store.Store) {
	t.Helper()
	s := store.New(store.NewMemoryBackend())
	now := time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)
	m := NewManager(s, Options{
		Admin:    bootstrapAdmin,
		Location: budapest,
		Now:      func() time.Time { return now },
	}, logger.Discard())
	require.NoError(t, m.Bootstrap(context.Background()))
	return m, s
}

func member(t *testing.T, m *Manager, username, fullName string) models.User {
	t.Helper()
	u, err := m.CreateUser(context.Background(), NewUser{
		Username: username,
		Password: "pw",
		FullName: fullName,
		Rank:     models.Ranks[0],
	})
	require.NoError(t, err)
	return u
}

func adminUser(t *testing.T, m *Manager) models.User {
	t.Helper()
	u, err := m.Authenticate(context.Background(), "asd", "1134")
	require.NoError(t, err)
	return u
}

func TestBootstrapSeedsAdmin(t *testing.T) {
	m, _ := newManager(t)
	users, err := m.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)

	assert.Equal(t, "asd", users[0].Username)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.NotEmpty(t, users[0].ID)

	// A second bootstrap leaves the collection alone.
	require.NoError(t, m.Bootstrap(context.Background()))
	again, err := m.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, users, again)
}

func TestBootstrapMigratesLegacyUsers(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend())
	require.NoError(t, s.SaveUsers(ctx, []models.User{
		{Username: "asd", Password: "1134", FullName: "Admin"},
		{Username: "bob", Password: "x", FullName: "Bob"},
	}))

	m := NewManager(s, Options{Admin: bootstrapAdmin}, logger.Discard())
	require.NoError(t, m.Bootstrap(ctx))

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, models.RoleAdmin, users[0].Role)
	assert.Equal(t, models.RoleMember, users[1].Role)
	for _, u := range users {
		assert.NotEmpty(t, u.ID)
	}
}

func TestAuthenticate(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	_, err := m.Authenticate(ctx, "asd", "1134")
	require.NoError(t, err)

	_, err = m.Authenticate(ctx, "asd", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = m.Authenticate(ctx, "ASD", "1134")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUser(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()

	u := member(t, m, "a", "A")
	assert.Equal(t, models.RoleMember, u.Role)

	_, err := m.CreateUser(ctx, NewUser{Username: "a", Password: "x", FullName: "Other", Rank: models.Ranks[0]})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = m.CreateUser(ctx, NewUser{Username: "c", Password: "x", FullName: "C", Rank: "Kapitány"})
	assert.ErrorIs(t, err, ErrInvalidRank)

	users, err := m.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	found, err := m.User(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", found.FullName)
}

func TestDeleteUser(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	a := member(t, m, "a", "A")
	_, err := m.SubmitService(ctx, a, "2024-01-01T10:00", "2024-01-01T11:00")
	require.NoError(t, err)

	_, err = m.DeleteUser(ctx, "asd")
	assert.ErrorIs(t, err, ErrProtectedUser)

	removed, err := m.DeleteUser(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, a.ID, removed.ID)

	_, err = m.DeleteUser(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)

	// Records of a removed user stay.
	services, err := m.Services(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 1)
}

func TestDurationMinutes(t *testing.T) {
	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, 45, DurationMinutes(base, base.Add(45*time.Minute)))
	assert.Equal(t, 0, DurationMinutes(base, base))
	assert.Equal(t, 0, DurationMinutes(base, base.Add(59*time.Second)))
	assert.Equal(t, -1, DurationMinutes(base, base.Add(-30*time.Second)))
	assert.Equal(t, -60, DurationMinutes(base, base.Add(-time.Hour)))
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2024-01-01T10:00", budapest)
	require.NoError(t, err)
	assert.Equal(t, budapest, got.Location())
	assert.Equal(t, 10, got.Hour())

	_, err = ParseTimestamp("2024-01-01T10:00:30", budapest)
	require.NoError(t, err)

	_, err = ParseTimestamp("2024-01-01T10:00:00Z", budapest)
	require.NoError(t, err)

	_, err = ParseTimestamp("tegnap", budapest)
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestSubmitService(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	a := member(t, m, "a", "A")

	svc, err := m.SubmitService(ctx, a, "2024-01-01T10:00", "2024-01-01T10:45")
	require.NoError(t, err)
	assert.Equal(t, 45, svc.DurationInMinutes)
	assert.Equal(t, "A", svc.ServiceName)
	assert.Equal(t, a.Rank, svc.ServiceRank)
	assert.Equal(t, a.ID, svc.UserID)

	_, err = m.SubmitService(ctx, a, "2024-01-01T10:00", "2024-01-01T09:00")
	assert.ErrorIs(t, err, ErrNegativeDuration)

	services, err := m.Services(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 1)
}

func TestIDsAreUnique(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	a := member(t, m, "a", "A")

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		svc, err := m.SubmitService(ctx, a, "2024-01-01T10:00", "2024-01-01T11:00")
		require.NoError(t, err)
		assert.False(t, seen[svc.ID], "duplicate id %s", svc.ID)
		seen[svc.ID] = true
	}
}

func TestDeleteServicePreservesOrder(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	a := member(t, m, "a", "A")
	b := member(t, m, "b", "B")

	var ids []string
	for _, owner := range []models.User{a, b, a} {
		svc, err := m.SubmitService(ctx, owner, "2024-01-01T10:00", "2024-01-01T11:00")
		require.NoError(t, err)
		ids = append(ids, svc.ID)
	}

	assert.ErrorIs(t, m.DeleteService(ctx, a, ids[1]), ErrForbidden)
	assert.ErrorIs(t, m.DeleteService(ctx, a, "missing"), ErrNotFound)

	require.NoError(t, m.DeleteService(ctx, a, ids[0]))
	require.NoError(t, m.DeleteService(ctx, adminUser(t, m), ids[1]))

	services, err := m.Services(ctx)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, ids[2], services[0].ID)
}

func TestDeleteLegacyServiceByName(t *testing.T) {
	m, s := newManager(t)
	ctx := context.Background()
	a := member(t, m, "a", "A")
	require.NoError(t, s.SaveServices(ctx, []models.Service{
		{ID: "1", ServiceName: "A", DurationInMinutes: 30},
		{ID: "2", ServiceName: "Z", DurationInMinutes: 30},
	}))

	require.NoError(t, m.DeleteService(ctx, a, "1"))
	assert.ErrorIs(t, m.DeleteService(ctx, a, "2"), ErrForbidden)
}

func TestQuoteItems(t *testing.T) {
	q, err := QuoteItems([]string{"VIZS", "KOT"})
	require.NoError(t, err)
	assert.Equal(t, 65000.0, q.Total)
	assert.Equal(t, "Vizsgálat, Kötözés", q.Description())

	q, err = QuoteItems([]string{"KOT", "VIZS"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Kötözés", "Vizsgálat"}, q.Names)

	q, err = QuoteItems([]string{"TH", "TH"})
	require.NoError(t, err)
	assert.Equal(t, 60000.0, q.Total)

	_, err = QuoteItems(nil)
	assert.ErrorIs(t, err, ErrEmptyQuote)

	_, err = QuoteItems([]string{"VIZS", "XX"})
	assert.ErrorIs(t, err, ErrUnknownCalculatorItem)
}

func TestSubmitReport(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	a := member(t, m, "a", "A")

	ticket := 12000.0
	rep, err := m.SubmitReport(ctx, a, NewReport{
		ColleagueName:   "C",
		CaseDescription: "Kötözés",
		Ticket:          &ticket,
	})
	require.NoError(t, err)
	assert.Equal(t, "A", rep.YourName)
	assert.Equal(t, 12000.0, rep.Ticket)
	assert.Equal(t, "2024. 01. 03. 13:00:00", rep.Date)

	quoted, err := m.SubmitReport(ctx, a, NewReport{Services: []string{"VIZS", "GIP"}})
	require.NoError(t, err)
	assert.Equal(t, 70000.0, quoted.Ticket)
	assert.Equal(t, "Vizsgálat, Gipszelés", quoted.CaseDescription)

	neg := -1.0
	_, err = m.SubmitReport(ctx, a, NewReport{Ticket: &neg})
	assert.ErrorIs(t, err, ErrNegativeTicket)

	reports, err := m.Reports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 2)
}

func TestDeleteReport(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	a := member(t, m, "a", "A")
	b := member(t, m, "b", "B")

	rep, err := m.SubmitReport(ctx, a, NewReport{CaseDescription: "x"})
	require.NoError(t, err)

	assert.ErrorIs(t, m.DeleteReport(ctx, a, rep.ID, false), ErrNotConfirmed)
	assert.ErrorIs(t, m.DeleteReport(ctx, b, rep.ID, true), ErrForbidden)

	reports, err := m.Reports(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	require.NoError(t, m.DeleteReport(ctx, a, rep.ID, true))
	assert.ErrorIs(t, m.DeleteReport(ctx, a, rep.ID, true), ErrNotFound)
}

func TestDeleteReportPreservesOrder(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	a := member(t, m, "a", "A")

	var ids []string
	for _, desc := range []string{"one", "two", "three"} {
		rep, err := m.SubmitReport(ctx, a, NewReport{CaseDescription: desc})
		require.NoError(t, err)
		ids = append(ids, rep.ID)
	}

	require.NoError(t, m.DeleteReport(ctx, a, ids[1], true))

	reports, err := m.Reports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, ids[0], reports[0].ID)
	assert.Equal(t, ids[2], reports[1].ID)
}

func TestFormatContent(t *testing.T) {
	assert.Equal(t, "➜ első\n➜ második", FormatContent("első\n➜ második"))
	assert.Equal(t, "  ➜ kész", FormatContent("  ➜ kész"))
}

func TestPosts(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	admin := adminUser(t, m)
	a := member(t, m, "a", "A")

	_, err := m.CreatePost(ctx, a, "Cím", "szöveg")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = m.CreatePost(ctx, admin, " ", "szöveg")
	assert.ErrorIs(t, err, ErrInvalidPost)

	first, err := m.CreatePost(ctx, admin, "Első", "egy")
	require.NoError(t, err)
	second, err := m.CreatePost(ctx, admin, "Második", "kettő")
	require.NoError(t, err)

	posts, err := m.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID)
	assert.Equal(t, "➜ egy", posts[1].Content)

	edited, err := m.EditPost(ctx, admin, first.ID, "Első!", "új")
	require.NoError(t, err)
	assert.Equal(t, "➜ új", edited.Content)
	assert.Contains(t, edited.Date, EditedMarker)

	_, err = m.EditPost(ctx, admin, "missing", "t", "c")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.DeletePost(ctx, admin, first.ID, false), ErrNotConfirmed)
	assert.ErrorIs(t, m.DeletePost(ctx, a, first.ID, true), ErrForbidden)
	require.NoError(t, m.DeletePost(ctx, admin, first.ID, true))

	posts, err = m.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, second.ID, posts[0].ID)
}

func TestDeletePostPreservesOrder(t *testing.T) {
	m, _ := newManager(t)
	ctx := context.Background()
	admin := adminUser(t, m)

	var ids []string
	for _, title := range []string{"Első", "Második", "Harmadik"} {
		p, err := m.CreatePost(ctx, admin, title, "x")
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	require.NoError(t, m.DeletePost(ctx, admin, ids[1], true))

	posts, err := m.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	// Newest first.
	assert.Equal(t, ids[2], posts[0].ID)
	assert.Equal(t, ids[0], posts[1].ID)
}
