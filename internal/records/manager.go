package records

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"omsz_portal/internal/models"
	"omsz_portal/internal/stats"
	"omsz_portal/internal/store"
)

// Layouts of the human-readable dates kept on reports and posts, and of
// the machine timestamps kept on shifts.
const (
	DisplayDateLayout = "2006. 01. 02. 15:04:05"
	TimestampLayout   = "2006-01-02T15:04:05.000Z07:00"
	EditedMarker      = " (szerkesztve)"
)

// Options configures a Manager.
type Options struct {
	// Admin is seeded into an empty user collection and can never be deleted.
	Admin    models.User
	Location *time.Location
	Now      func() time.Time
}

// Manager performs every create/delete operation on the collections.
// Writes run inside store.Atomically.
type Manager struct {
	store *store.Store
	admin models.User
	loc   *time.Location
	now   func() time.Time
	log   *slog.Logger

	idMu   sync.Mutex
	lastID int64
}

func NewManager(s *store.Store, opts Options, log *slog.Logger) *Manager {
	m := &Manager{
		store: s,
		admin: opts.Admin,
		loc:   opts.Location,
		now:   opts.Now,
		log:   log,
	}
	if m.loc == nil {
		m.loc = time.Local
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// Location is the zone used for parsing and display.
func (m *Manager) Location() *time.Location {
	return m.loc
}

// nextID returns a millisecond timestamp id. Within one process ids are
// strictly increasing, so two records created in the same millisecond
// still get distinct ids.
func (m *Manager) nextID(t time.Time) string {
	m.idMu.Lock()
	defer m.idMu.Unlock()

	ms := t.UnixMilli()
	if ms <= m.lastID {
		ms = m.lastID + 1
	}
	m.lastID = ms
	return strconv.FormatInt(ms, 10)
}

func (m *Manager) displayDate(t time.Time) string {
	return t.In(m.loc).Format(DisplayDateLayout)
}

func canModify(actor models.User, ownerID, ownerName string) bool {
	return actor.IsAdmin() || stats.Owns(actor, ownerID, ownerName)
}
