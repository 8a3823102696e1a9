package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"omsz_portal/internal/metrics"
)

var (
	ErrNoSession  = errors.New("no session")
	ErrAutoLogout = errors.New("logged out after inactivity")
)

// Identity is who a session belongs to.
type Identity struct {
	UserID   string
	Username string
	OpenedAt time.Time
}

type entry struct {
	identity Identity
	timer    *time.Timer
	gen      uint64
}

// Gate holds the open sessions in memory. Each session carries an
// inactivity countdown that Touch re-arms; when it runs out the session
// is closed and the next Lookup reports ErrAutoLogout once. An unclaimed
// notice is dropped after another timeout period.
type Gate struct {
	timeout time.Duration
	log     *slog.Logger

	mu       sync.Mutex
	sessions map[string]*entry
	expired  map[string]time.Time
	gen      uint64
}

func NewGate(timeout time.Duration, log *slog.Logger) *Gate {
	return &Gate{
		timeout:  timeout,
		log:      log,
		sessions: map[string]*entry{},
		expired:  map[string]time.Time{},
	}
}

// Open starts a session for the user and returns its token.
func (g *Gate) Open(userID, username string) string {
	sid := uuid.NewString()

	g.mu.Lock()
	defer g.mu.Unlock()

	e := &entry{identity: Identity{UserID: userID, Username: username, OpenedAt: time.Now()}}
	g.sessions[sid] = e
	g.arm(sid, e)
	return sid
}

// arm must be called with g.mu held.
func (g *Gate) arm(sid string, e *entry) {
	if e.timer != nil {
		e.timer.Stop()
	}
	g.gen++
	gen := g.gen
	e.gen = gen
	e.timer = time.AfterFunc(g.timeout, func() { g.expire(sid, gen) })
}

func (g *Gate) expire(sid string, gen uint64) {
	g.mu.Lock()
	e, ok := g.sessions[sid]
	if !ok || e.gen != gen {
		g.mu.Unlock()
		return
	}
	delete(g.sessions, sid)
	now := time.Now()
	g.expired[sid] = now
	g.mu.Unlock()
	time.AfterFunc(g.timeout, func() { g.forget(sid, now) })

	metrics.RecordAutoLogout()
	g.log.Info("auto_logout",
		"username", e.identity.Username,
		"idle", g.timeout.String(),
		"session_age", now.Sub(e.identity.OpenedAt).Round(time.Second).String())
}

// forget drops the auto-logout notice for sid if it is still the one
// recorded at the given time.
func (g *Gate) forget(sid string, at time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t, ok := g.expired[sid]; ok && t.Equal(at) {
		delete(g.expired, sid)
	}
}

// Lookup returns the identity behind sid. A session closed by the
// watchdog yields ErrAutoLogout on the first lookup and ErrNoSession after.
func (g *Gate) Lookup(sid string) (Identity, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.sessions[sid]; ok {
		return e.identity, nil
	}
	if _, ok := g.expired[sid]; ok {
		delete(g.expired, sid)
		return Identity{}, ErrAutoLogout
	}
	return Identity{}, ErrNoSession
}

// Touch records activity on sid and restarts its countdown.
func (g *Gate) Touch(sid string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.sessions[sid]
	if !ok {
		return ErrNoSession
	}
	g.arm(sid, e)
	return nil
}

// Close ends sid. Closing an unknown session is not an error.
func (g *Gate) Close(sid string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.sessions[sid]; ok {
		e.timer.Stop()
		delete(g.sessions, sid)
	}
	delete(g.expired, sid)
}

// CloseUser ends every session of the given user.
func (g *Gate) CloseUser(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for sid, e := range g.sessions {
		if e.identity.UserID == userID {
			e.timer.Stop()
			delete(g.sessions, sid)
		}
	}
}

// Shutdown stops all countdowns and forgets every session.
func (g *Gate) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for sid, e := range g.sessions {
		e.timer.Stop()
		delete(g.sessions, sid)
	}
	g.expired = map[string]time.Time{}
}

// Len returns the number of open sessions.
func (g *Gate) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}
