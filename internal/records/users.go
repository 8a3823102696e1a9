package records

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"omsz_portal/internal/models"
	"omsz_portal/internal/store"
)

// NewUser is the input of CreateUser.
type NewUser struct {
	Username string
	Password string
	FullName string
	Rank     string
}

// Bootstrap seeds the administrator when the user collection is absent or
// empty. Existing records without an id or role are upgraded in place.
func (m *Manager) Bootstrap(ctx context.Context) error {
	return m.store.Atomically(func() error {
		ok, err := m.store.Has(ctx, store.KeyUsers)
		if err != nil {
			return err
		}
		users, err := m.store.Users(ctx)
		if err != nil {
			return err
		}

		if !ok || len(users) == 0 {
			seed := m.admin
			seed.ID = uuid.NewString()
			seed.Role = models.RoleAdmin
			m.log.Info("bootstrap_admin_seeded", "username", seed.Username)
			return m.store.SaveUsers(ctx, []models.User{seed})
		}

		changed := false
		for i := range users {
			u := &users[i]
			if u.ID == "" {
				u.ID = uuid.NewString()
				changed = true
			}
			if u.Username == m.admin.Username && u.Role != models.RoleAdmin {
				u.Role = models.RoleAdmin
				changed = true
			}
			if u.Role == "" {
				u.Role = models.RoleMember
				changed = true
			}
		}
		if !changed {
			return nil
		}
		m.log.Info("users_migrated", "count", len(users))
		return m.store.SaveUsers(ctx, users)
	})
}

// IsProtected reports whether username is the bootstrap administrator.
func (m *Manager) IsProtected(username string) bool {
	return username == m.admin.Username
}

// Authenticate finds the user whose username and password both match.
func (m *Manager) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	users, err := m.store.Users(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.Username == username && u.Password == password {
			return u, nil
		}
	}
	return models.User{}, ErrInvalidCredentials
}

func (m *Manager) Users(ctx context.Context) ([]models.User, error) {
	return m.store.Users(ctx)
}

// User looks a user up by id.
func (m *Manager) User(ctx context.Context, id string) (models.User, error) {
	users, err := m.store.Users(ctx)
	if err != nil {
		return models.User{}, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
}

func (m *Manager) CreateUser(ctx context.Context, in NewUser) (models.User, error) {
	if !models.IsRank(in.Rank) {
		return models.User{}, fmt.Errorf("%q: %w", in.Rank, ErrInvalidRank)
	}
	u := models.User{
		ID:       uuid.NewString(),
		Username: in.Username,
		Password: in.Password,
		FullName: in.FullName,
		Rank:     in.Rank,
		Role:     models.RoleMember,
	}

	err := m.store.Atomically(func() error {
		users, err := m.store.Users(ctx)
		if err != nil {
			return err
		}
		for _, existing := range users {
			if existing.Username == in.Username {
				return fmt.Errorf("%q: %w", in.Username, ErrUserExists)
			}
		}
		return m.store.SaveUsers(ctx, append(users, u))
	})
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}

// DeleteUser removes the user with the given username and returns it.
// Records that user submitted stay in place.
func (m *Manager) DeleteUser(ctx context.Context, username string) (models.User, error) {
	if m.IsProtected(username) {
		return models.User{}, ErrProtectedUser
	}

	var removed models.User
	err := m.store.Atomically(func() error {
		users, err := m.store.Users(ctx)
		if err != nil {
			return err
		}
		kept := make([]models.User, 0, len(users))
		found := false
		for _, u := range users {
			if u.Username == username {
				removed = u
				found = true
				continue
			}
			kept = append(kept, u)
		}
		if !found {
			return fmt.Errorf("user %s: %w", username, ErrNotFound)
		}
		return m.store.SaveUsers(ctx, kept)
	})
	return removed, err
}
