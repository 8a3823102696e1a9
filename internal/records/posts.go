package records

import (
	"context"
	"fmt"
	"strings"

	"omsz_portal/internal/models"
)

// LineMarker starts every line of a post.
const LineMarker = "➜"

// FormatContent prefixes each line that does not already start with the marker.
func FormatContent(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), LineMarker) {
			lines[i] = LineMarker + " " + line
		}
	}
	return strings.Join(lines, "\n")
}

func validPost(title, content string) bool {
	return strings.TrimSpace(title) != "" && strings.TrimSpace(content) != ""
}

// CreatePost puts a new announcement in front of the existing ones.
func (m *Manager) CreatePost(ctx context.Context, actor models.User, title, content string) (models.Post, error) {
	if !actor.IsAdmin() {
		return models.Post{}, ErrForbidden
	}
	if !validPost(title, content) {
		return models.Post{}, ErrInvalidPost
	}

	now := m.now()
	post := models.Post{
		ID:      m.nextID(now),
		Title:   title,
		Content: FormatContent(content),
		Date:    m.displayDate(now),
	}

	err := m.store.Atomically(func() error {
		posts, err := m.store.Posts(ctx)
		if err != nil {
			return err
		}
		return m.store.SavePosts(ctx, append([]models.Post{post}, posts...))
	})
	if err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// EditPost replaces title and content and marks the date as edited.
func (m *Manager) EditPost(ctx context.Context, actor models.User, id, title, content string) (models.Post, error) {
	if !actor.IsAdmin() {
		return models.Post{}, ErrForbidden
	}
	if !validPost(title, content) {
		return models.Post{}, ErrInvalidPost
	}

	var edited models.Post
	err := m.store.Atomically(func() error {
		posts, err := m.store.Posts(ctx)
		if err != nil {
			return err
		}
		found := false
		for i := range posts {
			if posts[i].ID != id {
				continue
			}
			posts[i].Title = title
			posts[i].Content = FormatContent(content)
			posts[i].Date = m.displayDate(m.now()) + EditedMarker
			edited = posts[i]
			found = true
		}
		if !found {
			return fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return m.store.SavePosts(ctx, posts)
	})
	return edited, err
}

// DeletePost removes one announcement. It does nothing unless confirmed.
func (m *Manager) DeletePost(ctx context.Context, actor models.User, id string, confirmed bool) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	if !confirmed {
		return ErrNotConfirmed
	}

	return m.store.Atomically(func() error {
		posts, err := m.store.Posts(ctx)
		if err != nil {
			return err
		}
		kept := make([]models.Post, 0, len(posts))
		for _, p := range posts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(posts) {
			return fmt.Errorf("post %s: %w", id, ErrNotFound)
		}
		return m.store.SavePosts(ctx, kept)
	})
}

func (m *Manager) Posts(ctx context.Context) ([]models.Post, error) {
	return m.store.Posts(ctx)
}
