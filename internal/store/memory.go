// internal/store/memory.go
//
// In-memory implementation of Store.
// Used by tests and by STORE_DRIVER=memory for local development.
//
// Characteristics:
//   - Users and posts kept in maps keyed by id; creation order kept in slices
//     so listings are stable.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Records are copied in and out, so callers never alias stored slices.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"strings"
	"sync"

	"github.com/robalobadob/bloglist/internal/model"
)

type memory struct {
	mu        sync.RWMutex
	users     map[string]*model.User
	userOrder []string
	posts     map[string]*model.Post
	postOrder []string
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		users: make(map[string]*model.User),
		posts: make(map[string]*model.Post),
	}
}

func (m *memory) Ping(ctx context.Context) error  { return nil }
func (m *memory) Close(ctx context.Context) error { return nil }

// ------------------------------- users -------------------------------------

func (m *memory) CreateUser(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return ErrDuplicateUsername
		}
	}
	u.ID = model.NewID()
	m.users[u.ID] = copyUser(u)
	m.userOrder = append(m.userOrder, u.ID)
	return nil
}

func (m *memory) GetUser(ctx context.Context, id string) (model.User, error) {
	if err := CheckID(id); err != nil {
		return model.User{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return model.User{}, ErrNotFound
	}
	return *copyUser(u), nil
}

func (m *memory) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			return *copyUser(u), nil
		}
	}
	return model.User{}, ErrNotFound
}

func (m *memory) ListUsers(ctx context.Context) ([]model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		out = append(out, *copyUser(m.users[id]))
	}
	return out, nil
}

func (m *memory) AddUserPost(ctx context.Context, userID, postID string) error {
	if err := CheckID(userID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.Posts = append(u.Posts, postID)
	return nil
}

// ------------------------------- posts -------------------------------------

func (m *memory) CreatePost(ctx context.Context, p *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = model.NewID()
	m.posts[p.ID] = copyPost(p)
	m.postOrder = append(m.postOrder, p.ID)
	return nil
}

func (m *memory) GetPost(ctx context.Context, id string) (model.Post, error) {
	if err := CheckID(id); err != nil {
		return model.Post{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.posts[id]
	if !ok {
		return model.Post{}, ErrNotFound
	}
	return *copyPost(p), nil
}

func (m *memory) ListPosts(ctx context.Context) ([]model.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Post, 0, len(m.postOrder))
	for _, id := range m.postOrder {
		out = append(out, *copyPost(m.posts[id]))
	}
	return out, nil
}

func (m *memory) UpdatePost(ctx context.Context, id string, patch model.PostPatch) error {
	if err := CheckID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return ErrNotFound
	}
	patch.Apply(p)
	return nil
}

func (m *memory) SetComments(ctx context.Context, id string, comments []string) error {
	if err := CheckID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return ErrNotFound
	}
	p.Comments = append([]string(nil), comments...)
	return nil
}

func (m *memory) DeletePost(ctx context.Context, id string) error {
	if err := CheckID(id); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return ErrNotFound
	}
	delete(m.posts, id)
	for i, pid := range m.postOrder {
		if pid == id {
			m.postOrder = append(m.postOrder[:i], m.postOrder[i+1:]...)
			break
		}
	}
	return nil
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.Posts = append([]string(nil), u.Posts...)
	return &c
}

func copyPost(p *model.Post) *model.Post {
	c := *p
	c.Comments = append([]string(nil), p.Comments...)
	return &c
}
