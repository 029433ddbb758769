// internal/store/store.go
//
// Persistence contract for the bloglist API.
// The HTTP layer only ever sees this interface; concrete clients live in
// this package (memory) and in the mongo and sqlite subpackages.
//
// Conventions shared by every implementation:
//   - ids are 24-char hex ObjectIDs; anything else yields ErrMalformedID.
//   - a well-formed id with no record yields ErrNotFound.
//   - the store does not maintain User.Posts on its own; callers use AddUserPost.

package store

import (
	"context"
	"errors"

	"github.com/robalobadob/bloglist/internal/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrMalformedID       = errors.New("malformatted id")
	ErrDuplicateUsername = errors.New("expected `username` to be unique")
)

// ValidationError reports a record that failed field validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Store is the full persistence surface used by the server.
type Store interface {
	UserStore
	PostStore

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the client. It is called once on shutdown.
	Close(ctx context.Context) error
}

// UserStore is the Identity Store.
type UserStore interface {
	// CreateUser assigns u.ID and persists u.
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (model.User, error)
	FindUserByUsername(ctx context.Context, username string) (model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	// AddUserPost appends postID to the user's owned-post list.
	AddUserPost(ctx context.Context, userID, postID string) error
}

// PostStore is the Post Store.
type PostStore interface {
	// CreatePost assigns p.ID and persists p.
	CreatePost(ctx context.Context, p *model.Post) error
	GetPost(ctx context.Context, id string) (model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	// UpdatePost merges patch into the post. Returns ErrNotFound when no
	// post has that id.
	UpdatePost(ctx context.Context, id string, patch model.PostPatch) error
	// SetComments replaces the post's comment sequence.
	SetComments(ctx context.Context, id string, comments []string) error
	DeletePost(ctx context.Context, id string) error
}

// CheckID returns ErrMalformedID unless id is a valid ObjectID.
func CheckID(id string) error {
	if !model.ValidID(id) {
		return ErrMalformedID
	}
	return nil
}
