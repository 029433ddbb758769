package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bloglist/internal/model"
	"github.com/robalobadob/bloglist/internal/store"
	"github.com/robalobadob/bloglist/internal/store/storetest"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "bloglist.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })
	return st
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

func TestReopenKeepsDataAndSkipsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bloglist.db")
	ctx := context.Background()

	st, err := Open(path)
	require.NoError(t, err)
	p := model.Post{Title: "persisted", URL: "u", Comments: []string{"c"}}
	require.NoError(t, st.CreatePost(ctx, &p))
	require.NoError(t, st.Close(ctx))

	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close(ctx)

	var applied int
	require.NoError(t, st.db.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&applied))
	assert.Equal(t, 1, applied)

	got, err := st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Title)
	assert.Equal(t, []string{"c"}, got.Comments)
}

func TestUsernameUniqueIgnoresCase(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.CreateUser(ctx, &model.User{Username: "Hellas", PasswordHash: "x"}))
	err := st.CreateUser(ctx, &model.User{Username: "hellas", PasswordHash: "y"})
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)
}
