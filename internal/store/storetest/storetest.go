// Package storetest is a conformance suite run against every store.Store
// implementation.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bloglist/internal/model"
	"github.com/robalobadob/bloglist/internal/store"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) store.Store

// Run executes the suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("UserLifecycle", func(t *testing.T) { testUserLifecycle(t, newStore(t)) })
	t.Run("DuplicateUsername", func(t *testing.T) { testDuplicateUsername(t, newStore(t)) })
	t.Run("PostLifecycle", func(t *testing.T) { testPostLifecycle(t, newStore(t)) })
	t.Run("UpdatePost", func(t *testing.T) { testUpdatePost(t, newStore(t)) })
	t.Run("MalformedIDs", func(t *testing.T) { testMalformedIDs(t, newStore(t)) })
	t.Run("ListOrder", func(t *testing.T) { testListOrder(t, newStore(t)) })
}

func testUserLifecycle(t *testing.T, st store.Store) {
	ctx := context.Background()
	u := model.User{Username: "mluukkai", Name: "Matti Luukkainen", PasswordHash: "hash"}
	require.NoError(t, st.CreateUser(ctx, &u))
	require.True(t, model.ValidID(u.ID))

	got, err := st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "mluukkai", got.Username)
	assert.Equal(t, "Matti Luukkainen", got.Name)
	assert.Equal(t, "hash", got.PasswordHash)
	assert.Empty(t, got.Posts)

	byName, err := st.FindUserByUsername(ctx, "mluukkai")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	p1, p2 := model.NewID(), model.NewID()
	require.NoError(t, st.AddUserPost(ctx, u.ID, p1))
	require.NoError(t, st.AddUserPost(ctx, u.ID, p2))
	got, err = st.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p1, p2}, got.Posts)

	_, err = st.GetUser(ctx, model.NewID())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.FindUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.AddUserPost(ctx, model.NewID(), p1), store.ErrNotFound)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func testDuplicateUsername(t *testing.T, st store.Store) {
	ctx := context.Background()
	require.NoError(t, st.CreateUser(ctx, &model.User{Username: "root", PasswordHash: "x"}))
	err := st.CreateUser(ctx, &model.User{Username: "root", PasswordHash: "y"})
	assert.ErrorIs(t, err, store.ErrDuplicateUsername)
}

func testPostLifecycle(t *testing.T, st store.Store) {
	ctx := context.Background()
	owner := model.User{Username: "owner", PasswordHash: "x"}
	require.NoError(t, st.CreateUser(ctx, &owner))

	p := model.Post{Title: "React patterns", Author: "Michael Chan", URL: "https://reactpatterns.com/", Likes: 7, UserID: owner.ID}
	require.NoError(t, st.CreatePost(ctx, &p))
	require.True(t, model.ValidID(p.ID))

	got, err := st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, p.Author, got.Author)
	assert.Equal(t, p.URL, got.URL)
	assert.Equal(t, 7, got.Likes)
	assert.Equal(t, owner.ID, got.UserID)
	assert.Empty(t, got.Comments)

	require.NoError(t, st.SetComments(ctx, p.ID, []string{"first", "second"}))
	got, err = st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, got.Comments)

	require.NoError(t, st.DeletePost(ctx, p.ID))
	_, err = st.GetPost(ctx, p.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, st.DeletePost(ctx, p.ID), store.ErrNotFound)
	assert.ErrorIs(t, st.SetComments(ctx, p.ID, []string{"x"}), store.ErrNotFound)

	posts, err := st.ListPosts(ctx)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func testUpdatePost(t *testing.T, st store.Store) {
	ctx := context.Background()
	p := model.Post{Title: "The Lord of the Fungus", Author: "Johnny B Goode", URL: "u"}
	require.NoError(t, st.CreatePost(ctx, &p))

	title, author := "The Lord of the Chungus", "JJ Thompson"
	require.NoError(t, st.UpdatePost(ctx, p.ID, model.PostPatch{Title: &title, Author: &author}))

	got, err := st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, author, got.Author)
	assert.Equal(t, "u", got.URL)

	assert.ErrorIs(t, st.UpdatePost(ctx, model.NewID(), model.PostPatch{Title: &title}), store.ErrNotFound)
}

func testMalformedIDs(t *testing.T, st store.Store) {
	ctx := context.Background()
	_, err := st.GetUser(ctx, "123")
	assert.ErrorIs(t, err, store.ErrMalformedID)
	_, err = st.GetPost(ctx, "123")
	assert.ErrorIs(t, err, store.ErrMalformedID)
	assert.ErrorIs(t, st.DeletePost(ctx, "123"), store.ErrMalformedID)
	assert.ErrorIs(t, st.UpdatePost(ctx, "123", model.PostPatch{}), store.ErrMalformedID)
	assert.ErrorIs(t, st.SetComments(ctx, "123", nil), store.ErrMalformedID)
}

func testListOrder(t *testing.T, st store.Store) {
	ctx := context.Background()
	titles := []string{"a", "b", "c", "d"}
	for _, title := range titles {
		require.NoError(t, st.CreatePost(ctx, &model.Post{Title: title, URL: "u"}))
	}
	posts, err := st.ListPosts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, len(titles))
	for i, p := range posts {
		assert.Equal(t, titles[i], p.Title)
		assert.True(t, model.ValidID(p.ID))
	}
}
