package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bloglist/internal/model"
	"github.com/robalobadob/bloglist/internal/store"
	"github.com/robalobadob/bloglist/internal/store/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return store.NewMemoryStore() })
}

func TestMemoryStoreDoesNotAliasComments(t *testing.T) {
	st := store.NewMemoryStore()
	ctx := context.Background()

	p := model.Post{Title: "t", URL: "u", Comments: []string{"a"}}
	require.NoError(t, st.CreatePost(ctx, &p))

	got, err := st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	got.Comments[0] = "mutated"

	again, err := st.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, again.Comments)
}
