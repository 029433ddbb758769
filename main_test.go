package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bloglist/internal/auth"
	"github.com/robalobadob/bloglist/internal/config"
	"github.com/robalobadob/bloglist/internal/store"
)

func TestSeedDistributesPosts(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()

	users, posts, err := seed(ctx, st, seedOptions{Users: 2, Posts: 5, Password: "pw123"})
	require.NoError(t, err)
	assert.Equal(t, 2, users)
	assert.Equal(t, 5, posts)

	all, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Len(t, all[0].Posts, 3)
	assert.Len(t, all[1].Posts, 2)
	assert.True(t, auth.CheckPassword(all[0].PasswordHash, "pw123"))

	for _, u := range all {
		for _, id := range u.Posts {
			p, err := st.GetPost(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, u.ID, p.UserID)
		}
	}
}

func TestSeedIsRerunnable(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	opts := seedOptions{Users: 1, Posts: 1, Password: "pw123"}

	_, _, err := seed(ctx, st, opts)
	require.NoError(t, err)
	_, _, err = seed(ctx, st, opts)
	require.NoError(t, err)

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Len(t, users[0].Posts, 2)
}

func TestSeedLongPassword(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemoryStore()
	password := strings.Repeat("x", 100)

	_, _, err := seed(ctx, st, seedOptions{Users: 1, Posts: 0, Password: password})
	require.NoError(t, err)

	u, err := st.FindUserByUsername(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(u.PasswordHash, password))
}

func TestSeedRejectsBadOptions(t *testing.T) {
	st := store.NewMemoryStore()
	_, _, err := seed(context.Background(), st, seedOptions{Users: 0, Posts: 1, Password: "pw123"})
	assert.Error(t, err)
	_, _, err = seed(context.Background(), st, seedOptions{Users: 1, Posts: 1, Password: "x"})
	assert.Error(t, err)
}

func TestOpenStoreDrivers(t *testing.T) {
	ctx := context.Background()

	st, err := openStore(ctx, config.Config{StoreDriver: config.DriverMemory})
	require.NoError(t, err)
	assert.NoError(t, st.Ping(ctx))

	st, err = openStore(ctx, config.Config{StoreDriver: config.DriverSQLite, SQLitePath: t.TempDir() + "/seed.db"})
	require.NoError(t, err)
	assert.NoError(t, st.Ping(ctx))
	require.NoError(t, st.Close(ctx))

	_, err = openStore(ctx, config.Config{StoreDriver: "postgres"})
	assert.Error(t, err)
}

func TestNewLimiter(t *testing.T) {
	l, closeFn := newLimiter(config.Config{})
	assert.Nil(t, l)
	assert.NoError(t, closeFn())

	l, closeFn = newLimiter(config.Config{Login: config.LoginLimits{MaxAttempts: 3}})
	assert.NotNil(t, l)
	assert.NoError(t, closeFn())
}

func TestNewLimiterRedisClientClosed(t *testing.T) {
	mr := miniredis.RunT(t)
	l, closeFn := newLimiter(config.Config{
		RedisAddr: mr.Addr(),
		Login:     config.LoginLimits{MaxAttempts: 2, Window: time.Minute},
	})
	require.NotNil(t, l)

	ctx := context.Background()
	require.NoError(t, l.Fail(ctx, "root"))
	require.NoError(t, closeFn())
	assert.Error(t, l.Check(ctx, "root"))
}

func TestRunServeRefusesDefaultSecretInProduction(t *testing.T) {
	cfg := config.Config{Env: "production", Secret: config.DefaultSecret, StoreDriver: config.DriverMemory}
	err := runServe(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET")
}

func TestSetupLogging(t *testing.T) {
	require.NoError(t, setupLogging(config.LogConfig{Level: "debug", Format: "console"}))
	assert.Error(t, setupLogging(config.LogConfig{Level: "loud"}))
}
