package httpserver_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bloglist/internal/httpserver"
	"github.com/robalobadob/bloglist/internal/ratelimit"
)

type loginResp struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func TestLoginIssuesUsableToken(t *testing.T) {
	e := newEnv(t)
	u, _ := e.addUser("root", "Root User", "sekret")

	rec := e.do(http.MethodPost, "/api/login", map[string]any{"username": "root", "password": "sekret"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[loginResp](t, rec)
	assert.Equal(t, "root", got.Username)
	assert.Equal(t, "Root User", got.Name)

	claims, err := e.codec.Verify(got.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	rec = e.do(http.MethodPost, "/api/blogs", map[string]any{"title": "t", "url": "u"}, got.Token)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	e := newEnv(t)
	e.addUser("root", "Root", "sekret")

	for name, body := range map[string]map[string]any{
		"wrong password": {"username": "root", "password": "nope"},
		"unknown user":   {"username": "ghost", "password": "sekret"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := e.do(http.MethodPost, "/api/login", body, "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "invalid username or password", decode[errResp](t, rec).Error)
		})
	}
}

func TestLoginThrottling(t *testing.T) {
	e := newEnv(t, httpserver.WithLimiter(ratelimit.NewMemory(2, time.Minute)))
	e.addUser("root", "Root", "sekret")
	bad := map[string]any{"username": "root", "password": "nope"}
	good := map[string]any{"username": "root", "password": "sekret"}

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/api/login", bad, "").Code)
	}

	rec := e.do(http.MethodPost, "/api/login", good, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too many login attempts", decode[errResp](t, rec).Error)

	// the key is the lowercased username
	rec = e.do(http.MethodPost, "/api/login", map[string]any{"username": "ROOT", "password": "sekret"}, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLoginSuccessResetsFailures(t *testing.T) {
	e := newEnv(t, httpserver.WithLimiter(ratelimit.NewMemory(2, time.Minute)))
	e.addUser("root", "Root", "sekret")
	bad := map[string]any{"username": "root", "password": "nope"}
	good := map[string]any{"username": "root", "password": "sekret"}

	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/api/login", bad, "").Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/login", good, "").Code)
	assert.Equal(t, http.StatusUnauthorized, e.do(http.MethodPost, "/api/login", bad, "").Code)
	assert.Equal(t, http.StatusOK, e.do(http.MethodPost, "/api/login", good, "").Code)
}

type downLimiter struct{}

func (downLimiter) Check(context.Context, string) error { return errDown }
func (downLimiter) Fail(context.Context, string) error  { return errDown }
func (downLimiter) Reset(context.Context, string) error { return errDown }

var errDown = errors.Join(ratelimit.ErrBackendUnavailable, errors.New("connection refused"))

func TestLoginFailsOpenWhenLimiterDown(t *testing.T) {
	e := newEnv(t, httpserver.WithLimiter(downLimiter{}))
	e.addUser("root", "Root", "sekret")

	rec := e.do(http.MethodPost, "/api/login", map[string]any{"username": "root", "password": "sekret"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
