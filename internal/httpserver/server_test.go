package httpserver_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bloglist/internal/auth"
	"github.com/robalobadob/bloglist/internal/httpserver"
	"github.com/robalobadob/bloglist/internal/store"
)

func TestUnknownEndpoint(t *testing.T) {
	e := newEnv(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/nothing"},
		{http.MethodPatch, "/api/blogs"},
		{http.MethodGet, "/"},
	} {
		rec := e.do(tc.method, tc.path, nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.Equal(t, "unknown endpoint", decode[errResp](t, rec).Error)
	}
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}

type downStore struct{ store.Store }

func (downStore) Ping(context.Context) error { return errors.New("no reachable servers") }

func TestHealthStoreDown(t *testing.T) {
	codec, err := auth.NewCodec(testSecret, time.Hour)
	require.NoError(t, err)
	e := &env{t: t, srv: httpserver.New(downStore{store.NewMemoryStore()}, codec), codec: codec}

	rec := e.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"ok":false}`, rec.Body.String())
}

func TestMetricsExposed(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodGet, "/api/blogs", nil, "")

	rec := e.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bloglist_http_requests_total")
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>blogs</h1>"), 0o644))
	e := newEnv(t, httpserver.WithStaticDir(dir))

	rec := e.do(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>blogs</h1>")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	rec = e.do(http.MethodGet, "/missing.js", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodGet, "/api/blogs", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	e := newEnv(t, httpserver.WithCORSOrigins([]string{"http://localhost:5173"}))
	req := httptest.NewRequest(http.MethodOptions, "/api/blogs", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
