package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bloglist/internal/auth"
	"github.com/robalobadob/bloglist/internal/httpserver"
	"github.com/robalobadob/bloglist/internal/model"
	"github.com/robalobadob/bloglist/internal/store"
)

var testSecret = []byte("test-secret")

type env struct {
	t     *testing.T
	srv   *httpserver.Server
	store store.Store
	codec *auth.Codec
}

func newEnv(t *testing.T, opts ...httpserver.Option) *env {
	t.Helper()
	codec, err := auth.NewCodec(testSecret, time.Hour)
	require.NoError(t, err)
	st := store.NewMemoryStore()
	return &env{t: t, srv: httpserver.New(st, codec, opts...), store: st, codec: codec}
}

// do sends a request through the router. body is JSON-encoded unless it is
// already a string.
func (e *env) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(e.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

// addUser stores a user directly and returns it with a valid credential.
func (e *env) addUser(username, name, password string) (model.User, string) {
	e.t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(e.t, err)
	u := model.User{Username: username, Name: name, PasswordHash: hash}
	require.NoError(e.t, e.store.CreateUser(context.Background(), &u))
	tok, err := e.codec.Issue(auth.Claims{UserID: u.ID, Username: u.Username})
	require.NoError(e.t, err)
	return u, tok
}

// addPost stores a post owned by owner and links it, as the create route does.
func (e *env) addPost(owner model.User, title string) model.Post {
	e.t.Helper()
	p := model.Post{Title: title, Author: "Author", URL: "http://example.com/" + title, Likes: 1, UserID: owner.ID}
	ctx := context.Background()
	require.NoError(e.t, e.store.CreatePost(ctx, &p))
	require.NoError(e.t, e.store.AddUserPost(ctx, owner.ID, p.ID))
	return p
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errResp struct {
	Error string `json:"error"`
}

type postResp struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	URL      string          `json:"url"`
	Likes    int             `json:"likes"`
	Comments []string        `json:"comments"`
	User     json.RawMessage `json:"user"`
}

func (p postResp) owner(t *testing.T) model.UserSummary {
	t.Helper()
	var s model.UserSummary
	require.NoError(t, json.Unmarshal(p.User, &s))
	return s
}

var _ http.Handler = (*httpserver.Server)(nil)
