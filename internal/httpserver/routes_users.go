// internal/httpserver/routes_users.go
//
// Account routes:
//   - POST /api/users → register {username, name, password}
//   - GET  /api/users → all users, owned posts expanded to summaries

package httpserver

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bloglist/internal/auth"
	"github.com/robalobadob/bloglist/internal/model"
	"github.com/robalobadob/bloglist/internal/store"
)

const minUsernameLength = 3

// mountUserRoutes registers /api/users.
func (s *Server) mountUserRoutes(r chi.Router) {
	r.Post("/api/users", handle(s.handleRegister))
	r.Get("/api/users", handle(s.handleListUsers))
}

type registerReq struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// userView is the public JSON shape of a user. Blogs holds either bare ids
// or expanded summaries depending on the route.
type userView struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	ID       string `json:"id"`
	Blogs    any    `json:"blogs"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) error {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest("malformatted json")
	}
	req.Username = auth.NormalizeUsername(req.Username)

	if utf8.RuneCountInString(req.Username) < minUsernameLength {
		return &store.ValidationError{Field: "username", Message: "username must be at least 3 characters long"}
	}
	if utf8.RuneCountInString(req.Password) < auth.MinPasswordLength {
		return &store.ValidationError{Field: "password", Message: "password must be at least 3 characters long"}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}
	u := model.User{Username: req.Username, Name: req.Name, PasswordHash: hash}
	if err := s.store.CreateUser(r.Context(), &u); err != nil {
		return err
	}
	log.Info().Str("user", u.ID).Str("username", u.Username).Msg("user registered")

	writeJSON(w, http.StatusCreated, userView{
		Username: u.Username,
		Name:     u.Name,
		ID:       u.ID,
		Blogs:    []string{},
	})
	return nil
}

// handleListUsers expands each user's post ids. Ids whose post is gone are
// skipped.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) error {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		return err
	}
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		return err
	}
	byID := make(map[string]model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	out := make([]userView, 0, len(users))
	for _, u := range users {
		blogs := make([]model.PostSummary, 0, len(u.Posts))
		for _, id := range u.Posts {
			if p, ok := byID[id]; ok {
				blogs = append(blogs, p.Summary())
			}
		}
		out = append(out, userView{Username: u.Username, Name: u.Name, ID: u.ID, Blogs: blogs})
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}
