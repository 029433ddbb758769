// internal/httpserver/routes_blogs.go
//
// Blog routes, mounted under /api/blogs behind userExtractor:
//   - GET    /api/blogs               → all posts, owners expanded
//   - GET    /api/blogs/{id}          → one post, owner expanded (null if missing)
//   - POST   /api/blogs               → create (identity required)
//   - PUT    /api/blogs/{id}          → merge fields, no identity check
//   - DELETE /api/blogs/{id}          → delete (owner only)
//   - POST   /api/blogs/{id}/comments → append comment(s), no identity check
//
// Two long-standing API quirks are kept because clients rely on them:
// a non-owner delete answers 200 "invalid user" rather than 403, and a
// successful delete answers 201.

package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bloglist/internal/auth"
	"github.com/robalobadob/bloglist/internal/metrics"
	"github.com/robalobadob/bloglist/internal/model"
	"github.com/robalobadob/bloglist/internal/store"
)

// mountBlogRoutes registers /api/blogs/*.
func (s *Server) mountBlogRoutes(r chi.Router) {
	r.Route("/api/blogs", func(r chi.Router) {
		r.Use(s.userExtractor)
		r.Get("/", handle(s.handleListBlogs))
		r.Post("/", handle(s.handleCreateBlog))
		r.Get("/{id}", handle(s.handleGetBlog))
		r.Put("/{id}", handle(s.handleUpdateBlog))
		r.Delete("/{id}", handle(s.handleDeleteBlog))
		r.Post("/{id}/comments", handle(s.handleAddComment))
	})
}

// createBlogReq is the POST /api/blogs payload. Likes is a pointer so an
// absent value can default to 0.
type createBlogReq struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	URL    string `json:"url"`
	Likes  *int   `json:"likes"`
}

// commentReq is the POST /api/blogs/{id}/comments payload.
type commentReq struct {
	Comment commentValue `json:"comment"`
}

// commentValue accepts either a single string or an array of strings.
// null means no comment.
type commentValue []string

func (c *commentValue) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*c = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*c = commentValue{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*c = many
	return nil
}

func (s *Server) handleListBlogs(w http.ResponseWriter, r *http.Request) error {
	posts, err := s.store.ListPosts(r.Context())
	if err != nil {
		return err
	}
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		return err
	}
	byID := make(map[string]*model.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	out := make([]model.PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ViewWithOwner(byID[p.UserID]))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) handleGetBlog(w http.ResponseWriter, r *http.Request) error {
	p, err := s.store.GetPost(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusOK, nil)
		return nil
	}
	if err != nil {
		return err
	}
	owner, err := s.lookupOwner(r, p)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, p.ViewWithOwner(owner))
	return nil
}

// handleCreateBlog persists a post owned by the caller and links it into the
// caller's post list.
func (s *Server) handleCreateBlog(w http.ResponseWriter, r *http.Request) error {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		return unauthorized("token invalid")
	}

	var req createBlogReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest("Bad Request")
	}
	if req.Title == "" || req.URL == "" {
		return badRequest("Bad Request")
	}
	likes := 0
	if req.Likes != nil {
		likes = *req.Likes
	}

	p := model.Post{
		Title:  req.Title,
		Author: req.Author,
		URL:    req.URL,
		Likes:  likes,
		UserID: me.ID,
	}
	if err := s.store.CreatePost(r.Context(), &p); err != nil {
		return err
	}
	if err := s.store.AddUserPost(r.Context(), me.ID, p.ID); err != nil {
		return err
	}
	metrics.PostsCreatedTotal.Inc()
	log.Info().Str("post", p.ID).Str("user", me.ID).Msg("post created")

	writeJSON(w, http.StatusCreated, p.ViewWithOwner(&me))
	return nil
}

// handleUpdateBlog merges the payload into the post. There is no ownership
// check here; any caller may update any post.
func (s *Server) handleUpdateBlog(w http.ResponseWriter, r *http.Request) error {
	var patch model.PostPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		return badRequest("malformatted json")
	}
	err := s.store.UpdatePost(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	w.WriteHeader(http.StatusOK)
	return nil
}

func (s *Server) handleDeleteBlog(w http.ResponseWriter, r *http.Request) error {
	me, ok := auth.UserFromContext(r.Context())
	if !ok {
		return unauthorized("token invalid")
	}

	p, err := s.store.GetPost(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusBadRequest, "invalid ID")
		return nil
	}
	if err != nil {
		return err
	}

	if p.UserID != me.ID {
		writeJSON(w, http.StatusOK, "invalid user")
		return nil
	}

	if err := s.store.DeletePost(r.Context(), p.ID); err != nil {
		return err
	}
	metrics.PostsDeletedTotal.Inc()
	log.Info().Str("post", p.ID).Str("user", me.ID).Msg("post deleted")

	writeJSON(w, http.StatusCreated, p.View())
	return nil
}

// handleAddComment sets the comments to the submitted value when the post has
// none yet, and appends otherwise. Every failure is reported as a 500.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) error {
	fail := func(err error) error {
		log.Warn().Err(err).Str("post", chi.URLParam(r, "id")).Msg("add comment")
		return &apiError{
			status: http.StatusInternalServerError,
			body:   errorBody("Failed to update blog comments"),
		}
	}

	var req commentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fail(err)
	}
	p, err := s.store.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return fail(err)
	}

	if len(p.Comments) == 0 {
		p.Comments = []string(req.Comment)
	} else {
		p.Comments = append(p.Comments, req.Comment...)
	}
	if err := s.store.SetComments(r.Context(), p.ID, p.Comments); err != nil {
		return fail(err)
	}

	writeJSON(w, http.StatusOK, p.View())
	return nil
}

// lookupOwner loads the owner of p. A missing owner yields nil, not an error.
func (s *Server) lookupOwner(r *http.Request, p model.Post) (*model.User, error) {
	if p.UserID == "" {
		return nil, nil
	}
	u, err := s.store.GetUser(r.Context(), p.UserID)
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrMalformedID) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
