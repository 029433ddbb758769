// internal/httpserver/routes_login.go
//
// POST /api/login → {token, username, name}
//
// Failed attempts are counted per lowercased username when a limiter is
// configured. A limiter backend outage lets the attempt through.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bloglist/internal/auth"
	"github.com/robalobadob/bloglist/internal/metrics"
	"github.com/robalobadob/bloglist/internal/model"
	"github.com/robalobadob/bloglist/internal/ratelimit"
	"github.com/robalobadob/bloglist/internal/store"
)

// mountLoginRoutes registers /api/login.
func (s *Server) mountLoginRoutes(r chi.Router) {
	r.Post("/api/login", handle(s.handleLogin))
}

// errUnknownUser keeps the failure response identical for unknown usernames
// and wrong passwords.
var errUnknownUser = errors.New("unknown user")

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) error {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest("malformatted json")
	}
	req.Username = auth.NormalizeUsername(req.Username)
	key := strings.ToLower(req.Username)

	if err := s.limit(r, key); err != nil {
		metrics.LoginsTotal.WithLabelValues("throttled").Inc()
		return err
	}

	u, err := s.authenticate(r, req)
	if err != nil {
		if !errors.Is(err, errUnknownUser) {
			return err
		}
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		s.recordFailure(r, key)
		return unauthorized("invalid username or password")
	}

	tok, err := s.codec.Issue(auth.Claims{UserID: u.ID, Username: u.Username})
	if err != nil {
		return err
	}
	s.resetFailures(r, key)
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	writeJSON(w, http.StatusOK, loginResp{Token: tok, Username: u.Username, Name: u.Name})
	return nil
}

// authenticate returns errUnknownUser for both an unknown username and a
// wrong password.
func (s *Server) authenticate(r *http.Request, req loginReq) (model.User, error) {
	u, err := s.store.FindUserByUsername(r.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		return model.User{}, errUnknownUser
	}
	if err != nil {
		return model.User{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return model.User{}, errUnknownUser
	}
	return u, nil
}

func (s *Server) limit(r *http.Request, key string) error {
	if s.limiter == nil {
		return nil
	}
	err := s.limiter.Check(r.Context(), key)
	if errors.Is(err, ratelimit.ErrRateLimited) {
		return err
	}
	if err != nil {
		log.Warn().Err(err).Msg("login limiter check failed, allowing attempt")
	}
	return nil
}

func (s *Server) recordFailure(r *http.Request, key string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Fail(r.Context(), key); err != nil {
		log.Warn().Err(err).Msg("login limiter fail")
	}
}

func (s *Server) resetFailures(r *http.Request, key string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(r.Context(), key); err != nil {
		log.Warn().Err(err).Msg("login limiter reset")
	}
}
