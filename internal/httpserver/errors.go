// internal/httpserver/errors.go
//
// Error mapping for route handlers.
// Handlers return an error instead of writing failure responses themselves;
// handle() turns that error into a status code and a JSON body:
//   - *apiError                    → its own status/body (handler-local decisions)
//   - store.ErrMalformedID         → 400 {"error":"malformatted id"}
//   - *store.ValidationError       → 400 {"error":<message>}
//   - store.ErrDuplicateUsername   → 400
//   - auth.ErrExpired              → 401 {"error":"token expired"}
//   - other auth errors            → 401 {"error":"token invalid"}
//   - ratelimit.ErrRateLimited     → 429
//   - anything else                → 500, logged

package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bloglist/internal/auth"
	"github.com/robalobadob/bloglist/internal/ratelimit"
	"github.com/robalobadob/bloglist/internal/store"
)

// handlerFunc is a route handler that reports failures by returning them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// apiError is a response decided by the handler itself.
type apiError struct {
	status int
	body   any
}

func (e *apiError) Error() string { return fmt.Sprintf("http %d: %v", e.status, e.body) }

func errorBody(msg string) map[string]string { return map[string]string{"error": msg} }

func badRequest(msg string) *apiError {
	return &apiError{status: http.StatusBadRequest, body: errorBody(msg)}
}

func unauthorized(msg string) *apiError {
	return &apiError{status: http.StatusUnauthorized, body: errorBody(msg)}
}

// handle adapts a handlerFunc to http.HandlerFunc.
func handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			writeError(w, r, err)
		}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classifyError(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("reqId", chimw.GetReqID(r.Context())).
			Msg("request failed")
	}
	writeJSON(w, status, body)
}

func classifyError(err error) (int, any) {
	var (
		ae *apiError
		ve *store.ValidationError
	)
	switch {
	case errors.As(err, &ae):
		return ae.status, ae.body
	case errors.Is(err, store.ErrMalformedID):
		return http.StatusBadRequest, errorBody("malformatted id")
	case errors.As(err, &ve):
		return http.StatusBadRequest, errorBody(ve.Message)
	case errors.Is(err, store.ErrDuplicateUsername):
		return http.StatusBadRequest, errorBody(store.ErrDuplicateUsername.Error())
	case errors.Is(err, auth.ErrExpired):
		return http.StatusUnauthorized, errorBody("token expired")
	case errors.Is(err, auth.ErrMalformedCredential), errors.Is(err, auth.ErrInvalidSignature):
		return http.StatusUnauthorized, errorBody("token invalid")
	case errors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests, errorBody("too many login attempts")
	default:
		return http.StatusInternalServerError, errorBody("internal server error")
	}
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
