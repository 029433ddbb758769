// internal/httpserver/middleware.go
//
// Request middleware.
//   - tokenExtractor: copies a "Bearer <credential>" Authorization header into
//     the request context. Never rejects.
//   - userExtractor: verifies that credential and resolves it to a stored user.
//     Anonymous requests pass through; bad credentials get a 401.
//   - requestLogger / jsonContentType: ambient response plumbing.

package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/bloglist/internal/auth"
	"github.com/robalobadob/bloglist/internal/metrics"
	"github.com/robalobadob/bloglist/internal/store"
)

// bearerPrefix is matched case-sensitively.
const bearerPrefix = "Bearer "

// tokenExtractor attaches the bearer credential, if any, to the context.
func tokenExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a := r.Header.Get("Authorization"); strings.HasPrefix(a, bearerPrefix) {
			r = r.WithContext(auth.WithToken(r.Context(), strings.TrimPrefix(a, bearerPrefix)))
		}
		next.ServeHTTP(w, r)
	})
}

// userExtractor resolves the attached credential into a user.
func (s *Server) userExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := auth.TokenFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := s.codec.Verify(tok)
		if err != nil {
			metrics.TokenRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
			writeError(w, r, err)
			return
		}

		u, err := s.store.GetUser(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrMalformedID) {
				metrics.TokenRejectionsTotal.WithLabelValues("unknown_user").Inc()
				writeError(w, r, unauthorized("token invalid"))
				return
			}
			writeError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), u)))
	})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpired):
		return "expired"
	case errors.Is(err, auth.ErrMalformedCredential):
		return "malformed"
	default:
		return "signature"
	}
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs one line per request once the response is written.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := zerolog.InfoLevel
		if status >= http.StatusInternalServerError {
			level = zerolog.WarnLevel
		}
		log.WithLevel(level).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("reqId", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}
