// internal/auth/context.go
//
// Request-scoped identity: the raw bearer credential attached by token
// extraction and the user it resolved to.

package auth

import (
	"context"

	"github.com/robalobadob/bloglist/internal/model"
)

type tokenContextKey struct{}
type userContextKey struct{}

// WithToken attaches the raw bearer credential to ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the credential attached by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	tok, _ := ctx.Value(tokenContextKey{}).(string)
	return tok, tok != ""
}

// WithUser attaches the resolved identity to ctx. The user is stored by
// value; handlers get their own copy.
func WithUser(ctx context.Context, u model.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext returns the identity attached by WithUser. The second
// result is false for anonymous requests.
func UserFromContext(ctx context.Context) (model.User, bool) {
	if ctx == nil {
		return model.User{}, false
	}
	u, ok := ctx.Value(userContextKey{}).(model.User)
	return u, ok
}
