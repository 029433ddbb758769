// internal/auth/token.go
//
// Token codec: signs and verifies the bearer credentials handed out at login.
// Credentials are HS256 JWTs carrying {id, username, iat, exp}. Verification
// is stateless; nothing is looked up server-side.

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformedCredential = errors.New("malformed credential")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrExpired             = errors.New("credential expired")
)

// Claims is the identity a credential asserts.
type Claims struct {
	UserID   string
	Username string
}

type tokenClaims struct {
	Username string `json:"username"`
	ID       string `json:"id"`
	jwt.RegisteredClaims
}

// Codec issues and verifies credentials with one shared secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec returns a Codec signing with secret; credentials expire after ttl.
func NewCodec(secret []byte, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &Codec{secret: secret, ttl: ttl, now: time.Now}, nil
}

// TTL reports how long issued credentials stay valid.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue signs a credential for the given identity.
func (c *Codec) Issue(claims Claims) (string, error) {
	now := c.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		Username: claims.Username,
		ID:       claims.UserID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})
	return t.SignedString(c.secret)
}

// Verify checks signature and expiry and returns the embedded identity.
// The error is always one of ErrMalformedCredential, ErrInvalidSignature or
// ErrExpired.
func (c *Codec) Verify(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	var tc tokenClaims
	t, err := parser.ParseWithClaims(token, &tc, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return Claims{}, classify(err)
	}
	if !t.Valid {
		return Claims{}, ErrInvalidSignature
	}
	if tc.ID == "" {
		return Claims{}, ErrMalformedCredential
	}
	return Claims{UserID: tc.ID, Username: tc.Username}, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedCredential
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrMalformedCredential
	default:
		// signature mismatch, wrong algorithm, unverifiable
		return ErrInvalidSignature
	}
}
