package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/bloglist/internal/model"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec([]byte("test-secret"), time.Hour)
	require.NoError(t, err)
	return c
}

func TestNewCodecValidation(t *testing.T) {
	_, err := NewCodec(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewCodec([]byte("s"), 0)
	assert.Error(t, err)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := newTestCodec(t)
	in := Claims{UserID: model.NewID(), Username: "mluukkai"}

	tok, err := c.Issue(in)
	require.NoError(t, err)

	out, err := c.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestVerifyRejectsForeignStrings(t *testing.T) {
	c := newTestCodec(t)
	for _, s := range []string{"", "garbage", "a.b.c", "Bearer xyz"} {
		_, err := c.Verify(s)
		assert.ErrorIs(t, err, ErrMalformedCredential, "input %q", s)
	}
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	other, err := NewCodec([]byte("another-secret"), time.Hour)
	require.NoError(t, err)
	tok, err := other.Issue(Claims{UserID: model.NewID(), Username: "x"})
	require.NoError(t, err)

	_, err = newTestCodec(t).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	c := newTestCodec(t)
	tok, err := c.Issue(Claims{UserID: model.NewID(), Username: "x"})
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": model.NewID(), "username": "root", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("nope"))
	require.NoError(t, err)
	mixed := strings.Split(forged, ".")[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	_, err = c.Verify(mixed)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id": model.NewID(), "username": "root", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestCodec(t).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyExpired(t *testing.T) {
	c := newTestCodec(t)
	c.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := c.Issue(Claims{UserID: model.NewID(), Username: "x"})
	require.NoError(t, err)

	c.now = time.Now
	_, err = c.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyRequiresExpiryAndID(t *testing.T) {
	secret := []byte("test-secret")
	c := newTestCodec(t)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": model.NewID(), "username": "x",
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = c.Verify(noExp)
	assert.ErrorIs(t, err, ErrMalformedCredential)

	noID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "x", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = c.Verify(noID)
	assert.ErrorIs(t, err, ErrMalformedCredential)
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("sekret")
	require.NoError(t, err)
	assert.True(t, CheckPassword(h, "sekret"))
	assert.False(t, CheckPassword(h, "wrong"))
	assert.Equal(t, "root", NormalizeUsername("  root "))
}

func TestPasswordHashingLongPassword(t *testing.T) {
	long := strings.Repeat("a", 80)
	h, err := HashPassword(long)
	require.NoError(t, err)
	assert.True(t, CheckPassword(h, long))
	assert.False(t, CheckPassword(h, strings.Repeat("b", 80)))
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	_, ok := TokenFromContext(ctx)
	assert.False(t, ok)
	_, ok = UserFromContext(ctx)
	assert.False(t, ok)

	ctx = WithToken(ctx, "abc")
	tok, ok := TokenFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	u := model.User{ID: model.NewID(), Username: "root"}
	got, ok := UserFromContext(WithUser(ctx, u))
	assert.True(t, ok)
	assert.Equal(t, u.ID, got.ID)
}
