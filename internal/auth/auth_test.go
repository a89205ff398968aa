package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/api-service/internal/logging"
)

func TestTokens_IssueVerifyRoundTrip(t *testing.T) {
	tokens := NewTokens("test-secret", time.Hour)
	want := Identity{ID: 12, Email: "ana@hirely.test", Role: "employer"}

	tok, err := tokens.Issue(want)
	require.NoError(t, err)

	got, err := tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTokens_RejectsWrongSecret(t *testing.T) {
	tok, err := NewTokens("one", time.Hour).Issue(Identity{ID: 1})
	require.NoError(t, err)

	_, err = NewTokens("two", time.Hour).Verify(tok)
	assert.Error(t, err)
}

func TestTokens_RejectsExpired(t *testing.T) {
	tokens := NewTokens("s", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	tokens.now = func() time.Time { return issuedAt }
	tok, err := tokens.Issue(Identity{ID: 1})
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Verify(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokens_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{User: Identity{ID: 1}, RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokens("s", time.Hour).Verify(tok)
	assert.Error(t, err)
}

func TestTokens_RejectsMissingUserID(t *testing.T) {
	tok, err := NewTokens("s", time.Hour).Issue(Identity{Email: "x@y.z"})
	require.NoError(t, err)

	_, err = NewTokens("s", time.Hour).Verify(tok)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)

	ok, err := CheckPassword(hash, "hunter2")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "hunter3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMiddleware_Authenticate(t *testing.T) {
	tokens := NewTokens("s", time.Hour)
	m := NewMiddleware(tokens, logging.Discard())

	var seen Identity
	var seenOK bool
	h := m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, seenOK = FromContext(r.Context())
	}))

	tok, err := tokens.Issue(Identity{ID: 5, Email: "w@hirely.test", Role: "job_seeker"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, seenOK)
	assert.Equal(t, int64(5), seen.ID)

	req = httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, seenOK, "no token is anonymous")

	req = httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, seenOK, "invalid token is anonymous")
}

func TestRequire(t *testing.T) {
	called := false
	h := Require(func(w http.ResponseWriter, r *http.Request) { called = true })

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/api/jobs", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", nil)
	req = req.WithContext(WithIdentity(req.Context(), Identity{ID: 3}))
	rec = httptest.NewRecorder()
	h(rec, req)
	assert.True(t, called)
}
