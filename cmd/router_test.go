package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirely/api-service/internal/auth"
	"hirely/api-service/internal/httpx"
	"hirely/api-service/internal/logging"
)

// echoFeature exposes GET /api/whoami returning the caller id.
type echoFeature struct{}

func (echoFeature) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		httpx.OK(w, map[string]int64{"id": auth.CallerID(r.Context())})
	}).Methods(http.MethodGet)
}

func testRouter(t *testing.T, burst int) (http.Handler, *auth.Tokens) {
	t.Helper()
	tokens := auth.NewTokens("router-test", time.Hour)
	limiter := httpx.NewRateLimiter(1, burst, limiterKey)
	return newRouter(logging.Discard(), []string{"http://localhost:5173"}, tokens, limiter, echoFeature{}), tokens
}

func TestRouter_Health(t *testing.T) {
	h, _ := testRouter(t, 10)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, serviceName, body["service"])
	assert.NotEmpty(t, rec.Header().Get(httpx.RequestIDHeader))
}

func TestRouter_Metrics(t *testing.T) {
	h, _ := testRouter(t, 10)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_UnknownRoute(t *testing.T) {
	h, _ := testRouter(t, 10)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Can't find /api/nope on this server!")
}

func TestRouter_AuthenticatesFeatureRoutes(t *testing.T) {
	h, tokens := testRouter(t, 10)
	tok, err := tokens.Issue(auth.Identity{ID: 42})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42}`, rec.Body.String())
}

func TestRouter_CORSPreflight(t *testing.T) {
	h, _ := testRouter(t, 10)

	req := httptest.NewRequest(http.MethodOptions, "/api/whoami", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/whoami", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_RateLimitsPerCaller(t *testing.T) {
	h, tokens := testRouter(t, 2)
	get := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, get(""))
	assert.Equal(t, http.StatusOK, get(""))
	assert.Equal(t, http.StatusTooManyRequests, get(""))

	// A signed-in caller from the same address has their own bucket.
	tok, err := tokens.Issue(auth.Identity{ID: 7})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(tok))
}
