package auth

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"hirely/api-service/internal/apperr"
	"hirely/api-service/internal/httpx"
)

// Middleware resolves bearer tokens into request identities.
type Middleware struct {
	tokens *Tokens
	log    logrus.FieldLogger
}

// NewMiddleware returns auth middleware backed by tokens.
func NewMiddleware(tokens *Tokens, log logrus.FieldLogger) *Middleware {
	return &Middleware{tokens: tokens, log: log}
}

// Authenticate attaches the caller's identity when a valid bearer token is
// present. Missing or invalid tokens leave the request anonymous.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := m.tokens.Verify(token)
		if err != nil {
			m.log.WithError(err).WithField("path", r.URL.Path).Debug("token verification failed")
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// Require wraps h so that anonymous callers get 401.
func Require(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			httpx.Error(w, r, apperr.Unauthenticated("Authentication required to access this resource."))
			return
		}
		h(w, r)
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
