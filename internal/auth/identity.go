// Package auth is the credential service: it hashes passwords, issues and
// verifies bearer tokens, and resolves the caller's Identity for each request.
package auth

import "context"

// Identity is the caller resolved from a bearer token.
type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller's identity. ok is false for anonymous callers.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || id.ID == 0 {
		return Identity{}, false
	}
	return id, true
}

// CallerID returns the caller's user id, or 0 when anonymous.
func CallerID(ctx context.Context) int64 {
	id, _ := FromContext(ctx)
	return id.ID
}
