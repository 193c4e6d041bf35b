// Package auth verifies admin credentials for settlement operations. Every
// mutation in the workflow engine requires a valid Credential.
package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/novachain/admin-settlement/pkg/storage"
)

// Credential identifies an authenticated admin actor.
type Credential struct {
	Subject   string
	ExpiresAt time.Time
}

// Valid reports whether the credential exists and has not expired.
func (c *Credential) Valid(now time.Time) bool {
	if c == nil || c.Subject == "" {
		return false
	}
	return c.ExpiresAt.IsZero() || now.Before(c.ExpiresAt)
}

// Verifier checks a bearer token and resolves it to a Credential.
type Verifier interface {
	// Verify returns the credential for the token, or ErrUnauthorized.
	Verify(token string) (*Credential, error)
}

// StaticTokenVerifier accepts a single pre-shared admin token. Comparison is
// constant-time.
type StaticTokenVerifier struct {
	Token   string
	Subject string
}

// NewStaticTokenVerifier builds a verifier for a pre-shared token.
func NewStaticTokenVerifier(token, subject string) *StaticTokenVerifier {
	return &StaticTokenVerifier{Token: token, Subject: subject}
}

// Verify compares the presented token against the configured one.
func (v *StaticTokenVerifier) Verify(token string) (*Credential, error) {
	if v.Token == "" || token == "" {
		return nil, storage.ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(v.Token)) != 1 {
		return nil, storage.ErrUnauthorized
	}
	return &Credential{Subject: v.Subject}, nil
}

// TokenFromHeader extracts the bearer token from an Authorization header
// value. Returns "" when the header is absent or malformed.
func TokenFromHeader(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

type contextKey struct{}

// WithCredential attaches a credential to the context.
func WithCredential(ctx context.Context, cred *Credential) context.Context {
	return context.WithValue(ctx, contextKey{}, cred)
}

// CredentialFromContext retrieves the credential set by the auth middleware;
// nil when the request was never authenticated.
func CredentialFromContext(ctx context.Context) *Credential {
	cred, _ := ctx.Value(contextKey{}).(*Credential)
	return cred
}
