package authkit

import (
	"context"
	"fmt"

	"github.com/goliatone/go-router"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// IdentityClient is the surface of the hosted identity provider SDK this
// package depends on. The provider owns the authorization-code and
// refresh-token exchanges; authkit never sees a password or MFA challenge.
type IdentityClient interface {
	// AuthorizationURL builds the provider hosted authorization URL.
	AuthorizationURL(opts AuthorizationURLOptions) (string, error)

	// AuthenticateWithCode exchanges an authorization code for tokens and the
	// user profile.
	AuthenticateWithCode(ctx context.Context, code string) (*Authentication, error)

	// AuthenticateWithRefreshToken exchanges a refresh token for a new token
	// pair.
	AuthenticateWithRefreshToken(ctx context.Context, refreshToken string) (*Authentication, error)
}

// AuthorizationURLOptions parameterize the provider hosted authorization URL.
type AuthorizationURLOptions struct {
	// ScreenHint selects the provider hosted screen (e.g. "sign-up").
	ScreenHint string

	// OrganizationID preselects an organization on the hosted page.
	OrganizationID string

	// LoginHint prefills the identifier field on the hosted page.
	LoginHint string

	// State is an opaque value round-tripped through the provider.
	State string
}

// Authentication is the provider response for code and refresh exchanges.
type Authentication struct {
	AccessToken  string
	RefreshToken string
	User         UserProfile
}

// SessionManager reads and writes the sealed session for a request.
type SessionManager interface {
	GetSession(c router.Context) (*SessionRecord, error)
	SetSession(c router.Context, record *SessionRecord) error
	ClearSession(c router.Context)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHKIT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHKIT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
