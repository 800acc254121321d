package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// UserProfile is the identity extracted from the provider's response. It is
// an immutable value; everything outside display logic treats it as opaque.
type UserProfile struct {
	ID                string `json:"id"`
	Email             string `json:"email"`
	EmailVerified     bool   `json:"email_verified"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
	FirstName         string `json:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty"`
}

// SessionRecord is the server held session. Owned exclusively by the session
// store; replaced wholesale on refresh, never patched in place.
type SessionRecord struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserProfile `json:"user"`

	// ExpiresAt is the access token expiry in unix milliseconds, decoded from
	// the token's own exp claim. The provider is the source of truth for
	// token lifetime.
	ExpiresAt int64 `json:"expires_at"`
}

// Expired reports whether the access token has expired. Strict <= against
// now: a token valid for one more millisecond is used as is, never refreshed
// early.
func (r *SessionRecord) Expired(now time.Time) bool {
	return r.ExpiresAt <= now.UnixMilli()
}

// SessionPayload is the read-only projection served by the session endpoint
// and carried by hydration transfer. A nil User means logged out.
type SessionPayload struct {
	User        *UserProfile `json:"user"`
	AccessToken string       `json:"access_token,omitempty"`
}

// PayloadFromRecord projects a record for the session endpoint. A nil record
// yields the logged out payload, not a nil payload.
func PayloadFromRecord(record *SessionRecord) *SessionPayload {
	if record == nil {
		return &SessionPayload{}
	}
	u := record.User
	return &SessionPayload{
		User:        &u,
		AccessToken: record.AccessToken,
	}
}

// AccessTokenExpiry decodes the exp claim of a provider issued access token
// and returns it in unix milliseconds. The signature is not verified here;
// the token was just received from the provider over TLS and is validated by
// downstream services on use.
func AccessTokenExpiry(accessToken string) (int64, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return 0, errors.Wrap(err, errors.CategoryBadInput, "unable to parse access token")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0, errors.New("access token has no exp claim", errors.CategoryBadInput)
	}

	return exp.Time.UnixMilli(), nil
}
