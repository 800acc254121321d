package authkit

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeNoSession       = "session_not_found"
	TextCodeSessionDecode   = "session_decode_failed"
	TextCodeRefreshFailed   = "session_refresh_failed"
	TextCodeUnauthenticated = "not_authenticated"
	TextCodeWeakSecret      = "weak_cookie_secret"
	TextCodeTokenExchange   = "token_exchange_failed"
	TextCodeProviderInit    = "provider_init_failed"
	TextCodeConnUnavailable = "connection_unavailable"
)

// ErrNoSession is the terminal "logged out" state: no cookie, an expired
// refresh chain, or an explicit sign-out. It is not an operational failure.
var ErrNoSession = errors.New("no active session", errors.CategoryAuth).
	WithTextCode(TextCodeNoSession).
	WithCode(errors.CodeUnauthorized)

// ErrSessionDecode is returned when a sealed cookie is malformed, truncated,
// or sealed with a different secret. Callers treat it exactly like
// ErrNoSession; the distinct value exists for logging.
var ErrSessionDecode = errors.New("unable to decode sealed session", errors.CategoryAuth).
	WithTextCode(TextCodeSessionDecode).
	WithCode(errors.CodeUnauthorized)

// ErrRefreshFailed is returned when the provider rejects a refresh-token
// exchange. The store downgrades it to a cleared cookie; callers observe a
// logged out state.
var ErrRefreshFailed = errors.New("session refresh failed", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshFailed).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthenticated is returned when a caller asks for an access token and
// no valid session exists. Never silently replaced by an empty token.
var ErrUnauthenticated = errors.New("not authenticated", errors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrWeakCookieSecret rejects secrets shorter than MinSecretLength at
// construction time.
var ErrWeakCookieSecret = errors.New("cookie secret must be at least 32 characters", errors.CategoryValidation).
	WithTextCode(TextCodeWeakSecret).
	WithCode(errors.CodeBadRequest)

// ErrTokenExchangeFailed is returned when an authorization-code exchange with
// the provider fails.
var ErrTokenExchangeFailed = errors.New("token exchange failed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExchange).
	WithCode(errors.CodeUnauthorized)

// ErrProviderInit is returned when the identity provider client cannot be
// constructed. Consumers must still resolve to a loaded, logged out state.
var ErrProviderInit = errors.New("identity provider failed to initialize", errors.CategoryInternal).
	WithTextCode(TextCodeProviderInit)

// ErrConnectionUnavailable is returned when the dependent realtime connection
// is missing. Logged, never fatal: the rest of the application proceeds.
var ErrConnectionUnavailable = errors.New("dependent connection unavailable", errors.CategoryOperation).
	WithTextCode(TextCodeConnUnavailable)

// IsNoSession reports whether err resolves to the logged out terminal state.
func IsNoSession(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrSessionDecode)
}
