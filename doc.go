// Package authkit integrates hosted authentication (an external identity
// provider that issues short lived access tokens plus a refresh token) with
// applications that also talk to a realtime data backend.
//
// Session lifecycle:
//   - Sessions are persisted as a single authenticated-encrypted cookie. The
//     Sealer is the only component that sees the cookie plaintext; everything
//     else works with SessionRecord values scoped to one request.
//   - CookieStore reads the sealed cookie, refreshes the embedded tokens
//     through the IdentityClient when they expire, and clears the cookie when
//     a refresh is rejected. The cookie max age is independent from token
//     expiry: the cookie is a container, the record's ExpiresAt is the
//     authority.
//
// HTTP surface:
//   - AuthController registers the session, sign-in, sign-up, callback, and
//     sign-out routes on a go-router Router. Sign-in and sign-up redirect to
//     provider hosted pages; no credentials ever transit this package.
//
// Client runtime:
//   - The client subpackage holds the reactive projection of the session
//     (AuthState), the short-TTL token cache, the bridge that feeds access
//     tokens into a dependent realtime connection, and hydration transfer for
//     server rendered first paints.
package authkit
