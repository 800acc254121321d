// Package client is the application side runtime of go-authkit: a reactive
// projection of the server held session plus the plumbing that feeds access
// tokens into a dependent realtime connection.
//
// The pieces compose in dependency order:
//   - SessionResolver resolves {user, access_token}, either directly against
//     the session store (server rendered requests) or through the session
//     endpoint (browser style clients).
//   - AuthState is the canonical in-memory view of {IsLoading, User} and owns
//     a TokenCache memoizing the last fetched access token.
//   - Bridge wires the cache's fetcher into a Connection's SetAuth contract
//     and mirrors the connection's authentication callback.
//   - Snapshot carries a server resolved session across the render boundary
//     so a hydrated client skips its first session fetch entirely.
//   - Revalidator re-resolves the session on a fixed interval to observe
//     server side revocation.
package client
