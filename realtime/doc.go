// Package realtime is the data service side of the system and the client
// connection that talks to it.
//
// The service accepts only provider issued access tokens, validated per
// request against the provider's JWK Set. It never sees the session cookie;
// the access token is its whole authentication world. Conn is the dependent
// connection handle the client package bridges tokens into.
package realtime
