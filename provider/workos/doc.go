// Package workos implements authkit.IdentityClient against the WorkOS User
// Management API. Sign-in happens on WorkOS hosted pages; this client only
// builds authorization URLs and performs the code and refresh-token
// exchanges.
package workos
