package authkit

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Config holds the application level settings shared by the session store,
// the HTTP controller, and the identity provider client.
type Config struct {
	// ClientID identifies the application at the identity provider.
	ClientID string

	// RedirectURI is the callback endpoint registered with the provider.
	RedirectURI string

	// CookieSecret seals the session cookie. Minimum 32 characters.
	CookieSecret string

	// SuccessRedirect is where the callback and sign-out endpoints send the
	// browser. Defaults to "/".
	SuccessRedirect string

	// ErrorRedirect is where callback failures send the browser. Defaults to
	// "/?error=auth_failed".
	ErrorRedirect string
}

// Validate runs validation rules. Call it at startup: a weak cookie secret or
// missing client ID must fail fast, not at first sign-in.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(
			&c.ClientID,
			validation.Required,
		),
		validation.Field(
			&c.RedirectURI,
			validation.Required,
			is.URL,
		),
		validation.Field(
			&c.CookieSecret,
			validation.Required,
			validation.Length(MinSecretLength, 0),
		),
	)
}

func (c Config) withDefaults() Config {
	if c.SuccessRedirect == "" {
		c.SuccessRedirect = "/"
	}
	if c.ErrorRedirect == "" {
		c.ErrorRedirect = "/?error=auth_failed"
	}
	return c
}
