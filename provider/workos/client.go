package workos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-authkit"
)

const (
	defaultBaseURL  = "https://api.workos.com"
	defaultProvider = "authkit"

	authorizePath    = "/user_management/authorize"
	authenticatePath = "/user_management/authenticate"
)

// Config holds WorkOS client configuration.
type Config struct {
	// APIKey is the server side WorkOS secret key.
	APIKey string

	// ClientID identifies the application.
	ClientID string

	// RedirectURI is the registered callback endpoint.
	RedirectURI string

	// Provider is the connection selector for the hosted page
	// (default: "authkit").
	Provider string

	// BaseURL overrides the API host, mainly for tests.
	BaseURL string

	HTTPClient *http.Client
}

// Validate will run validation rules
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(
			&c.APIKey,
			validation.Required,
		),
		validation.Field(
			&c.ClientID,
			validation.Required,
		),
		validation.Field(
			&c.RedirectURI,
			validation.Required,
			is.URL,
		),
	)
}

// Client talks to the WorkOS User Management API.
type Client struct {
	config     Config
	httpClient *http.Client
}

var _ authkit.IdentityClient = (*Client)(nil)

// New creates a WorkOS client. Configuration problems surface here, at
// startup, as ErrProviderInit; consumers can still boot into a logged out
// state.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "invalid workos configuration").
			WithTextCode(authkit.TextCodeProviderInit)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		config:     cfg,
		httpClient: client,
	}, nil
}

// AuthorizationURL implements authkit.IdentityClient.
func (c *Client) AuthorizationURL(opts authkit.AuthorizationURLOptions) (string, error) {
	params := url.Values{
		"client_id":     {c.config.ClientID},
		"redirect_uri":  {c.config.RedirectURI},
		"response_type": {"code"},
		"provider":      {c.config.Provider},
	}

	if opts.ScreenHint != "" {
		params.Set("screen_hint", opts.ScreenHint)
	}
	if opts.OrganizationID != "" {
		params.Set("organization_id", opts.OrganizationID)
	}
	if opts.LoginHint != "" {
		params.Set("login_hint", opts.LoginHint)
	}
	if opts.State != "" {
		params.Set("state", opts.State)
	}

	return c.config.BaseURL + authorizePath + "?" + params.Encode(), nil
}

// AuthenticateWithCode implements authkit.IdentityClient.
func (c *Client) AuthenticateWithCode(ctx context.Context, code string) (*authkit.Authentication, error) {
	return c.authenticate(ctx, map[string]string{
		"grant_type": "authorization_code",
		"code":       code,
	})
}

// AuthenticateWithRefreshToken implements authkit.IdentityClient.
func (c *Client) AuthenticateWithRefreshToken(ctx context.Context, refreshToken string) (*authkit.Authentication, error) {
	return c.authenticate(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	})
}

type authenticateResponse struct {
	User         *userPayload `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (c *Client) authenticate(ctx context.Context, grant map[string]string) (*authkit.Authentication, error) {
	body := map[string]string{
		"client_id":     c.config.ClientID,
		"client_secret": c.config.APIKey,
	}
	for k, v := range grant {
		body[k] = v
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to marshal authenticate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+authenticatePath, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create authenticate request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "authenticate request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read authenticate response")
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := errorResponse{}
		_ = json.Unmarshal(raw, &apiErr)
		msg := apiErr.ErrorDescription
		if msg == "" {
			msg = fmt.Sprintf("authenticate returned status %d", resp.StatusCode)
		}
		return nil, errors.New(msg, errors.CategoryAuth).
			WithTextCode(authkit.TextCodeTokenExchange).
			WithCode(errors.CodeUnauthorized).
			WithMetadata(map[string]any{
				"status":     resp.StatusCode,
				"error_code": apiErr.Error,
			})
	}

	decoded := authenticateResponse{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to decode authenticate response")
	}

	if decoded.AccessToken == "" {
		return nil, errors.New("authenticate response has no access token", errors.CategoryOperation)
	}

	auth := &authkit.Authentication{
		AccessToken:  decoded.AccessToken,
		RefreshToken: decoded.RefreshToken,
	}

	if decoded.User != nil {
		auth.User = decoded.User.toProfile()
	}

	return auth, nil
}
