package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-authkit"
)

// SessionResolver resolves the current session into its read-only projection.
// Implementations must treat every terminal "logged out" condition as a
// payload with a nil User, not as an error.
type SessionResolver interface {
	Resolve(ctx context.Context) (*authkit.SessionPayload, error)
}

// StoreResolver resolves synchronously against the session store for the
// request it was created for. There is no asynchronous gap: state built from
// it is already loaded when handed to the rendering layer.
type StoreResolver struct {
	sessions authkit.SessionManager
	request  router.Context
}

var _ SessionResolver = (*StoreResolver)(nil)

func NewStoreResolver(sessions authkit.SessionManager, request router.Context) *StoreResolver {
	return &StoreResolver{
		sessions: sessions,
		request:  request,
	}
}

// Resolve implements SessionResolver.
func (r *StoreResolver) Resolve(ctx context.Context) (*authkit.SessionPayload, error) {
	record, err := r.sessions.GetSession(r.request)
	if err != nil {
		if authkit.IsNoSession(err) || errors.Is(err, authkit.ErrRefreshFailed) {
			return authkit.PayloadFromRecord(nil), nil
		}
		return nil, err
	}
	return authkit.PayloadFromRecord(record), nil
}

// EndpointResolver fetches the session from the server's session endpoint.
// The endpoint applies refresh logic transparently, so a successful response
// is always current.
type EndpointResolver struct {
	baseURL     string
	sessionPath string
	httpClient  *http.Client
}

var _ SessionResolver = (*EndpointResolver)(nil)

type EndpointResolverOption func(*EndpointResolver)

// WithSessionPath overrides the session endpoint path.
func WithSessionPath(path string) EndpointResolverOption {
	return func(r *EndpointResolver) {
		if path != "" {
			r.sessionPath = path
		}
	}
}

// WithHTTPClient overrides the HTTP client. Supply one with a cookie jar when
// the process, unlike a browser, does not carry cookies by itself.
func WithHTTPClient(client *http.Client) EndpointResolverOption {
	return func(r *EndpointResolver) {
		if client != nil {
			r.httpClient = client
		}
	}
}

func NewEndpointResolver(baseURL string, opts ...EndpointResolverOption) *EndpointResolver {
	r := &EndpointResolver{
		baseURL:     baseURL,
		sessionPath: "/auth/session",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Resolve implements SessionResolver.
func (r *EndpointResolver) Resolve(ctx context.Context) (*authkit.SessionPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+r.sessionPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create session request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "session fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(
			fmt.Sprintf("session endpoint returned status %d", resp.StatusCode),
			errors.CategoryOperation,
		)
	}

	payload := &authkit.SessionPayload{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(payload); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to decode session payload")
	}

	return payload, nil
}
