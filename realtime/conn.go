package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-authkit"
	"github.com/goliatone/go-authkit/client"
)

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHKIT "+format+"\n", args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHKIT "+format+"\n", args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHKIT "+format+"\n", args...)
}

// Conn is the client side handle to the data service. It implements the
// dependent connection contract the auth bridge drives: SetAuth installs a
// token fetcher, Conn validates the fetched token against the service, and
// the onChange callback reports the outcome.
type Conn struct {
	mu         sync.Mutex
	baseURL    string
	httpClient *http.Client
	logger     authkit.Logger
	fetch      client.TokenFetchFunc
	timeout    time.Duration
}

var _ client.Connection = (*Conn)(nil)

type ConnOption func(*Conn)

func WithConnHTTPClient(httpClient *http.Client) ConnOption {
	return func(c *Conn) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithConnLogger(logger authkit.Logger) ConnOption {
	return func(c *Conn) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConnTimeout bounds each validation and request round trip.
func WithConnTimeout(timeout time.Duration) ConnOption {
	return func(c *Conn) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func NewConn(baseURL string, opts ...ConnOption) *Conn {
	c := &Conn{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     defLogger{},
		timeout:    10 * time.Second,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// SetAuth installs the token fetcher and immediately exercises it: fetch,
// validate against the service, report. A fetcher that yields no token is
// how sign-out reaches the connection, so that path also goes through
// onChange rather than being skipped.
func (c *Conn) SetAuth(fetch client.TokenFetchFunc, onChange func(isAuthenticated bool)) {
	c.mu.Lock()
	c.fetch = fetch
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	token, err := fetch(ctx)
	if err != nil || token == "" {
		if err != nil {
			c.logger.Debug("token fetch failed", "error", err)
		}
		if onChange != nil {
			onChange(false)
		}
		return
	}

	ok := c.validate(ctx, token)
	if onChange != nil {
		onChange(ok)
	}
}

func (c *Conn) validate(ctx context.Context, token string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/validate", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("token validation request failed", "error", err)
		return false
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body)

	return res.StatusCode == http.StatusOK
}

// Do performs an authenticated request against the service, fetching a
// current token through the installed fetcher and decoding the JSON response
// into out when out is non-nil.
func (c *Conn) Do(ctx context.Context, method, path string, body io.Reader, out any) error {
	c.mu.Lock()
	fetch := c.fetch
	c.mu.Unlock()

	if fetch == nil {
		return authkit.ErrConnectionUnavailable
	}

	token, err := fetch(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryAuth, "failed to fetch access token").
			WithCode(errors.CodeUnauthorized)
	}
	if token == "" {
		return authkit.ErrUnauthenticated
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "request failed").
			WithMetadata(map[string]any{"path": path})
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to read response")
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return errors.New("service request rejected", errors.CategoryOperation).
			WithCode(res.StatusCode).
			WithMetadata(map[string]any{
				"path":   path,
				"status": res.StatusCode,
				"body":   string(raw),
			})
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to decode response")
	}

	return nil
}

// ListTasks returns the caller's tasks.
func (c *Conn) ListTasks(ctx context.Context) ([]*Task, error) {
	records := []*Task{}
	if err := c.Do(ctx, http.MethodGet, "/tasks", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateTask inserts a task owned by the caller.
func (c *Conn) CreateTask(ctx context.Context, text string) (*Task, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to encode task")
	}

	record := &Task{}
	if err := c.Do(ctx, http.MethodPost, "/tasks", strings.NewReader(string(payload)), record); err != nil {
		return nil, err
	}
	return record, nil
}

// ToggleTask flips a task's completion flag.
func (c *Conn) ToggleTask(ctx context.Context, id string) (*Task, error) {
	record := &Task{}
	if err := c.Do(ctx, http.MethodPost, "/tasks/"+id+"/toggle", nil, record); err != nil {
		return nil, err
	}
	return record, nil
}

// RemoveTask deletes a task.
func (c *Conn) RemoveTask(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, "/tasks/"+id, nil, nil)
}
