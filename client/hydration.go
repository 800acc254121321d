package client

import (
	"encoding/base64"
	"encoding/json"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	"github.com/goliatone/go-authkit"
)

// Snapshot carries a server resolved session across the render boundary so
// the client skips its otherwise mandatory first session fetch.
type Snapshot struct {
	User        *authkit.UserProfile `json:"user"`
	AccessToken string               `json:"access_token,omitempty"`
}

// SnapshotForRequest resolves the session once and packages it for transfer.
// Always returns a snapshot; a logged out request yields one with a nil User.
func SnapshotForRequest(sessions authkit.SessionManager, request router.Context) *Snapshot {
	record, err := sessions.GetSession(request)
	if err != nil {
		return &Snapshot{}
	}

	payload := authkit.PayloadFromRecord(record)
	return &Snapshot{
		User:        payload.User,
		AccessToken: payload.AccessToken,
	}
}

// Encode serializes the snapshot for embedding in the rendered document.
func (s *Snapshot) Encode() (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to encode snapshot")
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// DecodeSnapshot parses an embedded snapshot. Malformed input yields an
// error; callers fall back to the explicit fetch path.
func DecodeSnapshot(encoded string) (*Snapshot, error) {
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "malformed snapshot")
	}

	snapshot := &Snapshot{}
	if err := json.Unmarshal(raw, snapshot); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "malformed snapshot")
	}

	return snapshot, nil
}

// Hydrate seeds the state and its token cache from a transferred snapshot.
// The cache TTL clock starts at consume time, not token issuance. Any
// in-flight resolution becomes stale and will be discarded.
func (a *AuthState) Hydrate(snapshot *Snapshot) {
	if snapshot == nil {
		return
	}

	a.mu.Lock()
	a.generation++
	generation := a.generation
	a.mu.Unlock()

	a.cache.Seed(snapshot.AccessToken)
	a.apply(generation, &authkit.SessionPayload{
		User:        snapshot.User,
		AccessToken: snapshot.AccessToken,
	})
}
