package client

import (
	"context"
	"time"

	"github.com/goliatone/go-authkit"
)

// DefaultRevalidateInterval is how often the session is re-fetched to catch
// server side changes (e.g. revocation) the client would not otherwise
// observe.
const DefaultRevalidateInterval = 5 * time.Minute

// Revalidator re-resolves the session on a fixed interval. When the session
// is gone the AuthState watchers fire, which drives a bound Bridge through
// its clearing path.
type Revalidator struct {
	state    *AuthState
	interval time.Duration
	logger   authkit.Logger
}

type RevalidatorOption func(*Revalidator)

// WithRevalidateInterval overrides the re-validation interval.
func WithRevalidateInterval(interval time.Duration) RevalidatorOption {
	return func(r *Revalidator) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

func WithRevalidatorLogger(logger authkit.Logger) RevalidatorOption {
	return func(r *Revalidator) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRevalidator(state *AuthState, opts ...RevalidatorOption) *Revalidator {
	r := &Revalidator{
		state:    state,
		interval: DefaultRevalidateInterval,
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

// Run blocks until ctx is cancelled. Cancel on page teardown so no orphaned
// tick touches torn-down state.
func (r *Revalidator) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("revalidator stopped")
			return
		case <-ticker.C:
			r.state.Refresh(ctx)
		}
	}
}
