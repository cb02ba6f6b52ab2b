// Package refresh loads users from the local cache, then from the directory
// service, and keeps the state container and cache in step.
package refresh

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/KaramelBytes/userdeck-cli/internal/directory"
	"github.com/KaramelBytes/userdeck-cli/internal/state"
	"github.com/KaramelBytes/userdeck-cli/internal/users"
)

// Source fetches users from the directory service.
type Source interface {
	FetchPages(ctx context.Context, opt directory.FetchOptions, pages, concurrency int) ([]users.User, error)
}

// Cache stores the merged user list between runs.
type Cache interface {
	Load(ctx context.Context) ([]users.User, error)
	Replace(ctx context.Context, list []users.User) error
}

// FetchError reports a failed refresh. The state keeps whatever it held
// before, and HasCached says whether that is non-empty.
type FetchError struct {
	Err       error
	HasCached bool
}

func (e *FetchError) Error() string {
	if e.HasCached {
		return fmt.Sprintf("failed to load users, using cached data: %v", e.Err)
	}
	return fmt.Sprintf("failed to load users, check your connection and try again: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Refresher wires a source and a cache to a state container.
type Refresher struct {
	Source      Source
	Cache       Cache
	State       *state.State
	Options     directory.FetchOptions
	Pages       int
	Concurrency int
	Logger      *logrus.Logger
}

func (r *Refresher) log() *logrus.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logrus.StandardLogger()
}

// LoadCached fills the state from the cache. Cache failures are logged and
// leave the state untouched.
func (r *Refresher) LoadCached(ctx context.Context) int {
	if r.Cache == nil {
		return 0
	}
	list, err := r.Cache.Load(ctx)
	if err != nil {
		r.log().WithError(err).Warn("error loading cached users")
		return 0
	}
	if len(list) > 0 {
		r.State.SetUsers(list)
	}
	r.log().WithField("users", len(list)).Debug("loaded cached users")
	return len(list)
}

// Refresh fetches fresh users, merges them into the current list by ID,
// writes the cache and updates the state. It returns the merged count.
func (r *Refresher) Refresh(ctx context.Context) (int, error) {
	current := r.State.Users()
	fresh, err := r.Source.FetchPages(ctx, r.Options, r.Pages, r.Concurrency)
	if err != nil {
		r.log().WithError(err).Error("error fetching users")
		return len(current), &FetchError{Err: err, HasCached: len(current) > 0}
	}
	merged := users.Merge(current, fresh)
	if r.Cache != nil {
		if err := r.Cache.Replace(ctx, merged); err != nil {
			return len(current), fmt.Errorf("write cache: %w", err)
		}
	}
	r.State.SetUsers(merged)
	r.log().WithFields(logrus.Fields{"fetched": len(fresh), "total": len(merged)}).Info("users refreshed")
	return len(merged), nil
}

// Import merges users obtained elsewhere (e.g. a CSV export) like a fetch.
func (r *Refresher) Import(ctx context.Context, list []users.User) (int, error) {
	merged := users.Merge(r.State.Users(), list)
	if r.Cache != nil {
		if err := r.Cache.Replace(ctx, merged); err != nil {
			return 0, fmt.Errorf("write cache: %w", err)
		}
	}
	r.State.SetUsers(merged)
	return len(merged), nil
}

// Initialize loads the cache and then refreshes from the source.
func (r *Refresher) Initialize(ctx context.Context) (int, error) {
	r.LoadCached(ctx)
	return r.Refresh(ctx)
}
