package repository

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sakif/codevault/internal/model"
)

// ProfileStore holds the single profile record.
type ProfileStore struct {
	mu      sync.RWMutex
	profile model.Profile

	store  Store
	logger *slog.Logger
	events *notifier
}

func newProfileStore(store Store, logger *slog.Logger, events *notifier) *ProfileStore {
	return &ProfileStore{
		profile: model.DefaultProfile(),
		store:   store,
		logger:  logger,
		events:  events,
	}
}

func (p *ProfileStore) load(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profile = model.DefaultProfile().Merge(p.store.LoadProfile(ctx))
}

// Load returns the current profile.
func (p *ProfileStore) Load() model.Profile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.profile
}

// Update applies every non-empty field of patch, persists the merged record
// and returns it. Empty fields keep their current value, so the profile form
// can submit only what the user typed.
func (p *ProfileStore) Update(ctx context.Context, patch model.Profile) model.Profile {
	p.mu.Lock()
	p.profile = p.profile.Merge(patch)
	merged := p.profile
	if err := p.store.SaveProfile(ctx, merged); err != nil {
		p.logger.Warn("failed to persist profile", slog.String("error", err.Error()))
	}
	p.mu.Unlock()

	p.events.emit(Change{Kind: ProfileUpdated})
	return merged
}
