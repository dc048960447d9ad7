// Package repository owns the in-memory snippet collection and profile record.
//
// SOURCE OF TRUTH:
// Both collections are loaded from storage once, at startup, and from then on
// the in-memory copy is authoritative. Every mutation follows the same steps:
//
//	validate → mutate in memory → write the whole collection through Store → notify listeners
//
// Validation runs before anything is touched, so a rejected call leaves both
// memory and storage exactly as they were.
//
// PULL, DON'T PUSH:
// Listeners are told THAT something changed (a Change), never handed a
// rendered view. Whoever draws the list calls Query and AggregateCounts again.
// This keeps the package free of any presentation concern.
package repository

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/codevault/internal/model"
)

// Store is what the repositories need from persistent storage.
// storage.Adapter is the production implementation; tests use an in-memory fake.
//
// Loads never fail: a missing or unreadable value comes back as the default
// (empty collection, default profile). Saves may fail; the repositories log
// the failure and keep the in-memory change.
type Store interface {
	MigrateLegacy(ctx context.Context) (bool, error)
	LoadSnippets(ctx context.Context) []model.Snippet
	SaveSnippets(ctx context.Context, snippets []model.Snippet) error
	LoadProfile(ctx context.Context) model.Profile
	SaveProfile(ctx context.Context, profile model.Profile) error
}

// ChangeKind names what a mutation did.
type ChangeKind string

const (
	SnippetCreated ChangeKind = "snippet.created"
	SnippetUpdated ChangeKind = "snippet.updated"
	SnippetDeleted ChangeKind = "snippet.deleted"
	ProfileUpdated ChangeKind = "profile.updated"
)

// Change describes one successful mutation.
// For SnippetDeleted, Index is the position the snippet held before removal;
// every index above it has shifted down by one.
type Change struct {
	Kind  ChangeKind
	ID    string
	Index int
}

// Listener is called after each successful mutation, outside any lock, so it
// may call back into the repository (typically Query) safely.
type Listener func(Change)

// notifier fans a Change out to every subscribed Listener.
type notifier struct {
	mu        sync.RWMutex
	listeners []Listener
}

func (n *notifier) subscribe(l Listener) {
	n.mu.Lock()
	n.listeners = append(n.listeners, l)
	n.mu.Unlock()
}

func (n *notifier) emit(c Change) {
	n.mu.RLock()
	listeners := append([]Listener(nil), n.listeners...)
	n.mu.RUnlock()
	for _, l := range listeners {
		l(c)
	}
}

// Context holds the two repositories built at startup.
//
// WHY AN EXPLICIT CONTEXT OBJECT?
// The collections are application state with a clear lifecycle: loaded once,
// mutated for the life of the process. Constructing them in one place and
// passing the Context around (instead of package-level variables) means a test
// can build a fresh, isolated vault in one line.
type Context struct {
	Snippets *SnippetRepository
	Profile  *ProfileStore

	events *notifier
}

// Option customises Open.
type Option func(*options)

type options struct {
	now       func() time.Time
	listeners []Listener
}

// WithClock replaces time.Now, for tests that need predictable timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithListener subscribes l before the repositories are returned.
func WithListener(l Listener) Option {
	return func(o *options) { o.listeners = append(o.listeners, l) }
}

// Open migrates legacy data, loads both collections and returns the Context.
// It cannot fail: storage problems degrade to empty/default collections and
// are logged by the store.
func Open(ctx context.Context, store Store, logger *slog.Logger, opts ...Option) *Context {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := store.MigrateLegacy(ctx); err != nil {
		logger.Warn("legacy snippet migration failed", slog.String("error", err.Error()))
	}

	events := &notifier{}
	for _, l := range o.listeners {
		events.subscribe(l)
	}

	snippets := newSnippetRepository(store, logger, o.now, events)
	snippets.load(ctx)

	profile := newProfileStore(store, logger, events)
	profile.load(ctx)

	logger.Info("vault loaded",
		slog.Int("snippets", snippets.Len()),
		slog.String("profile", profile.Load().Name),
	)

	return &Context{
		Snippets: snippets,
		Profile:  profile,
		events:   events,
	}
}

// Subscribe adds a listener for changes to either repository.
func (c *Context) Subscribe(l Listener) {
	c.events.subscribe(l)
}
