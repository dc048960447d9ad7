// Package storage is the boundary between in-memory records and durable storage.
//
// THE ADAPTER PATTERN:
// The rest of the app thinks in snippets and profiles. Durable storage only
// knows keys and strings. Adapter sits in between:
//
//	SnippetRepository → Adapter.SaveSnippets → JSON → Backend.Set("snippets", ...)
//
// Backend is deliberately tiny (Get/Set/Close) so any key/value store can sit
// behind it. Two ship with the app:
//   - storage/sqlite: a single-file embedded database (the default)
//   - storage/redisstore: a Redis instance, for people who already run one
//
// FAILURE POLICY:
// Reads never fail. A missing key, a backend error, or a payload that is not
// valid JSON all produce the caller's default value. Unreadable payloads are
// logged as apperror.StorageCorrupt so the problem is visible in the logs,
// but the app keeps working with an empty collection.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/codevault/internal/apperror"
)

// Storage keys. They match the names the browser build used, so a dump of
// an old localStorage can be imported key for key.
const (
	KeySnippets       = "snippets"
	KeyProfile        = "profile"
	KeyLegacySnippets = "codeVaultSnippets"
)

// Backend is a durable string key/value store.
// Get returns ok=false (and no error) when the key has never been set.
type Backend interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Adapter translates snippets and the profile to and from a Backend.
type Adapter struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// NewAdapter wraps backend. The adapter does not own the backend; callers
// close it themselves.
func NewAdapter(backend Backend, logger *slog.Logger) *Adapter {
	return &Adapter{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

// Load decodes the JSON stored under key into a T.
// It returns def when the key is absent, empty, unreadable from the backend,
// or holds malformed JSON. It never returns an error.
//
// WHY A FUNCTION AND NOT A METHOD?
// Go methods cannot have their own type parameters, so generic helpers that
// hang off a struct are written as plain functions taking the struct.
func Load[T any](ctx context.Context, a *Adapter, key string, def T) T {
	raw, ok := a.read(ctx, key)
	if !ok {
		return def
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		corrupt := apperror.StorageCorrupt(key, err)
		a.logger.Warn("recovered from corrupt stored value",
			slog.String("key", key),
			slog.String("error", corrupt.Error()),
			slog.String("cause", err.Error()),
		)
		return def
	}
	return v
}

// Save encodes v as JSON and stores it under key.
func (a *Adapter) Save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: encoding %s: %w", key, err)
	}
	if err := a.backend.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("storage: saving %s: %w", key, err)
	}
	return nil
}

// MigrateLegacy copies the pre-rename snippet collection to the current key.
// It only acts when the current key is empty and the legacy key has data,
// so running it on every startup is harmless. The legacy key is left in place.
func (a *Adapter) MigrateLegacy(ctx context.Context) (bool, error) {
	if _, ok := a.read(ctx, KeySnippets); ok {
		return false, nil
	}
	legacy, ok := a.read(ctx, KeyLegacySnippets)
	if !ok {
		return false, nil
	}
	if err := a.backend.Set(ctx, KeySnippets, legacy); err != nil {
		return false, fmt.Errorf("storage: migrating %s to %s: %w", KeyLegacySnippets, KeySnippets, err)
	}
	a.logger.Info("migrated legacy snippet collection",
		slog.String("from", KeyLegacySnippets),
		slog.String("to", KeySnippets),
	)
	return true, nil
}

// read fetches a raw value. Backend errors are logged and treated as absence.
func (a *Adapter) read(ctx context.Context, key string) (string, bool) {
	raw, ok, err := a.backend.Get(ctx, key)
	if err != nil {
		a.logger.Warn("storage read failed, using default",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return "", false
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return "", false
	}
	return raw, true
}
