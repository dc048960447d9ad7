package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/xid"

	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
)

// Validation limits.
const (
	MaxSnippetNameLength = 100
	MaxCodeLength        = 100000 // ~100KB of code
)

// SnippetRepository is the ordered, in-memory snippet collection.
//
// TWO WAYS TO ADDRESS A SNIPPET:
//   - by index: its current position. This is what the list view works with,
//     and it changes whenever a snippet before it is deleted.
//   - by ID: assigned once at creation, never reused. byID maps it to the
//     current index and is rebuilt after every structural change.
//
// All methods are safe for concurrent use. A mutation holds the write lock
// from validation through persistence, so two mutations never interleave.
type SnippetRepository struct {
	mu       sync.RWMutex
	snippets []model.Snippet
	byID     map[string]int

	store  Store
	logger *slog.Logger
	now    func() time.Time
	events *notifier
}

func newSnippetRepository(store Store, logger *slog.Logger, now func() time.Time, events *notifier) *SnippetRepository {
	return &SnippetRepository{
		byID:   make(map[string]int),
		store:  store,
		logger: logger,
		now:    now,
		events: events,
	}
}

func (r *SnippetRepository) load(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snippets = r.store.LoadSnippets(ctx)
	r.reindexLocked()
}

// Create validates the input and appends a new snippet stamped with the
// current time. It returns the new snippet paired with its index.
func (r *SnippetRepository) Create(ctx context.Context, in model.SnippetInput) (model.QueryResult, error) {
	v, err := validate(in)
	if err != nil {
		return model.QueryResult{}, err
	}

	language := v.language
	if language == "" {
		language = model.UnknownLanguage
	}

	r.mu.Lock()
	s := model.Snippet{
		ID:         xid.New().String(),
		Name:       v.name,
		Code:       v.code,
		Language:   language,
		Visibility: v.visibility,
		Created:    r.now(),
	}
	r.snippets = append(r.snippets, s)
	index := len(r.snippets) - 1
	r.byID[s.ID] = index
	r.persistLocked(ctx, "create")
	r.mu.Unlock()

	r.events.emit(Change{Kind: SnippetCreated, ID: s.ID, Index: index})
	return model.QueryResult{Index: index, Snippet: s}, nil
}

// Update overwrites the snippet at index and re-stamps Created with the
// current time. Language is only replaced when the input carries one.
func (r *SnippetRepository) Update(ctx context.Context, index int, in model.SnippetInput) (model.Snippet, error) {
	r.mu.Lock()
	s, err := r.updateLocked(ctx, index, in)
	r.mu.Unlock()
	if err != nil {
		return model.Snippet{}, err
	}

	r.events.emit(Change{Kind: SnippetUpdated, ID: s.ID, Index: index})
	return s, nil
}

// UpdateByID is Update addressed by identifier. It returns the snippet's
// current index alongside the updated record.
func (r *SnippetRepository) UpdateByID(ctx context.Context, id string, in model.SnippetInput) (model.QueryResult, error) {
	r.mu.Lock()
	index, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return model.QueryResult{}, apperror.NotFound("snippet", id)
	}
	s, err := r.updateLocked(ctx, index, in)
	r.mu.Unlock()
	if err != nil {
		return model.QueryResult{}, err
	}

	r.events.emit(Change{Kind: SnippetUpdated, ID: s.ID, Index: index})
	return model.QueryResult{Index: index, Snippet: s}, nil
}

func (r *SnippetRepository) updateLocked(ctx context.Context, index int, in model.SnippetInput) (model.Snippet, error) {
	if index < 0 || index >= len(r.snippets) {
		return model.Snippet{}, apperror.NotFound("snippet", strconv.Itoa(index))
	}
	v, err := validate(in)
	if err != nil {
		return model.Snippet{}, err
	}

	s := &r.snippets[index]
	s.Name = v.name
	s.Code = v.code
	s.Visibility = v.visibility
	if v.language != "" {
		s.Language = v.language
	}
	s.Created = r.now()

	r.persistLocked(ctx, "update")
	return *s, nil
}

// Delete removes the snippet at index. Every snippet after it moves down one
// position, so any index the caller cached is stale after this returns.
func (r *SnippetRepository) Delete(ctx context.Context, index int) (model.Snippet, error) {
	r.mu.Lock()
	s, err := r.deleteLocked(ctx, index)
	r.mu.Unlock()
	if err != nil {
		return model.Snippet{}, err
	}

	r.events.emit(Change{Kind: SnippetDeleted, ID: s.ID, Index: index})
	return s, nil
}

// DeleteByID is Delete addressed by identifier.
func (r *SnippetRepository) DeleteByID(ctx context.Context, id string) (model.QueryResult, error) {
	r.mu.Lock()
	index, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return model.QueryResult{}, apperror.NotFound("snippet", id)
	}
	s, err := r.deleteLocked(ctx, index)
	r.mu.Unlock()
	if err != nil {
		return model.QueryResult{}, err
	}

	r.events.emit(Change{Kind: SnippetDeleted, ID: s.ID, Index: index})
	return model.QueryResult{Index: index, Snippet: s}, nil
}

func (r *SnippetRepository) deleteLocked(ctx context.Context, index int) (model.Snippet, error) {
	if index < 0 || index >= len(r.snippets) {
		return model.Snippet{}, apperror.NotFound("snippet", strconv.Itoa(index))
	}

	removed := r.snippets[index]
	r.snippets = append(r.snippets[:index], r.snippets[index+1:]...)
	r.reindexLocked()

	r.persistLocked(ctx, "delete")
	return removed, nil
}

// Get returns the snippet currently at index.
func (r *SnippetRepository) Get(index int) (model.Snippet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if index < 0 || index >= len(r.snippets) {
		return model.Snippet{}, apperror.NotFound("snippet", strconv.Itoa(index))
	}
	return r.snippets[index], nil
}

// GetByID returns the snippet with the given identifier and its current index.
func (r *SnippetRepository) GetByID(id string) (model.QueryResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	index, ok := r.byID[id]
	if !ok {
		return model.QueryResult{}, apperror.NotFound("snippet", id)
	}
	return model.QueryResult{Index: index, Snippet: r.snippets[index]}, nil
}

// Len returns the number of snippets.
func (r *SnippetRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snippets)
}

// All returns a copy of the collection in order.
func (r *SnippetRepository) All() []model.Snippet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Snippet, len(r.snippets))
	copy(out, r.snippets)
	return out
}

// persistLocked writes the collection. A failed write is logged and
// otherwise ignored: the in-memory change stands.
func (r *SnippetRepository) persistLocked(ctx context.Context, op string) {
	if err := r.store.SaveSnippets(ctx, r.snippets); err != nil {
		r.logger.Warn("failed to persist snippets",
			slog.String("op", op),
			slog.Int("count", len(r.snippets)),
			slog.String("error", err.Error()),
		)
	}
}

func (r *SnippetRepository) reindexLocked() {
	clear(r.byID)
	for i, s := range r.snippets {
		r.byID[s.ID] = i
	}
}

type validated struct {
	name       string
	code       string
	language   string
	visibility model.Visibility
}

// validate trims and checks user input. Name and code must be non-blank.
func validate(in model.SnippetInput) (validated, error) {
	v := validated{
		name:     strings.TrimSpace(in.Name),
		code:     strings.TrimSpace(in.Code),
		language: strings.TrimSpace(in.Language),
	}

	if v.name == "" {
		return validated{}, apperror.ValidationFailed("name", "snippet name is required")
	}
	if utf8.RuneCountInString(v.name) > MaxSnippetNameLength {
		return validated{}, apperror.ValidationFailed("name",
			fmt.Sprintf("snippet name must be %d characters or less", MaxSnippetNameLength))
	}
	if v.code == "" {
		return validated{}, apperror.ValidationFailed("code", "snippet code is required")
	}
	if utf8.RuneCountInString(v.code) > MaxCodeLength {
		return validated{}, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}

	vis, ok := model.ParseVisibility(in.Visibility)
	if !ok {
		return validated{}, apperror.ValidationFailed("visibility",
			fmt.Sprintf("visibility must be %q or %q", model.Public, model.Private))
	}
	v.visibility = vis

	return v, nil
}
