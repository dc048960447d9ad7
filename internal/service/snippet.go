// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → resolves references, enforces rules, logs events
//	Repository (State layer) → owns the collections and keeps storage in sync
//
// The repository already validates and persists. What lives here is
// everything a caller needs on top of that: turning a reference string from a
// URL into a snippet, the editor's quick-save naming rule, building download
// names and share links, and logging business events.
//
// DEPENDENCY INJECTION:
// SnippetService takes a SnippetRepository (interface), not the concrete
// *repository.SnippetRepository. Tests could pass any implementation; main.go
// passes the real one.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/format"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

// SharedCodeName titles code opened from a code-carrying share link.
const SharedCodeName = "Shared code"

// SnippetRepository is the subset of *repository.SnippetRepository the
// service uses.
type SnippetRepository interface {
	Create(ctx context.Context, in model.SnippetInput) (model.QueryResult, error)
	UpdateByID(ctx context.Context, id string, in model.SnippetInput) (model.QueryResult, error)
	DeleteByID(ctx context.Context, id string) (model.QueryResult, error)
	Get(index int) (model.Snippet, error)
	GetByID(id string) (model.QueryResult, error)
	Query(search string, filter model.VisibilityFilter) []model.QueryResult
	AggregateCounts() model.Counts
	Len() int
}

var _ SnippetRepository = (*repository.SnippetRepository)(nil)

// ListResult is one rendering of the snippet list: the filtered rows plus
// the counters for the whole collection.
type ListResult struct {
	Snippets []model.QueryResult `json:"snippets"`
	Counts   model.Counts        `json:"counts"`
}

// Download is a snippet packaged as a file.
type Download struct {
	FileName string
	Body     string
}

// SnippetService handles business logic for code snippets.
type SnippetService struct {
	repo         SnippetRepository
	shareBaseURL string
	logger       *slog.Logger
}

// NewSnippetService creates a new SnippetService. shareBaseURL is the public
// address share links are built on, e.g. "http://localhost:8080".
func NewSnippetService(repo SnippetRepository, shareBaseURL string, logger *slog.Logger) *SnippetService {
	return &SnippetService{
		repo:         repo,
		shareBaseURL: shareBaseURL,
		logger:       logger,
	}
}

// Resolve turns a reference into a snippet and its current index.
//
// TWO KINDS OF REFERENCE:
// New links carry the snippet's ID, which never changes. Links handed out by
// the browser build carried a position ("?snippet=3") instead. So:
//
//  1. if ref is a known ID, that wins
//  2. otherwise, if ref is a non-negative decimal, it is a position
//  3. otherwise the snippet does not exist
//
// A positional reference points at whatever is at that position NOW, which
// may not be what the link's author saw. That is the price of old links.
func (s *SnippetService) Resolve(ref string) (model.QueryResult, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.QueryResult{}, apperror.ValidationFailed("ref", "snippet reference is required")
	}

	res, err := s.repo.GetByID(ref)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return model.QueryResult{}, err
	}

	index, convErr := strconv.Atoi(ref)
	if convErr != nil || index < 0 || strings.HasPrefix(ref, "+") {
		return model.QueryResult{}, apperror.NotFound("snippet", ref)
	}
	snippet, err := s.repo.Get(index)
	if err != nil {
		return model.QueryResult{}, err
	}
	return model.QueryResult{Index: index, Snippet: snippet}, nil
}

// Create saves a new snippet.
func (s *SnippetService) Create(ctx context.Context, in model.SnippetInput) (model.QueryResult, error) {
	res, err := s.repo.Create(ctx, in)
	if err != nil {
		return model.QueryResult{}, err
	}

	s.logger.Info("snippet created",
		slog.String("id", res.Snippet.ID),
		slog.String("name", res.Snippet.Name),
		slog.String("visibility", string(res.Snippet.Visibility)),
	)
	return res, nil
}

// QuickSave stores the editor's current buffer as a Public snippet named
// after its position: the third snippet saved in python becomes
// "Snippet #3 (python)".
func (s *SnippetService) QuickSave(ctx context.Context, code, language string) (model.QueryResult, error) {
	if strings.TrimSpace(code) == "" {
		return model.QueryResult{}, apperror.ValidationFailed("code", "write some code before saving")
	}

	language = strings.TrimSpace(language)
	label := language
	if label == "" {
		label = model.UnknownLanguage
	}

	return s.Create(ctx, model.SnippetInput{
		Name:       format.QuickSaveName(s.repo.Len()+1, label),
		Code:       code,
		Language:   language,
		Visibility: string(model.Public),
	})
}

// Get returns the snippet ref points to.
func (s *SnippetService) Get(ref string) (model.QueryResult, error) {
	return s.Resolve(ref)
}

// Update replaces the snippet ref points to.
//
// The reference is resolved to an ID first and the write goes through
// UpdateByID, so a delete landing between the two steps produces Conflict
// instead of editing the neighbour that slid into the old position.
func (s *SnippetService) Update(ctx context.Context, ref string, in model.SnippetInput) (model.QueryResult, error) {
	target, err := s.Resolve(ref)
	if err != nil {
		return model.QueryResult{}, err
	}

	res, err := s.repo.UpdateByID(ctx, target.Snippet.ID, in)
	if err != nil {
		return model.QueryResult{}, goneMidway(err, target.Snippet.ID)
	}

	s.logger.Info("snippet updated",
		slog.String("id", res.Snippet.ID),
		slog.String("name", res.Snippet.Name),
	)
	return res, nil
}

// Delete removes the snippet ref points to and returns it with the index it
// held before removal.
func (s *SnippetService) Delete(ctx context.Context, ref string) (model.QueryResult, error) {
	target, err := s.Resolve(ref)
	if err != nil {
		return model.QueryResult{}, err
	}

	res, err := s.repo.DeleteByID(ctx, target.Snippet.ID)
	if err != nil {
		return model.QueryResult{}, goneMidway(err, target.Snippet.ID)
	}

	s.logger.Info("snippet deleted",
		slog.String("id", res.Snippet.ID),
		slog.Int("index", res.Index),
	)
	return res, nil
}

// goneMidway turns NotFound from a write into Conflict: the snippet existed
// when the reference was resolved, so another request removed it since.
func goneMidway(err error, id string) error {
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.Conflict("snippet", id)
	}
	return err
}

// List filters the collection by name and visibility. The visibility string
// is the filter dropdown's value: "all" (or empty), "public" or "private".
func (s *SnippetService) List(search, visibility string) (ListResult, error) {
	filter, ok := model.ParseVisibilityFilter(visibility)
	if !ok {
		return ListResult{}, apperror.ValidationFailed("visibility",
			`visibility filter must be "all", "public" or "private"`)
	}

	return ListResult{
		Snippets: s.repo.Query(search, filter),
		Counts:   s.repo.AggregateCounts(),
	}, nil
}

// Counts returns the collection counters.
func (s *SnippetService) Counts() model.Counts {
	return s.repo.AggregateCounts()
}

// Download packages the snippet ref points to as a file named after it.
func (s *SnippetService) Download(ref string) (Download, error) {
	res, err := s.Resolve(ref)
	if err != nil {
		return Download{}, err
	}
	return Download{
		FileName: format.DownloadName(res.Snippet.Name, res.Snippet.Language),
		Body:     res.Snippet.Code,
	}, nil
}

// ShareLink returns a link to the snippet ref points to. The link always
// carries the ID, even when ref was positional, so it keeps working after
// deletes.
func (s *SnippetService) ShareLink(ref string) (string, error) {
	res, err := s.Resolve(ref)
	if err != nil {
		return "", err
	}
	return format.ShareLink(s.shareBaseURL, res.Snippet.ID), nil
}

// ShareCode returns a link that carries code itself, for sharing an editor
// buffer without saving it. Nothing is stored.
func (s *SnippetService) ShareCode(code, language string) (string, error) {
	shared, err := s.SharedCode(code, language)
	if err != nil {
		return "", err
	}
	return format.CodeShareLink(s.shareBaseURL, shared.Code, strings.TrimSpace(language)), nil
}

// SharedCode checks code that arrived on a code-carrying link and presents it
// as an unsaved snippet. The result has no ID.
func (s *SnippetService) SharedCode(code, language string) (model.Snippet, error) {
	if strings.TrimSpace(code) == "" {
		return model.Snippet{}, apperror.ValidationFailed("code", "shared code is empty")
	}
	if utf8.RuneCountInString(code) > repository.MaxCodeLength {
		return model.Snippet{}, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", repository.MaxCodeLength))
	}

	language = strings.TrimSpace(language)
	if language == "" {
		language = model.UnknownLanguage
	}
	return model.Snippet{
		Name:       SharedCodeName,
		Code:       code,
		Language:   language,
		Visibility: model.Public,
	}, nil
}
