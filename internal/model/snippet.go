// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import (
	"strings"
	"time"
)

// UnknownLanguage is stored when a snippet was saved without a language tag.
const UnknownLanguage = "unknown"

// Visibility classifies a snippet as shareable (Public) or not (Private).
//
// WHY A NAMED STRING TYPE?
// A plain string would accept "pubic" or "PUBLIC" anywhere in the code.
// A named type lets the compiler keep Visibility values apart from names and code,
// and ParseVisibility is the single gate that turns user input into one.
type Visibility string

const (
	Public  Visibility = "Public"
	Private Visibility = "Private"
)

// ParseVisibility accepts "public"/"private" in any case.
// An empty string means "not chosen" and maps to Public, which is what
// the add-snippet form preselects.
func ParseVisibility(s string) (Visibility, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public":
		return Public, true
	case "private":
		return Private, true
	default:
		return "", false
	}
}

// VisibilityFilter narrows a query. All matches both visibilities.
type VisibilityFilter string

const (
	FilterAll     VisibilityFilter = "all"
	FilterPublic  VisibilityFilter = "public"
	FilterPrivate VisibilityFilter = "private"
)

// ParseVisibilityFilter maps the filter dropdown value to a VisibilityFilter.
func ParseVisibilityFilter(s string) (VisibilityFilter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, true
	case "public":
		return FilterPublic, true
	case "private":
		return FilterPrivate, true
	default:
		return "", false
	}
}

// Matches reports whether v passes the filter.
func (f VisibilityFilter) Matches(v Visibility) bool {
	switch f {
	case FilterPublic:
		return v == Public
	case FilterPrivate:
		return v == Private
	default:
		return true
	}
}

// Snippet represents a saved code snippet.
// The `json:"..."` tags tell Go's encoding/json package how to serialize/deserialize
// this struct to/from JSON. This is called a "struct tag" — metadata attached to fields.
//
// CREATED DOUBLES AS "LAST MODIFIED":
// Editing a snippet re-stamps Created. There is no separate UpdatedAt field;
// the list view shows "edited 2 minutes ago" and "created 2 minutes ago" the same way.
//
// IDENTITY:
// ID is a durable xid assigned at creation. Rendering still works with the
// snippet's position in the collection (see QueryResult.Index), but links and
// API calls should prefer the ID because positions shift after a delete.
type Snippet struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Code       string     `json:"code"`
	Language   string     `json:"language"`
	Visibility Visibility `json:"visibility"`
	Created    time.Time  `json:"created"`
}

// SnippetInput carries the user-editable fields of a snippet.
// Visibility is raw form input; it is parsed during validation.
// An empty Language means "unknown" on create and "keep the current one" on update.
type SnippetInput struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	Language   string `json:"language"`
	Visibility string `json:"visibility"`
}

// QueryResult pairs a snippet with its position in the unfiltered collection.
// Row actions (edit, delete, copy link) must use Index, not the row number
// in the filtered view.
type QueryResult struct {
	Index   int     `json:"index"`
	Snippet Snippet `json:"snippet"`
}

// Counts is the aggregate shown on the profile card.
// Total always equals Public + Private.
type Counts struct {
	Total   int `json:"total"`
	Public  int `json:"public"`
	Private int `json:"private"`
}
