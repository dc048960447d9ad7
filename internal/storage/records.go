package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// The repositories depend on repository.Store, not on *Adapter.
var _ repository.Store = (*Adapter)(nil)

// UntitledSnippetName replaces a missing name in stored data.
const UntitledSnippetName = "Untitled snippet"

// snippetRecord is the stored shape of a snippet, with every field optional.
//
// WHY NOT DECODE STRAIGHT INTO model.Snippet?
// Stored data comes from older builds: records without an id, without a
// language, with "public" in lower case, or with a date string time.Time
// refuses. Decoding into plain strings first lets normalize() fill each gap
// explicitly, so the repository always receives a fully populated Snippet.
//
// Hand-edited data also turns up with numbers where strings belong ("name": 5)
// and epoch milliseconds for created, so those fields decode leniently.
type snippetRecord struct {
	ID         looseString     `json:"id"`
	Name       looseString     `json:"name"`
	Code       looseString     `json:"code"`
	Language   looseString     `json:"language"`
	Visibility looseString     `json:"visibility"`
	Created    json.RawMessage `json:"created"`
}

// looseString accepts any JSON scalar. Numbers and booleans keep their
// literal text and null becomes "". Objects and arrays are rejected.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
	case 'n':
		*s = ""
	case '{', '[':
		return fmt.Errorf("expected a string, got %s", data)
	default:
		*s = looseString(data)
	}
	return nil
}

type profileRecord struct {
	Name  string `json:"name"`
	Work  string `json:"work"`
	Photo string `json:"photo"`
}

// LoadSnippets returns the stored collection in stored order.
//
// Each record is decoded on its own: one that cannot be read at all is
// logged and skipped, the rest load normally. Records missing an id, or
// repeating an id seen earlier in the list, are given a fresh one, and the
// collection is written back once so those ids survive the next restart.
func (a *Adapter) LoadSnippets(ctx context.Context) []model.Snippet {
	raws := Load[[]json.RawMessage](ctx, a, KeySnippets, nil)

	snippets := make([]model.Snippet, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	backfilled := 0
	for i, raw := range raws {
		var rec snippetRecord
		err := json.Unmarshal(raw, &rec)
		if err == nil && bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			err = errors.New("record is null")
		}
		if err != nil {
			corrupt := apperror.StorageCorrupt(KeySnippets, err)
			a.logger.Warn("skipping unreadable snippet record",
				slog.Int("position", i),
				slog.String("error", corrupt.Error()),
				slog.String("cause", err.Error()),
			)
			continue
		}

		s, assigned := a.normalize(rec, seen)
		if assigned {
			backfilled++
		}
		seen[s.ID] = true
		snippets = append(snippets, s)
	}

	if backfilled > 0 {
		if err := a.SaveSnippets(ctx, snippets); err != nil {
			a.logger.Warn("could not persist backfilled snippet ids",
				slog.Int("count", backfilled),
				slog.String("error", err.Error()),
			)
		} else {
			a.logger.Info("backfilled snippet ids", slog.Int("count", backfilled))
		}
	}

	return snippets
}

// SaveSnippets writes the whole collection.
func (a *Adapter) SaveSnippets(ctx context.Context, snippets []model.Snippet) error {
	if snippets == nil {
		snippets = []model.Snippet{}
	}
	return a.Save(ctx, KeySnippets, snippets)
}

// LoadProfile returns the stored profile merged over the defaults, field by field.
func (a *Adapter) LoadProfile(ctx context.Context) model.Profile {
	rec := Load(ctx, a, KeyProfile, profileRecord{})
	return model.DefaultProfile().Merge(model.Profile{
		Name:  rec.Name,
		Work:  rec.Work,
		Photo: rec.Photo,
	})
}

// SaveProfile writes the full profile record.
func (a *Adapter) SaveProfile(ctx context.Context, p model.Profile) error {
	return a.Save(ctx, KeyProfile, profileRecord{Name: p.Name, Work: p.Work, Photo: p.Photo})
}

// normalize fills every missing field of rec. seen holds the ids already
// loaded; a repeat is treated like a missing id. It reports whether an id
// had to be generated.
func (a *Adapter) normalize(rec snippetRecord, seen map[string]bool) (model.Snippet, bool) {
	s := model.Snippet{
		ID:       strings.TrimSpace(string(rec.ID)),
		Name:     strings.TrimSpace(string(rec.Name)),
		Code:     string(rec.Code),
		Language: strings.TrimSpace(string(rec.Language)),
	}

	assigned := false
	if s.ID == "" || seen[s.ID] {
		s.ID = xid.New().String()
		assigned = true
	}
	if s.Name == "" {
		s.Name = UntitledSnippetName
	}
	if s.Language == "" {
		s.Language = model.UnknownLanguage
	}

	vis, ok := model.ParseVisibility(string(rec.Visibility))
	if !ok {
		vis = model.Public
	}
	s.Visibility = vis

	s.Created = parseCreated(rec.Created)
	if s.Created.IsZero() {
		s.Created = a.now()
	}

	return s, assigned
}

// parseCreated reads a stored timestamp: a date string, or a number of
// milliseconds since the epoch (JavaScript's Date.now()). Anything else is
// the zero time.
func parseCreated(raw json.RawMessage) time.Time {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return parseStoredTime(str)
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(int64(ms)).UTC()
	}
	return time.Time{}
}

// parseStoredTime accepts RFC 3339 with or without fractional seconds
// (JavaScript's Date.toJSON writes milliseconds) and plain "2006-01-02 15:04:05".
func parseStoredTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
