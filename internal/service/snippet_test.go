package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/sakif/codevault/internal/apperror"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
)

// =========================================================================
// IN-MEMORY STORE
// =========================================================================
//
// The service runs against the real repository; only the durable storage
// underneath is faked. memStore implements repository.Store with plain fields.

type memStore struct {
	snippets []model.Snippet
	profile  model.Profile
}

func (m *memStore) MigrateLegacy(context.Context) (bool, error) { return false, nil }

func (m *memStore) LoadSnippets(context.Context) []model.Snippet {
	return append([]model.Snippet(nil), m.snippets...)
}

func (m *memStore) SaveSnippets(_ context.Context, s []model.Snippet) error {
	m.snippets = append([]model.Snippet(nil), s...)
	return nil
}

func (m *memStore) LoadProfile(context.Context) model.Profile {
	return model.DefaultProfile().Merge(m.profile)
}

func (m *memStore) SaveProfile(_ context.Context, p model.Profile) error {
	m.profile = p
	return nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

const testBaseURL = "http://vault.test"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServices(t *testing.T) (*SnippetService, *ProfileService, *memStore) {
	t.Helper()
	store := &memStore{}
	vault := repository.Open(context.Background(), store, testLogger())
	return NewSnippetService(vault.Snippets, testBaseURL, testLogger()),
		NewProfileService(vault.Profile, testLogger()),
		store
}

func mustCreate(t *testing.T, svc *SnippetService, name string) model.QueryResult {
	t.Helper()
	res, err := svc.Create(context.Background(), model.SnippetInput{Name: name, Code: "code of " + name})
	if err != nil {
		t.Fatalf("Create(%q) error = %v", name, err)
	}
	return res
}

// =========================================================================
// RESOLVE
// =========================================================================

func TestResolve(t *testing.T) {
	svc, _, _ := newTestServices(t)
	a := mustCreate(t, svc, "A")
	b := mustCreate(t, svc, "B")

	tests := []struct {
		name    string
		ref     string
		wantID  string
		wantIdx int
		wantErr error
	}{
		{"by id", b.Snippet.ID, b.Snippet.ID, 1, nil},
		{"by id with spaces", "  " + a.Snippet.ID + " ", a.Snippet.ID, 0, nil},
		{"by position", "1", b.Snippet.ID, 1, nil},
		{"position out of range", "2", "", 0, apperror.ErrNotFound},
		{"negative position", "-1", "", 0, apperror.ErrNotFound},
		{"explicit plus sign", "+1", "", 0, apperror.ErrNotFound},
		{"unknown id", "nope", "", 0, apperror.ErrNotFound},
		{"empty", "  ", "", 0, apperror.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Resolve(tt.ref)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Resolve(%q) error = %v, want %v", tt.ref, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.ref, err)
			}
			if got.Snippet.ID != tt.wantID || got.Index != tt.wantIdx {
				t.Errorf("Resolve(%q) = (%d, %s), want (%d, %s)", tt.ref, got.Index, got.Snippet.ID, tt.wantIdx, tt.wantID)
			}
		})
	}
}

// =========================================================================
// CREATE / QUICK SAVE
// =========================================================================

func TestCreate_ValidationPassesThrough(t *testing.T) {
	svc, _, store := newTestServices(t)

	_, err := svc.Create(context.Background(), model.SnippetInput{Name: "", Code: "x"})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("error = %v, want ErrValidation", err)
	}
	if len(store.snippets) != 0 {
		t.Error("invalid create reached storage")
	}
}

func TestQuickSave(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	mustCreate(t, svc, "existing")

	res, err := svc.QuickSave(ctx, "print('hi')", "python")
	if err != nil {
		t.Fatalf("QuickSave() error = %v", err)
	}
	if res.Snippet.Name != "Snippet #2 (python)" {
		t.Errorf("Name = %q, want %q", res.Snippet.Name, "Snippet #2 (python)")
	}
	if res.Snippet.Visibility != model.Public {
		t.Errorf("Visibility = %q, want Public", res.Snippet.Visibility)
	}
	if res.Snippet.Language != "python" {
		t.Errorf("Language = %q, want python", res.Snippet.Language)
	}

	res, err = svc.QuickSave(ctx, "??", "")
	if err != nil {
		t.Fatalf("QuickSave() error = %v", err)
	}
	if res.Snippet.Name != "Snippet #3 (unknown)" {
		t.Errorf("Name = %q, want %q", res.Snippet.Name, "Snippet #3 (unknown)")
	}
}

func TestQuickSave_RejectsBlankCode(t *testing.T) {
	svc, _, _ := newTestServices(t)

	for _, code := range []string{"", "   ", "\n\t"} {
		_, err := svc.QuickSave(context.Background(), code, "python")
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("QuickSave(%q) error = %v, want ErrValidation", code, err)
		}
	}
	if svc.Counts().Total != 0 {
		t.Error("blank quick save created a snippet")
	}
}

// =========================================================================
// UPDATE / DELETE
// =========================================================================

func TestUpdate_ByPositionAndID(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	mustCreate(t, svc, "A")
	b := mustCreate(t, svc, "B")

	res, err := svc.Update(ctx, "1", model.SnippetInput{Name: "B2", Code: "new", Visibility: "Private"})
	if err != nil {
		t.Fatalf("Update(position) error = %v", err)
	}
	if res.Snippet.ID != b.Snippet.ID || res.Snippet.Name != "B2" {
		t.Errorf("Update(position) = %+v", res)
	}

	res, err = svc.Update(ctx, b.Snippet.ID, model.SnippetInput{Name: "B3", Code: "newer"})
	if err != nil {
		t.Fatalf("Update(id) error = %v", err)
	}
	if res.Snippet.Name != "B3" || res.Snippet.Visibility != model.Public {
		t.Errorf("Update(id) = %+v", res)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestServices(t)

	_, err := svc.Update(context.Background(), "7", model.SnippetInput{Name: "x", Code: "y"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	svc, _, store := newTestServices(t)
	ctx := context.Background()
	a := mustCreate(t, svc, "A")
	mustCreate(t, svc, "B")

	res, err := svc.Delete(ctx, a.Snippet.ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if res.Index != 0 || res.Snippet.Name != "A" {
		t.Errorf("Delete() = %+v, want A at 0", res)
	}
	if len(store.snippets) != 1 || store.snippets[0].Name != "B" {
		t.Errorf("stored = %+v, want only B", store.snippets)
	}

	if _, err := svc.Delete(ctx, a.Snippet.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

// vanishingRepo deletes the target just before every write, standing in for
// a concurrent request that wins the race between Resolve and the write.
type vanishingRepo struct {
	*repository.SnippetRepository
}

func (r vanishingRepo) UpdateByID(ctx context.Context, id string, in model.SnippetInput) (model.QueryResult, error) {
	r.SnippetRepository.DeleteByID(ctx, id)
	return r.SnippetRepository.UpdateByID(ctx, id, in)
}

func (r vanishingRepo) DeleteByID(ctx context.Context, id string) (model.QueryResult, error) {
	r.SnippetRepository.DeleteByID(ctx, id)
	return r.SnippetRepository.DeleteByID(ctx, id)
}

func TestUpdateDelete_ConflictWhenSnippetVanishes(t *testing.T) {
	vault := repository.Open(context.Background(), &memStore{}, testLogger())
	svc := NewSnippetService(vanishingRepo{vault.Snippets}, testBaseURL, testLogger())
	ctx := context.Background()

	a := mustCreate(t, svc, "A")
	mustCreate(t, svc, "B")

	_, err := svc.Update(ctx, a.Snippet.ID, model.SnippetInput{Name: "A2", Code: "x"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Update() error = %v, want ErrConflict", err)
	}

	// Position 0 now holds B; deleting it races the same way.
	_, err = svc.Delete(ctx, "0")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("Delete() error = %v, want ErrConflict", err)
	}
	if vault.Snippets.Len() != 0 {
		t.Errorf("Len() = %d, want 0", vault.Snippets.Len())
	}
}

// =========================================================================
// LIST / DOWNLOAD / SHARE
// =========================================================================

func TestList(t *testing.T) {
	svc, _, _ := newTestServices(t)
	ctx := context.Background()
	mustCreate(t, svc, "Fibonacci")
	if _, err := svc.Create(ctx, model.SnippetInput{Name: "fib memo", Code: "m", Visibility: "Private"}); err != nil {
		t.Fatal(err)
	}
	mustCreate(t, svc, "Hello")

	got, err := svc.List("FIB", "private")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got.Snippets) != 1 || got.Snippets[0].Index != 1 {
		t.Errorf("List() snippets = %+v, want fib memo at index 1", got.Snippets)
	}
	if got.Counts != (model.Counts{Total: 3, Public: 2, Private: 1}) {
		t.Errorf("List() counts = %+v, counts must cover the whole collection", got.Counts)
	}

	if _, err := svc.List("", "friends"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("List(bad filter) error = %v, want ErrValidation", err)
	}
}

func TestDownload(t *testing.T) {
	svc, _, _ := newTestServices(t)
	res, err := svc.Create(context.Background(), model.SnippetInput{Name: "Quick Sort", Code: "def qs(): pass", Language: "python"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Download(res.Snippet.ID)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if got.FileName != "Quick-Sort.py" {
		t.Errorf("FileName = %q, want %q", got.FileName, "Quick-Sort.py")
	}
	if got.Body != "def qs(): pass" {
		t.Errorf("Body = %q", got.Body)
	}
}

func TestShareLink_AlwaysCarriesID(t *testing.T) {
	svc, _, _ := newTestServices(t)
	a := mustCreate(t, svc, "A")

	for _, ref := range []string{a.Snippet.ID, "0"} {
		link, err := svc.ShareLink(ref)
		if err != nil {
			t.Fatalf("ShareLink(%q) error = %v", ref, err)
		}
		want := testBaseURL + "/view?snippet=" + a.Snippet.ID
		if link != want {
			t.Errorf("ShareLink(%q) = %q, want %q", ref, link, want)
		}
	}
}

func TestShareCode(t *testing.T) {
	svc, _, store := newTestServices(t)

	link, err := svc.ShareCode("x = 1", " python ")
	if err != nil {
		t.Fatalf("ShareCode() error = %v", err)
	}
	if want := testBaseURL + "/view?code=x+%3D+1&language=python"; link != want {
		t.Errorf("ShareCode() = %q, want %q", link, want)
	}
	if len(store.snippets) != 0 {
		t.Error("ShareCode() stored a snippet")
	}

	shared, err := svc.SharedCode("x = 1", "")
	if err != nil {
		t.Fatalf("SharedCode() error = %v", err)
	}
	if shared.ID != "" || shared.Name != SharedCodeName || shared.Language != model.UnknownLanguage {
		t.Errorf("SharedCode() = %+v", shared)
	}

	if _, err := svc.ShareCode(" \n ", "go"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("ShareCode(blank) error = %v, want ErrValidation", err)
	}
	if _, err := svc.SharedCode(strings.Repeat("x", repository.MaxCodeLength+1), ""); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("SharedCode(oversized) error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// PROFILE
// =========================================================================

func TestProfileService(t *testing.T) {
	_, profiles, store := newTestServices(t)

	if got := profiles.Get(); got != model.DefaultProfile() {
		t.Errorf("Get() = %+v, want defaults", got)
	}

	got, err := profiles.Update(context.Background(), model.Profile{Work: "Compiler writer"})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Work != "Compiler writer" || got.Name != model.DefaultProfileName {
		t.Errorf("Update() = %+v", got)
	}
	if store.profile != got {
		t.Errorf("stored profile = %+v, want %+v", store.profile, got)
	}
}

func TestProfileService_LengthCountsCharacters(t *testing.T) {
	_, profiles, _ := newTestServices(t)

	work := strings.Repeat("é", MaxProfileFieldLength)
	got, err := profiles.Update(context.Background(), model.Profile{Work: work})
	if err != nil {
		t.Fatalf("Update() error = %v, want %d two-byte characters accepted", err, MaxProfileFieldLength)
	}
	if got.Work != work {
		t.Errorf("Work not stored")
	}
}

func TestProfileService_RejectsOversizedField(t *testing.T) {
	_, profiles, store := newTestServices(t)

	_, err := profiles.Update(context.Background(), model.Profile{Photo: strings.Repeat("x", MaxProfileFieldLength+1)})

	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Field != "photo" {
		t.Fatalf("error = %v, want validation error on photo", err)
	}
	if store.profile != (model.Profile{}) {
		t.Error("rejected update reached storage")
	}
}
