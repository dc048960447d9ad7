package handler

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/codevault/internal/format"
	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/repository"
	"github.com/sakif/codevault/internal/service"
)

// RevisionHeader carries the vault revision on list responses.
const RevisionHeader = "X-Vault-Revision"

// Revision counts successful mutations of the vault.
//
// HOW A CLIENT STAYS IN SYNC:
// Subscribe Observe as a repository.Listener. Every mutation bumps the
// counter; a client that remembers the last revision it rendered knows to
// re-fetch the list as soon as it sees a different number.
type Revision struct {
	n atomic.Uint64
}

// Observe is a repository.Listener.
func (r *Revision) Observe(repository.Change) { r.n.Add(1) }

// Current returns the revision number.
func (r *Revision) Current() uint64 { return r.n.Load() }

// snippetView is a snippet as the list page draws it: the stored fields plus
// its current index and a human-readable age.
type snippetView struct {
	Index      int              `json:"index"`
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Code       string           `json:"code"`
	Language   string           `json:"language"`
	Visibility model.Visibility `json:"visibility"`
	Created    time.Time        `json:"created"`
	Age        string           `json:"age"`
}

type listResponse struct {
	Snippets []snippetView `json:"snippets"`
	Counts   model.Counts  `json:"counts"`
	Revision uint64        `json:"revision"`
}

type snippetResponse struct {
	snippetView
	ShareLink string `json:"shareLink,omitempty"`
}

// snippetRequest is the body of create and update.
type snippetRequest struct {
	Name       string `json:"name"`
	Code       string `json:"code"`
	Language   string `json:"language"`
	Visibility string `json:"visibility"`
}

func (req snippetRequest) input() model.SnippetInput {
	return model.SnippetInput{
		Name:       req.Name,
		Code:       req.Code,
		Language:   req.Language,
		Visibility: req.Visibility,
	}
}

type quickSaveRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
}

// SnippetHandler exposes the snippet collection over JSON.
//
// {ref} IN URLS:
// Every per-snippet route takes a reference, which is either the snippet's ID
// or (for links made before IDs existed) its position. The service decides
// which; the handler just passes the string through.
type SnippetHandler struct {
	snippets *service.SnippetService
	revision *Revision
	logger   *slog.Logger
	now      func() time.Time
}

// NewSnippetHandler creates a new SnippetHandler.
func NewSnippetHandler(snippets *service.SnippetService, revision *Revision, logger *slog.Logger) *SnippetHandler {
	return &SnippetHandler{
		snippets: snippets,
		revision: revision,
		logger:   logger,
		now:      time.Now,
	}
}

// Routes returns the /api/snippets sub-router.
//
//	GET    /                → list (query + counts + revision)
//	POST   /                → create
//	POST   /quick           → quick save from the editor
//	GET    /{ref}           → get
//	PUT    /{ref}           → update
//	DELETE /{ref}           → delete
//	GET    /{ref}/download  → code as a file attachment
func (h *SnippetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Post("/quick", h.HandleQuickSave)
	r.Post("/share", h.HandleShareCode)
	r.Route("/{ref}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Put("/", h.HandleUpdate)
		r.Delete("/", h.HandleDelete)
		r.Get("/download", h.HandleDownload)
	})
	return r
}

// HandleList returns the snippets matching ?q= and ?visibility=.
//
// HTTP: GET /api/snippets?q=fib&visibility=private
func (h *SnippetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.snippets.List(q.Get("q"), q.Get("visibility"))
	if err != nil {
		writeError(w, err)
		return
	}

	now := h.now()
	views := make([]snippetView, len(result.Snippets))
	for i, res := range result.Snippets {
		views[i] = newSnippetView(res, now)
	}

	rev := h.revision.Current()
	w.Header().Set(RevisionHeader, strconv.FormatUint(rev, 10))
	writeJSON(w, http.StatusOK, listResponse{
		Snippets: views,
		Counts:   result.Counts,
		Revision: rev,
	})
}

// HandleStats returns the collection counters.
//
// HTTP: GET /api/stats
func (h *SnippetHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(RevisionHeader, strconv.FormatUint(h.revision.Current(), 10))
	writeJSON(w, http.StatusOK, h.snippets.Counts())
}

// HandleCreate saves a new snippet.
//
// HTTP: POST /api/snippets
// REQUEST BODY: {"name":"Fib","code":"def fib(n): ...","language":"python","visibility":"Public"}
func (h *SnippetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid snippet JSON", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	res, err := h.snippets.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, err)
		return
	}

	h.writeSnippet(w, http.StatusCreated, res)
}

// HandleQuickSave saves the editor buffer under a generated name.
//
// HTTP: POST /api/snippets/quick
// REQUEST BODY: {"code":"print('hi')","language":"python"}
func (h *SnippetHandler) HandleQuickSave(w http.ResponseWriter, r *http.Request) {
	var req quickSaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.snippets.QuickSave(r.Context(), req.Code, req.Language)
	if err != nil {
		writeError(w, err)
		return
	}

	h.writeSnippet(w, http.StatusCreated, res)
}

// HandleShareCode returns a link carrying the editor's buffer, without
// saving it.
//
// HTTP: POST /api/snippets/share
// Body: {"code": "...", "language": "python"}
func (h *SnippetHandler) HandleShareCode(w http.ResponseWriter, r *http.Request) {
	var req quickSaveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	link, err := h.snippets.ShareCode(req.Code, req.Language)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"shareLink": link})
}

// HandleGet returns one snippet with its share link.
//
// HTTP: GET /api/snippets/{ref}
func (h *SnippetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	res, err := h.snippets.Get(chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, err)
		return
	}

	h.writeSnippet(w, http.StatusOK, res)
}

// HandleUpdate replaces a snippet's fields.
//
// HTTP: PUT /api/snippets/{ref}
func (h *SnippetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req snippetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.snippets.Update(r.Context(), chi.URLParam(r, "ref"), req.input())
	if err != nil {
		writeError(w, err)
		return
	}

	h.writeSnippet(w, http.StatusOK, res)
}

// HandleDelete removes a snippet.
//
// HTTP: DELETE /api/snippets/{ref}
// RESPONSE: 204 No Content. Indexes above the removed one shift down, so
// clients should re-fetch the list.
func (h *SnippetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := h.snippets.Delete(r.Context(), chi.URLParam(r, "ref")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDownload sends the snippet's code as a file.
//
// HTTP: GET /api/snippets/{ref}/download
func (h *SnippetHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	dl, err := h.snippets.Download(chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.FileName}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(dl.Body)); err != nil {
		h.logger.Warn("download write failed", slog.String("error", err.Error()))
	}
}

func (h *SnippetHandler) writeSnippet(w http.ResponseWriter, status int, res model.QueryResult) {
	link, err := h.snippets.ShareLink(res.Snippet.ID)
	if err != nil {
		// The snippet was deleted between the write and now; the body is still accurate.
		link = ""
	}
	writeJSON(w, status, snippetResponse{
		snippetView: newSnippetView(res, h.now()),
		ShareLink:   link,
	})
}

func newSnippetView(res model.QueryResult, now time.Time) snippetView {
	s := res.Snippet
	return snippetView{
		Index:      res.Index,
		ID:         s.ID,
		Name:       s.Name,
		Code:       s.Code,
		Language:   s.Language,
		Visibility: s.Visibility,
		Created:    s.Created,
		Age:        format.RelativeAge(now, s.Created),
	}
}
