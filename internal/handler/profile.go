package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/codevault/internal/model"
	"github.com/sakif/codevault/internal/service"
)

// ProfileHandler reads and edits the profile card.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// HandleGet returns the profile.
//
// HTTP: GET /api/profile
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.profiles.Get())
}

// HandleUpdate merges the request body into the profile. Fields left out
// (or sent empty) keep their current value.
//
// HTTP: PUT /api/profile
// REQUEST BODY: {"name":"Ada","work":"Analyst","photo":"https://..."}
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.Profile
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.profiles.Update(r.Context(), patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}
