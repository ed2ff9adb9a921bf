package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/refactorium/internal/auth"
	"github.com/sakif/refactorium/internal/model"
	"github.com/sakif/refactorium/internal/service"
)

// ProfileManager is the profile use-case surface the HTTP layer needs.
// *service.ProfileService satisfies it.
type ProfileManager interface {
	Get(ctx context.Context, userID string) (*service.Profile, error)
	Update(ctx context.Context, userID string, in service.ProfileInput) (*model.User, error)
	Sync(ctx context.Context, session auth.Identity) (*service.SyncResult, error)
	GetPreferences(ctx context.Context, userID string) (*model.Preferences, error)
	UpdatePreferences(ctx context.Context, userID string, in service.PreferencesInput) (*model.Preferences, error)
}

// ProfileHandler serves /api/user/profile, /api/user/sync-github and
// /api/user/preferences. Every route sits behind auth.RequireAuth; the
// session identity is still passed down so the service can refuse an
// anonymous call on its own.
type ProfileHandler struct {
	profiles ProfileManager
	logger   *slog.Logger
}

func NewProfileHandler(profiles ProfileManager, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// HandleGet returns the user record and preferences.
//
// HTTP: GET /api/user/profile
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// HandleUpdate applies a partial profile edit.
//
// HTTP: PUT /api/user/profile
// Body: {"name": "...", "bio": "...", "location": "...", "website": "...",
// "linkedinUrl": "...", "twitterUrl": "..."}. Omitted keys keep their value,
// "" clears. Any other key, githubUrl included, is a 400.
func (h *ProfileHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.profiles.Update(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleSync refreshes the profile from GitHub.
//
// HTTP: POST /api/user/sync-github
//
// A provider failure is not an HTTP error: the response is still 200 with
// outcome "fell_back_to_local" and the stored profile.
func (h *ProfileHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.IdentityFromContext(r.Context())

	result, err := h.profiles.Sync(r.Context(), session)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleGetPreferences
//
// HTTP: GET /api/user/preferences
func (h *ProfileHandler) HandleGetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	prefs, err := h.profiles.GetPreferences(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}

// HandleUpdatePreferences
//
// HTTP: PUT /api/user/preferences
func (h *ProfileHandler) HandleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var in service.PreferencesInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	prefs, err := h.profiles.UpdatePreferences(r.Context(), userID, in)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}
