package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/refactorium/internal/auth"
	"github.com/sakif/refactorium/internal/model"
	"github.com/sakif/refactorium/internal/service"
)

// FavoriteLedger is implemented by *service.FavoriteService.
type FavoriteLedger interface {
	List(ctx context.Context, userID string) ([]model.FavoriteEntry, error)
	Toggle(ctx context.Context, userID, smellID string, action model.FavoriteAction) (*service.ToggleResult, error)
}

type FavoriteHandler struct {
	favorites FavoriteLedger
	logger    *slog.Logger
}

func NewFavoriteHandler(favorites FavoriteLedger, logger *slog.Logger) *FavoriteHandler {
	return &FavoriteHandler{favorites: favorites, logger: logger}
}

// favoritesResponse wraps the list so the body is an object, not a bare array.
type favoritesResponse struct {
	Favorites []model.FavoriteEntry `json:"favorites"`
}

// toggleRequest is the body of POST /api/user/favorites.
type toggleRequest struct {
	SmellID string               `json:"smellId"`
	Action  model.FavoriteAction `json:"action"`
}

// HandleList returns the caller's favorites, newest first.
//
// HTTP: GET /api/user/favorites
func (h *FavoriteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	entries, err := h.favorites.List(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, favoritesResponse{Favorites: entries})
}

// HandleToggle adds or removes one favorite.
//
// HTTP: POST /api/user/favorites
// Body: {"smellId": "long-method", "action": "add" | "remove"}
//
// 201 on add, 200 on remove, 409 when the smell is already a favorite.
func (h *FavoriteHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.favorites.Toggle(r.Context(), userID, req.SmellID, req.Action)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	status := http.StatusOK
	if result.Favorite != nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, result)
}
