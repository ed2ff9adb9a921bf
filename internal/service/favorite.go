package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/refactorium/internal/apperror"
	"github.com/sakif/refactorium/internal/model"
	"github.com/sakif/refactorium/internal/repository"
)

// FavoriteService is the favorite ledger: at most one edge per (user, smell).
//
// The existence check in Add only saves a round trip in the common case.
// Two concurrent adds can both pass it; the unique index then rejects the
// second insert and the repository reports apperror.ErrAlreadyFavorited.
type FavoriteService struct {
	favorites repository.FavoriteRepository
	catalog   repository.CatalogRepository
	logger    *slog.Logger
}

func NewFavoriteService(favorites repository.FavoriteRepository, catalog repository.CatalogRepository, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{
		favorites: favorites,
		catalog:   catalog,
		logger:    logger,
	}
}

// ToggleResult is returned by Toggle. Favorite is set for adds only.
type ToggleResult struct {
	Message  string               `json:"message"`
	Favorite *model.FavoriteEntry `json:"favorite,omitempty"`
}

// Add creates the (user, smell) edge and returns it with the smell projection.
func (s *FavoriteService) Add(ctx context.Context, userID, smellID string) (*model.FavoriteEntry, error) {
	smellID, err := checkFavoriteArgs(userID, smellID)
	if err != nil {
		return nil, err
	}

	exists, err := s.favorites.FavoriteExists(ctx, userID, smellID)
	if err != nil {
		return nil, fmt.Errorf("service/favorite: checking %s/%s: %w", userID, smellID, err)
	}
	if exists {
		return nil, apperror.AlreadyFavorited(smellID)
	}

	smell, err := s.catalog.GetSmellSummary(ctx, smellID)
	if err != nil {
		return nil, fmt.Errorf("service/favorite: fetching smell %s: %w", smellID, err)
	}

	fav := &model.Favorite{UserID: userID, SmellID: smellID}
	if err := s.favorites.InsertFavorite(ctx, fav); err != nil {
		return nil, fmt.Errorf("service/favorite: adding %s/%s: %w", userID, smellID, err)
	}

	s.logger.Info("favorite added",
		slog.String("userID", userID),
		slog.String("smellID", smellID),
	)

	return &model.FavoriteEntry{Favorite: *fav, Smell: *smell, AddedAt: fav.CreatedAt}, nil
}

// Remove deletes the edge. Removing an edge that does not exist succeeds.
func (s *FavoriteService) Remove(ctx context.Context, userID, smellID string) error {
	smellID, err := checkFavoriteArgs(userID, smellID)
	if err != nil {
		return err
	}

	removed, err := s.favorites.DeleteFavorite(ctx, userID, smellID)
	if err != nil {
		return fmt.Errorf("service/favorite: removing %s/%s: %w", userID, smellID, err)
	}

	if removed {
		s.logger.Info("favorite removed",
			slog.String("userID", userID),
			slog.String("smellID", smellID),
		)
	}
	return nil
}

// List returns the user's favorites, newest first.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]model.FavoriteEntry, error) {
	if userID == "" {
		return nil, apperror.Unauthenticated()
	}

	entries, err := s.favorites.ListFavorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/favorite: listing for %s: %w", userID, err)
	}
	return entries, nil
}

// Toggle dispatches an add or remove request.
func (s *FavoriteService) Toggle(ctx context.Context, userID, smellID string, action model.FavoriteAction) (*ToggleResult, error) {
	if userID == "" {
		return nil, apperror.Unauthenticated()
	}

	switch action {
	case model.FavoriteAdd:
		entry, err := s.Add(ctx, userID, smellID)
		if err != nil {
			return nil, err
		}
		return &ToggleResult{Message: "Added to favorites", Favorite: entry}, nil

	case model.FavoriteRemove:
		if err := s.Remove(ctx, userID, smellID); err != nil {
			return nil, err
		}
		return &ToggleResult{Message: "Removed from favorites"}, nil

	default:
		return nil, apperror.ValidationFailed("action", `action must be "add" or "remove"`)
	}
}

func checkFavoriteArgs(userID, smellID string) (string, error) {
	if userID == "" {
		return "", apperror.Unauthenticated()
	}
	smellID = strings.TrimSpace(smellID)
	if smellID == "" {
		return "", apperror.ValidationFailed("smellId", "smellId is required")
	}
	return smellID, nil
}
