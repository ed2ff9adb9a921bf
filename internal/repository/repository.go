// Package repository declares the persistence port used by the service layer.
//
// Implementations must give per-record atomicity. Nothing in the service layer
// opens multi-statement transactions.
package repository

import (
	"context"

	"github.com/sakif/refactorium/internal/model"
)

type UserRepository interface {
	// Upsert inserts or refreshes a user keyed by GitHub ID. Profile fields
	// other than login, email and avatar are left alone on update.
	Upsert(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// UpdateProfile writes the user-editable columns in one statement.
	UpdateProfile(ctx context.Context, id string, edit model.ProfileEdit) (*model.User, error)
	// ApplySync writes the reconciler's field set in one statement.
	ApplySync(ctx context.Context, id string, fields model.SyncedFields) (*model.User, error)
}

type PreferencesRepository interface {
	// EnsurePreferences creates the row with defaults if it does not exist yet.
	EnsurePreferences(ctx context.Context, prefs *model.Preferences) error
	GetPreferences(ctx context.Context, userID string) (*model.Preferences, error)
	SavePreferences(ctx context.Context, prefs *model.Preferences) error
}

type FavoriteRepository interface {
	FavoriteExists(ctx context.Context, userID, smellID string) (bool, error)
	// InsertFavorite returns apperror.ErrAlreadyFavorited when the
	// (user, smell) uniqueness constraint rejects the row.
	InsertFavorite(ctx context.Context, fav *model.Favorite) error
	// DeleteFavorite reports whether a row was removed.
	DeleteFavorite(ctx context.Context, userID, smellID string) (bool, error)
	ListFavorites(ctx context.Context, userID string) ([]model.FavoriteEntry, error)
}

type CatalogRepository interface {
	GetSmellSummary(ctx context.Context, id string) (*model.SmellSummary, error)
	UpsertSmell(ctx context.Context, smell *model.Smell) error
}

type CredentialRepository interface {
	PutCredential(ctx context.Context, userID, provider string, sealed []byte) error
	// GetCredential returns apperror.ErrNotFound when nothing is stored.
	GetCredential(ctx context.Context, userID, provider string) ([]byte, error)
}
