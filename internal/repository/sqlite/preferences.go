package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/refactorium/internal/apperror"
	"github.com/sakif/refactorium/internal/model"
	"github.com/sakif/refactorium/internal/repository"
)

var _ repository.PreferencesRepository = (*DB)(nil)

// EnsurePreferences inserts the row unless one already exists for the user.
func (db *DB) EnsurePreferences(ctx context.Context, prefs *model.Preferences) error {
	prefs.UpdatedAt = time.Now().UTC()

	_, err := db.exec(ctx, sq.
		Insert("user_preferences").
		Columns("user_id", "theme", "preferred_language", "email_notifications", "updated_at").
		Values(prefs.UserID, prefs.Theme, prefs.PreferredLanguage, prefs.EmailNotifications, prefs.UpdatedAt).
		Suffix("ON CONFLICT (user_id) DO NOTHING"))
	if err != nil {
		return fmt.Errorf("sqlite: ensuring preferences for %s: %w", prefs.UserID, err)
	}
	return nil
}

// GetPreferences returns apperror.ErrNotFound when the user has no row.
func (db *DB) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	var p model.Preferences

	err := db.get(ctx, &p, sq.
		Select("user_id", "theme", "preferred_language", "email_notifications", "updated_at").
		From("user_preferences").
		Where(sq.Eq{"user_id": userID}))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("preferences", userID)
		}
		return nil, fmt.Errorf("sqlite: getting preferences for %s: %w", userID, err)
	}

	return &p, nil
}

// SavePreferences replaces the user's preferences row.
func (db *DB) SavePreferences(ctx context.Context, prefs *model.Preferences) error {
	prefs.UpdatedAt = time.Now().UTC()

	_, err := db.exec(ctx, sq.
		Insert("user_preferences").
		Columns("user_id", "theme", "preferred_language", "email_notifications", "updated_at").
		Values(prefs.UserID, prefs.Theme, prefs.PreferredLanguage, prefs.EmailNotifications, prefs.UpdatedAt).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			theme = excluded.theme,
			preferred_language = excluded.preferred_language,
			email_notifications = excluded.email_notifications,
			updated_at = excluded.updated_at`))
	if err != nil {
		if constraintCode(err) != 0 {
			return apperror.NotFound("user", prefs.UserID)
		}
		return fmt.Errorf("sqlite: saving preferences for %s: %w", prefs.UserID, err)
	}
	return nil
}
