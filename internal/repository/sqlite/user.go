package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"

	"github.com/sakif/refactorium/internal/apperror"
	"github.com/sakif/refactorium/internal/model"
	"github.com/sakif/refactorium/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

var userColumns = []string{
	"id", "github_id", "login", "email", "avatar_url",
	"name", "bio", "location", "website", "github_url", "linkedin_url", "twitter_url",
	"created_at", "updated_at",
}

// Upsert inserts or updates a user based on their GitHub ID.
//
// Existing users keep their internal ID and every profile field; only the
// account columns that GitHub owns at login time (login, email, avatar) are
// refreshed. The caller's struct is filled with the stored row afterwards.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()

	_, err := db.exec(ctx, sq.
		Insert("users").
		Columns("id", "github_id", "login", "email", "avatar_url", "name", "created_at", "updated_at").
		Values(xid.New().String(), user.GitHubID, user.Login, user.Email, user.AvatarURL, user.Name, now, now).
		Suffix(`ON CONFLICT (github_id) DO UPDATE SET
			login = excluded.login,
			email = excluded.email,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at`))
	if err != nil {
		return fmt.Errorf("sqlite: upserting user (githubID=%d): %w", user.GitHubID, err)
	}

	var stored model.User
	err = db.get(ctx, &stored, sq.Select(userColumns...).From("users").Where(sq.Eq{"github_id": user.GitHubID}))
	if err != nil {
		return fmt.Errorf("sqlite: reading back user (githubID=%d): %w", user.GitHubID, err)
	}

	*user = stored
	return nil
}

// GetUserByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.get(ctx, &u, sq.Select(userColumns...).From("users").Where(sq.Eq{"id": id}))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// GetUserByGitHubID retrieves a user by their GitHub numeric ID.
func (db *DB) GetUserByGitHubID(ctx context.Context, githubID int64) (*model.User, error) {
	var u model.User

	err := db.get(ctx, &u, sq.Select(userColumns...).From("users").Where(sq.Eq{"github_id": githubID}))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", fmt.Sprintf("github:%d", githubID))
		}
		return nil, fmt.Errorf("sqlite: getting user by github_id %d: %w", githubID, err)
	}

	return &u, nil
}

// UpdateProfile writes the user-editable profile columns in a single UPDATE.
// github_url is not part of the statement.
func (db *DB) UpdateProfile(ctx context.Context, id string, edit model.ProfileEdit) (*model.User, error) {
	n, err := db.exec(ctx, sq.
		Update("users").
		SetMap(map[string]any{
			"name":         edit.Name,
			"bio":          edit.Bio,
			"location":     edit.Location,
			"website":      edit.Website,
			"linkedin_url": edit.LinkedinURL,
			"twitter_url":  edit.TwitterURL,
			"updated_at":   time.Now().UTC(),
		}).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating profile %s: %w", id, err)
	}
	if n == 0 {
		return nil, apperror.NotFound("user", id)
	}

	return db.GetUserByID(ctx, id)
}

// ApplySync writes the full reconciled field set in a single UPDATE.
func (db *DB) ApplySync(ctx context.Context, id string, fields model.SyncedFields) (*model.User, error) {
	n, err := db.exec(ctx, sq.
		Update("users").
		SetMap(map[string]any{
			"name":        fields.Name,
			"bio":         fields.Bio,
			"location":    fields.Location,
			"website":     fields.Website,
			"github_url":  fields.GitHubURL,
			"twitter_url": fields.TwitterURL,
			"updated_at":  time.Now().UTC(),
		}).
		Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, fmt.Errorf("sqlite: applying sync to user %s: %w", id, err)
	}
	if n == 0 {
		return nil, apperror.NotFound("user", id)
	}

	return db.GetUserByID(ctx, id)
}
