package sqlite

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/xid"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/refactorium/internal/apperror"
	"github.com/sakif/refactorium/internal/model"
	"github.com/sakif/refactorium/internal/repository"
)

var _ repository.FavoriteRepository = (*DB)(nil)

// FavoriteExists reports whether the (user, smell) edge is stored.
func (db *DB) FavoriteExists(ctx context.Context, userID, smellID string) (bool, error) {
	var count int
	err := db.get(ctx, &count, sq.
		Select("COUNT(*)").
		From("favorites").
		Where(sq.Eq{"user_id": userID, "smell_id": smellID}))
	if err != nil {
		return false, fmt.Errorf("sqlite: checking favorite %s/%s: %w", userID, smellID, err)
	}
	return count > 0, nil
}

// InsertFavorite stores a new edge and fills in its ID and CreatedAt.
//
// The unique index on (user_id, smell_id) decides concurrent races: the
// losing INSERT fails with SQLITE_CONSTRAINT_UNIQUE and is reported as
// apperror.ErrAlreadyFavorited. A missing user or smell trips the foreign key.
func (db *DB) InsertFavorite(ctx context.Context, fav *model.Favorite) error {
	fav.ID = xid.New().String()
	fav.CreatedAt = time.Now().UTC()

	_, err := db.exec(ctx, sq.
		Insert("favorites").
		Columns("id", "user_id", "smell_id", "created_at").
		Values(fav.ID, fav.UserID, fav.SmellID, fav.CreatedAt))
	if err != nil {
		switch constraintCode(err) {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return apperror.AlreadyFavorited(fav.SmellID)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return apperror.NotFound("smell", fav.SmellID)
		}
		return fmt.Errorf("sqlite: inserting favorite %s/%s: %w", fav.UserID, fav.SmellID, err)
	}

	return nil
}

// DeleteFavorite removes the edge if present. Absence is not an error.
func (db *DB) DeleteFavorite(ctx context.Context, userID, smellID string) (bool, error) {
	n, err := db.exec(ctx, sq.
		Delete("favorites").
		Where(sq.Eq{"user_id": userID, "smell_id": smellID}))
	if err != nil {
		return false, fmt.Errorf("sqlite: deleting favorite %s/%s: %w", userID, smellID, err)
	}
	return n > 0, nil
}

// favoriteRow is the flat shape of the favorites ⋈ smells join.
type favoriteRow struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	SmellID     string     `db:"smell_id"`
	CreatedAt   time.Time  `db:"created_at"`
	Title       string     `db:"title"`
	Category    string     `db:"category"`
	Description string     `db:"description"`
	Difficulty  string     `db:"difficulty"`
	Tags        model.Tags `db:"tags"`
}

// ListFavorites returns the user's favorites, most recently added first.
func (db *DB) ListFavorites(ctx context.Context, userID string) ([]model.FavoriteEntry, error) {
	var rows []favoriteRow
	err := db.sel(ctx, &rows, sq.
		Select(
			"f.id AS id", "f.user_id AS user_id", "f.smell_id AS smell_id", "f.created_at AS created_at",
			"s.title AS title", "s.category AS category", "s.description AS description",
			"s.difficulty AS difficulty", "s.tags AS tags",
		).
		From("favorites f").
		Join("smells s ON s.id = f.smell_id").
		Where(sq.Eq{"f.user_id": userID}).
		OrderBy("f.created_at DESC", "f.id DESC"))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing favorites for %s: %w", userID, err)
	}

	entries := make([]model.FavoriteEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, model.FavoriteEntry{
			Favorite: model.Favorite{
				ID:        r.ID,
				UserID:    r.UserID,
				SmellID:   r.SmellID,
				CreatedAt: r.CreatedAt,
			},
			Smell: model.SmellSummary{
				ID:          r.SmellID,
				Title:       r.Title,
				Category:    r.Category,
				Description: r.Description,
				Difficulty:  r.Difficulty,
				Tags:        r.Tags,
			},
			AddedAt: r.CreatedAt,
		})
	}

	return entries, nil
}
