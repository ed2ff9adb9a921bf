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

var _ repository.CatalogRepository = (*DB)(nil)

// GetSmellSummary returns the display projection of one smell.
func (db *DB) GetSmellSummary(ctx context.Context, id string) (*model.SmellSummary, error) {
	var s model.SmellSummary

	err := db.get(ctx, &s, sq.
		Select("id", "title", "category", "description", "difficulty", "tags").
		From("smells").
		Where(sq.Eq{"id": id}))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("smell", id)
		}
		return nil, fmt.Errorf("sqlite: getting smell %s: %w", id, err)
	}

	return &s, nil
}

// UpsertSmell inserts a catalog item or overwrites its content by ID.
func (db *DB) UpsertSmell(ctx context.Context, smell *model.Smell) error {
	if smell.CreatedAt.IsZero() {
		smell.CreatedAt = time.Now().UTC()
	}

	_, err := db.exec(ctx, sq.
		Insert("smells").
		Columns("id", "title", "category", "description", "difficulty", "tags", "bad_example", "good_example", "created_at").
		Values(smell.ID, smell.Title, smell.Category, smell.Description, smell.Difficulty, smell.Tags,
			smell.BadExample, smell.GoodExample, smell.CreatedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			description = excluded.description,
			difficulty = excluded.difficulty,
			tags = excluded.tags,
			bad_example = excluded.bad_example,
			good_example = excluded.good_example`))
	if err != nil {
		return fmt.Errorf("sqlite: upserting smell %s: %w", smell.ID, err)
	}
	return nil
}
