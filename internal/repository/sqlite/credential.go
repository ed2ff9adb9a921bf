package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/sakif/refactorium/internal/apperror"
	"github.com/sakif/refactorium/internal/repository"
)

var _ repository.CredentialRepository = (*DB)(nil)

// PutCredential stores (or replaces) the sealed provider token for a user.
func (db *DB) PutCredential(ctx context.Context, userID, provider string, sealed []byte) error {
	_, err := db.exec(ctx, sq.
		Insert("provider_credentials").
		Columns("user_id", "provider", "sealed_token", "updated_at").
		Values(userID, provider, sealed, time.Now().UTC()).
		Suffix(`ON CONFLICT (user_id, provider) DO UPDATE SET
			sealed_token = excluded.sealed_token,
			updated_at = excluded.updated_at`))
	if err != nil {
		return fmt.Errorf("sqlite: storing %s credential for %s: %w", provider, userID, err)
	}
	return nil
}

// GetCredential returns the sealed token or apperror.ErrNotFound.
func (db *DB) GetCredential(ctx context.Context, userID, provider string) ([]byte, error) {
	var sealed []byte

	err := db.get(ctx, &sealed, sq.
		Select("sealed_token").
		From("provider_credentials").
		Where(sq.Eq{"user_id": userID, "provider": provider}))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("credential", provider+":"+userID)
		}
		return nil, fmt.Errorf("sqlite: getting %s credential for %s: %w", provider, userID, err)
	}

	return sealed, nil
}
