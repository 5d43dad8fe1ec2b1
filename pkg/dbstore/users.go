package dbstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/barapp/sesh/pkg/domain"
)

// UserStore checks that users referenced by sessions still exist.
type UserStore struct {
	db       *sqlx.DB
	table    string
	idColumn string
}

func (s UserStore) ExistsByID(ctx context.Context, id domain.UserID) (bool, error) {
	if id <= 0 {
		return false, fmt.Errorf("%w: user id must be positive, got %d", domain.ErrInvalidArgument, id)
	}

	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)`, s.table, s.idColumn)

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, int64(id)); err != nil {
		return false, storageError("failed to look up user", err)
	}

	return exists, nil
}
