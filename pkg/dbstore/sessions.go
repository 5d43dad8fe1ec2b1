package dbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/barapp/sesh/pkg/domain"
)

const sessionColumns = `session_id, session_user_id, session_key, session_create_ip, session_create_datetime, session_expire_datetime`

// SessionStore implements domain.SessionStore on a postgres table.
type SessionStore struct {
	db    *sqlx.DB
	table string
}

type sessionRow struct {
	ID        string    `db:"session_id"`
	UserID    int64     `db:"session_user_id"`
	Key       string    `db:"session_key"`
	CreateIP  string    `db:"session_create_ip"`
	CreatedAt time.Time `db:"session_create_datetime"`
	ExpiresAt time.Time `db:"session_expire_datetime"`
}

func (r sessionRow) session() domain.Session {
	// time.Times come back from the db with no tz info, so let's set it to UTC to be safe and consistent.
	return domain.Session{
		ID:       r.ID,
		UserID:   domain.UserID(r.UserID),
		Key:      r.Key,
		CreateIP: r.CreateIP,
		Lifetime: domain.Lifetime{
			CreatedAt: r.CreatedAt.UTC(),
			ExpiresAt: r.ExpiresAt.UTC(),
		},
	}
}

// List returns every stored session, expired or not. This reads the whole table.
func (s SessionStore) List(ctx context.Context) ([]domain.Session, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY session_create_datetime`, sessionColumns, s.table)

	rows := []sessionRow{}
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, storageError("failed to list sessions", err)
	}

	sessions := make([]domain.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.session())
	}

	return sessions, nil
}

func (s SessionStore) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.table)

	var count int
	if err := s.db.GetContext(ctx, &count, query); err != nil {
		return 0, storageError("failed to count sessions", err)
	}

	return count, nil
}

func (s SessionStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	if err := validateSessionID(id); err != nil {
		return false, err
	}

	query := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s WHERE session_id = $1)`, s.table)

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, id); err != nil {
		return false, storageError("failed to look up session by id", err)
	}

	return exists, nil
}

func (s SessionStore) ExistsByKey(ctx context.Context, key string) (bool, error) {
	session, err := s.FindByKey(ctx, key)
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

// FindByKey returns the first session with this key, or nil when there is none.
func (s SessionStore) FindByKey(ctx context.Context, key string) (*domain.Session, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty session key", domain.ErrInvalidArgument)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE session_key = $1 LIMIT 1`, sessionColumns, s.table)

	row := sessionRow{}
	if err := s.db.GetContext(ctx, &row, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageError("failed to look up session by key", err)
	}

	session := row.session()
	return &session, nil
}

// Insert creates a session row with a new random UUID.
func (s SessionStore) Insert(ctx context.Context, session domain.NewSession) (domain.Session, error) {
	if session.Key == "" {
		return domain.Session{}, fmt.Errorf("%w: empty session key", domain.ErrInvalidArgument)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6)`, s.table, sessionColumns)

	id := uuid.NewString()
	createdAt := session.CreatedAt.UTC()
	expiresAt := session.ExpiresAt.UTC()

	_, err := s.db.ExecContext(ctx, query, id, int64(session.UserID), session.Key, session.CreateIP, createdAt, expiresAt)
	if err != nil {
		return domain.Session{}, storageError("failed to create session", err)
	}

	return domain.Session{
		ID:       id,
		UserID:   session.UserID,
		Key:      session.Key,
		CreateIP: session.CreateIP,
		Lifetime: domain.Lifetime{
			CreatedAt: createdAt,
			ExpiresAt: expiresAt,
		},
	}, nil
}

// DeleteByID removes a session row. Deleting a missing row is not an error.
func (s SessionStore) DeleteByID(ctx context.Context, id string) error {
	if err := validateSessionID(id); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, s.table)

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return storageError("failed to delete session", err)
	}

	return nil
}

func (s SessionStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_expire_datetime <= $1`, s.table)

	result, err := s.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, storageError("failed to delete expired sessions", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("failed to get rows affected", err)
	}

	return count, nil
}

func validateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty session id", domain.ErrInvalidArgument)
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed session id %q", domain.ErrInvalidArgument, id)
	}
	return nil
}
