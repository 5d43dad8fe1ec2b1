package dbstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/barapp/sesh/pkg/domain"
)

// Table names before the configured prefix is applied.
const (
	SessionTable          = "session"
	UserTable             = "user"
	MailVerificationTable = "mail_verification"
)

const pqUniqueViolation = "23505"

// DBStore owns the database connection and hands out the table stores.
type DBStore struct {
	db     *sqlx.DB
	prefix string
}

// NewDBStore returns a DBStore whose tables are named tablePrefix + table.
func NewDBStore(db *sqlx.DB, tablePrefix string) DBStore {
	return DBStore{
		db,
		tablePrefix,
	}
}

// Connect opens a postgres connection pool and verifies it.
func Connect(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return db, nil
}

func (s DBStore) Close() error {
	return s.db.Close()
}

// Sessions returns the session table store.
func (s DBStore) Sessions() SessionStore {
	return SessionStore{
		db:    s.db,
		table: s.tableName(SessionTable),
	}
}

// Users returns the user existence check.
func (s DBStore) Users() UserStore {
	return UserStore{
		db:       s.db,
		table:    s.tableName(UserTable),
		idColumn: "user_id",
	}
}

// MailVerifications returns the mail verification table store.
func (s DBStore) MailVerifications() MailVerificationStore {
	return MailVerificationStore{
		db:    s.db,
		table: s.tableName(MailVerificationTable),
	}
}

func (s DBStore) tableName(table string) string {
	return pq.QuoteIdentifier(s.prefix + table)
}

// CreateSchema creates the session and mail verification tables if they are missing.
// The user table belongs to the application and is not created here.
func (s DBStore) CreateSchema(ctx context.Context) error {
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			session_id uuid PRIMARY KEY,
			session_user_id bigint NOT NULL,
			session_key varchar(64) NOT NULL UNIQUE,
			session_create_ip varchar(45) NOT NULL DEFAULT '',
			session_create_datetime timestamptz NOT NULL,
			session_expire_datetime timestamptz NOT NULL
		)`, s.tableName(SessionTable)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (session_expire_datetime)`,
			pq.QuoteIdentifier(s.prefix+SessionTable+"_expire_idx"), s.tableName(SessionTable)),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			mail_ver_id bigserial PRIMARY KEY,
			mail_ver_user_id bigint NOT NULL,
			mail_ver_mail text NOT NULL,
			mail_ver_key varchar(64) NOT NULL,
			mail_ver_previous_mail_id bigint,
			mail_ver_create_datetime timestamptz NOT NULL,
			mail_ver_expire_datetime timestamptz NOT NULL
		)`, s.tableName(MailVerificationTable)),
	}

	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return storageError("failed to create schema", err)
		}
	}

	return nil
}

// IsUniqueViolation reports whether err is a postgres unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	return string(pqErr.Code) == pqUniqueViolation
}

// storageError wraps a failed query so that callers can match domain.ErrStorage,
// and domain.ErrCollision for unique violations.
func storageError(action string, err error) error {
	if IsUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %w: %w", action, domain.ErrStorage, domain.ErrCollision, err)
	}
	return fmt.Errorf("%s: %w: %w", action, domain.ErrStorage, err)
}
