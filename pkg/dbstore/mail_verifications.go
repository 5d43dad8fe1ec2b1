package dbstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/barapp/sesh/pkg/domain"
)

const mailVerificationColumns = `mail_ver_id, mail_ver_user_id, mail_ver_mail, mail_ver_key, mail_ver_previous_mail_id, mail_ver_create_datetime, mail_ver_expire_datetime`

// MailVerificationStore implements domain.MailVerificationStore on a postgres table.
type MailVerificationStore struct {
	db    *sqlx.DB
	table string
}

type mailVerificationRow struct {
	ID             int64         `db:"mail_ver_id"`
	UserID         int64         `db:"mail_ver_user_id"`
	Mail           string        `db:"mail_ver_mail"`
	Key            string        `db:"mail_ver_key"`
	PreviousMailID sql.NullInt64 `db:"mail_ver_previous_mail_id"`
	CreatedAt      time.Time     `db:"mail_ver_create_datetime"`
	ExpiresAt      time.Time     `db:"mail_ver_expire_datetime"`
}

func (r mailVerificationRow) verification() domain.MailVerification {
	v := domain.MailVerification{
		ID:     r.ID,
		UserID: domain.UserID(r.UserID),
		Mail:   r.Mail,
		Key:    r.Key,
		Lifetime: domain.Lifetime{
			CreatedAt: r.CreatedAt.UTC(),
			ExpiresAt: r.ExpiresAt.UTC(),
		},
	}
	if r.PreviousMailID.Valid {
		previous := r.PreviousMailID.Int64
		v.PreviousMailID = &previous
	}
	return v
}

func (s MailVerificationStore) Find(ctx context.Context, id int64) (*domain.MailVerification, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: mail verification id must be positive, got %d", domain.ErrInvalidArgument, id)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE mail_ver_id = $1`, mailVerificationColumns, s.table)
	return s.getOne(ctx, "failed to look up mail verification by id", query, id)
}

func (s MailVerificationStore) FindByKey(ctx context.Context, key string) (*domain.MailVerification, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty mail verification key", domain.ErrInvalidArgument)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE mail_ver_key = $1 ORDER BY mail_ver_id LIMIT 1`, mailVerificationColumns, s.table)
	return s.getOne(ctx, "failed to look up mail verification by key", query, key)
}

func (s MailVerificationStore) ExistsByKey(ctx context.Context, key string) (bool, error) {
	v, err := s.FindByKey(ctx, key)
	if err != nil {
		return false, err
	}
	return v != nil, nil
}

func (s MailVerificationStore) ListByUser(ctx context.Context, user domain.UserID) ([]domain.MailVerification, error) {
	if user <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive, got %d", domain.ErrInvalidArgument, user)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE mail_ver_user_id = $1 ORDER BY mail_ver_id`, mailVerificationColumns, s.table)

	rows := []mailVerificationRow{}
	if err := s.db.SelectContext(ctx, &rows, query, int64(user)); err != nil {
		return nil, storageError("failed to list mail verifications", err)
	}

	verifications := make([]domain.MailVerification, 0, len(rows))
	for _, row := range rows {
		verifications = append(verifications, row.verification())
	}

	return verifications, nil
}

func (s MailVerificationStore) Insert(ctx context.Context, v domain.NewMailVerification) (domain.MailVerification, error) {
	if v.Key == "" {
		return domain.MailVerification{}, fmt.Errorf("%w: empty mail verification key", domain.ErrInvalidArgument)
	}

	query := fmt.Sprintf(`INSERT INTO %s (mail_ver_user_id, mail_ver_mail, mail_ver_key, mail_ver_previous_mail_id, mail_ver_create_datetime, mail_ver_expire_datetime)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING mail_ver_id`, s.table)

	previous := sql.NullInt64{}
	if v.PreviousMailID != nil {
		previous = sql.NullInt64{Int64: *v.PreviousMailID, Valid: true}
	}

	createdAt := v.CreatedAt.UTC()
	expiresAt := v.ExpiresAt.UTC()

	var id int64
	err := s.db.GetContext(ctx, &id, query, int64(v.UserID), v.Mail, v.Key, previous, createdAt, expiresAt)
	if err != nil {
		return domain.MailVerification{}, storageError("failed to create mail verification", err)
	}

	return domain.MailVerification{
		ID:             id,
		UserID:         v.UserID,
		Mail:           v.Mail,
		Key:            v.Key,
		PreviousMailID: v.PreviousMailID,
		Lifetime: domain.Lifetime{
			CreatedAt: createdAt,
			ExpiresAt: expiresAt,
		},
	}, nil
}

func (s MailVerificationStore) DeleteByID(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: mail verification id must be positive, got %d", domain.ErrInvalidArgument, id)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE mail_ver_id = $1`, s.table)

	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return storageError("failed to delete mail verification", err)
	}

	return nil
}

func (s MailVerificationStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE mail_ver_expire_datetime <= $1`, s.table)

	result, err := s.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, storageError("failed to delete expired mail verifications", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("failed to get rows affected", err)
	}

	return count, nil
}

func (s MailVerificationStore) getOne(ctx context.Context, action, query string, arg interface{}) (*domain.MailVerification, error) {
	row := mailVerificationRow{}
	if err := s.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storageError(action, err)
	}

	v := row.verification()
	return &v, nil
}
