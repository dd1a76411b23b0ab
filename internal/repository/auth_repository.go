package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/OhMinsSup/solid-server-go/internal/model"
)

// AuthRepo persists authentication records in the 'user_authentications'
// table. Rows are created only by the session issuer; the single mutation
// path is Touch, which advances last_validated_at and is safe under
// concurrent invocation (last writer wins on a monotonically advancing
// timestamp).
type AuthRepo struct{ DB *sql.DB }

func NewAuthRepo(db *sql.DB) *AuthRepo { return &AuthRepo{DB: db} }

// Create inserts one authentication record and returns it. last_validated_at
// starts equal to created_at; expires_at never changes afterwards.
func (r *AuthRepo) Create(ctx context.Context, userID uint64, now, expiresAt time.Time) (model.UserAuthentication, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_authentications (user_id, created_at, last_validated_at, expires_at) VALUES (?,?,?,?)",
		userID, now, now, expiresAt)
	if err != nil {
		return model.UserAuthentication{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.UserAuthentication{}, err
	}
	return model.UserAuthentication{
		ID:              uint64(id),
		UserID:          userID,
		CreatedAt:       now,
		LastValidatedAt: now,
		ExpiresAt:       expiresAt,
	}, nil
}

// FindByID fetches a record by id, mapping absence to ErrNotFound.
func (r *AuthRepo) FindByID(ctx context.Context, id uint64) (model.UserAuthentication, error) {
	var a model.UserAuthentication
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, created_at, last_validated_at, expires_at FROM user_authentications WHERE id=? LIMIT 1",
		id).Scan(&a.ID, &a.UserID, &a.CreatedAt, &a.LastValidatedAt, &a.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserAuthentication{}, ErrNotFound
	}
	return a, err
}

// Touch advances last_validated_at. Updating a missing row is a no-op, not
// an error; the gate has already confirmed the row exists in this request.
func (r *AuthRepo) Touch(ctx context.Context, id uint64, now time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE user_authentications SET last_validated_at=? WHERE id=?",
		now, id)
	return err
}

// Delete removes a record, invalidating every token that references it.
// Used by logout; garbage collection of expired rows happens elsewhere.
func (r *AuthRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM user_authentications WHERE id=?", id)
	return err
}
