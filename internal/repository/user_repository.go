package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/OhMinsSup/solid-server-go/internal/model"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// FindConflict reports which unique column an intended signup collides
// with. It returns "email" or "username" when a matching row exists and
// "" with ErrNotFound-free nil error when the pair is free to use.
func (r *UserRepo) FindConflict(ctx context.Context, email, username string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var gotEmail, gotUsername string
	err := r.DB.QueryRowContext(ctx,
		"SELECT email, username FROM users WHERE email=? OR username=? LIMIT 1",
		email, username).Scan(&gotEmail, &gotUsername)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if gotEmail == email {
		return "email", nil
	}
	return "username", nil
}

// CreateWithProfile inserts the user and their profile row in one
// transaction and returns the new user id. A duplicate-key race with a
// concurrent signup surfaces as ErrConflict.
func (r *UserRepo) CreateWithProfile(ctx context.Context, email, username, passwordHash, name string) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (email, username, password_hash) VALUES (?,?,?)",
		email, username, passwordHash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO user_profiles (user_id, name) VALUES (?,?)",
		id, name); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByEmail fetches the credential columns for signin.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, email, username, password_hash, created_at, updated_at FROM users WHERE email=? LIMIT 1",
		email).Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// FindSessionUser resolves the identity the session gate hands to
// downstream handlers: user joined with profile, plus the profile's tech
// stacks in a second query. Absence of the user (an orphaned session
// record) maps to ErrNotFound.
func (r *UserRepo) FindSessionUser(ctx context.Context, id uint64) (model.SessionUser, error) {
	var (
		su                                          model.SessionUser
		bio, avatarURL, availableText, loc, website sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.username,
		       p.name, p.bio, p.avatar_url, p.available_text, p.location, p.website
		FROM users u
		JOIN user_profiles p ON p.user_id = u.id
		WHERE u.id=? LIMIT 1`,
		id).Scan(&su.ID, &su.Email, &su.Username,
		&su.Profile.Name, &bio, &avatarURL, &availableText, &loc, &website)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SessionUser{}, ErrNotFound
	}
	if err != nil {
		return model.SessionUser{}, err
	}
	su.Profile.UserID = su.ID
	su.Profile.Bio = bio.String
	su.Profile.AvatarURL = avatarURL.String
	su.Profile.AvailableText = availableText.String
	su.Profile.Location = loc.String
	su.Profile.Website = website.String

	rows, err := r.DB.QueryContext(ctx, `
		SELECT t.id, t.name
		FROM profile_tech_stacks pts
		JOIN tech_stacks t ON t.id = pts.tech_stack_id
		WHERE pts.user_id=?
		ORDER BY t.id`, id)
	if err != nil {
		return model.SessionUser{}, err
	}
	defer rows.Close()

	su.Stacks = []model.TechStack{}
	for rows.Next() {
		var ts model.TechStack
		if err := rows.Scan(&ts.ID, &ts.Name); err != nil {
			return model.SessionUser{}, err
		}
		su.Stacks = append(su.Stacks, ts)
	}
	if err := rows.Err(); err != nil {
		return model.SessionUser{}, err
	}
	return su, nil
}
