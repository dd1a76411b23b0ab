package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/OhMinsSup/solid-server-go/internal/model"
	"github.com/OhMinsSup/solid-server-go/internal/utils"
)

// TagRepo manages the 'tags' table. Tag names are stored in their
// normalized form so lookups and uniqueness work on one canonical value.
type TagRepo struct{ DB *sql.DB }

func NewTagRepo(db *sql.DB) *TagRepo { return &TagRepo{DB: db} }

// FindOrCreateTx resolves a tag name to a row inside the caller's
// transaction, creating the row when it does not exist yet. Post creation
// runs this per tag so the post and its tags commit together.
func (r *TagRepo) FindOrCreateTx(ctx context.Context, tx *sql.Tx, name string) (model.Tag, error) {
	name = utils.NormalizeTag(name)

	var t model.Tag
	err := tx.QueryRowContext(ctx,
		"SELECT id, name FROM tags WHERE name=? LIMIT 1", name).Scan(&t.ID, &t.Name)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Tag{}, err
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO tags (name) VALUES (?)", name)
	if err != nil {
		return model.Tag{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Tag{}, err
	}
	return model.Tag{ID: uint64(id), Name: name}, nil
}
