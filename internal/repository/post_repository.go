package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/OhMinsSup/solid-server-go/internal/model"
)

// PostRepo persists posts and drafts. A draft is a post row with
// is_public=0; publishing flips the flag. Listing uses cursor pagination
// over descending ids: a page is the rows with id strictly below the
// cursor, and hasNextPage is decided by counting rows strictly below the
// last returned id under the same filter.
type PostRepo struct {
	DB   *sql.DB
	Tags *TagRepo
}

func NewPostRepo(db *sql.DB, tags *TagRepo) *PostRepo { return &PostRepo{DB: db, Tags: tags} }

// PostInput carries the writable columns of a post plus its tag names.
type PostInput struct {
	Title           string
	SubTitle        string
	Content         string
	Description     string
	Thumbnail       string
	DisabledComment bool
	IsPublic        bool
	PublishingDate  *time.Time
	Tags            []string
}

// PostListQuery defines filters & pagination for listing posts.
type PostListQuery struct {
	Cursor    uint64     // 0 means first page
	Limit     int
	StartDate *time.Time // optional created_at lower bound
	EndDate   *time.Time // optional created_at upper bound
}

// TagItem is the serialized form of a tag on a post.
type TagItem struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// AuthorItem is the post author joined with their profile.
type AuthorItem struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Profile  struct {
		Name          string `json:"name"`
		Bio           string `json:"bio"`
		AvatarURL     string `json:"avatarUrl"`
		AvailableText string `json:"availableText"`
		Location      string `json:"location"`
		Website       string `json:"website"`
	} `json:"profile"`
}

// PostItem is one serialized post: the row, its author, its tags and the
// like count.
type PostItem struct {
	ID          uint64     `json:"id"`
	Title       string     `json:"title"`
	SubTitle    string     `json:"subTitle"`
	Content     string     `json:"content"`
	Description string     `json:"description"`
	Thumbnail   string     `json:"thumbnail"`
	IsPublic    bool       `json:"isPublic"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Tags        []TagItem  `json:"tags"`
	User        AuthorItem `json:"user"`
	Count       struct {
		PostLike int64 `json:"postLike"`
	} `json:"count"`
}

// PostPage is one page of a cursor-paginated listing.
type PostPage struct {
	List        []PostItem
	TotalCount  int64
	EndCursor   uint64
	HasNextPage bool
}

// Create inserts the post, resolving tags find-or-create and linking them,
// all in one transaction. Returns the new post id.
func (r *PostRepo) Create(ctx context.Context, userID uint64, in PostInput) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	tags := make([]model.Tag, 0, len(in.Tags))
	for _, name := range in.Tags {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, err := r.Tags.FindOrCreateTx(ctx, tx, name)
		if err != nil {
			return 0, err
		}
		tags = append(tags, t)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO posts
			(user_id, title, sub_title, content, description, thumbnail,
			 disabled_comment, is_public, publishing_date)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		userID, in.Title, nullStr(in.SubTitle), in.Content, in.Description,
		nullStr(in.Thumbnail), in.DisabledComment, in.IsPublic, in.PublishingDate)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, t := range tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO posts_tags (post_id, tag_id) VALUES (?,?)",
			id, t.ID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Detail loads one post with author, tags and like count. Absence maps to
// ErrNotFound.
func (r *PostRepo) Detail(ctx context.Context, id uint64) (PostItem, error) {
	items, err := r.queryItems(ctx, "p.id = ?", []any{id}, 1)
	if err != nil {
		return PostItem{}, err
	}
	if len(items) == 0 {
		return PostItem{}, ErrNotFound
	}
	return items[0], nil
}

// List returns a page of public posts, newest first. When the query has a
// date range, both bounds apply to created_at.
func (r *PostRepo) List(ctx context.Context, q PostListQuery) (PostPage, error) {
	where := []string{"p.is_public = 1"}
	args := []any{}
	if q.StartDate != nil {
		where = append(where, "p.created_at >= ?")
		args = append(args, *q.StartDate)
	}
	if q.EndDate != nil {
		where = append(where, "p.created_at <= ?")
		args = append(args, *q.EndDate)
	}
	return r.page(ctx, where, args, q.Cursor, q.Limit)
}

// ListDrafts returns a page of the owner's drafts, newest first.
func (r *PostRepo) ListDrafts(ctx context.Context, userID uint64, cursor uint64, limit int) (PostPage, error) {
	where := []string{"p.is_public = 0", "p.user_id = ?"}
	args := []any{userID}
	return r.page(ctx, where, args, cursor, limit)
}

// DraftByID loads one draft scoped to its owner; another user's draft is
// indistinguishable from a missing one.
func (r *PostRepo) DraftByID(ctx context.Context, userID, id uint64) (PostItem, error) {
	items, err := r.queryItems(ctx, "p.id = ? AND p.user_id = ? AND p.is_public = 0", []any{id, userID}, 1)
	if err != nil {
		return PostItem{}, err
	}
	if len(items) == 0 {
		return PostItem{}, ErrNotFound
	}
	return items[0], nil
}

// CreateDraft inserts an empty draft carrying only a title.
func (r *PostRepo) CreateDraft(ctx context.Context, userID uint64, title string) (uint64, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO posts (user_id, title, content, description, is_public, disabled_comment)
		VALUES (?,?,'','',0,1)`,
		userID, title)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// SaveDraft updates the writable columns of an owned draft. Zero rows
// affected means the draft does not exist or belongs to someone else.
func (r *PostRepo) SaveDraft(ctx context.Context, userID, id uint64, in PostInput) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE posts
		SET title=?, sub_title=?, content=?, description=?, thumbnail=?, disabled_comment=?
		WHERE id=? AND user_id=? AND is_public=0`,
		in.Title, nullStr(in.SubTitle), in.Content, in.Description,
		nullStr(in.Thumbnail), in.DisabledComment, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Could also mean nothing changed; confirm the row exists.
		var one int
		err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM posts WHERE id=? AND user_id=? AND is_public=0 LIMIT 1",
			id, userID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// page runs the shared count / select / has-next sequence under the given
// filter. The cursor condition is applied only to the row select and the
// has-next count, never to the total.
func (r *PostRepo) page(ctx context.Context, where []string, args []any, cursor uint64, limit int) (PostPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := "SELECT COUNT(*) FROM posts p WHERE " + cond
	if err := r.DB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return PostPage{}, err
	}

	listCond := cond
	listArgs := append([]any{}, args...)
	if cursor > 0 {
		listCond += " AND p.id < ?"
		listArgs = append(listArgs, cursor)
	}
	items, err := r.queryItems(ctx, listCond, listArgs, limit)
	if err != nil {
		return PostPage{}, err
	}

	page := PostPage{List: items, TotalCount: total}
	if len(items) == 0 {
		return page, nil
	}
	page.EndCursor = items[len(items)-1].ID

	var remaining int64
	nextSQL := "SELECT COUNT(*) FROM posts p WHERE " + cond + " AND p.id < ?"
	nextArgs := append(append([]any{}, args...), page.EndCursor)
	if err := r.DB.QueryRowContext(ctx, nextSQL, nextArgs...).Scan(&remaining); err != nil {
		return PostPage{}, err
	}
	page.HasNextPage = remaining > 0
	return page, nil
}

// queryItems selects post rows joined with author and profile under the
// given condition, then batch-loads their tags.
func (r *PostRepo) queryItems(ctx context.Context, cond string, args []any, limit int) ([]PostItem, error) {
	dataSQL := fmt.Sprintf(`
		SELECT p.id, p.title, p.sub_title, p.content, p.description, p.thumbnail,
		       p.is_public, p.created_at, p.updated_at,
		       u.id, u.username, u.email,
		       pr.name, pr.bio, pr.avatar_url, pr.available_text, pr.location, pr.website,
		       (SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.id) AS like_count
		FROM posts p
		JOIN users u          ON u.id = p.user_id
		JOIN user_profiles pr ON pr.user_id = u.id
		WHERE %s
		ORDER BY p.id DESC
		LIMIT ?`, cond)
	argsData := append(append([]any{}, args...), limit)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]PostItem, 0, limit)
	for rows.Next() {
		var (
			it                                          PostItem
			subTitle, thumbnail                         sql.NullString
			bio, avatarURL, availableText, loc, website sql.NullString
		)
		if err := rows.Scan(
			&it.ID, &it.Title, &subTitle, &it.Content, &it.Description, &thumbnail,
			&it.IsPublic, &it.CreatedAt, &it.UpdatedAt,
			&it.User.ID, &it.User.Username, &it.User.Email,
			&it.User.Profile.Name, &bio, &avatarURL, &availableText, &loc, &website,
			&it.Count.PostLike,
		); err != nil {
			return nil, err
		}
		it.SubTitle = subTitle.String
		it.Thumbnail = thumbnail.String
		it.User.Profile.Bio = bio.String
		it.User.Profile.AvatarURL = avatarURL.String
		it.User.Profile.AvailableText = availableText.String
		it.User.Profile.Location = loc.String
		it.User.Profile.Website = website.String
		it.Tags = []TagItem{}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachTags(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachTags loads the tags of every listed post in one IN query.
func (r *PostRepo) attachTags(ctx context.Context, items []PostItem) error {
	if len(items) == 0 {
		return nil
	}
	idx := make(map[uint64]int, len(items))
	ph := make([]string, 0, len(items))
	args := make([]any, 0, len(items))
	for i, it := range items {
		idx[it.ID] = i
		ph = append(ph, "?")
		args = append(args, it.ID)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT pt.post_id, t.id, t.name
		FROM posts_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id IN (`+strings.Join(ph, ",")+`)
		ORDER BY t.id`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var postID uint64
		var t TagItem
		if err := rows.Scan(&postID, &t.ID, &t.Name); err != nil {
			return err
		}
		if i, ok := idx[postID]; ok {
			items[i].Tags = append(items[i].Tags, t)
		}
	}
	return rows.Err()
}

// nullStr maps "" to NULL for optional text columns.
func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
