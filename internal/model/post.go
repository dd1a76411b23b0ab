package model

import "time"

// Post mirrors the `posts` table. A post with IsPublic=false is a draft,
// visible only to its owner. PublishingDate is nullable and carried as a
// pointer.
type Post struct {
	ID              uint64     // posts.id
	UserID          uint64     // posts.user_id
	Title           string     // posts.title
	SubTitle        string     // posts.sub_title (nullable, "" when absent)
	Content         string     // posts.content
	Description     string     // posts.description
	Thumbnail       string     // posts.thumbnail (nullable, "" when absent)
	DisabledComment bool       // posts.disabled_comment
	IsPublic        bool       // posts.is_public
	PublishingDate  *time.Time // posts.publishing_date (nullable)
	CreatedAt       time.Time  // posts.created_at
	UpdatedAt       time.Time  // posts.updated_at
}

// Tag is a row of the `tags` table. Names are stored URL-escaped and
// unique; posts reference tags through the `posts_tags` join table.
type Tag struct {
	ID   uint64 // tags.id
	Name string // tags.name
}
