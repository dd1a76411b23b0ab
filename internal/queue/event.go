// Package queue defines message payloads exchanged over the message broker.
package queue

// PostPublishedEvent is published when a public post is created. It
// carries enough information for downstream consumers to log, notify or
// feed analytics without querying the primary database.
type PostPublishedEvent struct {
	PostID      uint64   `json:"post_id"`
	UserID      uint64   `json:"user_id"`
	Username    string   `json:"username"`
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	PublishedAt string   `json:"published_at"`
}
