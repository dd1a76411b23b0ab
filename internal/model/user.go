package model

import "time"

// User represents an application user record as stored in the `users`
// table. Each field corresponds to a column. The json tags are omitted
// because these structs are used internally by the repository layer;
// handlers define separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  Username     – unique handle shown on posts.
//  PasswordHash – bcrypt hashed password.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// UserProfile holds the public profile columns of the `user_profiles`
// table. All fields besides Name are optional and stored as nullable
// columns, surfaced here as empty strings. Unlike the other rows in this
// package it is serialized directly inside SessionUser, hence the tags.
type UserProfile struct {
	UserID        uint64 `json:"-"`             // user_profiles.user_id
	Name          string `json:"name"`          // user_profiles.name
	Bio           string `json:"bio"`           // user_profiles.bio
	AvatarURL     string `json:"avatarUrl"`     // user_profiles.avatar_url
	AvailableText string `json:"availableText"` // user_profiles.available_text
	Location      string `json:"location"`      // user_profiles.location
	Website       string `json:"website"`       // user_profiles.website
}

// TechStack is a row of the `tech_stacks` table, linked to profiles
// through the `profile_tech_stacks` join table.
type TechStack struct {
	ID   uint64 `json:"id"`   // tech_stacks.id
	Name string `json:"name"` // tech_stacks.name
}

// SessionUser is the resolved identity the session gate attaches to an
// authorized request: the user joined with their profile and tech stacks.
// Downstream handlers read it instead of reloading the user themselves.
type SessionUser struct {
	ID       uint64      `json:"id"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	Profile  UserProfile `json:"profile"`
	Stacks   []TechStack `json:"techStacks"`
}
