package model

import "time"

// UserAuthentication models an entry in the `user_authentications` table.
// One row backs one issued session; a user may hold several rows at once
// (multi-device sessions). ExpiresAt is fixed at creation and never moves;
// LastValidatedAt starts equal to CreatedAt and is advanced only by the
// session gate's debounced re-validation write.
//
// Fields:
//  ID              – primary key, referenced by the authId token claim.
//  UserID          – owner of the session.
//  CreatedAt       – when the session was issued.
//  LastValidatedAt – last time the gate confirmed the session.
//  ExpiresAt       – hard expiry, created_at + session TTL.
type UserAuthentication struct {
	ID              uint64    // user_authentications.id
	UserID          uint64    // user_authentications.user_id
	CreatedAt       time.Time // user_authentications.created_at
	LastValidatedAt time.Time // user_authentications.last_validated_at
	ExpiresAt       time.Time // user_authentications.expires_at
}
