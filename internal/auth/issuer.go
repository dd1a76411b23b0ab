// Package auth implements the session subsystem: issuing sessions backed
// by an authentication record, and the signin/signup flows that lead to
// issuance. Stores are narrow interfaces so the logic runs against an
// in-memory fake in tests.
package auth

import (
	"context"
	"time"

	"github.com/OhMinsSup/solid-server-go/internal/model"
	"github.com/OhMinsSup/solid-server-go/internal/token"
)

// AuthenticationStore is the persistence the issuer needs: creating one
// record per issued session. Satisfied by *repository.AuthRepo.
type AuthenticationStore interface {
	Create(ctx context.Context, userID uint64, now, expiresAt time.Time) (model.UserAuthentication, error)
}

// Issuer creates sessions. Issuance is unconditional: one durable write,
// no read before it, storage failures propagate to the caller.
type Issuer struct {
	Auths    AuthenticationStore
	Secret   []byte
	Validity time.Duration // session TTL, also used as the token validity
}

func NewIssuer(auths AuthenticationStore, secret []byte, validity time.Duration) *Issuer {
	return &Issuer{Auths: auths, Secret: secret, Validity: validity}
}

// Issue creates an authentication record for userID with
// expiresAt = now + Validity, then signs a token binding the record id
// and the user id. The caller must have verified that userID exists.
func (i *Issuer) Issue(ctx context.Context, userID uint64) (string, error) {
	now := time.Now().UTC()
	rec, err := i.Auths.Create(ctx, userID, now, now.Add(i.Validity))
	if err != nil {
		return "", err
	}
	return token.Sign(i.Secret, rec.ID, userID, i.Validity)
}
