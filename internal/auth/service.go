package auth

import (
	"context"
	"errors"

	"github.com/OhMinsSup/solid-server-go/internal/model"
	"github.com/OhMinsSup/solid-server-go/internal/repository"
	"github.com/OhMinsSup/solid-server-go/internal/utils"
)

// Signin/signup failures handlers must distinguish. EmailConflict and
// UsernameConflict both surface as 409, naming the colliding field.
var (
	ErrEmailNotRegistered = errors.New("email not registered")
	ErrIncorrectPassword  = errors.New("incorrect password")
	ErrEmailConflict      = errors.New("email already exists")
	ErrUsernameConflict   = errors.New("username already exists")
)

// UserStore is the user persistence the service needs. Satisfied by
// *repository.UserRepo.
type UserStore interface {
	FindConflict(ctx context.Context, email, username string) (string, error)
	CreateWithProfile(ctx context.Context, email, username, passwordHash, name string) (uint64, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
}

// Session is the result of a successful signin or signup.
type Session struct {
	UserID      uint64 `json:"userId"`
	AccessToken string `json:"accessToken"`
}

// SignupInput carries the validated signup fields.
type SignupInput struct {
	Email    string
	Username string
	Password string
	Name     string
}

// SigninInput carries the signin credentials.
type SigninInput struct {
	Email    string
	Password string
}

// Service implements the credential flows in front of the issuer.
type Service struct {
	Users      UserStore
	Issuer     *Issuer
	BcryptCost int
}

func NewService(users UserStore, issuer *Issuer, bcryptCost int) *Service {
	return &Service{Users: users, Issuer: issuer, BcryptCost: bcryptCost}
}

// Signup checks email/username uniqueness (reporting whichever field
// collides), creates the user with their profile, and issues a session.
func (s *Service) Signup(ctx context.Context, in SignupInput) (Session, error) {
	field, err := s.Users.FindConflict(ctx, in.Email, in.Username)
	if err != nil {
		return Session{}, err
	}
	switch field {
	case "email":
		return Session{}, ErrEmailConflict
	case "username":
		return Session{}, ErrUsernameConflict
	}

	hash, err := utils.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return Session{}, err
	}
	uid, err := s.Users.CreateWithProfile(ctx, in.Email, in.Username, hash, in.Name)
	if err != nil {
		return Session{}, err
	}

	tok, err := s.Issuer.Issue(ctx, uid)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: uid, AccessToken: tok}, nil
}

// Signin verifies the credentials and issues a session. An unknown email
// and a wrong password are reported separately; no record is created on
// either failure.
func (s *Service) Signin(ctx context.Context, in SigninInput) (Session, error) {
	u, err := s.Users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Session{}, ErrEmailNotRegistered
		}
		return Session{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) {
		return Session{}, ErrIncorrectPassword
	}

	tok, err := s.Issuer.Issue(ctx, u.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: u.ID, AccessToken: tok}, nil
}
