package session

import (
	"context"
	"errors"

	"pura-pata-web/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrConfirmationPending means the account was created but cannot sign
	// in until its email address is confirmed.
	ErrConfirmationPending = errors.New("email confirmation pending")
)

// Tokens is a signed-in session as issued by the auth provider.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	User         models.User
}

// Provider is the external auth service.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Tokens, error)
	SignUp(ctx context.Context, password string, profile models.Profile) (*Tokens, error)
	SignOut(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
}
