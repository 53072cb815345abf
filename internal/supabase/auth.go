package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/session"
)

// authAPI is the part of the gotrue client the web front end uses.
type authAPI interface {
	SignInWithEmailPassword(email, password string) (*types.TokenResponse, error)
	Signup(req types.SignupRequest) (*types.SignupResponse, error)
	RefreshToken(refreshToken string) (*types.TokenResponse, error)
	WithToken(token string) gotrue.Client
}

// AuthClient implements session.Provider on top of Supabase Auth.
type AuthClient struct {
	api    authAPI
	logout func(accessToken string) error
}

func NewAuthClient(api gotrue.Client) *AuthClient {
	return newAuthClient(api, func(token string) error {
		return api.WithToken(token).Logout()
	})
}

func newAuthClient(api authAPI, logout func(string) error) *AuthClient {
	return &AuthClient{api: api, logout: logout}
}

func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*session.Tokens, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := a.api.SignInWithEmailPassword(email, password)
	if err != nil {
		if isInvalidGrant(err) {
			return nil, session.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	return tokensFrom(resp.Session), nil
}

// SignUp registers the account with the profile stored as user metadata.
// When the project requires email confirmation no session is issued and
// session.ErrConfirmationPending is returned.
func (a *AuthClient) SignUp(ctx context.Context, password string, p models.Profile) (*session.Tokens, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := a.api.Signup(types.SignupRequest{
		Email:    p.Email,
		Password: password,
		Data: map[string]interface{}{
			"name":     p.Name,
			"phone":    p.Phone,
			"location": p.Location,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sign up: %w", err)
	}
	if resp.AccessToken == "" {
		return nil, session.ErrConfirmationPending
	}
	return tokensFrom(resp.Session), nil
}

func (a *AuthClient) SignOut(ctx context.Context, accessToken string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.logout(accessToken); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*session.Tokens, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := a.api.RefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	return tokensFrom(resp.Session), nil
}

func tokensFrom(s types.Session) *session.Tokens {
	return &session.Tokens{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		User:         userFrom(s.User),
	}
}

func userFrom(u types.User) models.User {
	user := models.User{
		ID:    u.ID.String(),
		Email: u.Email,
		Phone: u.Phone,
	}
	if name, ok := u.UserMetadata["name"].(string); ok {
		user.Name = name
	}
	if phone, ok := u.UserMetadata["phone"].(string); ok && user.Phone == "" {
		user.Phone = phone
	}
	if loc, ok := u.UserMetadata["location"].(string); ok {
		user.Location = loc
	}
	return user
}

// gotrue-go reports API failures as plain errors carrying the response body.
func isInvalidGrant(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid_grant") || strings.Contains(msg, "Invalid login credentials")
}

var _ session.Provider = (*AuthClient)(nil)
