package supabase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/session"
)

type fakeAuth struct {
	signup  types.SignupRequest
	session types.Session
	err     error
}

func (f *fakeAuth) SignInWithEmailPassword(email, password string) (*types.TokenResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &types.TokenResponse{Session: f.session}, nil
}

func (f *fakeAuth) Signup(req types.SignupRequest) (*types.SignupResponse, error) {
	f.signup = req
	if f.err != nil {
		return nil, f.err
	}
	return &types.SignupResponse{User: f.session.User, Session: f.session}, nil
}

func (f *fakeAuth) RefreshToken(string) (*types.TokenResponse, error) {
	return &types.TokenResponse{Session: f.session}, f.err
}

func (f *fakeAuth) WithToken(string) gotrue.Client { return nil }

func testSession() types.Session {
	return types.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresIn:    3600,
		User: types.User{
			ID:           uuid.MustParse("6f1c2a8e-8d44-4b8e-9d0c-3f1d2b7a9e11"),
			Email:        "ana@example.com",
			UserMetadata: map[string]interface{}{"name": "Ana", "phone": "8888-1234"},
		},
	}
}

func TestAuthClient_SignIn(t *testing.T) {
	a := newAuthClient(&fakeAuth{session: testSession()}, nil)

	tok, err := a.SignIn(context.Background(), "ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "access", tok.AccessToken)
	assert.Equal(t, models.User{
		ID:    "6f1c2a8e-8d44-4b8e-9d0c-3f1d2b7a9e11",
		Email: "ana@example.com",
		Name:  "Ana",
		Phone: "8888-1234",
	}, tok.User)
}

func TestAuthClient_SignInInvalidCredentials(t *testing.T) {
	a := newAuthClient(&fakeAuth{err: errors.New(`response status code 400: {"error":"invalid_grant"}`)}, nil)

	_, err := a.SignIn(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, session.ErrInvalidCredentials)
}

func TestAuthClient_SignUpSendsProfile(t *testing.T) {
	fake := &fakeAuth{session: testSession()}
	a := newAuthClient(fake, nil)

	tok, err := a.SignUp(context.Background(), "secret", models.Profile{Email: "ana@example.com", Name: "Ana", Phone: "8888-1234", Location: "Heredia"})
	require.NoError(t, err)
	assert.Equal(t, "refresh", tok.RefreshToken)
	assert.Equal(t, "ana@example.com", fake.signup.Email)
	assert.Equal(t, "Heredia", fake.signup.Data["location"])
}

func TestAuthClient_SignUpPendingConfirmation(t *testing.T) {
	s := testSession()
	s.AccessToken = ""
	a := newAuthClient(&fakeAuth{session: s}, nil)

	_, err := a.SignUp(context.Background(), "secret", models.Profile{Email: "ana@example.com"})
	assert.ErrorIs(t, err, session.ErrConfirmationPending)
}

func TestAuthClient_SignOut(t *testing.T) {
	var got string
	a := newAuthClient(&fakeAuth{}, func(token string) error {
		got = token
		return nil
	})

	require.NoError(t, a.SignOut(context.Background(), "access"))
	assert.Equal(t, "access", got)
}
