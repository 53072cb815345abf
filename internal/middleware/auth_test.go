package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pura-pata-web/internal/middleware"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/session"
	"pura-pata-web/internal/upload"
	"pura-pata-web/internal/visitors"
)

const secret = "test-secret-key-for-jwt-signing-must-be-long-enough"

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":           "user-123",
		"email":         "ana@example.com",
		"exp":           time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]interface{}{"name": "Ana", "phone": "8888-1234"},
	}
}

func newRouter(cfg middleware.SessionConfig, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Session(cfg))
	router.GET("/test", handler)
	return router
}

func TestSession_NoTokenIsAnonymous(t *testing.T) {
	router := newRouter(middleware.SessionConfig{JWTSecret: secret}, func(c *gin.Context) {
		assert.Nil(t, middleware.CurrentUser(c))
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSession_InvalidTokenIsAnonymous(t *testing.T) {
	router := newRouter(middleware.SessionConfig{JWTSecret: secret}, func(c *gin.Context) {
		assert.Nil(t, middleware.CurrentUser(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSession_ValidBearerToken(t *testing.T) {
	token := sign(t, validClaims())
	router := newRouter(middleware.SessionConfig{JWTSecret: secret}, func(c *gin.Context) {
		userID, exists := c.Get(middleware.UserIDKey)
		assert.True(t, exists)
		assert.Equal(t, "user-123", userID)

		u := middleware.CurrentUser(c)
		require.NotNil(t, u)
		assert.Equal(t, "Ana", u.Name)
		assert.Equal(t, "8888-1234", u.Phone)
		assert.Equal(t, token, middleware.AccessToken(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSession_CookieToken(t *testing.T) {
	token := sign(t, validClaims())
	router := newRouter(middleware.SessionConfig{JWTSecret: secret}, func(c *gin.Context) {
		require.NotNil(t, middleware.CurrentUser(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSession_RejectsOtherAlgorithms(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, validClaims()).SignedString([]byte(secret))
	require.NoError(t, err)

	router := newRouter(middleware.SessionConfig{JWTSecret: secret}, func(c *gin.Context) {
		assert.Nil(t, middleware.CurrentUser(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(httptest.NewRecorder(), req)
}

type refresher struct {
	session.Provider
	got string
}

func (r *refresher) Refresh(_ context.Context, rt string) (*session.Tokens, error) {
	r.got = rt
	return &session.Tokens{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		ExpiresIn:    3600,
		User:         models.User{ID: "user-123", Name: "Ana"},
	}, nil
}

func TestSession_RefreshesExpiredToken(t *testing.T) {
	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Minute).Unix()
	expired := sign(t, claims)

	p := &refresher{}
	router := newRouter(middleware.SessionConfig{JWTSecret: secret, Provider: p}, func(c *gin.Context) {
		require.NotNil(t, middleware.CurrentUser(c))
		assert.Equal(t, "new-access", middleware.AccessToken(c))
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessTokenCookie, Value: expired})
	req.AddCookie(&http.Cookie{Name: middleware.RefreshTokenCookie, Value: "old-refresh"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "old-refresh", p.got)
	assert.Contains(t, w.Header().Values("Set-Cookie")[0], "sb-access-token=new-access")
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Session(middleware.SessionConfig{JWTSecret: secret}))
	router.GET("/publicar", middleware.RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })
	router.DELETE("/api/dogs/:id", middleware.RequireAuth(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/publicar", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next=%2Fpublicar", w.Header().Get("Location"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/dogs/1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unauthorized")

	req := httptest.NewRequest(http.MethodGet, "/publicar", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, validClaims()))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

type noDogs struct{}

func (noDogs) ListDogs(context.Context, models.Filters) ([]models.Dog, error) { return nil, nil }

func TestVisitor_IssuesCookieAndSyncsSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := visitors.NewRegistry(visitors.Config{IdleTTL: time.Hour, Policy: upload.DefaultPolicy()}, noDogs{}, upload.NewPreviewStore())
	defer reg.Close()

	router := gin.New()
	router.Use(middleware.Visitor(reg, false), middleware.Session(middleware.SessionConfig{JWTSecret: secret}))
	var seen *visitors.Visitor
	router.GET("/test", func(c *gin.Context) {
		seen = middleware.CurrentVisitor(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, validClaims()))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.NotNil(t, seen)
	assert.Contains(t, w.Header().Get("Set-Cookie"), middleware.VisitorCookie+"="+seen.ID)
	require.NotNil(t, seen.Session.Current())
	assert.Equal(t, "user-123", seen.Session.Current().ID)

	// Same browser, now signed out.
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: middleware.VisitorCookie, Value: seen.ID})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Set-Cookie"))
	assert.Nil(t, seen.Session.Current())
	assert.Equal(t, 1, reg.Len())
}
