package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/session"
)

const (
	UserIDKey      = "user_id"
	UserKey        = "user"
	AccessTokenKey = "access_token"

	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

// SessionConfig configures Session.
type SessionConfig struct {
	JWTSecret string
	Secure    bool
	// Provider, if set, is used to renew an expired access token from the
	// refresh token cookie.
	Provider session.Provider
	Logger   *zap.Logger
}

// Session resolves the signed-in user from the Authorization header or the
// access token cookie. A missing or invalid token leaves the request
// anonymous; it never rejects. The visitor's session holder, when present,
// is kept in step with the result.
func Session(cfg SessionConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token := bearerToken(c)
		user, err := verify(token, cfg.JWTSecret)

		if errors.Is(err, jwt.ErrTokenExpired) && cfg.Provider != nil {
			if rt, cerr := c.Cookie(RefreshTokenCookie); cerr == nil && rt != "" {
				tokens, rerr := cfg.Provider.Refresh(c.Request.Context(), rt)
				if rerr != nil {
					log.Debug("session refresh failed", zap.Error(rerr))
				} else {
					SetSessionCookies(c, tokens, cfg.Secure)
					token, err = tokens.AccessToken, nil
					u := tokens.User
					user = &u
				}
			}
		}

		if err != nil || user == nil {
			if token != "" {
				log.Debug("ignoring invalid session token", zap.Error(err))
			}
			if v := CurrentVisitor(c); v != nil {
				v.Session.Clear()
			}
			c.Next()
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(UserKey, user)
		c.Set(AccessTokenKey, token)
		if v := CurrentVisitor(c); v != nil {
			v.Session.Set(user)
		}
		c.Next()
	}
}

// RequireAuth stops anonymous requests. API routes get a 401; pages are
// redirected to the login form, which returns to them afterwards.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "unauthorized",
				Message: "Debes iniciar sesión",
			})
			return
		}
		c.Redirect(http.StatusSeeOther, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func AccessToken(c *gin.Context) string {
	return c.GetString(AccessTokenKey)
}

// SetSessionCookies stores a freshly issued session on the browser.
func SetSessionCookies(c *gin.Context, t *session.Tokens, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, t.AccessToken, t.ExpiresIn, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, t.RefreshToken, 30*24*60*60, "/", "", secure, true)
}

func ClearSessionCookies(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	token, err := c.Cookie(AccessTokenCookie)
	if err != nil {
		return ""
	}
	// Some clients store the cookie URL-encoded.
	if decoded, err := url.QueryUnescape(token); err == nil {
		token = decoded
	}
	return token
}

// verify checks a Supabase access token. Supabase signs with HS256 using the
// project JWT secret directly as the key.
func verify(tokenString, secret string) (*models.User, error) {
	if tokenString == "" {
		return nil, nil
	}
	if secret == "" {
		return nil, jwt.ErrSignatureInvalid
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, jwt.ErrTokenRequiredClaimMissing
	}

	user := &models.User{ID: sub}
	user.Email, _ = claims["email"].(string)
	user.Phone, _ = claims["phone"].(string)
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		user.Name, _ = meta["name"].(string)
		if p, ok := meta["phone"].(string); ok && user.Phone == "" {
			user.Phone = p
		}
		user.Location, _ = meta["location"].(string)
	}
	return user, nil
}
