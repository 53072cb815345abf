package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"pura-pata-web/internal/middleware"
	"pura-pata-web/internal/models"
	"pura-pata-web/internal/session"
)

const minPasswordLength = 6

type AuthHandler struct {
	provider session.Provider
	api      DogsAPI
	secure   bool
	log      *zap.Logger
}

func NewAuthHandler(provider session.Provider, api DogsAPI, secure bool, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{provider: provider, api: api, secure: secure, log: log}
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	next := safeNext(c.Query("next"))
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, next)
		return
	}
	render(c, http.StatusOK, "login.tmpl", "Ingresar", gin.H{"Next": next})
}

// Login signs in with email and password and returns to the page that asked
// for it.
func (h *AuthHandler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	next := safeNext(c.PostForm("next"))

	fail := func(status int, msg string) {
		render(c, status, "login.tmpl", "Ingresar", gin.H{"Error": msg, "Next": next, "Email": email})
	}
	if email == "" || password == "" {
		fail(http.StatusBadRequest, "Ingresa tu correo y contraseña")
		return
	}

	tokens, err := h.provider.SignIn(c.Request.Context(), email, password)
	if errors.Is(err, session.ErrInvalidCredentials) {
		fail(http.StatusUnauthorized, "Correo o contraseña incorrectos")
		return
	}
	if err != nil {
		h.log.Error("sign in failed", zap.Error(err))
		fail(http.StatusBadGateway, "No se pudo iniciar sesión, intenta de nuevo")
		return
	}

	h.signedIn(c, tokens)
	c.Redirect(http.StatusSeeOther, next)
}

func (h *AuthHandler) RegisterPage(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	render(c, http.StatusOK, "register.tmpl", "Registrarse", gin.H{"Profile": models.Profile{}})
}

// Register creates the account and, when the provider signs it in right
// away, syncs the profile to the remote service.
func (h *AuthHandler) Register(c *gin.Context) {
	var p models.Profile
	_ = c.ShouldBind(&p)
	p.Email = strings.TrimSpace(p.Email)
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)
	password := c.PostForm("password")

	page := func(status int, data gin.H) {
		data["Profile"] = p
		render(c, status, "register.tmpl", "Registrarse", data)
	}
	switch {
	case p.Email == "" || p.Name == "" || p.Phone == "":
		page(http.StatusBadRequest, gin.H{"Error": "Nombre, correo y teléfono son obligatorios"})
		return
	case len(password) < minPasswordLength:
		page(http.StatusBadRequest, gin.H{"Error": "La contraseña debe tener al menos 6 caracteres"})
		return
	}

	ctx := c.Request.Context()
	tokens, err := h.provider.SignUp(ctx, password, p)
	if errors.Is(err, session.ErrConfirmationPending) {
		page(http.StatusOK, gin.H{"Message": "Te enviamos un correo para confirmar tu cuenta"})
		return
	}
	if err != nil {
		h.log.Error("sign up failed", zap.Error(err))
		page(http.StatusBadGateway, gin.H{"Error": "No se pudo crear la cuenta, intenta de nuevo"})
		return
	}

	if _, err := h.api.SyncUser(ctx, tokens.AccessToken, p); err != nil {
		h.log.Warn("failed to sync new user profile", zap.String("user_id", tokens.User.ID), zap.Error(err))
	}
	h.signedIn(c, tokens)
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout ends the session even when the provider cannot be reached.
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := middleware.AccessToken(c); token != "" {
		if err := h.provider.SignOut(c.Request.Context(), token); err != nil {
			h.log.Warn("sign out failed", zap.Error(err))
		}
	}
	middleware.ClearSessionCookies(c, h.secure)
	if v := middleware.CurrentVisitor(c); v != nil {
		v.Session.Clear()
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Profile shows the remote profile, falling back to the token claims when
// the remote service is unavailable.
func (h *AuthHandler) Profile(c *gin.Context) {
	data := gin.H{"User": middleware.CurrentUser(c)}
	user, err := h.api.Me(c.Request.Context(), middleware.AccessToken(c))
	if err != nil {
		h.log.Warn("failed to load profile", zap.Error(err))
		data["Error"] = "No se pudo cargar tu perfil completo"
	} else {
		data["User"] = user
	}
	render(c, http.StatusOK, "profile.tmpl", "Perfil", data)
}

func (h *AuthHandler) signedIn(c *gin.Context, tokens *session.Tokens) {
	middleware.SetSessionCookies(c, tokens, h.secure)
	if v := middleware.CurrentVisitor(c); v != nil {
		u := tokens.User
		v.Session.Set(&u)
	}
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
