package handlers

import (
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"pura-pata-web/internal/config"
	"pura-pata-web/internal/metrics"
	"pura-pata-web/internal/middleware"
	"pura-pata-web/internal/session"
	"pura-pata-web/internal/upload"
	"pura-pata-web/internal/visitors"
	"pura-pata-web/internal/web"
)

// RouterConfig is everything the HTTP surface is built from.
type RouterConfig struct {
	Templates *template.Template
	Registry  *visitors.Registry
	API       DogsAPI
	Publisher *upload.Publisher
	Previews  *upload.PreviewStore
	Policy    upload.Policy
	Provider  session.Provider
	// Metrics is optional; without it /metrics is not served.
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	BaseURL     string
	JWTSecret   string
	Secure      bool
	Maps        config.MapsConfig
	ListingWait time.Duration
}

// NewRouter wires middleware and routes. Visitor state and sessions are only
// attached to pages and API routes; static files, previews, health and
// metrics stay stateless.
func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.SetHTMLTemplate(cfg.Templates)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))

	var recorder Recorder = nopRecorder{}
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
		recorder = cfg.Metrics
	}

	health := NewHealthHandler(cfg.Registry.Len)
	previews := NewPreviewsHandler(cfg.Previews)
	listingHandler := NewListingHandler(cfg.Templates, cfg.Maps, cfg.ListingWait, log)
	dogsHandler := NewDogsHandler(cfg.API, cfg.BaseURL, log)
	draftsHandler := NewDraftsHandler(cfg.API, cfg.Publisher, cfg.Policy, recorder, log)
	authHandler := NewAuthHandler(cfg.Provider, cfg.API, cfg.Secure, log)
	shareHandler := NewShareHandler(cfg.API, cfg.BaseURL, log)

	router.GET("/health", health.Health)
	router.StaticFS("/static", web.Static())
	router.GET(upload.PreviewPrefix+":id", previews.Serve)

	app := router.Group("/")
	app.Use(middleware.Visitor(cfg.Registry, cfg.Secure))
	app.Use(middleware.Session(middleware.SessionConfig{
		JWTSecret: cfg.JWTSecret,
		Secure:    cfg.Secure,
		Provider:  cfg.Provider,
		Logger:    log,
	}))

	// Pages
	app.GET("/", listingHandler.Index)
	app.GET("/perros/:id", dogsHandler.Detail)
	app.GET("/login", authHandler.LoginPage)
	app.POST("/login", authHandler.Login)
	app.GET("/registro", authHandler.RegisterPage)
	app.POST("/registro", authHandler.Register)
	app.POST("/logout", authHandler.Logout)

	pages := app.Group("/")
	pages.Use(middleware.RequireAuth())
	pages.GET("/publicar", draftsHandler.NewForm)
	pages.GET("/perros/:id/editar", draftsHandler.EditForm)
	pages.GET("/mis-perros", dogsHandler.MyDogs)
	pages.GET("/perfil", authHandler.Profile)

	// API
	api := app.Group("/api")
	api.GET("/listing", listingHandler.Snapshot)
	api.PATCH("/listing/filters", listingHandler.UpdateFilters)
	api.GET("/share/:id", shareHandler.Links)
	api.POST("/share/:id/copy", shareHandler.Copy)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth())
	protected.POST("/drafts/:key/files", draftsHandler.StageFiles)
	protected.DELETE("/drafts/:key/files/:index", draftsHandler.RemoveFile)
	protected.DELETE("/drafts/:key/existing/:index", draftsHandler.RemoveExisting)
	protected.POST("/drafts/:key/publish", draftsHandler.Publish)
	protected.PATCH("/dogs/:id/status", dogsHandler.UpdateStatus)
	protected.DELETE("/dogs/:id", dogsHandler.Delete)

	router.NoRoute(func(c *gin.Context) {
		notFoundPage(c, "Página no encontrada")
	})

	return router
}
