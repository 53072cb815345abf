package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"pura-pata-web/internal/config"
	"pura-pata-web/internal/dogsapi"
	"pura-pata-web/internal/handlers"
	"pura-pata-web/internal/listing"
	"pura-pata-web/internal/logger"
	"pura-pata-web/internal/metrics"
	"pura-pata-web/internal/minio"
	"pura-pata-web/internal/supabase"
	"pura-pata-web/internal/upload"
	"pura-pata-web/internal/visitors"
	"pura-pata-web/internal/web"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 15 * time.Second
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "purapata",
	Short:         "Pura Pata web server",
	Long:          `Serves the Pura Pata dog adoption site on top of the remote dogs API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServer,
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration and print it with secrets masked",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default: CONFIG_PATH or ./local.yaml)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.AddCommand(checkConfigCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log, err := logger.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var registry *visitors.Registry
	m := metrics.New(func() float64 { return float64(registry.Len()) })

	api := dogsapi.NewClient(cfg.APIBaseURL, cfg.APITimeout, dogsapi.WithObserver(m.ObserveRemoteCall))

	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		return err
	}

	store, err := photoStore(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info("photo storage ready", zap.String("driver", cfg.StorageDriver))

	policy := upload.Policy{
		AllowedTypes: cfg.Upload.AllowedTypes,
		MaxFileSize:  cfg.Upload.MaxFileSize,
		MaxFiles:     cfg.Upload.MaxFiles,
	}
	previews := upload.NewPreviewStore()

	registry = visitors.NewRegistry(visitors.Config{
		IdleTTL:   cfg.VisitorIdleTTL,
		AckWindow: cfg.CopyAckWindow,
		Policy:    policy,
	}, api, previews,
		visitors.WithLogger(log),
		visitors.WithListingOptions(listing.WithStaleHook(m.StaleResponse)),
		visitors.WithSettledHook(func(s listing.Snapshot) {
			m.ListingSettled(string(s.State), s.Err != "")
		}),
	)

	templates, err := web.Templates()
	if err != nil {
		return err
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Templates: templates,
		Registry:  registry,
		API:       api,
		Publisher: upload.NewPublisher(store, log),
		Previews:  previews,
		Policy:    policy,
		Provider:  supabaseClient.Auth,
		Metrics:   m,
		Logger:    log,
		BaseURL:   cfg.BaseURL,
		JWTSecret: cfg.SupabaseJWTSecret,
		Secure:    cfg.IsProduction(),
		Maps:      cfg.Maps,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return registry.Run(gctx, sweepInterval)
	})
	g.Go(func() error {
		log.Info("server starting", zap.String("addr", srv.Addr), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func photoStore(ctx context.Context, cfg *config.Config) (upload.PhotoStore, error) {
	if cfg.StorageDriver == config.StorageDriverMinIO {
		return minio.New(ctx, cfg.MinIO)
	}
	return supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
}
