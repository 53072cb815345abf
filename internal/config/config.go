package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageDriverSupabase = "supabase"
	StorageDriverMinIO    = "minio"
)

type Config struct {
	// Remote dogs API
	APIBaseURL string        `yaml:"api_base_url" env:"API_BASE_URL"`
	APITimeout time.Duration `yaml:"api_timeout" env:"API_TIMEOUT" env-default:"30s"`

	// Supabase
	SupabaseURL            string `yaml:"supabase_url" env:"SUPABASE_URL"`
	SupabasePublishableKey string `yaml:"supabase_publishable_key" env:"SUPABASE_PUBLISHABLE_KEY"`
	SupabaseJWTSecret      string `yaml:"supabase_jwt_secret" env:"SUPABASE_JWT_SECRET"`
	SupabaseStorageBucket  string `yaml:"supabase_storage_bucket" env:"SUPABASE_STORAGE_BUCKET" env-default:"dog-photos"`

	// Photo storage backend
	StorageDriver string      `yaml:"storage_driver" env:"STORAGE_DRIVER" env-default:"supabase"`
	MinIO         MinIOConfig `yaml:"minio"`

	Upload UploadConfig `yaml:"upload"`
	Maps   MapsConfig   `yaml:"maps"`

	VisitorIdleTTL time.Duration `yaml:"visitor_idle_ttl" env:"VISITOR_IDLE_TTL" env-default:"30m"`
	CopyAckWindow  time.Duration `yaml:"copy_ack_window" env:"COPY_ACK_WINDOW" env-default:"2s"`

	// Server
	Port        string `yaml:"port" env:"PORT" env-default:"8080"`
	Environment string `yaml:"environment" env:"ENVIRONMENT" env-default:"development"`
	BaseURL     string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

type MinIOConfig struct {
	Endpoint      string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
	AccessKey     string `yaml:"access_key" env:"MINIO_ACCESS_KEY"`
	SecretKey     string `yaml:"secret_key" env:"MINIO_SECRET_KEY"`
	Bucket        string `yaml:"bucket" env:"MINIO_BUCKET" env-default:"dog-photos"`
	PublicBaseURL string `yaml:"public_base_url" env:"MINIO_PUBLIC_BASE_URL"`
}

type UploadConfig struct {
	MaxFiles     int      `yaml:"max_files" env:"UPLOAD_MAX_FILES" env-default:"5"`
	MaxFileSize  int64    `yaml:"max_file_size" env:"UPLOAD_MAX_FILE_SIZE" env-default:"5242880"`
	AllowedTypes []string `yaml:"allowed_types" env:"UPLOAD_ALLOWED_TYPES" env-separator:"," env-default:"image/jpeg,image/png"`
}

type MapsConfig struct {
	APIKey    string  `yaml:"api_key" env:"GOOGLE_MAPS_API_KEY"`
	CenterLat float64 `yaml:"center_lat" env:"MAP_CENTER_LAT" env-default:"9.7489"`
	CenterLng float64 `yaml:"center_lng" env:"MAP_CENTER_LNG" env-default:"-83.7534"`
	Zoom      int     `yaml:"zoom" env:"MAP_ZOOM" env-default:"8"`
}

// Load reads configuration from, in order of precedence: the explicit path,
// CONFIG_PATH, ./local.yaml, or the environment alone. Environment variables
// always override file values.
func Load(path string) (*Config, error) {
	var cfg Config

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		if _, err := os.Stat("local.yaml"); err == nil {
			path = "local.yaml"
		}
	}

	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config %q: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabasePublishableKey == "" {
		return fmt.Errorf("SUPABASE_PUBLISHABLE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}

	switch c.StorageDriver {
	case StorageDriverSupabase:
	case StorageDriverMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.AccessKey == "" || c.MinIO.SecretKey == "" {
			return fmt.Errorf("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.Upload.MaxFiles < 1 {
		return fmt.Errorf("UPLOAD_MAX_FILES must be at least 1")
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if len(c.Upload.AllowedTypes) == 0 {
		return fmt.Errorf("UPLOAD_ALLOWED_TYPES must not be empty")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Redacted returns a copy safe to print: secrets keep only a short prefix.
func (c Config) Redacted() Config {
	c.SupabasePublishableKey = mask(c.SupabasePublishableKey)
	c.SupabaseJWTSecret = mask(c.SupabaseJWTSecret)
	c.MinIO.AccessKey = mask(c.MinIO.AccessKey)
	c.MinIO.SecretKey = mask(c.MinIO.SecretKey)
	c.Maps.APIKey = mask(c.Maps.APIKey)
	return c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:4] + "****"
}
