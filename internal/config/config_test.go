package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pura-pata-web/internal/config"
)

func requiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("API_BASE_URL", "http://api.test/api/v1")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_PUBLISHABLE_KEY", "publishable")
	t.Setenv("SUPABASE_JWT_SECRET", "secret")
}

func TestLoad_EnvDefaults(t *testing.T) {
	requiredEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dog-photos", cfg.SupabaseStorageBucket)
	assert.Equal(t, config.StorageDriverSupabase, cfg.StorageDriver)
	assert.Equal(t, 5, cfg.Upload.MaxFiles)
	assert.Equal(t, int64(5*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, []string{"image/jpeg", "image/png"}, cfg.Upload.AllowedTypes)
	assert.Equal(t, 2*time.Second, cfg.CopyAckWindow)
	assert.InDelta(t, 9.7489, cfg.Maps.CenterLat, 1e-9)
	assert.Equal(t, 8, cfg.Maps.Zoom)
}

func TestLoad_FileOverlaidByEnv(t *testing.T) {
	requiredEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\nupload:\n  max_files: 3\n"), 0o600))
	t.Setenv("UPLOAD_MAX_FILES", "4")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 4, cfg.Upload.MaxFiles)
}

func TestLoad_MissingRequired(t *testing.T) {
	requiredEnv(t)
	t.Setenv("SUPABASE_JWT_SECRET", "")
	t.Chdir(t.TempDir())

	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_JWT_SECRET is required")
}

func TestValidate_MinIODriver(t *testing.T) {
	cfg := &config.Config{
		APIBaseURL:             "http://api",
		SupabaseURL:            "http://sb",
		SupabasePublishableKey: "k",
		SupabaseJWTSecret:      "s",
		StorageDriver:          config.StorageDriverMinIO,
		Upload:                 config.UploadConfig{MaxFiles: 5, MaxFileSize: 1, AllowedTypes: []string{"image/png"}},
	}
	assert.Error(t, cfg.Validate())

	cfg.MinIO = config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"}
	assert.NoError(t, cfg.Validate())

	cfg.StorageDriver = "ftp"
	assert.Error(t, cfg.Validate())
}

func TestRedacted(t *testing.T) {
	cfg := config.Config{SupabaseJWTSecret: "super-secret", SupabasePublishableKey: "abc"}
	r := cfg.Redacted()

	assert.Equal(t, "supe****", r.SupabaseJWTSecret)
	assert.Equal(t, "****", r.SupabasePublishableKey)
	assert.Equal(t, "super-secret", cfg.SupabaseJWTSecret)
}
