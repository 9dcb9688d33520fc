package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"STORAGE_TYPE", "STORAGE_REGION", "STORAGE_ENDPOINT", "IMAGE_DISPLAY_WIDTH", "STORAGE_USE_SSL"} {
		t.Setenv(key, "")
	}

	cfg := LoadFromEnv()

	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "ams3", cfg.Storage.Region)
	assert.Equal(t, "digitaloceanspaces.com", cfg.Storage.Endpoint)
	assert.True(t, cfg.Storage.UseSSL)
	assert.Equal(t, 1600, cfg.Images.DisplayWidth)
	assert.Equal(t, 400, cfg.Images.ThumbnailWidth)
	assert.Equal(t, 85, cfg.Images.JPEGQuality)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORAGE_TYPE", "local")
	t.Setenv("STORAGE_LOCAL_PATH", "/tmp/pxl")
	t.Setenv("IMAGE_THUMBNAIL_WIDTH", "256")
	t.Setenv("STORAGE_USE_SSL", "false")
	t.Setenv("IMAGE_JPEG_QUALITY", "not-a-number")

	cfg := LoadFromEnv()

	assert.Equal(t, "local", cfg.Storage.Type)
	assert.Equal(t, "/tmp/pxl", cfg.Storage.LocalPath)
	assert.Equal(t, 256, cfg.Images.ThumbnailWidth)
	assert.False(t, cfg.Storage.UseSSL)
	assert.Equal(t, 85, cfg.Images.JPEGQuality, "unparseable values fall back to the default")
}

func TestLoadFile(t *testing.T) {
	t.Setenv("STORAGE_ACCESS_KEY", "from-env")

	path := filepath.Join(t.TempDir(), "pxl.yaml")
	content := `
storage:
  bucket: holiday-photos
  region: fra1
images:
  display_width: 2048
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "holiday-photos", cfg.Storage.Bucket)
	assert.Equal(t, "fra1", cfg.Storage.Region)
	assert.Equal(t, "from-env", cfg.Storage.AccessKey)
	assert.Equal(t, 2048, cfg.Images.DisplayWidth)
	assert.Equal(t, 400, cfg.Images.ThumbnailWidth)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: [unterminated"), 0644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Storage: StorageConfig{Type: "s3", Bucket: "b", Endpoint: "digitaloceanspaces.com"},
			Images:  ImageConfig{DisplayWidth: 1600, ThumbnailWidth: 400, JPEGQuality: 85},
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		shouldError bool
	}{
		{name: "valid s3", mutate: func(c *Config) {}},
		{name: "valid local", mutate: func(c *Config) { c.Storage = StorageConfig{Type: "local", LocalPath: "/tmp/x"} }},
		{name: "missing bucket", mutate: func(c *Config) { c.Storage.Bucket = "" }, shouldError: true},
		{name: "missing endpoint", mutate: func(c *Config) { c.Storage.Endpoint = "" }, shouldError: true},
		{name: "local without path", mutate: func(c *Config) { c.Storage = StorageConfig{Type: "local"} }, shouldError: true},
		{name: "unknown type", mutate: func(c *Config) { c.Storage.Type = "gcs" }, shouldError: true},
		{name: "zero width", mutate: func(c *Config) { c.Images.ThumbnailWidth = 0 }, shouldError: true},
		{name: "quality out of range", mutate: func(c *Config) { c.Images.JPEGQuality = 101 }, shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.shouldError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStorageConfig_Host(t *testing.T) {
	tests := []struct {
		name     string
		cfg      StorageConfig
		expected string
	}{
		{"region prefixed", StorageConfig{Region: "ams3", Endpoint: "digitaloceanspaces.com"}, "ams3.digitaloceanspaces.com"},
		{"already prefixed", StorageConfig{Region: "ams3", Endpoint: "ams3.digitaloceanspaces.com"}, "ams3.digitaloceanspaces.com"},
		{"no region", StorageConfig{Endpoint: "s3.example.com"}, "s3.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cfg.Host())
		})
	}
}

func TestStorageConfig_PublicURL(t *testing.T) {
	cfg := StorageConfig{Bucket: "photos", Region: "ams3", Endpoint: "digitaloceanspaces.com", UseSSL: true}
	assert.Equal(t, "https://photos.ams3.digitaloceanspaces.com", cfg.PublicURL())

	cfg.UseSSL = false
	assert.Equal(t, "http://photos.ams3.digitaloceanspaces.com", cfg.PublicURL())
}
