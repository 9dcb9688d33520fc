package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds the configuration for a pxl invocation
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Images  ImageConfig   `yaml:"images"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig holds object store configuration
type StorageConfig struct {
	Type      string `yaml:"type"` // s3, local
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	LocalPath string `yaml:"local_path"`
}

// ImageConfig holds the derivation policy for uploaded images
type ImageConfig struct {
	DisplayWidth   int `yaml:"display_width"`
	ThumbnailWidth int `yaml:"thumbnail_width"`
	JPEGQuality    int `yaml:"jpeg_quality"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	return &Config{
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "s3"),
			Bucket:    getEnv("STORAGE_BUCKET", ""),
			Region:    getEnv("STORAGE_REGION", "ams3"),
			Endpoint:  getEnv("STORAGE_ENDPOINT", "digitaloceanspaces.com"),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			UseSSL:    getEnvBool("STORAGE_USE_SSL", true),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./pxl-store"),
		},
		Images: ImageConfig{
			DisplayWidth:   getEnvInt("IMAGE_DISPLAY_WIDTH", 1600),
			ThumbnailWidth: getEnvInt("IMAGE_THUMBNAIL_WIDTH", 400),
			JPEGQuality:    getEnvInt("IMAGE_JPEG_QUALITY", 85),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// LoadFile loads configuration from the environment and overlays the YAML
// document at path. Keys missing from the file keep their env value.
func LoadFile(path string) (*Config, error) {
	cfg := LoadFromEnv()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks that the configuration can back a session
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for s3 storage")
		}
		if c.Storage.Endpoint == "" {
			return fmt.Errorf("storage endpoint is required for s3 storage")
		}
	case "local":
		if c.Storage.LocalPath == "" {
			return fmt.Errorf("storage local path is required for local storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}

	if c.Images.DisplayWidth <= 0 || c.Images.ThumbnailWidth <= 0 {
		return fmt.Errorf("image widths must be positive")
	}
	if c.Images.JPEGQuality < 1 || c.Images.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be between 1 and 100, got %d", c.Images.JPEGQuality)
	}

	return nil
}

// Host returns the S3 host the client connects to. Region-scoped providers
// such as DigitalOcean Spaces put the region in front of the endpoint.
func (s *StorageConfig) Host() string {
	if s.Region == "" || strings.HasPrefix(s.Endpoint, s.Region+".") {
		return s.Endpoint
	}
	return s.Region + "." + s.Endpoint
}

// PublicURL returns the base URL under which public objects are served
func (s *StorageConfig) PublicURL() string {
	scheme := "https"
	if !s.UseSSL {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s.%s", scheme, s.Bucket, s.Host())
}

// SetupLogging configures the global zerolog logger
func (l *LoggingConfig) SetupLogging() {
	level, err := zerolog.ParseLevel(strings.ToLower(l.Level))
	if err != nil || l.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if l.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
