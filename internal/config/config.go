package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string
	DatabasePath    string
	DatabaseURL     string
	SessionDuration time.Duration
	UploadMaxSize   int64

	// File storage for portfolio uploads
	StorageDriver string
	StoragePath   string
	S3Bucket      string
	AWSRegion     string

	// Email (Amazon SES)
	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	// API tokens and CSRF
	JWTSecret  string
	TokenTTL   time.Duration
	CSRFSecret string

	// OAuth providers
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
	OAuthRedirectBaseURL string

	// Timezone is used to decide what "today" is for schedules and streaks
	Timezone string
	Debug    bool

	// TrustProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Only enable it behind a proxy that overwrites them.
	TrustProxy bool
}

// fileConfig mirrors the subset of Config that may be set from a YAML file
type fileConfig struct {
	Server struct {
		Port       string `yaml:"port"`
		BaseURL    string `yaml:"base_url"`
		Timezone   string `yaml:"timezone"`
		Debug      bool   `yaml:"debug"`
		TrustProxy bool   `yaml:"trust_proxy"`
		SessionTTL string `yaml:"session_ttl"`
	} `yaml:"server"`
	Database struct {
		Type string `yaml:"type"`
		Path string `yaml:"path"`
		URL  string `yaml:"url"`
	} `yaml:"database"`
	Storage struct {
		Driver    string `yaml:"driver"`
		Path      string `yaml:"path"`
		Bucket    string `yaml:"bucket"`
		MaxUpload int64  `yaml:"max_upload_bytes"`
	} `yaml:"storage"`
	AWS struct {
		Region string `yaml:"region"`
	} `yaml:"aws"`
	Email struct {
		FromEmail string `yaml:"from_email"`
		FromName  string `yaml:"from_name"`
	} `yaml:"email"`
	OAuth struct {
		RedirectBaseURL string `yaml:"redirect_base_url"`
		Google          struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
		} `yaml:"google"`
		Facebook struct {
			ClientID     string `yaml:"client_id"`
			ClientSecret string `yaml:"client_secret"`
		} `yaml:"facebook"`
	} `yaml:"oauth"`
}

// Load reads configuration from defaults, an optional .env file, an optional
// YAML file named by VILLAGE_CONFIG and finally environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}

	cfg := defaults()

	if path := os.Getenv("VILLAGE_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		ServerPort:      "8080",
		DatabaseType:    "sqlite",
		DatabasePath:    "./village.db",
		SessionDuration: 24 * time.Hour,
		UploadMaxSize:   10 * 1024 * 1024, // 10MB
		StorageDriver:   "local",
		StoragePath:     "./uploads",
		AWSRegion:       "us-east-1",
		SESFromName:     "Village",
		AppBaseURL:      "http://localhost:8080",
		JWTSecret:       "change-me",
		TokenTTL:        72 * time.Hour,
		CSRFSecret:      "change-me-too",
		Timezone:        "Local",
	}
}

// applyFile overlays non-empty values from a YAML config file
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&c.ServerPort, fc.Server.Port)
	setString(&c.AppBaseURL, fc.Server.BaseURL)
	setString(&c.Timezone, fc.Server.Timezone)
	if fc.Server.Debug {
		c.Debug = true
	}
	if fc.Server.TrustProxy {
		c.TrustProxy = true
	}
	if fc.Server.SessionTTL != "" {
		d, err := time.ParseDuration(fc.Server.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid server.session_ttl: %w", err)
		}
		c.SessionDuration = d
	}
	setString(&c.DatabaseType, fc.Database.Type)
	setString(&c.DatabasePath, fc.Database.Path)
	setString(&c.DatabaseURL, fc.Database.URL)
	setString(&c.StorageDriver, fc.Storage.Driver)
	setString(&c.StoragePath, fc.Storage.Path)
	setString(&c.S3Bucket, fc.Storage.Bucket)
	if fc.Storage.MaxUpload > 0 {
		c.UploadMaxSize = fc.Storage.MaxUpload
	}
	setString(&c.AWSRegion, fc.AWS.Region)
	setString(&c.SESFromEmail, fc.Email.FromEmail)
	setString(&c.SESFromName, fc.Email.FromName)
	setString(&c.OAuthRedirectBaseURL, fc.OAuth.RedirectBaseURL)
	setString(&c.GoogleClientID, fc.OAuth.Google.ClientID)
	setString(&c.GoogleClientSecret, fc.OAuth.Google.ClientSecret)
	setString(&c.FacebookClientID, fc.OAuth.Facebook.ClientID)
	setString(&c.FacebookClientSecret, fc.OAuth.Facebook.ClientSecret)

	return nil
}

func (c *Config) applyEnv() {
	c.ServerPort = getEnv("PORT", c.ServerPort)
	c.DatabaseType = getEnv("DATABASE_TYPE", c.DatabaseType)
	c.DatabasePath = getEnv("DB_PATH", c.DatabasePath)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.StorageDriver = getEnv("STORAGE_DRIVER", c.StorageDriver)
	c.StoragePath = getEnv("STORAGE_PATH", c.StoragePath)
	c.S3Bucket = getEnv("S3_BUCKET", c.S3Bucket)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.SESFromEmail = getEnv("SES_FROM_EMAIL", c.SESFromEmail)
	c.SESFromName = getEnv("SES_FROM_NAME", c.SESFromName)
	c.AppBaseURL = getEnv("APP_BASE_URL", c.AppBaseURL)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.CSRFSecret = getEnv("CSRF_SECRET", c.CSRFSecret)
	c.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", c.GoogleClientID)
	c.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", c.GoogleClientSecret)
	c.FacebookClientID = getEnv("FACEBOOK_CLIENT_ID", c.FacebookClientID)
	c.FacebookClientSecret = getEnv("FACEBOOK_CLIENT_SECRET", c.FacebookClientSecret)
	c.OAuthRedirectBaseURL = getEnv("OAUTH_REDIRECT_BASE_URL", c.OAuthRedirectBaseURL)
	c.Timezone = getEnv("TZ_NAME", c.Timezone)

	if v := os.Getenv("DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
	if v := os.Getenv("TRUST_PROXY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.TrustProxy = b
		}
	}
	if v := os.Getenv("UPLOAD_MAX_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.UploadMaxSize = n
		}
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.TokenTTL = d
		}
	}
}

// Location returns the configured time zone
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
