package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gumrukcum/gumrukcum-api/internal/domain/account"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port" env:"PORT"`
		ReadTimeout     time.Duration `yaml:"readTimeout" env:"READ_TIMEOUT"`
		WriteTimeout    time.Duration `yaml:"writeTimeout" env:"WRITE_TIMEOUT"`
		IdleTimeout     time.Duration `yaml:"idleTimeout" env:"IDLE_TIMEOUT"`
		ShutdownTimeout time.Duration `yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
		MaxBodyBytes    int64         `yaml:"maxBodyBytes" env:"MAX_BODY_BYTES"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"` // json | console
	} `yaml:"log"`

	Database struct {
		Driver   string `yaml:"driver" env:"DB_DRIVER"` // mysql | postgres | sqlite
		URL      string `yaml:"url" env:"DATABASE_URL"`
		Host     string `yaml:"host" env:"DB_HOST"`
		Port     int    `yaml:"port" env:"DB_PORT"`
		User     string `yaml:"user" env:"DB_USER"`
		Password string `yaml:"password" env:"DB_PASSWORD"`
		Name     string `yaml:"name" env:"DB_NAME"`
		SSLMode  string `yaml:"sslMode" env:"DB_SSLMODE"`
		Path     string `yaml:"path" env:"SQLITE_PATH"`
		Migrate  bool   `yaml:"migrate" env:"DB_MIGRATE"`
	} `yaml:"database"`

	Auth struct {
		Mode            string `yaml:"mode" env:"AUTH_MODE"` // jwt | supabase
		JWTSecret       string `yaml:"jwtSecret" env:"SUPABASE_JWT_SECRET"`
		JWKSURL         string `yaml:"jwksUrl" env:"JWKS_URL"`
		Issuer          string `yaml:"issuer" env:"JWT_ISSUER"`
		Audience        string `yaml:"audience" env:"JWT_AUDIENCE"`
		SupabaseURL     string `yaml:"supabaseUrl" env:"SUPABASE_URL"`
		SupabaseAnonKey string `yaml:"supabaseAnonKey" env:"SUPABASE_ANON_KEY"`
	} `yaml:"auth"`

	AI struct {
		Provider      string            `yaml:"provider" env:"AI_PROVIDER"` // gemini | openai
		GeminiAPIKey  string            `yaml:"geminiApiKey" env:"GEMINI_API_KEY"`
		OpenAIAPIKey  string            `yaml:"openaiApiKey" env:"OPENAI_API_KEY"`
		OpenAIBaseURL string            `yaml:"openaiBaseUrl" env:"OPENAI_BASE_URL"`
		StandardModel string            `yaml:"standardModel" env:"AI_STANDARD_MODEL"`
		PremiumModel  string            `yaml:"premiumModel" env:"AI_PREMIUM_MODEL"`
		TierModels    map[string]string `yaml:"tierModels"`
		Timeout       time.Duration     `yaml:"timeout" env:"AI_TIMEOUT"`
	} `yaml:"ai"`

	Minio struct {
		Enabled    bool   `yaml:"enabled" env:"MINIO_ENABLED"`
		Endpoint   string `yaml:"endpoint" env:"MINIO_ENDPOINT"`
		AccessKey  string `yaml:"accessKey" env:"MINIO_ACCESS_KEY"`
		SecretKey  string `yaml:"secretKey" env:"MINIO_SECRET_KEY"`
		BucketName string `yaml:"bucketName" env:"MINIO_BUCKET"`
		Region     string `yaml:"region" env:"MINIO_REGION"`
		UseSSL     bool   `yaml:"useSSL" env:"MINIO_USE_SSL"`
		PublicURL  string `yaml:"publicUrl" env:"MINIO_PUBLIC_URL"`
	} `yaml:"minio"`

	Redis struct {
		URL string `yaml:"url" env:"REDIS_URL"`
	} `yaml:"redis"`

	CORS struct {
		Origins []string `yaml:"origins" env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	} `yaml:"cors"`

	RateLimit struct {
		Enabled   bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED"`
		Burst     int  `yaml:"burst" env:"RATE_LIMIT_BURST"`
		PerMinute int  `yaml:"perMinute" env:"RATE_LIMIT_PER_MINUTE"`
	} `yaml:"rateLimit"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 90 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Server.ShutdownTimeout = 15 * time.Second
	c.Server.MaxBodyBytes = 10 << 20
	c.Log.Level = "info"
	c.Log.Format = "json"
	c.Database.Driver = "postgres"
	c.Database.SSLMode = "require"
	c.Database.Path = "gumrukcum.db"
	c.Auth.Mode = "jwt"
	c.Auth.Audience = "authenticated"
	c.AI.Provider = "gemini"
	c.AI.Timeout = 60 * time.Second
	c.Minio.BucketName = "analysis-images"
	c.RateLimit.Enabled = true
	c.RateLimit.Burst = 5
	c.RateLimit.PerMinute = 20
	return &c
}

// Load reads .env (if any), then the YAML file at path (if it exists), then
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the choices that select an implementation.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown %q", c.Database.Driver))
	}
	switch c.Auth.Mode {
	case "jwt":
		if (c.Auth.JWTSecret == "") == (c.Auth.JWKSURL == "") {
			errs = append(errs, errors.New("auth: exactly one of jwtSecret and jwksUrl must be set"))
		}
	case "supabase":
		if c.Auth.SupabaseURL == "" || c.Auth.SupabaseAnonKey == "" {
			errs = append(errs, errors.New("auth: supabaseUrl and supabaseAnonKey are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode: unknown %q", c.Auth.Mode))
	}
	switch c.AI.Provider {
	case "gemini":
		if c.AI.GeminiAPIKey == "" {
			errs = append(errs, errors.New("ai: geminiApiKey is required"))
		}
	case "openai":
		if c.AI.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("ai: openaiApiKey is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("ai.provider: unknown %q", c.AI.Provider))
	}
	if c.Minio.Enabled && c.Minio.Endpoint == "" {
		errs = append(errs, errors.New("minio: endpoint is required when enabled"))
	}
	return errors.Join(errs...)
}

// TierModels returns the model names per tier class, with provider defaults
// for anything left empty.
func (c *Config) TierModels() account.Models {
	m := account.Models{Standard: c.AI.StandardModel, Premium: c.AI.PremiumModel}
	std, prem := "gemini-1.5-flash", "gemini-2.0-flash-exp"
	if c.AI.Provider == "openai" {
		std, prem = "gpt-4o-mini", "gpt-4o"
	}
	if m.Standard == "" {
		m.Standard = std
	}
	if m.Premium == "" {
		m.Premium = prem
	}
	if len(c.AI.TierModels) > 0 {
		m.Overrides = make(map[account.Tier]string, len(c.AI.TierModels))
		for tier, model := range c.AI.TierModels {
			m.Overrides[account.Tier(strings.ToLower(tier))] = model
		}
	}
	return m
}

// DSN returns the connection string for the configured driver. A full
// database.url wins over the individual parts.
func (c *Config) DSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Path
	}
	if c.Database.URL != "" {
		return c.Database.URL
	}
	if c.Database.Driver == "mysql" {
		return c.MySQLDSN()
	}
	return c.PostgresDSN()
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	port := c.Database.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	port := c.Database.Port
	if port == 0 {
		port = 5432
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, port),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}
