package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Identity      IdentityConfig      `yaml:"identity"`
	Session       SessionConfig       `yaml:"session"`
	AccessLog     AccessLogConfig     `yaml:"access_log"`
	Guard         GuardConfig         `yaml:"guard"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`

	// BaseURL is the externally visible origin, used to build identity
	// redirect and callback URLs
	BaseURL string `yaml:"base_url"`

	// DefaultLanding is where users go after callback without a
	// correlation token, and after sign-out
	DefaultLanding string `yaml:"default_landing"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds registry cache configuration
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"ttl"`
}

// IdentityConfig holds identity provider configuration. The OIDC provider
// is the default "direct" flow; federated services carry their own SAML
// descriptors in the registry.
type IdentityConfig struct {
	OIDCIssuerURL    string   `yaml:"oidc_issuer_url"`
	OIDCClientID     string   `yaml:"oidc_client_id"`
	OIDCClientSecret string   `yaml:"oidc_client_secret"`
	OIDCScopes       []string `yaml:"oidc_scopes"`
}

// SessionConfig holds session management configuration
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	CookieSecure  bool          `yaml:"cookie_secure"`
	SweepSchedule string        `yaml:"sweep_schedule"` // cron expression
}

// AccessLogConfig holds access trail configuration
type AccessLogConfig struct {
	// FilePath enables a secondary JSONL destination when non-empty
	FilePath string `yaml:"file_path"`

	// S3 export settings (exports are triggered by the admin API)
	S3Bucket       string `yaml:"s3_bucket"`
	S3Region       string `yaml:"s3_region"`
	S3Endpoint     string `yaml:"s3_endpoint"`
	S3AccessKey    string `yaml:"s3_access_key"`
	S3SecretKey    string `yaml:"s3_secret_key"`
	S3UsePathStyle bool   `yaml:"s3_use_path_style"`
	S3KeyPrefix    string `yaml:"s3_key_prefix"`
}

// GuardConfig holds authorization guard configuration
type GuardConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// LoadConfig loads configuration from environment variables. When path is
// non-empty the YAML file is applied over the environment values.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("PORTAL_HOST", "0.0.0.0"),
			Port:            getEnv("PORTAL_PORT", "8080"),
			ReadTimeout:     getEnvDuration("PORTAL_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("PORTAL_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("PORTAL_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("PORTAL_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("PORTAL_HEALTH_PORT", "9090"),
			BaseURL:         getEnv("PORTAL_BASE_URL", "http://localhost:8080"),
			DefaultLanding:  getEnv("PORTAL_DEFAULT_LANDING", "/"),
		},
		Database: DatabaseConfig{
			URL:          getEnv("PORTAL_POSTGRES_URL", ""),
			MaxOpenConns: getEnvInt("PORTAL_POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("PORTAL_POSTGRES_MAX_IDLE_CONNS", 5),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("PORTAL_REDIS_ENABLED", false),
			Addr:     getEnv("PORTAL_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("PORTAL_REDIS_PASSWORD", ""),
			TTL:      getEnvDuration("PORTAL_REDIS_TTL", 5*time.Minute),
		},
		Identity: IdentityConfig{
			OIDCIssuerURL:    getEnv("PORTAL_OIDC_ISSUER_URL", ""),
			OIDCClientID:     getEnv("PORTAL_OIDC_CLIENT_ID", ""),
			OIDCClientSecret: getEnv("PORTAL_OIDC_CLIENT_SECRET", ""),
			OIDCScopes:       getEnvList("PORTAL_OIDC_SCOPES", []string{"openid", "profile", "email"}),
		},
		Session: SessionConfig{
			TTL:           getEnvDuration("PORTAL_SESSION_TTL", 24*time.Hour),
			CookieSecure:  getEnvBool("PORTAL_SESSION_COOKIE_SECURE", true),
			SweepSchedule: getEnv("PORTAL_SESSION_SWEEP_SCHEDULE", "@hourly"),
		},
		AccessLog: AccessLogConfig{
			FilePath:       getEnv("PORTAL_ACCESS_LOG_FILE", ""),
			S3Bucket:       getEnv("PORTAL_ACCESS_LOG_S3_BUCKET", ""),
			S3Region:       getEnv("PORTAL_ACCESS_LOG_S3_REGION", "us-east-1"),
			S3Endpoint:     getEnv("PORTAL_ACCESS_LOG_S3_ENDPOINT", ""),
			S3AccessKey:    getEnv("PORTAL_ACCESS_LOG_S3_ACCESS_KEY", ""),
			S3SecretKey:    getEnv("PORTAL_ACCESS_LOG_S3_SECRET_KEY", ""),
			S3UsePathStyle: getEnvBool("PORTAL_ACCESS_LOG_S3_PATH_STYLE", false),
			S3KeyPrefix:    getEnv("PORTAL_ACCESS_LOG_S3_KEY_PREFIX", "access-exports"),
		},
		Guard: GuardConfig{
			CacheTTL: getEnvDuration("PORTAL_GUARD_CACHE_TTL", 30*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:           getEnv("PORTAL_LOG_LEVEL", "info"),
			MetricsEnabled:     getEnvBool("PORTAL_METRICS_ENABLED", true),
			OTelEnabled:        getEnvBool("PORTAL_OTEL_ENABLED", false),
			OTelEndpoint:       getEnv("PORTAL_OTEL_ENDPOINT", "localhost:4317"),
			OTelServiceName:    getEnv("PORTAL_OTEL_SERVICE_NAME", "portal"),
			OTelServiceVersion: getEnv("PORTAL_OTEL_SERVICE_VERSION", "dev"),
			OTelInsecure:       getEnvBool("PORTAL_OTEL_INSECURE", true),
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks required configuration values
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("PORTAL_POSTGRES_URL is required")
	}
	if c.Server.BaseURL == "" {
		return fmt.Errorf("PORTAL_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Server.DefaultLanding, "/") {
		return fmt.Errorf("PORTAL_DEFAULT_LANDING must be an absolute path")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("PORTAL_SESSION_TTL must be positive")
	}
	return nil
}

// CallbackURL returns the callback endpoint registered with the identity
// provider
func (c *Config) CallbackURL() string {
	return strings.TrimRight(c.Server.BaseURL, "/") + "/auth/callback"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultVal
}
