package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server    ServerConfig
	App       AppConfig
	Cache     CacheConfig
	Store     StoreConfig
	IndexDB   IndexDBConfig
	Steam     SteamConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"3000"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"steamprofile-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	LoginKey    string `envconfig:"LOGIN_KEY" default:""` // Admin endpoints key
}

// CacheConfig holds TTL cache settings.
type CacheConfig struct {
	Type      string `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis
	KeyPrefix string `envconfig:"CACHE_KEY_PREFIX" default:"steamprofile:"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// StoreConfig holds canonical document store settings.
type StoreConfig struct {
	DataDir string `envconfig:"STORE_DATA_DIR" default:"./steam"`
}

// IndexDBConfig holds alias index database settings.
type IndexDBConfig struct {
	Type string `envconfig:"INDEX_DB_TYPE" default:"sqlite"` // sqlite, postgres, or mysql
	Path string `envconfig:"INDEX_DB_PATH" default:"./data/aliases.db"`
	// PostgreSQL / MySQL settings
	Host     string `envconfig:"INDEX_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"INDEX_DB_PORT" default:"5432"`
	Name     string `envconfig:"INDEX_DB_NAME" default:"steamprofile"`
	User     string `envconfig:"INDEX_DB_USER" default:"postgres"`
	Password string `envconfig:"INDEX_DB_PASS" default:""`
	SSLMode  string `envconfig:"INDEX_DB_SSLMODE" default:"disable"`

	SyncInterval time.Duration `envconfig:"INDEX_SYNC_INTERVAL" default:"1h"`
}

// SteamConfig holds upstream endpoints and refresh policy timings.
type SteamConfig struct {
	APIKey           string        `envconfig:"STEAM_API_KEY" default:""`
	APIBaseURL       string        `envconfig:"STEAM_API_BASE_URL" default:"https://api.steampowered.com"`
	CommunityBaseURL string        `envconfig:"STEAM_COMMUNITY_BASE_URL" default:"https://steamcommunity.com"`
	HTTPTimeout      time.Duration `envconfig:"STEAM_HTTP_TIMEOUT" default:"15s"`
	MinCallInterval  time.Duration `envconfig:"STEAM_MIN_CALL_INTERVAL" default:"1500ms"`
	SnapshotTTL      time.Duration `envconfig:"STEAM_SNAPSHOT_TTL" default:"60s"`
	StatusCooldown   time.Duration `envconfig:"STEAM_STATUS_COOLDOWN" default:"30s"`
	ResolveRetries   uint64        `envconfig:"STEAM_RESOLVE_RETRIES" default:"2"`
}

// RateLimitConfig holds the client-facing request limit.
type RateLimitConfig struct {
	Window time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"3s"`
	Burst  int           `envconfig:"RATE_LIMIT_BURST" default:"1"`

	// TrustProxy keys clients on X-Forwarded-For/X-Real-IP. Enable only
	// behind a proxy that overwrites those headers.
	TrustProxy bool `envconfig:"RATE_LIMIT_TRUST_PROXY" default:"false"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (i *IndexDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		i.User, i.Password, i.Host, i.Port, i.Name, i.SSLMode)
}

// MySQLDSN returns the MySQL data source name.
func (i *IndexDBConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		i.User, i.Password, i.Host, i.Port, i.Name)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (a *AppConfig) IsProduction() bool {
	return a.Environment == "production"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
