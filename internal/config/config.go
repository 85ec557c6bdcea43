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
	Server     ServerConfig
	App        AppConfig
	Cache      CacheConfig
	AccountDB  AccountDBConfig
	BusinessDB BusinessDBConfig
	AI         AIConfig
	Analytics  AnalyticsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"stockpilot-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// CacheConfig holds cache settings. Analytics reports are cached per user
// for TTL; type "memory" avoids the Redis dependency in development.
type CacheConfig struct {
	Type string        `envconfig:"CACHE_TYPE" default:"memory"`
	TTL  time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// AccountDBConfig holds MySQL connection settings (for API key accounts).
type AccountDBConfig struct {
	Host     string `envconfig:"ACCOUNT_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"ACCOUNT_DB_PORT" default:"3306"`
	Name     string `envconfig:"ACCOUNT_DB_NAME" default:"stockpilot"`
	User     string `envconfig:"ACCOUNT_DB_USER" default:"root"`
	Password string `envconfig:"ACCOUNT_DB_PASS" default:""`
}

// BusinessDBConfig holds the business store settings (inventory, sales,
// movements, categories, insights).
type BusinessDBConfig struct {
	Type string `envconfig:"BUSINESS_DB_TYPE" default:"sqlite"` // sqlite or postgres
	Path string `envconfig:"BUSINESS_DB_PATH" default:"./data/stockpilot.db"`
	// PostgreSQL settings
	Host     string `envconfig:"BUSINESS_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"BUSINESS_DB_PORT" default:"5432"`
	Name     string `envconfig:"BUSINESS_DB_NAME" default:"stockpilot"`
	User     string `envconfig:"BUSINESS_DB_USER" default:"postgres"`
	Password string `envconfig:"BUSINESS_DB_PASS" default:""`
	SSLMode  string `envconfig:"BUSINESS_DB_SSLMODE" default:"disable"`
}

// AIConfig holds settings for the hosted language model endpoint.
// An empty API key disables the LLM path entirely; the assistant then
// answers every query through the rule-based library.
type AIConfig struct {
	APIKey   string        `envconfig:"GROQ_API_KEY" default:""`
	Model    string        `envconfig:"GROQ_MODEL" default:"llama-3.1-8b-instant"`
	Endpoint string        `envconfig:"GROQ_ENDPOINT" default:"https://api.groq.com/openai/v1/chat/completions"`
	Timeout  time.Duration `envconfig:"GROQ_TIMEOUT" default:"30s"`
}

// AnalyticsConfig holds analytics engine knobs.
type AnalyticsConfig struct {
	InventoryLimit int `envconfig:"ANALYTICS_INVENTORY_LIMIT" default:"100"`
	SalesLimit     int `envconfig:"ANALYTICS_SALES_LIMIT" default:"100"`
	MovementLimit  int `envconfig:"ANALYTICS_MOVEMENT_LIMIT" default:"200"`

	// TrendJitter enables the +/-10% perturbation of predicted revenue for
	// the 7 most recent trend days. Off by default so reports are
	// reproducible for the same snapshot.
	TrendJitter bool  `envconfig:"ANALYTICS_TREND_JITTER" default:"false"`
	JitterSeed  int64 `envconfig:"ANALYTICS_JITTER_SEED" default:"0"` // 0 = time-seeded

	// ScheduleInterval controls the background insight generation loop.
	// Zero disables the scheduler.
	ScheduleInterval time.Duration `envconfig:"ANALYTICS_SCHEDULE_INTERVAL" default:"0"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (b *BusinessDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		b.User, b.Password, b.Host, b.Port, b.Name, b.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name.
func (d *AccountDBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// Enabled reports whether the LLM path is configured.
func (a *AIConfig) Enabled() bool {
	return a.APIKey != ""
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
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
