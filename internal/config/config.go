package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
	Redis   RedisConfig   `yaml:"redis"`
	Scoring ScoringConfig `yaml:"scoring"`
	Sync    SyncConfig    `yaml:"sync"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Live    LiveConfig    `yaml:"live"`
	Export  ExportConfig  `yaml:"export"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
}

// StoreConfig selects the persistence backend. Postgres wins over SQLite, SQLite over memory.
type StoreConfig struct {
	PostgresDSN        string `yaml:"postgres_dsn"`
	PostgresMigrations string `yaml:"postgres_migrations"`
	SQLitePath         string `yaml:"sqlite_path"`
	SQLiteMigrations   string `yaml:"sqlite_migrations"`
}

// Driver reports which backend the store settings select.
func (c StoreConfig) Driver() string {
	switch {
	case strings.TrimSpace(c.PostgresDSN) != "":
		return "postgres"
	case strings.TrimSpace(c.SQLitePath) != "":
		return "sqlite"
	}
	return "memory"
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CacheTTL     time.Duration `yaml:"cache_ttl"`
}

// ScoringConfig points at the remote scoring API that owns season and game data
type ScoringConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// SyncConfig holds synchronization worker configuration
type SyncConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
}

// KafkaConfig holds Kafka consumer configuration
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// LiveConfig holds websocket standings feed configuration
type LiveConfig struct {
	Enabled    bool          `yaml:"enabled"`
	WriteWait  time.Duration `yaml:"write_wait"`
	PongWait   time.Duration `yaml:"pong_wait"`
	SendBuffer int           `yaml:"send_buffer"`
}

// ExportConfig holds object storage configuration for standings snapshots
type ExportConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccountID       string `yaml:"account_id"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PublicURL       string `yaml:"public_url"`
}

// LoadEnv reads .env files for local runs. Missing files are ignored.
func LoadEnv() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") == "" {
		_ = godotenv.Load(".env", ".env.local")
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

// applyEnv lets the deployment environment override the file
func (c *Config) applyEnv() {
	overrides := []struct {
		key    string
		target *string
	}{
		{"POSTGRES_DSN", &c.Store.PostgresDSN},
		{"POSTGRES_MIGRATIONS_DIR", &c.Store.PostgresMigrations},
		{"DB_PATH", &c.Store.SQLitePath},
		{"DB_MIGRATIONS_DIR", &c.Store.SQLiteMigrations},
		{"SCORING_BASE_URL", &c.Scoring.BaseURL},
		{"SCORING_TOKEN", &c.Scoring.Token},
		{"LOG_LEVEL", &c.Log.Level},
		{"EXPORT_BUCKET", &c.Export.Bucket},
		{"EXPORT_REGION", &c.Export.Region},
		{"EXPORT_PUBLIC_URL", &c.Export.PublicURL},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.key)); v != "" {
			*o.target = v
		}
	}
	if strings.TrimSpace(os.Getenv("EXPORT_BUCKET")) != "" {
		c.Export.Enabled = true
	}
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.CacheTTL == 0 {
		c.Redis.CacheTTL = 5 * time.Minute
	}

	if c.Scoring.Timeout == 0 {
		c.Scoring.Timeout = 10 * time.Second
	}

	if c.Sync.Interval == 0 {
		c.Sync.Interval = 15 * time.Minute
	}
	if c.Sync.Concurrency == 0 {
		c.Sync.Concurrency = 4
	}

	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "match-results"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "unostat-standings"
	}

	if c.Live.WriteWait == 0 {
		c.Live.WriteWait = 10 * time.Second
	}
	if c.Live.PongWait == 0 {
		c.Live.PongWait = 60 * time.Second
	}
	if c.Live.SendBuffer == 0 {
		c.Live.SendBuffer = 64
	}

	if c.Export.Region == "" {
		c.Export.Region = "auto"
	}
}

// NewLogger builds the process logger from the log section
func (c LogConfig) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
