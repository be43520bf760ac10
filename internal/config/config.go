package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Watchlist backend names
const (
	BackendNotion   = "notion"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Notification format names
const (
	FormatEmbed = "embed"
	FormatText  = "text"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Watchlist WatchlistConfig
	Notion    NotionConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Discord   DiscordConfig
	Chart     ChartConfig
	Alert     AlertConfig
	Kafka     KafkaConfig

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string        `env:"SERVER_PORT,default=8080"`
	Host            string        `env:"SERVER_HOST,default=0.0.0.0"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT,default=10s"`
}

// WatchlistConfig selects where watchlist entries are read from
type WatchlistConfig struct {
	Backend string `env:"WATCHLIST_BACKEND,default=notion"`
}

// NotionConfig holds Notion database credentials
type NotionConfig struct {
	APIKey     string `env:"NOTION_API_KEY"`
	DatabaseID string `env:"NOTION_WATCHLIST_DB"`
	BaseURL    string `env:"NOTION_BASE_URL,default=https://api.notion.com"`
	Version    string `env:"NOTION_VERSION,default=2022-06-28"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string `env:"DB_HOST,default=localhost"`
	Port           string `env:"DB_PORT,default=5432"`
	User           string `env:"DB_USER,default=postgres"`
	Password       string `env:"DB_PASSWORD,default=postgres"`
	DBName         string `env:"DB_NAME,default=watchlist"`
	SSLMode        string `env:"DB_SSLMODE,default=disable"`
	AutoMigrate    bool   `env:"DB_AUTO_MIGRATE,default=false"`
	MigrationsPath string `env:"DB_MIGRATIONS_PATH,default=db/migrations"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr      string `env:"REDIS_ADDR,default=localhost:6379"`
	Password  string `env:"REDIS_PASSWORD"`
	DB        int    `env:"REDIS_DB,default=0"`
	KeyPrefix string `env:"REDIS_KEY_PREFIX,default=watchlist:"`
}

// DiscordConfig holds the notification webhook
type DiscordConfig struct {
	WebhookURL string `env:"DISCORD_WEBHOOK_URL,required"`
}

// ChartConfig holds chart image service settings. An empty APIKey disables chart fetching.
type ChartConfig struct {
	APIKey   string `env:"CHART_API_KEY"`
	BaseURL  string `env:"CHART_BASE_URL,default=https://api.chart-img.com"`
	Interval string `env:"CHART_INTERVAL,default=4h"`
	Width    int    `env:"CHART_WIDTH,default=800"`
	Height   int    `env:"CHART_HEIGHT,default=600"`
}

// AlertConfig holds formatting and relay behaviour
type AlertConfig struct {
	Format          string        `env:"ALERT_FORMAT,default=embed"`
	StaleAfter      time.Duration `env:"ALERT_STALE_AFTER,default=168h"`
	ChartLinkBase   string        `env:"ALERT_CHART_LINK_BASE,default=https://www.tradingview.com/chart/?symbol="`
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT,default=5s"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled     bool     `env:"KAFKA_ENABLED,default=false"`
	Brokers     []string `env:"KAFKA_BROKERS,default=localhost:9092"`
	AlertsTopic string   `env:"KAFKA_ALERTS_TOPIC,default=price-alerts"`
	EventsTopic string   `env:"KAFKA_EVENTS_TOPIC,default=alert-events"`
	GroupID     string   `env:"KAFKA_GROUP_ID,default=watchlist-alert-relay"`
}

// Load reads configuration from the environment, after loading a .env file if one exists
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings required by the selected backend and format
func (c *Config) Validate() error {
	var errs []error

	switch c.Watchlist.Backend {
	case BackendNotion:
		if c.Notion.APIKey == "" {
			errs = append(errs, errors.New("NOTION_API_KEY is required for the notion backend"))
		}
		if c.Notion.DatabaseID == "" {
			errs = append(errs, errors.New("NOTION_WATCHLIST_DB is required for the notion backend"))
		}
	case BackendPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			errs = append(errs, errors.New("DB_HOST and DB_NAME are required for the postgres backend"))
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required for the redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown WATCHLIST_BACKEND %q", c.Watchlist.Backend))
	}

	if c.Alert.Format != FormatEmbed && c.Alert.Format != FormatText {
		errs = append(errs, fmt.Errorf("unknown ALERT_FORMAT %q", c.Alert.Format))
	}
	if c.Alert.StaleAfter <= 0 {
		errs = append(errs, errors.New("ALERT_STALE_AFTER must be positive"))
	}
	if c.Alert.UpstreamTimeout <= 0 {
		errs = append(errs, errors.New("UPSTREAM_TIMEOUT must be positive"))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is set"))
	}

	return errors.Join(errs...)
}

// Addr returns the HTTP listen address
func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Enabled reports whether chart images should be requested
func (c *ChartConfig) Enabled() bool {
	return c.APIKey != ""
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}
