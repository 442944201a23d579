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
	Server   ServerConfig
	App      AppConfig
	Market   MarketConfig
	Watch    WatchConfig
	Notify   NotifyConfig
	Telegram TelegramConfig
	ItemDB   ItemDBConfig
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
	Name        string `envconfig:"APP_NAME" default:"bdo-market-watch"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Debug       bool   `envconfig:"APP_DEBUG" default:"false"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
}

// MarketConfig holds marketplace API settings.
type MarketConfig struct {
	BaseURL      string        `envconfig:"MARKET_BASE_URL" default:"https://api.arsha.io"`
	Region       string        `envconfig:"MARKET_REGION" default:"na"`
	Language     string        `envconfig:"MARKET_LANGUAGE" default:"en"`
	FetchTimeout time.Duration `envconfig:"MARKET_FETCH_TIMEOUT" default:"10s"`
}

// WatchConfig holds poll scheduler settings.
type WatchConfig struct {
	Interval  time.Duration `envconfig:"WATCH_INTERVAL" default:"5m"`
	PaceDelay time.Duration `envconfig:"WATCH_PACE_DELAY" default:"500ms"`
}

// NotifyConfig holds notification channel settings.
// An empty webhook URL disables notifications; that is not an error.
type NotifyConfig struct {
	WebhookURL string `envconfig:"NOTIFY_WEBHOOK_URL" default:""`
}

// TelegramConfig holds the optional chat-command bot settings.
// An empty token disables the bot.
type TelegramConfig struct {
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN" default:""`
}

// ItemDBConfig holds tracked-item store settings.
type ItemDBConfig struct {
	Type string `envconfig:"ITEM_DB_TYPE" default:"sqlite"` // sqlite, mysql, redis, or jsonfile
	Path string `envconfig:"ITEM_DB_PATH" default:"./data/items.db"`
	// JSON file settings
	JSONPath string `envconfig:"ITEM_DB_JSON_PATH" default:"./data/items.json"`
	// MySQL settings
	MySQLHost     string `envconfig:"ITEM_DB_MYSQL_HOST" default:"localhost"`
	MySQLPort     int    `envconfig:"ITEM_DB_MYSQL_PORT" default:"3306"`
	MySQLName     string `envconfig:"ITEM_DB_MYSQL_NAME" default:"marketwatch"`
	MySQLUser     string `envconfig:"ITEM_DB_MYSQL_USER" default:"root"`
	MySQLPassword string `envconfig:"ITEM_DB_MYSQL_PASS" default:""`
	// Redis settings
	RedisHost     string `envconfig:"ITEM_DB_REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"ITEM_DB_REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"ITEM_DB_REDIS_PASS" default:""`
	RedisDB       int    `envconfig:"ITEM_DB_REDIS_DB" default:"0"`
	RedisKey      string `envconfig:"ITEM_DB_REDIS_KEY" default:"marketwatch:items"`
}

// MySQLDSN returns the MySQL data source name.
func (i *ItemDBConfig) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		i.MySQLUser, i.MySQLPassword, i.MySQLHost, i.MySQLPort, i.MySQLName)
}

// RedisAddress returns the Redis address in host:port format.
func (i *ItemDBConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", i.RedisHost, i.RedisPort)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
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
