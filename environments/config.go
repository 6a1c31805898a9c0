package environments

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/onurcolak/telegram-webhook-relay/internal/domain"
)

const (
	SessionStorageFile  = "file"
	SessionStorageSQL   = "sql"
	SessionStorageRedis = "redis"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	Server   ServerConfig
	Telegram TelegramConfig
	Session  SessionConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Webhook  WebhookConfig
	Alert    AlertConfig
	Auth     AuthConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port            string
	LoginRateLimit  int
	ShutdownTimeout time.Duration
}

type TelegramConfig struct {
	AppID     int
	AppHash   string
	ChannelID int64
}

type SessionConfig struct {
	Name    string
	Dir     string
	Storage string
}

type DatabaseConfig struct {
	Enabled  bool
	Driver   string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Path     string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type WebhookConfig struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

// HasBasicAuth reports whether outbound requests carry basic auth credentials.
func (w WebhookConfig) HasBasicAuth() bool {
	return w.Username != "" || w.Password != ""
}

type AlertConfig struct {
	WebhookURL       string
	FailureThreshold int
}

type AuthConfig struct {
	AdminAPIKey string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads the process configuration. Values from a .env file in the working
// directory are used only for keys not already present in the environment.
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		Server: ServerConfig{
			Port:            GetEnv("SERVER_PORT", "8080"),
			LoginRateLimit:  GetEnvAsInt("LOGIN_RATE_LIMIT", 5),
			ShutdownTimeout: GetEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Telegram: TelegramConfig{
			AppID:     GetEnvAsInt("API_ID", 0),
			AppHash:   GetEnv("API_HASH", ""),
			ChannelID: GetEnvAsInt64("CHANNEL_ID", 0),
		},
		Session: SessionConfig{
			Name:    GetEnv("SESSION_NAME", "session"),
			Dir:     GetEnv("SESSION_DIR", "."),
			Storage: strings.ToLower(GetEnv("SESSION_STORAGE", SessionStorageFile)),
		},
		Database: DatabaseConfig{
			Enabled:  GetEnvAsBool("DB_ENABLED", false),
			Driver:   strings.ToLower(GetEnv("DB_DRIVER", DriverMySQL)),
			Host:     GetEnv("DB_HOST", "localhost"),
			Port:     GetEnv("DB_PORT", "3306"),
			User:     GetEnv("DB_USER", "relay"),
			Password: GetEnv("DB_PASSWORD", ""),
			DBName:   GetEnv("DB_NAME", "telegram_relay"),
			Path:     GetEnv("DB_PATH", "relay.db"),
		},
		Redis: RedisConfig{
			Enabled:  GetEnvAsBool("REDIS_ENABLED", false),
			Host:     GetEnv("REDIS_HOST", "localhost"),
			Port:     GetEnv("REDIS_PORT", "6379"),
			Password: GetEnv("REDIS_PASSWORD", ""),
			DB:       GetEnvAsInt("REDIS_DB", 0),
		},
		Webhook: WebhookConfig{
			URL:      GetEnv("WEBHOOK_URL", ""),
			Username: GetEnv("WEBHOOK_USERNAME", ""),
			Password: GetEnv("WEBHOOK_PASSWORD", ""),
			Timeout:  time.Duration(GetEnvAsInt("WEBHOOK_TIMEOUT_SECONDS", 10)) * time.Second,
		},
		Alert: AlertConfig{
			WebhookURL:       GetEnv("ALERT_WEBHOOK_URL", ""),
			FailureThreshold: GetEnvAsInt("ALERT_FAILURE_THRESHOLD", 0),
		},
		Auth: AuthConfig{
			AdminAPIKey: GetEnv("ADMIN_API_KEY", ""),
		},
		Log: LogConfig{
			Level:  GetEnv("LOG_LEVEL", "info"),
			Format: GetEnv("LOG_FORMAT", "console"),
		},
	}
}

// Validate reports every missing or inconsistent value at once as a config error.
func (c *Config) Validate() error {
	var problems []string

	if c.Telegram.AppID <= 0 {
		problems = append(problems, "API_ID is required and must be a positive integer")
	}
	if strings.TrimSpace(c.Telegram.AppHash) == "" {
		problems = append(problems, "API_HASH is required")
	}
	if c.Telegram.ChannelID == 0 {
		problems = append(problems, "CHANNEL_ID is required and must be a non-zero integer")
	}

	if c.Webhook.URL == "" {
		problems = append(problems, "WEBHOOK_URL is required")
	} else if !isHTTPURL(c.Webhook.URL) {
		problems = append(problems, fmt.Sprintf("WEBHOOK_URL %q is not an absolute http(s) URL", c.Webhook.URL))
	}
	if c.Webhook.Timeout <= 0 {
		problems = append(problems, "WEBHOOK_TIMEOUT_SECONDS must be positive")
	}

	if c.Alert.WebhookURL != "" && !isHTTPURL(c.Alert.WebhookURL) {
		problems = append(problems, fmt.Sprintf("ALERT_WEBHOOK_URL %q is not an absolute http(s) URL", c.Alert.WebhookURL))
	}

	if strings.TrimSpace(c.Session.Name) == "" {
		problems = append(problems, "SESSION_NAME must not be empty")
	}

	switch c.Session.Storage {
	case SessionStorageFile:
	case SessionStorageSQL:
		if !c.Database.Enabled {
			problems = append(problems, "SESSION_STORAGE=sql requires DB_ENABLED=true")
		}
	case SessionStorageRedis:
		if !c.Redis.Enabled {
			problems = append(problems, "SESSION_STORAGE=redis requires REDIS_ENABLED=true")
		}
	default:
		problems = append(problems, fmt.Sprintf("SESSION_STORAGE %q is not supported (file, sql, redis)", c.Session.Storage))
	}

	if c.Database.Enabled && c.Database.Driver != DriverMySQL && c.Database.Driver != DriverSQLite {
		problems = append(problems, fmt.Sprintf("DB_DRIVER %q is not supported (mysql, sqlite)", c.Database.Driver))
	}

	if len(problems) > 0 {
		return domain.ConfigError(problems)
	}

	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
