package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// Supported database drivers
const (
	PostgresDriver = "postgres"
	SqliteDriver   = "sqlite"
)

// DBConfig holds database configuration
type DBConfig struct {
	Driver          string
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the connection string. An explicit DB_DSN wins over the
// discrete postgres settings.
func (c *DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	if c.Driver == SqliteDriver {
		return "aoe.db"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port   string
	Env    string
	AppURL string
}

// IsProduction reports whether the service runs in production mode
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// PayPhoneConfig holds the raw payment gateway settings. Resolution into
// endpoints happens in the payphone package.
type PayPhoneConfig struct {
	Token         string
	StoreID       string
	ProxyURL      string
	ProxySecret   string
	LinksURL      string
	SaleURL       string
	ConfirmURL    string
	WebhookSecret string
	N8NSecret     string
	Timeout       time.Duration
}

// N8NConfig holds the automation webhook settings
type N8NConfig struct {
	WebhookURL    string
	WebhookSecret string
}

// EmailConfig holds transactional email settings
type EmailConfig struct {
	ResendAPIKey string
	From         string `validate:"required"`
	ContactTo    string `validate:"required,email"`
}

// StorageConfig holds document storage settings
type StorageConfig struct {
	Driver         string `validate:"oneof=local supabase"`
	LocalDir       string
	SupabaseURL    string `validate:"required_if=Driver supabase"`
	ServiceRoleKey string `validate:"required_if=Driver supabase"`
	Bucket         string `validate:"required"`
}

// BotConfig holds the external bot API settings
type BotConfig struct {
	APISecret string
	RateLimit int
	Window    time.Duration
	RedisURL  string
}

// GoogleConfig holds OAuth client settings for Google sign-in
type GoogleConfig struct {
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`
	RedirectURL  string `validate:"required,url"`
}

// Enabled reports whether Google sign-in has been configured
func (g GoogleConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// ReconcileConfig holds the background reconciliation schedule
type ReconcileConfig struct {
	Schedule string
	MinAge   time.Duration
}

// Config holds all configuration
type Config struct {
	DB        DBConfig
	Server    ServerConfig
	JWT       JWTConfig
	Log       LogConfig
	Metrics   MetricsConfig
	PayPhone  PayPhoneConfig
	N8N       N8NConfig
	Email     EmailConfig
	Storage   StorageConfig
	Bot       BotConfig
	Google    GoogleConfig
	Reconcile ReconcileConfig
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		DB: DBConfig{
			Driver:          getEnv("DB_DRIVER", PostgresDriver),
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			DBName:          getEnv("DB_NAME", "aoe"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:   getEnv("PORT", "8080"),
			Env:    getEnv("ENV", "development"),
			AppURL: strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SECRET", "aoe-dev-secret"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 72),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 50),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 30),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvAsBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
		PayPhone: PayPhoneConfig{
			Token:         getEnv("PAYPHONE_TOKEN", ""),
			StoreID:       getEnv("PAYPHONE_STORE_ID", ""),
			ProxyURL:      getEnv("PAYPHONE_PROXY_URL", ""),
			ProxySecret:   getEnv("PAYPHONE_PROXY_SECRET", ""),
			LinksURL:      getEnv("PAYPHONE_LINKS_URL", ""),
			SaleURL:       getEnv("PAYPHONE_SALE_URL", ""),
			ConfirmURL:    getEnv("PAYPHONE_CONFIRM_URL", ""),
			WebhookSecret: getEnv("PAYPHONE_WEBHOOK_SECRET", ""),
			N8NSecret:     getEnv("N8N_PAYPHONE_SECRET", ""),
			Timeout:       getEnvAsDuration("PAYPHONE_TIMEOUT", 15*time.Second),
		},
		N8N: N8NConfig{
			WebhookURL:    getEnv("N8N_WEBHOOK_URL", ""),
			WebhookSecret: getEnv("N8N_WEBHOOK_SECRET", ""),
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "Abogados Online Ecuador <contratos@abogadosonlineecuador.com>"),
			ContactTo:    getEnv("CONTACT_EMAIL_TO", "info@abogadosonlineecuador.com"),
		},
		Storage: StorageConfig{
			Driver:         getEnv("STORAGE_DRIVER", "local"),
			LocalDir:       getEnv("STORAGE_LOCAL_DIR", "./data/documents"),
			SupabaseURL:    strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
			ServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			Bucket:         getEnv("SUPABASE_BUCKET", "documents"),
		},
		Bot: BotConfig{
			APISecret: getEnv("BOT_API_SECRET", ""),
			RateLimit: getEnvAsInt("BOT_RATE_LIMIT", 200),
			Window:    getEnvAsDuration("BOT_RATE_WINDOW", time.Minute),
			RedisURL:  getEnv("REDIS_URL", ""),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		},
		Reconcile: ReconcileConfig{
			Schedule: getEnv("RECONCILE_SCHEDULE", "@every 2m"),
			MinAge:   getEnvAsDuration("RECONCILE_MIN_AGE", 2*time.Minute),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the settings blocks that must be complete when their
// feature is enabled
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c.Storage); err != nil {
		return fmt.Errorf("validation failed for storage settings: %w", err)
	}
	if err := validate.Struct(c.Email); err != nil {
		return fmt.Errorf("validation failed for email settings: %w", err)
	}
	if c.Google.Enabled() {
		if err := validate.Struct(c.Google); err != nil {
			return fmt.Errorf("validation failed for google settings: %w", err)
		}
	}
	if c.DB.Driver != PostgresDriver && c.DB.Driver != SqliteDriver {
		return fmt.Errorf("unsupported database driver: %s", c.DB.Driver)
	}
	return nil
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("environment", c.Server.Env),
		zap.String("db_driver", c.DB.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.String("storage_driver", c.Storage.Driver),
		zap.Bool("payphone_proxy", c.PayPhone.ProxyURL != ""),
		zap.Bool("google_oauth", c.Google.Enabled()),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
