// internal/pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/ammerola/pos-engine/internal/pkg/locale"
)

// ErrMissingRequiredConfig is returned when a required value is empty or a placeholder.
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Config holds all application configuration
type Config struct {
	App            AppConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	Asynq          AsynqConfig
	AWS            AWSConfig
	FileProcessing FileProcessingConfig
	Security       SecurityConfig
	Server         ServerConfig
	POS            POSConfig
	Notification   NotificationConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name             string `required:"true"`
	Environment      string // development, staging, production
	Version          string
	LogLevel         string
	LogFormat        string // json, text
	ElasticsearchURL string
	Debug            bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string `required:"true"`
	User               string `required:"true"`
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
	AutoMigrate        bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string `required:"true"`
	Port         string `required:"true"`
	Password     string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration
	TTL          time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
}

// AWSConfig holds AWS configuration. S3 keeps archived invoices and exports.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string // For MinIO in development
	UsePathStyle    bool   // For MinIO compatibility
	ArchiveInvoices bool
	SecretName      string
}

// FileProcessingConfig holds catalog import/export configuration
type FileProcessingConfig struct {
	PDFMaxSizeMB      int
	ExcelMaxSizeMB    int
	ProcessingTimeout time.Duration
	TempDir           string
	CleanupInterval   time.Duration
}

// UploadDir is where the API stores catalog uploads until a worker imports them.
func (c FileProcessingConfig) UploadDir() string {
	return filepath.Join(c.TempDir, "pos-uploads")
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	SecureHeaders     bool
	RequestIDHeader   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string `required:"true"`
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	GracefulTimeout time.Duration
	RequestTimeout  time.Duration
	TLSEnabled      bool
	TLSCertFile     string
	TLSKeyFile      string
}

// POSConfig holds the point-of-sale settings handed to the engine at construction.
type POSConfig struct {
	TaxRate           decimal.Decimal
	Currency          string
	Language          string
	LowStockThreshold int
	PrintCommand      string
	AutoPrint         bool
	InvoiceDir        string
	CartTTL           time.Duration
	ProductCacheTTL   time.Duration
	HistoryLimit      int
}

// NotificationConfig holds the SMTP relay used for low-stock alerts.
// With no SMTPHost alerts are only logged.
type NotificationConfig struct {
	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	From            string
	AlertRecipients []string
}

// Load loads configuration from the environment, reading .env first in development.
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Debug("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	e := envReader{v: v}

	taxRate, err := decimal.NewFromString(e.str("POS_TAX_RATE", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid POS_TAX_RATE: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:             e.str("APP_NAME", "pos-engine"),
			Environment:      env,
			Version:          e.str("APP_VERSION", "dev"),
			LogLevel:         e.str("LOG_LEVEL", "info"),
			LogFormat:        e.str("LOG_FORMAT", "json"),
			ElasticsearchURL: e.str("LOG_ELASTICSEARCH_URL", ""),
			Debug:            e.boolean("APP_DEBUG", env == "development"),
		},
		Database: DatabaseConfig{
			Host:               e.str("DB_HOST", "localhost"),
			Port:               e.str("DB_PORT", "5432"),
			User:               e.str("DB_USER", "pos"),
			Password:           e.str("DB_PASSWORD", "pos_dev"),
			Name:               e.str("DB_NAME", "pos_engine"),
			SSLMode:            e.str("DB_SSL_MODE", "disable"),
			MaxConnections:     int32(e.integer("DB_MAX_CONNECTIONS", 20)),
			MinConnections:     int32(e.integer("DB_MIN_CONNECTIONS", 2)),
			MaxConnLifetime:    e.duration("DB_CONNECTION_LIFETIME", time.Hour),
			MaxConnIdleTime:    e.duration("DB_IDLE_TIME", 30*time.Minute),
			HealthCheckPeriod:  e.duration("DB_HEALTH_CHECK_PERIOD", time.Minute),
			ConnectTimeout:     e.duration("DB_CONNECT_TIMEOUT", 10*time.Second),
			EnableQueryLogging: e.boolean("DB_QUERY_LOGGING", false),
			AutoMigrate:        e.boolean("DB_AUTO_MIGRATE", env != "production"),
		},
		Redis: RedisConfig{
			Host:         e.str("REDIS_HOST", "localhost"),
			Port:         e.str("REDIS_PORT", "6379"),
			Password:     e.str("REDIS_PASSWORD", ""),
			DB:           e.integer("REDIS_DB", 0),
			MaxRetries:   e.integer("REDIS_MAX_RETRIES", 3),
			DialTimeout:  e.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  e.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: e.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolSize:     e.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: e.integer("REDIS_MIN_IDLE_CONNS", 2),
			PoolTimeout:  e.duration("REDIS_POOL_TIMEOUT", 4*time.Second),
			TTL:          e.duration("REDIS_TTL", time.Hour),
		},
		Asynq: AsynqConfig{
			RedisAddr:       fmt.Sprintf("%s:%s", e.str("REDIS_HOST", "localhost"), e.str("REDIS_PORT", "6379")),
			RedisPassword:   e.str("REDIS_PASSWORD", ""),
			RedisDB:         e.integer("ASYNQ_REDIS_DB", 0),
			Concurrency:     e.integer("ASYNQ_CONCURRENCY", 10),
			Queues:          parseQueues(e.str("ASYNQ_QUEUES", "critical:6,default:3,low:1")),
			StrictPriority:  e.boolean("ASYNQ_STRICT_PRIORITY", false),
			RetryMax:        e.integer("ASYNQ_RETRY_MAX", 3),
			ShutdownTimeout: e.duration("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		AWS: AWSConfig{
			Region:          e.str("AWS_REGION", "us-east-1"),
			AccessKeyID:     e.str("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: e.str("AWS_SECRET_ACCESS_KEY", ""),
			S3Bucket:        e.str("AWS_S3_BUCKET", "pos-invoices"),
			S3Endpoint:      e.str("AWS_S3_ENDPOINT", ""),
			UsePathStyle:    e.boolean("AWS_S3_PATH_STYLE", env == "development"),
			ArchiveInvoices: e.boolean("AWS_S3_ARCHIVE_INVOICES", false),
			SecretName:      e.str("AWS_SECRET_NAME", ""),
		},
		FileProcessing: FileProcessingConfig{
			PDFMaxSizeMB:      e.integer("PDF_MAX_SIZE_MB", 20),
			ExcelMaxSizeMB:    e.integer("EXCEL_MAX_SIZE_MB", 20),
			ProcessingTimeout: e.duration("PROCESSING_TIMEOUT", 5*time.Minute),
			TempDir:           e.str("TEMP_DIR", os.TempDir()),
			CleanupInterval:   e.duration("CLEANUP_INTERVAL", time.Hour),
		},
		Security: SecurityConfig{
			RateLimitRequests: e.integer("RATE_LIMIT_REQUESTS", 100),
			RateLimitDuration: e.duration("RATE_LIMIT_DURATION", time.Minute),
			AllowedOrigins:    e.slice("ALLOWED_ORIGINS", []string{"*"}),
			SecureHeaders:     e.boolean("SECURE_HEADERS", env == "production"),
			RequestIDHeader:   e.str("REQUEST_ID_HEADER", "X-Request-ID"),
		},
		Server: ServerConfig{
			Host:            e.str("SERVER_HOST", "0.0.0.0"),
			Port:            e.str("SERVER_PORT", "8080"),
			ReadTimeout:     e.duration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    e.duration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     e.duration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			MaxHeaderBytes:  e.integer("SERVER_MAX_HEADER_BYTES", 1<<20),
			GracefulTimeout: e.duration("SERVER_GRACEFUL_TIMEOUT", 30*time.Second),
			RequestTimeout:  e.duration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			TLSEnabled:      e.boolean("TLS_ENABLED", false),
			TLSCertFile:     e.str("TLS_CERT_FILE", ""),
			TLSKeyFile:      e.str("TLS_KEY_FILE", ""),
		},
		POS: POSConfig{
			TaxRate:           taxRate,
			Currency:          strings.ToUpper(e.str("POS_CURRENCY", locale.DefaultCurrency)),
			Language:          strings.ToLower(e.str("POS_LANGUAGE", locale.DefaultLanguage)),
			LowStockThreshold: e.integer("POS_LOW_STOCK_THRESHOLD", 5),
			PrintCommand:      e.str("POS_PRINT_COMMAND", "lp"),
			AutoPrint:         e.boolean("POS_AUTO_PRINT", false),
			InvoiceDir:        e.str("POS_INVOICE_DIR", "invoices"),
			CartTTL:           e.duration("POS_CART_TTL", 12*time.Hour),
			ProductCacheTTL:   e.duration("POS_PRODUCT_CACHE_TTL", 5*time.Minute),
			HistoryLimit:      e.integer("POS_HISTORY_LIMIT", 100),
		},
		Notification: NotificationConfig{
			SMTPHost:        e.str("SMTP_HOST", ""),
			SMTPPort:        e.str("SMTP_PORT", "587"),
			SMTPUsername:    e.str("SMTP_USERNAME", ""),
			SMTPPassword:    e.str("SMTP_PASSWORD", ""),
			From:            e.str("ALERT_FROM", "pos-engine@localhost"),
			AlertRecipients: e.slice("ALERT_RECIPIENTS", nil),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate runs the basic validator, plus the production validator in production.
func (c *Config) Validate() error {
	if err := (&BasicValidator{}).Validate(c); err != nil {
		return err
	}
	if c.IsProduction() {
		return (&ProductionValidator{}).Validate(c)
	}
	return nil
}

// DatabaseURL returns the formatted database connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// RedisAddr returns host:port for the redis server.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// ServerAddress returns the formatted server address
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

// envReader resolves keys through viper's automatic environment binding.
// Unparseable values fall back to the default.
type envReader struct {
	v *viper.Viper
}

func (e envReader) str(key, defaultValue string) string {
	if value := strings.TrimSpace(e.v.GetString(key)); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) boolean(key string, defaultValue bool) bool {
	if b, err := strconv.ParseBool(e.str(key, "")); err == nil {
		return b
	}
	return defaultValue
}

func (e envReader) integer(key string, defaultValue int) int {
	if i, err := strconv.Atoi(e.str(key, "")); err == nil {
		return i
	}
	return defaultValue
}

func (e envReader) duration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(e.str(key, "")); err == nil {
		return d
	}
	return defaultValue
}

func (e envReader) slice(key string, defaultValue []string) []string {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(queuesStr, ",") {
		name, prio, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		priority, err := strconv.Atoi(strings.TrimSpace(prio))
		if err == nil {
			queues[strings.TrimSpace(name)] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
