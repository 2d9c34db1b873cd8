package config

import (
	"errors"
	"sync"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	AppPort               int    `mapstructure:"APP_PORT"`
	BcryptCost            int    `mapstructure:"BCRYPT_COST"`
	SignInRatePerMin      int    `mapstructure:"SIGNIN_RATE_PER_MIN"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDBName           string `mapstructure:"MONGO_DB_NAME"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	JWTExpiryHours        int    `mapstructure:"JWT_EXPIRY_HOURS"`
	OTPTTLMinutes         int    `mapstructure:"OTP_TTL_MINUTES"`
	RequestLoggingEnabled bool   `mapstructure:"REQUEST_LOGGING_ENABLED"`
	RouteMetricsEnabled   bool   `mapstructure:"ROUTE_METRICS_ENABLED"`
	WSMaxSessionSec       int    `mapstructure:"WS_MAX_SESSION_SEC"`
	WSOutboxBuffer        int    `mapstructure:"WS_OUTBOX_BUFFER"`

	S3Region          string `mapstructure:"S3_REGION"`
	S3Bucket          string `mapstructure:"S3_BUCKET"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`
	S3SessionToken    string `mapstructure:"S3_SESSION_TOKEN"`
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3PublicBaseURL   string `mapstructure:"S3_PUBLIC_BASE_URL"`
	S3PresignTTLSec   int    `mapstructure:"S3_PRESIGN_TTL_SEC"`
	UploadMaxBytes    int    `mapstructure:"UPLOAD_MAX_BYTES"`
	BlobDeleteTimeout int    `mapstructure:"BLOB_DELETE_TIMEOUT_SEC"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort int    `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`

	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	RedisDB            int    `mapstructure:"REDIS_DB"`
	SuggestCacheTTLSec int    `mapstructure:"SUGGEST_CACHE_TTL_SEC"`
	SuggestLimit       int    `mapstructure:"SUGGEST_LIMIT"`
	SearchMaxResults   int    `mapstructure:"SEARCH_MAX_RESULTS"`

	PyroscopeServerAddress string `mapstructure:"PYROSCOPE_SERVER_ADDRESS"`
	DevMode                bool   `mapstructure:"DEV_MODE"`
}

// StorageConfigured reports whether every setting the S3 client needs is present.
func (c Config) StorageConfigured() bool {
	return c.S3Region != "" && c.S3Bucket != "" && c.S3AccessKeyID != "" && c.S3SecretAccessKey != ""
}

// MailConfigured reports whether outbound SMTP is usable.
func (c Config) MailConfigured() bool {
	return c.SMTPHost != "" && c.SMTPPort > 0 && c.SMTPUser != "" && c.SMTPPass != ""
}

var (
	cachedConfig *Config
	configMutex  sync.RWMutex
)

// Load loads configuration from environment variables and .env file
// It caches the result for subsequent calls
func Load() (Config, error) {
	configMutex.RLock()
	if cachedConfig != nil {
		defer configMutex.RUnlock()
		return *cachedConfig, nil
	}
	configMutex.RUnlock()

	configMutex.Lock()
	defer configMutex.Unlock()

	// Double-check in case another goroutine loaded it while we waited for the lock
	if cachedConfig != nil {
		return *cachedConfig, nil
	}

	v := viper.New()

	v.SetDefault("APP_PORT", 3000)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("SIGNIN_RATE_PER_MIN", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("MONGO_URI", "mongodb://mongo:27017")
	v.SetDefault("MONGO_DB_NAME", "skillmart")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRY_HOURS", 24*7)
	v.SetDefault("OTP_TTL_MINUTES", 10)
	v.SetDefault("REQUEST_LOGGING_ENABLED", true)
	v.SetDefault("ROUTE_METRICS_ENABLED", true)
	v.SetDefault("WS_MAX_SESSION_SEC", 900)
	v.SetDefault("WS_OUTBOX_BUFFER", 64)

	v.SetDefault("S3_REGION", "")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")
	v.SetDefault("S3_SESSION_TOKEN", "")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_PUBLIC_BASE_URL", "")
	v.SetDefault("S3_PRESIGN_TTL_SEC", 60)
	v.SetDefault("UPLOAD_MAX_BYTES", 50<<20)
	v.SetDefault("BLOB_DELETE_TIMEOUT_SEC", 30)

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "")

	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SUGGEST_CACHE_TTL_SEC", 60)
	v.SetDefault("SUGGEST_LIMIT", 10)
	v.SetDefault("SEARCH_MAX_RESULTS", 100)

	v.SetDefault("PYROSCOPE_SERVER_ADDRESS", "")
	v.SetDefault("DEV_MODE", false)

	// Configure Viper to read from .env file (if present)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// Try to read .env file (it's okay if it doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, err
		}
	}

	// Override with OS environment variables
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.DevMode && cfg.JWTSecret == "" {
		cfg.JWTSecret = devJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	cachedConfig = &cfg

	return cfg, nil
}

// devJWTSecret is only ever used when DEV_MODE=true and no secret was supplied.
const devJWTSecret = "dev-mode-jwt-secret-not-for-production-use"

// ResetCache clears the cached configuration (for testing purposes)
func ResetCache() {
	configMutex.Lock()
	defer configMutex.Unlock()
	cachedConfig = nil
}

// Configuration validation errors.
var (
	ErrAppPortRange          = errors.New("APP_PORT must be between 1 and 65535")
	ErrBcryptCostRange       = errors.New("BCRYPT_COST must be between 4 and 16")
	ErrSignInRatePerMin      = errors.New("SIGNIN_RATE_PER_MIN must be greater than or equal to 1")
	ErrLogLevelEmpty         = errors.New("LOG_LEVEL cannot be empty")
	ErrLogFormatEmpty        = errors.New("LOG_FORMAT cannot be empty")
	ErrMongoURIEmpty         = errors.New("MONGO_URI cannot be empty")
	ErrMongoDBNameEmpty      = errors.New("MONGO_DB_NAME cannot be empty")
	ErrJWTSecretRequired     = errors.New("JWT_SECRET cannot be empty")
	ErrJWTSecretTooShort     = errors.New("JWT_SECRET must be at least 32 characters for HS256")
	ErrJWTExpiryHours        = errors.New("JWT_EXPIRY_HOURS must be greater than 0")
	ErrOTPTTLMinutes         = errors.New("OTP_TTL_MINUTES must be greater than 0")
	ErrWSMaxSessionSec       = errors.New("WS_MAX_SESSION_SEC must be greater than 0")
	ErrWSOutboxBuffer        = errors.New("WS_OUTBOX_BUFFER must be greater than 0")
	ErrS3PresignTTL          = errors.New("S3_PRESIGN_TTL_SEC must be greater than 0")
	ErrUploadMaxBytes        = errors.New("UPLOAD_MAX_BYTES must be greater than 0")
	ErrBlobDeleteTimeout     = errors.New("BLOB_DELETE_TIMEOUT_SEC must be greater than 0")
	ErrSuggestLimit          = errors.New("SUGGEST_LIMIT must be greater than 0")
	ErrSuggestCacheTTL       = errors.New("SUGGEST_CACHE_TTL_SEC cannot be negative")
	ErrSearchMaxResults      = errors.New("SEARCH_MAX_RESULTS must be greater than 0")
	ErrStoragePartiallyGiven = errors.New("S3_BUCKET and S3_REGION must be set together")
)

// Validate checks if required configuration fields are properly set
func (c Config) Validate() error {
	if c.AppPort <= 0 || c.AppPort > 65535 {
		return ErrAppPortRange
	}
	if c.BcryptCost < 4 || c.BcryptCost > 16 {
		return ErrBcryptCostRange
	}
	if c.SignInRatePerMin < 1 {
		return ErrSignInRatePerMin
	}
	if c.LogLevel == "" {
		return ErrLogLevelEmpty
	}
	if c.LogFormat == "" {
		return ErrLogFormatEmpty
	}
	if c.MongoURI == "" {
		return ErrMongoURIEmpty
	}
	if c.MongoDBName == "" {
		return ErrMongoDBNameEmpty
	}
	if c.JWTSecret == "" {
		return ErrJWTSecretRequired
	}
	if len(c.JWTSecret) < 32 {
		return ErrJWTSecretTooShort
	}
	if c.JWTExpiryHours <= 0 {
		return ErrJWTExpiryHours
	}
	if c.OTPTTLMinutes <= 0 {
		return ErrOTPTTLMinutes
	}
	if c.WSMaxSessionSec <= 0 {
		return ErrWSMaxSessionSec
	}
	if c.WSOutboxBuffer <= 0 {
		return ErrWSOutboxBuffer
	}
	if (c.S3Bucket == "") != (c.S3Region == "") {
		return ErrStoragePartiallyGiven
	}
	if c.S3PresignTTLSec <= 0 {
		return ErrS3PresignTTL
	}
	if c.UploadMaxBytes <= 0 {
		return ErrUploadMaxBytes
	}
	if c.BlobDeleteTimeout <= 0 {
		return ErrBlobDeleteTimeout
	}
	if c.SuggestLimit <= 0 {
		return ErrSuggestLimit
	}
	if c.SuggestCacheTTLSec < 0 {
		return ErrSuggestCacheTTL
	}
	if c.SearchMaxResults <= 0 {
		return ErrSearchMaxResults
	}
	return nil
}
