package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Email     EmailConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Contacts  ContactsConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
	PublicURL       string   // base URL used in links sent by email
	TrustedProxies  []string // CIDRs allowed to set X-Forwarded-For and X-Real-IP
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	// Secret signs every token kind. For TOKEN_FORMAT=paseto the first 32 bytes are the v4.local key.
	Secret              []byte
	TokenFormat         string // jwt or paseto
	AccessTokenDuration time.Duration
	EmailTokenDuration  time.Duration
	ResetTokenDuration  time.Duration
	UserCacheTTL        time.Duration
	AllowAdminSignup    bool
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	FromAddress  string
	FromName     string
}

type StorageConfig struct {
	AccessKey     string
	SecretKey     string
	Bucket        string
	Region        string
	BaseEndpoint  string // empty for AWS, set for MinIO and other S3-compatible backends
	PublicBaseURL string // prefix for avatar URLs returned to clients
}

type RateLimitConfig struct {
	MeRequests int
	MeWindow   time.Duration
}

type ContactsConfig struct {
	PhoneRegion string // ISO 3166 region used for numbers without a +country prefix
	MaxPageSize int
}

const minSecretLength = 32

// Load reads configuration from environment variables
// Call godotenv.Load() before this if using .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
			PublicURL:       strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
			TrustedProxies:  getSliceEnv("TRUSTED_PROXIES", nil),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "contacts"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			Secret:              []byte(getEnv("JWT_SECRET", "")),
			TokenFormat:         strings.ToLower(getEnv("TOKEN_FORMAT", "jwt")),
			AccessTokenDuration: getDurationEnv("ACCESS_TOKEN_DURATION", 15*time.Minute),
			EmailTokenDuration:  getDurationEnv("EMAIL_TOKEN_DURATION", 24*time.Hour),
			ResetTokenDuration:  getDurationEnv("RESET_TOKEN_DURATION", 24*time.Hour),
			UserCacheTTL:        getDurationEnv("USER_CACHE_TTL", 15*time.Minute),
			AllowAdminSignup:    getBoolEnv("ALLOW_ADMIN_SIGNUP", true),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASS", ""),
			FromAddress:  getEnv("MAIL_FROM", getEnv("SMTP_USER", "")),
			FromName:     getEnv("MAIL_FROM_NAME", "Contacts API"),
		},
		Storage: StorageConfig{
			AccessKey:     getEnv("S3_ACCESS_KEY", ""),
			SecretKey:     getEnv("S3_SECRET_KEY", ""),
			Bucket:        getEnv("S3_BUCKET", "avatars"),
			Region:        getEnv("S3_REGION", "us-east-1"),
			BaseEndpoint:  getEnv("S3_BASE_ENDPOINT", ""),
			PublicBaseURL: strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
		},
		RateLimit: RateLimitConfig{
			MeRequests: getIntEnv("RATE_LIMIT_ME_REQUESTS", 10),
			MeWindow:   getDurationEnv("RATE_LIMIT_ME_WINDOW", time.Minute),
		},
		Contacts: ContactsConfig{
			PhoneRegion: strings.ToUpper(getEnv("PHONE_DEFAULT_REGION", "US")),
			MaxPageSize: getIntEnv("CONTACTS_MAX_PAGE_SIZE", 500),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would otherwise fail later at request time
func (c *Config) Validate() error {
	if len(c.Auth.Secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes, got %d", minSecretLength, len(c.Auth.Secret))
	}

	switch c.Auth.TokenFormat {
	case "jwt", "paseto":
	default:
		return fmt.Errorf("TOKEN_FORMAT must be jwt or paseto, got %q", c.Auth.TokenFormat)
	}

	if c.Auth.AccessTokenDuration <= 0 || c.Auth.EmailTokenDuration <= 0 || c.Auth.ResetTokenDuration <= 0 {
		return fmt.Errorf("token durations must be positive")
	}

	if c.RateLimit.MeRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_ME_REQUESTS must be positive, got %d", c.RateLimit.MeRequests)
	}

	if c.Contacts.MaxPageSize <= 0 {
		return fmt.Errorf("CONTACTS_MAX_PAGE_SIZE must be positive, got %d", c.Contacts.MaxPageSize)
	}

	return nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	// Add channel_binding if configured (required for Neon DB)
	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getBoolEnv(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
