package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvProduction disables swagger and error details in responses.
	EnvProduction = "production"
	// EnvDevelopment is the default environment.
	EnvDevelopment = "development"

	defaultJWTSecret = "change-me"
)

// Config holds application level configuration loaded from the environment,
// an optional .env file and an optional config file.
type Config struct {
	Environment string
	LogLevel    string

	ServerPort     string
	ServerURL      string
	ClientURL      string
	RequestTimeout time.Duration

	DBDriver         string
	DBDSN            string
	DBConnectRetries int
	DBConnectBackoff time.Duration

	RedisAddr string
	RedisPass string
	RedisDB   int

	JWTSecret string
	JWTTTL    time.Duration

	StorageDriver string
	UploadDir     string
	UploadsPublic bool
	MaxUploadSize int64
	S3Bucket      string
	S3Region      string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3Prefix      string
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// Load builds Config from environment with sensible defaults.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Environment:      v.GetString("ENVIRONMENT"),
		LogLevel:         v.GetString("LOG_LEVEL"),
		ServerPort:       v.GetString("SERVER_PORT"),
		ServerURL:        strings.TrimRight(v.GetString("SERVER_URL"), "/"),
		ClientURL:        v.GetString("CLIENT_URL"),
		RequestTimeout:   v.GetDuration("REQUEST_TIMEOUT"),
		DBDriver:         strings.ToLower(v.GetString("DB_DRIVER")),
		DBDSN:            v.GetString("DB_DSN"),
		DBConnectRetries: v.GetInt("DB_CONNECT_RETRIES"),
		DBConnectBackoff: v.GetDuration("DB_CONNECT_BACKOFF"),
		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPass:        v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		JWTTTL:           v.GetDuration("JWT_TTL"),
		StorageDriver:    strings.ToLower(v.GetString("STORAGE_DRIVER")),
		UploadDir:        v.GetString("UPLOAD_DIR"),
		UploadsPublic:    v.GetBool("UPLOADS_PUBLIC"),
		MaxUploadSize:    v.GetInt64("MAX_UPLOAD_SIZE"),
		S3Bucket:         v.GetString("S3_BUCKET"),
		S3Region:         v.GetString("S3_REGION"),
		S3Endpoint:       v.GetString("S3_ENDPOINT"),
		S3AccessKey:      v.GetString("S3_ACCESS_KEY"),
		S3SecretKey:      v.GetString("S3_SECRET_KEY"),
		S3Prefix:         v.GetString("S3_PREFIX"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_PORT", "4000")
	v.SetDefault("SERVER_URL", "http://localhost:4000")
	v.SetDefault("CLIENT_URL", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT", 30*time.Second)
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DB_DSN", "paperless.db")
	v.SetDefault("DB_CONNECT_RETRIES", 5)
	v.SetDefault("DB_CONNECT_BACKOFF", 5*time.Second)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_TTL", 24*time.Hour)
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("UPLOADS_PUBLIC", false)
	v.SetDefault("MAX_UPLOAD_SIZE", 10<<20)
	v.SetDefault("S3_REGION", "us-east-1")
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.StorageDriver {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("invalid MAX_UPLOAD_SIZE: %d", c.MaxUploadSize)
	}
	if c.DBConnectRetries < 0 {
		c.DBConnectRetries = 0
	}
	return nil
}
