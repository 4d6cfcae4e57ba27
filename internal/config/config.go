package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Supported STORE_DRIVER values
const (
	StoreMongo    = "mongodb"
	StoreSurreal  = "surrealdb"
	StorePostgres = "postgres"
)

// Supported STORAGE_DRIVER values
const (
	StorageLocal = "local"
	StorageS3    = "s3"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Mongo     MongoConfig
	Surreal   SurrealConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Seed      bool
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	APIPrefix      string
	AllowedOrigins []string
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Env != "production"
}

type StoreConfig struct {
	Driver string
}

type MongoConfig struct {
	URI      string
	Database string
}

type SurrealConfig struct {
	URL       string
	Namespace string
	Database  string
	User      string
	Password  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Enabled          bool
	Host             string
	Port             string
	Password         string
	DB               int
	CategoryCacheTTL time.Duration
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type StorageConfig struct {
	Driver         string
	UploadsDir     string
	UploadsBaseURL string
	MaxUploadBytes int64
	S3             S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
}

type RateLimitConfig struct {
	UploadsPerWindow int
	Window           time.Duration
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("API_PREFIX", "/api/v2")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("STORE_DRIVER", StoreMongo)
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "catalog")
	viper.SetDefault("SURREAL_URL", "ws://localhost:8000")
	viper.SetDefault("SURREAL_NAMESPACE", "catalog")
	viper.SetDefault("SURREAL_DATABASE", "catalog")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CATEGORY_CACHE_TTL", "10m")
	viper.SetDefault("STORAGE_DRIVER", StorageLocal)
	viper.SetDefault("UPLOADS_DIR", "uploads")
	viper.SetDefault("UPLOAD_MAX_BYTES", 10<<20)
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("RATE_LIMIT_UPLOADS", 30)
	viper.SetDefault("RATE_LIMIT_WINDOW", "1m")
	viper.SetDefault("SEED_ON_START", false)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			LogLevel:       strings.ToLower(viper.GetString("LOG_LEVEL")),
			APIPrefix:      normalizePrefix(viper.GetString("API_PREFIX")),
			AllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(viper.GetString("STORE_DRIVER")),
		},
		Mongo: MongoConfig{
			URI:      viper.GetString("MONGO_URI"),
			Database: viper.GetString("MONGO_DATABASE"),
		},
		Surreal: SurrealConfig{
			URL:       viper.GetString("SURREAL_URL"),
			Namespace: viper.GetString("SURREAL_NAMESPACE"),
			Database:  viper.GetString("SURREAL_DATABASE"),
			User:      viper.GetString("SURREAL_USER"),
			Password:  viper.GetString("SURREAL_PASSWORD"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Enabled:          viper.GetBool("REDIS_ENABLED"),
			Host:             viper.GetString("REDIS_HOST"),
			Port:             viper.GetString("REDIS_PORT"),
			Password:         viper.GetString("REDIS_PASSWORD"),
			DB:               viper.GetInt("REDIS_DB"),
			CategoryCacheTTL: viper.GetDuration("CATEGORY_CACHE_TTL"),
		},
		Storage: StorageConfig{
			Driver:         strings.ToLower(viper.GetString("STORAGE_DRIVER")),
			UploadsDir:     viper.GetString("UPLOADS_DIR"),
			UploadsBaseURL: strings.TrimRight(viper.GetString("UPLOADS_BASE_URL"), "/"),
			MaxUploadBytes: viper.GetInt64("UPLOAD_MAX_BYTES"),
			S3: S3Config{
				Endpoint:  viper.GetString("S3_ENDPOINT"),
				Region:    viper.GetString("S3_REGION"),
				AccessKey: viper.GetString("S3_ACCESS_KEY"),
				SecretKey: viper.GetString("S3_SECRET_KEY"),
				Bucket:    viper.GetString("S3_BUCKET"),
				PublicURL: viper.GetString("S3_PUBLIC_URL"),
			},
		},
		RateLimit: RateLimitConfig{
			UploadsPerWindow: viper.GetInt("RATE_LIMIT_UPLOADS"),
			Window:           viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Seed: viper.GetBool("SEED_ON_START"),
	}
}

// normalizePrefix returns "" for the root or a path with one leading slash
// and no trailing slash, the only forms the router accepts.
func normalizePrefix(raw string) string {
	trimmed := strings.Trim(strings.TrimSpace(raw), "/")
	if trimmed == "" {
		return ""
	}
	return "/" + trimmed
}

// splitList parses a comma separated env value, dropping blanks
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
