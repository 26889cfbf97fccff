package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Storage  StorageConfig
	Mongo    MongoConfig
	Kafka    KafkaConfig
	Drafts   DraftConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	PublicBaseURL  string
	AllowedOrigins []string
	LoginRateLimit int // requests per minute per client
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

// DSN returns the connection string understood by the pgx stdlib driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.Schema)
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

type StorageConfig struct {
	Driver string // gridfs or memory
}

type MongoConfig struct {
	URI      string
	Database string
	Bucket   string
}

type KafkaConfig struct {
	Brokers      []string
	ListingTopic string
	JanitorGroup string
}

// Enabled reports whether listing events are published to Kafka.
func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

type DraftConfig struct {
	TTL time.Duration
}

// IsDevelopment reports whether the server runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func Load() *Config {
	// Values from .env never override variables already set in the environment.
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not read .env file: %v", err)
	}

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	viper.SetDefault("LOGIN_RATE_LIMIT", 10)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRY", 7)
	viper.SetDefault("STORAGE_DRIVER", "gridfs")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "showroom")
	viper.SetDefault("MONGO_BUCKET", "images")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_LISTING_TOPIC", "listing.deleted")
	viper.SetDefault("KAFKA_JANITOR_GROUP", "image-janitor")
	viper.SetDefault("DRAFT_TTL_HOURS", 24)

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			PublicBaseURL:  strings.TrimRight(viper.GetString("PUBLIC_BASE_URL"), "/"),
			AllowedOrigins: splitCSV(viper.GetString("CORS_ALLOWED_ORIGINS")),
			LoginRateLimit: viper.GetInt("LOGIN_RATE_LIMIT"),
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
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  viper.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: viper.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Storage: StorageConfig{
			Driver: viper.GetString("STORAGE_DRIVER"),
		},
		Mongo: MongoConfig{
			URI:      viper.GetString("MONGO_URI"),
			Database: viper.GetString("MONGO_DATABASE"),
			Bucket:   viper.GetString("MONGO_BUCKET"),
		},
		Kafka: KafkaConfig{
			Brokers:      splitCSV(viper.GetString("KAFKA_BROKERS")),
			ListingTopic: viper.GetString("KAFKA_LISTING_TOPIC"),
			JanitorGroup: viper.GetString("KAFKA_JANITOR_GROUP"),
		},
		Drafts: DraftConfig{
			TTL: time.Duration(viper.GetInt("DRAFT_TTL_HOURS")) * time.Hour,
		},
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
