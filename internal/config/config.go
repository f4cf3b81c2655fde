package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	MessageStorePostgres = "postgres"
	MessageStoreMongo    = "mongo"
)

type Config struct {
	LogMode  string `env:"LOG_MODE" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	Timezone string `env:"TIMEZONE" envDefault:"Asia/Seoul"`

	// Postgres
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresName     string `env:"POSTGRES_NAME" envDefault:"menjil"`

	// Message store selection
	MessageStore  string `env:"MESSAGE_STORE" envDefault:"postgres"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"menjil"`

	// Redis pub/sub
	RedisAddress  string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisChannel  string `env:"REDIS_CHANNEL" envDefault:"menjil_hub_broadcast"`

	// Auth (tokens are issued elsewhere, only verified here)
	JWTSecretKey string `env:"JWT_SECRET_KEY"`

	// Upstream services
	SummarizerBaseURL string        `env:"SUMMARIZER_BASE_URL" envDefault:"https://api.openai.com/v1"`
	SummarizerAPIKey  string        `env:"SUMMARIZER_API_KEY"`
	SummarizerModel   string        `env:"SUMMARIZER_MODEL" envDefault:"gpt-3.5-turbo"`
	SummarizerTimeout time.Duration `env:"SUMMARIZER_TIMEOUT" envDefault:"30s"`
	SimilarityBaseURL string        `env:"SIMILARITY_BASE_URL" envDefault:"http://localhost:5000"`
	SimilarityTimeout time.Duration `env:"SIMILARITY_TIMEOUT" envDefault:"30s"`
	StoreTimeout      time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`

	CORSAllowOrigins []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	location *time.Location
}

// Load reads an optional .env file, then parses and validates the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.MessageStore {
	case MessageStorePostgres, MessageStoreMongo:
	default:
		return fmt.Errorf("invalid MESSAGE_STORE %q: expected %q or %q", c.MessageStore, MessageStorePostgres, MessageStoreMongo)
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	c.location = loc
	if c.SummarizerTimeout <= 0 || c.SimilarityTimeout <= 0 || c.StoreTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	return nil
}

// Location is the fixed server-side timezone used for wire timestamps.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&connect_timeout=%d",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresName,
		int(c.StoreTimeout.Seconds()))
}
