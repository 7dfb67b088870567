package config

import (
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DBPath string

	PhotoBucket   string
	AWSRegion     string
	DisplayURLTTL time.Duration

	DraftTTL    time.Duration
	EnvelopeTTL time.Duration
	Debounce    time.Duration

	LogLevel string
	LogFile  string
}

// Load reads configuration from the environment, after loading a .env file
// if one is present in the working directory.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8080"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		DBPath:        getEnv("DB_PATH", "/data/propdraft.db"),
		PhotoBucket:   getEnv("PHOTO_BUCKET", ""),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		DisplayURLTTL: getEnvDuration("DISPLAY_URL_TTL", 15*time.Minute),
		DraftTTL:      getEnvDuration("DRAFT_TTL", 30*24*time.Hour),
		EnvelopeTTL:   getEnvDuration("ENVELOPE_TTL", 24*time.Hour),
		Debounce:      getEnvDuration("SAVE_DEBOUNCE", 2*time.Second),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ListenAddr, validation.Required),
		validation.Field(&c.RedisAddr, validation.Required),
		validation.Field(&c.DBPath, validation.Required),
		validation.Field(&c.PhotoBucket, validation.Required),
		validation.Field(&c.DisplayURLTTL, validation.Min(time.Minute)),
		validation.Field(&c.Debounce, validation.Min(100*time.Millisecond)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
