package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the configuration for the recommendation service
type Config struct {
	Catalog CatalogConfig
	Search  SearchConfig
	Fetch   FetchConfig
	Server  ServerConfig
	Log     LogConfig
}

// CatalogConfig locates the book and review sources. Each may be a local
// path or an http(s) URL.
type CatalogConfig struct {
	BooksSource   string
	ReviewsSource string
	StripMarkup   bool
}

// SearchConfig holds query engine tuning
type SearchConfig struct {
	ResultLimit int
	AllGenres   string
	ReviewLimit int
}

// FetchConfig holds remote source download configuration
type FetchConfig struct {
	Timeout             time.Duration
	UserAgent           string
	RespectRobots       bool
	MinDelay            time.Duration
	RobotsCacheDuration time.Duration
	CacheDir            string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr            string
	AllowedOrigins  []string
	RateLimit       int
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads an optional .env file and then builds the configuration from
// environment variables with defaults. Variables already set in the
// environment take precedence over the file.
func Load() *Config {
	_ = godotenv.Load(GetStringEnv("ENV_FILE", ".env"))

	return &Config{
		Catalog: CatalogConfig{
			BooksSource:   GetStringEnv("CATALOG_BOOKS", "goodreads_works_v1.csv"),
			ReviewsSource: GetStringEnv("CATALOG_REVIEWS", "goodreads_reviews.csv"),
			StripMarkup:   GetBoolEnv("CATALOG_STRIP_MARKUP", false),
		},
		Search: SearchConfig{
			ResultLimit: GetIntEnv("SEARCH_RESULT_LIMIT", 20),
			AllGenres:   GetStringEnv("SEARCH_ALL_GENRES", "All"),
			ReviewLimit: GetIntEnv("SEARCH_REVIEW_LIMIT", 10),
		},
		Fetch: FetchConfig{
			Timeout:             GetDurationEnv("FETCH_TIMEOUT", 30*time.Second),
			UserAgent:           GetStringEnv("FETCH_USER_AGENT", "NextRead-Catalog/1.0"),
			RespectRobots:       GetBoolEnv("FETCH_RESPECT_ROBOTS", true),
			MinDelay:            GetDurationEnv("FETCH_MIN_DELAY", 1*time.Second),
			RobotsCacheDuration: GetDurationEnv("FETCH_ROBOTS_CACHE_DURATION", 24*time.Hour),
			CacheDir:            GetStringEnv("FETCH_CACHE_DIR", "./data"),
		},
		Server: ServerConfig{
			Addr:            GetStringEnv("SERVER_ADDR", ":8080"),
			AllowedOrigins:  GetListEnv("SERVER_ALLOWED_ORIGINS", []string{"*"}),
			RateLimit:       GetIntEnv("SERVER_RATE_LIMIT", 120),
			ShutdownTimeout: GetDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  GetStringEnv("LOG_LEVEL", "info"),
			Format: GetStringEnv("LOG_FORMAT", "text"),
		},
	}
}

func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetListEnv splits a comma-separated variable, dropping empty entries
func GetListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
