package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Schedule mode selects whose entries the weekly schedule is built from.
const (
	ScheduleModeSelf       = "self"
	ScheduleModeAggregated = "aggregated"
)

// End-time fallback selects what happens to imported streams that come
// without a scheduled end time.
const (
	EndTimeFallbackNull      = "null"
	EndTimeFallbackSynthetic = "synthetic"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	API      APIConfig
	CORS     CORSConfig
	YouTube  YouTubeConfig
	Schedule ScheduleConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type APIConfig struct {
	RateLimitRequestsPerSec int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type YouTubeConfig struct {
	APIKey         string
	TimeoutSeconds int
}

type ScheduleConfig struct {
	Mode              string
	EndTimeFallback   string
	SyntheticEndHours int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		redisDB = 0
	}

	jwtExpiry, err := strconv.Atoi(getEnv("JWT_EXPIRY_HOURS", "168"))
	if err != nil {
		jwtExpiry = 168
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_REQUESTS_PER_SECOND", "10"))
	if err != nil {
		rateLimit = 10
	}

	ytTimeout, err := strconv.Atoi(getEnv("YOUTUBE_TIMEOUT_SECONDS", "5"))
	if err != nil {
		ytTimeout = 5
	}

	syntheticHours, err := strconv.Atoi(getEnv("SYNTHETIC_END_HOURS", "2"))
	if err != nil {
		syntheticHours = 2
	}

	origins := strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",")

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "holosched"),
			Password: getEnv("DB_PASSWORD", "holosched_password"),
			DBName:   getEnv("DB_NAME", "holosched_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-this-secret-key"),
			ExpiryHours: jwtExpiry,
		},
		API: APIConfig{
			RateLimitRequestsPerSec: rateLimit,
		},
		CORS: CORSConfig{
			AllowedOrigins: origins,
		},
		YouTube: YouTubeConfig{
			APIKey:         getEnv("YOUTUBE_API_KEY", ""),
			TimeoutSeconds: ytTimeout,
		},
		Schedule: ScheduleConfig{
			Mode:              getEnv("SCHEDULE_MODE", ScheduleModeSelf),
			EndTimeFallback:   getEnv("END_TIME_FALLBACK", EndTimeFallbackNull),
			SyntheticEndHours: syntheticHours,
		},
	}

	// Validate required fields
	if cfg.JWT.Secret == "change-this-secret-key" && cfg.Server.Env == "production" {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}
	if cfg.Schedule.Mode != ScheduleModeSelf && cfg.Schedule.Mode != ScheduleModeAggregated {
		return nil, fmt.Errorf("SCHEDULE_MODE must be %q or %q", ScheduleModeSelf, ScheduleModeAggregated)
	}
	if cfg.Schedule.EndTimeFallback != EndTimeFallbackNull && cfg.Schedule.EndTimeFallback != EndTimeFallbackSynthetic {
		return nil, fmt.Errorf("END_TIME_FALLBACK must be %q or %q", EndTimeFallbackNull, EndTimeFallbackSynthetic)
	}
	if cfg.YouTube.APIKey == "YOUR_YOUTUBE_API_KEY_HERE" {
		return nil, fmt.Errorf("YOUTUBE_API_KEY is still the placeholder value")
	}

	return cfg, nil
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// SyntheticEndDuration returns the synthetic end-time window as a duration.
func (c *Config) SyntheticEndDuration() time.Duration {
	return time.Duration(c.Schedule.SyntheticEndHours) * time.Hour
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
