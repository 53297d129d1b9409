package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string
	ServerPort string
	Env        string

	RedisURL string
	RedisTTL time.Duration

	MinioURL      string
	MinioUser     string
	MinioPassword string
	MinioBucket   string

	// Timezone is the fixed civil timezone every timestamp and civil day
	// is interpreted in.
	Timezone        string
	DefaultLocality string
	// RestartPolicy decides what StartTimer does when a timer is already
	// open: "overwrite" restarts it, "reject" refuses.
	RestartPolicy     string
	ResetConfirmToken string
}

func LoadConfig() Config {
	ttlStr := getEnv("REDIS_TTL", "5m")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		ttl = 5 * time.Minute
	}

	return Config{
		DBHost:     getEnv("DB_HOST", "postgres"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPass:     getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "db_timeclock"),
		ServerPort: getEnv("SERVER_PORT", "8080"),
		Env:        getEnv("ENV", "dev"),

		RedisURL: getEnv("REDIS_URL", "redis:6379"),
		RedisTTL: ttl,

		MinioURL:      getEnv("MINIO_URL", "localhost:9000"),
		MinioUser:     getEnv("MINIO_USER", "minioadmin"),
		MinioPassword: getEnv("MINIO_PASSWORD", "minioadmin"),
		MinioBucket:   getEnv("MINIO_BUCKET", "timeclock-reports"),

		Timezone:          getEnv("TIMEZONE", "Europe/Rome"),
		DefaultLocality:   getEnv("DEFAULT_LOCALITY", "home-base"),
		RestartPolicy:     getEnv("TRACKER_RESTART_POLICY", "overwrite"),
		ResetConfirmToken: getEnv("RESET_CONFIRM_TOKEN", "ERASE-ALL-MY-DATA"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}
