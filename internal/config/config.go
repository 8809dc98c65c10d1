// Package config provides application configuration from environment variables
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Port        int
	ServiceName string
	Debug       bool
	LogLevel    string
	DatabaseURL string
	MLService   MLServiceConfig
}

// MLServiceConfig points at the downstream prediction service
type MLServiceConfig struct {
	URL     string
	Timeout time.Duration
}

// Defaults
const (
	DefaultPort         = 5000
	DefaultServiceName  = "Go ML Wrapper"
	DefaultMLServiceURL = "http://ml-service:8000/predict"
	DefaultMLTimeout    = 30 * time.Second
)

// LoadConfig loads configuration from a .env file, if any, and the environment.
// Variables already set in the environment win over the .env file.
func LoadConfig(envFiles ...string) *AppConfig {
	// a missing .env is the normal case in containers
	_ = godotenv.Load(envFiles...)

	return &AppConfig{
		Port:        getEnvInt("PORT", DefaultPort),
		ServiceName: getEnv("SERVICE_NAME", DefaultServiceName),
		Debug:       getEnvBool("FLASK_DEBUG", false) || getEnvBool("DEBUG", false),
		LogLevel:    strings.ToLower(getEnv("LOG_LEVEL", "info")),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MLService: MLServiceConfig{
			URL:     getEnv("ML_SERVICE_URL", DefaultMLServiceURL),
			Timeout: getEnvSeconds("ML_SERVICE_TIMEOUT", DefaultMLTimeout),
		},
	}
}

// Addr is the listen address of the HTTP server
func (c *AppConfig) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// AuditEnabled reports whether predictions are written to Postgres
func (c *AppConfig) AuditEnabled() bool {
	return c.DatabaseURL != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvSeconds reads a positive number of seconds; fractions are allowed
func getEnvSeconds(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil && f > 0 {
			return time.Duration(f * float64(time.Second))
		}
	}
	return defaultVal
}
