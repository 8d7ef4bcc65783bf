package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration values.
type Config struct {
	APIBaseURL     string
	HTTPPort       string
	RequestTimeout time.Duration
	DatabaseDSN    string
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	baseURL := os.Getenv("MEDSYS_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080/api"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "3000"
	}
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 3000", port)
		port = "3000"
	}

	timeout := 10 * time.Second
	if raw := os.Getenv("REQUEST_TIMEOUT_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			log.Printf("invalid REQUEST_TIMEOUT_SECONDS value %q, defaulting to 10", raw)
		} else {
			timeout = time.Duration(secs) * time.Second
		}
	}

	// DatabaseDSN is only used by the API stub; the admin service holds no
	// local state.
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = "medsys-stub.db"
	}

	return Config{
		APIBaseURL:     baseURL,
		HTTPPort:       port,
		RequestTimeout: timeout,
		DatabaseDSN:    dsn,
	}
}
