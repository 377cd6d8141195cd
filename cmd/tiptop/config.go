package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// envConfig is the process configuration, read from the environment with
// an optional .env file on top.
type envConfig struct {
	DataDir       string
	ProductsFile  string
	StorefrontURL string
	SyncURL       string
	KVBackend     string // "file" or "sqlite"
	MetricsAddr   string
	LogLevel      string
	LogFormat     string
}

func loadConfig() envConfig {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	dataDir := getenv("TIPTOP_DATA_DIR", defaultDataDir())

	return envConfig{
		DataDir:       dataDir,
		ProductsFile:  getenv("TIPTOP_PRODUCTS_FILE", filepath.Join(dataDir, "products.json")),
		StorefrontURL: getenv("TIPTOP_STOREFRONT_URL", "http://localhost:8008"),
		SyncURL:       os.Getenv("TIPTOP_SYNC_URL"),
		KVBackend:     getenv("TIPTOP_KV_BACKEND", "file"),
		MetricsAddr:   getenv("TIPTOP_METRICS_ADDR", "127.0.0.1:9135"),
		LogLevel:      getenv("TIPTOP_LOG_LEVEL", "info"),
		LogFormat:     getenv("TIPTOP_LOG_FORMAT", "auto"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tiptop"
	}
	return filepath.Join(home, ".tiptop")
}
