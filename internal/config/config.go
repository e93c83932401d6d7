// Package config loads runtime settings from the environment, with .env
// support for local development.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries the runtime settings shared by the API server and the CLI.
type Config struct {
	// Port the API server listens on.
	Port string

	// SourceLocation is where the movement table comes from: an http(s)
	// URL, a gs:// URI, or a local .xlsx path.
	SourceLocation string

	// CostCentersFile is the YAML code-to-name table; optional.
	CostCentersFile string

	// PrefsFile backs the theme preference.
	PrefsFile string

	// LowStockThreshold marks materials low-stock at or below this balance.
	LowStockThreshold float64

	// RefreshCron, when set, re-triggers the load on a schedule.
	RefreshCron string

	// GCSCredentialsFile is passed to the storage client for gs:// sources;
	// empty means ambient credentials.
	GCSCredentialsFile string
}

// Load reads the configuration. A .env file in the working directory is
// applied first; real environment variables win over it.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:               envOr("PORT", "8080"),
		SourceLocation:     os.Getenv("SOURCE_URL"),
		CostCentersFile:    envOr("COST_CENTERS_FILE", "cost_centers.yaml"),
		PrefsFile:          envOr("PREFS_FILE", defaultPrefsFile()),
		LowStockThreshold:  envFloat("LOW_STOCK_THRESHOLD", 10),
		RefreshCron:        os.Getenv("REFRESH_CRON"),
		GCSCredentialsFile: os.Getenv("GCS_CREDENTIALS_FILE"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func defaultPrefsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "prefs.json"
	}
	return filepath.Join(dir, "inv-tracker", "prefs.json")
}
