package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// defaultBuildLabel is the fallback backend build label, overridable via
// NOTEBOOKLM_BL when the backend rolls a new frontend build.
const defaultBuildLabel = "boq_labs-tailwind-frontend_20260108.06_p0"

type Config struct {
	// BaseURL is the NotebookLM app origin.
	BaseURL string
	// Home is the directory where local state lives: the credential
	// cache and the Chrome auth profile.
	Home string
	// BuildLabel is the backend build label sent as the bl parameter
	// until a fresher one is scraped from the app page.
	BuildLabel string
	// QueryTimeout bounds streamed queries.
	QueryTimeout time.Duration
	// Debug enables verbose logging.
	Debug bool
}

// Load loads configuration from environment and defaults
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	home := os.Getenv("NOTEBOOKLM_HOME")
	if home == "" {
		home = filepath.Join(homeDir, ".notebooklm-mcp")
	}
	if err := os.MkdirAll(home, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	baseURL := os.Getenv("NOTEBOOKLM_BASE_URL")
	if baseURL == "" {
		baseURL = "https://notebooklm.google.com"
	}

	buildLabel := os.Getenv("NOTEBOOKLM_BL")
	if buildLabel == "" {
		buildLabel = defaultBuildLabel
	}

	queryTimeout := 120 * time.Second
	if raw := os.Getenv("NOTEBOOKLM_QUERY_TIMEOUT"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid NOTEBOOKLM_QUERY_TIMEOUT %q (expected seconds)", raw)
		}
		queryTimeout = time.Duration(seconds) * time.Second
	}

	debug := os.Getenv("DEBUG") == "true" || os.Getenv("DEBUG") == "1"
	if !debug {
		debug = os.Getenv("NOTEBOOKLM_DEBUG") == "true" || os.Getenv("NOTEBOOKLM_DEBUG") == "1"
	}

	return &Config{
		BaseURL:      baseURL,
		Home:         home,
		BuildLabel:   buildLabel,
		QueryTimeout: queryTimeout,
		Debug:        debug,
	}, nil
}
