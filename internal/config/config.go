// Package config loads framepick settings from a TOML file with environment
// overrides for credentials.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultDatabasePath  = "~/.local/share/framepick/framepick.db"
	defaultExportDir     = "~/framepick-exports"
	defaultAPIBind       = "127.0.0.1:8612"
	defaultScanInterval  = 5
	defaultVisionBaseURL = "https://api.openai.com/v1"
	defaultVisionModel   = "gpt-4o"
	defaultImageModel    = "gpt-image-1"
	defaultVisionTimeout = 60
	defaultLogLevel      = "info"
)

// Vision configures the analysis/enhancement capability.
type Vision struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	ImageModel     string `toml:"image_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Scan configures sampling defaults.
type Scan struct {
	Interval int    `toml:"interval"`
	Range    string `toml:"range"`
}

// Paths configures storage locations and the API bind address.
type Paths struct {
	DatabasePath string `toml:"database_path"`
	ExportDir    string `toml:"export_dir"`
	APIBind      string `toml:"api_bind"`
}

// Config is the full framepick configuration.
type Config struct {
	Vision   Vision `toml:"vision"`
	Scan     Scan   `toml:"scan"`
	Paths    Paths  `toml:"paths"`
	LogLevel string `toml:"log_level"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Vision: Vision{
			BaseURL:        defaultVisionBaseURL,
			Model:          defaultVisionModel,
			ImageModel:     defaultImageModel,
			TimeoutSeconds: defaultVisionTimeout,
		},
		Scan: Scan{
			Interval: defaultScanInterval,
			Range:    "full",
		},
		Paths: Paths{
			DatabasePath: defaultDatabasePath,
			ExportDir:    defaultExportDir,
			APIBind:      defaultAPIBind,
		},
		LogLevel: defaultLogLevel,
	}
}

// Load reads the config file at path (missing file is fine; defaults apply)
// and applies environment overrides. FRAMEPICK_API_KEY, falling back to
// OPENAI_API_KEY, supplies the capability credential.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(expandHome(path))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// Defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if key := os.Getenv("FRAMEPICK_API_KEY"); key != "" {
		cfg.Vision.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); cfg.Vision.APIKey == "" && key != "" {
		cfg.Vision.APIKey = key
	}

	cfg.Paths.DatabasePath = expandHome(cfg.Paths.DatabasePath)
	cfg.Paths.ExportDir = expandHome(cfg.Paths.ExportDir)

	if cfg.Scan.Interval < 1 {
		cfg.Scan.Interval = 1
	}
	return cfg, nil
}

// DefaultPath is the conventional config file location.
func DefaultPath() string {
	return expandHome("~/.config/framepick/config.toml")
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
