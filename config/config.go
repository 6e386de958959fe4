package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/raine/places-collector/internal/catalog"
	"github.com/raine/places-collector/internal/places"
	"github.com/rs/zerolog"
)

const (
	AppName     = "places-collector"
	EnvFileName = "config.env"
)

// Environment variable names.
const (
	EnvBotToken       = "BOT_TOKEN"
	EnvPlacesAPIKey   = "GOOGLE_PLACES_API_KEY"
	EnvPlacesBaseURL  = "PLACES_BASE_URL"
	EnvPlacesLanguage = "PLACES_LANGUAGE"
	EnvPageDelay      = "PLACES_PAGE_DELAY"
	EnvMaxPages       = "PLACES_MAX_PAGES"
	EnvMaxRPS         = "PLACES_MAX_RPS"
	EnvTimeout        = "PLACES_TIMEOUT"
	EnvCategoryLocale = "CATEGORY_LOCALE"
	EnvLogLevel       = "LOG_LEVEL"
)

// BotRequiredEnvVars must be set for the bot to start.
var BotRequiredEnvVars = []string{EnvBotToken}

// Dir returns the application's config directory, creating it if needed.
func Dir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	configDir := filepath.Join(configBase, AppName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// FilePath returns the full path to the env file.
func FilePath() (string, error) {
	configDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, EnvFileName), nil
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist. Variables
// already set in the environment win.
func LoadEnvFile() {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(configBase, AppName, EnvFileName)
	_ = godotenv.Load(configPath)
}

// CheckRequired returns the names of the given variables that are unset.
func CheckRequired(vars []string) []string {
	var missing []string
	for _, v := range vars {
		if os.Getenv(v) == "" {
			missing = append(missing, v)
		}
	}
	return missing
}

// WriteEnvFile writes values to the config file in the given key order. The
// file holds secrets so it is created with 0600 permissions. Returns the path
// written to.
func WriteEnvFile(values map[string]string, order []string) (string, error) {
	configPath, err := FilePath()
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(configPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	for _, key := range order {
		if val, ok := values[key]; ok && val != "" {
			if _, err := fmt.Fprintf(f, "%s=%q\n", key, val); err != nil {
				return "", fmt.Errorf("failed to write %s: %w", key, err)
			}
		}
	}

	return configPath, nil
}

// Config is the runtime configuration shared by the bot and the command line
// tools.
type Config struct {
	BotToken       string
	PlacesAPIKey   string
	Places         places.ClientOpts
	CategoryLocale catalog.Locale
	LogLevel       zerolog.Level
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		BotToken:     strings.TrimSpace(os.Getenv(EnvBotToken)),
		PlacesAPIKey: strings.TrimSpace(os.Getenv(EnvPlacesAPIKey)),
		Places: places.ClientOpts{
			BaseURL:  os.Getenv(EnvPlacesBaseURL),
			Language: os.Getenv(EnvPlacesLanguage),
		},
	}

	var err error
	if cfg.Places.PageDelay, err = durationEnv(EnvPageDelay, places.DefaultPageDelay); err != nil {
		return nil, err
	}
	if cfg.Places.Timeout, err = durationEnv(EnvTimeout, places.DefaultTimeout); err != nil {
		return nil, err
	}

	if v := os.Getenv(EnvMaxPages); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", EnvMaxPages, v)
		}
		cfg.Places.MaxPages = n
	} else {
		cfg.Places.MaxPages = places.DefaultMaxPages
	}

	if v := os.Getenv(EnvMaxRPS); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("%s must be a non-negative number, got %q", EnvMaxRPS, v)
		}
		cfg.Places.MaxRPS = rps
	}

	if cfg.CategoryLocale, err = catalog.ParseLocale(os.Getenv(EnvCategoryLocale)); err != nil {
		return nil, fmt.Errorf("%s: %w", EnvCategoryLocale, err)
	}

	cfg.LogLevel = zerolog.InfoLevel
	if v := os.Getenv(EnvLogLevel); v != "" {
		if cfg.LogLevel, err = zerolog.ParseLevel(strings.ToLower(v)); err != nil {
			return nil, fmt.Errorf("%s: %w", EnvLogLevel, err)
		}
	}

	return cfg, nil
}

func durationEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%s must be a duration like 2s, got %q", name, v)
	}
	return d, nil
}
