package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/raine/places-collector/internal/catalog"
	"github.com/raine/places-collector/internal/places"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnvVars = []string{
	EnvBotToken, EnvPlacesAPIKey, EnvPlacesBaseURL, EnvPlacesLanguage, EnvPageDelay,
	EnvMaxPages, EnvMaxRPS, EnvTimeout, EnvCategoryLocale, EnvLogLevel,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range allEnvVars {
		t.Setenv(v, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.BotToken)
	assert.Equal(t, "", cfg.PlacesAPIKey)
	assert.Equal(t, places.DefaultPageDelay, cfg.Places.PageDelay)
	assert.Equal(t, places.DefaultTimeout, cfg.Places.Timeout)
	assert.Equal(t, places.DefaultMaxPages, cfg.Places.MaxPages)
	assert.Zero(t, cfg.Places.MaxRPS)
	assert.Equal(t, catalog.LocalePT, cfg.CategoryLocale)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBotToken, " 123:abc ")
	t.Setenv(EnvPlacesAPIKey, "key")
	t.Setenv(EnvPlacesBaseURL, "http://localhost:8080")
	t.Setenv(EnvPlacesLanguage, "pt-BR")
	t.Setenv(EnvPageDelay, "3s")
	t.Setenv(EnvMaxPages, "5")
	t.Setenv(EnvMaxRPS, "2.5")
	t.Setenv(EnvTimeout, "1m")
	t.Setenv(EnvCategoryLocale, "identity")
	t.Setenv(EnvLogLevel, "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "key", cfg.PlacesAPIKey)
	assert.Equal(t, "http://localhost:8080", cfg.Places.BaseURL)
	assert.Equal(t, "pt-BR", cfg.Places.Language)
	assert.Equal(t, 3*time.Second, cfg.Places.PageDelay)
	assert.Equal(t, 5, cfg.Places.MaxPages)
	assert.Equal(t, 2.5, cfg.Places.MaxRPS)
	assert.Equal(t, time.Minute, cfg.Places.Timeout)
	assert.Equal(t, catalog.LocaleIdentity, cfg.CategoryLocale)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"page delay", EnvPageDelay, "two seconds"},
		{"negative page delay", EnvPageDelay, "-1s"},
		{"max pages", EnvMaxPages, "0"},
		{"max pages text", EnvMaxPages, "many"},
		{"max rps", EnvMaxRPS, "-1"},
		{"timeout", EnvTimeout, "soon"},
		{"locale", EnvCategoryLocale, "fr"},
		{"log level", EnvLogLevel, "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestCheckRequired(t *testing.T) {
	t.Setenv(EnvBotToken, "")
	t.Setenv(EnvPlacesAPIKey, "set")

	missing := CheckRequired([]string{EnvBotToken, EnvPlacesAPIKey})
	assert.Equal(t, []string{EnvBotToken}, missing)
}

func TestWriteEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	path, err := WriteEnvFile(map[string]string{
		EnvBotToken:     "123:abc",
		EnvPlacesAPIKey: `key"with"quotes`,
		EnvLogLevel:     "",
	}, []string{EnvBotToken, EnvPlacesAPIKey, EnvLogLevel})
	require.NoError(t, err)

	configDir, err := Dir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(configDir, EnvFileName), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	values, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		EnvBotToken:     "123:abc",
		EnvPlacesAPIKey: `key"with"quotes`,
	}, values)
}
