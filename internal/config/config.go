package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/specify-labs/specify/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Recognized configuration keys. Each can also be set through the
// environment with the branding prefix, e.g. SPECIFY_GITHUB_TOKEN.
const (
	KeyGitHubToken  = "github_token"
	KeyAPIBase      = "api_base"
	KeyTemplateRepo = "template_repo"
	KeyLogLevel     = "log_level"
)

// DefaultAPIBase is the public GitHub REST endpoint.
const DefaultAPIBase = "https://api.github.com"

// Dir returns the path to the config directory (~/.specify/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.specify/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	viper.SetDefault(KeyAPIBase, DefaultAPIBase)
	viper.SetDefault(KeyTemplateRepo, branding.TemplateRepo())
	viper.SetDefault(KeyLogLevel, "warn")

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Settings is the typed view of the keys the init pipeline consumes.
type Settings struct {
	GitHubToken  string
	APIBase      string
	TemplateRepo string
	LogLevel     string
}

// Current snapshots the loaded configuration.
func Current() Settings {
	return Settings{
		GitHubToken:  Get(KeyGitHubToken),
		APIBase:      Get(KeyAPIBase),
		TemplateRepo: Get(KeyTemplateRepo),
		LogLevel:     Get(KeyLogLevel),
	}
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}

	viper.Set(key, value)

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
