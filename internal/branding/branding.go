// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork can rename the tool or point it at a
// different template repository without touching Go code.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName             string `yaml:"cli_name"`
	DisplayName         string `yaml:"display_name"`
	Description         string `yaml:"description"`
	Tagline             string `yaml:"tagline"`
	HomeDir             string `yaml:"home_dir"`
	EnvPrefix           string `yaml:"env_prefix"`
	TemplateRepo        string `yaml:"template_repo"`
	TemplateAssetPrefix string `yaml:"template_asset_prefix"`
}

func load() {
	once.Do(func() {
		// Set hard defaults in case the embedded file is missing/empty.
		defaults = brand{
			CLIName:             "specify",
			DisplayName:         "Specify",
			Description:         "Bootstrap a Spec-Driven Development project from a release template",
			Tagline:             "GitHub Spec Kit - Spec-Driven Development Toolkit",
			HomeDir:             ".specify",
			EnvPrefix:           "SPECIFY",
			TemplateRepo:        "github/spec-kit",
			TemplateAssetPrefix: "spec-kit-template",
		}
		// Overlay with embedded YAML values.
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "specify").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// Tagline is printed under the banner.
func Tagline() string { load(); return defaults.Tagline }

// HomeDir returns the dot-directory name under $HOME (e.g., ".specify").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "SPECIFY").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// TemplateRepo returns the "owner/repo" that publishes template releases.
func TemplateRepo() string { load(); return defaults.TemplateRepo }

// TemplateAssetPrefix returns the name prefix shared by all template archives.
func TemplateAssetPrefix() string { load(); return defaults.TemplateAssetPrefix }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("HOME") → "SPECIFY_HOME".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
