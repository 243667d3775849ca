// Package config manages user-level settings stored at ~/.specify/config.yaml.
// Keys cover the GitHub token fallback, an API base override for GitHub
// Enterprise, the template repository and the default log level.
package config
