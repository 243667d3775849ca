// Package cli defines the Cobra command tree for the specify CLI. Each file
// in this package registers one top-level command (init, check, version,
// config) with the root command. Commands delegate to internal packages for
// the pipeline itself and only handle flag parsing, prompts and rendering.
package cli
