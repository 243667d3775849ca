// Package agents holds the static table of supported AI agents and script
// flavours. The table is embedded YAML, validated against an embedded JSON
// schema plus uniqueness rules the first time it is loaded, and immutable
// afterwards.
package agents
