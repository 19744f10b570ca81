// Package config loads and validates analysis run configuration from JSON
// or TOML files.
package config
