// Package config loads and validates gateway configuration from files,
// environment variables, and CLI flags.
package config
