// Package config loads imgblend's TOML configuration.
//
// Load starts from Default, overlays the file when one exists, then
// normalizes and validates the result. Command-line flags are applied by the
// caller after Load returns.
package config
