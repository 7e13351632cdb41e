// Package config loads application configuration.
//
// Precedence, lowest to highest: built-in defaults, the TOML config file,
// then REDLINE_* environment variables. A missing config file is not an
// error; the defaults stand.
package config
