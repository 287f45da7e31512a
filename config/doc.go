// Package config loads fibops configuration.
//
// Values are layered, lowest precedence first: built-in defaults, an
// optional config file (YAML, TOML or JSON), FIBOPS_* environment
// variables, and command-line flags. Nested keys map to environment names
// by upper-casing and replacing dots with underscores, so server.max_n is
// FIBOPS_SERVER_MAX_N.
//
// Credential values may reference the environment as ${VAR}; an unset
// variable fails the load.
package config
