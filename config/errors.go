package config

import "errors"

var (
	// ErrConfigNotFound is returned when an explicit config file does not exist.
	ErrConfigNotFound = errors.New("config: file not found")

	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("config: invalid configuration")
)
