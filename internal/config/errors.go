package config

import "errors"

var (
	// ErrInstancePath is returned when the instance path cannot be used.
	ErrInstancePath = errors.New("invalid instance path")
	// ErrInvalidConfig is returned when the merged configuration fails validation.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnsupportedFormat is returned for configuration files with an unknown extension.
	ErrUnsupportedFormat = errors.New("unsupported configuration file format")
)
