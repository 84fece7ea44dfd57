// Package config builds the application configuration mapping from layered
// sources: built-in defaults, TOML/YAML files, KERKOAPP_* environment
// variables and an environment-specific profile, applied in that order so
// later layers override earlier ones. The merged mapping is then validated
// against the Settings schema before the rest of the application sees it.
package config
