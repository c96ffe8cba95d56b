// Package config loads, normalizes, and validates mediadupe configuration data.
//
// It supplies repository defaults (media extensions, skip folders, throttle
// knobs), expands user paths including tilde shortcuts, reads TOML files, and
// honours environment fallbacks such as MEDIADUPE_LOG_LEVEL. The Config type
// centralizes every knob the scanner, detector, and CLI need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extension lists, and clear validation errors.
package config
