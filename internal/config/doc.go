// Package config loads, normalizes, and validates hvproxy configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob
// the client and the development daemon need: the abstract socket name, the
// daemon binary search list, connect retry tuning, and logging options.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
