package config

import (
	"fmt"
	"strings"
)

// maxSocketNameLen is the longest abstract socket name that fits in
// sun_path together with the leading NUL byte.
const maxSocketNameLen = 107

// Validate rejects configurations the client cannot operate with.
func (c *Config) Validate() error {
	name := c.Daemon.SocketName
	switch {
	case name == "":
		return fmt.Errorf("daemon.socket_name: must not be empty")
	case len(name) > maxSocketNameLen:
		return fmt.Errorf("daemon.socket_name: %d characters exceeds the %d-character limit", len(name), maxSocketNameLen)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("daemon.socket_name: must not contain NUL bytes")
	}

	if c.Connect.Attempts < 1 {
		return fmt.Errorf("connect.attempts: must be at least 1, got %d", c.Connect.Attempts)
	}
	if c.Connect.BackoffMillis < 0 {
		return fmt.Errorf("connect.backoff_ms: must not be negative, got %d", c.Connect.BackoffMillis)
	}
	if c.Connect.MaxMismatchedReads < 1 {
		return fmt.Errorf("connect.max_mismatched_reads: must be at least 1, got %d", c.Connect.MaxMismatchedReads)
	}

	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}

	return nil
}
