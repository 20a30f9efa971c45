package config

import (
	"os"
	"path/filepath"
	"strings"
)

// normalize expands user paths and trims whitespace so the rest of the
// repository never sees a raw "~" or padded value. Search-path entries stay
// relative when written relative: they are resolved against the working
// directory at locate time, matching a development tree layout.
func (c *Config) normalize() error {
	c.Daemon.SocketName = strings.TrimSpace(c.Daemon.SocketName)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))

	var err error
	if c.Daemon.LaunchLock = strings.TrimSpace(c.Daemon.LaunchLock); c.Daemon.LaunchLock != "" {
		if c.Daemon.LaunchLock, err = expandPath(c.Daemon.LaunchLock); err != nil {
			return err
		}
	}
	if c.Logging.LogDir = strings.TrimSpace(c.Logging.LogDir); c.Logging.LogDir != "" {
		if c.Logging.LogDir, err = expandPath(c.Logging.LogDir); err != nil {
			return err
		}
	}

	if c.Daemon.Binary = strings.TrimSpace(c.Daemon.Binary); c.Daemon.Binary != "" {
		if c.Daemon.Binary, err = expandUserPath(c.Daemon.Binary); err != nil {
			return err
		}
	}
	paths := c.Daemon.SearchPaths[:0]
	for _, p := range c.Daemon.SearchPaths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p, err = expandUserPath(p); err != nil {
			return err
		}
		paths = append(paths, p)
	}
	c.Daemon.SearchPaths = paths

	return nil
}

// expandUserPath resolves a leading tilde but preserves relative paths.
func expandUserPath(pathValue string) (string, error) {
	if !strings.HasPrefix(pathValue, "~") {
		return pathValue, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	if pathValue == "~" {
		return home, nil
	}
	if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
		return filepath.Join(home, pathValue[2:]), nil
	}
	return pathValue, nil
}
