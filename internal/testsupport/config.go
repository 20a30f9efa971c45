// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hvproxy/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories and a
// per-test abstract socket name, so parallel tests never share state. It
// defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Daemon.SocketName = SocketName(t)
	cfgVal.Daemon.SearchPaths = nil
	cfgVal.Daemon.LaunchLock = filepath.Join(base, "launch.lock")
	cfgVal.Logging.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDaemonBinary points the config at a specific daemon executable.
func WithDaemonBinary(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.Binary = path
	}
}

// WithSocketName overrides the generated abstract socket name.
func WithSocketName(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.SocketName = name
	}
}

// SocketName derives an abstract-namespace socket name unique to the running
// test, bounded well under the kernel's address length limit.
func SocketName(t testing.TB) string {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "-")
	if len(name) > 48 {
		name = name[:48]
	}
	return fmt.Sprintf("hvproxy-%d-%s", os.Getpid(), name)
}
