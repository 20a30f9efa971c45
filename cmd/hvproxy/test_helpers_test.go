package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hvproxy/internal/config"
	"hvproxy/internal/logging"
	"hvproxy/internal/protocol"
	"hvproxy/internal/proxyd"
	"hvproxy/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	socketName string
}

// setupCLITestEnv isolates HOME, writes a config file backed by temp
// directories, and returns the environment the CLI commands should run in.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	cfg.Daemon.Binary = filepath.Join(base, "no-such-hvproxyd")

	configPath := filepath.Join(homeDir, ".config", "hvproxy", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		socketName: cfg.Daemon.SocketName,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// startDaemon brings up an in-process daemon on the environment's socket.
func startDaemon(t *testing.T, env *cliTestEnv, version protocol.VersionNumber) {
	t.Helper()
	server, err := proxyd.NewServer(context.Background(), proxyd.Options{
		SocketName:        env.socketName,
		HypervisorVersion: version,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)
}

func runCLI(t *testing.T, args []string, env *cliTestEnv) (string, error) {
	t.Helper()
	full := append([]string{}, args...)
	if env != nil {
		full = append(full, "--config", env.configPath, "--socket", env.socketName)
	}

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(full)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
