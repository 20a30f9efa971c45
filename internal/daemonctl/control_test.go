package daemonctl_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"hvproxy/internal/config"
	"hvproxy/internal/daemonctl"
	"hvproxy/internal/logging"
)

func writeScript(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestLocateEnvOverrideIsVerbatim(t *testing.T) {
	t.Setenv(daemonctl.PathEnvVar, "/definitely/not/there/hvproxyd")

	path, err := daemonctl.Locate("", nil)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if path != "/definitely/not/there/hvproxyd" {
		t.Fatalf("override must be returned without checks, got %q", path)
	}
}

func TestLocateScansCandidatesInOrder(t *testing.T) {
	t.Setenv(daemonctl.PathEnvVar, "")
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")
	notExecutable := writeScript(t, dir, "plain", 0o644)
	executable := writeScript(t, dir, "hvproxyd", 0o755)

	path, err := daemonctl.Locate("", []string{missing, notExecutable, executable})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if path != executable {
		t.Fatalf("expected %q, got %q", executable, path)
	}
}

func TestLocateExplicitBinaryWinsOverSearchPaths(t *testing.T) {
	t.Setenv(daemonctl.PathEnvVar, "")
	dir := t.TempDir()
	primary := writeScript(t, dir, "primary", 0o755)
	secondary := writeScript(t, dir, "secondary", 0o755)

	path, err := daemonctl.Locate(primary, []string{secondary})
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if path != primary {
		t.Fatalf("expected explicit binary %q, got %q", primary, path)
	}
}

func TestLocateNothingFound(t *testing.T) {
	t.Setenv(daemonctl.PathEnvVar, "")
	_, err := daemonctl.Locate("", []string{filepath.Join(t.TempDir(), "nope")})
	if !errors.Is(err, daemonctl.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
}

func supervisorConfig(t *testing.T, binary string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Daemon.Binary = binary
	cfg.Daemon.SearchPaths = nil
	cfg.Daemon.LaunchLock = filepath.Join(t.TempDir(), "launch.lock")
	return &cfg
}

func TestEnsureRunningWithoutBinary(t *testing.T) {
	t.Setenv(daemonctl.PathEnvVar, "")
	sup := daemonctl.NewSupervisor(supervisorConfig(t, ""), logging.NewNop())
	if err := sup.EnsureRunning(); !errors.Is(err, daemonctl.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
}

func TestEnsureRunningSpawnsDetached(t *testing.T) {
	t.Setenv(daemonctl.PathEnvVar, "")
	script := writeScript(t, t.TempDir(), "hvproxyd", 0o755)
	sup := daemonctl.NewSupervisor(supervisorConfig(t, script), logging.NewNop())
	if err := sup.EnsureRunning(); err != nil {
		t.Fatalf("EnsureRunning: %v", err)
	}
}

func TestEnsureRunningLaunchFailure(t *testing.T) {
	t.Setenv(daemonctl.PathEnvVar, filepath.Join(t.TempDir(), "ghost"))
	sup := daemonctl.NewSupervisor(supervisorConfig(t, ""), logging.NewNop())

	err := sup.EnsureRunning()
	var launchErr *daemonctl.LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
}

func TestEnsureRunningSkipsWhenLockHeld(t *testing.T) {
	t.Setenv(daemonctl.PathEnvVar, "")
	// A directory passes the locate access check but cannot be executed, so
	// any spawn attempt would surface as a LaunchError. Holding the lock
	// must short-circuit before that point.
	cfg := supervisorConfig(t, t.TempDir())

	holder := flock.New(cfg.Daemon.LaunchLock)
	locked, err := holder.TryLock()
	if err != nil || !locked {
		t.Fatalf("prepare lock: locked=%v err=%v", locked, err)
	}
	defer holder.Unlock() //nolint:errcheck

	sup := daemonctl.NewSupervisor(cfg, logging.NewNop())
	if err := sup.EnsureRunning(); err != nil {
		t.Fatalf("expected silent skip while lock held, got %v", err)
	}
}
