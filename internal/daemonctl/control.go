// Package daemonctl locates and launches the hvproxyd helper daemon.
//
// The supervisor only spawns the process; it never waits for the daemon to
// become ready. Readiness is discovered by the connect retry loop in
// internal/ipc, which calls EnsureRunning between attempts.
package daemonctl

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"github.com/gofrs/flock"

	"hvproxy/internal/config"
	"hvproxy/internal/logging"
)

// LaunchError reports a failed daemon spawn.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch daemon %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// Supervisor launches hvproxyd detached from the calling process.
type Supervisor struct {
	binary      string
	searchPaths []string
	lockPath    string
	logger      *slog.Logger
}

// NewSupervisor builds a supervisor from configuration.
func NewSupervisor(cfg *config.Config, logger *slog.Logger) *Supervisor {
	s := &Supervisor{logger: logging.NewComponentLogger(logger, "daemonctl")}
	if cfg != nil {
		s.binary = cfg.Daemon.Binary
		s.searchPaths = cfg.Daemon.SearchPaths
		s.lockPath = cfg.Daemon.LaunchLock
	}
	return s
}

// EnsureRunning locates the daemon binary and spawns it fully detached: its
// own session (no controlling terminal), stdio on /dev/null, and released so
// it is reparented to init immediately. The daemon may still fail to start
// after spawn; that is observed by the caller's connect retries, not here.
//
// When a launch lock is configured and another process already holds it,
// EnsureRunning returns without spawning: someone else is launching the same
// daemon and the caller's retry loop will find the socket.
func (s *Supervisor) EnsureRunning() error {
	path, err := Locate(s.binary, s.searchPaths)
	if err != nil {
		return err
	}

	if s.lockPath != "" {
		lock := flock.New(s.lockPath)
		locked, lockErr := lock.TryLock()
		if lockErr == nil {
			if !locked {
				s.logger.Debug("daemon launch already in progress", logging.String("lock", s.lockPath))
				return nil
			}
			defer lock.Unlock() //nolint:errcheck
		} else {
			s.logger.Warn("launch lock unavailable, spawning without it",
				logging.String("lock", s.lockPath), logging.Error(lockErr))
		}
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return &LaunchError{Path: path, Err: fmt.Errorf("open %s: %w", os.DevNull, err)}
	}
	defer devNull.Close()

	proc := exec.Command(path)
	proc.Stdin = devNull
	proc.Stdout = devNull
	proc.Stderr = devNull
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := proc.Start(); err != nil {
		return &LaunchError{Path: path, Err: err}
	}
	pid := proc.Process.Pid
	if err := proc.Process.Release(); err != nil {
		return &LaunchError{Path: path, Err: fmt.Errorf("release process: %w", err)}
	}

	s.logger.Info("launched daemon", logging.String("path", path), logging.Int("pid", pid))
	return nil
}
