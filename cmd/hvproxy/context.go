package main

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"syscall"

	"log/slog"

	"github.com/spf13/cobra"

	"hvproxy/internal/config"
	"hvproxy/internal/daemonctl"
	"hvproxy/internal/ipc"
	"hvproxy/internal/logging"
)

type commandContext struct {
	socketFlag *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(socketFlag, configFlag *string) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) socketName() string {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return strings.TrimSpace(*c.socketFlag)
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return cfg.Daemon.SocketName
	}
	return config.Default().Daemon.SocketName
}

func (c *commandContext) logger() *slog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return logging.NewNop()
	}
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withSession connects to the daemon, launching it when the socket does not
// answer, and hands the initialized session to fn.
func (c *commandContext) withSession(fn func(*ipc.Session) error) error {
	session, err := c.connect()
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session)
}

func (c *commandContext) connect() (*ipc.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := c.logger()
	socket := c.socketName()

	session, err := ipc.Connect(ipc.ConnectOptions{
		Dial: ipc.DialOptions{
			SocketName:  socket,
			Attempts:    cfg.Connect.Attempts,
			BackoffUnit: cfg.BackoffUnit(),
		},
		Session: ipc.SessionOptions{
			MaxMismatchedReads: cfg.Connect.MaxMismatchedReads,
		},
	}, daemonctl.NewSupervisor(cfg, logger), logger)
	if err != nil {
		return nil, wrapConnectError(err, socket)
	}
	return session, nil
}

func wrapConnectError(err error, socket string) error {
	switch {
	case errors.Is(err, daemonctl.ErrPathNotFound):
		return fmt.Errorf("connect to daemon: no hvproxyd binary found; install it or set %s", daemonctl.PathEnvVar)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket @%s refused the connection; the daemon may still be starting", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
