package ipc

import (
	"fmt"
	"log/slog"
	"time"

	"hvproxy/internal/logging"
)

// Launcher starts the daemon when the socket is not answering. It is an
// interface so tests can substitute an in-process server.
type Launcher interface {
	EnsureRunning() error
}

// ConnectError is the terminal failure of one Dial call. The caller may
// retry a whole new Dial later; the connector itself never does.
type ConnectError struct {
	Socket   string
	Attempts int
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to daemon @%s after %d launch attempts: %v", e.Socket, e.Attempts, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// DialOptions tunes the connector.
type DialOptions struct {
	// SocketName is the abstract-namespace endpoint, without the leading
	// NUL/@ marker.
	SocketName string
	// Attempts is how many launch-and-retry cycles run before giving up.
	// Zero means the default of 3.
	Attempts int
	// BackoffUnit is the base delay; retry n sleeps n*n times this. Zero
	// means the default of 5ms.
	BackoffUnit time.Duration
}

const (
	defaultAttempts    = 3
	defaultBackoffUnit = 5 * time.Millisecond
)

// Dial connects to the daemon's abstract socket. On failure it asks the
// launcher to start the daemon, sleeps attempt² backoff units, and retries;
// after the configured attempts are exhausted it returns a ConnectError.
//
// A launcher failure ends the call immediately without sleeping: when no
// binary can be found or spawned, waiting cannot help.
func Dial(opts DialOptions, launcher Launcher, logger *slog.Logger) (*Conn, error) {
	logger = logging.NewComponentLogger(logger, "connector")
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	backoff := opts.BackoffUnit
	if backoff <= 0 {
		backoff = defaultBackoffUnit
	}

	attempt := 0
	for {
		conn, err := dialAbstract(opts.SocketName)
		if err == nil {
			logger.Debug("connected to daemon socket",
				logging.String("socket", opts.SocketName), logging.Int("attempt", attempt))
			return conn, nil
		}

		if attempt >= attempts {
			return nil, &ConnectError{Socket: opts.SocketName, Attempts: attempt, Err: err}
		}

		logger.Debug("daemon socket not answering, launching daemon",
			logging.String("socket", opts.SocketName), logging.Error(err))
		if launcher == nil {
			return nil, &ConnectError{Socket: opts.SocketName, Attempts: attempt, Err: err}
		}
		if launchErr := launcher.EnsureRunning(); launchErr != nil {
			return nil, &ConnectError{Socket: opts.SocketName, Attempts: attempt, Err: launchErr}
		}

		attempt++
		time.Sleep(backoff * time.Duration(attempt*attempt))
	}
}
