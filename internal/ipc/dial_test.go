package ipc_test

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"hvproxy/internal/config"
	"hvproxy/internal/daemonctl"
	"hvproxy/internal/ipc"
	"hvproxy/internal/logging"
)

// testSocketName builds an abstract-namespace name unique to this test run,
// so parallel packages never collide on the shared namespace.
func testSocketName(t *testing.T) string {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "-")
	return fmt.Sprintf("hvproxy-test-%d-%s", os.Getpid(), name)
}

// listenLauncher plays the daemon: EnsureRunning brings up an in-process
// abstract listener, so the connector's next attempt finds the socket.
type listenLauncher struct {
	t        *testing.T
	name     string
	launches int
}

func (l *listenLauncher) EnsureRunning() error {
	l.launches++
	ln, err := net.Listen("unix", "@"+l.name)
	if err != nil {
		return err
	}
	l.t.Cleanup(func() { ln.Close() })
	go func() {
		conns := make([]net.Conn, 0, 1)
		defer func() {
			for _, c := range conns {
				c.Close()
			}
		}()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, conn)
		}
	}()
	return nil
}

// noopLauncher claims success but never brings a daemon up.
type noopLauncher struct{ launches int }

func (l *noopLauncher) EnsureRunning() error {
	l.launches++
	return nil
}

func TestDialConnectsWithoutLaunchWhenDaemonIsUp(t *testing.T) {
	name := testSocketName(t)
	launcher := &listenLauncher{t: t, name: name}
	if err := launcher.EnsureRunning(); err != nil {
		t.Fatalf("start listener: %v", err)
	}
	launcher.launches = 0

	conn, err := ipc.Dial(ipc.DialOptions{SocketName: name}, launcher, logging.NewNop())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if launcher.launches != 0 {
		t.Fatalf("expected no launch when the socket answers, got %d", launcher.launches)
	}
}

func TestDialLaunchesDaemonThenConnects(t *testing.T) {
	name := testSocketName(t)
	launcher := &listenLauncher{t: t, name: name}

	conn, err := ipc.Dial(ipc.DialOptions{SocketName: name, BackoffUnit: time.Millisecond}, launcher, logging.NewNop())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if launcher.launches != 1 {
		t.Fatalf("expected exactly one launch, got %d", launcher.launches)
	}
}

func TestDialFailsFastWhenBinaryIsMissing(t *testing.T) {
	t.Setenv(daemonctl.PathEnvVar, "")
	cfg := &config.Config{}
	cfg.Daemon.Binary = "/nonexistent/hvproxyd"
	supervisor := daemonctl.NewSupervisor(cfg, logging.NewNop())

	start := time.Now()
	_, err := ipc.Dial(ipc.DialOptions{
		SocketName:  testSocketName(t),
		BackoffUnit: time.Hour,
	}, supervisor, logging.NewNop())
	elapsed := time.Since(start)

	if !errors.Is(err, daemonctl.ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}
	var cerr *ipc.ConnectError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a ConnectError wrapper, got %T", err)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("launcher failure must not wait out the backoff, took %v", elapsed)
	}
}

func TestDialGivesUpAfterConfiguredAttempts(t *testing.T) {
	launcher := &noopLauncher{}

	_, err := ipc.Dial(ipc.DialOptions{
		SocketName:  testSocketName(t),
		Attempts:    3,
		BackoffUnit: time.Microsecond,
	}, launcher, logging.NewNop())

	var cerr *ipc.ConnectError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a ConnectError, got %v", err)
	}
	if cerr.Attempts != 3 {
		t.Fatalf("expected 3 attempts recorded, got %d", cerr.Attempts)
	}
	if launcher.launches != 3 {
		t.Fatalf("expected 3 launch requests, got %d", launcher.launches)
	}
}

func TestDialNilLauncherFailsImmediately(t *testing.T) {
	_, err := ipc.Dial(ipc.DialOptions{
		SocketName:  testSocketName(t),
		BackoffUnit: time.Hour,
	}, nil, logging.NewNop())

	var cerr *ipc.ConnectError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected a ConnectError, got %v", err)
	}
	if cerr.Attempts != 0 {
		t.Fatalf("expected zero attempts, got %d", cerr.Attempts)
	}
}
