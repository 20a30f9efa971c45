package main

import (
	"testing"

	"hvproxy/internal/protocol"
)

func TestPingRoundTrip(t *testing.T) {
	env := setupCLITestEnv(t)
	startDaemon(t, env, protocol.VersionNumber{Major: 1})

	out, err := runCLI(t, []string{"ping"}, env)
	if err != nil {
		t.Fatalf("ping: %v\n%s", err, out)
	}
	requireContains(t, out, "reply from @"+env.socketName)
}

func TestPingCount(t *testing.T) {
	env := setupCLITestEnv(t)
	startDaemon(t, env, protocol.VersionNumber{Major: 1})

	out, err := runCLI(t, []string{"ping", "--count", "3"}, env)
	if err != nil {
		t.Fatalf("ping: %v\n%s", err, out)
	}
	// Connect itself consumes serials 1 and 2, so the last ping is serial 5.
	requireContains(t, out, "serial=5")
}

func TestPingFailsWithNonzeroExitWhenDaemonUnreachable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, []string{"ping"}, env)
	if err == nil {
		t.Fatalf("expected ping to fail without a daemon, got:\n%s", out)
	}
}

func TestVersionReportsHypervisor(t *testing.T) {
	env := setupCLITestEnv(t)
	startDaemon(t, env, protocol.VersionNumber{Major: 3, Minor: 1, Release: 4})

	out, err := runCLI(t, []string{"version"}, env)
	if err != nil {
		t.Fatalf("version: %v\n%s", err, out)
	}
	requireContains(t, out, "hvproxy client "+clientVersion)
	requireContains(t, out, "hypervisor: 3.1.4")
}

func TestVersionZeroMeansNoInformation(t *testing.T) {
	env := setupCLITestEnv(t)
	startDaemon(t, env, protocol.VersionNumber{})

	out, err := runCLI(t, []string{"version"}, env)
	if err != nil {
		t.Fatalf("version: %v\n%s", err, out)
	}
	requireContains(t, out, "no versioning information available")
}

func TestVersionClientOnlySkipsDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, []string{"version", "--client"}, env)
	if err != nil {
		t.Fatalf("version --client: %v\n%s", err, out)
	}
	requireContains(t, out, "hvproxy client "+clientVersion)
}

func TestStatusReportsReachableDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	startDaemon(t, env, protocol.VersionNumber{Major: 2})

	out, err := runCLI(t, []string{"status", "--no-launch"}, env)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "Socket: @"+env.socketName)
	requireContains(t, out, "Reachable: yes")
	requireContains(t, out, "Hypervisor version: 2.0.0")
}

func TestStatusReportsUnreachableDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, []string{"status", "--no-launch"}, env)
	if err != nil {
		t.Fatalf("status must still report when the daemon is down: %v\n%s", err, out)
	}
	requireContains(t, out, "Reachable: no")
}
