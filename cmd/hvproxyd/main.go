// Command hvproxyd is the development helper daemon. It binds the abstract
// socket from the configuration and answers the proxy wire protocol until
// terminated.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"hvproxy/internal/config"
	"hvproxy/internal/logging"
	"hvproxy/internal/protocol"
	"hvproxy/internal/proxyd"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	hvVersion := flag.String("hv-version", "", "hypervisor version to report, as major.minor.release (empty reports no versioning information)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	version, err := parseVersion(*hvVersion)
	if err != nil {
		log.Fatalf("parse --hv-version: %v", err)
	}

	server, err := proxyd.NewServer(ctx, proxyd.Options{
		SocketName:        cfg.Daemon.SocketName,
		HypervisorVersion: version,
	}, logger)
	if err != nil {
		log.Fatalf("start server: %v", err)
	}
	defer server.Close()
	server.Serve()

	<-ctx.Done()
	logger.Info("hvproxyd shutting down")
}

// parseVersion turns "major.minor.release" into a version number. An empty
// string is the zero version, which the protocol treats as "no versioning
// information available".
func parseVersion(value string) (protocol.VersionNumber, error) {
	if strings.TrimSpace(value) == "" {
		return protocol.VersionNumber{}, nil
	}
	parts := strings.Split(value, ".")
	if len(parts) != 3 {
		return protocol.VersionNumber{}, fmt.Errorf("want major.minor.release, got %q", value)
	}
	nums := make([]uint64, 3)
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return protocol.VersionNumber{}, fmt.Errorf("component %q: %w", part, err)
		}
		nums[i] = n
	}
	return protocol.VersionNumber{
		Major:   int(nums[0]),
		Minor:   int(nums[1]),
		Release: int(nums[2]),
	}, nil
}
