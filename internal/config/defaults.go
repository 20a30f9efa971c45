package config

const (
	defaultSocketName         = "hvproxy"
	defaultLaunchLock         = "~/.local/share/hvproxy/launch.lock"
	defaultLogDir             = "~/.local/share/hvproxy/logs"
	defaultLogLevel           = "info"
	defaultLogFormat          = "console"
	defaultConnectAttempts    = 3
	defaultBackoffMillis      = 5
	defaultMaxMismatchedReads = 8
)

// defaultSearchPaths mirror the places a development or packaged hvproxyd
// ends up, scanned in order. A build-tree binary wins over installed ones so
// development loops pick up fresh builds.
func defaultSearchPaths() []string {
	return []string{
		"./hvproxyd",
		"~/.local/libexec/hvproxyd",
		"/usr/local/libexec/hvproxyd",
		"/usr/libexec/hvproxyd",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Daemon: Daemon{
			SocketName:  defaultSocketName,
			SearchPaths: defaultSearchPaths(),
			LaunchLock:  defaultLaunchLock,
		},
		Connect: Connect{
			Attempts:           defaultConnectAttempts,
			BackoffMillis:      defaultBackoffMillis,
			MaxMismatchedReads: defaultMaxMismatchedReads,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
			LogDir: defaultLogDir,
		},
	}
}
