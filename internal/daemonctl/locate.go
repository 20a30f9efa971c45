package daemonctl

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// PathEnvVar overrides daemon binary discovery entirely. Its value is used
// verbatim, without an existence check, so a developer can point at a binary
// that will appear later; a bad path surfaces as a launch failure instead.
const PathEnvVar = "HVPROXYD_PATH"

// ErrPathNotFound indicates no hvproxyd binary could be located.
var ErrPathNotFound = errors.New("hvproxyd binary not found")

// Locate resolves the daemon executable path: environment override first,
// then the explicit binary, then the search paths in order. Candidates must
// be readable and executable by the current process.
func Locate(binary string, searchPaths []string) (string, error) {
	if override := os.Getenv(PathEnvVar); override != "" {
		return override, nil
	}

	candidates := make([]string, 0, len(searchPaths)+1)
	if binary != "" {
		candidates = append(candidates, binary)
	}
	candidates = append(candidates, searchPaths...)

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if unix.Access(candidate, unix.X_OK|unix.R_OK) == nil {
			return candidate, nil
		}
	}
	return "", ErrPathNotFound
}
