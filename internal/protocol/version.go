package protocol

import "fmt"

// VersionNumber is the hypervisor version reported by the daemon, carried on
// the wire as major*1_000_000 + minor*1_000 + release. A zero value means the
// daemon has no versioning information available, which is not an error.
type VersionNumber struct {
	Major   int
	Minor   int
	Release int
}

// DecodeVersion unpacks the wire representation of a hypervisor version.
func DecodeVersion(v uint64) VersionNumber {
	return VersionNumber{
		Major:   int(v / 1_000_000),
		Minor:   int(v / 1_000 % 1_000),
		Release: int(v % 1_000),
	}
}

// EncodeVersion packs a hypervisor version for the wire.
func EncodeVersion(v VersionNumber) uint64 {
	return uint64(v.Major)*1_000_000 + uint64(v.Minor)*1_000 + uint64(v.Release)
}

// IsZero reports whether the daemon supplied no versioning information.
func (v VersionNumber) IsZero() bool {
	return v.Major == 0 && v.Minor == 0 && v.Release == 0
}

func (v VersionNumber) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Release)
}
