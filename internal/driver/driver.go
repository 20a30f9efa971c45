// Package driver is the typed hypervisor facade over a proxy session.
//
// Only the version query is served end to end today. The remaining entry
// points are declared with their final signatures and fail with
// ErrNotImplemented, so callers get an explicit typed error instead of a
// silently empty answer.
package driver

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"hvproxy/internal/ipc"
	"hvproxy/internal/protocol"
)

// ErrNotImplemented marks a declared entry point the daemon does not serve
// yet.
var ErrNotImplemented = errors.New("not implemented")

// NodeInfo describes the host the daemon runs on.
type NodeInfo struct {
	Model   string
	Memory  uint64
	CPUs    uint32
	MHz     uint32
	Nodes   uint32
	Sockets uint32
	Cores   uint32
	Threads uint32
}

// DomainInfo is the runtime state of one domain.
type DomainInfo struct {
	State     uint8
	MaxMemory uint64
	Memory    uint64
	CPUs      uint16
}

// Driver issues hypervisor operations through one session. Like the session
// underneath, it is not safe for concurrent use.
type Driver struct {
	session *ipc.Session
}

// New wraps an initialized session.
func New(session *ipc.Session) *Driver {
	return &Driver{session: session}
}

// Version reports the hypervisor version. Zero means the daemon has no
// versioning information, which is not a failure.
func (d *Driver) Version() (protocol.VersionNumber, error) {
	return d.session.HypervisorVersion()
}

// NodeInfo reports host hardware characteristics.
func (d *Driver) NodeInfo() (NodeInfo, error) {
	return NodeInfo{}, fmt.Errorf("node info: %w", ErrNotImplemented)
}

// ListDomains returns the IDs of the running domains.
func (d *Driver) ListDomains() ([]uint32, error) {
	return nil, fmt.Errorf("list domains: %w", ErrNotImplemented)
}

// NumDomains returns the count of running domains.
func (d *Driver) NumDomains() (int, error) {
	return 0, fmt.Errorf("count domains: %w", ErrNotImplemented)
}

// DomainLookupByID resolves a running domain by numeric ID.
func (d *Driver) DomainLookupByID(id int) (string, error) {
	return "", fmt.Errorf("lookup domain by id %d: %w", id, ErrNotImplemented)
}

// DomainLookupByUUID resolves a domain by UUID.
func (d *Driver) DomainLookupByUUID(id uuid.UUID) (string, error) {
	return "", fmt.Errorf("lookup domain by uuid %s: %w", id, ErrNotImplemented)
}

// DomainLookupByName resolves a domain by name.
func (d *Driver) DomainLookupByName(name string) (string, error) {
	return "", fmt.Errorf("lookup domain by name %q: %w", name, ErrNotImplemented)
}

// DomainMaxMemory reports a domain's maximum memory in kibibytes.
func (d *Driver) DomainMaxMemory() (uint64, error) {
	return 0, fmt.Errorf("domain max memory: %w", ErrNotImplemented)
}

// DomainInfo reports a domain's runtime state.
func (d *Driver) DomainInfo() (DomainInfo, error) {
	return DomainInfo{}, fmt.Errorf("domain info: %w", ErrNotImplemented)
}

// Close releases the underlying session.
func (d *Driver) Close() error {
	if d == nil {
		return nil
	}
	return d.session.Close()
}
