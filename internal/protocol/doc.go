// Package protocol defines the wire format spoken between hvproxy clients
// and the hvproxyd helper daemon.
//
// Every message is a single packet: a fixed 16-byte header (protocol version,
// command code, correlation serial, total length) followed by a
// command-specific payload bounded by MaxPacketSize. Byte order is the host's
// native order; the protocol is same-host only and never crosses a machine
// boundary.
//
// The package owns header validation, command enumeration, and the encoding
// of the hypervisor version number. Transport and session logic live in
// internal/ipc.
package protocol
