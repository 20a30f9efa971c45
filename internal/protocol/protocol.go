package protocol

import (
	"encoding/binary"
	"fmt"
)

const (
	// Version is the single supported protocol version. Both sides reject
	// packets carrying anything else.
	Version = 1

	// HeaderSize is the fixed packet header length in bytes: four uint32
	// fields (version, command, serial, length).
	HeaderSize = 16

	// MaxPacketSize bounds the total packet length, header included.
	MaxPacketSize = 4096

	// MaxPayloadSize is the largest payload a single packet can carry.
	MaxPayloadSize = MaxPacketSize - HeaderSize

	// SerialModulus is the size of the serial space. Serials live in
	// [0, SerialModulus-1] and wrap.
	SerialModulus = 4096
)

// byteOrder is the wire byte order. The daemon always runs on the same host
// as the client, so native order avoids any conversion on either side.
var byteOrder = binary.NativeEndian

// Command identifies the operation a packet requests or answers.
type Command uint32

const (
	// CmdNone is the no-op handshake/keepalive command.
	CmdNone Command = iota
	CmdVersion
	CmdNodeInfo
	CmdListDomains
	CmdNumDomains
	CmdLookupID
	CmdLookupUUID
	CmdLookupName
	CmdMaxMemory
	CmdDomainInfo
	// CmdError marks a response in which the daemon reports a command
	// failure. It never appears in requests.
	CmdError
)

func (c Command) String() string {
	switch c {
	case CmdNone:
		return "none"
	case CmdVersion:
		return "version"
	case CmdNodeInfo:
		return "node-info"
	case CmdListDomains:
		return "list-domains"
	case CmdNumDomains:
		return "num-domains"
	case CmdLookupID:
		return "lookup-id"
	case CmdLookupUUID:
		return "lookup-uuid"
	case CmdLookupName:
		return "lookup-name"
	case CmdMaxMemory:
		return "max-memory"
	case CmdDomainInfo:
		return "domain-info"
	case CmdError:
		return "error"
	default:
		return fmt.Sprintf("command(%d)", uint32(c))
	}
}

// Header is the decoded fixed-size packet prefix.
type Header struct {
	Version uint32
	Command Command
	Serial  uint32
	Length  uint32
}

// Packet is one request or response. Length on the wire is always
// HeaderSize + len(Payload).
type Packet struct {
	Version uint32
	Command Command
	Serial  uint32
	Payload []byte
}

// Length reports the total wire length of the packet.
func (p *Packet) Length() uint32 {
	return uint32(HeaderSize + len(p.Payload))
}

// MarshalBinary encodes the packet for transmission. It fails when the
// payload exceeds MaxPayloadSize; nothing is ever written for an invalid
// packet.
func (p *Packet) MarshalBinary() ([]byte, error) {
	if len(p.Payload) > MaxPayloadSize {
		return nil, &Error{
			Kind:   Oversized,
			Detail: fmt.Sprintf("payload %d bytes exceeds maximum %d", len(p.Payload), MaxPayloadSize),
		}
	}
	buf := make([]byte, HeaderSize+len(p.Payload))
	byteOrder.PutUint32(buf[0:4], p.Version)
	byteOrder.PutUint32(buf[4:8], uint32(p.Command))
	byteOrder.PutUint32(buf[8:12], p.Serial)
	byteOrder.PutUint32(buf[12:16], p.Length())
	copy(buf[HeaderSize:], p.Payload)
	return buf, nil
}

// ParseHeader decodes the fixed-size prefix of a packet. It performs no
// semantic validation; see Header.Validate.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, fmt.Errorf("parse header: need %d bytes, have %d", HeaderSize, len(buf))
	}
	return Header{
		Version: byteOrder.Uint32(buf[0:4]),
		Command: Command(byteOrder.Uint32(buf[4:8])),
		Serial:  byteOrder.Uint32(buf[8:12]),
		Length:  byteOrder.Uint32(buf[12:16]),
	}, nil
}

// Validate checks the invariants every acceptable packet header satisfies:
// the protocol version matches and the declared length covers at least the
// header itself. Violations are Malformed protocol errors.
func (h Header) Validate() error {
	if h.Version != Version {
		return &Error{
			Kind:   Malformed,
			Detail: fmt.Sprintf("protocol version %d, expected %d", h.Version, Version),
		}
	}
	if h.Length < HeaderSize {
		return &Error{
			Kind:   Malformed,
			Detail: fmt.Sprintf("declared length %d below header size %d", h.Length, HeaderSize),
		}
	}
	return nil
}

// Oversized reports whether the declared length exceeds the maximum packet
// size. Checked separately from Validate so callers can classify the failure.
func (h Header) Oversized() bool {
	return h.Length > MaxPacketSize
}

// Uint64Arg encodes the single 64-bit integer argument payload used by
// commands such as the version query.
func Uint64Arg(v uint64) []byte {
	buf := make([]byte, 8)
	byteOrder.PutUint64(buf, v)
	return buf
}

// ParseUint64Arg decodes a 64-bit integer payload.
func ParseUint64Arg(payload []byte) (uint64, error) {
	if len(payload) < 8 {
		return 0, &Error{
			Kind:   Malformed,
			Detail: fmt.Sprintf("integer payload %d bytes, expected 8", len(payload)),
		}
	}
	return byteOrder.Uint64(payload), nil
}
