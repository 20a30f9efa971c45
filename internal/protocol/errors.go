package protocol

import "fmt"

// ErrorKind classifies protocol violations. Every kind forces the session to
// close its connection: once framing is in doubt the byte stream cannot be
// trusted for further commands.
type ErrorKind int

const (
	// Malformed covers version mismatches, lengths below the header size,
	// and payloads that do not decode.
	Malformed ErrorKind = iota + 1
	// Oversized marks a declared length above MaxPacketSize.
	Oversized
	// Timeout marks exhaustion of the bounded mismatched-serial retry.
	Timeout
)

func (k ErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case Oversized:
		return "oversized"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a typed protocol violation.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("protocol error: %s", e.Kind)
	}
	return fmt.Sprintf("protocol error (%s): %s", e.Kind, e.Detail)
}

// Is lets errors.Is match on the kind alone.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind && (other.Detail == "" || other.Detail == e.Detail)
}
