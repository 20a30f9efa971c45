package ipc

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"hvproxy/internal/logging"
	"hvproxy/internal/protocol"
)

// ErrSessionClosed is returned when a command is issued on a session whose
// connection has been torn down.
var ErrSessionClosed = errors.New("session is closed")

// SessionOptions tunes per-session behavior.
type SessionOptions struct {
	// MaxMismatchedReads bounds how many responses carrying a foreign
	// serial are discarded per command before the session gives up with a
	// timeout protocol error. Zero means the default of 8; the minimum
	// useful value is 1.
	MaxMismatchedReads int
}

const defaultMaxMismatchedReads = 8

// Session runs the request/response protocol over one connection. Serials
// are session-local, assigned 1,2,... and wrapping to 0 after 4095. Exactly
// one request may be outstanding; Session is not safe for concurrent use.
type Session struct {
	conn    *Conn
	logger  *slog.Logger
	serial  uint32
	maxSkew int
}

// NewSession takes ownership of conn and prepares a fresh serial space.
func NewSession(conn *Conn, opts SessionOptions, logger *slog.Logger) *Session {
	maxSkew := opts.MaxMismatchedReads
	if maxSkew <= 0 {
		maxSkew = defaultMaxMismatchedReads
	}
	return &Session{
		conn:    conn,
		logger:  logging.NewComponentLogger(logger, "session").With(logging.String("session_id", uuid.NewString())),
		maxSkew: maxSkew,
	}
}

// ConnectOptions bundles connector and session tuning for Connect.
type ConnectOptions struct {
	Dial    DialOptions
	Session SessionOptions
}

// Connect dials the daemon (launching it if needed), then initializes the
// session: a handshake round trip, followed by a hypervisor version probe.
// A reported version of zero only means no versioning information is
// available and is not a failure. Any initialization error closes the
// connection before it surfaces.
func Connect(opts ConnectOptions, launcher Launcher, logger *slog.Logger) (*Session, error) {
	conn, err := Dial(opts.Dial, launcher, logger)
	if err != nil {
		return nil, err
	}

	s := NewSession(conn, opts.Session, logger)
	if err := s.Handshake(); err != nil {
		s.Close()
		return nil, fmt.Errorf("initialize session: %w", err)
	}
	if _, err := s.HypervisorVersion(); err != nil {
		s.Close()
		return nil, fmt.Errorf("initialize session: %w", err)
	}
	return s, nil
}

// Execute sends one command and returns its matching response.
//
// The response header is validated (protocol version, minimum length) and
// bounded by the maximum packet size; any violation or transport failure
// closes the connection, since a desynchronized stream would corrupt every
// later command. Responses carrying a different serial are treated as stray
// asynchronous packets: logged, discarded, and re-read up to the configured
// bound, after which the session fails with a timeout protocol error.
func (s *Session) Execute(cmd protocol.Command, payload []byte) (*protocol.Packet, error) {
	if s == nil || s.conn.Closed() {
		return nil, ErrSessionClosed
	}

	s.serial = (s.serial + 1) % protocol.SerialModulus
	req := protocol.Packet{
		Version: protocol.Version,
		Command: cmd,
		Serial:  s.serial,
		Payload: payload,
	}
	buf, err := req.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := s.conn.WriteFull(buf); err != nil {
		s.teardown("write failed", err)
		return nil, err
	}

	for mismatched := 0; ; {
		resp, err := s.readPacket()
		if err != nil {
			s.teardown("response rejected", err)
			return nil, err
		}
		if resp.Serial == s.serial {
			return resp, nil
		}

		mismatched++
		s.logger.Warn("discarding asynchronous packet",
			logging.Uint64("got_serial", uint64(resp.Serial)),
			logging.Uint64("want_serial", uint64(s.serial)),
			logging.Int("mismatched", mismatched))
		if mismatched >= s.maxSkew {
			err := &protocol.Error{
				Kind:   protocol.Timeout,
				Detail: fmt.Sprintf("no response for serial %d after %d mismatched packets", s.serial, mismatched),
			}
			s.teardown("mismatched-serial bound exhausted", err)
			return nil, err
		}
	}
}

// readPacket reads and validates one whole packet: the fixed header first,
// then the declared remainder.
func (s *Session) readPacket() (*protocol.Packet, error) {
	hdrBuf := make([]byte, protocol.HeaderSize)
	if err := s.conn.ReadFull(hdrBuf); err != nil {
		return nil, err
	}
	hdr, err := protocol.ParseHeader(hdrBuf)
	if err != nil {
		return nil, err
	}
	if err := hdr.Validate(); err != nil {
		return nil, err
	}
	if hdr.Oversized() {
		return nil, &protocol.Error{
			Kind:   protocol.Oversized,
			Detail: fmt.Sprintf("declared length %d exceeds maximum packet size %d", hdr.Length, protocol.MaxPacketSize),
		}
	}

	pkt := &protocol.Packet{
		Version: hdr.Version,
		Command: hdr.Command,
		Serial:  hdr.Serial,
	}
	if hdr.Length > protocol.HeaderSize {
		pkt.Payload = make([]byte, hdr.Length-protocol.HeaderSize)
		if err := s.conn.ReadFull(pkt.Payload); err != nil {
			return nil, err
		}
	}
	return pkt, nil
}

// Handshake performs the no-op round trip used to validate protocol
// compatibility on a fresh connection. Success requires only that the round
// trip completes and the echoed command is still the no-op.
func (s *Session) Handshake() error {
	resp, err := s.Execute(protocol.CmdNone, nil)
	if err != nil {
		return err
	}
	if resp.Command != protocol.CmdNone {
		err := &protocol.Error{
			Kind:   protocol.Malformed,
			Detail: fmt.Sprintf("handshake echoed command %s", resp.Command),
		}
		s.teardown("handshake failed", err)
		return err
	}
	return nil
}

// HypervisorVersion queries the daemon for the hypervisor version. A zero
// version means "no versioning information available" and is returned
// without error.
func (s *Session) HypervisorVersion() (protocol.VersionNumber, error) {
	resp, err := s.Execute(protocol.CmdVersion, nil)
	if err != nil {
		return protocol.VersionNumber{}, err
	}
	if resp.Command == protocol.CmdError {
		return protocol.VersionNumber{}, fmt.Errorf("version query: daemon reported failure")
	}
	raw, err := protocol.ParseUint64Arg(resp.Payload)
	if err != nil {
		s.teardown("version payload rejected", err)
		return protocol.VersionNumber{}, err
	}
	return protocol.DecodeVersion(raw), nil
}

// Serial exposes the last assigned serial, for observability only.
func (s *Session) Serial() uint32 {
	return s.serial
}

// Close tears the session down. It is idempotent.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	return s.conn.Close()
}

// Closed reports whether the session can still issue commands.
func (s *Session) Closed() bool {
	return s == nil || s.conn.Closed()
}

// teardown force-closes the connection after a protocol or transport
// failure. The close error is deliberately swallowed: the triggering error
// is the one the caller needs.
func (s *Session) teardown(reason string, cause error) {
	if s.conn.Closed() {
		return
	}
	s.logger.Warn("closing connection", logging.String("reason", reason), logging.Error(cause))
	_ = s.conn.Close()
}
