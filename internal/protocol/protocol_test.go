package protocol_test

import (
	"bytes"
	"errors"
	"testing"

	"hvproxy/internal/protocol"
)

func TestMarshalRoundTrip(t *testing.T) {
	pkt := protocol.Packet{
		Version: protocol.Version,
		Command: protocol.CmdVersion,
		Serial:  42,
		Payload: protocol.Uint64Arg(1002003),
	}
	buf, err := pkt.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(buf) != protocol.HeaderSize+8 {
		t.Fatalf("unexpected marshaled size %d", len(buf))
	}

	hdr, err := protocol.ParseHeader(buf)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if hdr.Version != protocol.Version || hdr.Command != protocol.CmdVersion || hdr.Serial != 42 {
		t.Fatalf("unexpected header: %+v", hdr)
	}
	if hdr.Length != pkt.Length() {
		t.Fatalf("length mismatch: header %d packet %d", hdr.Length, pkt.Length())
	}
	if err := hdr.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !bytes.Equal(buf[protocol.HeaderSize:], pkt.Payload) {
		t.Fatal("payload bytes differ after marshal")
	}
}

func TestMarshalRejectsOversizedPayload(t *testing.T) {
	pkt := protocol.Packet{
		Version: protocol.Version,
		Command: protocol.CmdNone,
		Payload: make([]byte, protocol.MaxPayloadSize+1),
	}
	_, err := pkt.MarshalBinary()
	var perr *protocol.Error
	if !errors.As(err, &perr) || perr.Kind != protocol.Oversized {
		t.Fatalf("expected oversized protocol error, got %v", err)
	}
}

func TestHeaderValidateRejectsWrongVersion(t *testing.T) {
	hdr := protocol.Header{Version: protocol.Version + 1, Length: protocol.HeaderSize}
	err := hdr.Validate()
	var perr *protocol.Error
	if !errors.As(err, &perr) || perr.Kind != protocol.Malformed {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestHeaderValidateRejectsShortLength(t *testing.T) {
	hdr := protocol.Header{Version: protocol.Version, Length: protocol.HeaderSize - 1}
	err := hdr.Validate()
	var perr *protocol.Error
	if !errors.As(err, &perr) || perr.Kind != protocol.Malformed {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestHeaderOversized(t *testing.T) {
	hdr := protocol.Header{Version: protocol.Version, Length: protocol.MaxPacketSize + 1}
	if !hdr.Oversized() {
		t.Fatal("expected header to be oversized")
	}
	if err := hdr.Validate(); err != nil {
		t.Fatalf("oversized length must still pass basic validation: %v", err)
	}
	hdr.Length = protocol.MaxPacketSize
	if hdr.Oversized() {
		t.Fatal("maximum length must not count as oversized")
	}
}

func TestParseHeaderShortBuffer(t *testing.T) {
	if _, err := protocol.ParseHeader(make([]byte, protocol.HeaderSize-1)); err == nil {
		t.Fatal("expected error for short header buffer")
	}
}

func TestDecodeVersion(t *testing.T) {
	v := protocol.DecodeVersion(1002003)
	if v.Major != 1 || v.Minor != 2 || v.Release != 3 {
		t.Fatalf("unexpected decode: %+v", v)
	}
	if v.String() != "1.2.3" {
		t.Fatalf("unexpected string: %s", v)
	}
	if protocol.EncodeVersion(v) != 1002003 {
		t.Fatalf("encode/decode mismatch: %d", protocol.EncodeVersion(v))
	}

	zero := protocol.DecodeVersion(0)
	if !zero.IsZero() {
		t.Fatal("expected zero version to report IsZero")
	}
}

func TestParseUint64Arg(t *testing.T) {
	raw, err := protocol.ParseUint64Arg(protocol.Uint64Arg(77))
	if err != nil {
		t.Fatalf("ParseUint64Arg: %v", err)
	}
	if raw != 77 {
		t.Fatalf("unexpected value %d", raw)
	}

	_, err = protocol.ParseUint64Arg([]byte{1, 2, 3})
	var perr *protocol.Error
	if !errors.As(err, &perr) || perr.Kind != protocol.Malformed {
		t.Fatalf("expected malformed error for short payload, got %v", err)
	}
}

func TestCommandString(t *testing.T) {
	if protocol.CmdNone.String() != "none" {
		t.Fatalf("unexpected string for CmdNone: %s", protocol.CmdNone)
	}
	if protocol.Command(999).String() != "command(999)" {
		t.Fatalf("unexpected string for unknown command: %s", protocol.Command(999))
	}
}
