package ipc

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// unsetFD is the sentinel for a connection that holds no descriptor.
const unsetFD = -1

// ErrConnClosed is returned for I/O on a closed or never-opened connection.
var ErrConnClosed = errors.New("connection is closed")

// Conn is one live byte-stream channel to the daemon. It exclusively owns its
// descriptor; no other component reads or writes it directly. A Conn is not
// safe for concurrent use and must not be copied.
type Conn struct {
	fd int
}

// NewConn wraps an already-connected stream descriptor. Ownership transfers
// to the Conn: its Close releases the descriptor.
func NewConn(fd int) *Conn {
	return &Conn{fd: fd}
}

// dialAbstract opens a stream socket to the named abstract-namespace
// endpoint. Abstract addresses never touch the filesystem, so there is no
// stale socket file to clean up and no permission race on a shared directory.
func dialAbstract(name string) (*Conn, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("create unix socket: %w", err)
	}

	addr := &unix.SockaddrUnix{Name: "@" + name}
	for {
		err = unix.Connect(fd, addr)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("connect to @%s: %w", name, err)
	}
	return &Conn{fd: fd}, nil
}

// ReadFull reads exactly len(buf) bytes. Signal interruptions are retried
// silently; a peer close mid-packet surfaces as io.ErrUnexpectedEOF because
// the caller always knows how many bytes one packet owes it.
func (c *Conn) ReadFull(buf []byte) error {
	if c == nil || c.fd == unsetFD {
		return ErrConnClosed
	}
	for off := 0; off < len(buf); {
		n, err := unix.Read(c.fd, buf[off:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("read socket: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("read socket: %w", io.ErrUnexpectedEOF)
		}
		off += n
	}
	return nil
}

// WriteFull writes all of buf. Signal interruptions are retried silently.
// Partial writes continue the loop, although for the packet sizes used here
// a write on a connected stream is effectively atomic.
func (c *Conn) WriteFull(buf []byte) error {
	if c == nil || c.fd == unsetFD {
		return ErrConnClosed
	}
	for off := 0; off < len(buf); {
		n, err := unix.Write(c.fd, buf[off:])
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("write socket: %w", err)
		}
		off += n
	}
	return nil
}

// Close releases the descriptor and resets the handle to the unset sentinel.
// Closing an already-closed or never-opened connection is a successful no-op.
func (c *Conn) Close() error {
	if c == nil || c.fd == unsetFD {
		return nil
	}
	fd := c.fd
	c.fd = unsetFD
	if err := unix.Close(fd); err != nil {
		return fmt.Errorf("close socket: %w", err)
	}
	return nil
}

// Closed reports whether the connection no longer holds a descriptor.
func (c *Conn) Closed() bool {
	return c == nil || c.fd == unsetFD
}
