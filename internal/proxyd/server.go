// Package proxyd implements the development helper daemon. It answers the
// same wire protocol the client speaks, so the full connect-launch-retry
// path can run against a real process during development and testing.
package proxyd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"log/slog"

	"hvproxy/internal/logging"
	"hvproxy/internal/protocol"
)

// Options configures a development daemon.
type Options struct {
	// SocketName is the abstract-namespace endpoint, without the leading
	// NUL/@ marker.
	SocketName string
	// HypervisorVersion is reported for version queries. The zero value is
	// legitimate: it tells clients no versioning information is available.
	HypervisorVersion protocol.VersionNumber
}

// Server accepts packet connections on an abstract unix socket. Each
// connection gets its own goroutine; the packet exchange within one
// connection is strictly sequential.
type Server struct {
	socket   string
	version  protocol.VersionNumber
	logger   *slog.Logger
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer binds the abstract socket. Abstract addresses vanish with the
// process, so there is no stale socket file to clean up first.
func NewServer(ctx context.Context, opts Options, logger *slog.Logger) (*Server, error) {
	if opts.SocketName == "" {
		return nil, errors.New("proxyd requires a socket name")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	listener, err := net.Listen("unix", "@"+opts.SocketName)
	if err != nil {
		return nil, fmt.Errorf("listen on @%s: %w", opts.SocketName, err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		socket:   opts.SocketName,
		version:  opts.HypervisorVersion,
		logger:   logging.NewComponentLogger(logger, "proxyd"),
		listener: listener,
		ctx:      serverCtx,
		cancel:   cancel,
	}, nil
}

// Serve starts accepting connections until Close is called.
func (s *Server) Serve() {
	s.logger.Info("daemon listening", logging.String("socket", "@"+s.socket))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer c.Close()
				s.handle(c)
			}(conn)
		}
	}()
}

// Close stops the listener and waits for in-flight connections to finish.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

// handle runs the packet exchange for one connection until the peer hangs up
// or sends something the protocol forbids.
func (s *Server) handle(conn net.Conn) {
	logger := s.logger.With(logging.String("peer", conn.RemoteAddr().String()))
	logger.Debug("client connected")
	for {
		req, err := readPacket(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Warn("dropping connection", logging.Error(err))
			}
			return
		}

		resp := s.answer(req)
		buf, err := resp.MarshalBinary()
		if err != nil {
			logger.Warn("dropping connection", logging.Error(err))
			return
		}
		if _, err := conn.Write(buf); err != nil {
			logger.Warn("write failed", logging.Error(err))
			return
		}
	}
}

// answer builds the response for one request. Commands the development
// daemon does not serve come back as explicit errors under the request's
// serial, never as silent empty successes.
func (s *Server) answer(req *protocol.Packet) protocol.Packet {
	resp := protocol.Packet{
		Version: protocol.Version,
		Serial:  req.Serial,
	}
	switch req.Command {
	case protocol.CmdNone:
		resp.Command = protocol.CmdNone
	case protocol.CmdVersion:
		resp.Command = protocol.CmdVersion
		resp.Payload = protocol.Uint64Arg(protocol.EncodeVersion(s.version))
	default:
		s.logger.Debug("unserved command", logging.String("command", req.Command.String()))
		resp.Command = protocol.CmdError
	}
	return resp
}

// readPacket reads one validated request off the stream. A clean peer close
// between packets surfaces as io.EOF.
func readPacket(conn net.Conn) (*protocol.Packet, error) {
	hdrBuf := make([]byte, protocol.HeaderSize)
	if _, err := io.ReadFull(conn, hdrBuf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read header: %w", err)
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
		if _, err := io.ReadFull(conn, pkt.Payload); err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
	}
	return pkt, nil
}
