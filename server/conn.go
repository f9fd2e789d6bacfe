package server

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type halfCloser interface {
	CloseRead() error
	CloseWrite() error
}

// handleConn runs the whole lifecycle of one connection: a single read, a
// single write, then close. Nothing is written if the read returned no bytes.
func (s *Server) handleConn(conn net.Conn) {
	start := time.Now()
	log := s.log

	if s.metrics != nil {
		s.metrics.ConnOpened()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("connection handler panicked")
		}
		s.closeConn(conn, log)
		if s.metrics != nil {
			s.metrics.ConnClosed()
		}
	}()

	id := uuid.NewString()
	log = s.log.With().Str("conn", id).Logger()

	remote := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}

	if s.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	}

	buf := make([]byte, s.readBufferSize)
	n, err := conn.Read(buf)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			log.Debug().Str("remote_addr", remote).Msg("connection closed by peer")
			return
		}
		s.transportFailure(log, &TransportError{Op: OpRead, Err: err}, "error while reading from socket")
		return
	}

	// the request line must be ASCII, anything else is coerced rather than rejected
	text := lossyString(buf[:n])

	line, resp := s.respond(text, log)

	ev := Event{
		Time:       time.Now(),
		ID:         id,
		Status:     resp.Status,
		RemoteAddr: remote,
	}
	if line != nil {
		ev.Method = line.Method.String()
		ev.Path = line.URI
	}

	if _, err := conn.Write(resp.Bytes()); err != nil {
		werr := &TransportError{Op: OpWrite, Err: err}
		s.transportFailure(log, werr, "error while writing to socket")
		ev.Error = werr.Error()
	}

	ev.Duration = time.Since(start)
	ev.DurationMs = float64(ev.Duration.Microseconds()) / 1000

	logEvent(log, ev)
	if s.events != nil {
		s.events.Record(ev)
	}
}

// respond turns the raw request text into a response. line is nil when the
// request line could not be parsed.
func (s *Server) respond(text string, log zerolog.Logger) (*RequestLine, *Response) {
	line, err := ParseRequestLine(text)
	switch {
	case errors.Is(err, ErrIncompleteRequestLine):
		log.Warn().Msg("request line is incomplete or too long")
		return nil, &Response{Version: HTTP11, Status: StatusBadRequest}
	case err != nil:
		log.Warn().Err(err).Msg("request is malformed")
		return nil, &Response{Version: HTTP11, Status: StatusBadRequest}
	}

	return line, s.handleRequest(line)
}

func (s *Server) handleRequest(req *RequestLine) *Response {
	if req.Version.IsOther() {
		return &Response{Version: req.Version, Status: StatusHTTPVersionNotSupported}
	}

	if req.Method.IsOther() {
		return &Response{Version: req.Version, Status: StatusNotImplemented}
	}

	body, ok := s.resolver.Resolve(req.Method, req.URI)
	if !ok {
		return &Response{Version: req.Version, Status: StatusNotFound, Body: []byte(notFoundBody)}
	}

	return &Response{Version: req.Version, Status: StatusOK, Body: body}
}

func (s *Server) closeConn(conn net.Conn, log zerolog.Logger) {
	if hc, ok := conn.(halfCloser); ok {
		// the peer may already be gone, shutdown errors are only worth a debug line
		if err := hc.CloseRead(); err != nil {
			log.Debug().Err(&TransportError{Op: OpShutdown, Err: err}).Msg("shutdown read")
		}
		if err := hc.CloseWrite(); err != nil {
			log.Debug().Err(&TransportError{Op: OpShutdown, Err: err}).Msg("shutdown write")
		}
	}

	if err := conn.Close(); err != nil {
		log.Debug().Err(&TransportError{Op: OpShutdown, Err: err}).Msg("close")
	}
}

func logEvent(log zerolog.Logger, ev Event) {
	e := log.Info()
	if ev.Error != "" {
		e = log.Error().Str("error", ev.Error)
	}
	e.Str("method", ev.Method).
		Str("path", ev.Path).
		Uint16("status", ev.Status).
		Float64("duration_ms", ev.DurationMs).
		Str("remote_addr", ev.RemoteAddr).
		Msg("request")
}
