package server

import (
	"errors"
	"net"
	"time"

	"github.com/rs/zerolog"
)

// DefaultReadBufferSize caps the request line: anything that does not fit
// in a single read of this size is answered with 400.
const DefaultReadBufferSize = 8192

// Resolver maps a GET request to a page body. ok is false for unknown URIs.
// Implementations are called from many connection goroutines at once.
type Resolver interface {
	Resolve(method Method, uri string) (body []byte, ok bool)
}

// ResolverFunc adapts a plain function to Resolver.
type ResolverFunc func(method Method, uri string) ([]byte, bool)

func (f ResolverFunc) Resolve(method Method, uri string) ([]byte, bool) {
	return f(method, uri)
}

type Options struct {
	// ReadBufferSize defaults to DefaultReadBufferSize.
	ReadBufferSize int

	// ReadTimeout bounds the single read. Zero means a silent peer holds its
	// goroutine until it goes away.
	ReadTimeout time.Duration

	Logger  *zerolog.Logger
	Metrics *Metrics
	Events  EventSink
}

type Server struct {
	resolver       Resolver
	readBufferSize int
	readTimeout    time.Duration
	log            zerolog.Logger
	metrics        *Metrics
	events         EventSink
}

func New(resolver Resolver, opts Options) *Server {
	s := &Server{
		resolver:       resolver,
		readBufferSize: opts.ReadBufferSize,
		readTimeout:    opts.ReadTimeout,
		metrics:        opts.Metrics,
		events:         opts.Events,
	}

	if s.readBufferSize <= 0 {
		s.readBufferSize = DefaultReadBufferSize
	}

	if opts.Logger != nil {
		s.log = *opts.Logger
	} else {
		s.log = zerolog.Nop()
	}

	return s
}

// ListenAndServe binds addr and serves connections until the process exits.
// A bind failure is returned before any connection is accepted.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.log.Info().Str("addr", ln.Addr().String()).Msg("listening for HTTP connections")

	return s.Serve(ln)
}

// Serve accepts connections on ln and handles each one in its own goroutine.
// Accept failures are logged and the loop keeps going; it only returns
// ErrServerClosed once ln has been closed.
func (s *Server) Serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return ErrServerClosed
			}

			s.transportFailure(s.log, &TransportError{Op: OpAccept, Err: err}, "can not establish a connection")
			continue
		}

		go s.handleConn(conn)
	}
}

func (s *Server) transportFailure(log zerolog.Logger, err *TransportError, msg string) {
	if s.metrics != nil {
		s.metrics.TransportFailure()
	}
	log.Error().Err(err).Str("op", err.Op.String()).Msg(msg)
}
