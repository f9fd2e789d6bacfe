package server

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"
)

// recordingSink keeps every event it is given.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// stubResolver knows "/" and "/hello" and fails the test if a non-GET
// request ever reaches it.
func stubResolver(t *testing.T) Resolver {
	t.Helper()
	return ResolverFunc(func(m Method, uri string) ([]byte, bool) {
		if m.IsOther() {
			t.Errorf("resolver called with method %q", m)
		}
		switch uri {
		case "/":
			return []byte("<html>root</html>"), true
		case "/hello":
			return []byte("<html>hello</html>"), true
		}
		return nil, false
	})
}

// newTestServer returns a server using the stub resolver and a recording sink.
func newTestServer(t *testing.T, opts Options) (*Server, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	if opts.Events == nil {
		opts.Events = sink
	} else {
		opts.Events = MultiSink(opts.Events, sink)
	}
	return New(stubResolver(t), opts), sink
}

// pipeRoundTrip sends raw over an in-memory connection handled by s and
// returns everything s wrote before closing.
func pipeRoundTrip(t *testing.T, s *Server, raw string) []byte {
	t.Helper()

	client, srvConn := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.handleConn(srvConn)
	}()

	// the server may stop reading before the whole request is consumed,
	// so the write must not hold up reading the answer
	go func() {
		_, _ = client.Write([]byte(raw))
	}()

	resp, err := io.ReadAll(client)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("connection handler did not return")
	}

	return resp
}

// serveLoopback starts s on a loopback listener and returns its address.
func serveLoopback(t *testing.T, s *Server) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ln)
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		select {
		case err := <-errCh:
			if !errors.Is(err, ErrServerClosed) {
				t.Errorf("Serve returned %v, want ErrServerClosed", err)
			}
		case <-time.After(2 * time.Second):
			t.Errorf("Serve did not return after listener close")
		}
	})

	return ln.Addr().String()
}

// tcpRoundTrip dials addr, sends raw in a single write and reads until EOF.
func tcpRoundTrip(t *testing.T, addr, raw string) []byte {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := conn.Write([]byte(raw)); err != nil {
		t.Fatalf("write request: %v", err)
	}

	resp, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp
}

// flakyListener fails Accept a fixed number of times before reporting
// that it has been closed.
type flakyListener struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (l *flakyListener) Accept() (net.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.calls <= l.failures {
		return nil, errors.New("accept: too many open files")
	}
	return nil, net.ErrClosed
}

func (l *flakyListener) Close() error   { return nil }
func (l *flakyListener) Addr() net.Addr { return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)} }
