package server

import (
	"errors"
	"strings"
	"testing"
)

func TestParseRequestLineComplete(t *testing.T) {
	line, err := ParseRequestLine("GET /hello HTTP/1.1\r\nHost: example.com\r\n\r\n")
	if err != nil {
		t.Fatalf("ParseRequestLine returned error: %v", err)
	}

	if line.Method != MethodGet || line.Method.IsOther() {
		t.Fatalf("expected GET method, got %q (other=%v)", line.Method, line.Method.IsOther())
	}
	if line.URI != "/hello" {
		t.Fatalf("unexpected uri: %q", line.URI)
	}
	if line.Version != HTTP11 || line.Version.IsOther() {
		t.Fatalf("expected HTTP/1.1, got %q", line.Version)
	}
}

func TestParseRequestLineIncomplete(t *testing.T) {
	inputs := []string{
		"",
		"GET / HTTP/1.1",
		"GET / HTTP/1.1\n",
		"GET / HTTP/1.1\r",
		strings.Repeat("a", 8192),
	}

	for _, in := range inputs {
		if _, err := ParseRequestLine(in); !errors.Is(err, ErrIncompleteRequestLine) {
			t.Errorf("ParseRequestLine(%.20q) error = %v, want ErrIncompleteRequestLine", in, err)
		}
	}
}

func TestParseRequestLineMalformed(t *testing.T) {
	inputs := []string{
		"\r\n",
		"GET\r\n",
		"GET /\r\n",
		"GET / HTTP/1.1 extra\r\n",
		"GET  / HTTP/1.1\r\n", // double space yields an empty token
		"GET / HTTP/1.1 \r\n",
		" GET / HTTP/1.1\r\n",
		"GET\t/\tHTTP/1.1\r\n",
	}

	for _, in := range inputs {
		if _, err := ParseRequestLine(in); !errors.Is(err, ErrMalformedRequestLine) {
			t.Errorf("ParseRequestLine(%q) error = %v, want ErrMalformedRequestLine", in, err)
		}
	}
}

func TestParseRequestLineOnlyFirstLineCounts(t *testing.T) {
	// the second line would be malformed, but it is never looked at
	line, err := ParseRequestLine("GET / HTTP/1.1\r\nnot a request line at all\r\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if line.URI != "/" {
		t.Fatalf("unexpected uri: %q", line.URI)
	}
}

func TestParseRequestLineKeepsUnknownTokens(t *testing.T) {
	line, err := ParseRequestLine("PATCH /a%20b?x=1 HTTP/0.9\r\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !line.Method.IsOther() || line.Method.String() != "PATCH" {
		t.Fatalf("expected other method PATCH, got %q (other=%v)", line.Method, line.Method.IsOther())
	}
	if line.URI != "/a%20b?x=1" {
		t.Fatalf("uri should be stored verbatim, got %q", line.URI)
	}
	if !line.Version.IsOther() || line.Version.String() != "HTTP/0.9" {
		t.Fatalf("expected other version HTTP/0.9, got %q (other=%v)", line.Version, line.Version.IsOther())
	}
}

func TestParseRequestLineCaseSensitive(t *testing.T) {
	line, err := ParseRequestLine("get / http/1.1\r\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !line.Method.IsOther() || !line.Version.IsOther() {
		t.Fatalf("lower-case tokens must not match GET / HTTP/1.1: %+v", line)
	}
}

func TestMethodAndVersionRoundTrip(t *testing.T) {
	for _, tok := range []string{"GET", "POST", "DELETE", "", "G�T"} {
		if got := ParseMethod(tok).String(); got != tok {
			t.Errorf("ParseMethod(%q).String() = %q", tok, got)
		}
	}
	for _, tok := range []string{"HTTP/1.1", "HTTP/1.0", "HTTP/2", ""} {
		if got := ParseVersion(tok).String(); got != tok {
			t.Errorf("ParseVersion(%q).String() = %q", tok, got)
		}
	}

	if MethodGet.String() != "GET" || HTTP11.String() != "HTTP/1.1" {
		t.Fatalf("canonical literals changed: %q %q", MethodGet, HTTP11)
	}
}

func TestZeroValuesAreOther(t *testing.T) {
	var m Method
	var v Version
	if !m.IsOther() || !v.IsOther() {
		t.Fatalf("zero Method/Version must not look like GET/HTTP/1.1")
	}
}
