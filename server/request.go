package server

import (
	"errors"
	"strings"
)

var (
	// ErrIncompleteRequestLine is returned when no CRLF was found in the buffer.
	ErrIncompleteRequestLine = errors.New("incomplete request line")
	// ErrMalformedRequestLine is returned when the line does not split into
	// exactly method, uri and version.
	ErrMalformedRequestLine = errors.New("malformed request line")
)

const (
	methodGet     = "GET"
	versionHTTP11 = "HTTP/1.1"
)

// Method is either GET or some other token kept verbatim. The zero value
// is an empty other-method.
type Method struct {
	known bool
	text  string
}

// MethodGet is the only method the server routes.
var MethodGet = Method{known: true, text: methodGet}

// ParseMethod maps "GET" to MethodGet and anything else to an other-method
// carrying the literal token.
func ParseMethod(token string) Method {
	if token == methodGet {
		return MethodGet
	}
	return Method{text: token}
}

func (m Method) IsOther() bool  { return !m.known }
func (m Method) String() string { return m.text }

// Version is either HTTP/1.1 or some other token kept verbatim.
type Version struct {
	known bool
	text  string
}

// HTTP11 is the only supported protocol version and the default for
// responses that have no request line to answer to.
var HTTP11 = Version{known: true, text: versionHTTP11}

func ParseVersion(token string) Version {
	if token == versionHTTP11 {
		return HTTP11
	}
	return Version{text: token}
}

func (v Version) IsOther() bool  { return !v.known }
func (v Version) String() string { return v.text }

type RequestLine struct {
	Method  Method
	URI     string
	Version Version
}

// ParseRequestLine parses the first line of buf. Everything after the first
// CRLF is ignored.
func ParseRequestLine(buf string) (*RequestLine, error) {
	end := strings.Index(buf, "\r\n")
	if end < 0 {
		return nil, ErrIncompleteRequestLine
	}

	// single SP separators only, "GET  / HTTP/1.1" yields an empty token
	parts := strings.Split(buf[:end], " ")
	if len(parts) != 3 {
		return nil, ErrMalformedRequestLine
	}

	return &RequestLine{
		Method:  ParseMethod(parts[0]),
		URI:     parts[1],
		Version: ParseVersion(parts[2]),
	}, nil
}
