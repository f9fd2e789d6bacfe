package server

import "strconv"

const (
	StatusOK                      uint16 = 200
	StatusBadRequest              uint16 = 400
	StatusNotFound                uint16 = 404
	StatusNotImplemented          uint16 = 501
	StatusHTTPVersionNotSupported uint16 = 505
)

// notFoundBody is sent with every 404.
const notFoundBody = "<html><body>404 NOT FOUND</body></html>"

// Response has no headers and no reason phrase. A nil Body is not written at all.
type Response struct {
	Version Version
	Status  uint16
	Body    []byte
}

// Bytes serializes r as "<version> <status>\r\n\r\n<body>".
func (r *Response) Bytes() []byte {
	version := r.Version.String()

	out := make([]byte, 0, len(version)+1+5+4+len(r.Body))
	out = append(out, version...)
	out = append(out, ' ')
	out = strconv.AppendUint(out, uint64(r.Status), 10)
	out = append(out, "\r\n\r\n"...)
	out = append(out, r.Body...)

	return out
}
