package server

import (
	"strings"
	"unicode/utf8"
)

// lossyString converts b to a string, replacing each maximal invalid UTF-8
// subsequence with one U+FFFD. A truncated multi-byte sequence counts as one
// subsequence, every other invalid byte counts on its own.
func lossyString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	sb.Grow(len(b) + 8)

	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r != utf8.RuneError || size > 1 {
			sb.Write(b[:size])
			b = b[size:]
			continue
		}

		sb.WriteRune(utf8.RuneError)
		b = b[invalidPrefixLen(b):]
	}

	return sb.String()
}

// invalidPrefixLen returns how many bytes at the start of b form the longest
// prefix of a well-formed sequence. b must not start with a complete one.
func invalidPrefixLen(b []byte) int {
	lo, hi := byte(0x80), byte(0xBF)

	var n int
	switch c := b[0]; {
	case c >= 0xC2 && c <= 0xDF:
		n = 2
	case c == 0xE0:
		n, lo = 3, 0xA0
	case c == 0xED:
		n, hi = 3, 0x9F
	case c >= 0xE1 && c <= 0xEF:
		n = 3
	case c == 0xF0:
		n, lo = 4, 0x90
	case c == 0xF4:
		n, hi = 4, 0x8F
	case c >= 0xF1 && c <= 0xF3:
		n = 4
	default:
		return 1
	}

	i := 1
	for ; i < n && i < len(b); i++ {
		if b[i] < lo || b[i] > hi {
			break
		}
		lo, hi = 0x80, 0xBF
	}
	return i
}
