package link

import "strings"

const upperhex = "0123456789ABCDEF"

// EscapeName percent-encodes a node name for the URI fragment. Unreserved
// characters and '/' are kept literal; every other byte of the UTF-8 text is
// written as %XX. url.PathUnescape reverses it.
func EscapeName(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !keepLiteral(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if keepLiteral(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func keepLiteral(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', '/':
		return true
	}
	return false
}
