package gff3

import "strings"

const upperhex = "0123456789ABCDEF"

// attrReserved and columnReserved mark the bytes that must be percent-encoded
// in attribute values and in the seqid/source/type columns respectively.
var attrReserved, columnReserved [256]bool

func init() {
	for c := 0; c < 256; c++ {
		ctl := c < 0x20 || c >= 0x7f
		columnReserved[c] = ctl || c == '%'
		attrReserved[c] = columnReserved[c] || strings.IndexByte(";=&,", byte(c)) >= 0
	}
}

// Unescape decodes %XX sequences (hex digits of either case). A '%' that is
// not followed by two hex digits is kept literally.
func Unescape(s string) string {
	i := strings.IndexByte(s, '%')
	if i < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:i])
	for ; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && ishex(s[i+1]) && ishex(s[i+2]) {
			b.WriteByte(unhex(s[i+1])<<4 | unhex(s[i+2]))
			i += 2
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Escape percent-encodes an attribute value so that it survives the
// ';' / '=' / ',' splitting of the attribute column.
func Escape(s string) string {
	return escape(s, &attrReserved)
}

// EscapeColumn percent-encodes a seqid, source or type column value.
func EscapeColumn(s string) string {
	return escape(s, &columnReserved)
}

func escape(s string, reserved *[256]bool) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if reserved[s[i]] {
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
		if reserved[c] {
			b.WriteByte('%')
			b.WriteByte(upperhex[c>>4])
			b.WriteByte(upperhex[c&15])
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func ishex(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'a' <= c && c <= 'f':
		return true
	case 'A' <= c && c <= 'F':
		return true
	}
	return false
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
