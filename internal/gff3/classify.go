package gff3

import "strings"

// LineKind is the syntactic category of a GFF3 text line.
type LineKind int

const (
	KindBlank LineKind = iota
	KindFeature
	KindComment
	KindDirective
	// KindSync is "###": all forward references so far are resolved.
	KindSync
	// KindFASTAHeader is a ">" line, an implicit start of the FASTA section.
	KindFASTAHeader
	// KindIgnored covers lines of four or more '#'.
	KindIgnored
)

func (k LineKind) String() string {
	switch k {
	case KindBlank:
		return "blank"
	case KindFeature:
		return "feature"
	case KindComment:
		return "comment"
	case KindDirective:
		return "directive"
	case KindSync:
		return "sync"
	case KindFASTAHeader:
		return "fasta_header"
	case KindIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Classify returns the kind of line.
func Classify(line string) LineKind {
	s := strings.TrimLeft(line, " \t\r\n\f\v")
	if s == "" {
		return KindBlank
	}
	switch s[0] {
	case '>':
		return KindFASTAHeader
	case '#':
		n := len(s) - len(strings.TrimLeft(s, "#"))
		switch n {
		case 1:
			return KindComment
		case 2:
			return KindDirective
		case 3:
			return KindSync
		default:
			return KindIgnored
		}
	}
	return KindFeature
}

// CommentText returns the text of a comment line without the leading '#'
// and any whitespace that follows it.
func CommentText(line string) string {
	s := strings.TrimLeft(trimLineEnding(line), " \t")
	s = strings.TrimPrefix(s, "#")
	return strings.TrimLeft(s, " \t")
}
