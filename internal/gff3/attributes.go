package gff3

import "strings"

// ParseAttributes splits the ninth column into tag → values.
//
// Records are separated by ';', a record's tag and value by its first '=',
// and multiple values by ','. Empty records and empty values are skipped,
// tags and values are trimmed, values are percent-unescaped. Repeated tags
// accumulate in order. Returns nil when nothing was parsed.
func ParseAttributes(s string) Attributes {
	return parseAttributes(s, true)
}

// ParseAttributesNoEscapes is ParseAttributes for input known to contain
// no percent escapes.
func ParseAttributesNoEscapes(s string) Attributes {
	return parseAttributes(s, false)
}

func parseAttributes(s string, unescape bool) Attributes {
	s = trimLineEnding(s)
	if s == "" || s == "." {
		return nil
	}

	var attrs Attributes
	for _, rec := range strings.Split(s, ";") {
		if rec == "" {
			continue
		}
		tag, val, ok := strings.Cut(rec, "=")
		if !ok || val == "" {
			continue
		}
		tag = strings.TrimSpace(tag)
		for _, v := range strings.Split(val, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if unescape {
				v = Unescape(v)
			}
			if attrs == nil {
				attrs = make(Attributes)
			}
			attrs[tag] = append(attrs[tag], v)
		}
	}
	return attrs
}

func trimLineEnding(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}
