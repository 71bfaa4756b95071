package gff3

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeLine decodes one tab-delimited feature line.
func DecodeLine(line string) (*FeatureLine, error) {
	return DecodeFields(strings.Split(trimLineEnding(line), "\t"))
}

// DecodeLineNoEscapes is the fast path of DecodeLine for lines the caller
// knows to contain no percent escapes. Output is identical on such input.
func DecodeLineNoEscapes(line string) (*FeatureLine, error) {
	return decodeFields(strings.Split(trimLineEnding(line), "\t"), false)
}

// DecodeFields decodes a feature line that is already split into columns.
func DecodeFields(fields []string) (*FeatureLine, error) {
	return decodeFields(fields, true)
}

func decodeFields(f []string, unescape bool) (*FeatureLine, error) {
	if len(f) != NumFields {
		return nil, fmt.Errorf("%w: got %d", ErrColumnCount, len(f))
	}

	text := func(i int) string {
		v := column(f[i])
		if unescape {
			return Unescape(v)
		}
		return v
	}

	l := &FeatureLine{
		SeqID:  text(FieldSeqID),
		Source: text(FieldSource),
		Type:   text(FieldType),
		Strand: column(f[FieldStrand]),
		Phase:  column(f[FieldPhase]),
	}

	var err error
	if l.Start, err = parseInt("start", f[FieldStart]); err != nil {
		return nil, err
	}
	if l.End, err = parseInt("end", f[FieldEnd]); err != nil {
		return nil, err
	}
	if l.Score, err = parseFloat("score", f[FieldScore]); err != nil {
		return nil, err
	}

	if attrs := column(f[FieldAttributes]); attrs != "" {
		l.Attributes = parseAttributes(attrs, unescape)
	}
	return l, nil
}

// column normalizes the "." and empty placeholders to "".
func column(v string) string {
	if v == "." {
		return ""
	}
	return v
}

func parseInt(name, v string) (*int64, error) {
	v = column(v)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s column %q", ErrInvalidNumber, name, v)
	}
	return &n, nil
}

func parseFloat(name, v string) (*float64, error) {
	v = column(v)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s column %q", ErrInvalidNumber, name, v)
	}
	return &n, nil
}
