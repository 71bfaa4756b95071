package gff3

import (
	"regexp"
	"strings"
)

var (
	directiveRe = regexp.MustCompile(`^\s*##\s*(\S+)\s*(.*)`)
	nonDigitRe  = regexp.MustCompile(`\D`)
)

// Well-known directive names.
const (
	DirectiveFASTA          = "FASTA"
	DirectiveSequenceRegion = "sequence-region"
	DirectiveGenomeBuild    = "genome-build"
	DirectiveGFFVersion     = "gff-version"
)

// ParseDirective parses a "##name value" line. It reports false when the
// line carries no directive name.
func ParseDirective(line string) (*Directive, bool) {
	m := directiveRe.FindStringSubmatch(trimLineEnding(line))
	if m == nil {
		return nil, false
	}
	d := &Directive{Name: m[1], Value: m[2]}

	switch d.Name {
	case DirectiveSequenceRegion:
		c := strings.Fields(d.Value)
		if len(c) > 0 {
			d.SeqID = c[0]
		}
		if len(c) > 1 {
			d.Start = nonDigitRe.ReplaceAllString(c[1], "")
		}
		if len(c) > 2 {
			d.End = nonDigitRe.ReplaceAllString(c[2], "")
		}
	case DirectiveGenomeBuild:
		c := strings.Fields(d.Value)
		if len(c) > 0 {
			d.Source = c[0]
		}
		if len(c) > 1 {
			d.BuildName = c[1]
		}
	}
	return d, true
}
