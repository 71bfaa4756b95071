package pipeline

import (
	"regexp"
	"strings"

	"gffstream/internal/gff3"
)

var fastaHeaderRe = regexp.MustCompile(`^>\s*(\S+)\s*(.*)`)

// fastaReader assembles the records of the trailing FASTA section.
// Header lines start a record; sequence lines are concatenated with
// whitespace removed. Text before the first header is ignored.
type fastaReader struct {
	emit    func(*gff3.Sequence)
	current *gff3.Sequence
	seq     strings.Builder
}

func (f *fastaReader) addLine(line string) {
	if m := fastaHeaderRe.FindStringSubmatch(line); m != nil {
		f.flush()
		f.current = &gff3.Sequence{ID: m[1], Description: strings.TrimSpace(m[2])}
		return
	}
	if f.current == nil {
		return
	}
	for _, chunk := range strings.Fields(line) {
		f.seq.WriteString(chunk)
	}
}

func (f *fastaReader) flush() {
	if f.current == nil {
		return
	}
	f.current.Sequence = f.seq.String()
	f.seq.Reset()
	if f.emit != nil {
		f.emit(f.current)
	}
	f.current = nil
}
