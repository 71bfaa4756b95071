package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// maxLineSize bounds a single input line; FASTA sections may carry very
// long unwrapped sequence lines.
const maxLineSize = 64 * 1024 * 1024

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return sc
}

// ParseReader streams r through a Parser. It stops at the first error or
// when ctx is done; in-flight features are then discarded.
func ParseReader(ctx context.Context, r io.Reader, opts Options, h Handlers) error {
	p := NewParser(opts, h)
	sc := newScanner(r)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.AddLine(sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return p.Finish()
}

// ParseString parses a complete GFF3 document held in memory.
func ParseString(s string, opts Options, h Handlers) error {
	return ParseReader(context.Background(), strings.NewReader(s), opts, h)
}

// ParseLines parses a document already split into lines.
func ParseLines(lines []string, opts Options, h Handlers) error {
	p := NewParser(opts, h)
	for _, line := range lines {
		if err := p.AddLine(line); err != nil {
			return err
		}
	}
	return p.Finish()
}

// ParseAll parses r and collects every delivered item.
func ParseAll(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	res := &Result{}
	if err := ParseReader(ctx, r, opts, res.Handlers()); err != nil {
		return nil, err
	}
	return res, nil
}
