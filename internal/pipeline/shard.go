package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"gffstream/internal/gff3"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// scope is a run of lines closed by a "###" line. References never cross
// scopes, so scopes resolve independently.
type scope struct {
	firstLine int // 1-based number of lines[0]
	lines     []string
}

// splitScopes cuts the input after every "###" line. Once a FASTA section
// starts, the rest of the input stays in the last scope.
func splitScopes(r io.Reader) ([]scope, error) {
	var scopes []scope
	cur := scope{firstLine: 1}
	inFASTA := false
	n := 0

	sc := newScanner(r)
	for sc.Scan() {
		n++
		line := sc.Text()
		cur.lines = append(cur.lines, line)
		if inFASTA {
			continue
		}
		switch gff3.Classify(line) {
		case gff3.KindSync:
			scopes = append(scopes, cur)
			cur = scope{firstLine: n + 1}
		case gff3.KindFASTAHeader:
			inFASTA = true
		case gff3.KindDirective:
			if d, ok := gff3.ParseDirective(line); ok && d.Name == gff3.DirectiveFASTA {
				inFASTA = true
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(cur.lines) > 0 || len(scopes) == 0 {
		scopes = append(scopes, cur)
	}
	return scopes, nil
}

// ParseShards splits r at sync boundaries, resolves the scopes on up to
// workers goroutines, and delivers the items to h in input order. The
// whole input is held in memory. On error nothing is delivered and the
// error of the earliest failing scope is returned.
func ParseShards(ctx context.Context, r io.Reader, opts Options, workers int, h Handlers) error {
	scopes, err := splitScopes(r)
	if err != nil {
		return err
	}
	if workers < 1 {
		workers = 1
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug("parsing scopes", zap.Int("scopes", len(scopes)), zap.Int("workers", workers))

	results := make([]*Result, len(scopes))
	errs := make([]error, len(scopes))

	// failed holds the lowest index of a failed scope. Scopes after it are
	// skipped; scopes before it still run so the reported error does not
	// depend on scheduling.
	var failed atomic.Int64
	failed.Store(int64(len(scopes)))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, sc := range scopes {
		i, sc := i, sc
		g.Go(func() error {
			if int64(i) > failed.Load() {
				return nil
			}
			res, err := parseScope(ctx, sc, opts)
			if err != nil {
				errs[i] = err
				for {
					cur := failed.Load()
					if int64(i) >= cur || failed.CompareAndSwap(cur, int64(i)) {
						break
					}
				}
				return err
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	for _, res := range results {
		res.Replay(h)
	}
	if h.OnEnd != nil {
		h.OnEnd()
	}
	return nil
}

func parseScope(ctx context.Context, sc scope, opts Options) (*Result, error) {
	res := &Result{}
	p := NewParser(opts, res.Handlers())
	p.line = sc.firstLine - 1
	for _, line := range sc.lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.AddLine(line); err != nil {
			return nil, err
		}
	}
	if err := p.Finish(); err != nil {
		return nil, err
	}
	return res, nil
}
