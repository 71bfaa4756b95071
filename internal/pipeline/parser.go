// Package pipeline drives GFF3 text through classification, decoding and
// reference resolution, and delivers the results to caller handlers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gffstream/internal/gff3"
	"gffstream/internal/resolver"

	"go.uber.org/zap"
)

// ErrFinished is returned when lines are added after Finish.
var ErrFinished = errors.New("parser already finished")

// Options configures a Parser. The zero value resolves features but
// delivers nothing; start from DefaultOptions.
type Options struct {
	// BufferSize caps simultaneously held top-level features (0 = unlimited).
	BufferSize                   int
	DisableDerivesFromReferences bool

	ParseFeatures   bool
	ParseDirectives bool
	ParseComments   bool
	ParseSequences  bool

	// Logger receives debug events for scope flushes and evictions and an
	// error event for the fatal error that halts a parse. Nil disables it.
	Logger *zap.Logger

	// OnStats receives the resolver counters once, when the parser finishes
	// or fails. ParseShards calls it from several goroutines.
	OnStats func(resolver.Stats)
}

// DefaultOptions delivers every item kind with an unlimited buffer.
func DefaultOptions() Options {
	return Options{
		ParseFeatures:   true,
		ParseDirectives: true,
		ParseComments:   true,
		ParseSequences:  true,
	}
}

// Parser consumes GFF3 lines one at a time. After the first error every
// call returns that error. A Parser is not safe for concurrent use.
type Parser struct {
	opts     Options
	h        Handlers
	logger   *zap.Logger
	resolver *resolver.Resolver
	fasta    *fastaReader

	line int
	err  error
	done bool
}

// NewParser creates a Parser delivering to h.
func NewParser(opts Options, h Handlers) *Parser {
	p := &Parser{opts: opts, h: h, logger: opts.Logger}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.resolver = resolver.New(resolver.Options{
		BufferSize:                   opts.BufferSize,
		DisableDerivesFromReferences: opts.DisableDerivesFromReferences,
	}, p.emitFeature)
	return p
}

func (p *Parser) emitFeature(f *gff3.Feature) {
	if p.opts.ParseFeatures && p.h.OnFeature != nil {
		p.h.OnFeature(f)
	}
}

func (p *Parser) emitSequence(s *gff3.Sequence) {
	if p.opts.ParseSequences && p.h.OnSequence != nil {
		p.h.OnSequence(s)
	}
}

// AddLine consumes one line of GFF3 text.
func (p *Parser) AddLine(text string) error {
	if err := p.check(); err != nil {
		return err
	}
	p.line++
	text = strings.TrimRight(text, "\r\n")

	if p.fasta != nil {
		p.fasta.addLine(text)
		return nil
	}

	switch gff3.Classify(text) {
	case gff3.KindFeature:
		l, err := gff3.DecodeLine(text)
		if err != nil {
			return p.fail(&gff3.MalformedLineError{Line: p.line, Text: text, Err: err})
		}
		return p.addFeature(l)

	case gff3.KindSync:
		return p.flush()

	case gff3.KindDirective:
		d, ok := gff3.ParseDirective(text)
		if !ok {
			return nil
		}
		if d.Name == gff3.DirectiveFASTA {
			return p.startFASTA()
		}
		if p.opts.ParseDirectives && p.h.OnDirective != nil {
			p.h.OnDirective(d)
		}

	case gff3.KindComment:
		if p.opts.ParseComments && p.h.OnComment != nil {
			p.h.OnComment(&gff3.Comment{Text: gff3.CommentText(text)})
		}

	case gff3.KindFASTAHeader:
		if err := p.startFASTA(); err != nil {
			return err
		}
		p.fasta.addLine(strings.TrimLeft(text, " \t"))
	}
	return nil
}

// AddFeatureLine consumes a record that was decoded by the caller.
func (p *Parser) AddFeatureLine(l *gff3.FeatureLine) error {
	if err := p.check(); err != nil {
		return err
	}
	p.line++
	if p.fasta != nil {
		return p.fail(fmt.Errorf("line %d: feature after start of FASTA section: %w", p.line, gff3.ErrMalformedLine))
	}
	return p.addFeature(l)
}

// Sync flushes all in-flight features, as a "###" line would.
func (p *Parser) Sync() error {
	if err := p.check(); err != nil {
		return err
	}
	return p.flush()
}

// Finish flushes all in-flight state and signals completion. No further
// lines are accepted.
func (p *Parser) Finish() error {
	if err := p.check(); err != nil {
		return err
	}
	if p.fasta == nil {
		if err := p.flush(); err != nil {
			return err
		}
	} else {
		p.fasta.flush()
	}
	p.done = true
	p.reportStats()
	if p.h.OnEnd != nil {
		p.h.OnEnd()
	}
	return nil
}

// Line returns the number of lines consumed so far.
func (p *Parser) Line() int { return p.line }

// Stats reports the resolver's table sizes and counters.
func (p *Parser) Stats() resolver.Stats { return p.resolver.Stats() }

func (p *Parser) check() error {
	if p.err != nil {
		return p.err
	}
	if p.done {
		return ErrFinished
	}
	return nil
}

func (p *Parser) addFeature(l *gff3.FeatureLine) error {
	evicted := p.resolver.Stats().Evicted
	if err := p.resolver.AddLine(l); err != nil {
		return p.fail(fmt.Errorf("line %d: %w", p.line, err))
	}
	if n := p.resolver.Stats().Evicted - evicted; n > 0 {
		p.logger.Debug("buffer limit forced early emission",
			zap.Int("line", p.line),
			zap.Int("evicted", n),
			zap.Int("buffer_size", p.opts.BufferSize))
	}
	return nil
}

func (p *Parser) flush() error {
	before := p.resolver.Stats()
	if err := p.resolver.Flush(); err != nil {
		return p.fail(fmt.Errorf("line %d: %w", p.line, err))
	}
	p.logger.Debug("scope flushed",
		zap.Int("line", p.line),
		zap.Int("emitted", before.TopLevel))
	return nil
}

// startFASTA closes the feature section. Every later line is sequence data.
func (p *Parser) startFASTA() error {
	if err := p.flush(); err != nil {
		return err
	}
	p.fasta = &fastaReader{emit: p.emitSequence}
	return nil
}

func (p *Parser) reportStats() {
	if p.opts.OnStats != nil {
		p.opts.OnStats(p.resolver.Stats())
	}
}

func (p *Parser) fail(err error) error {
	p.err = err
	p.reportStats()
	p.logger.Error("GFF3 parse failed",
		zap.Int("line", p.line),
		zap.String("class", ErrorClass(err)),
		zap.Error(err))
	return err
}

// ErrorClass names the category of a parse error for logs and exit codes.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case errors.Is(err, gff3.ErrMalformedLine):
		return "malformed_line"
	case errors.Is(err, resolver.ErrStructural):
		return "structural"
	case errors.Is(err, resolver.ErrUnresolvedReference):
		return "unresolved_reference"
	default:
		return "unknown"
	}
}
