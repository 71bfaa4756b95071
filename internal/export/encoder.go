// Package export writes parsed GFF3 items as JSON lines, one object per
// item, optionally checked against an embedded JSON Schema.
package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"gffstream/internal/gff3"
	"gffstream/internal/pipeline"
)

// Kind values of the "kind" member.
const (
	KindFeature   = "feature"
	KindDirective = "directive"
	KindComment   = "comment"
	KindSequence  = "sequence"
)

// FeatureJSON is the nested form of a feature. A feature that already
// appears on the path from the root is written as a bare {"ref": id}.
type FeatureJSON struct {
	ID       string              `json:"id,omitempty"`
	Ref      string              `json:"ref,omitempty"`
	Lines    []*gff3.FeatureLine `json:"lines,omitempty"`
	Children []*FeatureJSON      `json:"children,omitempty"`
	Derived  []*FeatureJSON      `json:"derived,omitempty"`
}

// NewFeatureJSON converts a feature tree. Shared subtrees are expanded at
// every position; only cycles are cut.
func NewFeatureJSON(f *gff3.Feature) *FeatureJSON {
	return convert(f, make(map[*gff3.Feature]bool))
}

func convert(f *gff3.Feature, path map[*gff3.Feature]bool) *FeatureJSON {
	if path[f] {
		return &FeatureJSON{Ref: f.ID}
	}
	path[f] = true
	defer delete(path, f)

	out := &FeatureJSON{ID: f.ID, Lines: f.Lines}
	for _, c := range f.Children() {
		out.Children = append(out.Children, convert(c, path))
	}
	for _, d := range f.Derived() {
		out.Derived = append(out.Derived, convert(d, path))
	}
	return out
}

type featureRecord struct {
	Kind string `json:"kind"`
	*FeatureJSON
}

type directiveRecord struct {
	Kind string `json:"kind"`
	*gff3.Directive
}

type commentRecord struct {
	Kind string `json:"kind"`
	*gff3.Comment
}

type sequenceRecord struct {
	Kind string `json:"kind"`
	*gff3.Sequence
}

// Encoder writes one JSON object per line. The first write error is kept
// and returned by every later call.
type Encoder struct {
	w        *bufio.Writer
	validate bool
	count    int
	err      error
}

// NewEncoder returns an Encoder writing to w. Call Flush when done.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// SetValidate enables schema validation of every item before it is written.
func (e *Encoder) SetValidate(on bool) { e.validate = on }

func (e *Encoder) EncodeFeature(f *gff3.Feature) error {
	return e.encode(featureRecord{Kind: KindFeature, FeatureJSON: NewFeatureJSON(f)})
}

func (e *Encoder) EncodeDirective(d *gff3.Directive) error {
	return e.encode(directiveRecord{Kind: KindDirective, Directive: d})
}

func (e *Encoder) EncodeComment(c *gff3.Comment) error {
	return e.encode(commentRecord{Kind: KindComment, Comment: c})
}

func (e *Encoder) EncodeSequence(s *gff3.Sequence) error {
	return e.encode(sequenceRecord{Kind: KindSequence, Sequence: s})
}

func (e *Encoder) encode(v any) error {
	if e.err != nil {
		return e.err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		e.err = fmt.Errorf("failed to encode item %d: %w", e.count+1, err)
		return e.err
	}
	if e.validate {
		if err := ValidateJSON(raw); err != nil {
			e.err = fmt.Errorf("item %d: %w", e.count+1, err)
			return e.err
		}
	}
	if _, err := e.w.Write(append(raw, '\n')); err != nil {
		e.err = err
		return err
	}
	e.count++
	return nil
}

// Handlers adapts the encoder to parser callbacks. Write errors are
// recorded and reported by Err and Flush.
func (e *Encoder) Handlers() pipeline.Handlers {
	return pipeline.Handlers{
		OnFeature:   func(f *gff3.Feature) { _ = e.EncodeFeature(f) },
		OnDirective: func(d *gff3.Directive) { _ = e.EncodeDirective(d) },
		OnComment:   func(c *gff3.Comment) { _ = e.EncodeComment(c) },
		OnSequence:  func(s *gff3.Sequence) { _ = e.EncodeSequence(s) },
	}
}

// Count returns the number of items written.
func (e *Encoder) Count() int { return e.count }

// Err returns the first error met while encoding.
func (e *Encoder) Err() error { return e.err }

// Flush writes buffered output.
func (e *Encoder) Flush() error {
	if e.err != nil {
		return e.err
	}
	if err := e.w.Flush(); err != nil {
		e.err = err
	}
	return e.err
}
