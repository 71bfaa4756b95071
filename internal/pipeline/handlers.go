package pipeline

import "gffstream/internal/gff3"

// Handlers receive parsed items. A nil handler is simply not invoked.
// Each completed feature is delivered once, and is not modified afterwards.
type Handlers struct {
	OnFeature   func(*gff3.Feature)
	OnDirective func(*gff3.Directive)
	OnComment   func(*gff3.Comment)
	OnSequence  func(*gff3.Sequence)
	// OnEnd is called after the final flush of a successful parse.
	OnEnd func()
}

// Item is one parsed item; exactly one field is set.
type Item struct {
	Feature   *gff3.Feature
	Directive *gff3.Directive
	Comment   *gff3.Comment
	Sequence  *gff3.Sequence
}

// Result collects the items of a parse in input order.
type Result struct {
	Items []Item
}

// Handlers returns handlers that append to r.
func (r *Result) Handlers() Handlers {
	return Handlers{
		OnFeature:   func(f *gff3.Feature) { r.Items = append(r.Items, Item{Feature: f}) },
		OnDirective: func(d *gff3.Directive) { r.Items = append(r.Items, Item{Directive: d}) },
		OnComment:   func(c *gff3.Comment) { r.Items = append(r.Items, Item{Comment: c}) },
		OnSequence:  func(s *gff3.Sequence) { r.Items = append(r.Items, Item{Sequence: s}) },
	}
}

// Replay delivers the collected items to h in order. OnEnd is not called.
func (r *Result) Replay(h Handlers) {
	for _, it := range r.Items {
		switch {
		case it.Feature != nil && h.OnFeature != nil:
			h.OnFeature(it.Feature)
		case it.Directive != nil && h.OnDirective != nil:
			h.OnDirective(it.Directive)
		case it.Comment != nil && h.OnComment != nil:
			h.OnComment(it.Comment)
		case it.Sequence != nil && h.OnSequence != nil:
			h.OnSequence(it.Sequence)
		}
	}
}

func (r *Result) Features() []*gff3.Feature {
	var out []*gff3.Feature
	for _, it := range r.Items {
		if it.Feature != nil {
			out = append(out, it.Feature)
		}
	}
	return out
}

func (r *Result) Directives() []*gff3.Directive {
	var out []*gff3.Directive
	for _, it := range r.Items {
		if it.Directive != nil {
			out = append(out, it.Directive)
		}
	}
	return out
}

func (r *Result) Comments() []*gff3.Comment {
	var out []*gff3.Comment
	for _, it := range r.Items {
		if it.Comment != nil {
			out = append(out, it.Comment)
		}
	}
	return out
}

func (r *Result) Sequences() []*gff3.Sequence {
	var out []*gff3.Sequence
	for _, it := range r.Items {
		if it.Sequence != nil {
			out = append(out, it.Sequence)
		}
	}
	return out
}
