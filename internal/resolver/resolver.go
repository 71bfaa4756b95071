// Package resolver links GFF3 feature lines into parent/child and derivation
// trees in a single forward pass.
//
// A Resolver holds the features of the current scope that may still gain
// children. Top-level features are emitted in first-seen order when the
// scope is flushed, or earlier when the optional buffer limit forces an
// eviction. Features that reference nothing are emitted immediately.
//
// A Resolver is not safe for concurrent use.
package resolver

import (
	"sort"

	"gffstream/internal/gff3"
)

// Options configures a Resolver.
type Options struct {
	// BufferSize caps the number of top-level features held at once.
	// Zero means unlimited. A cap smaller than the distance of the file's
	// longest forward reference surfaces as an unresolved reference error.
	BufferSize int
	// DisableDerivesFromReferences ignores Derives_from for linking. The
	// attribute stays in the line's attribute map.
	DisableDerivesFromReferences bool
}

type refKind int

const (
	refParent refKind = iota
	refDerivesFrom
)

func (k refKind) String() string {
	if k == refDerivesFrom {
		return gff3.AttrDerivesFrom
	}
	return gff3.AttrParent
}

type reference struct {
	kind   refKind
	target string
}

// waiting holds the features that reference a not yet seen ID.
type waiting struct {
	parent  []*gff3.Feature
	derived []*gff3.Feature
}

// Stats describes the resolver's construction tables and its output so far.
type Stats struct {
	UnderConstruction int
	TopLevel          int
	Orphans           int
	Emitted           int
	Evicted           int
	Flushes           int
}

// Resolver is the incremental reference resolver.
type Resolver struct {
	opts Options
	emit func(*gff3.Feature)

	byID      map[string]*gff3.Feature
	topLevel  []*gff3.Feature
	orphans   map[string]*waiting
	completed map[string]map[reference]struct{}

	emitted int
	evicted int
	flushes int
}

// New creates a Resolver delivering completed features to emit.
// A nil emit discards them.
func New(opts Options, emit func(*gff3.Feature)) *Resolver {
	r := &Resolver{opts: opts, emit: emit}
	r.reset()
	return r
}

func (r *Resolver) reset() {
	r.byID = make(map[string]*gff3.Feature)
	r.topLevel = nil
	r.orphans = make(map[string]*waiting)
	r.completed = make(map[string]map[reference]struct{})
}

// AddLine consumes one decoded feature line.
func (r *Resolver) AddLine(line *gff3.FeatureLine) error {
	id := line.ID()
	parents := line.Parents()
	var derives []string
	if !r.opts.DisableDerivesFromReferences {
		derives = line.DerivesFrom()
	}

	if id == "" && len(parents) == 0 && len(derives) == 0 {
		r.deliver(gff3.NewFeature(line))
		return nil
	}

	var feature *gff3.Feature
	if id == "" {
		feature = gff3.NewFeature(line)
	} else if existing, ok := r.byID[id]; ok {
		if t := existing.Type(); t != line.Type {
			return &TypeMismatchError{ID: id, Existing: t, Got: line.Type}
		}
		// Every line of a feature carries the same child lists.
		line.ChildFeatures = append([]*gff3.Feature(nil), existing.Children()...)
		line.DerivedFeatures = append([]*gff3.Feature(nil), existing.Derived()...)
		existing.Lines = append(existing.Lines, line)
		feature = existing
	} else {
		feature = gff3.NewFeature(line)
		if len(parents) == 0 && len(derives) == 0 {
			r.enqueue(feature)
		}
		r.byID[id] = feature
		r.adoptOrphans(feature, id)
	}

	r.link(feature, id, refParent, parents)
	r.link(feature, id, refDerivesFrom, derives)
	return nil
}

// adoptOrphans attaches the features that were waiting for id.
func (r *Resolver) adoptOrphans(feature *gff3.Feature, id string) {
	w, ok := r.orphans[id]
	if !ok {
		return
	}
	for _, l := range feature.Lines {
		l.ChildFeatures = append(l.ChildFeatures, w.parent...)
		l.DerivedFeatures = append(l.DerivedFeatures, w.derived...)
	}
	delete(r.orphans, id)
}

// link resolves the outgoing references of feature. Each distinct
// (id, kind, target) edge is recorded once, whether it links immediately
// or waits in the orphan table.
func (r *Resolver) link(feature *gff3.Feature, id string, kind refKind, targets []string) {
	seen := make(map[string]bool, len(targets))
	for _, target := range targets {
		if seen[target] {
			continue
		}
		seen[target] = true
		if id != "" && !r.markCompleted(id, reference{kind: kind, target: target}) {
			continue
		}

		if other, ok := r.byID[target]; ok {
			attach(other, kind, feature)
			continue
		}
		w := r.orphans[target]
		if w == nil {
			w = &waiting{}
			r.orphans[target] = w
		}
		if kind == refParent {
			w.parent = append(w.parent, feature)
		} else {
			w.derived = append(w.derived, feature)
		}
	}
}

// markCompleted records ref for id and reports whether it was new.
func (r *Resolver) markCompleted(id string, ref reference) bool {
	refs := r.completed[id]
	if refs == nil {
		refs = make(map[reference]struct{})
		r.completed[id] = refs
	}
	if _, done := refs[ref]; done {
		return false
	}
	refs[ref] = struct{}{}
	return true
}

func attach(to *gff3.Feature, kind refKind, f *gff3.Feature) {
	for _, l := range to.Lines {
		if kind == refParent {
			l.ChildFeatures = append(l.ChildFeatures, f)
		} else {
			l.DerivedFeatures = append(l.DerivedFeatures, f)
		}
	}
}

// enqueue appends a top-level feature, first evicting the oldest ones
// while the queue is at its limit.
func (r *Resolver) enqueue(f *gff3.Feature) {
	if r.opts.BufferSize > 0 {
		for len(r.topLevel) > 0 && len(r.topLevel)+1 > r.opts.BufferSize {
			oldest := r.topLevel[0]
			r.topLevel[0] = nil
			r.topLevel = r.topLevel[1:]
			r.deliver(oldest)
			r.release(oldest)
			r.evicted++
		}
	}
	r.topLevel = append(r.topLevel, f)
}

// release drops an evicted feature and everything below it from the
// by-ID and completed-reference tables. The descendants travel with it.
func (r *Resolver) release(root *gff3.Feature) {
	root.Walk(func(f *gff3.Feature) {
		if f.ID == "" {
			return
		}
		if r.byID[f.ID] == f {
			delete(r.byID, f.ID)
			delete(r.completed, f.ID)
		}
	})
}

// Flush closes the scope: every queued top-level feature is emitted in
// order and all tables are cleared. Orphans still waiting at this point
// are reported as an *UnresolvedReferenceError.
func (r *Resolver) Flush() error {
	for _, f := range r.topLevel {
		r.deliver(f)
	}

	var dangling []string
	for id := range r.orphans {
		dangling = append(dangling, id)
	}
	sort.Strings(dangling)

	r.reset()
	r.flushes++
	if len(dangling) > 0 {
		return &UnresolvedReferenceError{IDs: dangling}
	}
	return nil
}

func (r *Resolver) deliver(f *gff3.Feature) {
	r.emitted++
	if r.emit != nil {
		r.emit(f)
	}
}

// Stats reports the current table sizes and output counters.
func (r *Resolver) Stats() Stats {
	return Stats{
		UnderConstruction: len(r.byID),
		TopLevel:          len(r.topLevel),
		Orphans:           len(r.orphans),
		Emitted:           r.emitted,
		Evicted:           r.evicted,
		Flushes:           r.flushes,
	}
}
