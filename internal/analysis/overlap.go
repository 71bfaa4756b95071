// Package analysis answers interval questions over a feature graph.
package analysis

import (
	"fmt"

	"gffstream/internal/graph"
)

// OverlapReport lists the features touching a sequence interval.
type OverlapReport struct {
	// Overlapping features, in graph insertion order.
	Direct []*graph.Node
	// Ancestors of the overlapping features that do not overlap themselves.
	Containing []*graph.Node
}

// Analyzer performs interval analysis on a feature graph.
type Analyzer struct {
	g *graph.Graph
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(g *graph.Graph) *Analyzer {
	return &Analyzer{g: g}
}

// Overlaps finds the features on seqID intersecting [start, end] (1-based,
// inclusive) and every feature they reference, transitively.
func (a *Analyzer) Overlaps(seqID string, start, end int64) (*OverlapReport, error) {
	if end < start {
		return nil, fmt.Errorf("invalid interval %d-%d", start, end)
	}
	report := &OverlapReport{
		Direct:     []*graph.Node{},
		Containing: []*graph.Node{},
	}

	seenDirect := make(map[string]bool)
	for _, n := range a.g.SortedNodes() {
		if n.SeqID == seqID && overlaps(n, start, end) {
			report.Direct = append(report.Direct, n)
			seenDirect[n.Key] = true
		}
	}

	seenContaining := make(map[string]bool)
	queue := make([]*graph.Node, len(report.Direct))
	copy(queue, report.Direct)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, p := range a.g.Parents(cur.Key) {
			if seenDirect[p.Key] || seenContaining[p.Key] {
				continue
			}
			seenContaining[p.Key] = true
			report.Containing = append(report.Containing, p)
			queue = append(queue, p)
		}
	}

	return report, nil
}

// overlaps treats a missing coordinate as unbounded on that side.
func overlaps(n *graph.Node, start, end int64) bool {
	if n.Start != nil && *n.Start > end {
		return false
	}
	if n.End != nil && *n.End < start {
		return false
	}
	return true
}
