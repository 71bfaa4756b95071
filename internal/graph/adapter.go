package graph

import "gffstream/internal/gff3"

// FromFeature converts a resolved feature into a Node stored under key.
// Coordinates span every line; the other columns come from the first line.
func FromFeature(f *gff3.Feature, key string) *Node {
	if f == nil || len(f.Lines) == 0 {
		return nil
	}
	first := f.Lines[0]
	n := &Node{
		Key:        key,
		ID:         f.ID,
		SeqID:      first.SeqID,
		Source:     first.Source,
		Type:       f.Type(),
		Score:      first.Score,
		Strand:     first.Strand,
		Phase:      first.Phase,
		Attributes: first.Attributes,
		LineCount:  len(f.Lines),
	}
	for _, l := range f.Lines {
		if l.Start != nil && (n.Start == nil || *l.Start < *n.Start) {
			v := *l.Start
			n.Start = &v
		}
		if l.End != nil && (n.End == nil || *l.End > *n.End) {
			v := *l.End
			n.End = &v
		}
	}
	return n
}
