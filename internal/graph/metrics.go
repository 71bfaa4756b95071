package graph

// TypeCounts returns the number of nodes per feature type.
func (g *Graph) TypeCounts() map[string]int {
	counts := make(map[string]int)
	if g == nil {
		return counts
	}
	for _, n := range g.Nodes {
		counts[n.Type]++
	}
	return counts
}

// EdgeKindCounts returns the number of edges per kind.
func (g *Graph) EdgeKindCounts() map[EdgeKind]int {
	counts := make(map[EdgeKind]int)
	if g == nil {
		return counts
	}
	for _, e := range g.Edges {
		counts[e.Kind]++
	}
	return counts
}
