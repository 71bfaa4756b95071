// Package graph accumulates emitted feature trees into a flat node/edge
// graph that can be queried, snapshotted and stored.
package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gffstream/internal/gff3"
)

// Graph manages nodes and their relationships.
type Graph struct {
	Nodes map[string]*Node `json:"nodes"`
	Edges []Edge           `json:"edges"`

	// Indices rebuilt from Edges; not serialized.
	edgeSet  map[Edge]struct{}
	children map[string][]string
	parents  map[string][]string
	anon     int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:    make(map[string]*Node),
		Edges:    []Edge{},
		edgeSet:  make(map[Edge]struct{}),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// AddFeature adds f and everything reachable below it. A feature whose ID
// is already present refreshes that node and keeps its edges; features
// without an ID get a new synthetic key.
func (g *Graph) AddFeature(f *gff3.Feature) {
	if f == nil {
		return
	}
	keys := make(map[*gff3.Feature]string)
	key := func(x *gff3.Feature) string {
		if k, ok := keys[x]; ok {
			return k
		}
		k := x.ID
		if k == "" {
			g.anon++
			k = anonPrefix + strconv.Itoa(g.anon)
		}
		keys[x] = k
		return k
	}

	f.Walk(func(x *gff3.Feature) {
		k := key(x)
		g.putNode(FromFeature(x, k))
		for _, c := range x.Children() {
			g.addEdge(Edge{From: key(c), To: k, Kind: EdgeParent})
		}
		for _, d := range x.Derived() {
			g.addEdge(Edge{From: key(d), To: k, Kind: EdgeDerivesFrom})
		}
	})
}

func (g *Graph) putNode(n *Node) {
	if n == nil {
		return
	}
	if old, ok := g.Nodes[n.Key]; ok {
		n.Order = old.Order
	} else {
		n.Order = len(g.Nodes)
	}
	g.Nodes[n.Key] = n
}

func (g *Graph) addEdge(e Edge) bool {
	if _, dup := g.edgeSet[e]; dup {
		return false
	}
	g.Edges = append(g.Edges, e)
	g.index(e)
	return true
}

func (g *Graph) index(e Edge) {
	g.edgeSet[e] = struct{}{}
	g.children[e.To] = appendUnique(g.children[e.To], e.From)
	g.parents[e.From] = appendUnique(g.parents[e.From], e.To)
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// RebuildIndices restores the lookup tables after Nodes and Edges were
// populated directly, e.g. by decoding a snapshot.
func (g *Graph) RebuildIndices() {
	if g.Nodes == nil {
		g.Nodes = make(map[string]*Node)
	}
	g.edgeSet = make(map[Edge]struct{}, len(g.Edges))
	g.children = make(map[string][]string)
	g.parents = make(map[string][]string)

	edges := g.Edges
	g.Edges = make([]Edge, 0, len(edges))
	for _, e := range edges {
		if _, dup := g.edgeSet[e]; dup {
			continue
		}
		g.Edges = append(g.Edges, e)
		g.index(e)
	}

	g.anon = 0
	for k := range g.Nodes {
		rest, ok := strings.CutPrefix(k, anonPrefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(rest); err == nil && n > g.anon {
			g.anon = n
		}
	}
}

// Node returns the node stored under key.
func (g *Graph) Node(key string) (*Node, bool) {
	n, ok := g.Nodes[key]
	return n, ok
}

// Children returns the features referencing key through Parent or
// Derives_from, in the order the edges were added.
func (g *Graph) Children(key string) []*Node {
	return g.lookup(g.children[key])
}

// Parents returns the features key references.
func (g *Graph) Parents(key string) []*Node {
	return g.lookup(g.parents[key])
}

func (g *Graph) lookup(keys []string) []*Node {
	var out []*Node
	for _, k := range keys {
		if n, ok := g.Nodes[k]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Roots returns the nodes that reference nothing, in insertion order.
func (g *Graph) Roots() []*Node {
	var out []*Node
	for k, n := range g.Nodes {
		if len(g.parents[k]) == 0 {
			out = append(out, n)
		}
	}
	sortByOrder(out)
	return out
}

// Descendants returns every node below key, breadth first, each once.
// The node itself is excluded even when a cycle leads back to it.
func (g *Graph) Descendants(key string) ([]*Node, error) {
	if _, ok := g.Nodes[key]; !ok {
		return nil, fmt.Errorf("feature %q not in graph", key)
	}
	seen := map[string]bool{key: true}
	queue := []string{key}
	var out []*Node
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range g.children[cur] {
			if seen[c] {
				continue
			}
			seen[c] = true
			queue = append(queue, c)
			if n, ok := g.Nodes[c]; ok {
				out = append(out, n)
			}
		}
	}
	return out, nil
}

// SortedNodes returns all nodes in insertion order.
func (g *Graph) SortedNodes() []*Node {
	out := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n)
	}
	sortByOrder(out)
	return out
}

func sortByOrder(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].Key < nodes[j].Key
	})
}
