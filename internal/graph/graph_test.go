package graph

import (
	"testing"

	"gffstream/internal/gff3"
	"gffstream/internal/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `##gff-version 3
ctg1	.	gene	100	900	.	+	.	ID=g1
ctg1	.	mRNA	100	900	.	+	.	ID=t1;Parent=g1
ctg1	.	mRNA	100	900	.	+	.	ID=t2;Parent=g1
ctg1	.	exon	100	300	.	+	.	Parent=t1,t2
ctg1	.	CDS	150	300	.	+	0	ID=c1;Parent=t1
ctg1	.	CDS	500	800	.	+	2	ID=c1;Parent=t1
ctg1	.	polypeptide	150	800	.	+	.	ID=p1;Derives_from=c1
###
ctg2	.	region	1	5000	.	.	.	Name=ctg2
`

func buildGraph(t *testing.T, doc string) *Graph {
	t.Helper()
	g := NewGraph()
	err := pipeline.ParseString(doc, pipeline.DefaultOptions(), pipeline.Handlers{
		OnFeature: g.AddFeature,
	})
	require.NoError(t, err)
	return g
}

func keys(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Key)
	}
	return out
}

func TestGraph_AddFeature(t *testing.T) {
	g := buildGraph(t, sample)

	t.Run("nodes", func(t *testing.T) {
		assert.Len(t, g.Nodes, 7)
		exon, ok := g.Node("_anon1")
		require.True(t, ok, "anonymous exon gets a synthetic key")
		assert.True(t, exon.Anonymous())
		assert.Equal(t, "exon", exon.Type)

		c1, _ := g.Node("c1")
		assert.Equal(t, 2, c1.LineCount)
		assert.Equal(t, int64(150), *c1.Start)
		assert.Equal(t, int64(800), *c1.End)
		assert.Equal(t, "0", c1.Phase)
	})

	t.Run("edges are deduplicated", func(t *testing.T) {
		assert.Len(t, g.Edges, 6)
		assert.Equal(t, map[EdgeKind]int{EdgeParent: 5, EdgeDerivesFrom: 1}, g.EdgeKindCounts())
	})

	t.Run("children and parents", func(t *testing.T) {
		assert.Equal(t, []string{"t1", "t2"}, keys(g.Children("g1")))
		assert.Equal(t, []string{"_anon1", "c1"}, keys(g.Children("t1")))
		assert.Equal(t, []string{"t1", "t2"}, keys(g.Parents("_anon1")))
		assert.Equal(t, []string{"c1"}, keys(g.Parents("p1")))
		assert.Empty(t, g.Parents("g1"))
	})

	t.Run("roots keep emission order", func(t *testing.T) {
		roots := g.Roots()
		require.Len(t, roots, 2)
		assert.Equal(t, "g1", roots[0].Key)
		assert.Equal(t, "region", roots[1].Type)
	})

	t.Run("descendants", func(t *testing.T) {
		ds, err := g.Descendants("g1")
		require.NoError(t, err)
		assert.Equal(t, []string{"t1", "t2", "_anon1", "c1", "p1"}, keys(ds))

		_, err = g.Descendants("nope")
		assert.Error(t, err)
	})

	t.Run("type counts", func(t *testing.T) {
		assert.Equal(t, map[string]int{
			"gene": 1, "mRNA": 2, "exon": 1, "CDS": 1, "polypeptide": 1, "region": 1,
		}, g.TypeCounts())
	})
}

func TestGraph_RepeatedFeatureRefreshesNode(t *testing.T) {
	g := NewGraph()
	line := func(start, end int64) *gff3.FeatureLine {
		return &gff3.FeatureLine{Type: "match", Start: &start, End: &end, Attributes: gff3.Attributes{"ID": {"m1"}}}
	}
	f := gff3.NewFeature(line(10, 20))
	g.AddFeature(f)
	f.Lines = append(f.Lines, line(30, 40))
	g.AddFeature(f)

	require.Len(t, g.Nodes, 1)
	n := g.Nodes["m1"]
	assert.Equal(t, 2, n.LineCount)
	assert.Equal(t, int64(40), *n.End)
	assert.Equal(t, 0, n.Order)
}

func TestGraph_RebuildIndices(t *testing.T) {
	g := buildGraph(t, sample)

	restored := &Graph{Nodes: g.Nodes, Edges: append(append([]Edge{}, g.Edges...), g.Edges[0])}
	restored.RebuildIndices()

	assert.Len(t, restored.Edges, len(g.Edges), "duplicate edges dropped")
	assert.Equal(t, keys(g.Children("t1")), keys(restored.Children("t1")))
	assert.Equal(t, keys(g.Roots()), keys(restored.Roots()))

	// The anonymous counter continues past restored keys.
	restored.AddFeature(gff3.NewFeature(&gff3.FeatureLine{Type: "gap"}))
	_, ok := restored.Nodes["_anon3"]
	assert.True(t, ok)
}

func TestGraph_CycleDoesNotLoop(t *testing.T) {
	g := NewGraph()
	g.Nodes["a"] = &Node{Key: "a", ID: "a"}
	g.Nodes["b"] = &Node{Key: "b", ID: "b", Order: 1}
	g.Edges = []Edge{{From: "a", To: "b", Kind: EdgeParent}, {From: "b", To: "a", Kind: EdgeParent}}
	g.RebuildIndices()

	ds, err := g.Descendants("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys(ds))
	assert.Empty(t, g.Roots())
}
