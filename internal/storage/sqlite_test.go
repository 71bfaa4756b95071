package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gffstream/internal/gff3"
	"gffstream/internal/graph"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testLine(seqID, typ string, start, end int64, attrs gff3.Attributes) *gff3.FeatureLine {
	return &gff3.FeatureLine{SeqID: seqID, Type: typ, Start: &start, End: &end, Strand: "+", Attributes: attrs}
}

// testGraph builds gene g1 with mRNA t1, an anonymous exon under t1 and a
// region on a second sequence.
func testGraph() *graph.Graph {
	gene := gff3.NewFeature(testLine("ctg1", "gene", 1, 900, gff3.Attributes{"ID": {"g1"}, "Note": {"a;b"}}))
	mrna := gff3.NewFeature(testLine("ctg1", "mRNA", 1, 900, gff3.Attributes{"ID": {"t1"}, "Parent": {"g1"}}))
	exon := gff3.NewFeature(testLine("ctg1", "exon", 1, 300, gff3.Attributes{"Parent": {"t1"}}))
	gene.Lines[0].ChildFeatures = []*gff3.Feature{mrna}
	mrna.Lines[0].ChildFeatures = []*gff3.Feature{exon}

	g := graph.NewGraph()
	g.AddFeature(gene)
	g.AddFeature(gff3.NewFeature(testLine("ctg2", "region", 1, 5000, nil)))
	return g
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.BeginRun(ctx, "genes.gff3")
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	require.NoError(t, err, "run IDs are UUIDs")

	require.NoError(t, store.SaveGraph(ctx, runID, testGraph()))
	require.NoError(t, store.FinishRun(ctx, runID, nil))

	failedID, err := store.BeginRun(ctx, "broken.gff3")
	require.NoError(t, err)
	require.NoError(t, store.FinishRun(ctx, failedID, errors.New("boom")))

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, failedID, runs[0].ID, "newest first")
	assert.Equal(t, RunFailed, runs[0].Status)
	assert.Equal(t, RunComplete, runs[1].Status)
	assert.Equal(t, 4, runs[1].Features)
	assert.Equal(t, "genes.gff3", runs[1].Source)
	assert.False(t, runs[1].StartedAt.IsZero())

	assert.ErrorIs(t, store.FinishRun(ctx, "missing", nil), ErrRunNotFound)
}

func TestSQLiteStore_GraphRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.BeginRun(ctx, "genes.gff3")
	require.NoError(t, err)
	want := testGraph()
	require.NoError(t, store.SaveGraph(ctx, runID, want))

	loaded, err := store.LoadGraph(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, want.Nodes, loaded.Nodes)
	assert.Equal(t, want.Edges, loaded.Edges)

	ds, err := loaded.Descendants("g1")
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "t1", ds[0].Key)
	assert.True(t, ds[1].Anonymous())

	t.Run("get feature", func(t *testing.T) {
		n, err := store.GetFeature(ctx, runID, "g1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a;b"}, n.Attributes.Get("Note"))
		assert.Equal(t, int64(900), *n.End)
		assert.Nil(t, n.Score)

		_, err = store.GetFeature(ctx, runID, "nope")
		assert.ErrorIs(t, err, ErrFeatureNotFound)
	})

	t.Run("find by sequence", func(t *testing.T) {
		nodes, err := store.FindFeaturesBySeqID(ctx, runID, "ctg1")
		require.NoError(t, err)
		assert.Len(t, nodes, 3)

		nodes, err = store.FindFeaturesBySeqID(ctx, runID, "ctg2")
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "region", nodes[0].Type)
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := store.LoadGraph(ctx, "missing")
		assert.ErrorIs(t, err, ErrRunNotFound)
		assert.ErrorIs(t, store.SaveGraph(ctx, "missing", graph.NewGraph()), ErrRunNotFound)
	})
}

func TestSQLiteStore_SaveGraph_SnapshotSync(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	runID, err := store.BeginRun(ctx, "genes.gff3")
	require.NoError(t, err)
	require.NoError(t, store.SaveGraph(ctx, runID, testGraph()))

	// New snapshot replaces the old one within the run.
	g2 := graph.NewGraph()
	g2.AddFeature(gff3.NewFeature(testLine("ctg3", "gene", 5, 50, gff3.Attributes{"ID": {"g9"}})))
	require.NoError(t, store.SaveGraph(ctx, runID, g2))

	loaded, err := store.LoadGraph(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, loaded.Nodes, 1)
	assert.Empty(t, loaded.Edges)
	_, hasOld := loaded.Nodes["g1"]
	assert.False(t, hasOld)
}

func TestSQLiteStore_RunsAreIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.BeginRun(ctx, "a.gff3")
	require.NoError(t, err)
	second, err := store.BeginRun(ctx, "b.gff3")
	require.NoError(t, err)

	require.NoError(t, store.SaveGraph(ctx, first, testGraph()))
	require.NoError(t, store.SaveGraph(ctx, second, graph.NewGraph()))

	loaded, err := store.LoadGraph(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, loaded.Nodes)

	loaded, err = store.LoadGraph(ctx, first)
	require.NoError(t, err)
	assert.Len(t, loaded.Nodes, 4)
}
