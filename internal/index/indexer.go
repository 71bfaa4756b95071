// Package index builds feature graphs from GFF3 files and snapshots them
// as JSON.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"gffstream/internal/graph"
	"gffstream/internal/pipeline"
)

// Indexer orchestrates parsing and graph management.
type Indexer struct {
	opts    pipeline.Options
	workers int
}

// NewIndexer creates a new indexer. With workers > 1 scopes are resolved
// in parallel.
func NewIndexer(opts pipeline.Options, workers int) *Indexer {
	opts.ParseFeatures = true
	return &Indexer{
		opts:    opts,
		workers: workers,
	}
}

// BuildGraph parses the GFF3 file at path and constructs its feature graph.
func (i *Indexer) BuildGraph(ctx context.Context, path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	g := graph.NewGraph()
	h := pipeline.Handlers{OnFeature: g.AddFeature}

	if i.workers > 1 {
		err = pipeline.ParseShards(ctx, f, i.opts, i.workers, h)
	} else {
		err = pipeline.ParseReader(ctx, f, i.opts, h)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}

// SaveGraph persists the graph to a JSON file.
func (i *Indexer) SaveGraph(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(g); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return f.Close()
}

// LoadGraph loads a graph from a JSON file.
func (i *Indexer) LoadGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	g := graph.NewGraph()
	decoder := json.NewDecoder(f)
	if err := decoder.Decode(g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	// Lookup tables are not serialized.
	g.RebuildIndices()

	return g, nil
}
