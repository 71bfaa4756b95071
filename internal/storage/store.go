package storage

import (
	"context"
	"errors"
	"time"

	"gffstream/internal/graph"
)

var (
	ErrRunNotFound     = errors.New("run not found")
	ErrFeatureNotFound = errors.New("feature not found")
)

// Run statuses.
const (
	RunRunning  = "running"
	RunComplete = "complete"
	RunFailed   = "failed"
)

// Run is one load of a GFF3 source into the store.
type Run struct {
	ID        string
	Source    string
	StartedAt time.Time
	Features  int
	Status    string
}

// Store combines run bookkeeping and feature graph persistence.
type Store interface {
	RunStore
	FeatureStore
	Close() error
}

// RunStore tracks loads.
type RunStore interface {
	// BeginRun registers a new run and returns its ID.
	BeginRun(ctx context.Context, source string) (string, error)

	// FinishRun marks the run complete, or failed when runErr is non-nil.
	FinishRun(ctx context.Context, runID string, runErr error) error

	// Runs lists all runs, newest first.
	Runs(ctx context.Context) ([]Run, error)
}

// FeatureStore defines operations for persisting the feature graph of a run.
type FeatureStore interface {
	// SaveGraph replaces the stored graph of the run.
	SaveGraph(ctx context.Context, runID string, g *graph.Graph) error

	LoadGraph(ctx context.Context, runID string) (*graph.Graph, error)

	// GetFeature retrieves a feature by its graph key.
	GetFeature(ctx context.Context, runID, id string) (*graph.Node, error)

	// FindFeaturesBySeqID retrieves all features on one sequence.
	FindFeaturesBySeqID(ctx context.Context, runID, seqID string) ([]*graph.Node, error)
}
