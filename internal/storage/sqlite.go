package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"gffstream/internal/graph"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT,
			started_at TEXT,
			features INTEGER DEFAULT 0,
			status TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS features (
			run_id TEXT,
			id TEXT,
			anonymous INTEGER,
			ord INTEGER,
			seq_id TEXT,
			source TEXT,
			type TEXT,
			start INTEGER,
			"end" INTEGER,
			score REAL,
			strand TEXT,
			phase TEXT,
			attributes JSON,
			line_count INTEGER,
			PRIMARY KEY (run_id, id)
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			run_id TEXT,
			from_id TEXT,
			to_id TEXT,
			kind TEXT,
			PRIMARY KEY (run_id, from_id, to_id, kind)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_features_seq ON features(run_id, seq_id);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// --- RunStore Implementation ---

func (s *SQLiteStore) BeginRun(ctx context.Context, source string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, started_at, status) VALUES (?, ?, ?, ?)`,
		id, source, time.Now().UTC().Format(timeLayout), RunRunning)
	if err != nil {
		return "", fmt.Errorf("failed to begin run: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, runErr error) error {
	status := RunComplete
	if runErr != nil {
		status = RunFailed
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET status = ?,
			features = (SELECT COUNT(*) FROM features WHERE run_id = ?)
		WHERE id = ?
	`, status, runID, runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func (s *SQLiteStore) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, source, started_at, features, status FROM runs ORDER BY started_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Source, &started, &r.Features, &r.Status); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(timeLayout, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) runExists(ctx context.Context, runID string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE id = ?", runID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// --- FeatureStore Implementation ---

const featureColumns = `id, anonymous, ord, seq_id, source, type, start, "end", score, strand, phase, attributes, line_count`

func (s *SQLiteStore) SaveGraph(ctx context.Context, runID string, g *graph.Graph) error {
	if err := s.runExists(ctx, runID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Replace the run's snapshot.
	for _, q := range []string{"DELETE FROM features WHERE run_id = ?", "DELETE FROM edges WHERE run_id = ?"} {
		if _, err := tx.ExecContext(ctx, q, runID); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO features (run_id, `+featureColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, n := range g.SortedNodes() {
		attrs, err := json.Marshal(n.Attributes)
		if err != nil {
			return fmt.Errorf("failed to encode attributes of %q: %w", n.Key, err)
		}
		if _, err := stmt.ExecContext(ctx, runID, n.Key, n.Anonymous(), n.Order, n.SeqID, n.Source, n.Type,
			n.Start, n.End, n.Score, n.Strand, n.Phase, attrs, n.LineCount); err != nil {
			return err
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (run_id, from_id, to_id, kind) VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, from_id, to_id, kind) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()

	for _, edge := range g.Edges {
		if _, err := edgeStmt.ExecContext(ctx, runID, edge.From, edge.To, string(edge.Kind)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadGraph(ctx context.Context, runID string) (*graph.Graph, error) {
	if err := s.runExists(ctx, runID); err != nil {
		return nil, err
	}
	g := graph.NewGraph()

	// 1. Load Nodes
	nodes, err := s.queryFeatures(ctx, "SELECT "+featureColumns+" FROM features WHERE run_id = ? ORDER BY ord", runID)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		g.Nodes[n.Key] = n
	}

	// 2. Load Edges
	edgeRows, err := s.db.QueryContext(ctx, "SELECT from_id, to_id, kind FROM edges WHERE run_id = ? ORDER BY rowid", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var edge graph.Edge
		var kind string
		if err := edgeRows.Scan(&edge.From, &edge.To, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edge.Kind = graph.EdgeKind(kind)
		g.Edges = append(g.Edges, edge)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, err
	}

	g.RebuildIndices()
	return g, nil
}

func (s *SQLiteStore) GetFeature(ctx context.Context, runID, id string) (*graph.Node, error) {
	nodes, err := s.queryFeatures(ctx, "SELECT "+featureColumns+" FROM features WHERE run_id = ? AND id = ?", runID, id)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFeatureNotFound, id)
	}
	return nodes[0], nil
}

func (s *SQLiteStore) FindFeaturesBySeqID(ctx context.Context, runID, seqID string) ([]*graph.Node, error) {
	return s.queryFeatures(ctx, "SELECT "+featureColumns+" FROM features WHERE run_id = ? AND seq_id = ? ORDER BY ord", runID, seqID)
}

func (s *SQLiteStore) queryFeatures(ctx context.Context, query string, args ...any) ([]*graph.Node, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	var nodes []*graph.Node
	for rows.Next() {
		n, err := scanFeature(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feature: %w", err)
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

func scanFeature(rows *sql.Rows) (*graph.Node, error) {
	var (
		n          graph.Node
		anonymous  bool
		start, end sql.NullInt64
		score      sql.NullFloat64
		attrs      []byte
	)
	if err := rows.Scan(&n.Key, &anonymous, &n.Order, &n.SeqID, &n.Source, &n.Type,
		&start, &end, &score, &n.Strand, &n.Phase, &attrs, &n.LineCount); err != nil {
		return nil, err
	}
	if !anonymous {
		n.ID = n.Key
	}
	if start.Valid {
		n.Start = &start.Int64
	}
	if end.Valid {
		n.End = &end.Int64
	}
	if score.Valid {
		n.Score = &score.Float64
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &n.Attributes); err != nil {
			return nil, fmt.Errorf("bad attributes for %q: %w", n.Key, err)
		}
	}
	return &n, nil
}
