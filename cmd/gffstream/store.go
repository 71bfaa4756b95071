package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gffstream/internal/analysis"
	"gffstream/internal/graph"
	"gffstream/internal/index"
	"gffstream/internal/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	for _, c := range []*cobra.Command{loadCmd, treeCmd, runsCmd, seqCmd, overlapCmd} {
		c.Flags().String("db", "", "Path to the SQLite database (default from config)")
	}
	loadCmd.Flags().String("snapshot", "", "Also write the graph as a JSON snapshot to this path")
	loadCmd.Flags().Int("shards", 0, "Resolve '###' scopes on N workers")
	treeCmd.Flags().String("run", "", "Run ID (default: newest run)")
	treeCmd.Flags().String("snapshot", "", "Read the graph from a JSON snapshot instead of the database")
	seqCmd.Flags().String("run", "", "Run ID (default: newest run)")
	overlapCmd.Flags().String("run", "", "Run ID (default: newest run)")
	overlapCmd.Flags().String("snapshot", "", "Read the graph from a JSON snapshot instead of the database")
}

// openStore opens the database named by --db or the config.
func openStore(cmd *cobra.Command) (*storage.SQLiteStore, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = cfg.Storage.DBPath
	}
	store, err := storage.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

// resolveRun returns --run, or the newest run in the store.
func resolveRun(ctx context.Context, cmd *cobra.Command, store storage.RunStore) (string, error) {
	if id, _ := cmd.Flags().GetString("run"); id != "" {
		return id, nil
	}
	runs, err := store.Runs(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs stored; use 'gffstream load' first")
	}
	return runs[0].ID, nil
}

var loadCmd = &cobra.Command{
	Use:   "load <file>",
	Short: "Parse a GFF3 file and persist its feature graph as a new run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := store.BeginRun(ctx, path)
		if err != nil {
			return err
		}
		log := logger.With(zap.String("run_id", runID), zap.String("source", path))

		opts, workers := parserOptions(cmd)
		idx := index.NewIndexer(opts, workers)

		g, err := idx.BuildGraph(ctx, path)
		if err == nil {
			err = store.SaveGraph(ctx, runID, g)
		}
		if err != nil {
			meter.ObserveError(err)
			log.Error("load failed", zap.Error(err))
			if ferr := store.FinishRun(context.WithoutCancel(ctx), runID, err); ferr != nil {
				log.Warn("failed to mark run", zap.Error(ferr))
			}
			return err
		}
		if err := store.FinishRun(ctx, runID, nil); err != nil {
			return err
		}

		if snap, _ := cmd.Flags().GetString("snapshot"); snap != "" {
			if err := idx.SaveGraph(g, snap); err != nil {
				return err
			}
		}

		log.Info("run stored", zap.Int("features", len(g.Nodes)), zap.Int("edges", len(g.Edges)))
		fmt.Fprintln(cmd.OutOrStdout(), runID)
		return nil
	},
}

// loadGraph reads the graph from --snapshot, or from the run chosen by
// --run in the database. A non-empty mustHave is checked against the
// stored features first.
func loadGraph(ctx context.Context, cmd *cobra.Command, mustHave string) (*graph.Graph, error) {
	if snap, _ := cmd.Flags().GetString("snapshot"); snap != "" {
		return index.NewIndexer(cfg.ParserOptions(), 1).LoadGraph(snap)
	}

	store, err := openStore(cmd)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	runID, err := resolveRun(ctx, cmd, store)
	if err != nil {
		return nil, err
	}
	if mustHave != "" {
		if _, err := store.GetFeature(ctx, runID, mustHave); err != nil {
			return nil, err
		}
	}
	return store.LoadGraph(ctx, runID)
}

var treeCmd = &cobra.Command{
	Use:   "tree <id>",
	Short: "Print a stored feature and everything below it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id := args[0]

		g, err := loadGraph(ctx, cmd, id)
		if err != nil {
			return err
		}

		root, ok := g.Node(id)
		if !ok {
			return fmt.Errorf("%w: %s", storage.ErrFeatureNotFound, id)
		}
		printTree(cmd.OutOrStdout(), g, root, 0, map[string]bool{})

		ds, err := g.Descendants(id)
		if err != nil {
			return err
		}
		logger.Debug("tree printed", zap.String("id", id), zap.Int("descendants", len(ds)))
		return nil
	},
}

func printTree(w io.Writer, g *graph.Graph, n *graph.Node, depth int, path map[string]bool) {
	fmt.Fprintf(w, "%s%s\t%s\t%s", strings.Repeat("  ", depth), n.Key, n.Type, n.SeqID)
	if n.Start != nil && n.End != nil {
		fmt.Fprintf(w, ":%d-%d", *n.Start, *n.End)
	}
	if path[n.Key] {
		fmt.Fprintln(w, "\t(cycle)")
		return
	}
	fmt.Fprintln(w)

	path[n.Key] = true
	defer delete(path, n.Key)
	for _, c := range g.Children(n.Key) {
		printTree(w, g, c, depth+1, path)
	}
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Runs(cmd.Context())
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%d\t%s\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, r.Features, r.Source)
		}
		return nil
	},
}

var seqCmd = &cobra.Command{
	Use:   "seq <seq_id>",
	Short: "List the stored features on one sequence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := resolveRun(ctx, cmd, store)
		if err != nil {
			return err
		}
		nodes, err := store.FindFeaturesBySeqID(ctx, runID, args[0])
		if err != nil {
			return err
		}
		for _, n := range nodes {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d lines\n", n.Key, n.Type, n.LineCount)
		}
		return nil
	},
}

var overlapCmd = &cobra.Command{
	Use:   "overlap <seq_id> <start> <end>",
	Short: "List stored features intersecting an interval, and the features containing them",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid start: %w", err)
		}
		end, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid end: %w", err)
		}

		g, err := loadGraph(cmd.Context(), cmd, "")
		if err != nil {
			return err
		}
		report, err := analysis.NewAnalyzer(g).Overlaps(args[0], start, end)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, n := range report.Direct {
			fmt.Fprintf(out, "overlap\t%s\t%s\n", n.Key, n.Type)
		}
		for _, n := range report.Containing {
			fmt.Fprintf(out, "contains\t%s\t%s\n", n.Key, n.Type)
		}
		return nil
	},
}
