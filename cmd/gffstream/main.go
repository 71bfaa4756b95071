package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"gffstream/internal/config"
	"gffstream/internal/export"
	"gffstream/internal/gff3"
	"gffstream/internal/graph"
	"gffstream/internal/logging"
	"gffstream/internal/metrics"
	"gffstream/internal/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	rootCmd = &cobra.Command{
		Use:           "gffstream",
		Short:         "Streaming GFF3 parser and feature graph store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(cfgPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if cmd.Flags().Changed("metrics-file") {
				cfg.Metrics.File = metricsFile
			}
			meter = metrics.New()
			logger, err = logging.New(cfg.Log.Level)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cfgPath     string
	logLevel    string
	metricsFile string

	cfg    *config.Config
	logger = logging.Nop()
	meter  = metrics.New()
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run executes the command line and then writes the metrics textfile, if
// one is configured, whether or not the command failed.
func run(ctx context.Context) error {
	start := time.Now()
	cmd, err := rootCmd.ExecuteContextC(ctx)
	if cfg == nil || cfg.Metrics.File == "" {
		return err
	}
	meter.ObserveDuration(cmd.Name(), time.Since(start))
	if werr := meter.WriteFile(cfg.Metrics.File); werr != nil {
		logger.Warn("failed to write metrics", zap.String("path", cfg.Metrics.File), zap.Error(werr))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "gffstream.yaml", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	parseCmd.Flags().Int("buffer-size", 0, "Maximum top-level features held before early emission (0 = unlimited)")
	parseCmd.Flags().Bool("no-derives-from", false, "Do not link features through Derives_from")
	parseCmd.Flags().Bool("validate", false, "Validate every JSON item against the item schema")
	parseCmd.Flags().Int("shards", 0, "Resolve '###' scopes on N workers (holds the input in memory)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(seqCmd)
	rootCmd.AddCommand(overlapCmd)
}

// openInput returns the named file, or stdin for "-" or no argument.
func openInput(args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(os.Stdin), "-", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("failed to open input: %w", err)
	}
	return f, args[0], nil
}

// parserOptions merges command flags over the loaded config.
func parserOptions(cmd *cobra.Command) (pipeline.Options, int) {
	opts := cfg.ParserOptions()
	opts.Logger = logger
	opts.OnStats = meter.ObserveStats
	workers := cfg.Shards.Workers

	flags := cmd.Flags()
	if flags.Changed("buffer-size") {
		opts.BufferSize, _ = flags.GetInt("buffer-size")
	}
	if flags.Changed("no-derives-from") {
		opts.DisableDerivesFromReferences, _ = flags.GetBool("no-derives-from")
	}
	if flags.Changed("shards") {
		workers, _ = flags.GetInt("shards")
	}
	return opts, workers
}

func runParse(ctx context.Context, r io.Reader, opts pipeline.Options, workers int, h pipeline.Handlers) error {
	h = meter.Wrap(h)
	if workers > 1 {
		return pipeline.ParseShards(ctx, r, opts, workers, h)
	}
	return pipeline.ParseReader(ctx, r, opts, h)
}

func logFailure(source string, err error) {
	meter.ObserveError(err)
	logger.Error("parse failed",
		zap.String("source", source),
		zap.String("class", pipeline.ErrorClass(err)),
		zap.Error(err))
}

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse GFF3 and write one JSON object per item to stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, source, err := openInput(args)
		if err != nil {
			return err
		}
		defer in.Close()

		opts, workers := parserOptions(cmd)
		validate, _ := cmd.Flags().GetBool("validate")

		enc := export.NewEncoder(cmd.OutOrStdout())
		enc.SetValidate(validate)

		start := time.Now()
		if err := runParse(cmd.Context(), in, opts, workers, enc.Handlers()); err != nil {
			logFailure(source, err)
			_ = enc.Flush()
			return err
		}
		if err := enc.Flush(); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}

		logger.Info("parse complete",
			zap.String("source", source),
			zap.Int("items", enc.Count()),
			zap.Int("workers", workers),
			zap.Duration("elapsed", time.Since(start)))
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Parse GFF3 and print item and feature type counts",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, source, err := openInput(args)
		if err != nil {
			return err
		}
		defer in.Close()

		opts, workers := parserOptions(cmd)
		var kinds struct{ features, directives, comments, sequences int }
		g := graph.NewGraph()
		h := pipeline.Handlers{
			OnFeature: func(f *gff3.Feature) {
				kinds.features++
				g.AddFeature(f)
			},
			OnDirective: func(*gff3.Directive) { kinds.directives++ },
			OnComment:   func(*gff3.Comment) { kinds.comments++ },
			OnSequence:  func(*gff3.Sequence) { kinds.sequences++ },
		}
		if err := runParse(cmd.Context(), in, opts, workers, h); err != nil {
			logFailure(source, err)
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "top-level features\t%d\n", kinds.features)
		fmt.Fprintf(out, "directives\t%d\n", kinds.directives)
		fmt.Fprintf(out, "comments\t%d\n", kinds.comments)
		fmt.Fprintf(out, "sequences\t%d\n", kinds.sequences)
		fmt.Fprintf(out, "edges\t%d\n", len(g.Edges))

		counts := g.TypeCounts()
		types := make([]string, 0, len(counts))
		for t := range counts {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(out, "type %s\t%d\n", t, counts[t])
		}
		return nil
	},
}
