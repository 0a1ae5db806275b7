package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/example/go-qa-prep/internal/batch"
	"github.com/example/go-qa-prep/internal/bench"
	"github.com/example/go-qa-prep/internal/config"
	"github.com/example/go-qa-prep/internal/dataset"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		datasetPath     string
		runs            int
		warmup          int
		jsonOut         bool
		throughputFloor float64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Benchmark tokenization and packing throughput",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if datasetPath == "" {
				return fmt.Errorf("--dataset is required for bench")
			}
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1")
			}
			if warmup < 0 {
				return fmt.Errorf("--warmup must not be negative")
			}

			docs, err := loadBenchDocuments(cfg.Format, datasetPath)
			if err != nil {
				return err
			}

			results, err := runBenchPasses(cmd.Context(), cfg, docs, runs, warmup)
			if err != nil {
				return err
			}

			durations := make([]time.Duration, len(results))
			for i, r := range results {
				durations[i] = r.Duration
			}
			stats := bench.ComputeStats(durations)

			if jsonOut {
				bench.FormatJSON(results, stats, os.Stdout)
			} else {
				bench.FormatTable(results, stats, os.Stdout)
			}

			// Gate CI on the mean throughput across all measured runs.
			var total float64
			for _, r := range results {
				total += r.DocsPerSec
			}
			return bench.CheckThroughputFloor(total/float64(len(results)), throughputFloor)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset file to benchmark against (required)")
	cmd.Flags().IntVar(&runs, "runs", 5, "Number of measured passes")
	cmd.Flags().IntVar(&warmup, "warmup", 1, "Unmeasured passes before timing starts")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit results as JSON instead of a table")
	cmd.Flags().Float64Var(&throughputFloor, "throughput-floor", 0, "Exit non-zero if mean docs/s falls below this value (0 = disabled)")

	return cmd
}

// loadBenchDocuments reads the whole dataset up front so file I/O stays out
// of the measured passes.
func loadBenchDocuments(format, path string) ([]*dataset.Document, error) {
	normalized, err := config.NormalizeFormat(format)
	if err != nil {
		return nil, err
	}

	if normalized == config.FormatText {
		src, err := dataset.NewTextSource(path)
		if err != nil {
			return nil, mapDatasetError(err)
		}
		defer src.Close()
		docs, err := dataset.ReadAll(src)
		if err != nil {
			return nil, mapDatasetError(err)
		}
		return docs, nil
	}

	docs, err := dataset.LoadSQuAD(path)
	if err != nil {
		return nil, mapDatasetError(err)
	}
	return docs, nil
}

// runBenchPasses times full tokenize-and-pack passes over docs. The pipeline
// is built once so runs measure steady-state throughput, not setup cost.
func runBenchPasses(ctx context.Context, cfg config.Config, docs []*dataset.Document, runs, warmup int) ([]bench.RunResult, error) {
	runner, v, err := buildPipeline(cfg)
	if err != nil {
		return nil, err
	}

	packOpts := batch.Options{
		BatchSize: cfg.BatchSize,
		SeqLength: cfg.SeqLength,
		DropLast:  cfg.DropLast,
	}

	pass := func() (*bench.RunResult, error) {
		start := time.Now()
		examples, report, err := runner.Collect(ctx, dataset.NewSliceSource(docs...))
		if err != nil {
			return nil, err
		}
		batcher, err := batch.New(examples, packOpts, v)
		if err != nil {
			return nil, err
		}
		for it := batcher.Iter(); ; {
			if _, ok := it.Next(); !ok {
				break
			}
		}
		dur := time.Since(start)

		return &bench.RunResult{
			Duration:   dur,
			Documents:  report.Documents,
			Tokens:     report.Tokens,
			DocsPerSec: bench.CalcDocsPerSec(report.Documents, dur),
		}, nil
	}

	for i := 0; i < warmup; i++ {
		if _, err := pass(); err != nil {
			return nil, fmt.Errorf("warmup %d failed: %w", i+1, err)
		}
	}

	results := make([]bench.RunResult, 0, runs)
	for i := 0; i < runs; i++ {
		r, err := pass()
		if err != nil {
			return nil, fmt.Errorf("run %d failed: %w", i+1, err)
		}
		r.Index = i
		r.Cold = i == 0 && warmup == 0
		results = append(results, *r)
	}

	return results, nil
}
