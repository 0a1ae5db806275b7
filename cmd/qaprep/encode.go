package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/example/go-qa-prep/internal/batch"
	"github.com/example/go-qa-prep/internal/config"
	"github.com/example/go-qa-prep/internal/dataset"
	"github.com/example/go-qa-prep/internal/hub"
	"github.com/example/go-qa-prep/internal/npy"
	"github.com/example/go-qa-prep/internal/pipeline"
	"github.com/example/go-qa-prep/internal/tokenizer"
	"github.com/example/go-qa-prep/internal/vocab"
	"github.com/spf13/cobra"
)

func newEncodeCmd() *cobra.Command {
	var datasetPath string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Tokenize a dataset and write batch tensors as .npz archives",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			return runEncode(cmd.Context(), cfg, datasetPath, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset file to encode (required)")

	return cmd
}

func runEncode(ctx context.Context, cfg config.Config, datasetPath string, stdout io.Writer) error {
	src, closeSrc, err := openDataset(cfg.Format, datasetPath)
	if err != nil {
		return err
	}
	defer closeSrc()

	runner, _, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	var batches, rows int
	report, err := runner.Stream(ctx, src, batch.Options{
		BatchSize: cfg.BatchSize,
		SeqLength: cfg.SeqLength,
		DropLast:  cfg.DropLast,
		Strict:    cfg.Strict,
	}, func(b *batch.Batch) error {
		path := filepath.Join(cfg.Out, fmt.Sprintf("batch-%05d.npz", batches))
		if err := npy.WriteBatch(path, b); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		batches++
		rows += b.Rows
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("encode complete",
		"documents", report.Documents,
		"batches", batches,
		"rows", rows,
		"skipped", len(report.Skipped),
		"out", cfg.Out,
	)
	_, _ = fmt.Fprintf(stdout, "wrote %d batches (%d rows) to %s\n", batches, rows, cfg.Out)
	for _, terr := range report.Skipped {
		_, _ = fmt.Fprintf(stdout, "skipped %s: question leaves no room at seq_length %d\n",
			terr.DocID, terr.SeqLength)
	}

	return nil
}

// buildPipeline resolves the configured vocabulary and assembles the
// tokenization pipeline. The vocabulary is returned alongside the runner
// for callers that pack batches themselves.
func buildPipeline(cfg config.Config) (*pipeline.Runner, *vocab.Vocabulary, error) {
	vocabPath, err := hub.Resolve(cfg.Vocab, "")
	if err != nil {
		return nil, nil, fmt.Errorf("resolve vocabulary %q: %w", cfg.Vocab, err)
	}

	opts := vocab.DefaultOptions()
	opts.Lowercase = cfg.Lowercase
	opts.StripAccents = cfg.StripAccents

	v, err := vocab.Load(vocabPath, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("load vocabulary %s: %w", vocabPath, err)
	}

	tok, err := tokenizer.New(v)
	if err != nil {
		return nil, nil, err
	}

	runner, err := pipeline.New(tok, pipeline.Options{
		Workers:    cfg.Workers,
		QueueDepth: cfg.QueueDepth,
		CacheSize:  cfg.CacheSize,
	})
	if err != nil {
		return nil, nil, err
	}
	return runner, v, nil
}

// openDataset opens the dataset at path in the given format. The returned
// source tags read failures as dataset errors so they map to exit code 2.
func openDataset(format, path string) (dataset.Source, func() error, error) {
	if path == "" {
		return nil, nil, fmt.Errorf("--dataset is required")
	}

	normalized, err := config.NormalizeFormat(format)
	if err != nil {
		return nil, nil, err
	}

	noClose := func() error { return nil }

	switch normalized {
	case config.FormatText:
		src, err := dataset.NewTextSource(path)
		if err != nil {
			return nil, nil, mapDatasetError(err)
		}
		return datasetSource{src}, src.Close, nil
	default:
		src, err := dataset.NewSQuADSource(path)
		if err != nil {
			return nil, nil, mapDatasetError(err)
		}
		return datasetSource{src}, noClose, nil
	}
}

// datasetSource marks mid-stream read failures as dataset errors. io.EOF
// passes through untouched; the pipeline compares against it directly.
type datasetSource struct {
	dataset.Source
}

func (s datasetSource) Next() (*dataset.Document, error) {
	doc, err := s.Source.Next()
	if err != nil && err != io.EOF {
		return nil, mapDatasetError(err)
	}
	return doc, err
}
