package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/example/go-qa-prep/internal/batch"
	"github.com/example/go-qa-prep/internal/config"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	var datasetPath string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Tokenize a dataset and report its length distribution without writing tensors",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			return runStats(cmd.Context(), cfg, datasetPath, jsonOut, os.Stdout)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset file to analyze (required)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON instead of text")

	return cmd
}

// statsReport summarizes one tokenization pass. Lengths are packed row
// lengths ([CLS] question [SEP] context [SEP]) before any truncation.
type statsReport struct {
	Documents  int     `json:"documents"`
	Tokens     int64   `json:"tokens"`
	Answered   int     `json:"answered"`
	SeqLength  int     `json:"seq_length"`
	LenMin     int     `json:"len_min"`
	LenMean    float64 `json:"len_mean"`
	LenMax     int     `json:"len_max"`
	LenP50     int     `json:"len_p50"`
	LenP90     int     `json:"len_p90"`
	LenP99     int     `json:"len_p99"`
	Truncated  int     `json:"truncated"`
	Unpackable int     `json:"unpackable"`
	DocsPerSec float64 `json:"docs_per_sec"`
}

func runStats(ctx context.Context, cfg config.Config, datasetPath string, jsonOut bool, stdout io.Writer) error {
	src, closeSrc, err := openDataset(cfg.Format, datasetPath)
	if err != nil {
		return err
	}
	defer closeSrc()

	runner, _, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	examples, report, err := runner.Collect(ctx, src)
	if err != nil {
		return err
	}

	stats := summarize(examples, cfg.SeqLength)
	stats.Tokens = report.Tokens
	stats.DocsPerSec = report.DocsPerSec()

	if jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	writeStatsTable(stdout, stats)
	return nil
}

func summarize(examples []batch.Example, seqLength int) statsReport {
	stats := statsReport{Documents: len(examples), SeqLength: seqLength}
	if len(examples) == 0 {
		return stats
	}

	lengths := make([]int, len(examples))
	var total int
	for i, ex := range examples {
		// Row layout adds [CLS] and two [SEP] markers around the pair.
		l := len(ex.Question) + len(ex.Context) + 3
		lengths[i] = l
		total += l
		if ex.HasAnswer {
			stats.Answered++
		}
		if l > seqLength {
			stats.Truncated++
		}
		if seqLength-len(ex.Question)-3 <= 0 {
			stats.Unpackable++
		}
	}
	sort.Ints(lengths)

	stats.LenMin = lengths[0]
	stats.LenMax = lengths[len(lengths)-1]
	stats.LenMean = float64(total) / float64(len(lengths))
	stats.LenP50 = quantile(lengths, 0.50)
	stats.LenP90 = quantile(lengths, 0.90)
	stats.LenP99 = quantile(lengths, 0.99)
	return stats
}

// quantile reads the p-th quantile from an ascending-sorted slice using
// nearest-rank interpolation.
func quantile(sorted []int, p float64) int {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1)*p + 0.5)
	return sorted[idx]
}

func writeStatsTable(w io.Writer, s statsReport) {
	fmt.Fprintf(w, "%-14s %d\n", "documents", s.Documents)
	fmt.Fprintf(w, "%-14s %d\n", "tokens", s.Tokens)
	fmt.Fprintf(w, "%-14s %d\n", "answered", s.Answered)
	fmt.Fprintf(w, "%-14s %d\n", "seq_length", s.SeqLength)
	fmt.Fprintf(w, "%-14s %d\n", "len_min", s.LenMin)
	fmt.Fprintf(w, "%-14s %.1f\n", "len_mean", s.LenMean)
	fmt.Fprintf(w, "%-14s %d\n", "len_max", s.LenMax)
	fmt.Fprintf(w, "%-14s %d\n", "len_p50", s.LenP50)
	fmt.Fprintf(w, "%-14s %d\n", "len_p90", s.LenP90)
	fmt.Fprintf(w, "%-14s %d\n", "len_p99", s.LenP99)
	fmt.Fprintf(w, "%-14s %d\n", "truncated", s.Truncated)
	fmt.Fprintf(w, "%-14s %d\n", "unpackable", s.Unpackable)
	fmt.Fprintf(w, "%-14s %.1f\n", "docs_per_sec", s.DocsPerSec)
}
