// Package bench provides benchmarking primitives for the qaprep bench command.
package bench

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Run result and stats
// ---------------------------------------------------------------------------

// RunResult holds the timing and volume metadata for a single pipeline pass.
type RunResult struct {
	Index      int
	Cold       bool // true for the first run (cold-start)
	Duration   time.Duration
	Documents  int
	Tokens     int64
	DocsPerSec float64
}

// Stats holds aggregate timing statistics across all runs.
type Stats struct {
	Min  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// ComputeStats calculates min, max and mean over a slice of durations.
// The slice must be non-empty.
func ComputeStats(durations []time.Duration) Stats {
	if len(durations) == 0 {
		return Stats{}
	}
	mn, mx := durations[0], durations[0]
	var sum time.Duration
	for _, d := range durations {
		if d < mn {
			mn = d
		}
		if d > mx {
			mx = d
		}
		sum += d
	}
	return Stats{
		Min:  mn,
		Max:  mx,
		Mean: sum / time.Duration(len(durations)),
	}
}

// ---------------------------------------------------------------------------
// Throughput helpers
// ---------------------------------------------------------------------------

// CalcDocsPerSec returns documents / duration in seconds.
// Returns 0 if dur is zero to avoid division by zero.
func CalcDocsPerSec(documents int, dur time.Duration) float64 {
	if dur <= 0 {
		return 0
	}
	return float64(documents) / dur.Seconds()
}

// ---------------------------------------------------------------------------
// Throughput floor gate
// ---------------------------------------------------------------------------

// CheckThroughputFloor returns an error if meanDocsPerSec < floor.
// A floor of 0 disables the gate.
func CheckThroughputFloor(meanDocsPerSec, floor float64) error {
	if floor <= 0 {
		return nil
	}
	if meanDocsPerSec < floor {
		return fmt.Errorf("mean throughput %.1f docs/s below floor %.1f", meanDocsPerSec, floor)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Output formatters
// ---------------------------------------------------------------------------

// FormatTable writes a human-readable ASCII table of bench results to w.
func FormatTable(runs []RunResult, stats Stats, w io.Writer) {
	sb := &strings.Builder{}

	fmt.Fprintf(sb, "%-5s  %-5s  %10s  %8s  %10s  %10s\n", "Run", "Cold", "MS", "Docs", "Tokens", "Docs/s")
	fmt.Fprintln(sb, strings.Repeat("-", 58))

	for _, r := range runs {
		cold := ""
		if r.Cold {
			cold = "yes"
		}
		fmt.Fprintf(sb, "%-5d  %-5s  %10.1f  %8d  %10d  %10.1f\n",
			r.Index+1,
			cold,
			float64(r.Duration.Milliseconds()),
			r.Documents,
			r.Tokens,
			r.DocsPerSec,
		)
	}

	fmt.Fprintln(sb, strings.Repeat("-", 58))
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %8s  %10s  %10s  (min)\n", "", "", float64(stats.Min.Milliseconds()), "", "", "")
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %8s  %10s  %10s  (mean)\n", "", "", float64(stats.Mean.Milliseconds()), "", "", "")
	fmt.Fprintf(sb, "%-5s  %-5s  %10.1f  %8s  %10s  %10s  (max)\n", "", "", float64(stats.Max.Milliseconds()), "", "", "")

	fmt.Fprint(w, sb.String())
}

// jsonReport is the top-level JSON structure emitted by FormatJSON.
type jsonReport struct {
	Runs  []jsonRun `json:"runs"`
	Stats jsonStats `json:"stats"`
}

type jsonRun struct {
	Index      int     `json:"index"`
	Cold       bool    `json:"cold"`
	DurationMS float64 `json:"duration_ms"`
	Documents  int     `json:"documents"`
	Tokens     int64   `json:"tokens"`
	DocsPerSec float64 `json:"docs_per_sec"`
}

type jsonStats struct {
	MinMS  float64 `json:"min_ms"`
	MeanMS float64 `json:"mean_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// FormatJSON writes a JSON report of bench results to w.
func FormatJSON(runs []RunResult, stats Stats, w io.Writer) {
	jr := jsonReport{
		Runs: make([]jsonRun, len(runs)),
		Stats: jsonStats{
			MinMS:  float64(stats.Min.Milliseconds()),
			MeanMS: float64(stats.Mean.Milliseconds()),
			MaxMS:  float64(stats.Max.Milliseconds()),
		},
	}
	for i, r := range runs {
		jr.Runs[i] = jsonRun{
			Index:      r.Index,
			Cold:       r.Cold,
			DurationMS: float64(r.Duration.Milliseconds()),
			Documents:  r.Documents,
			Tokens:     r.Tokens,
			DocsPerSec: r.DocsPerSec,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(jr)
}
