// Package doctor provides environment preflight checks for qaprep.
package doctor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// ProbeFunc returns a short status string or an error if the probed
// component is unavailable.
type ProbeFunc func() (string, error)

// Config holds injectable dependencies for each doctor check. Nil or empty
// fields skip their check.
type Config struct {
	// Vocabulary resolves and loads the configured vocabulary, returning a
	// summary such as "30522 tokens".
	Vocabulary ProbeFunc
	// DatasetPath is checked for existence and readability.
	DatasetPath string
	// OutDir is probed for writability.
	OutDir string
	// CacheVerify re-hashes the vocabulary cache against its lock manifest.
	CacheVerify func() error
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- vocabulary -------------------------------------------------------
	if cfg.Vocabulary == nil {
		fmt.Fprintf(w, "%s vocabulary: skipped\n", PassMark)
	} else {
		info, err := cfg.Vocabulary()
		if err != nil {
			res.fail(fmt.Sprintf("vocabulary: %v", err))
			fmt.Fprintf(w, "%s vocabulary: %v\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s vocabulary: %s\n", PassMark, info)
		}
	}

	// ---- dataset ----------------------------------------------------------
	if cfg.DatasetPath == "" {
		fmt.Fprintf(w, "%s dataset: skipped (no --dataset)\n", PassMark)
	} else if err := checkReadable(cfg.DatasetPath); err != nil {
		res.fail(fmt.Sprintf("dataset %q: %v", cfg.DatasetPath, err))
		fmt.Fprintf(w, "%s dataset %s: %v\n", FailMark, cfg.DatasetPath, err)
	} else {
		fmt.Fprintf(w, "%s dataset: %s\n", PassMark, cfg.DatasetPath)
	}

	// ---- output directory -------------------------------------------------
	if cfg.OutDir == "" {
		fmt.Fprintf(w, "%s output dir: skipped\n", PassMark)
	} else if err := checkWritable(cfg.OutDir); err != nil {
		res.fail(fmt.Sprintf("output dir %q: %v", cfg.OutDir, err))
		fmt.Fprintf(w, "%s output dir %s: %v\n", FailMark, cfg.OutDir, err)
	} else {
		fmt.Fprintf(w, "%s output dir: %s\n", PassMark, cfg.OutDir)
	}

	// ---- vocabulary cache -------------------------------------------------
	if cfg.CacheVerify == nil {
		fmt.Fprintf(w, "%s vocabulary cache: skipped (nothing downloaded)\n", PassMark)
	} else if err := cfg.CacheVerify(); err != nil {
		res.fail(fmt.Sprintf("vocabulary cache: %v", err))
		fmt.Fprintf(w, "%s vocabulary cache: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s vocabulary cache: ok\n", PassMark)
	}

	return res
}

// checkReadable stats the path and opens it for reading.
func checkReadable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("is a directory")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

// checkWritable creates and removes a probe file inside dir, creating the
// directory first if needed.
func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".qaprep-doctor")
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		return err
	}
	return os.Remove(probe)
}
