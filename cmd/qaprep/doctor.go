package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/example/go-qa-prep/internal/config"
	"github.com/example/go-qa-prep/internal/doctor"
	"github.com/example/go-qa-prep/internal/hub"
	"github.com/example/go-qa-prep/internal/vocab"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	var datasetPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run local environment and artifact checks",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			dcfg := doctor.Config{
				Vocabulary:  func() (string, error) { return probeVocabulary(cfg) },
				DatasetPath: datasetPath,
				OutDir:      cfg.Out,
			}

			// Verify the cache only when a lock manifest exists; a model that
			// was never downloaded is not a failure.
			if dir, err := cachedVocabDir(cfg.Vocab); err == nil {
				dcfg.CacheVerify = func() error { return hub.Verify(dir, io.Discard) }
			}

			result := doctor.Run(dcfg, os.Stdout)

			if result.Failed() {
				for _, f := range result.Failures() {
					_, _ = fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(os.Stdout, "doctor checks passed")

			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Dataset file to check (optional)")

	return cmd
}

// probeVocabulary resolves and loads the configured vocabulary, returning a
// short summary for the doctor report.
func probeVocabulary(cfg config.Config) (string, error) {
	vocabPath, err := hub.Resolve(cfg.Vocab, "")
	if err != nil {
		return "", err
	}

	opts := vocab.DefaultOptions()
	opts.Lowercase = cfg.Lowercase
	opts.StripAccents = cfg.StripAccents

	v, err := vocab.Load(vocabPath, opts)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%d tokens (%s)", v.Len(), vocabPath), nil
}

// cachedVocabDir returns the cache directory for model when it holds a lock
// manifest, and an error otherwise.
func cachedVocabDir(model string) (string, error) {
	if _, err := hub.PinnedManifest(model); err != nil {
		return "", err
	}

	dir, err := vocabDir(model, "")
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(filepath.Join(dir, hub.LockFilename)); err != nil {
		return "", err
	}
	return dir, nil
}
