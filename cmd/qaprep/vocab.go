package main

import (
	"path/filepath"

	"github.com/example/go-qa-prep/internal/hub"
	"github.com/spf13/cobra"
)

func newVocabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Vocabulary acquisition and verification commands",
	}

	cmd.AddCommand(newVocabDownloadCmd())
	cmd.AddCommand(newVocabVerifyCmd())
	return cmd
}

// vocabDir returns the cache directory holding model's files, or dir
// unchanged when the flag was set.
func vocabDir(model, dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	cacheDir, err := hub.DefaultCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, filepath.FromSlash(model)), nil
}
