package main

import (
	"fmt"
	"os"

	"github.com/example/go-qa-prep/internal/hub"
	"github.com/spf13/cobra"
)

func newVocabVerifyCmd() *cobra.Command {
	var model string
	var dir string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Re-hash cached vocabulary files against the lock manifest",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if model == "" {
				model = cfg.Vocab
			}

			target, err := vocabDir(model, dir)
			if err != nil {
				return err
			}

			if err := hub.Verify(target, os.Stdout); err != nil {
				return fmt.Errorf("vocabulary verify failed: %w", err)
			}

			_, _ = fmt.Fprintln(os.Stdout, "vocabulary cache verified")
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model identifier (defaults to the configured vocab)")
	cmd.Flags().StringVar(&dir, "dir", "", "Cache directory to verify (defaults to the user cache)")

	return cmd
}
