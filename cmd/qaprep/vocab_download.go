package main

import (
	"fmt"
	"os"

	"github.com/example/go-qa-prep/internal/hub"
	"github.com/spf13/cobra"
)

func newVocabDownloadCmd() *cobra.Command {
	var model string
	var dir string
	var hfToken string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download a pinned vocabulary from Hugging Face",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if model == "" {
				model = cfg.Vocab
			}
			if hfToken == "" {
				hfToken = os.Getenv("HF_TOKEN")
			}

			target, err := vocabDir(model, dir)
			if err != nil {
				return err
			}

			err = hub.Download(hub.DownloadOptions{
				Repo:    model,
				Dir:     target,
				HFToken: hfToken,
				Stdout:  os.Stdout,
			})
			if err != nil {
				return fmt.Errorf("vocabulary download failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model identifier (defaults to the configured vocab)")
	cmd.Flags().StringVar(&dir, "dir", "", "Target directory (defaults to the user cache)")
	cmd.Flags().StringVar(&hfToken, "hf-token", "", "Hugging Face token (falls back to HF_TOKEN env var)")

	return cmd
}
