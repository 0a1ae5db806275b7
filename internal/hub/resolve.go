package hub

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultCacheDir returns the per-user vocabulary cache root.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("locate user cache dir: %w", err)
	}
	return filepath.Join(base, "qaprep"), nil
}

// Resolve turns a vocabulary reference into a local file path. An existing
// file path is returned as-is. Otherwise the reference must be a pinned
// model name: its vocabulary is served from cacheDir, downloading on first
// use. An empty cacheDir selects DefaultCacheDir.
func Resolve(nameOrPath, cacheDir string) (string, error) {
	if fi, err := os.Stat(nameOrPath); err == nil && !fi.IsDir() {
		return nameOrPath, nil
	}

	manifest, err := PinnedManifest(nameOrPath)
	if err != nil {
		return "", err
	}

	if cacheDir == "" {
		cacheDir, err = DefaultCacheDir()
		if err != nil {
			return "", err
		}
	}
	dir := filepath.Join(cacheDir, filepath.FromSlash(manifest.Repo))

	if missing := missingFiles(dir, manifest); len(missing) > 0 {
		slog.Info("downloading vocabulary", "model", manifest.Repo, "dir", dir)
		if err := Download(DownloadOptions{Repo: nameOrPath, Dir: dir, HFToken: os.Getenv("HF_TOKEN"), Stdout: io.Discard}); err != nil {
			return "", fmt.Errorf("download %s: %w", nameOrPath, err)
		}
	}

	return filepath.Join(dir, manifest.Files[0].Filename), nil
}

func missingFiles(dir string, manifest Manifest) []string {
	var missing []string
	for _, f := range manifest.Files {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(f.Filename))); err != nil {
			missing = append(missing, f.Filename)
		}
	}
	return missing
}
