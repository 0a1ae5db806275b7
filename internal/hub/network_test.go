package hub

import (
	"bytes"
	"os"
	"testing"

	"github.com/example/go-qa-prep/internal/testutil"
)

// TestDownloadRealVocabulary fetches bert-base-uncased from the real CDN and
// checks the pinned sha256 holds. Opt-in via QAPREP_NETWORK_TESTS=1.
func TestDownloadRealVocabulary(t *testing.T) {
	testutil.RequireNetwork(t)

	dir := t.TempDir()
	var out bytes.Buffer
	err := Download(DownloadOptions{
		Repo:    "bert-base-uncased",
		Dir:     dir,
		HFToken: os.Getenv("HF_TOKEN"),
		Stdout:  &out,
	})
	if err != nil {
		t.Fatalf("download: %v\n%s", err, out.String())
	}

	if err := Verify(dir, &out); err != nil {
		t.Fatalf("verify after download: %v\n%s", err, out.String())
	}
}
