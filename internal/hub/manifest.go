// Package hub resolves pretrained vocabulary names to local files, fetching
// pinned vocabularies from the Hugging Face CDN with checksum verification
// and a lock manifest recording what was downloaded.
package hub

import "fmt"

// ErrUnknownModel wraps resolution failures for names with no pinned
// manifest.
var ErrUnknownModel = fmt.Errorf("unknown model")

// Manifest pins the downloadable files of one model repository.
type Manifest struct {
	Repo  string      `json:"repo"`
	Files []VocabFile `json:"files"`
}

// VocabFile pins one file by revision and content hash. An empty SHA256 is
// resolved from CDN metadata at download time and persisted into the lock
// manifest.
type VocabFile struct {
	Filename string `json:"filename"`
	Revision string `json:"revision"`
	SHA256   string `json:"sha256"`
}

// PinnedManifest returns the manifest for a supported model name.
func PinnedManifest(repo string) (Manifest, error) {
	switch repo {
	case "bert-base-uncased":
		return Manifest{
			Repo: repo,
			Files: []VocabFile{
				{
					Filename: "vocab.txt",
					Revision: "86b5e0934494bd15c9632b12f734a8a67f723594",
					SHA256:   "07eced375cec144d27c900241f3e339478dec958f92fddbc551f295c992038a3",
				},
			},
		}, nil
	case "bert-large-uncased":
		return Manifest{
			Repo: repo,
			Files: []VocabFile{
				{
					Filename: "vocab.txt",
					Revision: "6da4b6a26a1877e173fca3225479512db81a5e5b",
					SHA256:   "07eced375cec144d27c900241f3e339478dec958f92fddbc551f295c992038a3",
				},
			},
		}, nil
	case "distilbert-base-uncased":
		return Manifest{
			Repo: repo,
			Files: []VocabFile{
				{
					Filename: "vocab.txt",
					Revision: "12040accade4e8a0f71eabdb258fecc2e7e948be",
					// Resolved from CDN metadata on first download and
					// then persisted into the local lock manifest.
					SHA256: "",
				},
			},
		}, nil
	default:
		return Manifest{}, fmt.Errorf("%w: no pinned manifest for %q", ErrUnknownModel, repo)
	}
}
