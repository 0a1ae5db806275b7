package hub

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Verify re-hashes every file recorded in dir's lock manifest and reports
// per-file status to stdout. The first corrupted file is returned as a
// *ChecksumError; a recorded file that has gone missing is an error too.
func Verify(dir string, stdout io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}

	lockPath := filepath.Join(dir, LockFilename)
	if _, err := os.Stat(lockPath); err != nil {
		return fmt.Errorf("no lock manifest at %s: %w", lockPath, err)
	}
	lock := readLockManifest(lockPath)
	if len(lock.Files) == 0 {
		return fmt.Errorf("lock manifest %s records no files", lockPath)
	}

	names := make([]string, 0, len(lock.Files))
	for name := range lock.Files {
		names = append(names, name)
	}
	sort.Strings(names)

	var firstErr error
	for _, name := range names {
		rec := lock.Files[name]
		path := filepath.Join(dir, filepath.FromSlash(name))

		actual, err := fileSHA256(path)
		if err != nil {
			fmt.Fprintf(stdout, "FAIL %s: %v\n", name, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("verify %s: %w", name, err)
			}
			continue
		}
		if actual != rec.SHA256 {
			fmt.Fprintf(stdout, "FAIL %s: checksum mismatch\n", name)
			if firstErr == nil {
				firstErr = &ChecksumError{Filename: name, Expected: rec.SHA256, Actual: actual}
			}
			continue
		}
		fmt.Fprintf(stdout, "ok   %s (sha256=%s)\n", name, actual)
	}
	return firstErr
}
