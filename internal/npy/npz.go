package npy

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"

	"github.com/example/go-qa-prep/internal/batch"
)

// Archive writes named int64 tensors into an uncompressed zip. Entries are
// stored as <name>.npy so numpy.load finds them under their plain names.
type Archive struct {
	f  *os.File
	zw *zip.Writer
}

// Create opens a new .npz archive at path, truncating any existing file.
func Create(path string) (*Archive, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	return &Archive{f: f, zw: zip.NewWriter(f)}, nil
}

// Add appends one tensor entry to the archive.
func (a *Archive) Add(name string, data []int64, shape ...int) error {
	b, err := EncodeInt64(data, shape...)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	w, err := a.zw.CreateHeader(&zip.FileHeader{Name: name + ".npy", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("add %s to archive: %w", name, err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Close finalizes the zip directory and closes the file.
func (a *Archive) Close() error {
	zerr := a.zw.Close()
	ferr := a.f.Close()
	if zerr != nil {
		return fmt.Errorf("finalize archive: %w", zerr)
	}
	if ferr != nil {
		return fmt.Errorf("close archive: %w", ferr)
	}
	return nil
}

// WriteBatch writes b's tensors as one .npz file at path: input_ids,
// attention_mask and token_type_ids shaped rows x seq_length,
// start_positions and end_positions shaped rows.
func WriteBatch(path string, b *batch.Batch) error {
	if b == nil {
		return errors.New("nil batch")
	}

	a, err := Create(path)
	if err != nil {
		return err
	}

	entries := []struct {
		name  string
		data  []int64
		shape []int
	}{
		{"input_ids", b.InputIDs, []int{b.Rows, b.SeqLength}},
		{"attention_mask", b.AttentionMask, []int{b.Rows, b.SeqLength}},
		{"token_type_ids", b.TypeIDs, []int{b.Rows, b.SeqLength}},
		{"start_positions", b.StartPositions, []int{b.Rows}},
		{"end_positions", b.EndPositions, []int{b.Rows}},
	}
	for _, e := range entries {
		if err := a.Add(e.name, e.data, e.shape...); err != nil {
			_ = a.Close()
			return err
		}
	}
	return a.Close()
}
