package testutil

import (
	"archive/zip"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"testing"
)

// AssertValidNPZ checks that path holds a batch archive with the expected
// entries: three rows x seqLength matrices (input_ids, attention_mask,
// token_type_ids) and two rows-long vectors (start_positions,
// end_positions), all little-endian int64 in NPY v1.0 headers.
func AssertValidNPZ(tb testing.TB, path string, rows, seqLength int) {
	tb.Helper()

	matrix := fmt.Sprintf("'shape': (%d, %d)", rows, seqLength)
	vector := fmt.Sprintf("'shape': (%d,)", rows)
	checks := []struct {
		entry string
		shape string
	}{
		{"input_ids.npy", matrix},
		{"attention_mask.npy", matrix},
		{"token_type_ids.npy", matrix},
		{"start_positions.npy", vector},
		{"end_positions.npy", vector},
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		tb.Fatalf("NPZ: open %s: %v", path, err)
	}
	defer zr.Close()

	for _, c := range checks {
		raw := readEntry(tb, &zr.Reader, c.entry)
		header, _ := splitHeader(tb, c.entry, raw)

		if !strings.Contains(header, "'descr': '<i8'") {
			tb.Fatalf("NPZ: %s is not int64: %q", c.entry, header)
		}
		if !strings.Contains(header, c.shape) {
			tb.Fatalf("NPZ: %s missing %q: %q", c.entry, c.shape, header)
		}
	}
}

// ReadNPZInt64 decodes one named tensor from a batch archive. The name is
// the plain entry name without the .npy suffix.
func ReadNPZInt64(tb testing.TB, path, name string) []int64 {
	tb.Helper()

	zr, err := zip.OpenReader(path)
	if err != nil {
		tb.Fatalf("NPZ: open %s: %v", path, err)
	}
	defer zr.Close()

	raw := readEntry(tb, &zr.Reader, name+".npy")
	_, payload := splitHeader(tb, name, raw)

	if len(payload)%8 != 0 {
		tb.Fatalf("NPZ: %s payload of %d bytes is not int64-aligned", name, len(payload))
	}

	out := make([]int64, len(payload)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(payload[i*8:]))
	}
	return out
}

func readEntry(tb testing.TB, zr *zip.Reader, name string) []byte {
	tb.Helper()

	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			tb.Fatalf("NPZ: open entry %s: %v", name, err)
		}
		defer rc.Close()

		raw, err := io.ReadAll(rc)
		if err != nil {
			tb.Fatalf("NPZ: read entry %s: %v", name, err)
		}
		return raw
	}

	tb.Fatalf("NPZ: entry %s not found", name)
	return nil
}

func splitHeader(tb testing.TB, name string, raw []byte) (string, []byte) {
	tb.Helper()

	if len(raw) < 10 {
		tb.Fatalf("NPZ: %s too short: %d bytes", name, len(raw))
	}
	if string(raw[:6]) != "\x93NUMPY" {
		tb.Fatalf("NPZ: %s missing NPY magic", name)
	}
	if raw[6] != 1 || raw[7] != 0 {
		tb.Fatalf("NPZ: %s expected NPY v1.0, got %d.%d", name, raw[6], raw[7])
	}

	headerLen := int(binary.LittleEndian.Uint16(raw[8:10]))
	total := 10 + headerLen
	if total > len(raw) {
		tb.Fatalf("NPZ: %s header of %d bytes overruns %d-byte entry", name, headerLen, len(raw))
	}
	return string(raw[10:total]), raw[total:]
}
