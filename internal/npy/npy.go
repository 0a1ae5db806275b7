// Package npy encodes int64 tensors in NumPy's NPY v1.0 format and bundles
// them into .npz archives, the layout numpy.savez produces.
package npy

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const magic = "\x93NUMPY"

// headerAlign pads the magic, version, length field and header dict to a
// multiple of this, matching numpy's ARRAY_ALIGN.
const headerAlign = 64

// EncodeInt64 returns the NPY v1.0 encoding of data viewed with the given
// shape. The element count of shape must equal len(data).
func EncodeInt64(data []int64, shape ...int) ([]byte, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("shape is required")
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("negative dimension %d in shape %v", d, shape)
		}
		n *= d
	}
	if n != len(data) {
		return nil, fmt.Errorf("shape %v holds %d elements, data has %d", shape, n, len(data))
	}

	dict := fmt.Sprintf("{'descr': '<i8', 'fortran_order': False, 'shape': %s, }", shapeTuple(shape))
	headerLen := len(dict) + 1
	if rem := (len(magic) + 4 + headerLen) % headerAlign; rem != 0 {
		headerLen += headerAlign - rem
	}
	if headerLen > math.MaxUint16 {
		return nil, fmt.Errorf("header of %d bytes exceeds the v1.0 limit", headerLen)
	}

	buf := &bytes.Buffer{}
	buf.Grow(len(magic) + 4 + headerLen + 8*len(data))
	buf.WriteString(magic)
	buf.WriteByte(1)
	buf.WriteByte(0)
	_ = binary.Write(buf, binary.LittleEndian, uint16(headerLen))
	buf.WriteString(dict)
	for n := headerLen - len(dict) - 1; n > 0; n-- {
		buf.WriteByte(' ')
	}
	buf.WriteByte('\n')

	payload := make([]byte, 8*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint64(payload[i*8:], uint64(v))
	}
	buf.Write(payload)

	return buf.Bytes(), nil
}

func shapeTuple(shape []int) string {
	if len(shape) == 1 {
		return fmt.Sprintf("(%d,)", shape[0])
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
