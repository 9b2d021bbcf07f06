package mlp

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WriteWeights writes one or more weight vectors as consecutive records,
// each a little-endian uint32 count followed by that many float32 values.
func WriteWeights(w io.Writer, vectors ...[]float64) error {
	for _, vec := range vectors {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(vec))); err != nil {
			return fmt.Errorf("write weight count: %w", err)
		}
		buf := make([]float32, len(vec))
		for i, v := range vec {
			buf[i] = float32(v)
		}
		if err := binary.Write(w, binary.LittleEndian, buf); err != nil {
			return fmt.Errorf("write weights: %w", err)
		}
	}
	return nil
}

// ReadWeights reads n consecutive weight records written by WriteWeights.
func ReadWeights(r io.Reader, n int) ([][]float64, error) {
	out := make([][]float64, 0, n)
	for rec := 0; rec < n; rec++ {
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("read weight count: %w", err)
		}
		buf := make([]float32, count)
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, fmt.Errorf("read weights: %w", err)
		}
		vec := make([]float64, count)
		for i, v := range buf {
			vec[i] = float64(v)
		}
		out = append(out, vec)
	}
	return out, nil
}
