package index

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/viant/knn/codec"
)

// Dim returns the common vector dimension of points, or an error when the
// dimensions disagree.
func Dim[L comparable](points []Point[L]) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	dim := len(points[0].Vector)
	for j := range points {
		if len(points[j].Vector) != dim {
			return 0, fmt.Errorf("index: inconsistent vector dims %d vs %d at point %d", len(points[j].Vector), dim, j)
		}
	}
	return dim, nil
}

// EncodePoints stores: dim(uint32), n(uint32), then for each point:
// labelLen(uint32), label bytes (JSON), vec(float64[dim]).
func EncodePoints[L comparable](points []Point[L]) ([]byte, error) {
	dim, err := Dim(points)
	if err != nil {
		return nil, err
	}
	labels := make([][]byte, len(points))
	encoded := make(map[L][]byte)
	size := 8
	for i, p := range points {
		if labels[i], err = encodeLabel(encoded, p.Label); err != nil {
			return nil, err
		}
		size += 4 + len(labels[i]) + 8*dim
	}
	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, uint32(dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(points)))
	for i, p := range points {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(labels[i])))
		out = append(out, labels[i]...)
		for _, v := range p.Vector {
			out = binary.LittleEndian.AppendUint64(out, math.Float64bits(v))
		}
	}
	return out, nil
}

// encodeLabel marshals label once per distinct value and rejects labels
// that do not decode back to themselves.
func encodeLabel[L comparable](encoded map[L][]byte, label L) ([]byte, error) {
	if b, ok := encoded[label]; ok {
		return b, nil
	}
	b, err := codec.Default.Marshal(label)
	if err != nil {
		return nil, fmt.Errorf("index: encode label %v: %w", label, err)
	}
	var back L
	if err := codec.Default.Unmarshal(b, &back); err != nil || back != label {
		return nil, fmt.Errorf("index: label %#v does not survive a JSON round trip", label)
	}
	encoded[label] = b
	return b, nil
}

// DecodePoints restores points produced by EncodePoints in their original order.
func DecodePoints[L comparable](data []byte) ([]Point[L], error) {
	if len(data) < 8 {
		return nil, errors.New("index: invalid data")
	}
	off := 0
	getU32 := func() uint32 { v := binary.LittleEndian.Uint32(data[off : off+4]); off += 4; return v }
	dim := int(getU32())
	n := int(getU32())
	if n > (len(data)-8)/(4+8*dim) {
		return nil, errors.New("index: truncated")
	}
	points := make([]Point[L], n)
	for idx := 0; idx < n; idx++ {
		if off+4 > len(data) {
			return nil, errors.New("index: truncated")
		}
		labelLen := int(getU32())
		if off+labelLen > len(data) {
			return nil, errors.New("index: truncated label")
		}
		if err := codec.Default.Unmarshal(data[off:off+labelLen], &points[idx].Label); err != nil {
			return nil, fmt.Errorf("index: decode label %d: %w", idx, err)
		}
		off += labelLen
		if off+8*dim > len(data) {
			return nil, errors.New("index: truncated vec")
		}
		vec := make([]float64, dim)
		for j := range vec {
			vec[j] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
			off += 8
		}
		points[idx].Vector = vec
	}
	if off != len(data) {
		return nil, fmt.Errorf("index: %d trailing bytes", len(data)-off)
	}
	return points, nil
}
