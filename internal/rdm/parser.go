package rdm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// ErrMalformed marks a mesh file whose offsets or sizes do not fit.
var ErrMalformed = errors.New("rdm: malformed mesh")

const (
	headerSize    = 36
	offsetTable   = 32
	rangeRecSize  = 28
	maxCountBytes = 1 << 31
)

// Load reads and parses a mesh file.
func Load(path string) (*Mesh, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rdm: read %s: %w", path, err)
	}
	m, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a mesh from memory. The returned mesh aliases data.
func Parse(data []byte) (*Mesh, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformed, len(data), headerSize)
	}
	r := &reader{data: data}

	offs, ok := r.u32(offsetTable)
	if !ok {
		return nil, fmt.Errorf("%w: offset table", ErrMalformed)
	}
	vOff, ok1 := r.u32(offs + 12)
	tOff, ok2 := r.u32(offs + 16)
	mOff, ok3 := r.u32(offs + 20)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("%w: offset table at %d past end", ErrMalformed, offs)
	}

	recSize, ok := r.u32(mOff - 4)
	if !ok {
		return nil, fmt.Errorf("%w: material section at %d", ErrMalformed, mOff)
	}
	if recSize != rangeRecSize {
		return nil, fmt.Errorf("%w: draw range record size %d, want %d", ErrMalformed, recSize, rangeRecSize)
	}
	rangeCount, _ := r.u32(mOff - 8)

	vCount, ok1 := r.u32(vOff - 8)
	vStride, ok2 := r.u32(vOff - 4)
	iCount, ok3 := r.u32(tOff - 8)
	iSize, ok4 := r.u32(tOff - 4)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, fmt.Errorf("%w: section headers out of range", ErrMalformed)
	}
	if iSize != 2 && iSize != 4 {
		return nil, fmt.Errorf("%w: index size %d is neither 2 nor 4", ErrMalformed, iSize)
	}
	if vStride == 0 {
		return nil, fmt.Errorf("%w: zero vertex stride", ErrMalformed)
	}

	vertices, ok := r.slice(vOff, vCount, vStride)
	if !ok {
		return nil, fmt.Errorf("%w: %d vertices of %d bytes at %d exceed file", ErrMalformed, vCount, vStride, vOff)
	}
	indices, ok := r.slice(tOff, iCount, iSize)
	if !ok {
		return nil, fmt.Errorf("%w: %d indices of %d bytes at %d exceed file", ErrMalformed, iCount, iSize, tOff)
	}
	recs, ok := r.slice(mOff, rangeCount, rangeRecSize)
	if !ok {
		return nil, fmt.Errorf("%w: %d draw ranges at %d exceed file", ErrMalformed, rangeCount, mOff)
	}

	ranges := make([]DrawRange, rangeCount)
	for i := range ranges {
		rec := recs[i*rangeRecSize:]
		ranges[i] = DrawRange{
			First:    int(binary.LittleEndian.Uint32(rec[0:])),
			Count:    int(binary.LittleEndian.Uint32(rec[4:])),
			Material: int(binary.LittleEndian.Uint32(rec[8:])),
		}
		if ranges[i].First > int(iCount) {
			return nil, fmt.Errorf("%w: draw range %d starts at index %d of %d", ErrMalformed, i, ranges[i].First, iCount)
		}
	}

	return &Mesh{
		Vertices:     vertices,
		VertexStride: int(vStride),
		VertexCount:  int(vCount),
		Indices:      indices,
		IndexSize:    int(iSize),
		IndexCount:   int(iCount),
		Ranges:       ranges,
	}, nil
}

// reader does bounds-checked little-endian reads at absolute offsets.
type reader struct {
	data []byte
}

func (r *reader) u32(off uint32) (uint32, bool) {
	// Offsets below a section header wrap to huge values and fail here.
	if uint64(off)+4 > uint64(len(r.data)) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(r.data[off:]), true
}

func (r *reader) slice(off, count, size uint32) ([]byte, bool) {
	n := uint64(count) * uint64(size)
	if n > maxCountBytes || uint64(off)+n > uint64(len(r.data)) {
		return nil, false
	}
	return r.data[off : uint64(off)+n], true
}
