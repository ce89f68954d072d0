package rdm

import "encoding/binary"

// DrawRange selects a run of the index buffer drawn with one material.
type DrawRange struct {
	First    int // first index element
	Count    int // number of index elements
	Material int // material index into the asset's material list
}

// Mesh holds the raw vertex and index blobs of one mesh file. Vertex
// records are interpreted through the material's vertex layout.
type Mesh struct {
	Vertices     []byte
	VertexStride int
	VertexCount  int

	Indices    []byte
	IndexSize  int // 2 or 4 bytes
	IndexCount int

	Ranges []DrawRange
}

// Index returns index element i.
func (m *Mesh) Index(i int) int {
	off := i * m.IndexSize
	if m.IndexSize == 2 {
		return int(binary.LittleEndian.Uint16(m.Indices[off:]))
	}
	return int(binary.LittleEndian.Uint32(m.Indices[off:]))
}

// Triangles returns the number of whole triangles of a draw range that
// lie inside the index buffer.
func (m *Mesh) Triangles(r DrawRange) int {
	n := r.Count
	if r.First+n > m.IndexCount {
		n = m.IndexCount - r.First
	}
	if n < 0 {
		return 0
	}
	return n / 3
}

// Corners returns the vertex indices of triangle t of a draw range. ok is
// false when any corner references a vertex outside the buffer.
func (m *Mesh) Corners(r DrawRange, t int) (c [3]int, ok bool) {
	base := r.First + t*3
	for k := 0; k < 3; k++ {
		c[k] = m.Index(base + k)
		if c[k] >= m.VertexCount {
			return c, false
		}
	}
	return c, true
}
