package rdm

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fixture struct {
	vertexStride int
	vertices     []byte
	indexSize    int
	indices      []int
	ranges       []DrawRange
	rangeRecSize uint32
}

// build lays out a mesh file: 36 byte header, offset table, then the
// vertex, index and draw range sections each preceded by count and size.
func (f fixture) build() []byte {
	le := binary.LittleEndian
	buf := make([]byte, 36)
	le.PutUint32(buf[32:], 36)
	table := len(buf)
	buf = append(buf, make([]byte, 24)...)

	section := func(count, size uint32, body []byte) uint32 {
		var hdr [8]byte
		le.PutUint32(hdr[0:], count)
		le.PutUint32(hdr[4:], size)
		buf = append(buf, hdr[:]...)
		off := uint32(len(buf))
		buf = append(buf, body...)
		return off
	}

	vOff := section(uint32(len(f.vertices)/f.vertexStride), uint32(f.vertexStride), f.vertices)

	ib := make([]byte, len(f.indices)*f.indexSize)
	for i, v := range f.indices {
		if f.indexSize == 2 {
			le.PutUint16(ib[i*2:], uint16(v))
		} else {
			le.PutUint32(ib[i*4:], uint32(v))
		}
	}
	tOff := section(uint32(len(f.indices)), uint32(f.indexSize), ib)

	recSize := f.rangeRecSize
	if recSize == 0 {
		recSize = 28
	}
	rb := make([]byte, len(f.ranges)*28)
	for i, r := range f.ranges {
		le.PutUint32(rb[i*28:], uint32(r.First))
		le.PutUint32(rb[i*28+4:], uint32(r.Count))
		le.PutUint32(rb[i*28+8:], uint32(r.Material))
	}
	mOff := section(uint32(len(f.ranges)), recSize, rb)

	le.PutUint32(buf[table+12:], vOff)
	le.PutUint32(buf[table+16:], tOff)
	le.PutUint32(buf[table+20:], mOff)
	return buf
}

func quad() fixture {
	return fixture{
		vertexStride: 8,
		vertices:     make([]byte, 4*8),
		indexSize:    2,
		indices:      []int{0, 1, 2, 0, 2, 3},
		ranges:       []DrawRange{{First: 0, Count: 3, Material: 0}, {First: 3, Count: 3, Material: 1}},
	}
}

func TestParse(t *testing.T) {
	m, err := Parse(quad().build())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.VertexCount != 4 || m.VertexStride != 8 || len(m.Vertices) != 32 {
		t.Errorf("vertices: count=%d stride=%d len=%d", m.VertexCount, m.VertexStride, len(m.Vertices))
	}
	if m.IndexCount != 6 || m.IndexSize != 2 {
		t.Errorf("indices: count=%d size=%d", m.IndexCount, m.IndexSize)
	}
	if len(m.Ranges) != 2 || m.Ranges[1] != (DrawRange{First: 3, Count: 3, Material: 1}) {
		t.Errorf("ranges = %+v", m.Ranges)
	}
	c, ok := m.Corners(m.Ranges[1], 0)
	if !ok || c != [3]int{0, 2, 3} {
		t.Errorf("corners = %v, %v", c, ok)
	}
	if n := m.Triangles(m.Ranges[0]); n != 1 {
		t.Errorf("triangles = %d", n)
	}
}

func TestParseWideIndices(t *testing.T) {
	f := quad()
	f.indexSize = 4
	f.indices = []int{0, 1, 70000}
	f.ranges = []DrawRange{{First: 0, Count: 3}}
	m, err := Parse(f.build())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := m.Index(2); got != 70000 {
		t.Errorf("Index(2) = %d", got)
	}
	if _, ok := m.Corners(m.Ranges[0], 0); ok {
		t.Error("corner past the vertex buffer accepted")
	}
}

func TestTrianglesClampsToBuffer(t *testing.T) {
	m, err := Parse(quad().build())
	if err != nil {
		t.Fatal(err)
	}
	if n := m.Triangles(DrawRange{First: 3, Count: 30}); n != 1 {
		t.Errorf("triangles = %d, want 1", n)
	}
}

func TestParseMalformed(t *testing.T) {
	badRecord := quad()
	badRecord.rangeRecSize = 24

	badIndex := quad()
	badIndex.indexSize = 4
	good := badIndex.build()
	// Patch the index element size (4 bytes before the index section).
	tOff := binary.LittleEndian.Uint32(good[36+16:])
	binary.LittleEndian.PutUint32(good[tOff-4:], 3)

	truncated := quad().build()
	truncated = truncated[:len(truncated)-10]

	wildTable := quad().build()
	binary.LittleEndian.PutUint32(wildTable[32:], 1<<30)

	tests := map[string][]byte{
		"short":        make([]byte, 20),
		"record size":  badRecord.build(),
		"index size":   good,
		"truncated":    truncated,
		"offset table": wildTable,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(data); !errors.Is(err, ErrMalformed) {
				t.Errorf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.rdm")
	if err := os.WriteFile(path, quad().build(), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.rdm")); err == nil {
		t.Error("Load of missing file succeeded")
	}
}
