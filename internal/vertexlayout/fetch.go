package vertexlayout

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"
)

// Default is the value of an attribute that is not present in a layout.
// Missing trailing components are filled from it as well.
var Default = [4]float32{0, 0, 0, 1}

// Fetch reads the attribute from one vertex record. Normalized byte
// components map to [0,1]; components beyond the attribute's count take
// the value of Default. The record must be at least Offset+Size bytes.
func (a Attribute) Fetch(vertex []byte) [4]float32 {
	out := Default
	p := vertex[a.Offset:]
	for i := 0; i < a.Components && i < 4; i++ {
		switch a.Type {
		case Float32:
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		case Float16:
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(p[i*2:])).Float32()
		case UNorm8:
			if a.Normalized {
				out[i] = float32(p[i]) / 255
			} else {
				out[i] = float32(p[i])
			}
		}
	}
	return out
}

// Reader fetches attributes for vertices of an interleaved buffer.
type Reader struct {
	Layout Layout
	Data   []byte
	Stride int
}

// Count returns the number of whole vertices in the buffer.
func (r Reader) Count() int {
	if r.Stride <= 0 {
		return 0
	}
	return len(r.Data) / r.Stride
}

// Vertex returns the record of vertex i.
func (r Reader) Vertex(i int) []byte {
	off := i * r.Stride
	return r.Data[off : off+r.Stride]
}

// Attr reads the first attribute with the tag for vertex i, or Default when
// the layout has no such attribute.
func (r Reader) Attr(sem Semantic, i int) [4]float32 {
	a, ok := r.Layout.Find(sem, 0)
	if !ok {
		return Default
	}
	return a.Fetch(r.Vertex(i))
}
