package composite

import (
	"math"
	"math/rand/v2"
)

// DefaultNoiseSize is the edge length of the noise field.
const DefaultNoiseSize = 1024

// Noise is a tileable field of uniform values in [0,1). It is immutable
// after construction and safe to share between assets.
type Noise struct {
	size   int
	values []float32
}

// NewNoise fills a size×size field from a seeded generator, so runs with
// the same seed produce identical textures.
func NewNoise(size int, seed uint64) *Noise {
	if size <= 0 {
		size = DefaultNoiseSize
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	values := make([]float32, size*size)
	for i := range values {
		values[i] = rng.Float32()
	}
	return &Noise{size: size, values: values}
}

// At samples the field with nearest filtering and repeat wrapping.
func (n *Noise) At(u, v float64) float32 {
	x := int(math.Floor(u*float64(n.size))) % n.size
	y := int(math.Floor(v*float64(n.size))) % n.size
	if x < 0 {
		x += n.size
	}
	if y < 0 {
		y += n.size
	}
	return n.values[y*n.size+x]
}
