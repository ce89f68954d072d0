package pipeline

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"math"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"snow-texture-generator/internal/cfgfile"
	"snow-texture-generator/internal/composite"
	"snow-texture-generator/internal/raster"
	"snow-texture-generator/internal/rdm"
	"snow-texture-generator/internal/texture"
	"snow-texture-generator/internal/vertexlayout"
)

const quadFormat = "P3f_N4b_G4b_B4b_T2f"

// memCodec keeps textures in memory.
type memCodec struct {
	mu      sync.Mutex
	files   map[string]*image.NRGBA
	mips    map[string]int
	encoded map[string]*image.NRGBA
	decoded map[string]int
}

func newMemCodec() *memCodec {
	return &memCodec{
		files:   make(map[string]*image.NRGBA),
		mips:    make(map[string]int),
		encoded: make(map[string]*image.NRGBA),
		decoded: make(map[string]int),
	}
}

func (c *memCodec) Exists(path string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.files[path]
	return ok
}

func (c *memCodec) Decode(path string) (*image.NRGBA, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decoded[path]++
	img, ok := c.files[path]
	if !ok || img == nil {
		return nil, fmt.Errorf("%w: %s", texture.ErrDecode, path)
	}
	return img, nil
}

func (c *memCodec) EncodeMips(stem string, img *image.NRGBA, mips int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mips[stem] = mips
	c.encoded[stem] = img
	return nil
}

func (c *memCodec) WritePNG(path string, img *image.NRGBA) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encoded[path] = img
	return nil
}

// meshes serves one mesh for every path.
type meshes struct {
	mesh *rdm.Mesh
	err  error
}

func (m meshes) LoadMesh(string) (*rdm.Mesh, error) { return m.mesh, m.err }

// upQuad is a two-triangle mesh covering uv [0,1) with upward normals.
func upQuad(t *testing.T) *rdm.Mesh {
	t.Helper()
	layout, err := vertexlayout.Decode(quadFormat)
	if err != nil {
		t.Fatal(err)
	}
	const hi = 0.99999
	pos := [4][3]float32{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}}
	uvs := [4][2]float32{{0, 0}, {hi, 0}, {hi, hi}, {0, hi}}
	verts := make([]byte, 4*layout.Stride)
	for i := range uvs {
		rec := verts[i*layout.Stride:]
		for k := 0; k < 3; k++ {
			binary.LittleEndian.PutUint32(rec[k*4:], math.Float32bits(pos[i][k]))
		}
		copy(rec[12:], []byte{128, 255, 128, 255})
		copy(rec[16:], []byte{255, 128, 128, 255})
		copy(rec[20:], []byte{128, 128, 255, 255})
		binary.LittleEndian.PutUint32(rec[24:], math.Float32bits(uvs[i][0]))
		binary.LittleEndian.PutUint32(rec[28:], math.Float32bits(uvs[i][1]))
	}
	ib := make([]byte, 12)
	for i, v := range []uint16{0, 1, 2, 0, 2, 3} {
		binary.LittleEndian.PutUint16(ib[i*2:], v)
	}
	return &rdm.Mesh{
		Vertices: verts, VertexStride: layout.Stride, VertexCount: 4,
		Indices: ib, IndexSize: 2, IndexCount: 6,
		Ranges: []rdm.DrawRange{{First: 0, Count: 6}},
	}
}

func fill(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func brickAsset(format string) *cfgfile.Asset {
	return &cfgfile.Asset{
		Path:     "game/data/props/wall.cfg",
		DataRoot: "game/",
		Models: []cfgfile.Model{{
			MeshFile: "data/props/wall.rdm",
			Materials: []cfgfile.Material{{
				VertexFormat: format,
				Textures: [cfgfile.SlotCount]cfgfile.TextureRef{
					{Path: "data/props/brick_diff_0.dds", Enabled: true},
					{Path: "data/props/brick_norm_0.dds", Enabled: true},
					{Path: "data/props/brick_metal_0.dds", Enabled: true},
				},
			}},
		}},
	}
}

func brickCodec() *memCodec {
	c := newMemCodec()
	c.files["game/data/props/brick_diff_0.dds"] = fill(64, 64, color.NRGBA{150, 60, 40, 255})
	c.files["game/data/props/brick_norm_0.dds"] = fill(64, 64, color.NRGBA{128, 128, 255, 255})
	c.files["game/data/props/brick_metal_0.dds"] = fill(64, 64, color.NRGBA{200, 100, 50, 255})
	return c
}

func newTestProcessor(t *testing.T, codec texture.Codec, mesh meshes) *Processor {
	return NewProcessor(Environment{
		ExtractedDir: "extracted",
		OutDir:       "out",
		Codec:        codec,
		Meshes:       mesh,
		Noise:        composite.NewNoise(16, 1),
		Log:          zaptest.NewLogger(t),
	}, Policy{FlatOverwritesSteep: true, SavePNG: true, SaveCompressed: true, Wrap: raster.WrapFract})
}

func TestProcessAssetSnowsFlatModel(t *testing.T) {
	codec := brickCodec()
	p := newTestProcessor(t, codec, meshes{mesh: upQuad(t)})

	rep := p.ProcessAsset(context.Background(), brickAsset(quadFormat))
	if !rep.Success || rep.Err != nil || rep.Skipped {
		t.Fatalf("report = %+v", rep)
	}
	if rep.Written != 2 {
		t.Errorf("written = %d, want 2", rep.Written)
	}

	diff := codec.encoded["out/data/props/brick_diff_"]
	if diff == nil {
		t.Fatalf("diffuse not emitted, got %v", codec.encoded)
	}
	if codec.mips["out/data/props/brick_diff_"] != 4 {
		t.Errorf("diffuse mips = %d, want 4", codec.mips["out/data/props/brick_diff_"])
	}
	if codec.encoded["out/data/props/brick_diff_0.png"] == nil {
		t.Error("diffuse png not written")
	}
	const tol = 0.03125 + 1.0/255
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := diff.NRGBAAt(x, y)
			for i, v := range []uint8{c.R, c.G, c.B} {
				if math.Abs(float64(v)/255-float64(composite.SnowColor[i])) > tol {
					t.Fatalf("diffuse (%d,%d) = %v, want snow", x, y, c)
				}
			}
		}
	}

	metal := codec.encoded["out/data/props/brick_metal_"]
	if metal == nil {
		t.Fatal("metallic not emitted")
	}
	if c := metal.NRGBAAt(10, 10); !cleared(c) {
		t.Errorf("metallic = %v, want cleared", c)
	}
	if _, ok := codec.encoded["out/data/props/brick_norm_"]; ok {
		t.Error("normal map emitted")
	}
}

// cleared reports whether the texel lost its metallic response to snow.
func cleared(c color.NRGBA) bool { return c.R == 0 && c.G == 0 && c.B == 0 && c.A == 255 }

func TestProcessAssetSharedDiffuseSnowmap(t *testing.T) {
	codec := brickCodec()
	codec.files["extracted/data/props/moss_diff_0.dds"] = fill(64, 64, color.NRGBA{90, 120, 60, 255})
	mesh := upQuad(t)
	mesh.Ranges = []rdm.DrawRange{{First: 0, Count: 3, Material: 0}, {First: 3, Count: 3, Material: 1}}

	// Both materials draw the extracted moss diffuse; only the second one
	// saves anything.
	asset := brickAsset(quadFormat)
	saved := asset.Models[0].Materials[0]
	saved.Textures[cfgfile.SlotDiffuse] = cfgfile.TextureRef{Path: "data/props/moss_diff_0.dds", Enabled: true}
	unsaved := saved
	unsaved.Textures[cfgfile.SlotMetallic] = cfgfile.TextureRef{}
	asset.Models[0].Materials = []cfgfile.Material{unsaved, saved}

	p := newTestProcessor(t, codec, meshes{mesh: mesh})
	rep := p.ProcessAsset(context.Background(), asset)
	if !rep.Success || rep.Err != nil {
		t.Fatalf("report = %+v", rep)
	}

	metal := codec.encoded["out/data/props/brick_metal_"]
	if metal == nil {
		t.Fatalf("metallic not emitted, got %v", codec.encoded)
	}
	// (60,30) is covered only by the first triangle, drawn by the
	// material that saves nothing.
	if c := metal.NRGBAAt(60, 30); !cleared(c) {
		t.Errorf("metallic under first draw = %v, want cleared", c)
	}
	if c := metal.NRGBAAt(2, 32); !cleared(c) {
		t.Errorf("metallic under second draw = %v, want cleared", c)
	}
	if _, ok := codec.encoded["out/data/props/moss_diff_"]; ok {
		t.Error("extracted diffuse emitted")
	}
}

func TestProcessAssetClampsMaterialIndex(t *testing.T) {
	codec := brickCodec()
	mesh := upQuad(t)
	mesh.Ranges = []rdm.DrawRange{{First: 0, Count: 6, Material: 7}}

	p := newTestProcessor(t, codec, meshes{mesh: mesh})
	rep := p.ProcessAsset(context.Background(), brickAsset(quadFormat))
	if !rep.Success || rep.Written != 2 {
		t.Fatalf("report = %+v", rep)
	}
	metal := codec.encoded["out/data/props/brick_metal_"]
	if metal == nil || !cleared(metal.NRGBAAt(10, 10)) {
		t.Error("range past the material list was not snowed with the last material")
	}
}

func TestProcessAssetModelWithoutMaterials(t *testing.T) {
	codec := brickCodec()
	asset := brickAsset(quadFormat)
	asset.Models = append(asset.Models, cfgfile.Model{MeshFile: "data/props/bare.rdm"})

	p := newTestProcessor(t, codec, meshes{mesh: upQuad(t)})
	rep := p.ProcessAsset(context.Background(), asset)
	if !rep.Success || rep.Err != nil || rep.Written != 2 {
		t.Fatalf("report = %+v", rep)
	}
	want := "model data/props/bare.rdm has draw ranges but no materials"
	found := false
	for _, m := range rep.Messages {
		found = found || m == want
	}
	if !found {
		t.Errorf("messages = %q, want %q", rep.Messages, want)
	}
}

func TestProcessAssetDecodesOnlyDrawnInputs(t *testing.T) {
	codec := brickCodec()
	codec.files["extracted/data/props/moss_diff_0.dds"] = fill(64, 64, color.NRGBA{90, 120, 60, 255})
	mesh := upQuad(t)
	mesh.Ranges = []rdm.DrawRange{{First: 0, Count: 6, Material: 0}, {First: 0, Count: 6, Material: 1}}

	asset := brickAsset(quadFormat)
	asset.Models[0].Materials = append(asset.Models[0].Materials, cfgfile.Material{
		VertexFormat: quadFormat,
		Textures: [cfgfile.SlotCount]cfgfile.TextureRef{
			{Path: "data/props/moss_diff_0.dds", Enabled: true},
		},
	})

	p := newTestProcessor(t, codec, meshes{mesh: mesh})
	rep := p.ProcessAsset(context.Background(), asset)
	if !rep.Success || rep.Written != 2 {
		t.Fatalf("report = %+v", rep)
	}
	if n := codec.decoded["extracted/data/props/moss_diff_0.dds"]; n != 0 {
		t.Errorf("vanilla diffuse decoded %d times", n)
	}
	for _, path := range []string{
		"game/data/props/brick_diff_0.dds",
		"game/data/props/brick_norm_0.dds",
		"game/data/props/brick_metal_0.dds",
	} {
		if n := codec.decoded[path]; n != 1 {
			t.Errorf("%s decoded %d times, want 1", path, n)
		}
	}
}

func TestProcessAssetSkipsVanilla(t *testing.T) {
	codec := newMemCodec()
	p := newTestProcessor(t, codec, meshes{err: errors.New("mesh must not be loaded")})

	rep := p.ProcessAsset(context.Background(), brickAsset(quadFormat))
	if !rep.Success || !rep.Skipped {
		t.Fatalf("report = %+v, want skipped", rep)
	}
	if len(codec.encoded) != 0 {
		t.Errorf("emitted %d files", len(codec.encoded))
	}
}

func TestProcessAssetFailures(t *testing.T) {
	tests := []struct {
		name   string
		format string
		mesh   meshes
		codec  func() *memCodec
		kind   ErrorKind
	}{
		{"bad layout", "P3f_Q9z", meshes{mesh: &rdm.Mesh{}}, brickCodec, KindMalformed},
		{"missing mesh", quadFormat, meshes{err: fs.ErrNotExist}, brickCodec, KindResource},
		{"undecodable texture", quadFormat, meshes{mesh: &rdm.Mesh{}}, func() *memCodec {
			c := brickCodec()
			c.files["game/data/props/brick_norm_0.dds"] = nil
			return c
		}, KindResource},
		{"wide layout", quadFormat, meshes{mesh: &rdm.Mesh{VertexStride: 4, VertexCount: 1, IndexSize: 2,
			Ranges: []rdm.DrawRange{{}}}}, brickCodec, KindMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(t, tt.codec(), tt.mesh)
			rep := p.ProcessAsset(context.Background(), brickAsset(tt.format))
			if rep.Success || rep.Err == nil {
				t.Fatalf("report = %+v, want failure", rep)
			}
			if got := rep.Kind(); got != tt.kind {
				t.Errorf("kind = %q, want %q (%v)", got, tt.kind, rep.Err)
			}
		})
	}
}

func TestProcessAssetCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newTestProcessor(t, brickCodec(), meshes{mesh: upQuad(t)})
	rep := p.ProcessAsset(ctx, brickAsset(quadFormat))
	if rep.Kind() != KindCanceled {
		t.Errorf("kind = %q, want canceled", rep.Kind())
	}
}

func TestProcessMissingConfig(t *testing.T) {
	p := newTestProcessor(t, newMemCodec(), meshes{})
	rep := p.Process(context.Background(), t.TempDir()+"/data/none.cfg")
	if rep.Success || rep.Kind() != KindResource {
		t.Errorf("report = %+v, kind %q", rep, rep.Kind())
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{context.Canceled, KindCanceled},
		{fmt.Errorf("x: %w", vertexlayout.ErrCorrupt), KindMalformed},
		{fmt.Errorf("x: %w", rdm.ErrMalformed), KindMalformed},
		{cfgfile.ErrNoDataRoot, KindMalformed},
		{fmt.Errorf("x: %w", texture.ErrDecode), KindResource},
		{fmt.Errorf("%w: disk full", errEmission), KindEmission},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
