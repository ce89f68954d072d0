package cfgfile

// Texture slots of a material, in the order the renderer binds them.
const (
	SlotDiffuse = iota
	SlotNormal
	SlotMetallic
	SlotCount
)

// TextureRef is one texture reference of a material. Path is relative to
// the data root with forward slashes; it is empty when the slot is
// disabled and the default texture must be used.
type TextureRef struct {
	Path    string
	Enabled bool
}

// Material is one entry of a model's material list.
type Material struct {
	VertexFormat string
	Textures     [SlotCount]TextureRef
}

// Model pairs a mesh file with the materials its draw ranges index.
type Model struct {
	MeshFile  string // relative to the data root
	Materials []Material
}

// Asset is a parsed asset configuration.
type Asset struct {
	Path     string // config file path, forward slashes
	DataRoot string // directory containing "data/"
	Models   []Model
	Warnings []string
}

// RelPath returns the config path below the data root, e.g.
// "data/graphics/props/crate.cfg".
func (a *Asset) RelPath() string {
	if len(a.Path) >= len(a.DataRoot) && a.Path[:len(a.DataRoot)] == a.DataRoot {
		return a.Path[len(a.DataRoot):]
	}
	return a.Path
}
