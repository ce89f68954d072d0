package cfgfile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

var (
	// ErrMalformed marks a config that is not well-formed XML.
	ErrMalformed = errors.New("cfgfile: malformed config")
	// ErrNoDataRoot is returned when the data root cannot be derived from
	// the config path and no override was given.
	ErrNoDataRoot = errors.New("cfgfile: no data directory in path")
)

// Tag names of the enable flag and path of each texture slot.
var (
	enabledTags = [SlotCount]string{"DIFFUSE_ENABLED", "NORMAL_ENABLED", "METALLIC_TEX_ENABLED"}
	pathTags    = [SlotCount]string{"cModelDiffTex", "cModelNormalTex", "cModelMetallicTex"}
	slotNames   = [SlotCount]string{"diffuse", "normal", "metallic"}
)

// xmlNode is a generic element; configs put semantics in element names.
type xmlNode struct {
	XMLName xml.Name
	Content string    `xml:",chardata"`
	Nodes   []xmlNode `xml:",any"`
}

func (n *xmlNode) child(name string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}
	return nil
}

// Load reads a config file. dataRoot overrides the data root derived from
// the path when non-empty.
func Load(path, dataRoot string) (*Asset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cfgfile: read %s: %w", path, err)
	}
	return Parse(raw, path, dataRoot)
}

// Parse decodes config XML. Backslashes in the document are read as
// forward slashes and stray 0xCD bytes are dropped.
func Parse(raw []byte, path, dataRoot string) (*Asset, error) {
	path = strings.ReplaceAll(path, `\`, "/")
	if dataRoot == "" {
		root, ok := FindDataRoot(path)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoDataRoot, path)
		}
		dataRoot = root
	} else {
		dataRoot = strings.ReplaceAll(dataRoot, `\`, "/")
		if !strings.HasSuffix(dataRoot, "/") {
			dataRoot += "/"
		}
	}

	clean := bytes.ReplaceAll(raw, []byte{'\\'}, []byte{'/'})
	clean = bytes.ReplaceAll(clean, []byte{0xCD}, nil)

	var root xmlNode
	dec := xml.NewDecoder(bytes.NewReader(clean))
	dec.CharsetReader = charsetReader
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}

	asset := &Asset{Path: path, DataRoot: dataRoot}
	models := root.child("Models")
	if models == nil {
		asset.Warnings = append(asset.Warnings, "config has no <Models> tag")
		return asset, nil
	}

	for i := range models.Nodes {
		m, err := parseModel(&models.Nodes[i], asset)
		if err != nil {
			asset.Warnings = append(asset.Warnings, fmt.Sprintf("skipping model %d: %v", i, err))
			continue
		}
		asset.Models = append(asset.Models, m)
	}
	return asset, nil
}

func parseModel(n *xmlNode, asset *Asset) (Model, error) {
	var m Model
	if fn := n.child("FileName"); fn != nil {
		m.MeshFile = strings.TrimSpace(fn.Content)
	}
	if !strings.HasSuffix(strings.ToLower(m.MeshFile), ".rdm") {
		return m, fmt.Errorf("FileName %q is not a mesh file", m.MeshFile)
	}

	mats := n.child("Materials")
	if mats == nil {
		return m, nil
	}
	for i := range mats.Nodes {
		m.Materials = append(m.Materials, parseMaterial(&mats.Nodes[i], asset))
	}
	return m, nil
}

func parseMaterial(n *xmlNode, asset *Asset) Material {
	var mat Material
	if vf := n.child("VertexFormat"); vf != nil {
		mat.VertexFormat = strings.TrimSpace(vf.Content)
	}
	for slot := 0; slot < SlotCount; slot++ {
		enabled := n.child(enabledTags[slot])
		path := n.child(pathTags[slot])
		switch {
		case enabled == nil:
			asset.Warnings = append(asset.Warnings,
				fmt.Sprintf("%s texture has no <%s> tag, using default", slotNames[slot], enabledTags[slot]))
		case enabled.Content != "1":
			// Disabled slots are common; not worth a warning.
		case path == nil:
			asset.Warnings = append(asset.Warnings,
				fmt.Sprintf("%s texture has no <%s> tag, using default", slotNames[slot], pathTags[slot]))
		default:
			mat.Textures[slot] = TextureRef{Path: strings.TrimSpace(path.Content), Enabled: true}
		}
	}
	return mat
}

// FindDataRoot returns the prefix of path up to and including the slash
// before its last "data/" directory.
func FindDataRoot(path string) (string, bool) {
	path = strings.ReplaceAll(path, `\`, "/")
	if i := strings.LastIndex(path, "/data/"); i >= 0 {
		return path[:i+1], true
	}
	if strings.HasPrefix(path, "data/") {
		return "", true
	}
	return "", false
}

// charsetReader accepts the single-byte encodings some exported configs
// declare.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", label)
}
