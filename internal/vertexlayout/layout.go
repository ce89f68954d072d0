// Package vertexlayout decodes the compact vertex format strings used by
// asset configurations (e.g. "P4h_N4b_G4b_B4b_T2h_C4b_C4b") into a binding
// plan of attribute slots, types and byte offsets.
package vertexlayout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrCorrupt marks a layout string that cannot be decoded.
var ErrCorrupt = errors.New("vertexlayout: corrupt layout")

// Semantic is the one-letter attribute tag of a layout token.
type Semantic byte

const (
	Position  Semantic = 'P'
	Normal    Semantic = 'N'
	Tangent   Semantic = 'G'
	Bitangent Semantic = 'B'
	TexCoord  Semantic = 'T'
	Color     Semantic = 'C'
	Index     Semantic = 'I'
	Weight    Semantic = 'W'
)

func (s Semantic) String() string {
	switch s {
	case Position:
		return "position"
	case Normal:
		return "normal"
	case Tangent:
		return "tangent"
	case Bitangent:
		return "bitangent"
	case TexCoord:
		return "texcoord"
	case Color:
		return "color"
	case Index:
		return "index"
	case Weight:
		return "weight"
	}
	return fmt.Sprintf("Semantic(%q)", byte(s))
}

// ElemType is the storage type of one attribute component.
type ElemType byte

const (
	Float32 ElemType = 'f'
	Float16 ElemType = 'h'
	UNorm8  ElemType = 'b'
)

// Size returns the byte width of one component.
func (t ElemType) Size() int {
	switch t {
	case Float32:
		return 4
	case Float16:
		return 2
	case UNorm8:
		return 1
	}
	return 0
}

// slotOrder fixes the shader binding slot of every tag. A tag occupies as
// many consecutive slots as it appears here.
const slotOrder = "PNGBTCCIIIIWWWW"

// MaxSlots is the number of binding slots a layout can address.
const MaxSlots = len(slotOrder)

// Attribute is one decoded vertex attribute.
type Attribute struct {
	Semantic   Semantic
	Slot       int
	Components int
	Type       ElemType
	Normalized bool
	Offset     int
}

// Size returns the attribute's byte width inside a vertex.
func (a Attribute) Size() int {
	return a.Components * a.Type.Size()
}

// Layout is the decoded binding plan of a vertex format string.
type Layout struct {
	Attributes []Attribute
	Stride     int
}

// Decode parses a layout string. Tokens are separated by '_'. A three
// character token is <tag><component count><type>; any other token is a
// decimal count of padding bytes.
func Decode(format string) (Layout, error) {
	if format == "" {
		return Layout{}, fmt.Errorf("%w: empty layout", ErrCorrupt)
	}

	var l Layout
	seen := make(map[Semantic]int)
	offset := 0

	for _, tok := range strings.Split(format, "_") {
		if len(tok) != 3 {
			n, err := strconv.Atoi(tok)
			if err != nil || n < 0 {
				return Layout{}, fmt.Errorf("%w: bad token %q in %q", ErrCorrupt, tok, format)
			}
			offset += n
			continue
		}

		sem := Semantic(tok[0])
		base := strings.IndexByte(slotOrder, tok[0])
		if base < 0 {
			return Layout{}, fmt.Errorf("%w: unknown attribute tag %q in %q", ErrCorrupt, tok[0], format)
		}
		comps := int(tok[1] - '0')
		if comps < 1 || comps > 4 {
			return Layout{}, fmt.Errorf("%w: bad component count %q in %q", ErrCorrupt, tok[1], format)
		}
		typ := ElemType(tok[2])
		if typ.Size() == 0 {
			return Layout{}, fmt.Errorf("%w: unknown element type %q in %q", ErrCorrupt, tok[2], format)
		}

		slot := base + seen[sem]
		if slot >= MaxSlots || slotOrder[slot] != tok[0] {
			return Layout{}, fmt.Errorf("%w: too many %s attributes in %q", ErrCorrupt, sem, format)
		}
		seen[sem]++

		l.Attributes = append(l.Attributes, Attribute{
			Semantic:   sem,
			Slot:       slot,
			Components: comps,
			Type:       typ,
			Normalized: isNormalized(sem),
			Offset:     offset,
		})
		offset += comps * typ.Size()
	}

	l.Stride = offset
	return l, nil
}

func isNormalized(s Semantic) bool {
	switch s {
	case Normal, Tangent, Bitangent, Color:
		return true
	}
	return false
}

// Find returns the nth (0-based) attribute carrying the given tag.
func (l Layout) Find(sem Semantic, n int) (Attribute, bool) {
	for _, a := range l.Attributes {
		if a.Semantic != sem {
			continue
		}
		if n == 0 {
			return a, true
		}
		n--
	}
	return Attribute{}, false
}

// String re-encodes the layout without padding tokens.
func (l Layout) String() string {
	parts := make([]string, 0, len(l.Attributes))
	for _, a := range l.Attributes {
		parts = append(parts, string([]byte{byte(a.Semantic), byte('0' + a.Components), byte(a.Type)}))
	}
	return strings.Join(parts, "_")
}
