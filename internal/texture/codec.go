package texture

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
)

// Codec abstracts texture storage so identities can be resolved and
// emitted against the filesystem or an in-memory fake.
type Codec interface {
	// Exists reports whether a texture file, or a decodable sibling of it,
	// is present.
	Exists(path string) bool
	// Decode returns the surface of a texture file.
	Decode(path string) (*image.NRGBA, error)
	// EncodeMips writes a chain of mips levels of img as
	// "<stem><level>.<ext>".
	EncodeMips(stem string, img *image.NRGBA, mips int) error
	// WritePNG writes img as a PNG file.
	WritePNG(path string, img *image.NRGBA) error
}

// Format is the container of compressed output levels.
type Format int

const (
	FormatWebP Format = iota
	FormatTGA
	FormatPNG
)

// ParseFormat accepts "webp", "tga" or "png".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "webp":
		return FormatWebP, nil
	case "tga":
		return FormatTGA, nil
	case "png":
		return FormatPNG, nil
	}
	return FormatWebP, fmt.Errorf("texture: unknown output format %q", s)
}

// Ext returns the file extension of the format including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatTGA:
		return ".tga"
	case FormatPNG:
		return ".png"
	}
	return ".webp"
}

func (f Format) String() string { return strings.TrimPrefix(f.Ext(), ".") }

// FileCodec reads and writes textures on the local filesystem. Writes to
// the same output stem are serialized.
type FileCodec struct {
	Format Format

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewFileCodec creates a codec writing levels in the given format.
func NewFileCodec(f Format) *FileCodec {
	return &FileCodec{Format: f, locks: make(map[string]*sync.Mutex)}
}

func (c *FileCodec) lock(stem string) func() {
	c.mu.Lock()
	l, ok := c.locks[stem]
	if !ok {
		l = &sync.Mutex{}
		c.locks[stem] = l
	}
	c.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Exists implements Codec.
func (c *FileCodec) Exists(path string) bool {
	if fileExists(path) {
		return true
	}
	_, ok := findDecodable(path)
	return ok
}

// Decode implements Codec.
func (c *FileCodec) Decode(path string) (*image.NRGBA, error) {
	img, _, err := decodeFile(path)
	return img, err
}

// EncodeMips implements Codec.
func (c *FileCodec) EncodeMips(stem string, img *image.NRGBA, mips int) error {
	defer c.lock(stem)()
	if err := os.MkdirAll(filepath.Dir(stem), 0o755); err != nil {
		return fmt.Errorf("texture: mkdir for %s: %w", stem, err)
	}
	for level, m := range MipChain(img, mips) {
		path := stem + strconv.Itoa(level) + c.Format.Ext()
		if err := writeImage(path, m, c.Format); err != nil {
			return err
		}
	}
	return nil
}

// WritePNG implements Codec.
func (c *FileCodec) WritePNG(path string, img *image.NRGBA) error {
	defer c.lock(path)()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("texture: mkdir for %s: %w", path, err)
	}
	return writeImage(path, img, FormatPNG)
}

func writeImage(path string, img image.Image, f Format) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("texture: create %s: %w", path, err)
	}
	w := bufio.NewWriter(out)
	switch f {
	case FormatTGA:
		err = tga.Encode(w, img)
	case FormatPNG:
		err = png.Encode(w, img)
	default:
		err = nativewebp.Encode(w, img, nil)
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("texture: encode %s: %w", path, err)
	}
	return nil
}
