package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// decodableExts are tried, in order, for a sibling of a texture whose own
// container cannot be decoded.
var decodableExts = []string{".png", ".tga", ".webp", ".jpg", ".jpeg", ".bmp", ".gif"}

// decodeFile reads a texture. A path whose extension has no decoder (for
// example ".dds") is served from the first decodable sibling with the
// same stem.
func decodeFile(path string) (*image.NRGBA, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if isDecodable(ext) {
		img, err := decodePath(path, ext)
		if err == nil || !os.IsNotExist(err) {
			return img, path, err
		}
	}
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	for _, alt := range decodableExts {
		p := stem + alt
		img, err := decodePath(p, alt)
		if os.IsNotExist(err) {
			continue
		}
		return img, p, err
	}
	return nil, path, fmt.Errorf("%w: %s: no decodable file for this texture", ErrDecode, path)
}

// findDecodable returns the path decodeFile would read, if any.
func findDecodable(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if isDecodable(ext) && fileExists(path) {
		return path, true
	}
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	for _, alt := range decodableExts {
		if fileExists(stem + alt) {
			return stem + alt, true
		}
	}
	return "", false
}

func isDecodable(ext string) bool {
	for _, e := range decodableExts {
		if e == ext {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func decodePath(path, ext string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := decodeBytes(raw, ext)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return toNRGBA(img), nil
}

func decodeBytes(raw []byte, ext string) (image.Image, error) {
	r := bytes.NewReader(raw)
	switch ext {
	case ".png":
		return png.Decode(r)
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".gif":
		return gif.Decode(r)
	case ".bmp":
		return bmp.Decode(r)
	case ".webp":
		return webp.Decode(r)
	case ".tga":
		return tga.Decode(r)
	}
	return nil, fmt.Errorf("unsupported extension %s", ext)
}

// toNRGBA converts any image to an NRGBA image with origin (0,0).
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}
