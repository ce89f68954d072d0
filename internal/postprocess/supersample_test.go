package postprocess

import (
	"image"
	"image/color"
	"testing"
)

func TestDownsampleKeepsSmallImages(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	if Downsample(img, 8, 8) != img {
		t.Error("small image was copied")
	}
}

func TestDownsampleNoDarkFringe(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	// Left half opaque white, right half fully transparent black.
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
		}
	}
	out := Downsample(img, 4, 4)
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 4 {
		t.Fatalf("size = %v", out.Bounds())
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := out.NRGBAAt(x, y)
			if c.A > 16 && c.R < 240 {
				t.Errorf("pixel (%d,%d) = %v darkened by transparent neighbours", x, y, c)
			}
		}
	}
}
