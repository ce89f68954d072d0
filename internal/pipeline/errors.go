package pipeline

import (
	"context"
	"errors"
	"io/fs"

	"snow-texture-generator/internal/cfgfile"
	"snow-texture-generator/internal/raster"
	"snow-texture-generator/internal/rdm"
	"snow-texture-generator/internal/texture"
	"snow-texture-generator/internal/vertexlayout"
)

// ErrorKind groups asset failures for reporting.
type ErrorKind string

const (
	KindNone      ErrorKind = ""
	KindMalformed ErrorKind = "malformed_input" // config, mesh or vertex layout cannot be read
	KindResource  ErrorKind = "resource"        // file missing, texture undecodable, target unusable
	KindEmission  ErrorKind = "emission"        // output could not be written
	KindCanceled  ErrorKind = "canceled"
	KindInternal  ErrorKind = "internal"
)

// errEmission wraps failures while writing outputs.
var errEmission = errors.New("emission failed")

// Classify maps an asset error to its kind.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, vertexlayout.ErrCorrupt),
		errors.Is(err, rdm.ErrMalformed),
		errors.Is(err, cfgfile.ErrMalformed),
		errors.Is(err, cfgfile.ErrNoDataRoot):
		return KindMalformed
	case errors.Is(err, texture.ErrDecode),
		errors.Is(err, raster.ErrRaster),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, fs.ErrPermission):
		return KindResource
	case errors.Is(err, errEmission):
		return KindEmission
	}
	return KindInternal
}
