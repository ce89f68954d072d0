// Package emit writes snowed textures of an asset to the output tree.
package emit

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"snow-texture-generator/internal/texture"
)

// Options select the output files written per texture.
type Options struct {
	SavePNG        bool // "<stem>0.png" of level 0
	SaveCompressed bool // full mip chain in the codec's format
}

// Emitter hands finished surfaces to a codec.
type Emitter struct {
	opts  Options
	codec texture.Codec
	log   *zap.Logger
}

// New creates an emitter.
func New(opts Options, codec texture.Codec, log *zap.Logger) *Emitter {
	return &Emitter{opts: opts, codec: codec, log: log}
}

// Emit saves every identity that is due and releases all surfaces.
// Encoder failures do not stop the remaining textures; they are returned
// combined so the caller can report them as warnings. The count of
// written textures is returned as well.
func (e *Emitter) Emit(ids []*texture.Identity) (written int, err error) {
	for _, id := range ids {
		ok, werr := e.emitOne(id)
		if ok {
			written++
		}
		err = multierr.Append(err, werr)
		id.Release()
	}
	return written, err
}

func (e *Emitter) emitOne(id *texture.Identity) (bool, error) {
	switch {
	case id.Kind == texture.Normal:
		id.Saved = true
		return false, nil
	case id.Saved:
		return false, nil
	case texture.IsDefaultName(id.Key):
		return false, nil
	case !id.ShouldSave:
		e.log.Info("not saving vanilla texture", zap.String("texture", id.SourcePath))
		id.Saved = true
		return false, nil
	}

	if id.Blacklisted {
		e.log.Warn("saving blacklisted texture", zap.String("texture", id.OutStem))
	}
	if id.Snowed == nil {
		e.log.Debug("no snow computed for texture", zap.String("texture", id.RelPath))
		return false, nil
	}

	var errs error
	if e.opts.SavePNG {
		if err := e.codec.WritePNG(id.OutStem+"0.png", id.Snowed); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if e.opts.SaveCompressed {
		mips := texture.OutputMipCount(id.MipCount, id.Snowed.Bounds().Size())
		if mips == 0 {
			e.log.Warn("no mip levels found, compressed output skipped", zap.String("texture", id.RelPath))
		} else if err := e.codec.EncodeMips(id.OutStem, id.Snowed, mips); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		e.log.Warn("texture emission failed", zap.String("texture", id.RelPath), zap.Error(errs))
		return false, fmt.Errorf("emit %s: %w", id.RelPath, errs)
	}
	id.Saved = true
	e.log.Debug("texture saved", zap.String("texture", id.OutStem))
	return true, nil
}
