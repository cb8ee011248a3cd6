// Package fonts provides the monospace faces used by the raster renderer and
// the font-family names referenced by the vector output.
//
// The display font (VT323) is fetched once from a fixed location and rehosted
// in the local resource store, so later runs need no network access. When the
// fetch fails or no store is configured, the embedded Go Mono face is used
// instead; rendering never silently proceeds without a usable face.
package fonts

import (
	"context"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/opentype"

	"github.com/watanaberin/retro-bio/pkg/errors"
	"github.com/watanaberin/retro-bio/pkg/httputil"
)

// DisplayFontURL is the fixed network location of the display font.
const DisplayFontURL = "https://raw.githubusercontent.com/google/fonts/main/ofl/vt323/VT323-Regular.ttf"

// FontFamily is the display font-family name used in vector output.
const FontFamily = "VT323"

// FallbackFontFamily is the CSS font stack for the vector output.
const FallbackFontFamily = `'VT323', monospace`

var (
	monoOnce sync.Once
	mono     *opentype.Font
	monoErr  error

	monoBoldOnce sync.Once
	monoBold     *opentype.Font
	monoBoldErr  error
)

// Face returns the embedded monospace face at the given point size.
// Failure to construct a face is an environment error: the caller should
// surface "rendering unsupported" rather than attempt degraded output.
func Face(size float64) (font.Face, error) {
	monoOnce.Do(func() {
		mono, monoErr = opentype.Parse(gomono.TTF)
	})
	if monoErr != nil {
		return nil, errors.Wrap(errors.ErrCodeFontMissing, monoErr, "parse embedded monospace font")
	}
	return newFace(mono, size)
}

// BoldFace returns the embedded bold monospace face at the given point size.
func BoldFace(size float64) (font.Face, error) {
	monoBoldOnce.Do(func() {
		monoBold, monoBoldErr = opentype.Parse(gomonobold.TTF)
	})
	if monoBoldErr != nil {
		return nil, errors.Wrap(errors.ErrCodeFontMissing, monoBoldErr, "parse embedded bold monospace font")
	}
	return newFace(monoBold, size)
}

// FaceFrom builds a face from raw TTF bytes, typically the fetched display font.
func FaceFrom(ttf []byte, size float64) (font.Face, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontMissing, err, "parse display font")
	}
	return newFace(f, size)
}

// Fetch retrieves the display font bytes through the rehosting store.
// The first call downloads from DisplayFontURL; later calls are served from
// disk, so exports keep working offline after the initial run.
func Fetch(ctx context.Context, store *httputil.Store) ([]byte, error) {
	data, err := store.Fetch(ctx, DisplayFontURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch display font")
	}
	return data, nil
}

func newFace(f *opentype.Font, size float64) (font.Face, error) {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontMissing, err, "build font face at %gpt", size)
	}
	return face, nil
}
