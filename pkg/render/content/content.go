// Package content implements the raster content renderer: it paints a profile
// onto a 2D surface at the positions supplied by the layout engine, producing
// the texture consumed by the CRT shader pass.
//
// The renderer is pure with respect to its inputs — the same (profile, image,
// geometry, options) always produce the same pixels. It paints, in fixed
// z-order: background, optional phosphor-tinted image with dashed border and
// local scanlines, glow underlay, header, separator rule, attribute lines,
// bio lines, optional background grid, decorative palette swatches, command
// prompt, and the bezel stroke.
package content

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/watanaberin/retro-bio/pkg/fonts"
	"github.com/watanaberin/retro-bio/pkg/profile"
	"github.com/watanaberin/retro-bio/pkg/render/layout"
)

// DefaultScale is the supersampling factor of the content texture.
const DefaultScale = 2.0

// glowSigma is the blur radius of the glow underlay beneath glowing text.
const glowSigma = 4.0

// baselineShift converts top-anchored layout positions to text baselines.
// An approximation of the ascent for the monospace faces in use.
const baselineShift = layout.FontSize * 0.8

// Palette holds the phosphor hues of the composition.
type Palette struct {
	Phosphor   color.NRGBA // dominant foreground
	Dim        color.NRGBA // separator rule, muted strokes
	Bright     color.NRGBA // values and header
	Background color.NRGBA // canvas fill
}

// DefaultPalette returns the classic terminal-green palette.
func DefaultPalette() Palette {
	return Palette{
		Phosphor:   color.NRGBA{R: 0x33, G: 0xff, B: 0x00, A: 0xff},
		Dim:        color.NRGBA{R: 0x1a, G: 0x80, B: 0x00, A: 0xff},
		Bright:     color.NRGBA{R: 0xcc, G: 0xff, B: 0xcc, A: 0xff},
		Background: color.NRGBA{R: 0x0a, G: 0x0a, B: 0x0a, A: 0xff},
	}
}

// SwatchColors are the six fixed hues of the decorative palette strip.
var SwatchColors = [6]color.NRGBA{
	{R: 0xff, G: 0x33, B: 0x33, A: 0xff},
	{R: 0xff, G: 0xff, B: 0x33, A: 0xff},
	{R: 0x33, G: 0xff, B: 0x33, A: 0xff},
	{R: 0x33, G: 0xff, B: 0xff, A: 0xff},
	{R: 0x33, G: 0x33, B: 0xff, A: 0xff},
	{R: 0xff, G: 0x33, B: 0xff, A: 0xff},
}

// PromptPrefix and PromptSuffix form the command-prompt footer.
const (
	PromptPrefix = "root@system:"
	PromptSuffix = "~ $ _"
)

// Options configures a paint pass.
type Options struct {
	// ShowGrid paints the faint 40-unit background grid.
	ShowGrid bool

	// Palette overrides the default phosphor hues when non-zero.
	Palette Palette

	// Scale is the supersampling factor; 0 means DefaultScale.
	Scale float64

	// DisplayFont is an optional TTF for the display face. Nil falls back
	// to the embedded monospace font.
	DisplayFont []byte
}

func (o Options) scale() float64 {
	if o.Scale <= 0 {
		return DefaultScale
	}
	return o.Scale
}

func (o Options) palette() Palette {
	if o.Palette == (Palette{}) {
		return DefaultPalette()
	}
	return o.Palette
}

// Paint renders the profile onto a fresh square texture. img may be nil.
// It fails with a FONT_UNAVAILABLE error when no usable face can be built;
// callers must treat that as "rendering unsupported" and disable exports.
func Paint(p profile.Profile, img image.Image, sq layout.Square, opts Options) (*image.RGBA, error) {
	scale := opts.scale()
	pal := opts.palette()

	face, err := bodyFace(opts)
	if err != nil {
		return nil, err
	}

	px := int(sq.Size * scale)
	dc := gg.NewContext(px, px)
	dc.Scale(scale, scale)
	dc.SetFontFace(face)

	dc.SetColor(pal.Background)
	dc.Clear()

	ox, oy := sq.OffsetX, sq.OffsetY

	if img != nil {
		paintImage(dc, img, pal, layout.Padding+ox, layout.Padding+oy)
	}

	paintGlowLayer(dc, p, sq, pal, face, scale)
	paintText(dc, p, sq, pal)

	if opts.ShowGrid {
		paintGrid(dc, sq.Size, pal)
	}

	paintPalette(dc, sq, ox)
	paintPrompt(dc, sq, pal, ox)

	// CRT bezel inner glow.
	dc.SetColor(withAlpha(pal.Phosphor, 0x1a))
	dc.SetLineWidth(4)
	dc.DrawRectangle(2, 2, sq.Size-4, sq.Size-4)
	dc.Stroke()

	return imageToRGBA(dc.Image()), nil
}

func bodyFace(opts Options) (font.Face, error) {
	// Faces are sized in layout units; the gg context scale handles
	// supersampling.
	if opts.DisplayFont != nil {
		return fonts.FaceFrom(opts.DisplayFont, layout.FontSize)
	}
	return fonts.Face(layout.FontSize)
}

// paintImage draws the 300x300 image slot: the photo cropped to fill,
// tinted to the phosphor hue, with a dashed border and local scanlines.
func paintImage(dc *gg.Context, img image.Image, pal Palette, x, y float64) {
	fitted := imaging.Fill(img, int(layout.ImageWidth), int(layout.ImageHeight), imaging.Center, imaging.Lanczos)
	tinted := tintPhosphor(fitted, pal.Phosphor)
	dc.DrawImage(tinted, int(x), int(y))

	// Dashed border for the raw-capture look.
	dc.SetColor(withAlpha(pal.Phosphor, 0x80))
	dc.SetLineWidth(1)
	dc.SetDash(2, 4)
	dc.DrawRectangle(x-5, y-5, layout.ImageWidth+10, layout.ImageHeight+10)
	dc.Stroke()
	dc.SetDash()

	// Fine scanlines local to the image region: a screen within the screen.
	dc.SetColor(color.NRGBA{A: 0x1f})
	for yy := 0.0; yy < layout.ImageHeight; yy += 4 {
		dc.DrawRectangle(x, y+yy, layout.ImageWidth, 2)
		dc.Fill()
	}
}

// paintGlowLayer draws the glow-contributing text (header and attribute
// labels) into an offscreen layer, blurs it, and composites it under the
// sharp glyphs drawn afterwards.
func paintGlowLayer(dc *gg.Context, p profile.Profile, sq layout.Square, pal Palette, face font.Face, scale float64) {
	glow := gg.NewContext(dc.Width(), dc.Height())
	glow.Scale(scale, scale)
	glow.SetFontFace(face)
	glow.SetColor(pal.Phosphor)

	ox, oy := sq.OffsetX, sq.OffsetY
	glow.DrawString(p.Username, sq.TextStartX+ox, sq.TextStartY+baselineShift+oy)
	for i, l := range p.Lines {
		glow.DrawString(l.Label+":", sq.TextStartX+ox, sq.LineY(i)+baselineShift+oy)
	}

	blurred := imaging.Blur(glow.Image(), glowSigma)
	dc.Push()
	dc.Identity()
	dc.DrawImage(blurred, 0, 0)
	dc.Pop()
}

func paintText(dc *gg.Context, p profile.Profile, sq layout.Square, pal Palette) {
	ox, oy := sq.OffsetX, sq.OffsetY

	// Header.
	dc.SetColor(pal.Bright)
	dc.DrawString(p.Username, sq.TextStartX+ox, sq.TextStartY+baselineShift+oy)

	// Separator rule under the header.
	dc.SetColor(pal.Dim)
	dc.SetLineWidth(2)
	underlineY := sq.TextStartY + layout.LineHeight + oy
	dc.DrawLine(sq.TextStartX+ox, underlineY, sq.TextStartX+sq.TextWidth+ox, underlineY)
	dc.Stroke()

	// Attribute lines: glowing label, bright value.
	for i, l := range p.Lines {
		y := sq.LineY(i) + baselineShift + oy
		dc.SetColor(pal.Phosphor)
		dc.DrawString(l.Label+":", sq.TextStartX+ox, y)

		labelWidth, _ := dc.MeasureString(l.Label + ": ")
		dc.SetColor(pal.Bright)
		dc.DrawString(l.Value, sq.TextStartX+labelWidth+ox, y)
	}

	// Bio, slightly dimmed.
	dc.SetColor(withAlpha(pal.Phosphor, 0xe6))
	for i, line := range p.BioLines() {
		dc.DrawString(line, sq.TextStartX+ox, sq.BioY(i)+baselineShift+oy)
	}
}

func paintGrid(dc *gg.Context, size float64, pal Palette) {
	dc.SetColor(withAlpha(pal.Phosphor, 0x26))
	dc.SetLineWidth(0.5)
	for x := 0.0; x <= size; x += layout.GridSpacing {
		dc.DrawLine(x, 0, x, size)
		dc.Stroke()
	}
	for y := 0.0; y <= size; y += layout.GridSpacing {
		dc.DrawLine(0, y, size, y)
		dc.Stroke()
	}
}

func paintPalette(dc *gg.Context, sq layout.Square, ox float64) {
	for i, c := range SwatchColors {
		dc.SetColor(withAlpha(c, 0xcc))
		dc.DrawRectangle(sq.TextStartX+float64(i)*35+ox, sq.PaletteY, 35, 15)
		dc.Fill()
	}
}

func paintPrompt(dc *gg.Context, sq layout.Square, pal Palette, ox float64) {
	y := sq.PromptY + baselineShift
	dc.SetColor(withAlpha(pal.Phosphor, 0xb3))
	dc.DrawString(PromptPrefix, layout.Padding+ox, y)

	prefixWidth, _ := dc.MeasureString(PromptPrefix + " ")
	dc.SetColor(pal.Phosphor)
	dc.DrawString(PromptSuffix, layout.Padding+prefixWidth+ox, y)
}

// tintPhosphor applies the monochrome-green screen look: a multiply blend
// with the phosphor hue followed by a 30% screen pass to restore brightness.
func tintPhosphor(img *image.NRGBA, phosphor color.NRGBA) *image.NRGBA {
	pr := float64(phosphor.R) / 255
	pg := float64(phosphor.G) / 255
	pb := float64(phosphor.B) / 255

	out := imaging.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		r := float64(out.Pix[i]) / 255
		g := float64(out.Pix[i+1]) / 255
		b := float64(out.Pix[i+2]) / 255

		// Multiply.
		r *= pr
		g *= pg
		b *= pb

		// Screen at 0.3 alpha.
		r = 1 - (1-r)*(1-0.3*pr)
		g = 1 - (1-g)*(1-0.3*pg)
		b = 1 - (1-b)*(1-0.3*pb)

		out.Pix[i] = uint8(r*255 + 0.5)
		out.Pix[i+1] = uint8(g*255 + 0.5)
		out.Pix[i+2] = uint8(b*255 + 0.5)
	}
	return out
}

func withAlpha(c color.NRGBA, a uint8) color.NRGBA {
	c.A = a
	return c
}

func imageToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}
