// Package layout implements the card layout engine.
//
// The engine is a pure function from (profile, image presence) to canvas
// dimensions and element positions. It uses a monospace-width approximation
// (a fixed per-character width) rather than true text measurement, which is
// acceptable because the rendering font is monospaced.
//
// Two geometries exist: [Compute] keeps width and height independent (used by
// the vector backend), while [ComputeSquare] forces a square canvas and
// centers the content within it (used by the raster texture backend — a
// deliberate quirk of that output path, not a bug).
package layout

import "github.com/watanaberin/retro-bio/pkg/profile"

// Layout constants, in user units (pixels at 1x).
const (
	// Padding is the outer margin on every side.
	Padding = 40.0

	// Gap separates the image slot from the text column.
	Gap = 40.0

	// FontSize is the body text size. The header renders at 1.5x in the
	// vector backend.
	FontSize = 24.0

	// LineHeight is the vertical advance per text line.
	LineHeight = 32.0

	// CharWidth is the monospace per-character width estimate.
	CharWidth = 14.0

	// ImageWidth and ImageHeight define the fixed image slot.
	ImageWidth  = 300.0
	ImageHeight = 300.0

	// MinTextWidth floors the text column so an empty profile never
	// collapses the canvas.
	MinTextWidth = 450.0

	// HeaderAllowance reserves room for the username header and separator.
	HeaderAllowance = LineHeight * 2

	// FooterAllowance reserves room for the palette strip and prompt.
	FooterAllowance = 100.0

	// GridSpacing is the pitch of the optional background grid.
	GridSpacing = 40.0
)

// Geometry holds the computed canvas size and the position of every drawable
// element. All positions are in user units; renderers draw at them directly.
type Geometry struct {
	Width  float64
	Height float64

	HasImage     bool
	LineCount    int
	BioLineCount int

	// TextStartX is the left edge of the text column: Padding, shifted
	// right past the image slot when an image is present.
	TextStartX float64

	// TextStartY is the header position.
	TextStartY float64

	// TextWidth is the text column width (floored at MinTextWidth).
	TextWidth float64

	// ImageX, ImageY position the image slot (meaningful when HasImage).
	ImageX, ImageY float64

	// SeparatorY is the y of the dashed rule under the header.
	SeparatorY float64

	// BioStartY is the y of the first bio line.
	BioStartY float64

	// PaletteY is the y of the decorative swatch strip.
	PaletteY float64

	// PromptY is the y of the command-prompt footer.
	PromptY float64
}

// LineY returns the y position of attribute line i.
func (g Geometry) LineY(i int) float64 {
	return g.TextStartY + HeaderAllowance + LineHeight*float64(i)
}

// BioY returns the y position of bio line i.
func (g Geometry) BioY(i int) float64 {
	return g.BioStartY + LineHeight*float64(i)
}

// Compute derives the canvas geometry for a profile. It is deterministic and
// side-effect free; width and height grow monotonically with content length
// and never fall below the minimums, even for an entirely empty profile.
func Compute(p profile.Profile, hasImage bool) Geometry {
	textStartX := Padding
	if hasImage {
		textStartX = Padding + ImageWidth + Gap
	}
	textStartY := Padding + 20

	textWidth := float64(p.MaxLineLength()) * CharWidth
	if textWidth < MinTextWidth {
		textWidth = MinTextWidth
	}
	width := textStartX + textWidth + Padding

	bioLines := len(p.BioLines())
	linesHeight := float64(len(p.Lines)) * LineHeight
	bioHeight := 0.0
	if p.HasBio() {
		bioHeight = float64(bioLines)*LineHeight + LineHeight
	}
	textContentHeight := HeaderAllowance + linesHeight + bioHeight + FooterAllowance

	imageHeight := 0.0
	if hasImage {
		imageHeight = ImageHeight
	}
	height := max(imageHeight+Padding*2, textContentHeight+Padding)

	return Geometry{
		Width:        width,
		Height:       height,
		HasImage:     hasImage,
		LineCount:    len(p.Lines),
		BioLineCount: bioLines,
		TextStartX:   textStartX,
		TextStartY:   textStartY,
		TextWidth:    textWidth,
		ImageX:       Padding,
		ImageY:       Padding,
		SeparatorY:   textStartY + 15,
		BioStartY:    textStartY + HeaderAllowance + linesHeight + LineHeight,
		PaletteY:     height - 40,
		PromptY:      height - 15,
	}
}

// Square is the square-forced geometry used by the raster texture backend.
// The base geometry is centered within a Size×Size canvas; PaletteY and
// PromptY are recomputed against the square edge, matching the observed
// behavior of that output path.
type Square struct {
	Geometry

	// Size is the square edge: max(Width, Height) of the base geometry.
	Size float64

	// OffsetX, OffsetY center the base geometry within the square.
	OffsetX, OffsetY float64
}

// ComputeSquare derives the square-forced raster geometry.
func ComputeSquare(p profile.Profile, hasImage bool) Square {
	g := Compute(p, hasImage)
	size := max(g.Width, g.Height)
	sq := Square{
		Geometry: g,
		Size:     size,
		OffsetX:  (size - g.Width) / 2,
		OffsetY:  (size - g.Height) / 2,
	}
	sq.Geometry.PaletteY = size - 60
	sq.Geometry.PromptY = size - 40
	return sq
}
