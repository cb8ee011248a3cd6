// Package svgcard implements the filter-graph effects backend: a vector
// rendition of the profile card where the CRT artifacts are declared as an
// SVG filter chain instead of computed per pixel. The output is resolution
// independent and self-contained; an embedded image travels as a data URI.
package svgcard

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/watanaberin/retro-bio/pkg/fonts"
	"github.com/watanaberin/retro-bio/pkg/profile"
	"github.com/watanaberin/retro-bio/pkg/render/crt"
	"github.com/watanaberin/retro-bio/pkg/render/layout"
)

// Phosphor hues of the vector card. The vector background is a touch greener
// than the raster one so the filter chain has signal to grade.
const (
	colorPhosphor   = "#33ff00"
	colorDim        = "#1a8000"
	colorBright     = "#ccffcc"
	colorBackground = "#020802"
)

var swatchColors = [6]string{"#ff3333", "#ffff33", "#33ff33", "#33ffff", "#3333ff", "#ff33ff"}

// Option configures a render.
type Option func(*renderer)

type renderer struct {
	imageURI  string
	blurLevel float64
	showGrid  bool
}

// WithImage embeds the profile image as a pre-encoded data URI.
func WithImage(dataURI string) Option { return func(r *renderer) { r.imageURI = dataURI } }

// WithBlur applies a global softening blur of the given deviation.
func WithBlur(level float64) Option { return func(r *renderer) { r.blurLevel = level } }

// WithGrid draws the faint background grid.
func WithGrid() Option { return func(r *renderer) { r.showGrid = true } }

// Render produces the vector card for a profile. Effect coefficients with no
// declarative equivalent (curvature, chromatic aberration, flicker) are
// ignored; the rest map onto filter primitives and overlay opacities.
func Render(p profile.Profile, cfg crt.Config, opts ...Option) []byte {
	r := renderer{}
	for _, opt := range opts {
		opt(&r)
	}
	cfg = cfg.Clamp()
	g := layout.Compute(p, r.imageURI != "")

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`+"\n",
		g.Width, g.Height, g.Width, g.Height)

	renderDefs(&buf, cfg, r.blurLevel)

	openGroup(&buf, r.blurLevel)
	fmt.Fprintf(&buf, `  <rect width="%.0f" height="%.0f" fill="%s"/>`+"\n", g.Width, g.Height, colorBackground)
	if r.showGrid {
		renderGrid(&buf, g)
	}
	if r.imageURI != "" {
		renderImage(&buf, g, r.imageURI)
	}
	renderText(&buf, g, p)
	renderPalette(&buf, g)
	renderPrompt(&buf, g)
	renderOverlays(&buf, g, cfg)
	buf.WriteString("  </g>\n")

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func openGroup(buf *bytes.Buffer, blurLevel float64) {
	if blurLevel > 0 {
		buf.WriteString(`  <g filter="url(#global-blur)">` + "\n")
		return
	}
	buf.WriteString("  <g>\n")
}

// renderDefs declares the filter chain: glow for labels, text-glow for the
// header, the scanline pattern, the monitor-green color grade for embedded
// images, static fractal noise, the vignette gradient, and the optional
// global blur.
func renderDefs(buf *bytes.Buffer, cfg crt.Config, blurLevel float64) {
	buf.WriteString("  <defs>\n")

	buf.WriteString(`    <filter id="glow" x="-50%" y="-50%" width="200%" height="200%">
      <feGaussianBlur stdDeviation="4" result="blur"/>
      <feMerge>
        <feMergeNode in="blur"/>
        <feMergeNode in="SourceGraphic"/>
      </feMerge>
    </filter>
    <filter id="text-glow" x="-50%" y="-50%" width="200%" height="200%">
      <feGaussianBlur stdDeviation="2" result="blur"/>
      <feMerge>
        <feMergeNode in="blur"/>
        <feMergeNode in="SourceGraphic"/>
      </feMerge>
    </filter>
    <filter id="monitor-green">
      <feColorMatrix type="matrix" values="0.1 0.4 0.1 0 0  0.2 0.8 0.2 0 0  0.05 0.2 0.05 0 0  0 0 0 1 0"/>
    </filter>
    <filter id="noise">
      <feTurbulence type="fractalNoise" baseFrequency="0.85" numOctaves="3" stitchTiles="stitch"/>
      <feColorMatrix type="matrix" values="0 0 0 0 0.2  0 0 0 0 1  0 0 0 0 0.2  0 0 0 0.5 0"/>
    </filter>
`)

	// Scanline pattern: one dark band every four units, depth from config.
	fmt.Fprintf(buf, `    <pattern id="scanlines" width="1" height="4" patternUnits="userSpaceOnUse">
      <rect width="1" height="2" fill="#000000" fill-opacity="%.3f"/>
    </pattern>
`, cfg.ScanlineIntensity)

	// Vignette: transparent center falling to black toward the edges.
	fmt.Fprintf(buf, `    <radialGradient id="vignette" cx="50%%" cy="50%%" r="%.0f%%">
      <stop offset="60%%" stop-color="#000000" stop-opacity="0"/>
      <stop offset="100%%" stop-color="#000000" stop-opacity="0.8"/>
    </radialGradient>
`, 50+cfg.VignetteSize*50)

	if blurLevel > 0 {
		fmt.Fprintf(buf, `    <filter id="global-blur"><feGaussianBlur stdDeviation="%.2f"/></filter>
`, blurLevel)
	}

	buf.WriteString("  </defs>\n")
}

func renderGrid(buf *bytes.Buffer, g layout.Geometry) {
	buf.WriteString(`    <g stroke="` + colorPhosphor + `" stroke-opacity="0.15" stroke-width="0.5">` + "\n")
	for x := 0.0; x <= g.Width; x += layout.GridSpacing {
		fmt.Fprintf(buf, `      <line x1="%.0f" y1="0" x2="%.0f" y2="%.0f"/>`+"\n", x, x, g.Height)
	}
	for y := 0.0; y <= g.Height; y += layout.GridSpacing {
		fmt.Fprintf(buf, `      <line x1="0" y1="%.0f" x2="%.0f" y2="%.0f"/>`+"\n", y, g.Width, y)
	}
	buf.WriteString("    </g>\n")
}

func renderImage(buf *bytes.Buffer, g layout.Geometry, uri string) {
	fmt.Fprintf(buf, `    <image href="%s" x="%.0f" y="%.0f" width="%.0f" height="%.0f" preserveAspectRatio="xMidYMid slice" filter="url(#monitor-green)"/>`+"\n",
		escape(uri), g.ImageX, g.ImageY, layout.ImageWidth, layout.ImageHeight)
	fmt.Fprintf(buf, `    <rect x="%.0f" y="%.0f" width="%.0f" height="%.0f" fill="none" stroke="%s" stroke-opacity="0.5" stroke-dasharray="2 4"/>`+"\n",
		g.ImageX-5, g.ImageY-5, layout.ImageWidth+10, layout.ImageHeight+10, colorPhosphor)
	// Local scanlines over the image slot.
	fmt.Fprintf(buf, `    <rect x="%.0f" y="%.0f" width="%.0f" height="%.0f" fill="url(#scanlines)"/>`+"\n",
		g.ImageX, g.ImageY, layout.ImageWidth, layout.ImageHeight)
}

func renderText(buf *bytes.Buffer, g layout.Geometry, p profile.Profile) {
	fontAttr := fmt.Sprintf(`font-family="%s"`, fonts.FallbackFontFamily)

	// Header at 1.5x body size, glowing.
	fmt.Fprintf(buf, `    <text x="%.0f" y="%.0f" %s font-size="%.0f" font-weight="bold" fill="%s" filter="url(#text-glow)">%s</text>`+"\n",
		g.TextStartX, g.TextStartY, fontAttr, layout.FontSize*1.5, colorBright, escape(p.Username))
	fmt.Fprintf(buf, `    <line x1="%.0f" y1="%.0f" x2="%.0f" y2="%.0f" stroke="%s" stroke-width="2"/>`+"\n",
		g.TextStartX, g.SeparatorY, g.TextStartX+g.TextWidth, g.SeparatorY, colorDim)

	for i, l := range p.Lines {
		y := g.LineY(i)
		fmt.Fprintf(buf, `    <text x="%.0f" y="%.0f" %s font-size="%.0f" font-weight="bold" fill="%s" filter="url(#glow)">%s:</text>`+"\n",
			g.TextStartX, y, fontAttr, layout.FontSize, colorPhosphor, escape(l.Label))
		valueX := g.TextStartX + float64(len(l.Label)+2)*layout.CharWidth
		fmt.Fprintf(buf, `    <text x="%.0f" y="%.0f" %s font-size="%.0f" fill="%s">%s</text>`+"\n",
			valueX, y, fontAttr, layout.FontSize, colorBright, escape(l.Value))
	}

	for i, line := range p.BioLines() {
		fmt.Fprintf(buf, `    <text x="%.0f" y="%.0f" %s font-size="%.0f" fill="%s" fill-opacity="0.9">%s</text>`+"\n",
			g.TextStartX, g.BioY(i), fontAttr, layout.FontSize, colorPhosphor, escape(line))
	}
}

func renderPalette(buf *bytes.Buffer, g layout.Geometry) {
	for i, c := range swatchColors {
		fmt.Fprintf(buf, `    <rect x="%.0f" y="%.0f" width="35" height="15" fill="%s" fill-opacity="0.8"/>`+"\n",
			g.TextStartX+float64(i)*35, g.PaletteY, c)
	}
}

func renderPrompt(buf *bytes.Buffer, g layout.Geometry) {
	fmt.Fprintf(buf, `    <text x="%.0f" y="%.0f" font-family="%s" font-size="%.0f">`+
		`<tspan fill="%s" fill-opacity="0.7">root@system:</tspan><tspan fill="%s"> ~ $ _</tspan></text>`+"\n",
		layout.Padding, g.PromptY, fonts.FallbackFontFamily, layout.FontSize, colorPhosphor, colorPhosphor)
}

// renderOverlays stacks the whole-screen effect layers: scanlines, vignette,
// noise, and the bezel stroke.
func renderOverlays(buf *bytes.Buffer, g layout.Geometry, cfg crt.Config) {
	fmt.Fprintf(buf, `    <rect width="%.0f" height="%.0f" fill="url(#scanlines)"/>`+"\n", g.Width, g.Height)
	fmt.Fprintf(buf, `    <rect width="%.0f" height="%.0f" fill="url(#vignette)"/>`+"\n", g.Width, g.Height)
	if cfg.NoiseStrength > 0 {
		fmt.Fprintf(buf, `    <rect width="%.0f" height="%.0f" filter="url(#noise)" opacity="%.3f"/>`+"\n",
			g.Width, g.Height, cfg.NoiseStrength)
	}
	fmt.Fprintf(buf, `    <rect x="2" y="2" width="%.0f" height="%.0f" fill="none" stroke="%s" stroke-opacity="0.1" stroke-width="4"/>`+"\n",
		g.Width-4, g.Height-4, colorPhosphor)
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
