package crt

import (
	"image"
	"math"
)

// Apply runs the CRT pass over a content texture at synthetic time t and
// returns a new image of the same dimensions. src is read-only; calling Apply
// with the same (src, t, cfg) always produces identical output, which is what
// makes animation exports reproducible.
//
// The pass, per pixel in normalized coordinates uv:
//  1. Barrel curvature remaps uv; pixels remapped outside [0,1] render black
//     (the rounded-screen clipping).
//  2. Chromatic aberration samples red at +RGBOffset and blue at -RGBOffset.
//  3. Scanlines darken on a sine grating that drifts at 20 cycles per time
//     unit, independent of ScanlineCount.
//  4. Vignette falls off smoothly between VignetteSize+0.2 and
//     VignetteSize-VignetteRoundness from center.
//  5. Hash noise scaled by NoiseStrength is added.
//  6. Flicker modulates the whole frame at 30 rad per time unit.
//  7. BrightnessBoost multiplies the result.
func Apply(src *image.RGBA, t float64, cfg Config) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	aspect := float64(w) / float64(h)

	flicker := 1 - cfg.FlickerIntensity*0.5 + cfg.FlickerIntensity*math.Sin(t*30)

	for py := 0; py < h; py++ {
		qy := (float64(py) + 0.5) / float64(h)
		for px := 0; px < w; px++ {
			qx := (float64(px) + 0.5) / float64(w)

			ux, uy := curve(qx, qy, aspect, cfg.CurveIntensity)
			i := dst.PixOffset(px, py)
			if ux < 0 || ux > 1 || uy < 0 || uy > 1 {
				dst.Pix[i+3] = 0xff
				continue
			}

			r, _, _ := sample(src, ux+cfg.RGBOffset, uy)
			_, g, _ := sample(src, ux, uy)
			_, _, bl := sample(src, ux-cfg.RGBOffset, uy)

			scan := math.Sin((uy*cfg.ScanlineCount + t*20) * 2 * math.Pi)
			scanEffect := 1 - cfg.ScanlineIntensity*(scan*0.5+0.5)
			r *= scanEffect
			g *= scanEffect
			bl *= scanEffect

			dist := math.Hypot(ux-0.5, uy-0.5)
			vig := smoothstep(cfg.VignetteSize+0.2, cfg.VignetteSize-cfg.VignetteRoundness, dist)
			r *= vig
			g *= vig
			bl *= vig

			n := noise(ux, uy, t) * cfg.NoiseStrength
			r += n
			g += n
			bl += n

			boost := flicker * cfg.BrightnessBoost
			dst.Pix[i+0] = quantize(r * boost)
			dst.Pix[i+1] = quantize(g * boost)
			dst.Pix[i+2] = quantize(bl * boost)
			dst.Pix[i+3] = 0xff
		}
	}
	return dst
}

// curve applies the barrel distortion remap:
// uv' = uv + uv·(uv.yx/aspect)²·intensity, in centered [-1,1] space.
func curve(x, y, aspect, intensity float64) (float64, float64) {
	cx := (x - 0.5) * 2
	cy := (y - 0.5) * 2
	ox := cy / aspect
	oy := cx
	cx += cx * ox * ox * intensity
	cy += cy * oy * oy * intensity
	return cx*0.5 + 0.5, cy*0.5 + 0.5
}

// sample reads the texture with bilinear filtering and clamp-to-edge
// addressing, returning channels in [0,1].
func sample(src *image.RGBA, u, v float64) (r, g, b float64) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// Texel centers sit at (i+0.5)/w, so a uv produced from a pixel center
	// maps back onto that exact texel and the zero-effect pass is lossless.
	fx := clamp(u*float64(w)-0.5, 0, float64(w-1))
	fy := clamp(v*float64(h)-0.5, 0, float64(h-1))
	x0 := int(fx)
	y0 := int(fy)
	x1 := min(x0+1, w-1)
	y1 := min(y0+1, h-1)
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	r00, g00, b00 := texel(src, x0, y0)
	r10, g10, b10 := texel(src, x1, y0)
	r01, g01, b01 := texel(src, x0, y1)
	r11, g11, b11 := texel(src, x1, y1)

	r = lerp(lerp(r00, r10, tx), lerp(r01, r11, tx), ty)
	g = lerp(lerp(g00, g10, tx), lerp(g01, g11, tx), ty)
	b = lerp(lerp(b00, b10, tx), lerp(b01, b11, tx), ty)
	return r, g, b
}

func texel(src *image.RGBA, x, y int) (r, g, b float64) {
	i := src.PixOffset(src.Bounds().Min.X+x, src.Bounds().Min.Y+y)
	return float64(src.Pix[i]) / 255, float64(src.Pix[i+1]) / 255, float64(src.Pix[i+2]) / 255
}

// noise is the classic one-liner shader hash: fract(sin(dot(uv·t, k))·43758.5453).
func noise(u, v, t float64) float64 {
	s := math.Sin(u*t*12.9898+v*t*78.233) * 43758.5453
	return s - math.Floor(s)
}

// smoothstep matches GLSL semantics and tolerates edge0 > edge1, which the
// vignette relies on for its inverted falloff.
func smoothstep(edge0, edge1, x float64) float64 {
	t := clamp((x-edge0)/(edge1-edge0), 0, 1)
	return t * t * (3 - 2*t)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func quantize(v float64) uint8 {
	return uint8(clamp(v, 0, 1)*255 + 0.5)
}
