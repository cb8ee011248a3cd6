// Package crt implements the shader effects backend: a software per-pixel
// pass that imposes CRT artifacts — screen curvature, chromatic aberration,
// scanlines, vignette, noise, flicker, brightness — on a rendered content
// texture as a continuous function of a synthetic time value.
package crt

// Coefficient ranges. Clamp snaps out-of-range values to these bounds.
const (
	MinCurveIntensity = 0.0
	MaxCurveIntensity = 0.2

	MinScanlineCount = 50.0
	MaxScanlineCount = 1000.0

	MinScanlineIntensity = 0.0
	MaxScanlineIntensity = 1.0

	MinRGBOffset = 0.0
	MaxRGBOffset = 0.02

	MinVignetteSize = 0.0
	MaxVignetteSize = 1.0

	MinVignetteRoundness = 0.0
	MaxVignetteRoundness = 1.0

	MinBrightnessBoost = 0.5
	MaxBrightnessBoost = 2.0

	MinNoiseStrength = 0.0
	MaxNoiseStrength = 0.2

	MinFlickerIntensity = 0.0
	MaxFlickerIntensity = 0.2
)

// Config is the flat record of effect coefficients. It is an immutable value
// passed by value into [Apply]; changing a coefficient takes effect on the
// next rendered frame without re-painting the content texture. ShowGrid is
// the one exception: it is consumed by the content renderer, so toggling it
// requires a content repaint.
type Config struct {
	// CurveIntensity controls barrel distortion of the screen glass.
	CurveIntensity float64 `json:"curveIntensity" toml:"curve_intensity"`

	// ScanlineCount is the number of scanline cycles across the screen.
	ScanlineCount float64 `json:"scanlineCount" toml:"scanline_count"`

	// ScanlineIntensity is the darkening depth of each scanline.
	ScanlineIntensity float64 `json:"scanlineIntensity" toml:"scanline_intensity"`

	// RGBOffset is the horizontal chromatic aberration magnitude in uv units.
	RGBOffset float64 `json:"rgbOffset" toml:"rgb_offset"`

	// VignetteSize is the distance from center where darkening begins.
	VignetteSize float64 `json:"vignetteSize" toml:"vignette_size"`

	// VignetteRoundness softens the vignette edge.
	VignetteRoundness float64 `json:"vignetteRoundness" toml:"vignette_roundness"`

	// BrightnessBoost multiplies the final color.
	BrightnessBoost float64 `json:"brightnessBoost" toml:"brightness_boost"`

	// NoiseStrength scales the additive grain.
	NoiseStrength float64 `json:"noiseStrength" toml:"noise_strength"`

	// FlickerIntensity scales the whole-frame brightness oscillation.
	FlickerIntensity float64 `json:"flickerIntensity" toml:"flicker_intensity"`

	// ShowGrid toggles the faint background grid in the content texture.
	ShowGrid bool `json:"showGrid" toml:"show_grid"`
}

// DefaultConfig returns the tuned default coefficients.
func DefaultConfig() Config {
	return Config{
		CurveIntensity:    0.04,
		ScanlineCount:     600,
		ScanlineIntensity: 0.25,
		RGBOffset:         0.004,
		VignetteSize:      0.5,
		VignetteRoundness: 0.1,
		BrightnessBoost:   1.1,
		NoiseStrength:     0.03,
		FlickerIntensity:  0.03,
		ShowGrid:          true,
	}
}

// Clamp returns a copy with every coefficient snapped into its valid range.
func (c Config) Clamp() Config {
	c.CurveIntensity = clamp(c.CurveIntensity, MinCurveIntensity, MaxCurveIntensity)
	c.ScanlineCount = clamp(c.ScanlineCount, MinScanlineCount, MaxScanlineCount)
	c.ScanlineIntensity = clamp(c.ScanlineIntensity, MinScanlineIntensity, MaxScanlineIntensity)
	c.RGBOffset = clamp(c.RGBOffset, MinRGBOffset, MaxRGBOffset)
	c.VignetteSize = clamp(c.VignetteSize, MinVignetteSize, MaxVignetteSize)
	c.VignetteRoundness = clamp(c.VignetteRoundness, MinVignetteRoundness, MaxVignetteRoundness)
	c.BrightnessBoost = clamp(c.BrightnessBoost, MinBrightnessBoost, MaxBrightnessBoost)
	c.NoiseStrength = clamp(c.NoiseStrength, MinNoiseStrength, MaxNoiseStrength)
	c.FlickerIntensity = clamp(c.FlickerIntensity, MinFlickerIntensity, MaxFlickerIntensity)
	return c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
