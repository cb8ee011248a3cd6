// Package export implements the animation capture pipeline and still-image
// export. A capture renders a fixed number of frames at evenly spaced
// synthetic times, downsamples each one, and assembles them into an animated
// GIF; a still renders a single frame to PNG.
package export

import (
	"math"

	"github.com/watanaberin/retro-bio/pkg/errors"
)

// Export defaults.
const (
	DefaultScale    = 0.25
	DefaultFPS      = 10.0
	DefaultDuration = 2.0
)

// Settings are the user-tunable capture parameters.
type Settings struct {
	// Scale is the output downsampling factor in (0, 1].
	Scale float64 `json:"scale" toml:"scale"`

	// FPS is the capture rate in frames per second.
	FPS float64 `json:"fps" toml:"fps"`

	// Duration is the animation length in seconds.
	Duration float64 `json:"duration" toml:"duration"`
}

// DefaultSettings returns the tuned capture defaults: a quarter-resolution,
// two-second loop at ten frames per second.
func DefaultSettings() Settings {
	return Settings{Scale: DefaultScale, FPS: DefaultFPS, Duration: DefaultDuration}
}

// Validate rejects settings that cannot drive a capture.
func (s Settings) Validate() error {
	if s.Scale <= 0 || s.Scale > 1 {
		return errors.New(errors.ErrCodeInvalidSettings, "scale %g out of range (0, 1]", s.Scale)
	}
	if s.FPS <= 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "fps %g must be positive", s.FPS)
	}
	if s.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "duration %g must be positive", s.Duration)
	}
	return nil
}

// FrameCount is the total number of frames in a capture: fps x duration,
// rounded to the nearest whole frame, never less than one.
func (s Settings) FrameCount() int {
	n := int(math.Round(s.FPS * s.Duration))
	if n < 1 {
		return 1
	}
	return n
}

// FrameTime returns the synthetic time of frame i: frames advance by 1/fps
// so effect phases move exactly as they would on a live screen.
func (s Settings) FrameTime(i int) float64 {
	return float64(i) / s.FPS
}

// DelayCS is the per-frame GIF delay in centiseconds (the GIF timebase),
// rounded from 100/fps.
func (s Settings) DelayCS() int {
	d := int(math.Round(100 / s.FPS))
	if d < 1 {
		return 1
	}
	return d
}

// OutputDim scales a source dimension to the output size, rounding to the
// nearest pixel with a floor of one.
func (s Settings) OutputDim(dim int) int {
	n := int(math.Round(float64(dim) * s.Scale))
	if n < 1 {
		return 1
	}
	return n
}
