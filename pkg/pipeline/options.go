// Package pipeline runs the complete card generation flow: load inputs,
// compute layout, paint the content texture, apply effects, and encode the
// requested output formats. CLI and server share this package so every entry
// point produces identical artifacts.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Ingest: validate the profile and decode the optional image
//  2. Layout: compute element positions from the profile's content
//  3. Render: paint the content texture (raster) or emit markup (vector)
//  4. Export: apply the effect pass and encode SVG, PNG, or GIF artifacts
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Profile: profile.Default(),
//	    Formats: []string{pipeline.FormatGIF},
//	})
//	gif := result.Artifacts[pipeline.FormatGIF]
package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/watanaberin/retro-bio/pkg/errors"
	"github.com/watanaberin/retro-bio/pkg/export"
	"github.com/watanaberin/retro-bio/pkg/profile"
	"github.com/watanaberin/retro-bio/pkg/render/content"
	"github.com/watanaberin/retro-bio/pkg/render/crt"
)

// Format constants for output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatGIF = "gif"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatGIF: true,
}

// Options contains all configuration for a pipeline run. The struct
// serializes to JSON for server requests.
type Options struct {
	// Ingest options
	Profile   profile.Profile `json:"profile"`
	ImagePath string          `json:"image_path,omitempty"`

	// Render options
	Effect    crt.Config `json:"effect"`
	Time      float64    `json:"time,omitempty"`       // synthetic time for still output
	BlurLevel float64    `json:"blur_level,omitempty"` // vector-only global blur

	// Export options
	Formats []string        `json:"formats,omitempty"`
	Export  export.Settings `json:"export,omitempty"`

	// Refresh bypasses the artifact cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Palette     content.Palette        `json:"-"`
	DisplayFont []byte                 `json:"-"`
	Logger      *log.Logger            `json:"-"`
	OnFrame     func(frame, total int) `json:"-"` // capture progress callback

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, gif)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Idempotent; later calls are no-ops.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.Profile.Validate(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}

	// A zero effect config means "use the defaults"; explicit values are
	// clamped into their supported ranges rather than rejected.
	if o.Effect == (crt.Config{}) {
		o.Effect = crt.DefaultConfig()
	}
	o.Effect = o.Effect.Clamp()

	if o.Export == (export.Settings{}) {
		o.Export = export.DefaultSettings()
	}
	if needsAnimation(o.Formats) {
		if err := o.Export.Validate(); err != nil {
			return err
		}
	}
	if o.Time < 0 {
		return errors.New(errors.ErrCodeInvalidSettings, "time %g must not be negative", o.Time)
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func needsAnimation(formats []string) bool {
	for _, f := range formats {
		if f == FormatGIF {
			return true
		}
	}
	return false
}

func needsRaster(formats []string) bool {
	for _, f := range formats {
		if f == FormatPNG || f == FormatGIF {
			return true
		}
	}
	return false
}
