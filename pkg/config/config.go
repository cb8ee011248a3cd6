// Package config loads and saves the on-disk TOML configuration: effect
// coefficients, export settings, and optional color overrides.
//
// A missing config file is not an error; defaults apply. Out-of-range effect
// coefficients are clamped on load rather than rejected, so a hand-edited
// file can never push the renderer outside its supported ranges.
package config

import (
	"image/color"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/mazznoer/csscolorparser"

	"github.com/watanaberin/retro-bio/pkg/errors"
	"github.com/watanaberin/retro-bio/pkg/export"
	"github.com/watanaberin/retro-bio/pkg/render/content"
	"github.com/watanaberin/retro-bio/pkg/render/crt"
)

// Config is the root of the TOML document.
type Config struct {
	Effect crt.Config      `toml:"effect"`
	Export export.Settings `toml:"export"`
	Colors Colors          `toml:"colors"`
}

// Colors overrides the phosphor palette. Each field accepts any CSS color
// notation; an empty string keeps the built-in hue.
type Colors struct {
	Phosphor   string `toml:"phosphor"`
	Dim        string `toml:"dim"`
	Bright     string `toml:"bright"`
	Background string `toml:"background"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Effect: crt.DefaultConfig(),
		Export: export.DefaultSettings(),
	}
}

// DefaultPath returns the conventional config location under the user config
// directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "resolve user config dir")
	}
	return filepath.Join(dir, "retrobio", "config.toml"), nil
}

// Load reads the config file at path. A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q in %s", undecoded[0].String(), path)
	}

	cfg.Effect = cfg.Effect.Clamp()
	if err := cfg.Export.Validate(); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "export settings in %s", path)
	}
	if _, err := cfg.Palette(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "create config dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "create config %s", path)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "encode config")
	}
	return nil
}

// Palette resolves the color overrides into a render palette, starting from
// the default terminal green.
func (c Config) Palette() (content.Palette, error) {
	pal := content.DefaultPalette()
	if err := applyColor(&pal.Phosphor, "phosphor", c.Colors.Phosphor); err != nil {
		return content.Palette{}, err
	}
	if err := applyColor(&pal.Dim, "dim", c.Colors.Dim); err != nil {
		return content.Palette{}, err
	}
	if err := applyColor(&pal.Bright, "bright", c.Colors.Bright); err != nil {
		return content.Palette{}, err
	}
	if err := applyColor(&pal.Background, "background", c.Colors.Background); err != nil {
		return content.Palette{}, err
	}
	return pal, nil
}

func applyColor(dst *color.NRGBA, name, spec string) error {
	if spec == "" {
		return nil
	}
	parsed, err := csscolorparser.Parse(spec)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s color %q", name, spec)
	}
	r, g, b, a := parsed.RGBA255()
	*dst = color.NRGBA{R: r, G: g, B: b, A: a}
	return nil
}
