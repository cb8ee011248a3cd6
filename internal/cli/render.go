package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/watanaberin/retro-bio/pkg/config"
	"github.com/watanaberin/retro-bio/pkg/export"
	"github.com/watanaberin/retro-bio/pkg/fonts"
	"github.com/watanaberin/retro-bio/pkg/httputil"
	"github.com/watanaberin/retro-bio/pkg/pipeline"
	"github.com/watanaberin/retro-bio/pkg/profile"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string  // output file path (or base path for multiple formats)
	image       string  // profile image path
	time        float64 // synthetic time for still output
	blur        float64 // vector-only global blur level
	noCache     bool    // disable the artifact cache
	refresh     bool    // bypass cached artifacts
	displayFont bool    // fetch and use the display font for raster output
	configPath  string  // config file override
}

// renderCommand creates the render command for generating cards.
//
// Default settings come from the config file (or built-in defaults): the
// tuned CRT coefficients, quarter-resolution two-second captures, and SVG
// output.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [profile.json]",
		Short: "Render a profile card to SVG, PNG, or GIF",
		Long: `Render a profile card in one or more formats.

The profile is read from the given JSON file, from stdin with "-", or the
built-in default profile when omitted. Effect coefficients and export
settings come from the config file and can be overridden per run with flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			formats := parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(formats); err != nil {
				return err
			}
			return c.runRender(cmd, input, formats, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, gif (comma-separated)")
	cmd.Flags().StringVar(&opts.image, "image", "", "profile image (png, jpeg, gif, bmp)")
	cmd.Flags().Float64Var(&opts.time, "time", 0, "synthetic time for still output")
	cmd.Flags().Float64Var(&opts.blur, "blur", 0, "global blur level (svg only)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if cached")
	cmd.Flags().BoolVar(&opts.displayFont, "display-font", false, "fetch the display font for raster output")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/retrobio/config.toml)")

	registerEffectFlags(cmd)
	registerExportFlags(cmd)
	return cmd
}

// registerEffectFlags declares the per-run effect coefficient overrides.
// Defaults shown in help are the tuned values; the actual base is the config
// file, so only flags the user changed are applied.
func registerEffectFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("curve", 0.04, "screen curvature intensity")
	cmd.Flags().Float64("scanline-count", 600, "number of scanlines")
	cmd.Flags().Float64("scanline-intensity", 0.25, "scanline darkening depth")
	cmd.Flags().Float64("rgb-offset", 0.004, "chromatic aberration offset")
	cmd.Flags().Float64("vignette-size", 0.5, "vignette start distance")
	cmd.Flags().Float64("vignette-roundness", 0.1, "vignette edge softness")
	cmd.Flags().Float64("brightness", 1.1, "brightness boost")
	cmd.Flags().Float64("noise", 0.03, "static noise strength")
	cmd.Flags().Float64("flicker", 0.03, "flicker intensity")
	cmd.Flags().Bool("grid", true, "draw the background grid")
}

// registerExportFlags declares the animation capture overrides.
func registerExportFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("scale", export.DefaultScale, "gif output scale (0, 1]")
	cmd.Flags().Float64("fps", export.DefaultFPS, "gif frames per second")
	cmd.Flags().Float64("duration", export.DefaultDuration, "gif duration in seconds")
}

func (c *CLI) runRender(cmd *cobra.Command, input string, formats []string, opts *renderOpts) error {
	logger := c.Logger
	ctx := withLogger(cmd.Context(), logger)

	cfg, err := c.loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	applyEffectFlags(cmd, &cfg)

	p, err := loadProfile(input)
	if err != nil {
		return err
	}

	pal, err := cfg.Palette()
	if err != nil {
		return err
	}

	pipeOpts := pipeline.Options{
		Profile:   p,
		ImagePath: opts.image,
		Effect:    cfg.Effect,
		Export:    cfg.Export,
		Formats:   formats,
		Time:      opts.time,
		BlurLevel: opts.blur,
		Refresh:   opts.refresh,
		Palette:   pal,
		Logger:    logger,
	}

	if opts.displayFont {
		font, err := c.fetchDisplayFont(ctx)
		if err != nil {
			return err
		}
		pipeOpts.DisplayFont = font
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Cache.Close()

	result, err := c.execute(ctx, runner, pipeOpts)
	if err != nil {
		return err
	}

	base := basePath(opts.output, input, p)
	for _, format := range formats {
		path := base + "." + format
		if len(formats) == 1 && opts.output != "" {
			path = opts.output
		}
		if err := os.WriteFile(path, result.Artifacts[format], 0o644); err != nil {
			return err
		}
		printFile(path)
		printStats(format, len(result.Artifacts[format]), result.CacheHits[format])
	}
	return nil
}

// execute runs the pipeline, with a live progress bar for interactive GIF
// captures and a plain run otherwise.
func (c *CLI) execute(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	logger := loggerFromContext(ctx)
	interactive := isatty.IsTerminal(os.Stderr.Fd()) && needsCapture(opts.Formats)
	if !interactive {
		track := newProgress(logger)
		result, err := runner.Execute(ctx, opts)
		if err != nil {
			return nil, err
		}
		track.done(fmt.Sprintf("Rendered %s", strings.Join(opts.Formats, ", ")))
		return result, nil
	}

	prog := tea.NewProgram(NewCaptureModel(opts.Export.FrameCount()), tea.WithOutput(os.Stderr))
	opts.OnFrame = func(frame, total int) {
		prog.Send(frameMsg{frame: frame, total: total})
	}

	var result *pipeline.Result
	var runErr error
	go func() {
		result, runErr = runner.Execute(ctx, opts)
		prog.Send(captureDoneMsg{err: runErr})
	}()

	if _, err := prog.Run(); err != nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}
	return result, nil
}

func needsCapture(formats []string) bool {
	for _, f := range formats {
		if f == pipeline.FormatGIF {
			return true
		}
	}
	return false
}

// fetchDisplayFont retrieves the display font through the local resource
// store, downloading it on first use.
func (c *CLI) fetchDisplayFont(ctx context.Context) ([]byte, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, err
	}
	store, err := httputil.NewStore(filepath.Join(dir, "fonts"))
	if err != nil {
		return nil, err
	}
	sp := newSpinnerWithContext(ctx, "fetching display font")
	sp.Start()
	data, err := fonts.Fetch(ctx, store)
	if err != nil {
		sp.StopWithError("display font unavailable")
		return nil, err
	}
	sp.StopWithSuccess("display font ready")
	return data, nil
}

// loadConfig loads the config file, falling back to defaults when no path is
// configured and the default location is missing.
func (c *CLI) loadConfig(path string) (config.Config, error) {
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			c.Logger.Debug("no config dir, using defaults", "err", err)
			return config.Default(), nil
		}
	}
	return config.Load(path)
}

// applyEffectFlags overrides config values with flags the user set.
func applyEffectFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("curve") {
		cfg.Effect.CurveIntensity, _ = f.GetFloat64("curve")
	}
	if f.Changed("scanline-count") {
		cfg.Effect.ScanlineCount, _ = f.GetFloat64("scanline-count")
	}
	if f.Changed("scanline-intensity") {
		cfg.Effect.ScanlineIntensity, _ = f.GetFloat64("scanline-intensity")
	}
	if f.Changed("rgb-offset") {
		cfg.Effect.RGBOffset, _ = f.GetFloat64("rgb-offset")
	}
	if f.Changed("vignette-size") {
		cfg.Effect.VignetteSize, _ = f.GetFloat64("vignette-size")
	}
	if f.Changed("vignette-roundness") {
		cfg.Effect.VignetteRoundness, _ = f.GetFloat64("vignette-roundness")
	}
	if f.Changed("brightness") {
		cfg.Effect.BrightnessBoost, _ = f.GetFloat64("brightness")
	}
	if f.Changed("noise") {
		cfg.Effect.NoiseStrength, _ = f.GetFloat64("noise")
	}
	if f.Changed("flicker") {
		cfg.Effect.FlickerIntensity, _ = f.GetFloat64("flicker")
	}
	if f.Changed("grid") {
		cfg.Effect.ShowGrid, _ = f.GetBool("grid")
	}
	cfg.Effect = cfg.Effect.Clamp()

	if f.Changed("scale") {
		cfg.Export.Scale, _ = f.GetFloat64("scale")
	}
	if f.Changed("fps") {
		cfg.Export.FPS, _ = f.GetFloat64("fps")
	}
	if f.Changed("duration") {
		cfg.Export.Duration, _ = f.GetFloat64("duration")
	}
}

// basePath derives the output base path: the explicit output (extension
// stripped), the input file name, or the profile's derived filename stem.
func basePath(output, input string, p profile.Profile) string {
	if output != "" {
		ext := filepath.Ext(output)
		if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	if input != "" && input != "-" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	return "retro-profile-" + p.Slug()
}
