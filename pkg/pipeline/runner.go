package pipeline

import (
	"context"
	"encoding/json"
	"image"
	"time"

	"github.com/charmbracelet/log"

	"github.com/watanaberin/retro-bio/pkg/cache"
	"github.com/watanaberin/retro-bio/pkg/errors"
	"github.com/watanaberin/retro-bio/pkg/export"
	"github.com/watanaberin/retro-bio/pkg/ingest"
	"github.com/watanaberin/retro-bio/pkg/observability"
	"github.com/watanaberin/retro-bio/pkg/profile"
	"github.com/watanaberin/retro-bio/pkg/render/content"
	"github.com/watanaberin/retro-bio/pkg/render/crt"
	"github.com/watanaberin/retro-bio/pkg/render/layout"
	"github.com/watanaberin/retro-bio/pkg/render/svgcard"
)

// Runner executes the pipeline with artifact caching. It is stateless except
// for the cache, logger, and the single-capture exporter; one Runner serves
// many concurrent renders, but at most one GIF capture runs at a time.
type Runner struct {
	Cache    cache.Cache
	Logger   *log.Logger
	exporter *export.Exporter
}

// NewRunner creates a runner. A nil cache disables caching; a nil logger
// falls back to the default logger.
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Logger:   logger,
		exporter: export.NewExporter(),
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Geometry is the computed card layout.
	Geometry layout.Geometry

	// Artifacts contains encoded outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing information.
	Stats Stats

	// CacheHits records which formats were served from the cache.
	CacheHits map[string]bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LayoutTime time.Duration
	PaintTime  time.Duration
	RenderTime time.Duration
	FrameCount int
}

// ExportState reports the state of the runner's animation capture.
func (r *Runner) ExportState() export.State {
	return r.exporter.State()
}

// Execute runs the complete pipeline for the requested formats.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	var img image.Image
	if opts.ImagePath != "" {
		var err error
		if img, err = ingest.Load(opts.ImagePath); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Artifacts: make(map[string][]byte),
		CacheHits: make(map[string]bool),
	}

	layoutStart := time.Now()
	result.Geometry = layout.Compute(opts.Profile, img != nil)
	result.Stats.LayoutTime = time.Since(layoutStart)
	observability.Render().OnLayoutComplete(ctx, result.Geometry.Width, result.Geometry.Height, result.Stats.LayoutTime)

	logger.Debug("computed layout",
		"width", result.Geometry.Width,
		"height", result.Geometry.Height,
		"duration", result.Stats.LayoutTime)

	keys := r.artifactKeys(opts, img)

	// Raster formats share one content texture; paint it once. The paint is
	// skipped when every raster artifact is already cached, but a cache
	// entry can expire between that precheck and the per-format read below,
	// so a miss paints lazily rather than rendering from a nil texture.
	var texture *image.RGBA
	paintTexture := func() error {
		if texture != nil {
			return nil
		}
		paintStart := time.Now()
		sq := layout.ComputeSquare(opts.Profile, img != nil)
		var err error
		texture, err = content.Paint(opts.Profile, img, sq, content.Options{
			ShowGrid:    opts.Effect.ShowGrid,
			Palette:     opts.Palette,
			DisplayFont: opts.DisplayFont,
		})
		result.Stats.PaintTime = time.Since(paintStart)
		observability.Render().OnPaintComplete(ctx, boundsDx(texture), boundsDy(texture), result.Stats.PaintTime, err)
		if err != nil {
			return err
		}
		logger.Debug("painted content texture", "duration", result.Stats.PaintTime)
		return nil
	}
	if needsRaster(opts.Formats) && !r.allCached(ctx, opts, keys) {
		if err := paintTexture(); err != nil {
			return nil, err
		}
	}

	renderStart := time.Now()
	for _, format := range opts.Formats {
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, keys[format]); err == nil && hit {
				result.Artifacts[format] = data
				result.CacheHits[format] = true
				continue
			}
		}

		if format != FormatSVG {
			if err := paintTexture(); err != nil {
				return nil, err
			}
		}
		data, err := r.renderFormat(ctx, format, opts, img, texture, result)
		if err != nil {
			return nil, err
		}
		result.Artifacts[format] = data
		_ = r.Cache.Set(ctx, keys[format], data, cache.TTLFor(format))
	}
	result.Stats.RenderTime = time.Since(renderStart)

	logger.Info("rendered card",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)
	return result, nil
}

func (r *Runner) renderFormat(ctx context.Context, format string, opts Options, img image.Image, texture *image.RGBA, result *Result) ([]byte, error) {
	switch format {
	case FormatSVG:
		svgOpts := []svgcard.Option{}
		if img != nil {
			uri, err := ingest.DataURI(img)
			if err != nil {
				return nil, err
			}
			svgOpts = append(svgOpts, svgcard.WithImage(uri))
		}
		if opts.BlurLevel > 0 {
			svgOpts = append(svgOpts, svgcard.WithBlur(opts.BlurLevel))
		}
		if opts.Effect.ShowGrid {
			svgOpts = append(svgOpts, svgcard.WithGrid())
		}
		return svgcard.Render(opts.Profile, opts.Effect, svgOpts...), nil

	case FormatPNG:
		return export.Still(ctx, r.frameSource(ctx, texture, opts.Effect), opts.Time)

	case FormatGIF:
		src := r.frameSource(ctx, texture, opts.Effect)
		data, err := r.exporter.GIF(ctx, src, opts.Export, func(frame, total int) {
			result.Stats.FrameCount = total
			if opts.OnFrame != nil {
				opts.OnFrame(frame, total)
			}
			opts.Logger.Debug("captured frame", "frame", frame, "total", total)
		})
		if err != nil {
			return nil, err
		}
		return data, nil

	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q", format)
	}
}

// frameSource adapts the painted texture and effect config into an export
// source: each frame is the CRT pass applied at that frame's time.
func (r *Runner) frameSource(ctx context.Context, texture *image.RGBA, cfg crt.Config) export.Source {
	return export.SourceFunc(func(t float64) (*image.RGBA, error) {
		start := time.Now()
		frame := crt.Apply(texture, t, cfg)
		observability.Render().OnEffectsApplied(ctx, t, time.Since(start))
		return frame, nil
	})
}

// artifactKeys computes the cache key per requested format.
func (r *Runner) artifactKeys(opts Options, img image.Image) map[string]string {
	profileJSON, _ := profile.Marshal(opts.Profile)
	effectJSON, _ := json.Marshal(opts.Effect)

	var imageHash string
	if img != nil {
		// The path identifies the image for cache purposes; decoding the
		// pixels again to hash them would cost more than a repaint.
		imageHash = cache.Hash([]byte(opts.ImagePath))
	}

	keys := make(map[string]string, len(opts.Formats))
	for _, format := range opts.Formats {
		keyOpts := cache.CardKeyOpts{
			ProfileHash: cache.Hash(profileJSON),
			ImageHash:   imageHash,
			EffectHash:  cache.Hash(effectJSON),
			Format:      format,
		}
		switch format {
		case FormatSVG:
			keyOpts.BlurLevel = opts.BlurLevel
		case FormatPNG:
			keyOpts.Time = opts.Time
		case FormatGIF:
			keyOpts.Scale = opts.Export.Scale
			keyOpts.FPS = opts.Export.FPS
			keyOpts.Duration = opts.Export.Duration
		}
		keys[format] = cache.CardKey(keyOpts)
	}
	return keys
}

// allCached reports whether every raster format is already in the cache, in
// which case painting the texture can be skipped.
func (r *Runner) allCached(ctx context.Context, opts Options, keys map[string]string) bool {
	if opts.Refresh {
		return false
	}
	for _, format := range opts.Formats {
		if format == FormatSVG {
			continue
		}
		if _, hit, err := r.Cache.Get(ctx, keys[format]); err != nil || !hit {
			return false
		}
	}
	return true
}

func boundsDx(img *image.RGBA) int {
	if img == nil {
		return 0
	}
	return img.Bounds().Dx()
}

func boundsDy(img *image.RGBA) int {
	if img == nil {
		return 0
	}
	return img.Bounds().Dy()
}
