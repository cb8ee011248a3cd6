package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/watanaberin/retro-bio/pkg/cache"
	"github.com/watanaberin/retro-bio/pkg/errors"
	"github.com/watanaberin/retro-bio/pkg/export"
	"github.com/watanaberin/retro-bio/pkg/profile"
	"github.com/watanaberin/retro-bio/pkg/render/crt"
)

// quickExport keeps animation tests fast.
var quickExport = export.Settings{Scale: 0.25, FPS: 2, Duration: 1}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr errors.Code
	}{
		{"empty options", Options{}, ""},
		{"explicit formats", Options{Formats: []string{FormatSVG, FormatPNG}}, ""},
		{"bad format", Options{Formats: []string{"webm"}}, errors.ErrCodeInvalidFormat},
		{"negative time", Options{Time: -1}, errors.ErrCodeInvalidSettings},
		{"bad export for gif", Options{Formats: []string{FormatGIF}, Export: export.Settings{Scale: 5, FPS: 1, Duration: 1}}, errors.ErrCodeInvalidSettings},
		{"control chars in profile", Options{Profile: profile.Profile{Username: "a\x00b"}}, errors.ErrCodeInvalidProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if errors.GetCode(err) != tt.wantErr {
				t.Errorf("code = %q, want %q (err=%v)", errors.GetCode(err), tt.wantErr, err)
			}
		})
	}

	var o Options
	if err := o.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(o.Formats) != 1 || o.Formats[0] != FormatSVG {
		t.Errorf("default formats = %v", o.Formats)
	}
	if o.Effect != crt.DefaultConfig() {
		t.Error("zero effect config should default")
	}
	if o.Export != export.DefaultSettings() {
		t.Error("zero export settings should default")
	}
}

func TestExecuteSVG(t *testing.T) {
	runner := NewRunner(nil, nil)
	result, err := runner.Execute(context.Background(), Options{Profile: profile.Default()})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	svg := string(result.Artifacts[FormatSVG])
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "@rin") {
		t.Errorf("svg artifact looks wrong: %.80s", svg)
	}
	if result.Geometry.Width == 0 || result.Geometry.Height == 0 {
		t.Error("geometry missing from result")
	}
}

func TestExecutePNGAndGIF(t *testing.T) {
	runner := NewRunner(nil, nil)
	opts := Options{
		Profile: profile.Default(),
		Formats: []string{FormatPNG, FormatGIF},
		Export:  quickExport,
	}
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	img, err := png.Decode(bytes.NewReader(result.Artifacts[FormatPNG]))
	if err != nil {
		t.Fatalf("decode png artifact: %v", err)
	}
	if img.Bounds().Dx() != img.Bounds().Dy() {
		t.Errorf("raster output must be square, got %v", img.Bounds())
	}

	anim, err := gif.DecodeAll(bytes.NewReader(result.Artifacts[FormatGIF]))
	if err != nil {
		t.Fatalf("decode gif artifact: %v", err)
	}
	if len(anim.Image) != quickExport.FrameCount() {
		t.Errorf("gif frames = %d, want %d", len(anim.Image), quickExport.FrameCount())
	}
	if result.Stats.FrameCount != quickExport.FrameCount() {
		t.Errorf("stats frame count = %d", result.Stats.FrameCount)
	}
	if runner.ExportState() != export.StateComplete {
		t.Errorf("export state = %s", runner.ExportState())
	}
}

func TestExecuteWithImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0x80
		img.Pix[i+3] = 0xff
	}
	path := filepath.Join(t.TempDir(), "avatar.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	runner := NewRunner(nil, nil)
	result, err := runner.Execute(context.Background(), Options{
		Profile:   profile.Default(),
		ImagePath: path,
		Formats:   []string{FormatSVG},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.Geometry.HasImage {
		t.Error("geometry should reserve the image slot")
	}
	if !strings.Contains(string(result.Artifacts[FormatSVG]), "data:image/png;base64,") {
		t.Error("svg should embed the image as a data uri")
	}

	_, err = runner.Execute(context.Background(), Options{
		Profile:   profile.Default(),
		ImagePath: filepath.Join(t.TempDir(), "missing.png"),
	})
	if errors.GetCode(err) != errors.ErrCodeFileNotFound {
		t.Errorf("missing image code = %s", errors.GetCode(err))
	}
}

func TestExecuteUsesCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	runner := NewRunner(fc, nil)
	opts := Options{Profile: profile.Default(), Formats: []string{FormatSVG}}

	first, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheHits[FormatSVG] {
		t.Error("first render should not hit the cache")
	}

	second, err := runner.Execute(context.Background(), Options{Profile: profile.Default(), Formats: []string{FormatSVG}})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHits[FormatSVG] {
		t.Error("second render should hit the cache")
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached artifact differs from the original")
	}

	// Refresh bypasses the cache.
	third, err := runner.Execute(context.Background(), Options{Profile: profile.Default(), Formats: []string{FormatSVG}, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheHits[FormatSVG] {
		t.Error("refresh must bypass the cache")
	}
}

// expiringCache answers the first Get with a hit and misses afterwards,
// modelling an entry whose TTL lapses between two reads of the same key.
type expiringCache struct {
	gets int
}

func (c *expiringCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.gets++
	if c.gets == 1 {
		return []byte("stale artifact"), true, nil
	}
	return nil, false, nil
}

func (c *expiringCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

func (c *expiringCache) Delete(ctx context.Context, key string) error { return nil }

func (c *expiringCache) Close() error { return nil }

func TestExecuteRepaintsWhenCacheEntryExpires(t *testing.T) {
	// The cached-everywhere precheck sees a hit and skips the eager paint;
	// the per-format read then misses, so the texture must be painted
	// lazily instead of rendering from nil.
	runner := NewRunner(&expiringCache{}, nil)
	result, err := runner.Execute(context.Background(), Options{
		Profile: profile.Default(),
		Formats: []string{FormatPNG},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.CacheHits[FormatPNG] {
		t.Error("expired entry must not count as a cache hit")
	}
	img, err := png.Decode(bytes.NewReader(result.Artifacts[FormatPNG]))
	if err != nil {
		t.Fatalf("decode png artifact: %v", err)
	}
	if img.Bounds().Dx() == 0 {
		t.Error("artifact is empty")
	}
	if result.Stats.PaintTime == 0 {
		t.Error("texture was never painted")
	}
}

func TestExecuteDeterministicArtifacts(t *testing.T) {
	runner := NewRunner(nil, nil)
	opts := func() Options {
		return Options{
			Profile: profile.Profile{Username: "@det", Lines: []profile.Line{{Label: "A", Value: "B"}}},
			Formats: []string{FormatPNG},
			Time:    0.5,
		}
	}

	a, err := runner.Execute(context.Background(), opts())
	if err != nil {
		t.Fatal(err)
	}
	b, err := runner.Execute(context.Background(), opts())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Artifacts[FormatPNG], b.Artifacts[FormatPNG]) {
		t.Error("identical inputs must produce identical artifacts")
	}
}

func TestExecutePNGBackgroundAfterEffects(t *testing.T) {
	runner := NewRunner(nil, nil)
	cfg := crt.DefaultConfig()
	cfg.CurveIntensity = crt.MaxCurveIntensity

	result, err := runner.Execute(context.Background(), Options{
		Profile: profile.Default(),
		Formats: []string{FormatPNG},
		Effect:  cfg,
	})
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(result.Artifacts[FormatPNG]))
	if err != nil {
		t.Fatal(err)
	}
	// Strong curvature clips the corners to pure black.
	r, g, b, _ := img.At(0, 0).RGBA()
	if r != 0 || g != 0 || b != 0 {
		t.Errorf("corner = %v, want black under max curvature", color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), 0xff})
	}
}
