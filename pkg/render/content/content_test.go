package content

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/watanaberin/retro-bio/pkg/errors"
	"github.com/watanaberin/retro-bio/pkg/profile"
	"github.com/watanaberin/retro-bio/pkg/render/layout"
)

func TestPaintDimensions(t *testing.T) {
	p := profile.Default()
	sq := layout.ComputeSquare(p, false)

	tests := []struct {
		name  string
		scale float64
		want  int
	}{
		{"default supersampling", 0, int(sq.Size * DefaultScale)},
		{"explicit 1x", 1, int(sq.Size)},
		{"explicit 2x", 2, int(sq.Size * 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex, err := Paint(p, nil, sq, Options{Scale: tt.scale})
			if err != nil {
				t.Fatalf("Paint: %v", err)
			}
			if got := tex.Bounds().Dx(); got != tt.want {
				t.Errorf("width = %d, want %d", got, tt.want)
			}
			if tex.Bounds().Dx() != tex.Bounds().Dy() {
				t.Errorf("texture not square: %v", tex.Bounds())
			}
		})
	}
}

func TestPaintDeterministic(t *testing.T) {
	p := profile.Default()
	sq := layout.ComputeSquare(p, false)

	a, err := Paint(p, nil, sq, Options{ShowGrid: true})
	if err != nil {
		t.Fatalf("Paint: %v", err)
	}
	b, err := Paint(p, nil, sq, Options{ShowGrid: true})
	if err != nil {
		t.Fatalf("Paint: %v", err)
	}
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("identical inputs produced different pixels")
	}
}

func TestPaintWithImage(t *testing.T) {
	p := profile.Default()

	img := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	sq := layout.ComputeSquare(p, true)
	with, err := Paint(p, img, sq, Options{})
	if err != nil {
		t.Fatalf("Paint with image: %v", err)
	}
	without, err := Paint(p, nil, sq, Options{})
	if err != nil {
		t.Fatalf("Paint without image: %v", err)
	}
	if bytes.Equal(with.Pix, without.Pix) {
		t.Error("image had no effect on the texture")
	}
}

func TestPaintBackground(t *testing.T) {
	p := profile.Default()
	sq := layout.ComputeSquare(p, false)

	tex, err := Paint(p, nil, sq, Options{})
	if err != nil {
		t.Fatalf("Paint: %v", err)
	}

	// A point in the outer padding, clear of the bezel, text, and glow.
	got := tex.RGBAAt(40, 40)
	want := DefaultPalette().Background
	if got.R != want.R || got.G != want.G || got.B != want.B {
		t.Errorf("padding pixel = %v, want background %v", got, want)
	}
}

func TestPaintPaletteOverride(t *testing.T) {
	p := profile.Default()
	sq := layout.ComputeSquare(p, false)

	pal := DefaultPalette()
	pal.Background = color.NRGBA{R: 0x10, G: 0x00, B: 0x20, A: 0xff}

	tex, err := Paint(p, nil, sq, Options{Palette: pal})
	if err != nil {
		t.Fatalf("Paint: %v", err)
	}
	got := tex.RGBAAt(40, 40)
	if got.R != 0x10 || got.B != 0x20 {
		t.Errorf("padding pixel = %v, want overridden background", got)
	}
}

func TestPaintBadDisplayFont(t *testing.T) {
	p := profile.Default()
	sq := layout.ComputeSquare(p, false)

	_, err := Paint(p, nil, sq, Options{DisplayFont: []byte("not a font")})
	if err == nil {
		t.Fatal("expected error for invalid display font")
	}
	if !errors.Is(err, errors.ErrCodeFontMissing) {
		t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeFontMissing)
	}
}
