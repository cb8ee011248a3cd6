package export

import (
	"bytes"
	"context"
	"image"
	"image/gif"
	"image/png"
	"sync"
	"testing"

	"github.com/watanaberin/retro-bio/pkg/errors"
)

func solidSource(w, h int) Source {
	return SourceFunc(func(t float64) (*image.RGBA, error) {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		shade := uint8(clampInt(int(t*100), 0, 255))
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i] = shade
			img.Pix[i+1] = 0xff
			img.Pix[i+3] = 0xff
		}
		return img, nil
	})
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       Settings
		wantErr bool
	}{
		{"defaults", DefaultSettings(), false},
		{"full scale", Settings{Scale: 1, FPS: 30, Duration: 1}, false},
		{"zero scale", Settings{Scale: 0, FPS: 10, Duration: 2}, true},
		{"scale above one", Settings{Scale: 1.5, FPS: 10, Duration: 2}, true},
		{"zero fps", Settings{Scale: 0.5, FPS: 0, Duration: 2}, true},
		{"negative duration", Settings{Scale: 0.5, FPS: 10, Duration: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && errors.GetCode(err) != errors.ErrCodeInvalidSettings {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeInvalidSettings)
			}
		})
	}
}

func TestSettingsFrameMath(t *testing.T) {
	s := DefaultSettings() // 10 fps x 2 s
	if got := s.FrameCount(); got != 20 {
		t.Errorf("FrameCount() = %d, want 20", got)
	}
	if got := s.FrameTime(5); got != 0.5 {
		t.Errorf("FrameTime(5) = %g, want 0.5", got)
	}
	if got := s.DelayCS(); got != 10 {
		t.Errorf("DelayCS() = %d, want 10", got)
	}

	// Fractional products round to the nearest frame.
	odd := Settings{Scale: 1, FPS: 3, Duration: 0.5}
	if got := odd.FrameCount(); got != 2 {
		t.Errorf("FrameCount() = %d, want 2", got)
	}
	if got := odd.DelayCS(); got != 33 {
		t.Errorf("DelayCS() = %d, want 33", got)
	}
}

func TestGIFExport(t *testing.T) {
	e := NewExporter()
	s := Settings{Scale: 0.5, FPS: 5, Duration: 1}

	var frames []int
	data, err := e.GIF(context.Background(), solidSource(64, 64), s, func(frame, total int) {
		frames = append(frames, frame)
		if total != 5 {
			t.Errorf("progress total = %d, want 5", total)
		}
	})
	if err != nil {
		t.Fatalf("GIF() error = %v", err)
	}
	if e.State() != StateComplete {
		t.Errorf("state = %s, want %s", e.State(), StateComplete)
	}
	if len(frames) != 5 || frames[0] != 1 || frames[4] != 5 {
		t.Errorf("progress frames = %v", frames)
	}

	decoded, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode exported gif: %v", err)
	}
	if len(decoded.Image) != 5 {
		t.Errorf("frame count = %d, want 5", len(decoded.Image))
	}
	if decoded.LoopCount != 0 {
		t.Errorf("loop count = %d, want 0 (loop forever)", decoded.LoopCount)
	}
	if got := decoded.Image[0].Bounds().Dx(); got != 32 {
		t.Errorf("output width = %d, want 32 at scale 0.5", got)
	}
	for i, d := range decoded.Delay {
		if d != 20 {
			t.Errorf("frame %d delay = %d, want 20cs at 5 fps", i, d)
		}
	}
}

func TestGIFRejectsConcurrentCapture(t *testing.T) {
	e := NewExporter()
	s := Settings{Scale: 1, FPS: 10, Duration: 1}

	started := make(chan struct{})
	release := make(chan struct{})
	slow := SourceFunc(func(t float64) (*image.RGBA, error) {
		select {
		case started <- struct{}{}:
			<-release
		default:
		}
		img := image.NewRGBA(image.Rect(0, 0, 8, 8))
		return img, nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := e.GIF(context.Background(), slow, s, nil); err != nil {
			t.Errorf("first capture failed: %v", err)
		}
	}()

	<-started
	_, err := e.GIF(context.Background(), solidSource(8, 8), s, nil)
	if errors.GetCode(err) != errors.ErrCodeExportInFlight {
		t.Errorf("second capture code = %s, want %s", errors.GetCode(err), errors.ErrCodeExportInFlight)
	}
	close(release)
	wg.Wait()

	// A finished capture frees the exporter for the next run.
	if _, err := e.GIF(context.Background(), solidSource(8, 8), s, nil); err != nil {
		t.Errorf("capture after completion failed: %v", err)
	}
}

func TestGIFFailureDiscardsCapture(t *testing.T) {
	e := NewExporter()
	s := Settings{Scale: 1, FPS: 10, Duration: 1}

	calls := 0
	failing := SourceFunc(func(t float64) (*image.RGBA, error) {
		calls++
		if calls == 3 {
			return nil, errors.New(errors.ErrCodeInternal, "frame render exploded")
		}
		return image.NewRGBA(image.Rect(0, 0, 8, 8)), nil
	})

	data, err := e.GIF(context.Background(), failing, s, nil)
	if err == nil {
		t.Fatal("expected capture failure")
	}
	if data != nil {
		t.Error("failed capture must not return partial output")
	}
	if e.State() != StateFailed {
		t.Errorf("state = %s, want %s", e.State(), StateFailed)
	}
}

func TestGIFCancellation(t *testing.T) {
	e := NewExporter()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.GIF(ctx, solidSource(8, 8), Settings{Scale: 1, FPS: 10, Duration: 1}, nil)
	if errors.GetCode(err) != errors.ErrCodeTimeout {
		t.Errorf("code = %s, want %s", errors.GetCode(err), errors.ErrCodeTimeout)
	}
	if e.State() != StateFailed {
		t.Errorf("state = %s, want %s", e.State(), StateFailed)
	}
}

func TestStill(t *testing.T) {
	data, err := Still(context.Background(), solidSource(40, 30), 0)
	if err != nil {
		t.Fatalf("Still() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode exported png: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("still bounds = %v, want 40x30", img.Bounds())
	}
}
