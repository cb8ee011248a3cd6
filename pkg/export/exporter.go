package export

import (
	"bytes"
	"context"
	"image"
	"image/color/palette"
	stddraw "image/draw"
	"image/gif"
	"image/png"
	"sync"
	"time"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/watanaberin/retro-bio/pkg/errors"
	"github.com/watanaberin/retro-bio/pkg/observability"
)

// State tracks where a capture currently is. Transitions are strictly
// Idle -> Preparing -> Capturing -> Encoding -> Complete, with any stage
// able to fall into Failed.
type State string

const (
	StateIdle      State = "idle"
	StatePreparing State = "preparing"
	StateCapturing State = "capturing"
	StateEncoding  State = "encoding"
	StateComplete  State = "complete"
	StateFailed    State = "failed"
)

// Source produces one finished frame for a synthetic time value. RenderFrame
// must be deterministic: the capture loop relies on identical inputs yielding
// identical frames.
type Source interface {
	RenderFrame(t float64) (*image.RGBA, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(t float64) (*image.RGBA, error)

func (f SourceFunc) RenderFrame(t float64) (*image.RGBA, error) { return f(t) }

// Progress is invoked after each captured frame with (frame, total),
// frame counting from 1. It runs on the capture goroutine.
type Progress func(frame, total int)

// Exporter runs captures one at a time. Starting a capture while another is
// in flight fails with an EXPORT_IN_FLIGHT error rather than queueing;
// completed and failed captures leave the exporter ready for the next run.
type Exporter struct {
	mu    sync.Mutex
	state State
	jobID string
}

// NewExporter returns an idle exporter.
func NewExporter() *Exporter {
	return &Exporter{state: StateIdle}
}

// State reports the current capture state.
func (e *Exporter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// JobID reports the identifier of the current (or most recent) capture.
func (e *Exporter) JobID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.jobID
}

func (e *Exporter) begin() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StatePreparing, StateCapturing, StateEncoding:
		return "", errors.New(errors.ErrCodeExportInFlight, "capture %s still in flight", e.jobID)
	}
	e.state = StatePreparing
	e.jobID = uuid.NewString()
	return e.jobID, nil
}

func (e *Exporter) transition(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// GIF captures an animation and returns the encoded bytes. On any failure the
// partial capture is discarded entirely; no truncated animation is returned.
func (e *Exporter) GIF(ctx context.Context, src Source, s Settings, progress Progress) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	jobID, err := e.begin()
	if err != nil {
		return nil, err
	}

	data, err := e.capture(ctx, jobID, src, s, progress)
	if err != nil {
		e.transition(StateFailed)
		return nil, err
	}
	e.transition(StateComplete)
	return data, nil
}

func (e *Exporter) capture(ctx context.Context, jobID string, src Source, s Settings, progress Progress) ([]byte, error) {
	total := s.FrameCount()
	observability.Export().OnExportStart(ctx, jobID, total)

	e.transition(StateCapturing)
	anim := &gif.GIF{
		Image:     make([]*image.Paletted, 0, total),
		Delay:     make([]int, 0, total),
		LoopCount: 0, // loop forever
	}
	delay := s.DelayCS()

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "capture cancelled at frame %d/%d", i+1, total)
		}
		frame, err := src.RenderFrame(s.FrameTime(i))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeEncoding, err, "render frame %d/%d", i+1, total)
		}
		anim.Image = append(anim.Image, quantize(downsample(frame, s)))
		anim.Delay = append(anim.Delay, delay)

		observability.Export().OnFrameCaptured(ctx, jobID, i+1, total)
		if progress != nil {
			progress(i+1, total)
		}
	}

	e.transition(StateEncoding)
	start := time.Now()
	var buf bytes.Buffer
	err := gif.EncodeAll(&buf, anim)
	observability.Export().OnEncodeComplete(ctx, jobID, buf.Len(), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncoding, err, "encode gif")
	}
	return buf.Bytes(), nil
}

// Still renders a single frame at synthetic time t and encodes it as PNG at
// full resolution. Stills bypass the capture state machine and may run while
// an animation capture is in flight.
func Still(ctx context.Context, src Source, t float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "still export cancelled")
	}
	frame, err := src.RenderFrame(t)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncoding, err, "render still frame")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncoding, err, "encode png")
	}
	return buf.Bytes(), nil
}

// downsample scales a frame to the output size with Catmull-Rom resampling.
func downsample(frame *image.RGBA, s Settings) *image.RGBA {
	if s.Scale == 1 {
		return frame
	}
	b := frame.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, s.OutputDim(b.Dx()), s.OutputDim(b.Dy())))
	xdraw.CatmullRom.Scale(out, out.Bounds(), frame, b, xdraw.Over, nil)
	return out
}

// quantize reduces a frame to a 256-color paletted image with dithering.
// The general-purpose Plan 9 palette keeps both the phosphor greens and the
// chromatic-aberration fringes representable.
func quantize(frame *image.RGBA) *image.Paletted {
	b := frame.Bounds()
	p := image.NewPaletted(b, palette.Plan9)
	stddraw.FloydSteinberg.Draw(p, b, frame, b.Min)
	return p
}
