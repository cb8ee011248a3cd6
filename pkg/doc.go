// Package pkg provides the core libraries for retro terminal card rendering.
//
// # Overview
//
// Retrobio turns a structured profile (username, attributes, bio, optional
// image) into a green-phosphor CRT terminal card. The pkg directory is
// organized into five main areas:
//
//  1. [profile] - Profile model, validation, and derived text metrics
//  2. [render] - Layout computation, content painting, and effect passes
//  3. [export] - Animation capture, GIF assembly, and still-image export
//  4. [pipeline] - Orchestration (ingest → layout → render → export)
//  5. [extract] - Profile extraction from free-form text via the Gemini API
//
// # Architecture
//
// The typical data flow through retrobio:
//
//	Profile JSON (+ optional image)
//	         ↓
//	    [render/layout] package (element geometry from content)
//	         ↓
//	    [render/content] package (paint the phosphor text texture)
//	         ↓
//	    [render/crt] package (curvature, scanlines, noise, flicker)
//	         ↓
//	    [export] package (frame capture + encoding)
//	         ↓
//	    SVG/PNG/GIF output
//
// The vector path skips the raster stages: [render/svgcard] emits the card
// as SVG markup with the effect pass expressed as an SVG filter graph.
//
// # Quick Start
//
// Render the default profile as an animated GIF:
//
//	runner := pipeline.NewRunner(nil, nil)
//	result, err := runner.Execute(context.Background(), pipeline.Options{
//	    Profile: profile.Default(),
//	    Formats: []string{pipeline.FormatGIF},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("card.gif", result.Artifacts[pipeline.FormatGIF], 0o644)
//
// # Main Packages
//
// ## Core Domain Logic
//
// [profile] - The profile model: username, attribute pairs, bio. Validation
// rejects control characters and oversized fields; derived metrics (longest
// line, wrapped bio lines, filename slug) drive layout.
//
// [render/layout] - Pure geometry: element positions computed from the
// profile's content on a fixed character grid, plus the square padded
// variant used by the raster path.
//
// [render/content] - Paints the card content (header, attributes, bio,
// swatches, prompt, optional tinted image) onto an RGBA texture at 2x
// supersampling.
//
// [render/crt] - The software effect pass: barrel curvature, drifting
// scanlines, chromatic aberration, vignette, noise, and flicker applied
// per-pixel as a function of synthetic time.
//
// [render/svgcard] - The declarative twin of the raster path: the same card
// expressed as SVG markup with filter-graph effects.
//
// ## Capture and Orchestration
//
// [export] - Frame capture at evenly spaced synthetic times, downsampling,
// palette quantization, and GIF assembly; single-capture state machine
// rejects concurrent captures.
//
// [pipeline] - Shared orchestration for CLI and server: ingest, layout,
// paint once, render each requested format, cache artifacts.
//
// ## Infrastructure
//
// [cache] - Artifact cache keyed by content hashes. FileCache for the CLI
// (filesystem), RedisCache for server deployments, NullCache for testing.
//
// [extract] - Gemini API client turning free-form text into a validated
// profile via schema-constrained generation.
//
// [httputil] - Shared HTTP client with retry/backoff and the resource
// rehosting store used for the display font.
package pkg
