// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks at
// startup to receive events about rendering, animation export, and outgoing
// HTTP calls.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This avoids import cycles (hooks are registered by main, not by libraries)
// and keeps the core library free of observability framework dependencies.
//
// # Usage
//
//	func main() {
//	    observability.SetRenderHooks(&myRenderHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Render().OnLayoutComplete(ctx, w, h, duration)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Render Hooks
// =============================================================================

// RenderHooks receives events from the rendering pipeline.
type RenderHooks interface {
	// OnLayoutComplete records a layout computation with the resulting canvas size.
	OnLayoutComplete(ctx context.Context, width, height float64, duration time.Duration)

	// OnPaintComplete records a content texture paint.
	OnPaintComplete(ctx context.Context, width, height int, duration time.Duration, err error)

	// OnEffectsApplied records one shader pass at a synthetic time.
	OnEffectsApplied(ctx context.Context, t float64, duration time.Duration)
}

// =============================================================================
// Export Hooks
// =============================================================================

// ExportHooks receives events from the animation capture pipeline.
type ExportHooks interface {
	// OnExportStart records the beginning of an export with its total frame count.
	OnExportStart(ctx context.Context, jobID string, totalFrames int)

	// OnFrameCaptured records one captured frame.
	OnFrameCaptured(ctx context.Context, jobID string, frame, totalFrames int)

	// OnEncodeComplete records the end of encoding, successful or not.
	OnEncodeComplete(ctx context.Context, jobID string, bytes int, duration time.Duration, err error)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from outgoing HTTP operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)

	// OnCacheHit records a rehosted-resource hit that avoided a network fetch.
	OnCacheHit(ctx context.Context, url string)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopRenderHooks is a no-op implementation of RenderHooks.
type NoopRenderHooks struct{}

func (NoopRenderHooks) OnLayoutComplete(context.Context, float64, float64, time.Duration)  {}
func (NoopRenderHooks) OnPaintComplete(context.Context, int, int, time.Duration, error)    {}
func (NoopRenderHooks) OnEffectsApplied(context.Context, float64, time.Duration)           {}

// NoopExportHooks is a no-op implementation of ExportHooks.
type NoopExportHooks struct{}

func (NoopExportHooks) OnExportStart(context.Context, string, int)                            {}
func (NoopExportHooks) OnFrameCaptured(context.Context, string, int, int)                     {}
func (NoopExportHooks) OnEncodeComplete(context.Context, string, int, time.Duration, error)   {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)            {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)       {}
func (NoopHTTPHooks) OnCacheHit(context.Context, string)                           {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	renderHooks RenderHooks = NoopRenderHooks{}
	exportHooks ExportHooks = NoopExportHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
	hooksMu     sync.RWMutex
)

// SetRenderHooks registers custom render hooks.
// This should be called once at application startup before any rendering.
func SetRenderHooks(h RenderHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		renderHooks = h
	}
}

// SetExportHooks registers custom export hooks.
// This should be called once at application startup before any exports.
func SetExportHooks(h ExportHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		exportHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Render returns the registered render hooks.
func Render() RenderHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return renderHooks
}

// Export returns the registered export hooks.
func Export() ExportHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return exportHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	renderHooks = NoopRenderHooks{}
	exportHooks = NoopExportHooks{}
	httpHooks = NoopHTTPHooks{}
}
