// Package server exposes the card pipeline over HTTP. Cards are rendered on
// demand: GET endpoints serve the default profile, POST endpoints accept a
// JSON render request. Artifacts are cached through the runner's cache, so
// hot profiles cost one render.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/watanaberin/retro-bio/pkg/errors"
	"github.com/watanaberin/retro-bio/pkg/pipeline"
	"github.com/watanaberin/retro-bio/pkg/profile"
)

// RenderTimeout bounds a single render, animation capture included.
const RenderTimeout = 2 * time.Minute

var contentTypes = map[string]string{
	pipeline.FormatSVG: "image/svg+xml",
	pipeline.FormatPNG: "image/png",
	pipeline.FormatGIF: "image/gif",
}

// Server handles card rendering requests.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
}

// New creates a server around a pipeline runner.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, logger: logger}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RenderTimeout))

	r.Get("/healthz", s.handleHealth)
	for _, format := range []string{pipeline.FormatSVG, pipeline.FormatPNG, pipeline.FormatGIF} {
		format := format
		r.Get("/card."+format, s.handleCard(format, false))
		r.Post("/card."+format, s.handleCard(format, true))
	}
	return r
}

// RenderRequest is the POST body for card endpoints.
type RenderRequest struct {
	Profile   *profile.Profile `json:"profile,omitempty"`
	Effect    json.RawMessage  `json:"effect,omitempty"`
	Export    json.RawMessage  `json:"export,omitempty"`
	Time      float64          `json:"time,omitempty"`
	BlurLevel float64          `json:"blur_level,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","export":"%s"}`, s.runner.ExportState())
}

func (s *Server) handleCard(format string, fromBody bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := pipeline.Options{
			Profile: profile.Default(),
			Formats: []string{format},
			Logger:  s.logger,
		}

		if fromBody {
			var req RenderRequest
			if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
				s.writeError(w, errors.Wrap(errors.ErrCodeInvalidProfile, err, "decode render request"))
				return
			}
			if req.Profile != nil {
				opts.Profile = *req.Profile
			}
			if len(req.Effect) > 0 {
				if err := json.Unmarshal(req.Effect, &opts.Effect); err != nil {
					s.writeError(w, errors.Wrap(errors.ErrCodeInvalidSettings, err, "decode effect config"))
					return
				}
			}
			if len(req.Export) > 0 {
				if err := json.Unmarshal(req.Export, &opts.Export); err != nil {
					s.writeError(w, errors.Wrap(errors.ErrCodeInvalidSettings, err, "decode export settings"))
					return
				}
			}
			opts.Time = req.Time
			opts.BlurLevel = req.BlurLevel
		}

		result, err := s.runner.Execute(r.Context(), opts)
		if err != nil {
			s.writeError(w, err)
			return
		}

		data := result.Artifacts[format]
		w.Header().Set("Content-Type", contentTypes[format])
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("inline; filename=%q", opts.Profile.Filename(format)))
		w.Header().Set("Content-Length", fmt.Sprint(len(data)))
		w.Write(data)
	}
}

// writeError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidProfile, errors.ErrCodeInvalidImage,
		errors.ErrCodeInvalidSettings, errors.ErrCodeInvalidFormat,
		errors.ErrCodeFileNotFound:
		status = http.StatusBadRequest
	case errors.ErrCodeFontMissing, errors.ErrCodeUnsupported:
		status = http.StatusServiceUnavailable
	case errors.ErrCodeExportInFlight:
		status = http.StatusConflict
	case errors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("render failed", "code", code, "err", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": errors.UserMessage(err),
		"code":  string(code),
	})
}

// logRequests logs one line per request with status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
