package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/heatmap/pkg/buildinfo"
	"github.com/matzehuels/heatmap/pkg/cache"
	"github.com/matzehuels/heatmap/pkg/colorscheme"
	"github.com/matzehuels/heatmap/pkg/errors"
	pkgio "github.com/matzehuels/heatmap/pkg/io"
	"github.com/matzehuels/heatmap/pkg/legend"
	"github.com/matzehuels/heatmap/pkg/observability"
	"github.com/matzehuels/heatmap/pkg/pipeline"
)

// Response headers set by the render endpoint.
const (
	HeaderMin     = "X-Heatmap-Min"
	HeaderMax     = "X-Heatmap-Max"
	HeaderBounds  = "X-Heatmap-Bounds"
	HeaderWarning = "X-Heatmap-Warning"
	HeaderCache   = "X-Heatmap-Cache"
)

// RenderRequest is the body of POST /api/v1/render.
type RenderRequest struct {
	// Points accepts a flat array, an array of [x, y(, w)] tuples or an
	// array of {"x", "y", "w"} objects. The tuple arity follows options.weighted.
	Points json.RawMessage `json:"points"`

	// Format selects the single artifact returned in the body; png by default.
	Format string `json:"format,omitempty"`

	Options pipeline.Options `json:"options"`
}

// LegendRequest is the body of POST /api/v1/legend.
type LegendRequest struct {
	Scheme  string          `json:"scheme,omitempty"`
	Min     float64         `json:"min"`
	Max     float64         `json:"max"`
	Options *legend.Options `json:"options,omitempty"`
}

// SchemeInfo describes one colour scheme.
type SchemeInfo struct {
	Name       string `json:"name"`
	Densest    string `json:"densest"`
	Background string `json:"background"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Current()})
}

func (s *Server) handleSchemes(w http.ResponseWriter, r *http.Request) {
	names := colorscheme.Names()
	out := make([]SchemeInfo, 0, len(names))
	for _, name := range names {
		sc, err := colorscheme.Get(name)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		out = append(out, SchemeInfo{
			Name:       name,
			Densest:    sc.Colors[0].Hex(),
			Background: sc.Colors[colorscheme.Size-1].Hex(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"schemes": out})
}

// handleSchemePreview serves a label-free legend strip for one scheme.
func (s *Server) handleSchemePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	sc, err := colorscheme.Get(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	key := s.runner.Keyer.ArtifactKey("scheme:"+name, cache.ArtifactKeyOpts{
		Format:  "preview",
		Scheme:  name,
		Palette: pipeline.SchemeHash(sc),
	})
	if data, hit, err := s.runner.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "preview")
		writeBytes(w, pipeline.ContentType(pipeline.FormatPNG), data)
		return
	}
	observability.Cache().OnCacheMiss(ctx, "preview")

	o := legend.DefaultOptions()
	o.Width, o.Height = 256, 24
	o.XBorder, o.YBorder = 1, 1
	o.Opacity = 255
	o.ShowText = false
	img, err := legend.Render(sc, 0, 0, o)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := pkgio.EncodeBytes(img, pkgio.FormatPNG)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.runner.Cache.Set(ctx, key, data, cache.SchemeTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "preview", len(data))
	}
	writeBytes(w, pipeline.ContentType(pipeline.FormatPNG), data)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(bytes.TrimSpace(req.Points)) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidPoints, "points are required"))
		return
	}
	points, err := pkgio.ReadJSON(bytes.NewReader(req.Points), req.Options.Weighted)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format := req.Format
	if format == "" {
		format = pipeline.FormatPNG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := req.Options
	opts.Formats = []string{format}
	opts.Logger = s.logger.With("id", RequestID(r.Context()))
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.checkPixels(opts.Width, opts.Height); err != nil {
		s.writeError(w, r, err)
		return
	}
	if opts.Legend != nil && format == pipeline.FormatLegend {
		if err := s.checkPixels(opts.Legend.Width, opts.Legend.Height); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	res, err := s.runner.Execute(r.Context(), points, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set(HeaderMin, strconv.FormatFloat(res.MinDensity, 'g', -1, 64))
	h.Set(HeaderMax, strconv.FormatFloat(res.MaxDensity, 'g', -1, 64))
	h.Set(HeaderBounds, res.Bounds.String())
	if len(res.Warnings) > 0 {
		h.Set(HeaderWarning, res.Warnings[0])
	}
	if res.CacheInfo.RenderHit {
		h.Set(HeaderCache, "hit")
	} else {
		h.Set(HeaderCache, "miss")
	}
	writeBytes(w, pipeline.ContentType(format), res.Artifacts[format])
}

func (s *Server) handleLegend(w http.ResponseWriter, r *http.Request) {
	var req LegendRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	name := req.Scheme
	if name == "" {
		name = pipeline.DefaultScheme
	}
	sc, err := colorscheme.Get(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	o := legend.DefaultOptions()
	if req.Options != nil {
		o = *req.Options
	}

	if err := s.checkPixels(o.Width, o.Height); err != nil {
		s.writeError(w, r, err)
		return
	}
	img, err := legend.Render(sc, req.Min, req.Max, o)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := pkgio.EncodeBytes(img, pkgio.FormatPNG)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeBytes(w, pipeline.ContentType(pipeline.FormatLegend), data)
}

// checkPixels rejects images larger than the configured MaxPixels before
// anything is allocated for them.
func (s *Server) checkPixels(width, height int) error {
	if s.cfg.MaxPixels <= 0 || width <= 0 || height <= 0 {
		return nil
	}
	if int64(width)*int64(height) > int64(s.cfg.MaxPixels) {
		return errors.New(errors.ErrCodeInvalidDimensions,
			"%dx%d exceeds the server limit of %d pixels", width, height, s.cfg.MaxPixels)
	}
	return nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return err
		}
		if stderrors.Is(err, io.EOF) {
			return errors.New(errors.ErrCodeInvalidInput, "request body is empty")
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}

func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
