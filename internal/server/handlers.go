package server

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/evsingleline/singleline/pkg/compliance"
	perrors "github.com/evsingleline/singleline/pkg/errors"
	"github.com/evsingleline/singleline/pkg/pipeline"
	"github.com/evsingleline/singleline/pkg/survey"
)

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: s.version})
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.All())
}

// analyzeResponse wraps a compliance report with its verdict.
type analyzeResponse struct {
	OK       bool              `json:"ok"`
	Errors   int               `json:"errors"`
	Warnings int               `json:"warnings"`
	Report   compliance.Report `json:"report"`
}

func newAnalyzeResponse(rep compliance.Report) analyzeResponse {
	return analyzeResponse{
		OK:       rep.OK(),
		Errors:   rep.Count(compliance.SeverityError),
		Warnings: rep.Count(compliance.SeverityWarning),
		Report:   rep,
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	snap, err := decodeSurvey(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rep, hit, err := s.runner.AnalyzeWithCacheInfo(r.Context(), snap, pipeline.Options{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	writeJSON(w, http.StatusOK, newAnalyzeResponse(rep))
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	snap, err := decodeSurvey(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, hit, err := s.runner.LayoutWithCacheInfo(r.Context(), snap, pipeline.Options{})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := perrors.ValidateFormat(format, pipeline.Formats...); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.renderOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := decodeSurvey(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeArtifact(w, r, snap, format, opts, "survey")
}

// writeArtifact renders one format and streams it with its content type.
func (s *Server) writeArtifact(w http.ResponseWriter, r *http.Request, snap survey.Survey, format string, opts pipeline.Options, name string) {
	opts.Formats = []string{format}
	out, hit, err := s.runner.RenderWithCacheInfo(r.Context(), snap, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	setCacheHeader(w, hit)
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	switch format {
	case pipeline.FormatPDF, pipeline.FormatReport, pipeline.FormatXLSX:
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+pipeline.Extensions[format]+`"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out[format])
}

// renderOptions reads diagram and report options from the query string,
// falling back to the server defaults.
func (s *Server) renderOptions(q url.Values) (pipeline.Options, error) {
	opts := pipeline.Options{
		Title:  s.defaults.Title,
		Legend: s.defaults.Legend,
		Scale:  s.defaults.Scale,
	}
	if v := q.Get("title"); v != "" {
		opts.Title = v
	}
	flags := []struct {
		name string
		dst  *bool
	}{
		{"legend", &opts.Legend},
		{"breakers", &opts.Breakers},
		{"diagram", &opts.Diagram},
		{"chart", &opts.Chart},
		{"refresh", &opts.Refresh},
	}
	for _, f := range flags {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, perrors.New(perrors.ErrCodeInvalidInput, "%s: want true or false, got %q", f.name, v)
		}
		*f.dst = b
	}
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, perrors.New(perrors.ErrCodeInvalidInput, "scale: want a number, got %q", v)
		}
		opts.Scale = f
	}
	return opts, nil
}

func setCacheHeader(w http.ResponseWriter, hit bool) {
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
}
