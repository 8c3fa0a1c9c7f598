// Package pipeline runs a survey snapshot through analysis, layout and
// rendering with caching.
//
// # Overview
//
// Every derived product of a snapshot is a pure function of its contents,
// so the pipeline keys each stage by the hash of the snapshot's compact
// JSON:
//
//	snapshot → Validate → Analyze (compliance.Report)
//	                    → Layout  (diagram.Layout)
//	                    → Render  (svg, png, pdf, json, dot, blocks, report, xlsx, chart)
//
// A [Runner] holds the cache, keyer and logger shared by the CLI and the
// HTTP server:
//
//	r := pipeline.NewRunner(c, nil, logger)
//	res, err := r.Execute(ctx, s, pipeline.Options{Formats: []string{"svg", "report"}})
//
// Findings never fail a run; only an invalid snapshot or a renderer error
// does.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/evsingleline/singleline/pkg/cache"
	"github.com/evsingleline/singleline/pkg/compliance"
	"github.com/evsingleline/singleline/pkg/diagram"
	perrors "github.com/evsingleline/singleline/pkg/errors"
	"github.com/evsingleline/singleline/pkg/survey"
)

// =============================================================================
// Output Formats
// =============================================================================

const (
	// FormatSVG is the one-line diagram as SVG.
	FormatSVG = "svg"
	// FormatPNG is the one-line diagram rasterized with rsvg-convert.
	FormatPNG = "png"
	// FormatPDF is the one-line diagram on a single page.
	FormatPDF = "pdf"
	// FormatJSON is the positioned layout as JSON.
	FormatJSON = "json"
	// FormatDOT is the nested block diagram as Graphviz source.
	FormatDOT = "dot"
	// FormatBlocks is the nested block diagram rendered to SVG.
	FormatBlocks = "blocks"
	// FormatReport is the itemized survey report PDF.
	FormatReport = "report"
	// FormatXLSX is the panel schedule workbook.
	FormatXLSX = "xlsx"
	// FormatChart is the load chart as PNG.
	FormatChart = "chart"
)

// Formats lists every output format in a stable order.
var Formats = []string{
	FormatSVG, FormatPNG, FormatPDF, FormatJSON, FormatDOT,
	FormatBlocks, FormatReport, FormatXLSX, FormatChart,
}

// ContentTypes maps each format to its MIME type.
var ContentTypes = map[string]string{
	FormatSVG:    "image/svg+xml",
	FormatPNG:    "image/png",
	FormatPDF:    "application/pdf",
	FormatJSON:   "application/json",
	FormatDOT:    "text/vnd.graphviz",
	FormatBlocks: "image/svg+xml",
	FormatReport: "application/pdf",
	FormatXLSX:   "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	FormatChart:  "image/png",
}

// Extensions maps each format to the file extension used when writing it.
var Extensions = map[string]string{
	FormatSVG:    ".svg",
	FormatPNG:    ".png",
	FormatPDF:    ".pdf",
	FormatJSON:   ".layout.json",
	FormatDOT:    ".dot",
	FormatBlocks: ".blocks.svg",
	FormatReport: ".report.pdf",
	FormatXLSX:   ".xlsx",
	FormatChart:  ".chart.png",
}

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0
	// MaxScale bounds the PNG scale factor.
	MaxScale = 8.0
)

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run. It is decoded from API requests.
type Options struct {
	Formats []string `json:"formats,omitempty"`

	// Diagram options
	Title    string  `json:"title,omitempty"`
	Legend   bool    `json:"legend,omitempty"`
	Scale    float64 `json:"scale,omitempty"`
	Breakers bool    `json:"breakers,omitempty"` // breaker nodes in the block diagram

	// Report options
	Diagram bool `json:"diagram,omitempty"` // append the one-line diagram page
	Chart   bool `json:"chart,omitempty"`   // embed the load chart

	// Refresh bypasses cached results and overwrites them.
	Refresh bool `json:"refresh,omitempty"`

	// Generated is the report timestamp; zero means time.Now.
	Generated time.Time   `json:"-"`
	Logger    *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks formats and scale and fills defaults. It is
// idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	seen := make(map[string]bool, len(o.Formats))
	formats := o.Formats[:0:0]
	for _, f := range o.Formats {
		if err := perrors.ValidateFormat(f, Formats...); err != nil {
			return err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	o.Formats = formats

	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 || o.Scale > MaxScale {
		return perrors.New(perrors.ErrCodeInvalidInput, "scale must be between 0 and %g", MaxScale)
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

// ArtifactKeyOpts returns the cache key options for format. Options that do
// not affect format are left out so unrelated changes still hit.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case FormatSVG, FormatPNG:
		k.Title = o.Title
		k.Legend = o.Legend
		if format == FormatPNG {
			k.Scale = o.Scale
		}
	case FormatJSON:
		k.Title = o.Title
	case FormatDOT, FormatBlocks:
		k.Breakers = o.Breakers
	case FormatReport:
		k.Diagram = o.Diagram
		k.Chart = o.Chart
	}
	return k
}

// =============================================================================
// Results
// =============================================================================

// Result holds the outputs of [Runner.Execute].
type Result struct {
	Survey survey.Survey

	// Hash is the content hash of the snapshot.
	Hash string

	Report    compliance.Report
	Layout    diagram.Layout
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats records sizes and stage timings.
type Stats struct {
	Panels      int
	Breakers    int
	Findings    int
	Nodes       int
	AnalyzeTime time.Duration
	LayoutTime  time.Duration
	RenderTime  time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	AnalyzeHit bool
	LayoutHit  bool
	RenderHit  bool // every requested artifact came from the cache
}
