package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/evsingleline/singleline/pkg/compliance"
	"github.com/evsingleline/singleline/pkg/diagram"
	"github.com/evsingleline/singleline/pkg/diagram/blocks"
	"github.com/evsingleline/singleline/pkg/diagram/sink"
	"github.com/evsingleline/singleline/pkg/report"
	"github.com/evsingleline/singleline/pkg/survey"
)

// Inputs bundles the derived products every renderer draws from.
type Inputs struct {
	Survey survey.Survey
	Report compliance.Report
	Layout diagram.Layout
}

// Render produces a single artifact. It does not touch the cache.
func Render(ctx context.Context, in Inputs, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatSVG:
		return sink.RenderSVG(in.Layout, svgOptions(opts)...)
	case FormatPNG:
		return sink.RenderPNG(in.Layout,
			sink.WithPNGSVGOptions(svgOptions(opts)...),
			sink.WithScale(opts.Scale))
	case FormatPDF:
		return sink.RenderPDF(in.Layout)
	case FormatJSON:
		jopts := []sink.JSONOption{sink.WithJSONColors()}
		if opts.Title != "" {
			jopts = append(jopts, sink.WithJSONTitle(opts.Title))
		}
		return sink.RenderJSON(in.Layout, jopts...)
	case FormatDOT:
		return []byte(blocks.ToDOT(in.Survey, blocks.Options{Breakers: opts.Breakers})), nil
	case FormatBlocks:
		return blocks.RenderSVG(ctx, blocks.ToDOT(in.Survey, blocks.Options{Breakers: opts.Breakers}))
	case FormatReport:
		var ropts []report.PDFOption
		if opts.Diagram {
			ropts = append(ropts, report.WithDiagram())
		}
		if opts.Chart {
			ropts = append(ropts, report.WithChart())
		}
		return report.RenderPDF(document(in, opts), ropts...)
	case FormatXLSX:
		return report.RenderXLSX(document(in, opts))
	case FormatChart:
		return report.LoadChart(in.Report, report.ChartPNG)
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

// RenderAll renders every format in opts.Formats.
func RenderAll(ctx context.Context, in Inputs, opts Options) (map[string][]byte, error) {
	out := make(map[string][]byte, len(opts.Formats))
	for _, f := range opts.Formats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := Render(ctx, in, f, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		out[f] = data
	}
	return out, nil
}

func svgOptions(opts Options) []sink.SVGOption {
	var so []sink.SVGOption
	if opts.Title != "" {
		so = append(so, sink.WithTitle(opts.Title))
	}
	if opts.Legend {
		so = append(so, sink.WithLegend())
	}
	return so
}

func document(in Inputs, opts Options) report.Document {
	generated := opts.Generated
	if generated.IsZero() {
		generated = time.Now()
	}
	return report.Document{
		Survey:     in.Survey,
		Compliance: in.Report,
		Layout:     in.Layout,
		Generated:  generated,
	}
}
