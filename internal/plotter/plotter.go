package plotter

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	gplotter "gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"fishstat/internal/config"
	apperrors "fishstat/internal/errors"
	"fishstat/pkg/contracts/domain"
)

const (
	// XLabel labels the horizontal axis
	XLabel = "Year"
	// YLabel labels the vertical axis
	YLabel = "Population (Tonnes)"

	defaultDPI = 96
)

// Options controls chart appearance and output
type Options struct {
	Width     float64 // inches
	Height    float64 // inches
	LineColor string
	Marker    string
	Grid      bool
	DPI       int
	Format    string // png, jpg, jpeg, svg or pdf
}

// OptionsFromConfig builds chart options from the plot style and export
// sections
func OptionsFromConfig(style config.PlotStyleConfig, export config.ExportConfig) Options {
	opts := Options{
		LineColor: style.LineColor,
		Marker:    style.Marker,
		Grid:      style.Grid,
		DPI:       export.PlotDPI,
		Format:    export.PlotFormat,
	}
	if len(style.FigureSize) == 2 {
		opts.Width, opts.Height = style.FigureSize[0], style.FigureSize[1]
	}
	return opts
}

// Plotter renders trend charts
type Plotter struct {
	logger *slog.Logger
	opts   Options
	color  color.Color
	glyph  draw.GlyphDrawer
}

// New validates the options and creates a plotter. Invalid colors,
// markers or formats are CONFIG errors.
func New(logger *slog.Logger, opts Options) (*Plotter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = 10, 6
	}
	if opts.DPI <= 0 {
		opts.DPI = defaultDPI
	}
	opts.Format = strings.ToLower(opts.Format)
	if opts.Format == "" {
		opts.Format = "png"
	}

	switch opts.Format {
	case "png", "jpg", "jpeg", "svg", "pdf":
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported plot format %q", opts.Format), nil)
	}

	c, err := ParseColor(opts.LineColor)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid plot_style.line_color", err)
	}
	glyph, err := ParseMarker(opts.Marker)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid plot_style.marker", err)
	}

	return &Plotter{
		logger: logger.With(slog.String("component", "plotter")),
		opts:   opts,
		color:  c,
		glyph:  glyph,
	}, nil
}

// Format returns the configured image format
func (p *Plotter) Format() string {
	return p.opts.Format
}

// ContentType returns the MIME type of rendered images
func (p *Plotter) ContentType() string {
	switch p.opts.Format {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "svg":
		return "image/svg+xml"
	case "pdf":
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Save renders the chart of one group to path
func (p *Plotter) Save(ctx context.Context, path, group string, series []domain.AggregateRecord) error {
	if len(series) == 0 {
		return noData(group)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewIOError("failed to create plot directory", path, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewIOError("failed to create plot file", path, err)
	}

	if err := p.Render(ctx, f, group, series); err != nil {
		f.Close()
		os.Remove(path)
		if apperrors.TypeOf(err) != "" || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return apperrors.NewIOError("failed to write plot", path, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return apperrors.NewIOError("failed to close plot file", path, err)
	}

	p.logger.InfoContext(ctx, "plot saved",
		slog.String("group", group),
		slog.String("path", path),
		slog.Int("points", len(series)))
	return nil
}

// Render draws the chart of one group to w
func (p *Plotter) Render(ctx context.Context, w io.Writer, group string, series []domain.AggregateRecord) error {
	if len(series) == 0 {
		return noData(group)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	plt, err := p.build(group, series)
	if err != nil {
		return err
	}

	width := vg.Length(p.opts.Width) * vg.Inch
	height := vg.Length(p.opts.Height) * vg.Inch

	switch p.opts.Format {
	case "png", "jpg", "jpeg":
		c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(p.opts.DPI))
		plt.Draw(draw.New(c))

		var wt io.WriterTo = vgimg.PngCanvas{Canvas: c}
		if p.opts.Format != "png" {
			wt = vgimg.JpegCanvas{Canvas: c}
		}
		_, err = wt.WriteTo(w)
	default:
		var wt io.WriterTo
		wt, err = plt.WriterTo(width, height, p.opts.Format)
		if err == nil {
			_, err = wt.WriteTo(w)
		}
	}
	return err
}

// build assembles the gonum plot for a series ordered by year
func (p *Plotter) build(group string, series []domain.AggregateRecord) (*plot.Plot, error) {
	pts := make(gplotter.XYs, len(series))
	for i, r := range series {
		pts[i].X = float64(r.Year)
		pts[i].Y = r.Value
	}

	plt := plot.New()
	plt.Title.Text = "Population Trends for " + group
	plt.X.Label.Text = XLabel
	plt.Y.Label.Text = YLabel
	plt.X.Tick.Marker = yearTicks{}
	plt.Legend.Top = true

	if p.opts.Grid {
		plt.Add(gplotter.NewGrid())
	}

	line, err := gplotter.NewLine(pts)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("cannot plot %s: %v", group, err))
	}
	line.Color = p.color
	line.Width = vg.Points(1.5)
	plt.Add(line)

	thumbs := []plot.Thumbnailer{line}
	if p.glyph != nil {
		scatter, err := gplotter.NewScatter(pts)
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("cannot plot %s: %v", group, err))
		}
		scatter.GlyphStyle.Color = p.color
		scatter.GlyphStyle.Shape = p.glyph
		scatter.GlyphStyle.Radius = vg.Points(3)
		plt.Add(scatter)
		thumbs = append(thumbs, scatter)
	}
	plt.Legend.Add(group, thumbs...)

	if len(series) == 1 {
		// a single point needs some room around it
		plt.X.Min, plt.X.Max = pts[0].X-1, pts[0].X+1
	}

	return plt, nil
}

func noData(group string) error {
	return apperrors.NewInsufficientDataError(fmt.Sprintf("no data to plot for %q", group)).
		WithContext("group", group)
}

// yearTicks places ticks on whole years only
type yearTicks struct{}

// Ticks implements plot.Ticker
func (yearTicks) Ticks(min, max float64) []plot.Tick {
	lo, hi := math.Ceil(min), math.Floor(max)
	if hi < lo {
		return nil
	}

	span := hi - lo
	step := 1.0
	for _, s := range []float64{1, 2, 5, 10, 20, 25, 50, 100} {
		step = s
		if span/s <= 10 {
			break
		}
	}

	var ticks []plot.Tick
	for y := math.Ceil(lo/step) * step; y <= hi; y += step {
		ticks = append(ticks, plot.Tick{Value: y, Label: fmt.Sprintf("%.0f", y)})
	}
	return ticks
}
