package sink

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rs/zerolog"
	chart "github.com/wcharczuk/go-chart/v2"

	"nmea-drift/internal/correlation"
)

// ChartOptions select the images to render and their geometry.
type ChartOptions struct {
	// TimeSeriesPath receives delta heading and rotation speed over time.
	TimeSeriesPath string
	// ScatterPath receives delta heading against bottom heading.
	ScatterPath string
	Width       int
	Height      int
	// MaxPoints caps the samples drawn per series; 0 draws everything.
	MaxPoints int
	// DeltaLimit bounds the scatter delta-heading axis to [-DeltaLimit, DeltaLimit].
	DeltaLimit float64
}

// Chart buffers the metrics of a session and renders PNG files on Stop.
type Chart struct {
	opts    ChartOptions
	logger  zerolog.Logger
	session Session
	metrics []correlation.Metric
}

// NewChart validates opts.
func NewChart(opts ChartOptions, logger zerolog.Logger) (*Chart, error) {
	if opts.TimeSeriesPath == "" && opts.ScatterPath == "" {
		return nil, errors.New("chart sink: at least one output path is required")
	}
	if opts.Width <= 0 {
		opts.Width = 1280
	}
	if opts.Height <= 0 {
		opts.Height = 720
	}
	if opts.DeltaLimit <= 0 {
		opts.DeltaLimit = 40
	}
	return &Chart{
		opts:   opts,
		logger: logger.With().Str("component", "chart_sink").Logger(),
	}, nil
}

func (c *Chart) Start(_ context.Context, session Session) error {
	c.session = session
	c.metrics = c.metrics[:0]
	return nil
}

func (c *Chart) Write(_ context.Context, m correlation.Metric) error {
	c.metrics = append(c.metrics, m)
	return nil
}

func (c *Chart) Stop(_ context.Context) error {
	metrics := downsample(c.metrics, c.opts.MaxPoints)
	c.logger.Info().Int("total", len(c.metrics)).Int("plotted", len(metrics)).Msg("rendering charts")

	var errs []error
	if c.opts.TimeSeriesPath != "" {
		if err := c.renderTimeSeries(metrics); err != nil {
			errs = append(errs, fmt.Errorf("time series chart: %w", err))
		}
	}
	if c.opts.ScatterPath != "" {
		if err := c.renderScatter(metrics); err != nil {
			errs = append(errs, fmt.Errorf("scatter chart: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Chart) renderTimeSeries(metrics []correlation.Metric) error {
	if len(metrics) < 2 || span(metrics) <= 0 {
		c.logger.Warn().Int("metrics", len(metrics)).Msg("not enough data for a time series chart")
		return nil
	}

	delta := collectSeries(metrics, func(m correlation.Metric) *float64 { return m.DeltaHeading })
	rotation := collectSeries(metrics, func(m correlation.Metric) *float64 { return m.RotationSpeed })
	bottom := collectSeries(metrics, func(m correlation.Metric) *float64 { return m.BottomHeading })

	degreeFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.1f")
	}
	graph := chart.Chart{
		Title:  c.session.Title,
		Width:  c.opts.Width,
		Height: c.opts.Height,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("15:04:05"),
		},
		YAxis: chart.YAxis{
			Name:           "Delta heading (deg) / rotation (deg/s)",
			ValueFormatter: degreeFormatter,
			Range:          paddedRange(delta.YValues, rotation.YValues),
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Bottom heading (deg)",
			ValueFormatter: degreeFormatter,
			Range:          &chart.ContinuousRange{Min: 0, Max: 360},
		},
	}

	if delta.Len() > 0 {
		delta.Name = "Delta heading"
		graph.Series = append(graph.Series, delta)
	}
	if rotation.Len() > 0 {
		rotation.Name = "Rotation speed"
		graph.Series = append(graph.Series, rotation)
	}
	if bottom.Len() > 0 {
		bottom.Name = "Bottom heading"
		bottom.YAxis = chart.YAxisSecondary
		graph.Series = append(graph.Series, bottom)
	}
	if len(graph.Series) == 0 {
		c.logger.Warn().Msg("no plottable values for the time series chart")
		return nil
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return renderPNG(c.opts.TimeSeriesPath, graph)
}

func (c *Chart) renderScatter(metrics []correlation.Metric) error {
	points := chart.ContinuousSeries{
		Name: "Delta heading vs bottom heading",
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    3,
		},
	}
	for _, m := range metrics {
		if m.DeltaHeading == nil || m.BottomHeading == nil {
			continue
		}
		points.XValues = append(points.XValues, *m.BottomHeading)
		points.YValues = append(points.YValues, *m.DeltaHeading)
	}
	if len(points.XValues) == 0 {
		c.logger.Warn().Msg("no delta heading to plot in the scatter chart")
		return nil
	}

	graph := chart.Chart{
		Title:  c.session.Title,
		Width:  c.opts.Width,
		Height: c.opts.Height,
		XAxis: chart.XAxis{
			Name:  "Bottom heading (deg)",
			Range: &chart.ContinuousRange{Min: 0, Max: 360},
		},
		YAxis: chart.YAxis{
			Name:  "Delta heading (deg)",
			Range: &chart.ContinuousRange{Min: -c.opts.DeltaLimit, Max: c.opts.DeltaLimit},
		},
		Series: []chart.Series{points},
	}

	return renderPNG(c.opts.ScatterPath, graph)
}

func collectSeries(metrics []correlation.Metric, value func(correlation.Metric) *float64) chart.TimeSeries {
	var series chart.TimeSeries
	for _, m := range metrics {
		v := value(m)
		if v == nil {
			continue
		}
		series.XValues = append(series.XValues, m.At)
		series.YValues = append(series.YValues, *v)
	}
	return series
}

func paddedRange(sets ...[]float64) *chart.ContinuousRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, set := range sets {
		for _, v := range set {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return &chart.ContinuousRange{Min: -1, Max: 1}
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 1
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func renderPNG(path string, graph chart.Chart) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

// downsample keeps max evenly spaced metrics, first and last included.
func downsample(metrics []correlation.Metric, max int) []correlation.Metric {
	if max <= 1 || len(metrics) <= max {
		return metrics
	}

	result := make([]correlation.Metric, 0, max)
	step := float64(len(metrics)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(metrics) {
			idx = len(metrics) - 1
		}
		result = append(result, metrics[idx])
	}
	return result
}

// span reports the time covered by metrics.
func span(metrics []correlation.Metric) time.Duration {
	if len(metrics) == 0 {
		return 0
	}
	return metrics[len(metrics)-1].At.Sub(metrics[0].At)
}

var _ Sink = (*Chart)(nil)
