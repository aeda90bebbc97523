package trending

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

const defaultChartHeight = "320px"

const compositeLabelKey = "trending.series.all"

var sharedChartCache = NewChartCache(5 * time.Minute)

// RenderInput is everything needed to render one panel.
type RenderInput struct {
	Panel      Panel
	Aggregates []DailyAggregate
	Hidden     []ID
	Units      []Unit
	Locale     string
}

// LegendEntry describes one series of a rendered panel.
type LegendEntry struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Hidden bool    `json:"hidden"`
	Value  float64 `json:"value"`
}

// RenderedPanel is the view model consumed by templates and JSON clients.
type RenderedPanel struct {
	PanelID   ID            `json:"panel_id"`
	Title     string        `json:"title"`
	Mode      ViewMode      `json:"mode"`
	CSSClass  string        `json:"css_class"`
	Icons     IconPair      `json:"icons"`
	ColSpan   Span          `json:"col_span"`
	ShowInfo  bool          `json:"show_info"`
	Period    Period        `json:"period,omitempty"`
	Summary   Summary       `json:"summary"`
	Legend    []LegendEntry `json:"legend"`
	ChartHTML string        `json:"chart_html,omitempty"`
	Empty     bool          `json:"empty"`
}

// ChartRenderer renders panels in their current view mode using go-echarts.
type ChartRenderer struct {
	cache      RenderCache
	theme      string
	assetsHost string
	translator TranslationService
}

// RendererOption customizes renderer behavior.
type RendererOption func(*ChartRenderer)

// WithRenderCache injects a render cache; nil disables caching.
func WithRenderCache(cache RenderCache) RendererOption {
	return func(r *ChartRenderer) {
		r.cache = cache
	}
}

// WithChartTheme sets the chart theme (defaults to Westeros).
func WithChartTheme(theme string) RendererOption {
	return func(r *ChartRenderer) {
		r.theme = theme
	}
}

// WithChartAssetsHost rewrites the assets host so ECharts JS loads from a CDN.
func WithChartAssetsHost(host string) RendererOption {
	return func(r *ChartRenderer) {
		r.assetsHost = host
	}
}

// WithRendererTranslator sets the translator used for series labels.
func WithRendererTranslator(svc TranslationService) RendererOption {
	return func(r *ChartRenderer) {
		r.translator = svc
	}
}

// NewChartRenderer builds a renderer.
func NewChartRenderer(options ...RendererOption) *ChartRenderer {
	r := &ChartRenderer{
		cache: sharedChartCache,
		theme: types.ThemeWesteros,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Render builds the view model for the panel's current mode. Value mode
// carries only the summary; chart modes also carry rendered chart HTML.
func (r *ChartRenderer) Render(ctx context.Context, in RenderInput) (RenderedPanel, error) {
	panel := in.Panel
	mode := panel.ViewMode.normalized()
	units := panel.DistinctUnits()
	hidden := make(map[ID]bool, len(in.Hidden))
	for _, id := range in.Hidden {
		hidden[id] = true
	}
	names := unitNames(in.Units)
	summary := Summarize(in.Aggregates, panel.AggregationType, units)

	out := RenderedPanel{
		PanelID:  panel.ID,
		Title:    panel.Name,
		Mode:     mode,
		CSSClass: mode.CSSClass(),
		Icons:    mode.Icons(),
		ColSpan:  panel.ColSpan.Normalize(),
		ShowInfo: panel.ShowInfo,
		Period:   panel.Period,
		Summary:  summary,
		Empty:    len(in.Aggregates) == 0,
	}
	allLabel := translateOrFallback(ctx, r.translator, compositeLabelKey, in.Locale, "All", nil)
	labels := seriesLabels(units, names, allLabel)
	for _, id := range units {
		out.Legend = append(out.Legend, LegendEntry{
			Key:    string(id),
			Name:   labels[id],
			Hidden: hidden[id],
			Value:  summary.Units[id],
		})
	}
	out.Legend = append(out.Legend, LegendEntry{Key: CompositeKey, Name: allLabel, Value: summary.Value})

	if mode == ViewValue || out.Empty {
		return out, nil
	}

	renderFn := func() (string, error) {
		return r.render(mode, panel.Name, in, out.Legend)
	}
	var (
		html string
		err  error
	)
	if r.cache != nil {
		key := fmt.Sprintf("%s:%s:%s", panel.ID, mode, contentHash(map[string]any{
			"aggregates": in.Aggregates,
			"legend":     out.Legend,
			"locale":     in.Locale,
			"title":      panel.Name,
			"theme":      r.theme,
		}))
		html, err = r.cache.GetOrRender(key, renderFn)
	} else {
		html, err = renderFn()
	}
	if err != nil {
		return RenderedPanel{}, fmt.Errorf("trending: render panel %s: %w", panel.ID, err)
	}
	out.ChartHTML = html
	return out, nil
}

func (r *ChartRenderer) render(mode ViewMode, title string, in RenderInput, legend []LegendEntry) (string, error) {
	switch mode {
	case ViewLineChart:
		return r.renderLineChart(title, in, legend)
	case ViewBarChart:
		return r.renderBarChart(title, in, legend)
	case ViewPieChart:
		return r.renderPieChart(title, legend)
	default:
		return "", fmt.Errorf("unsupported view mode: %s", mode)
	}
}

func (r *ChartRenderer) renderLineChart(title string, in RenderInput, legend []LegendEntry) (string, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(r.globalChartOptions(title, legend)...)
	line.SetXAxis(axisLabels(in.Aggregates, in.Locale))
	for _, entry := range legend {
		line.AddSeries(entry.Name, toLineData(in.Aggregates, entry.Key))
	}
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return renderChart(line)
}

func (r *ChartRenderer) renderBarChart(title string, in RenderInput, legend []LegendEntry) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(r.globalChartOptions(title, legend)...)
	bar.SetXAxis(axisLabels(in.Aggregates, in.Locale))
	for _, entry := range legend {
		bar.AddSeries(entry.Name, toBarData(in.Aggregates, entry.Key))
	}
	return renderChart(bar)
}

// renderPieChart draws one slice per unit; the composite is not a slice.
func (r *ChartRenderer) renderPieChart(title string, legend []LegendEntry) (string, error) {
	pie := charts.NewPie()
	pie.SetGlobalOptions(r.globalChartOptions(title, legend)...)
	data := make([]opts.PieData, 0, len(legend))
	for _, entry := range legend {
		if entry.Key == CompositeKey {
			continue
		}
		data = append(data, opts.PieData{Name: entry.Name, Value: entry.Value})
	}
	pie.AddSeries(title, data)
	return renderChart(pie)
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *ChartRenderer) globalChartOptions(title string, legend []LegendEntry) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  r.theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if r.assetsHost != "" {
		initOpts.AssetsHost = r.assetsHost
	}
	selected := make(map[string]bool, len(legend))
	for _, entry := range legend {
		selected[entry.Name] = !entry.Hidden
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Selected: selected}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithToolboxOpts(opts.Toolbox{Show: opts.Bool(true)}),
	}
}

func axisLabels(aggregates []DailyAggregate, locale string) []string {
	labels := make([]string, len(aggregates))
	for i, a := range aggregates {
		labels[i] = FormatDateLabel(a.Date, locale)
	}
	return labels
}

func toLineData(aggregates []DailyAggregate, key string) []opts.LineData {
	data := make([]opts.LineData, len(aggregates))
	for i, a := range aggregates {
		data[i] = opts.LineData{Name: a.Date.String(), Value: a.Value(key)}
	}
	return data
}

func toBarData(aggregates []DailyAggregate, key string) []opts.BarData {
	data := make([]opts.BarData, len(aggregates))
	for i, a := range aggregates {
		data[i] = opts.BarData{Name: a.Date.String(), Value: a.Value(key)}
	}
	return data
}

func unitNames(units []Unit) map[ID]string {
	names := make(map[ID]string, len(units))
	for _, u := range units {
		if u.Name != "" {
			names[u.ID] = u.Name
		}
	}
	return names
}

func seriesName(names map[ID]string, id ID) string {
	if name, ok := names[id]; ok {
		return name
	}
	return string(id)
}

// seriesLabels names each unit series. Echarts matches legend selection by
// series name, so a name shared by several units or by the composite gets the
// unit id appended.
func seriesLabels(units []ID, names map[ID]string, allLabel string) map[ID]string {
	counts := map[string]int{allLabel: 1}
	for _, id := range units {
		counts[seriesName(names, id)]++
	}
	labels := make(map[ID]string, len(units))
	for _, id := range units {
		name := seriesName(names, id)
		if counts[name] > 1 {
			name = fmt.Sprintf("%s (%s)", name, id)
		}
		labels[id] = name
	}
	return labels
}
