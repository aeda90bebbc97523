package trending

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderFixture(mode ViewMode) RenderInput {
	return RenderInput{
		Panel: Panel{
			ID:              "p1",
			Name:            "Output",
			AggregationType: AggregationTotal,
			Period:          PeriodWeekly,
			ViewMode:        mode,
			UnitIDs:         []ID{"1", "2"},
			ColSpan:         2,
		},
		Aggregates: []DailyAggregate{
			{Date: MustDate("2024-03-14"), Units: map[ID]float64{"1": 10, "2": 20}, All: 10},
			{Date: MustDate("2024-03-15"), Units: map[ID]float64{"1": 5, "2": 0}, All: 5},
		},
		Hidden: []ID{"2"},
		Units:  []Unit{{ID: "1", Name: "North"}, {ID: "2", Name: "South"}},
		Locale: "en",
	}
}

func TestChartRendererValueMode(t *testing.T) {
	r := NewChartRenderer(WithRenderCache(nil))
	out, err := r.Render(context.Background(), renderFixture(ViewValue))
	require.NoError(t, err)

	assert.Empty(t, out.ChartHTML)
	assert.Equal(t, "value", out.CSSClass)
	assert.Equal(t, IconPair{Current: "hash", Next: "chart-line"}, out.Icons)
	assert.Equal(t, Span(2), out.ColSpan)
	require.Len(t, out.Legend, 3)
	assert.Equal(t, LegendEntry{Key: "1", Name: "North", Value: 15}, out.Legend[0])
	assert.Equal(t, LegendEntry{Key: "2", Name: "South", Hidden: true, Value: 20}, out.Legend[1])
	assert.Equal(t, CompositeKey, out.Legend[2].Key)
	assert.Equal(t, "All", out.Legend[2].Name)
	assert.Equal(t, 15.0, out.Summary.Value)
}

func TestChartRendererChartModes(t *testing.T) {
	for _, mode := range []ViewMode{ViewLineChart, ViewBarChart, ViewPieChart} {
		t.Run(string(mode), func(t *testing.T) {
			r := NewChartRenderer(WithRenderCache(nil), WithChartAssetsHost("https://cdn.example.com/"))
			out, err := r.Render(context.Background(), renderFixture(mode))
			require.NoError(t, err)
			assert.Equal(t, mode, out.Mode)
			assert.Contains(t, out.ChartHTML, "North")
			assert.Contains(t, out.ChartHTML, "cdn.example.com")
			assert.False(t, out.Empty)
		})
	}
}

func TestChartRendererEmptyAggregatesSkipChart(t *testing.T) {
	in := renderFixture(ViewLineChart)
	in.Aggregates = nil
	out, err := NewChartRenderer(WithRenderCache(nil)).Render(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.Empty)
	assert.Empty(t, out.ChartHTML)
}

func TestChartRendererUsesCache(t *testing.T) {
	cache := NewChartCache(0)
	counting := &countingCache{inner: cache}
	r := NewChartRenderer(WithRenderCache(counting))

	_, err := r.Render(context.Background(), renderFixture(ViewBarChart))
	require.NoError(t, err)
	_, err = r.Render(context.Background(), renderFixture(ViewBarChart))
	require.NoError(t, err)
	require.Len(t, counting.keys, 2)
	assert.Equal(t, counting.keys[0], counting.keys[1])

	in := renderFixture(ViewBarChart)
	in.Hidden = nil
	_, err = r.Render(context.Background(), in)
	require.NoError(t, err)
	assert.NotEqual(t, counting.keys[0], counting.keys[2], "visibility changes the key")
}

func TestChartRendererTranslatesComposite(t *testing.T) {
	svc := mapTranslator{"es:" + compositeLabelKey: "Todos"}
	r := NewChartRenderer(WithRenderCache(nil), WithRendererTranslator(svc))
	in := renderFixture(ViewValue)
	in.Locale = "es"
	in.Units = nil
	out, err := r.Render(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Todos", out.Legend[2].Name)
	assert.Equal(t, "1", out.Legend[0].Name, "unknown units fall back to their id")
}

func TestChartRendererDisambiguatesSeriesNames(t *testing.T) {
	in := renderFixture(ViewLineChart)
	in.Panel.UnitIDs = []ID{"1", "2", "3"}
	in.Units = []Unit{{ID: "1", Name: "Line"}, {ID: "2", Name: "Line"}, {ID: "3", Name: "All"}}
	out, err := NewChartRenderer(WithRenderCache(nil)).Render(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, out.Legend, 4)
	names := make(map[string]bool, len(out.Legend))
	for _, entry := range out.Legend {
		assert.False(t, names[entry.Name], "duplicate series name %q", entry.Name)
		names[entry.Name] = true
	}
	assert.Equal(t, "Line (1)", out.Legend[0].Name)
	assert.Equal(t, "Line (2)", out.Legend[1].Name)
	assert.Equal(t, "All (3)", out.Legend[2].Name)
	assert.Equal(t, "All", out.Legend[3].Name)
	assert.True(t, out.Legend[1].Hidden)
	assert.Contains(t, out.ChartHTML, "Line (2)")
}

type countingCache struct {
	inner RenderCache
	keys  []string
}

func (c *countingCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	c.keys = append(c.keys, key)
	return c.inner.GetOrRender(key, render)
}
