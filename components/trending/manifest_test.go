package trending

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestFixture = `
version: "1"
name: plant
units:
  - id: "1"
    name: North
    creation_date: 2024-03-13
    columns:
      - id: c1
        name: Output
  - id: "2"
    name: South
    columns:
      - id: c1
        name: Output
      - id: c2
        name: Scrap
panels:
  - name: Weekly output
    aggregation_type: Total
    period: Weekly
    unit_ids: ["1", "2"]
    col_span: 3
  - name: Scrap
    view_mode: PieChart
    unit_ids: ["2"]
samples:
  days: 5
  hours: 2
  jitter: 10
  seed: 7
`

func TestDecodeManifestAppliesDefaults(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(manifestFixture))
	require.NoError(t, err)
	assert.Equal(t, "plant", doc.Name)
	require.Len(t, doc.Panels, 2)
	assert.Equal(t, Span(2), doc.Panels[0].ColSpan)
	assert.Equal(t, ViewLineChart, doc.Panels[0].ViewMode)
	assert.Equal(t, ViewPieChart, doc.Panels[1].ViewMode)
	assert.Equal(t, 100.0, doc.Samples.Base)
}

func TestDecodeManifestRejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":        ``,
		"version":      "version: \"2\"\nunits: []\n",
		"unknown unit": "units: [{id: \"1\", name: A}]\npanels: [{name: P, unit_ids: [\"9\"]}]\n",
		"duplicate":    "units: [{id: \"1\", name: A}, {id: \"1\", name: B}]\n",
		"period":       "units: []\npanels: [{name: P, period: Daily}]\n",
		"field":        "units: []\nwidgets: []\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeManifest(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestManifestGenerateSamplesIsDeterministic(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(manifestFixture))
	require.NoError(t, err)

	first := doc.GenerateSamples(testNow)
	second := doc.GenerateSamples(testNow)
	assert.Equal(t, first, second)

	// unit 1: 3 days x 1 column x 2 hours; unit 2: 5 days x 2 columns x 2 hours
	assert.Len(t, first, 6+20)
	for _, s := range first {
		if s.UnitID == "1" {
			assert.False(t, s.Date.Before(MustDate("2024-03-13")))
		}
		_, ok := s.Numeric()
		assert.True(t, ok)
	}
}

func TestManifestApplySeedsStore(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(manifestFixture))
	require.NoError(t, err)
	store := NewInMemoryStore()
	doc.Apply(store, testNow)

	ctx := context.Background()
	units, err := store.ListUnits(ctx)
	require.NoError(t, err)
	assert.Len(t, units, 2)

	panels, err := store.ListPanels(ctx)
	require.NoError(t, err)
	require.Len(t, panels, 2)
	assert.Equal(t, "Weekly output", panels[0].Name)
	assert.NotEmpty(t, panels[0].ID)

	cols, err := store.ListColumns(ctx, "2")
	require.NoError(t, err)
	assert.Len(t, cols, 2)
	assert.Equal(t, ID("2"), cols[0].UnitID)

	rows, err := store.ListSamples(ctx, "2", DateRange{Start: MustDate("2024-03-15"), End: MustDate("2024-03-15")})
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}
