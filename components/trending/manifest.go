package trending

import (
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// BoardManifest is a YAML document describing units, their columns, the
// panels to seed and the synthetic sample series used by demos.
type BoardManifest struct {
	Version string          `yaml:"version"`
	Name    string          `yaml:"name,omitempty"`
	Units   []ManifestUnit  `yaml:"units"`
	Panels  []Panel         `yaml:"panels,omitempty"`
	Samples ManifestSamples `yaml:"samples,omitempty"`
	Source  string          `yaml:"-"`
}

// ManifestUnit declares a unit and its columns.
type ManifestUnit struct {
	ID           ID               `yaml:"id"`
	Name         string           `yaml:"name"`
	CreationDate Date             `yaml:"creation_date,omitempty"`
	Columns      []ManifestColumn `yaml:"columns,omitempty"`
}

// ManifestColumn declares a unit column.
type ManifestColumn struct {
	ID   ID     `yaml:"id"`
	Name string `yaml:"name"`
}

// ManifestSamples controls synthetic hourly samples. Days of zero disables
// generation.
type ManifestSamples struct {
	Days   int     `yaml:"days,omitempty"`
	Hours  int     `yaml:"hours,omitempty"`
	Base   float64 `yaml:"base,omitempty"`
	Jitter float64 `yaml:"jitter,omitempty"`
	Seed   uint64  `yaml:"seed,omitempty"`
}

// ReadManifest loads a manifest file from disk.
func ReadManifest(path string) (*BoardManifest, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("trending: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("trending: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*BoardManifest, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc BoardManifest
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("trending: manifest is empty")
		}
		return nil, fmt.Errorf("trending: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate ensures the manifest satisfies required fields and that panels
// only reference declared units.
func (doc *BoardManifest) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("trending: unsupported manifest version %q", doc.Version)
	}
	units := make(map[ID]struct{}, len(doc.Units))
	for idx, unit := range doc.Units {
		if unit.ID == "" {
			return fmt.Errorf("trending: manifest unit at index %d is missing id", idx)
		}
		if _, exists := units[unit.ID]; exists {
			return fmt.Errorf("trending: manifest duplicates unit %s", unit.ID)
		}
		units[unit.ID] = struct{}{}
	}
	for idx, panel := range doc.Panels {
		if panel.Name == "" {
			return fmt.Errorf("trending: manifest panel at index %d is missing name", idx)
		}
		if panel.AggregationType != "" && !panel.AggregationType.Valid() {
			return fmt.Errorf("trending: manifest panel %q has unknown aggregation %q", panel.Name, panel.AggregationType)
		}
		if panel.Period != "" && !panel.Period.Valid() {
			return fmt.Errorf("trending: manifest panel %q has unknown period %q", panel.Name, panel.Period)
		}
		if panel.ViewMode != "" && !panel.ViewMode.Valid() {
			return fmt.Errorf("trending: manifest panel %q has unknown view mode %q", panel.Name, panel.ViewMode)
		}
		if panel.ColSpan != 0 && !panel.ColSpan.Valid() {
			return fmt.Errorf("trending: manifest panel %q has invalid span %d", panel.Name, panel.ColSpan)
		}
		for _, id := range panel.UnitIDs {
			if _, ok := units[id]; !ok {
				return fmt.Errorf("trending: manifest panel %q references unknown unit %s", panel.Name, id)
			}
		}
	}
	return nil
}

func (doc *BoardManifest) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if doc.Samples.Days > 0 {
		if doc.Samples.Hours <= 0 || doc.Samples.Hours > 24 {
			doc.Samples.Hours = 24
		}
		if doc.Samples.Base == 0 {
			doc.Samples.Base = 100
		}
	}
	for i := range doc.Panels {
		if doc.Panels[i].ViewMode == "" {
			doc.Panels[i].ViewMode = ViewLineChart
		}
		doc.Panels[i].ColSpan = doc.Panels[i].ColSpan.Normalize()
	}
}

// Apply loads the manifest into store: units, columns, panels in document
// order and, when configured, synthetic samples ending at now.
func (doc *BoardManifest) Apply(store *InMemoryStore, now time.Time) {
	for _, unit := range doc.Units {
		store.PutUnit(Unit{ID: unit.ID, Name: unit.Name, CreationDate: unit.CreationDate})
		columns := make([]Column, 0, len(unit.Columns))
		for _, col := range unit.Columns {
			columns = append(columns, Column{ID: col.ID, Name: col.Name})
		}
		store.PutColumns(unit.ID, columns...)
	}
	for i, panel := range doc.Panels {
		panel.Order = i
		store.PutPanel(panel)
	}
	if doc.Samples.Days > 0 {
		store.AddSamples(doc.GenerateSamples(now)...)
	}
}

// GenerateSamples produces deterministic hourly samples for every unit and
// column over the configured number of days ending at now. Days before a
// unit's creation date are skipped.
func (doc *BoardManifest) GenerateSamples(now time.Time) []RawSample {
	cfg := doc.Samples
	if cfg.Days <= 0 {
		return nil
	}
	today := DateOf(now)
	var out []RawSample
	for _, unit := range doc.Units {
		for _, col := range unit.Columns {
			rng := rand.New(rand.NewPCG(cfg.Seed, seriesSeed(unit.ID, col.ID)))
			for day := cfg.Days - 1; day >= 0; day-- {
				date := today.AddDays(-day)
				if !unit.CreationDate.IsZero() && date.Before(unit.CreationDate) {
					continue
				}
				for hour := 0; hour < cfg.Hours; hour++ {
					value := cfg.Base + (rng.Float64()*2-1)*cfg.Jitter
					value = float64(int64(value))
					h := hour
					out = append(out, RawSample{
						UnitID:     unit.ID,
						ColumnID:   col.ID,
						ColumnName: col.Name,
						Date:       date,
						Hour:       &h,
						Value:      ptr(strconv.FormatFloat(value, 'f', -1, 64)),
					})
				}
			}
		}
	}
	return out
}

func seriesSeed(unit, column ID) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(unit))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(column))
	return h.Sum64()
}

func ptr[T any](v T) *T { return &v }
