package trending

import (
	"sort"
	"sync"

	"github.com/ettle/strcase"
)

// ViewMode selects how a panel renders its aggregates.
type ViewMode string

const (
	ViewValue     ViewMode = "Value"
	ViewLineChart ViewMode = "LineChart"
	ViewBarChart  ViewMode = "BarChart"
	ViewPieChart  ViewMode = "PieChart"
)

var viewCycle = []ViewMode{ViewValue, ViewLineChart, ViewBarChart, ViewPieChart}

var viewIcons = map[ViewMode]string{
	ViewValue:     "hash",
	ViewLineChart: "chart-line",
	ViewBarChart:  "chart-bar",
	ViewPieChart:  "chart-pie",
}

// ViewModes lists the modes in cycle order.
func ViewModes() []ViewMode {
	return append([]ViewMode(nil), viewCycle...)
}

// Valid reports whether the mode is known.
func (m ViewMode) Valid() bool {
	_, ok := viewIcons[m]
	return ok
}

// Next advances the cycle Value -> LineChart -> BarChart -> PieChart -> Value.
// Unknown modes restart at Value.
func (m ViewMode) Next() ViewMode {
	for i, mode := range viewCycle {
		if mode == m {
			return viewCycle[(i+1)%len(viewCycle)]
		}
	}
	return ViewValue
}

// IconPair is the icon of the mode being shown and of the mode the toggle
// button switches to.
type IconPair struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

// Icons returns the icon pairing for the mode.
func (m ViewMode) Icons() IconPair {
	return IconPair{Current: viewIcons[m.normalized()], Next: viewIcons[m.Next()]}
}

// CSSClass returns the kebab-case class used by templates, e.g. "line-chart".
func (m ViewMode) CSSClass() string {
	return strcase.ToKebab(string(m.normalized()))
}

func (m ViewMode) normalized() ViewMode {
	if m.Valid() {
		return m
	}
	return ViewValue
}

// Visibility is the set of units hidden from the composite series. It lives
// in memory only and starts empty on every load.
type Visibility struct {
	mu     sync.RWMutex
	hidden map[ID]bool
}

// NewVisibility returns an empty mask.
func NewVisibility() *Visibility {
	return &Visibility{hidden: map[ID]bool{}}
}

// Toggle flips the unit and reports whether it is now hidden.
func (v *Visibility) Toggle(id ID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.hidden[id] {
		delete(v.hidden, id)
		return false
	}
	v.hidden[id] = true
	return true
}

// IsHidden reports whether the unit is hidden.
func (v *Visibility) IsHidden(id ID) bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.hidden[id]
}

// Snapshot returns a copy of the hidden set.
func (v *Visibility) Snapshot() map[ID]bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make(map[ID]bool, len(v.hidden))
	for id := range v.hidden {
		out[id] = true
	}
	return out
}

// Hidden returns the hidden unit ids sorted.
func (v *Visibility) Hidden() []ID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]ID, 0, len(v.hidden))
	for id := range v.hidden {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Retain drops hidden entries for units no longer selected.
func (v *Visibility) Retain(selected []ID) {
	keep := make(map[ID]struct{}, len(selected))
	for _, id := range selected {
		keep[id] = struct{}{}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	for id := range v.hidden {
		if _, ok := keep[id]; !ok {
			delete(v.hidden, id)
		}
	}
}

// Reset clears the mask.
func (v *Visibility) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden = map[ID]bool{}
}
