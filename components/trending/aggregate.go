package trending

import (
	"encoding/json"
	"math"
	"sort"
)

// DailyAggregate holds the reduced value of every selected unit for one day
// plus the composite over visible units.
type DailyAggregate struct {
	Date  Date
	Units map[ID]float64
	All   float64
}

// Value returns the value stored under key, where CompositeKey selects All.
func (a DailyAggregate) Value(key string) float64 {
	if key == CompositeKey {
		return a.All
	}
	return a.Units[ID(key)]
}

// MarshalJSON flattens the record into {"date": ..., "<unit>": v, "ALL": v}.
func (a DailyAggregate) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(a.Units)+2)
	for id, v := range a.Units {
		flat[string(id)] = v
	}
	flat[CompositeKey] = a.All
	flat["date"] = a.Date.String()
	return json.Marshal(flat)
}

// AggregateOptions parameterizes BuildAggregates.
type AggregateOptions struct {
	// ColumnID filters samples to one column; empty or ColumnAll keeps all.
	ColumnID    string
	Aggregation AggregationType
	// UnitIDs is the ordered list of selected units.
	UnitIDs []ID
	// Hidden excludes units from the composite only.
	Hidden map[ID]bool
}

// BuildAggregates turns raw samples into date-ordered daily aggregates. It is
// a pure function of its inputs.
func BuildAggregates(samples []RawSample, opts AggregateOptions) []DailyAggregate {
	selected := make(map[ID]struct{}, len(opts.UnitIDs))
	units := make([]ID, 0, len(opts.UnitIDs))
	for _, id := range opts.UnitIDs {
		if _, dup := selected[id]; dup {
			continue
		}
		selected[id] = struct{}{}
		units = append(units, id)
	}
	if len(units) == 0 {
		return []DailyAggregate{}
	}

	filterColumn := opts.ColumnID != "" && opts.ColumnID != ColumnAll
	groups := map[Date]map[ID][]float64{}
	for _, s := range samples {
		if filterColumn && string(s.ColumnID) != opts.ColumnID {
			continue
		}
		if _, ok := selected[s.UnitID]; !ok || s.Date.IsZero() {
			continue
		}
		v, ok := s.Numeric()
		if !ok {
			continue
		}
		byUnit, ok := groups[s.Date]
		if !ok {
			byUnit = map[ID][]float64{}
			groups[s.Date] = byUnit
		}
		byUnit[s.UnitID] = append(byUnit[s.UnitID], v)
	}

	dates := make([]Date, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]DailyAggregate, 0, len(dates))
	for _, d := range dates {
		record := DailyAggregate{Date: d, Units: make(map[ID]float64, len(units))}
		visible := make([]float64, 0, len(units))
		for _, id := range units {
			v := reduce(groups[d][id], opts.Aggregation)
			record.Units[id] = v
			if !opts.Hidden[id] {
				visible = append(visible, v)
			}
		}
		record.All = reduce(visible, opts.Aggregation)
		out = append(out, record)
	}
	return out
}

// reduce sums for Total (and for an unset aggregation) and takes the mean
// rounded to the nearest integer for Average. Empty input reduces to 0.
func reduce(values []float64, aggregation AggregationType) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	if aggregation == AggregationAverage {
		return math.Round(sum / float64(len(values)))
	}
	return sum
}

// Summary is the scalar payload of the Value view plus per-unit figures used
// by the pie view.
type Summary struct {
	Value float64        `json:"value"`
	Units map[ID]float64 `json:"units"`
	Days  int            `json:"days"`
}

// Summarize folds daily aggregates over the whole range. Total sums every day;
// Average takes the rounded mean of the daily values.
func Summarize(aggregates []DailyAggregate, aggregation AggregationType, units []ID) Summary {
	summary := Summary{Units: make(map[ID]float64, len(units)), Days: len(aggregates)}
	if len(aggregates) == 0 {
		for _, id := range units {
			summary.Units[id] = 0
		}
		return summary
	}
	all := make([]float64, 0, len(aggregates))
	perUnit := make(map[ID][]float64, len(units))
	for _, a := range aggregates {
		all = append(all, a.All)
		for _, id := range units {
			perUnit[id] = append(perUnit[id], a.Units[id])
		}
	}
	summary.Value = reduce(all, aggregation)
	for _, id := range units {
		summary.Units[id] = reduce(perUnit[id], aggregation)
	}
	return summary
}

func isNaNOrInf(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
