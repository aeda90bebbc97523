package trending

import "time"

// DateRange is an inclusive calendar range. A zero Start with a set End is an
// open-start range (fetch everything up to End). A fully zero range means the
// period could not be resolved, e.g. no units are selected.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// IsZero reports whether the range is unresolved.
func (r DateRange) IsZero() bool { return r.Start.IsZero() && r.End.IsZero() }

// OpenStart reports whether the range has no lower bound.
func (r DateRange) OpenStart() bool { return r.Start.IsZero() && !r.End.IsZero() }

// Inverted reports whether both bounds are set and Start > End.
func (r DateRange) Inverted() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End)
}

// Fetchable reports whether data can be requested for the range.
func (r DateRange) Fetchable() bool {
	return !r.End.IsZero() && !r.Inverted()
}

// Contains reports whether d lies inside the range.
func (r DateRange) Contains(d Date) bool {
	if r.IsZero() || d.IsZero() {
		return false
	}
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	return !d.After(r.End)
}

// PeriodQuery carries everything the resolver needs. Nothing is read from
// ambient state.
type PeriodQuery struct {
	Period Period
	Now    time.Time
	// Selected is the number of units selected on the panel.
	Selected int
	// CreationDate is the earliest creation date among the selected units.
	CreationDate Date
	// EarliestSample is the earliest date among already loaded samples. Only
	// consulted for AllTime.
	EarliestSample Date
	CustomStart    Date
	CustomEnd      Date
}

// Resolution is the outcome of ResolvePeriod.
type Resolution struct {
	Range DateRange
	// Seeded is set when a Custom period had no dates and defaults were
	// materialized; the caller is expected to persist them.
	Seeded bool
}

var periodWindows = map[Period]int{
	PeriodWeekly:    7,
	PeriodMonthly:   30,
	PeriodQuarterly: 90,
}

// WindowDays returns the inclusive day count of rolling periods.
func (p Period) WindowDays() (int, bool) {
	n, ok := periodWindows[p]
	return n, ok
}

// ResolvePeriod turns a symbolic period into a concrete date range.
func ResolvePeriod(q PeriodQuery) Resolution {
	if q.Selected <= 0 {
		return Resolution{}
	}
	today := DateOf(q.Now)
	creation := q.CreationDate

	switch q.Period {
	case PeriodToday:
		day := clampSingleDay(today, creation)
		return Resolution{Range: DateRange{Start: day, End: day}}
	case PeriodYesterday:
		day := clampSingleDay(today.AddDays(-1), creation)
		return Resolution{Range: DateRange{Start: day, End: day}}
	case PeriodWeekly, PeriodMonthly, PeriodQuarterly:
		n, _ := q.Period.WindowDays()
		start := today.AddDays(-(n - 1))
		if !creation.IsZero() && creation.After(start) {
			start = creation
		}
		return Resolution{Range: DateRange{Start: start, End: today}}
	case PeriodAllTime:
		start := q.EarliestSample
		if !creation.IsZero() && (start.IsZero() || creation.After(start)) {
			start = creation
		}
		return Resolution{Range: DateRange{Start: start, End: today}}
	case PeriodCustom:
		if q.CustomStart.IsZero() || q.CustomEnd.IsZero() {
			start := creation
			if start.IsZero() {
				start = today
			}
			return Resolution{Range: DateRange{Start: start, End: today}, Seeded: true}
		}
		return Resolution{Range: DateRange{Start: q.CustomStart, End: q.CustomEnd}}
	default:
		return Resolution{}
	}
}

func clampSingleDay(day, creation Date) Date {
	if !creation.IsZero() && creation.After(day) {
		return creation
	}
	return day
}

// EarliestCreation returns the earliest creation date among the selected
// units. A newer unit never truncates the range of an older one.
func EarliestCreation(units []Unit, selected []ID) Date {
	if len(selected) == 0 {
		return Date{}
	}
	want := make(map[ID]struct{}, len(selected))
	for _, id := range selected {
		want[id] = struct{}{}
	}
	var dates []Date
	for _, unit := range units {
		if _, ok := want[unit.ID]; ok {
			dates = append(dates, unit.CreationDate)
		}
	}
	return MinDate(dates...)
}

// EarliestSampleDate returns the earliest date present in samples.
func EarliestSampleDate(samples []RawSample) Date {
	var out Date
	for _, s := range samples {
		if s.Date.IsZero() {
			continue
		}
		if out.IsZero() || s.Date.Before(out) {
			out = s.Date
		}
	}
	return out
}
