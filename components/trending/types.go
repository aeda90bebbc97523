package trending

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is an opaque identifier. Collaborators send either JSON strings or
// numbers; both decode into the same textual form.
type ID string

// UnmarshalJSON accepts "12", 12 and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("trending: decode id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("trending: decode id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// AggregationType selects how grouped values are reduced.
type AggregationType string

const (
	AggregationTotal   AggregationType = "Total"
	AggregationAverage AggregationType = "Average"
)

// Valid reports whether the aggregation type is known. Empty is not valid.
func (a AggregationType) Valid() bool {
	return a == AggregationTotal || a == AggregationAverage
}

// Period is the symbolic time window of a panel.
type Period string

const (
	PeriodToday     Period = "Today"
	PeriodYesterday Period = "Yesterday"
	PeriodWeekly    Period = "Weekly"
	PeriodMonthly   Period = "Monthly"
	PeriodQuarterly Period = "Quarterly"
	PeriodAllTime   Period = "AllTime"
	PeriodCustom    Period = "Custom"
)

// Periods lists the selectable periods in display order.
func Periods() []Period {
	return []Period{PeriodToday, PeriodYesterday, PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodAllTime, PeriodCustom}
}

// Valid reports whether the period is known.
func (p Period) Valid() bool {
	for _, known := range Periods() {
		if p == known {
			return true
		}
	}
	return false
}

// ColumnAll is the column filter value that disables column filtering.
const ColumnAll = "ALL"

// CompositeKey names the cross-unit series in flattened aggregates.
const CompositeKey = "ALL"

// Panel is a persisted trending widget configuration. Order is implied by the
// panel's position in the board; the field only carries it over the wire.
type Panel struct {
	ID              ID              `json:"id" yaml:"id,omitempty"`
	Name            string          `json:"name" yaml:"name"`
	AggregationType AggregationType `json:"aggregationType,omitempty" yaml:"aggregation_type,omitempty"`
	Period          Period          `json:"period,omitempty" yaml:"period,omitempty"`
	ViewMode        ViewMode        `json:"viewMode,omitempty" yaml:"view_mode,omitempty"`
	UnitIDs         []ID            `json:"unitIds" yaml:"unit_ids"`
	UnitColumnID    *ID             `json:"unitColumnId" yaml:"unit_column_id,omitempty"`
	CustomStartDate *Date           `json:"customStartDate,omitempty" yaml:"custom_start_date,omitempty"`
	CustomEndDate   *Date           `json:"customEndDate,omitempty" yaml:"custom_end_date,omitempty"`
	ColSpan         Span            `json:"colSpan" yaml:"col_span,omitempty"`
	ShowInfo        bool            `json:"showInfo" yaml:"show_info,omitempty"`
	Order           int             `json:"order" yaml:"-"`
}

// Clone returns a deep copy so callers never share slices or pointers.
func (p Panel) Clone() Panel {
	out := p
	out.UnitIDs = append([]ID(nil), p.UnitIDs...)
	if p.UnitColumnID != nil {
		col := *p.UnitColumnID
		out.UnitColumnID = &col
	}
	if p.CustomStartDate != nil {
		d := *p.CustomStartDate
		out.CustomStartDate = &d
	}
	if p.CustomEndDate != nil {
		d := *p.CustomEndDate
		out.CustomEndDate = &d
	}
	return out
}

// ColumnFilter returns the selected column id or ColumnAll.
func (p Panel) ColumnFilter() string {
	if p.UnitColumnID == nil || *p.UnitColumnID == "" {
		return ColumnAll
	}
	return string(*p.UnitColumnID)
}

// DistinctUnits returns the selected unit ids without duplicates, in order.
func (p Panel) DistinctUnits() []ID {
	seen := make(map[ID]struct{}, len(p.UnitIDs))
	out := make([]ID, 0, len(p.UnitIDs))
	for _, id := range p.UnitIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// PanelOrder is one entry of the reorder batch.
type PanelOrder struct {
	ID    ID  `json:"id"`
	Order int `json:"order"`
}

// Unit is a collaborator-owned organizational unit.
type Unit struct {
	ID           ID     `json:"id"`
	Name         string `json:"name"`
	CreationDate Date   `json:"creationDate"`
}

// Column describes a measurement column of a unit.
type Column struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	UnitID ID     `json:"unitId,omitempty"`
}

// RawSample is one hourly measurement row.
type RawSample struct {
	UnitID     ID       `json:"unitId"`
	ColumnID   ID       `json:"columnId"`
	ColumnName string   `json:"columnName,omitempty"`
	Date       Date     `json:"date"`
	Hour       *int     `json:"hour,omitempty"`
	IntValue   *float64 `json:"intValue,omitempty"`
	Value      *string  `json:"value,omitempty"`
}

// Numeric coerces the sample to a number. The typed value takes precedence;
// the generic value must parse as a finite number or the sample is dropped.
func (s RawSample) Numeric() (float64, bool) {
	if s.IntValue != nil {
		return *s.IntValue, true
	}
	if s.Value == nil {
		return 0, false
	}
	raw := strings.TrimSpace(*s.Value)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || isNaNOrInf(f) {
		return 0, false
	}
	return f, true
}

// PanelStore persists panel configuration in the backing store.
type PanelStore interface {
	ListPanels(ctx context.Context) ([]Panel, error)
	CreatePanel(ctx context.Context, panel Panel) (Panel, error)
	UpdatePanel(ctx context.Context, panel Panel) error
	DeletePanel(ctx context.Context, id ID) error
	ReorderPanels(ctx context.Context, order []PanelOrder) error
}

// UnitSource lists the units a panel can reference.
type UnitSource interface {
	ListUnits(ctx context.Context) ([]Unit, error)
}

// DataSource supplies column metadata and raw samples per unit.
type DataSource interface {
	ListColumns(ctx context.Context, unitID ID) ([]Column, error)
	ListSamples(ctx context.Context, unitID ID, window DateRange) ([]RawSample, error)
}

// EventHook notifies transports (REST/WebSocket) about panel changes and
// user-visible notices.
type EventHook interface {
	PanelUpdated(ctx context.Context, event PanelEvent) error
}

// Event reasons emitted through EventHook.
const (
	EventCreate  = "create"
	EventUpdate  = "update"
	EventDelete  = "delete"
	EventReorder = "reorder"
	EventRefresh = "refresh"
	EventNotice  = "notice"
)

// PanelEvent describes a change transports might care about.
type PanelEvent struct {
	PanelID ID     `json:"panel_id,omitempty"`
	Reason  string `json:"reason"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message,omitempty"`
}

type noopEventHook struct{}

func (noopEventHook) PanelUpdated(context.Context, PanelEvent) error { return nil }
