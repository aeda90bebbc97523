package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ettle/strcase"
	"github.com/xuri/excelize/v2"

	trending "github.com/goliatone/go-trending/components/trending"
)

const maxSheetName = 31

type exportCmd struct {
	Out string `short:"o" type:"path" help:"Workbook path (defaults to <board-name>.xlsx)."`
}

func (cmd *exportCmd) Run(ctx context.Context, g *globals, logger *slog.Logger) error {
	svc, b, err := g.loadService(ctx, logger)
	if err != nil {
		return err
	}
	snaps := make([]trending.Snapshot, 0, len(svc.Panels()))
	for _, panel := range svc.Panels() {
		snap, err := svc.Snapshot(panel.ID)
		if err != nil {
			return err
		}
		snaps = append(snaps, snap)
	}
	path := cmd.Out
	if path == "" {
		path = exportFileName(b.name)
	}
	if err := writeWorkbook(path, snaps, svc.Units()); err != nil {
		return err
	}
	logger.Info("exported workbook", "file", path, "sheets", len(snaps))
	return nil
}

func exportFileName(board string) string {
	name := strcase.ToKebab(strings.TrimSpace(board))
	if name == "" || strings.Contains(board, "://") {
		name = "trending-board"
	}
	return filepath.Clean(name + ".xlsx")
}

// writeWorkbook writes one sheet per panel: a header row with the date, one
// column per selected unit and the composite, then one row per day.
func writeWorkbook(path string, snaps []trending.Snapshot, units []trending.Unit) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#3b82f6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fail("workbook style: %w", err)
	}

	names := unitNames(units)
	used := map[string]int{}
	for i, snap := range snaps {
		sheet := sheetName(snap.Panel.Name, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fail("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fail("new sheet %q: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, snap, names, header); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fail("save %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, snap trending.Snapshot, names map[trending.ID]string, header int) error {
	selected := snap.Panel.DistinctUnits()
	row := []any{"Date"}
	for _, id := range selected {
		label := names[id]
		if label == "" {
			label = string(id)
		}
		row = append(row, label)
	}
	row = append(row, trending.CompositeKey)
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fail("write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(row), 1)
	if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
		return fail("style header: %w", err)
	}
	for i, agg := range snap.Aggregates {
		values := []any{agg.Date.String()}
		for _, id := range selected {
			values = append(values, agg.Units[id])
		}
		values = append(values, agg.All)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fail("write row %d: %w", i+2, err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(row))
	return f.SetColWidth(sheet, "A", lastCol, 14)
}

// sheetName trims to the XLSX limit, strips forbidden characters and keeps
// names unique within the workbook.
func sheetName(name string, used map[string]int) string {
	replacer := strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ")
	clean := strings.TrimSpace(replacer.Replace(name))
	if clean == "" {
		clean = "Panel"
	}
	if len([]rune(clean)) > maxSheetName {
		clean = string([]rune(clean)[:maxSheetName])
	}
	key := strings.ToLower(clean)
	used[key]++
	if n := used[key]; n > 1 {
		suffix := " (" + strconv.Itoa(n) + ")"
		runes := []rune(clean)
		if len(runes)+len(suffix) > maxSheetName {
			runes = runes[:maxSheetName-len(suffix)]
		}
		clean = string(runes) + suffix
	}
	return clean
}
