package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	trending "github.com/goliatone/go-trending/components/trending"
)

type showCmd struct {
	Width int `default:"100" help:"Terminal width used to lay out the cards."`
}

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func (cmd *showCmd) Run(ctx context.Context, g *globals, logger *slog.Logger) error {
	svc, _, err := g.loadService(ctx, logger)
	if err != nil {
		return err
	}
	cards := make([]panelCard, 0, len(svc.Panels()))
	for _, panel := range svc.Panels() {
		snap, err := svc.Snapshot(panel.ID)
		if err != nil {
			return err
		}
		cards = append(cards, newPanelCard(snap, svc.Units(), g.Locale))
	}
	return writeCards(os.Stdout, cards, cmd.Width)
}

// panelCard is the terminal view of one panel.
type panelCard struct {
	Title    string
	Subtitle string
	Value    string
	Lines    []string
	Error    string
	Span     trending.Span
}

func newPanelCard(snap trending.Snapshot, units []trending.Unit, locale string) panelCard {
	panel := snap.Panel
	names := unitNames(units)
	selected := panel.DistinctUnits()
	summary := trending.Summarize(snap.Aggregates, panel.AggregationType, selected)
	card := panelCard{
		Title:    panel.Name,
		Subtitle: fmt.Sprintf("%s · %s", periodLabel(panel.Period), rangeLabel(snap.Range, locale)),
		Value:    formatValue(summary.Value),
		Error:    snap.LastError,
		Span:     panel.ColSpan.Normalize(),
	}
	for _, id := range selected {
		name := names[id]
		if name == "" {
			name = string(id)
		}
		card.Lines = append(card.Lines, fmt.Sprintf("%s: %s", name, formatValue(summary.Units[id])))
	}
	return card
}

func (c panelCard) render(width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Title))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(c.Subtitle))
	b.WriteString("\n")
	b.WriteString(valueStyle.Render(c.Value))
	for _, line := range c.Lines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	if c.Error != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(c.Error))
	}
	return cardStyle.Width(width).Render(b.String())
}

// writeCards lays cards out on a four-column grid; a card takes as many
// columns as its span.
func writeCards(out io.Writer, cards []panelCard, width int) error {
	if len(cards) == 0 {
		_, err := fmt.Fprintln(out, mutedStyle.Render("No panels yet"))
		return err
	}
	column := max(width/int(trending.MaxSpan), 10)
	var rows []string
	var row []string
	used := 0
	for _, card := range cards {
		span := int(card.Span)
		if used+span > int(trending.MaxSpan) && len(row) > 0 {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row, used = nil, 0
		}
		row = append(row, card.render(column*span-2))
		used += span
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	_, err := fmt.Fprintln(out, lipgloss.JoinVertical(lipgloss.Left, rows...))
	return err
}

func unitNames(units []trending.Unit) map[trending.ID]string {
	out := make(map[trending.ID]string, len(units))
	for _, u := range units {
		out[u.ID] = u.Name
	}
	return out
}

func periodLabel(p trending.Period) string {
	if p == "" {
		return "No period"
	}
	return string(p)
}

func rangeLabel(r trending.DateRange, locale string) string {
	if r.IsZero() {
		return "no range"
	}
	return trending.FormatDateLabel(r.Start, locale) + " - " + trending.FormatDateLabel(r.End, locale)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
