package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
)

type cli struct {
	globals `embed:""`

	Serve  serveCmd  `cmd:"" help:"Serve the trending board over HTTP and WebSocket."`
	Seed   seedCmd   `cmd:"" help:"Push the panels of a manifest to the configured backend."`
	Show   showCmd   `cmd:"" help:"Print the board as terminal cards."`
	Render renderCmd `cmd:"" help:"Render the board or one panel as HTML."`
	Export exportCmd `cmd:"" help:"Export panel aggregates to an XLSX workbook."`
}

type globals struct {
	Config    string `type:"path" env:"TRENDCTL_CONFIG" help:"Optional YAML config file; its values fill flags left at their defaults."`
	LogFormat string `name:"log-format" enum:"text,json" default:"text" env:"TRENDCTL_LOG_FORMAT" help:"Log output format (text, json)."`
	LogLevel  string `name:"log-level" enum:"debug,info,warn,error" default:"info" env:"TRENDCTL_LOG_LEVEL" help:"Minimum log level."`
	Manifest  string `type:"path" env:"TRENDCTL_MANIFEST" help:"Board manifest backing the in-memory store."`
	APIURL    string `name:"api-url" env:"TRENDCTL_API_URL" help:"Base URL of the operations backend; overrides the manifest store."`
	APIToken  string `name:"api-token" env:"TRENDCTL_API_TOKEN" help:"Bearer token for the operations backend."`
	Locale    string `default:"en" env:"TRENDCTL_LOCALE" help:"Locale for labels and date formatting."`
	Policy    string `enum:"keep,retry-once,revert" default:"keep" env:"TRENDCTL_PERSIST_POLICY" help:"What to do with an edit the backend rejects."`
}

func main() {
	var app cli
	ctx := context.Background()
	parser := kong.Parse(&app,
		kong.Name("trendctl"),
		kong.Description("Trending board utility: serve, seed, inspect and export panels."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if app.Config != "" {
		file, err := loadFileConfig(app.Config)
		parser.FatalIfErrorf(err)
		parser.FatalIfErrorf(file.apply(&app))
	}
	logger := newLogger(app.LogFormat, app.LogLevel)
	slog.SetDefault(logger)
	err := parser.Run(&app.globals, logger)
	parser.FatalIfErrorf(err)
}

func newLogger(format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	var out slog.Level
	if err := out.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return out
}

func fail(format string, args ...any) error {
	return fmt.Errorf("trendctl: "+format, args...)
}
