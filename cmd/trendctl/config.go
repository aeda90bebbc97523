package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the flags that can be set from a YAML file.
type fileConfig struct {
	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
	Manifest  string `yaml:"manifest"`
	APIURL    string `yaml:"api_url"`
	APIToken  string `yaml:"api_token"`
	Locale    string `yaml:"locale"`
	Policy    string `yaml:"policy"`
	Serve     struct {
		Addr         string `yaml:"addr"`
		BasePath     string `yaml:"base_path"`
		Title        string `yaml:"title"`
		RefreshEvery string `yaml:"refresh_every"`
	} `yaml:"serve"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return cfg, fmt.Errorf("trendctl: read config %s: %w", path, err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("trendctl: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// apply fills values still at their flag defaults. Explicit flags and
// environment variables win over the file.
func (cfg fileConfig) apply(app *cli) error {
	fill := func(dst *string, def, value string) {
		if value != "" && (*dst == "" || *dst == def) {
			*dst = value
		}
	}
	fill(&app.LogFormat, "text", cfg.LogFormat)
	fill(&app.LogLevel, "info", cfg.LogLevel)
	fill(&app.Manifest, "", cfg.Manifest)
	fill(&app.APIURL, "", cfg.APIURL)
	fill(&app.APIToken, "", cfg.APIToken)
	fill(&app.Locale, "en", cfg.Locale)
	fill(&app.Policy, "keep", cfg.Policy)
	fill(&app.Serve.Addr, defaultAddr, cfg.Serve.Addr)
	fill(&app.Serve.BasePath, defaultBasePath, cfg.Serve.BasePath)
	fill(&app.Serve.Title, defaultTitle, cfg.Serve.Title)
	if app.Serve.RefreshEvery == 0 && cfg.Serve.RefreshEvery != "" {
		every, err := time.ParseDuration(cfg.Serve.RefreshEvery)
		if err != nil {
			return fmt.Errorf("trendctl: config serve.refresh_every: %w", err)
		}
		app.Serve.RefreshEvery = every
	}
	return nil
}
