package trending

import (
	"context"
	"strings"
)

// TranslationService exposes locale-aware translation helpers. Transports and
// the renderer rely on this lightweight interface only.
type TranslationService interface {
	Translate(ctx context.Context, key, locale string, args map[string]any) (string, error)
}

// DefaultLocale is used when the caller does not provide one.
const DefaultLocale = "en"

const panelNameKey = "trending.panel.default_name"

var defaultPanelNames = map[string]string{
	"default": "New trending panel",
	"en":      "New trending panel",
	"es":      "Nuevo panel de tendencias",
	"fr":      "Nouveau panneau de tendances",
	"de":      "Neues Trend-Panel",
	"pt":      "Novo painel de tendências",
}

// date label layouts keyed by locale candidate.
var dateLabelLayouts = map[string]string{
	"default": "2006-01-02",
	"en":      "Jan 2",
	"en-us":   "01/02",
	"en-gb":   "02/01",
	"es":      "02/01",
	"fr":      "02/01",
	"pt":      "02/01",
	"de":      "02.01.",
}

// ResolveLocalizedValue selects the best translation for the provided locale
// and falls back to the supplied value. Keys are matched case-insensitively;
// language-region pairs (`es-mx`) fall back to their base language (`es`).
func ResolveLocalizedValue(values map[string]string, locale, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	for _, candidate := range localeCandidates(locale) {
		for key, value := range values {
			if strings.EqualFold(key, candidate) && value != "" {
				return value
			}
		}
	}
	return fallback
}

// DefaultPanelName returns the name given to freshly created panels.
func DefaultPanelName(ctx context.Context, svc TranslationService, locale string) string {
	fallback := ResolveLocalizedValue(defaultPanelNames, locale, defaultPanelNames["default"])
	return translateOrFallback(ctx, svc, panelNameKey, locale, fallback, nil)
}

// FormatDateLabel renders a chart axis label for d in the given locale.
func FormatDateLabel(d Date, locale string) string {
	if d.IsZero() {
		return ""
	}
	layout := ResolveLocalizedValue(dateLabelLayouts, locale, dateLabelLayouts["default"])
	return d.Time().Format(layout)
}

func localeCandidates(locale string) []string {
	locale = normalizeLocale(locale)
	if locale == "" {
		return []string{"default"}
	}
	candidates := []string{locale}
	if idx := strings.Index(locale, "-"); idx > 0 {
		candidates = append(candidates, locale[:idx])
	}
	return append(candidates, "default")
}

func normalizeLocale(locale string) string {
	locale = strings.TrimSpace(strings.ToLower(locale))
	return strings.ReplaceAll(locale, "_", "-")
}

func translateOrFallback(ctx context.Context, svc TranslationService, key, locale, fallback string, params map[string]any) string {
	if svc != nil {
		if translated, err := svc.Translate(ctx, key, locale, params); err == nil && translated != "" {
			return translated
		}
	}
	if fallback != "" {
		return fallback
	}
	return key
}
