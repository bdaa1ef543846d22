package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette the style registry is derived from
type Theme struct {
	// Primary colors
	Primary   lipgloss.Color // main accent color (bold, code)
	Secondary lipgloss.Color // secondary accent (headers, links)

	// Semantic colors
	Success lipgloss.Color // success states, diff additions
	Error   lipgloss.Color // error states, diff removals
	Warning lipgloss.Color // quotes, emphasis
	Muted   lipgloss.Color // rules, code language labels
	Text    lipgloss.Color // primary text

	// UI element colors
	Spinner lipgloss.Color // viewer spinner
	Border  lipgloss.Color // table borders and quote bars
	CodeBg  lipgloss.Color // code block background, empty for none
}

// DefaultTheme returns the default color theme (gruvbox)
func DefaultTheme() *Theme {
	theme, _ := ThemeFromConfig(ThemeConfig{})
	return theme
}

// ThemeConfig mirrors the render section of the config for applying
// overrides on top of a preset
type ThemeConfig struct {
	Preset    string
	Primary   string
	Secondary string
	Success   string
	Error     string
	Warning   string
	Muted     string
	Text      string
	Spinner   string
	CodeBg    string
}

// ThemeFromConfig creates a theme from the named preset (gruvbox when
// empty) with config overrides applied
func ThemeFromConfig(cfg ThemeConfig) (*Theme, error) {
	name := cfg.Preset
	if name == "" {
		name = DefaultPreset
	}
	preset := GetPresetTheme(name)
	if preset == nil {
		return nil, fmt.Errorf("unknown theme preset %q%s", name, didYouMean(name, PresetThemeNames))
	}
	base := preset.Config

	pick := func(override, fallback string) lipgloss.Color {
		if override != "" {
			return lipgloss.Color(override)
		}
		return lipgloss.Color(fallback)
	}

	theme := &Theme{
		Primary:   pick(cfg.Primary, base.Primary),
		Secondary: pick(cfg.Secondary, base.Secondary),
		Success:   pick(cfg.Success, base.Success),
		Error:     pick(cfg.Error, base.Error),
		Warning:   pick(cfg.Warning, base.Warning),
		Muted:     pick(cfg.Muted, base.Muted),
		Text:      pick(cfg.Text, base.Text),
		Spinner:   pick(cfg.Spinner, base.Spinner),
		CodeBg:    pick(cfg.CodeBg, base.CodeBg),
	}
	// border follows secondary
	theme.Border = theme.Secondary
	return theme, nil
}

// Styles holds the chrome styles of the CLI itself, bound to a renderer
type Styles struct {
	renderer *lipgloss.Renderer
	theme    *Theme

	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Spinner lipgloss.Style

	// Diff styles
	DiffAdd     lipgloss.Style // Added lines (+)
	DiffRemove  lipgloss.Style // Removed lines (-)
	DiffContext lipgloss.Style // Context lines (unchanged)
	DiffHeader  lipgloss.Style // Diff header (@@ ... @@)
}

// NewStyles creates styles for theme on renderer r
func NewStyles(r *lipgloss.Renderer, theme *Theme) *Styles {
	return &Styles{
		renderer: r,
		theme:    theme,

		Title: r.NewStyle().
			Bold(true).
			Foreground(theme.Text),

		Muted: r.NewStyle().
			Foreground(theme.Muted),

		Success: r.NewStyle().
			Foreground(theme.Success),

		Error: r.NewStyle().
			Foreground(theme.Error),

		Spinner: r.NewStyle().
			Foreground(theme.Spinner),

		DiffAdd: r.NewStyle().
			Foreground(theme.Success),

		DiffRemove: r.NewStyle().
			Foreground(theme.Error),

		DiffContext: r.NewStyle().
			Foreground(theme.Muted),

		DiffHeader: r.NewStyle().
			Foreground(theme.Secondary).
			Bold(true),
	}
}

// Theme returns the theme used by these styles
func (s *Styles) Theme() *Theme {
	return s.theme
}
