package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// getTTY opens /dev/tty for direct terminal access (bypasses redirections)
func getTTY() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}

// swatch renders a short sample of the preset's palette.
func swatch(r *lipgloss.Renderer, preset ThemePreset) string {
	c := preset.Config
	var parts []string
	for _, col := range []string{c.Primary, c.Secondary, c.Warning, c.Muted, c.Text} {
		parts = append(parts, r.NewStyle().Foreground(lipgloss.Color(col)).Render("■"))
	}
	return strings.Join(parts, "")
}

// PresetOptions builds the picker entries, one per preset in display order.
func PresetOptions(r *lipgloss.Renderer) []huh.Option[string] {
	options := make([]huh.Option[string], 0, len(PresetThemeNames))
	for _, name := range PresetThemeNames {
		preset := PresetThemes[name]
		label := fmt.Sprintf("%s %-10s %s", swatch(r, preset), name, preset.Description)
		options = append(options, huh.NewOption(label, name))
	}
	return options
}

// SelectPreset asks the user to pick a theme preset, starting at current.
func SelectPreset(current string) (string, error) {
	tty, ttyErr := getTTY()
	var r *lipgloss.Renderer
	if ttyErr == nil {
		defer tty.Close()
		r = lipgloss.NewRenderer(tty)
	} else {
		r = lipgloss.NewRenderer(os.Stderr)
	}

	selected := current
	if selected == "" {
		selected = DefaultPreset
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a theme preset").
				Options(PresetOptions(r)...).
				Value(&selected),
		),
	)

	// /dev/tty directly, so piped stdout still gets the result
	if ttyErr == nil {
		form = form.WithInput(tty).WithOutput(tty)
	}

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

// SelectProvider asks which stream source to use when none is configured.
func SelectProvider() (string, error) {
	var provider string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which LLM provider do you want to use?").
				Options(
					huh.NewOption("Anthropic (Claude)", "anthropic"),
					huh.NewOption("OpenAI", "openai"),
					huh.NewOption("Google Gemini", "gemini"),
				).
				Value(&provider),
		),
	)

	if tty, err := getTTY(); err == nil {
		defer tty.Close()
		form = form.WithInput(tty).WithOutput(tty)
	}

	if err := form.Run(); err != nil {
		return "", err
	}
	return provider, nil
}
