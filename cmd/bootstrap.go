package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/samsaffron/mdstream/internal/config"
	"github.com/samsaffron/mdstream/internal/ingest"
	"github.com/samsaffron/mdstream/internal/llm"
	"github.com/samsaffron/mdstream/internal/ui"
	"github.com/samsaffron/mdstream/internal/ui/streaming"
)

var loadedConfig *config.Config

func loadConfig() (*config.Config, error) {
	if loadedConfig != nil {
		return loadedConfig, nil
	}
	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	loadedConfig = cfg
	return cfg, nil
}

func applyProviderOverrides(cfg *config.Config, providerFlag string) error {
	if providerFlag == "" {
		return nil
	}
	overrideProvider, overrideModel, err := llm.ParseProviderModel(providerFlag)
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(overrideProvider, overrideModel)
	return nil
}

// newLipglossRenderer returns a renderer for out using the given colour
// mode. "auto" detects the profile from out.
func newLipglossRenderer(out io.Writer, mode string) (*lipgloss.Renderer, error) {
	r := lipgloss.NewRenderer(out)
	switch strings.ToLower(mode) {
	case "", "auto":
	case "none", "ascii":
		r.SetColorProfile(termenv.Ascii)
	case "ansi":
		r.SetColorProfile(termenv.ANSI)
	case "ansi256":
		r.SetColorProfile(termenv.ANSI256)
	case "truecolor":
		r.SetColorProfile(termenv.TrueColor)
	default:
		return nil, fmt.Errorf("unknown color mode %q (auto, none, ansi, ansi256, truecolor)", mode)
	}
	return r, nil
}

// buildRegistry builds the style registry from the preset, theme colours
// and per-style overrides of cfg.
func buildRegistry(cfg *config.Config, out io.Writer, rf renderFlags) (*ui.Registry, *ui.Theme, error) {
	preset := cfg.Render.Preset
	if rf.preset != "" {
		preset = rf.preset
	}
	theme, err := ui.ThemeFromConfig(ui.ThemeConfig{
		Preset:    preset,
		Primary:   cfg.Theme.Primary,
		Secondary: cfg.Theme.Secondary,
		Success:   cfg.Theme.Success,
		Error:     cfg.Theme.Error,
		Warning:   cfg.Theme.Warning,
		Muted:     cfg.Theme.Muted,
		Text:      cfg.Theme.Text,
		Spinner:   cfg.Theme.Spinner,
		CodeBg:    cfg.Theme.CodeBg,
	})
	if err != nil {
		return nil, nil, err
	}

	color := cfg.Render.Color
	if rf.color != "" {
		color = rf.color
	}
	lr, err := newLipglossRenderer(out, color)
	if err != nil {
		return nil, nil, err
	}

	registry := ui.NewRegistry(theme).WithRenderer(lr)
	if err := registry.Apply(styleOverrides(cfg.Styles)); err != nil {
		return nil, nil, fmt.Errorf("config styles: %w", err)
	}
	return registry, theme, nil
}

func styleOverrides(styles map[string]config.StyleConfig) map[string]ui.StyleOverride {
	if len(styles) == 0 {
		return nil
	}
	overrides := make(map[string]ui.StyleOverride, len(styles))
	for name, s := range styles {
		overrides[name] = ui.StyleOverride{
			Bold:       s.Bold,
			Italic:     s.Italic,
			Underline:  s.Underline,
			Size:       s.Size,
			Foreground: s.Fg,
			Background: s.Bg,
		}
	}
	return overrides
}

func adapterOptions(cfg *config.Config, rf renderFlags) []streaming.AdapterOption {
	if rf.noHighlight {
		return []streaming.AdapterOption{streaming.WithoutHighlight()}
	}
	style := cfg.Render.HighlightStyle
	if rf.highlightStyle != "" {
		style = rf.highlightStyle
	}
	if style == "" {
		return nil
	}
	return []streaming.AdapterOption{streaming.WithHighlightStyle(style)}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalSize returns the layout width and the screen height. Height is
// zero when stdout is not a terminal.
func terminalSize(cfg *config.Config, widthFlag int) (int, int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		w, h = 0, 0
	}
	switch {
	case widthFlag > 0:
		w = widthFlag
	case cfg.Render.Width > 0:
		w = cfg.Render.Width
	case w <= 0:
		w = streaming.DefaultWidth
	}
	return w, h
}

// document is one named markdown input.
type document struct {
	name string
	text string
}

func hasGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

// expandArgs resolves glob patterns to sorted file lists. Plain paths and
// "-" pass through.
func expandArgs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		if !hasGlobMeta(arg) {
			paths = append(paths, arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		slices.Sort(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}

// readDocuments reads args (stdin when empty). HTML input is converted to
// markdown when asked for, or when it looks like a page and a selector was
// given.
func readDocuments(args []string, stdin io.Reader, html bool, selector string) ([]document, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	paths, err := expandArgs(args)
	if err != nil {
		return nil, err
	}

	docs := make([]document, 0, len(paths))
	for _, path := range paths {
		var data []byte
		if path == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		text := string(data)
		if html || isHTMLPath(path) || (selector != "" && ingest.LooksLikeHTML(data)) {
			text, err = ingest.HTMLStringToMarkdown(text, selector)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
		docs = append(docs, document{name: path, text: text})
	}
	return docs, nil
}

func isHTMLPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".html") || strings.HasSuffix(lower, ".htm")
}

// readSingle reads one document from the first arg, or stdin.
func readSingle(args []string, stdin io.Reader) (document, error) {
	docs, err := readDocuments(args, stdin, false, "")
	if err != nil {
		return document{}, err
	}
	if len(docs) != 1 {
		return document{}, fmt.Errorf("expected one input, got %d", len(docs))
	}
	return docs[0], nil
}
