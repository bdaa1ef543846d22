package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samsaffron/mdstream/internal/ui"
)

var (
	stylesOpts    renderFlags
	stylesPresets bool
	stylesPick    bool
	stylesSample  bool
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Show the style registry",
	Long: `Print the resolved style registry as YAML: the preset, theme colours and
per-style overrides from the config combined.

Examples:
  mdstream styles
  mdstream styles --preset nord --sample
  mdstream styles --presets
  mdstream styles --pick`,
	Args: cobra.NoArgs,
	RunE: runStyles,
}

func init() {
	AddRenderFlags(stylesCmd, &stylesOpts)
	stylesCmd.Flags().BoolVar(&stylesPresets, "presets", false, "List theme presets")
	stylesCmd.Flags().BoolVar(&stylesPick, "pick", false, "Pick a preset interactively")
	stylesCmd.Flags().BoolVar(&stylesSample, "sample", false, "Render each style name in its own style")
	stylesCmd.MarkFlagsMutuallyExclusive("presets", "pick", "sample")
	rootCmd.AddCommand(stylesCmd)
}

func runStyles(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch {
	case stylesPresets:
		lr, err := newLipglossRenderer(out, cfg.Render.Color)
		if err != nil {
			return err
		}
		for _, opt := range ui.PresetOptions(lr) {
			marker := " "
			if opt.Value == cfg.Render.Preset {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s\n", marker, opt.Key)
		}
		return nil

	case stylesPick:
		preset, err := ui.SelectPreset(cfg.Render.Preset)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "render:\n  preset: %s\n", preset)
		return nil
	}

	registry, _, err := buildRegistry(cfg, out, stylesOpts)
	if err != nil {
		return err
	}
	if stylesSample {
		writeStyleSample(out, registry)
		return nil
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(registry.All()); err != nil {
		return err
	}
	return enc.Close()
}

func writeStyleSample(w io.Writer, registry *ui.Registry) {
	for _, name := range ui.StyleNames {
		fmt.Fprintf(w, "%-18s %s\n", name, registry.Render(name, "The quick brown fox"))
	}
}
