package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/samsaffron/mdstream/internal/llm"
	"github.com/samsaffron/mdstream/internal/ui"
)

// renderFlags holds the terminal rendering flags shared by the commands
// that draw markdown. Zero values mean "use config".
type renderFlags struct {
	width          int
	color          string
	preset         string
	highlightStyle string
	noHighlight    bool
	hold           bool
}

// streamFlags controls how a file is chunked when replayed.
type streamFlags struct {
	chunkSize int
	delay     time.Duration
}

// AddProviderFlag adds the --provider/-p flag with completion
func AddProviderFlag(cmd *cobra.Command, dest *string) {
	cmd.Flags().StringVarP(dest, "provider", "p", "", "Override provider, optionally with model (e.g., openai:gpt-4o)")
	if err := cmd.RegisterFlagCompletionFunc("provider", ProviderFlagCompletion); err != nil {
		panic("failed to register provider completion: " + err.Error())
	}
}

// ProviderFlagCompletion provides shell completion for the --provider flag.
func ProviderFlagCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return llm.ProviderNames, cobra.ShellCompDirectiveNoFileComp
}

// AddRenderFlags adds --width, --color, --preset, --highlight-style,
// --no-highlight and --hold
func AddRenderFlags(cmd *cobra.Command, rf *renderFlags) {
	cmd.Flags().IntVarP(&rf.width, "width", "w", 0, "Render width in columns (default: terminal width)")
	cmd.Flags().StringVar(&rf.color, "color", "", "Color mode: auto, none, ansi, ansi256, truecolor")
	cmd.Flags().StringVar(&rf.preset, "preset", "", "Theme preset (see 'mdstream styles --presets')")
	cmd.Flags().StringVar(&rf.highlightStyle, "highlight-style", "", "Chroma style for code blocks")
	cmd.Flags().BoolVar(&rf.noHighlight, "no-highlight", false, "Disable syntax highlighting")
	cmd.Flags().BoolVar(&rf.hold, "hold", false, "Hold back the last line while it has unclosed ** or backticks")

	if err := cmd.RegisterFlagCompletionFunc("preset", presetCompletion); err != nil {
		panic("failed to register preset completion: " + err.Error())
	}
	if err := cmd.RegisterFlagCompletionFunc("color", colorCompletion); err != nil {
		panic("failed to register color completion: " + err.Error())
	}
}

// AddStreamFlags adds --chunk-size and --delay
func AddStreamFlags(cmd *cobra.Command, sf *streamFlags) {
	cmd.Flags().IntVar(&sf.chunkSize, "chunk-size", 0, "Runes per replayed chunk (default from config)")
	cmd.Flags().DurationVar(&sf.delay, "delay", -1, "Pause between chunks, e.g. 20ms (default from config)")
}

func presetCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return ui.PresetThemeNames, cobra.ShellCompDirectiveNoFileComp
}

func colorCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"auto", "none", "ansi", "ansi256", "truecolor"}, cobra.ShellCompDirectiveNoFileComp
}

// holdUnstable reports whether trailing unstable lines should be held.
func (rf renderFlags) holdUnstable(configured bool) bool {
	return rf.hold || configured
}
