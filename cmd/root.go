package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var (
	debugLog   bool
	configFile string
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/mdstream/config.yaml)")
}

var rootCmd = &cobra.Command{
	Use:   "mdstream",
	Short: "Render streaming markdown in the terminal",
	Long: `mdstream renders markdown as it streams in, redrawing only the blocks
that changed.

Examples:
  mdstream render README.md
  mdstream render "docs/**/*.md" --width 80
  curl -s https://example.com | mdstream render --html --select article
  mdstream replay notes.md --stats
  mdstream ask "Explain Go channels with an example"
  mdstream view notes.md
  mdstream blocks notes.md --format yaml
  mdstream styles --presets`,
	Version:           Version,
	SilenceUsage:      true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	PersistentPreRunE: setupLogging,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setupLogging installs a text handler on stderr at the configured level.
func setupLogging(cmd *cobra.Command, args []string) error {
	level := slog.LevelDebug
	if !debugLog {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if level, err = cfg.LogLevel(); err != nil {
			return err
		}
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
