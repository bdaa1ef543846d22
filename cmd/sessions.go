package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samsaffron/mdstream/internal/debuglog"
	"github.com/samsaffron/mdstream/internal/ui"
)

var sessionsOpts renderFlags

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"recordings"},
	Short:   "List recorded response streams",
	Long: `List the response streams recorded by 'ask --record' (or with
record.enabled set), newest first.

Examples:
  mdstream sessions
  mdstream sessions show 1
  mdstream replay --session 1 --speed 2`,
	Args: cobra.NoArgs,
	RunE: runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <number|id>",
	Short: "Show a recorded session and its rendered response",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		cfg, err := loadConfig()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		sessions, _ := debuglog.ListSessions(cfg.RecordDir())
		ids := make([]string, 0, len(sessions))
		for _, s := range sessions {
			ids = append(ids, s.ID)
		}
		return filterPrefix(ids, toComplete), cobra.ShellCompDirectiveNoFileComp
	},
}

func init() {
	AddRenderFlags(sessionsShowCmd, &sessionsOpts)
	sessionsCmd.AddCommand(sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	registry, theme, err := buildRegistry(cfg, out, renderFlags{})
	if err != nil {
		return err
	}
	sessions, err := debuglog.ListSessions(cfg.RecordDir())
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	debuglog.FormatSessionList(out, ui.NewStyles(registry.Renderer(), theme), sessions)
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	summary, err := debuglog.ResolveSession(cfg.RecordDir(), args[0])
	if err != nil {
		return err
	}
	session, err := debuglog.ParseSession(summary.FilePath)
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	out := cmd.OutOrStdout()
	registry, theme, err := buildRegistry(cfg, out, sessionsOpts)
	if err != nil {
		return err
	}
	debuglog.FormatSessionHeader(out, ui.NewStyles(registry.Renderer(), theme), session)
	fmt.Fprintln(out)

	width, _ := terminalSize(cfg, sessionsOpts.width)
	return renderNative(out, session.Text(), registry, cfg, sessionsOpts, width)
}
