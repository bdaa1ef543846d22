package cmd

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/samsaffron/mdstream/internal/debuglog"
	"github.com/samsaffron/mdstream/internal/llm"
	"github.com/samsaffron/mdstream/internal/markdown"
	"github.com/samsaffron/mdstream/internal/signal"
	"github.com/samsaffron/mdstream/internal/ui"
	"github.com/samsaffron/mdstream/internal/ui/streaming"
)

var (
	replayOpts    renderFlags
	replayStream  streamFlags
	replayStats   bool
	replayExplain bool
	replaySession string
	replaySpeed   float64
)

var replayCmd = &cobra.Command{
	Use:   "replay [file|-] | --session <n|id>",
	Short: "Stream a markdown file as if a model were typing it",
	Long: `Replay a markdown document in small chunks through the streaming renderer.

On a terminal the unfinished tail is redrawn in place as chunks arrive;
piped output only ever receives finished blocks.

--stats prints chunk and reconcile counts to stderr when done. --explain
shows, for every update that rebuilt blocks, how the first changed block
differed from what was on screen.

--session replays a stream recorded with 'ask --record' using the chunk
boundaries and timing the provider produced. --speed scales that timing;
0 replays as fast as possible.

Examples:
  mdstream replay README.md
  mdstream replay notes.md --chunk-size 1 --delay 5ms
  mdstream replay notes.md --delay 0 --stats --explain > /dev/null
  mdstream replay --session 1 --speed 4`,
	Args: func(cmd *cobra.Command, args []string) error {
		if replaySession != "" && len(args) > 0 {
			return fmt.Errorf("--session does not take a file argument")
		}
		return cobra.MaximumNArgs(1)(cmd, args)
	},
	RunE: runReplay,
}

func init() {
	AddRenderFlags(replayCmd, &replayOpts)
	AddStreamFlags(replayCmd, &replayStream)
	replayCmd.Flags().BoolVar(&replayStats, "stats", false, "Print render statistics to stderr")
	replayCmd.Flags().BoolVar(&replayExplain, "explain", false, "Print a diff of each rebuilt block to stderr")
	replayCmd.Flags().StringVar(&replaySession, "session", "", "Replay a recorded session (number from 'sessions' or its ID)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1, "Playback speed for --session (0 = no delays)")
	replayCmd.MarkFlagsMutuallyExclusive("session", "chunk-size")
	replayCmd.MarkFlagsMutuallyExclusive("session", "delay")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	registry, theme, err := buildRegistry(cfg, out, replayOpts)
	if err != nil {
		return err
	}

	chunkSize := cfg.Stream.ChunkSize
	if replayStream.chunkSize > 0 {
		chunkSize = replayStream.chunkSize
	}
	delay := cfg.Stream.Delay
	if replayStream.delay >= 0 {
		delay = replayStream.delay
	}

	stats := ui.NewStreamStats()
	var explain bytes.Buffer
	styles := ui.NewStyles(registry.Renderer(), theme)

	width, height := terminalSize(cfg, replayOpts.width)
	opts := []streaming.StreamRendererOption{
		streaming.WithTerminalWidth(width),
		streaming.WithAdapterOptions(adapterOptions(cfg, replayOpts)...),
		streaming.WithUpdateHook(func(u streaming.Update) {
			stats.AddUpdate(u.Stats.Kept, u.Stats.Destroyed, u.Stats.Created, u.Stats.FullRebuild)
			if replayExplain {
				explainUpdate(&explain, styles, stats.Updates, u)
			}
		}),
	}
	if out == os.Stdout && isTerminal() {
		opts = append(opts, streaming.WithPartialRendering(), streaming.WithTerminalHeight(height))
	}
	if replayOpts.holdUnstable(cfg.Render.HoldUnstable) {
		opts = append(opts, streaming.WithHoldUnstable())
	}

	var stream llm.Stream
	if replaySession != "" {
		summary, err := debuglog.ResolveSession(cfg.RecordDir(), replaySession)
		if err != nil {
			return err
		}
		session, err := debuglog.ParseSession(summary.FilePath)
		if err != nil {
			return err
		}
		slog.Debug("replaying session", "id", session.ID, "chunks", len(session.Chunks), "speed", replaySpeed)
		stream = llm.NewTimedStream(ctx, session.Chunks, replaySpeed)
	} else {
		doc, err := readSingle(args, cmd.InOrStdin())
		if err != nil {
			return err
		}
		provider := &llm.ReplayProvider{Text: doc.text, ChunkSize: chunkSize, Delay: delay}
		stream, err = provider.Stream(ctx, llm.Request{})
		if err != nil {
			return err
		}
	}

	sr := streaming.NewStreamRenderer(out, registry, opts...)
	_, streamErr := pumpStream(stream, sr, func(chunk string) {
		stats.AddChunk(len(chunk))
	})
	stats.Finalize()

	errOut := cmd.ErrOrStderr()
	if explain.Len() > 0 {
		if _, err := explain.WriteTo(errOut); err != nil {
			return err
		}
	}
	if replayStats {
		fmt.Fprintln(errOut, styles.Muted.Render(stats.Render()))
	}
	if streamErr != nil && ctx.Err() != nil {
		// interrupted by the user
		return nil
	}
	return streamErr
}

// explainUpdate writes the first block an update replaced, as a diff
// against the block that took its place.
func explainUpdate(buf *bytes.Buffer, styles *ui.Styles, n int, u streaming.Update) {
	if u.Stats.Destroyed == 0 {
		return
	}
	i := u.Stats.Kept
	var before, after markdown.Block
	if i < len(u.Before) {
		before = u.Before[i]
	}
	if i < len(u.After) {
		after = u.After[i]
	}

	label := fmt.Sprintf("update %d, block %d: %s", n, i, before.Kind)
	if after.Kind != before.Kind {
		label += " -> " + after.Kind.String()
	}
	fmt.Fprintln(buf, styles.Title.Render(label))
	if before.Content == after.Content {
		fmt.Fprintln(buf, styles.Muted.Render("  content unchanged, block attributes differ"))
		return
	}
	// the buffer never fails
	_ = ui.WriteUnifiedDiff(buf, styles, fmt.Sprintf("block-%d", i), before.Content, after.Content)
}
