package cmd

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samsaffron/mdstream/internal/config"
	"github.com/samsaffron/mdstream/internal/llm"
	"github.com/samsaffron/mdstream/internal/tui/viewer"
)

var (
	viewOpts   renderFlags
	viewStream streamFlags
)

var viewCmd = &cobra.Command{
	Use:   "view [file|-]",
	Short: "Replay a markdown file in a full screen viewer",
	Long: `Open a full screen viewer and replay a markdown document into it.

The viewer follows the end of the document while it grows. Scrolling up
stops following; G jumps back to the end. Press s to stop the stream and q
to quit.

Examples:
  mdstream view README.md
  mdstream view notes.md --chunk-size 2 --delay 30ms`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	AddRenderFlags(viewCmd, &viewOpts)
	AddStreamFlags(viewCmd, &viewStream)
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	if !isTerminal() {
		return errors.New("view needs a terminal; use 'mdstream replay' for piped output")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	doc, err := readSingle(args, cmd.InOrStdin())
	if err != nil {
		return err
	}

	chunkSize := cfg.Stream.ChunkSize
	if viewStream.chunkSize > 0 {
		chunkSize = viewStream.chunkSize
	}
	delay := cfg.Stream.Delay
	if viewStream.delay >= 0 {
		delay = viewStream.delay
	}

	title := "stdin"
	if doc.name != "-" {
		title = filepath.Base(doc.name)
	}
	return runViewer(llm.NewReplayStream(doc.text, chunkSize, delay), cfg, viewOpts, title)
}

// runViewer shows stream in the full screen viewer until the user quits.
func runViewer(stream llm.Stream, cfg *config.Config, rf renderFlags, title string) error {
	registry, theme, err := buildRegistry(cfg, os.Stdout, rf)
	if err != nil {
		stream.Close()
		return err
	}
	m := viewer.New(stream, registry, theme, &viewer.Config{
		Title:        title,
		HoldUnstable: rf.holdUnstable(cfg.Render.HoldUnstable),
		AdapterOpts:  adapterOptions(cfg, rf),
	})
	return viewer.Run(m)
}
