package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/samsaffron/mdstream/internal/config"
	"github.com/samsaffron/mdstream/internal/ui"
	"github.com/samsaffron/mdstream/internal/ui/streaming"
)

var (
	renderEngine   string
	renderHTML     bool
	renderSelector string
	renderOpts     renderFlags
)

var renderCmd = &cobra.Command{
	Use:   "render [file|glob|-]...",
	Short: "Render markdown files to the terminal",
	Long: `Render one or more markdown documents. With no arguments, stdin is read.

The native engine parses the document into blocks and draws each one. The
glamour engine hands the whole document to glamour using the same theme.

HTML input is converted to markdown first. Pass --html for piped pages; .html
and .htm files are detected by extension. --select picks the part of the page
to keep with a CSS selector.

Examples:
  mdstream render README.md
  mdstream render "docs/**/*.md"
  mdstream render notes.md --engine glamour --preset nord
  curl -s https://go.dev/doc/effective_go | mdstream render --html --select article`,
	RunE: runRender,
}

func init() {
	AddRenderFlags(renderCmd, &renderOpts)
	renderCmd.Flags().StringVarP(&renderEngine, "engine", "e", "native", "Renderer: native or glamour")
	renderCmd.Flags().BoolVar(&renderHTML, "html", false, "Treat input as HTML")
	renderCmd.Flags().StringVarP(&renderSelector, "select", "s", "", "CSS selector for the HTML content region")
	if err := renderCmd.RegisterFlagCompletionFunc("engine", cobra.FixedCompletions([]string{"native", "glamour"}, cobra.ShellCompDirectiveNoFileComp)); err != nil {
		panic("failed to register engine completion: " + err.Error())
	}
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	if renderEngine != "native" && renderEngine != "glamour" {
		return fmt.Errorf("unknown engine %q (native, glamour)", renderEngine)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	registry, theme, err := buildRegistry(cfg, out, renderOpts)
	if err != nil {
		return err
	}
	docs, err := readDocuments(args, cmd.InOrStdin(), renderHTML, renderSelector)
	if err != nil {
		return err
	}
	width, _ := terminalSize(cfg, renderOpts.width)
	styles := ui.NewStyles(registry.Renderer(), theme)

	for i, doc := range docs {
		if len(docs) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, styles.Title.Render("==> "+doc.name+" <=="))
		}

		if renderEngine == "glamour" {
			rendered, err := ui.NewGlamourRenderer(registry).RenderWithError(doc.text, width)
			if err != nil {
				return fmt.Errorf("%s: %w", doc.name, err)
			}
			fmt.Fprint(out, rendered)
			continue
		}

		if err := renderNative(out, doc.text, registry, cfg, renderOpts, width); err != nil {
			return fmt.Errorf("%s: %w", doc.name, err)
		}
	}
	return nil
}

// renderNative draws a complete document through the streaming renderer
// in flowing mode.
func renderNative(out io.Writer, text string, registry *ui.Registry, cfg *config.Config, rf renderFlags, width int) error {
	opts := []streaming.StreamRendererOption{
		streaming.WithTerminalWidth(width),
		streaming.WithAdapterOptions(adapterOptions(cfg, rf)...),
	}
	if rf.holdUnstable(cfg.Render.HoldUnstable) {
		opts = append(opts, streaming.WithHoldUnstable())
	}

	sr := streaming.NewStreamRenderer(out, registry, opts...)
	if _, err := sr.WriteString(text); err != nil {
		return err
	}
	return sr.Close()
}
