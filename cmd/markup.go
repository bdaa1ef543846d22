package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/samsaffron/mdstream/internal/markdown"
	"github.com/samsaffron/mdstream/internal/markup"
)

var (
	markupRuns  bool
	markupPlain bool
)

var markupCmd = &cobra.Command{
	Use:   "markup [file|-]",
	Short: "Print the inline markup of each text block",
	Long: `Parse markdown into blocks and print the flat inline markup produced for
every block that carries inline formatting. Code blocks and tables are
skipped.

Examples:
  echo 'Some **bold** and *italic* with <tags>' | mdstream markup
  mdstream markup README.md --runs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMarkup,
}

func init() {
	markupCmd.Flags().BoolVar(&markupRuns, "runs", false, "Print decoded style runs as JSON")
	markupCmd.Flags().BoolVar(&markupPlain, "plain", false, "Print plain text with markup removed")
	markupCmd.MarkFlagsMutuallyExclusive("runs", "plain")
	rootCmd.AddCommand(markupCmd)
}

func runMarkup(cmd *cobra.Command, args []string) error {
	doc, err := readSingle(args, cmd.InOrStdin())
	if err != nil {
		return err
	}
	return writeMarkup(cmd.OutOrStdout(), markdown.Parse(doc.text, false))
}

func writeMarkup(w io.Writer, blocks []markdown.Block) error {
	for i, b := range blocks {
		if !b.IsInline() {
			continue
		}
		mk := markup.FormatInline(b.Content)
		switch {
		case markupRuns:
			data, err := json.Marshal(markup.ParseRuns(mk))
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%3d %s %s\n", i, b.Kind, data)
		case markupPlain:
			fmt.Fprintf(w, "%3d %s %s\n", i, b.Kind, markup.PlainText(mk))
		default:
			fmt.Fprintf(w, "%3d %s %s\n", i, b.Kind, mk)
		}
	}
	return nil
}
