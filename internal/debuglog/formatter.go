package debuglog

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/samsaffron/mdstream/internal/ui"
)

// FormatSessionList writes one line per recording, newest first.
func FormatSessionList(w io.Writer, styles *ui.Styles, sessions []SessionSummary) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No recorded sessions.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Record with: mdstream ask --record \"...\"  (or set record.enabled)")
		return
	}

	var totIn, totOut int
	for i, s := range sessions {
		providerModel := s.Provider
		if s.Model != "" {
			providerModel = s.Provider + " / " + s.Model
		}
		if len(providerModel) > 32 {
			providerModel = providerModel[:29] + "..."
		}
		totIn += s.Input
		totOut += s.Output

		errMark := " "
		if s.HasErrors {
			errMark = styles.Error.Render("!")
		}

		fmt.Fprintf(w, "%s%2d. %s  %-32s  %s  %s\n",
			errMark,
			i+1,
			styles.Muted.Render(fmt.Sprintf("%-14s", humanize.Time(s.StartTime))),
			providerModel,
			styles.Muted.Render(fmt.Sprintf("%5s chunks %8s", humanize.Comma(int64(s.Chunks)), humanize.Bytes(uint64(s.FileSize)))),
			promptPreview(s.Prompt, 40),
		)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.Muted.Render(fmt.Sprintf("Total: %d sessions  %s in / %s out tokens",
		len(sessions), humanize.Comma(int64(totIn)), humanize.Comma(int64(totOut)))))
	fmt.Fprintln(w, styles.Muted.Render("Replay one with: mdstream replay --session 1"))
}

// FormatSessionHeader writes the details of one recording.
func FormatSessionHeader(w io.Writer, styles *ui.Styles, s *Session) {
	fmt.Fprintln(w, styles.Title.Render("Session "+s.ID))
	if s.Command != "" {
		fmt.Fprintf(w, "%s %s\n", styles.Muted.Render("command:"), strings.Join(append([]string{s.Command}, s.Args...), " "))
	}
	if s.Provider != "" {
		fmt.Fprintf(w, "%s %s / %s\n", styles.Muted.Render("model:  "), s.Provider, s.Model)
	}
	fmt.Fprintf(w, "%s %s (%s)\n", styles.Muted.Render("started:"),
		s.StartTime.Local().Format("Jan 02 15:04:05"), humanize.Time(s.StartTime))
	fmt.Fprintf(w, "%s %s chunks, %s, %.1fs\n", styles.Muted.Render("stream: "),
		humanize.Comma(int64(len(s.Chunks))), humanize.Bytes(uint64(len(s.Text()))), s.Duration().Seconds())
	if s.Usage.InputTokens > 0 || s.Usage.OutputTokens > 0 {
		fmt.Fprintf(w, "%s %s in / %s out\n", styles.Muted.Render("tokens: "),
			humanize.Comma(int64(s.Usage.InputTokens)), humanize.Comma(int64(s.Usage.OutputTokens)))
	}
	for _, e := range s.Errors {
		fmt.Fprintln(w, styles.Error.Render("error:   "+e))
	}
	if s.Request.Prompt != "" {
		fmt.Fprintf(w, "%s %s\n", styles.Muted.Render("prompt: "), promptPreview(s.Request.Prompt, 72))
	}
}

func promptPreview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
