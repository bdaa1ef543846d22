package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/samsaffron/mdstream/internal/config"
	"github.com/samsaffron/mdstream/internal/debuglog"
	"github.com/samsaffron/mdstream/internal/llm"
	"github.com/samsaffron/mdstream/internal/signal"
	"github.com/samsaffron/mdstream/internal/ui"
	"github.com/samsaffron/mdstream/internal/ui/streaming"
)

var (
	askProvider      string
	askSystemMessage string
	askMaxTokens     int
	askText          bool
	askView          bool
	askRecord        bool
	askOpts          renderFlags
)

const defaultAskInstructions = "Answer in GitHub flavored markdown. Use fenced code blocks with a language tag for code."

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a model a question and render the answer as it streams",
	Long: `Ask the configured LLM a question and render the markdown answer while it
streams in.

Examples:
  mdstream ask "What is the difference between a slice and an array in Go?"
  mdstream ask -p openai:gpt-4o "Write a table of HTTP status codes"
  cat error.log | mdstream ask "What went wrong?"
  mdstream ask --view "Explain the CAP theorem"
  mdstream ask --record "Summarise RFC 9110"   # replay later with 'mdstream replay --session 1'`,
	Args: cobra.ArbitraryArgs,
	RunE: runAsk,
}

func init() {
	AddProviderFlag(askCmd, &askProvider)
	AddRenderFlags(askCmd, &askOpts)
	askCmd.Flags().StringVarP(&askSystemMessage, "system-message", "m", "", "System message/instructions for the LLM (overrides config)")
	askCmd.Flags().IntVar(&askMaxTokens, "max-tokens", 0, "Maximum output tokens (default from config)")
	askCmd.Flags().BoolVarP(&askText, "text", "t", false, "Output plain text instead of rendered markdown")
	askCmd.Flags().BoolVar(&askView, "view", false, "Show the answer in the full screen viewer")
	askCmd.Flags().BoolVar(&askRecord, "record", false, "Record the response stream for later replay (default from config)")
	askCmd.MarkFlagsMutuallyExclusive("text", "view")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	stdinContent, err := readStdinIfPiped(cmd.InOrStdin())
	if err != nil {
		return err
	}
	if stdinContent != "" {
		if question == "" {
			question = stdinContent
		} else {
			question = question + "\n\n" + stdinContent
		}
	}
	if strings.TrimSpace(question) == "" {
		return errors.New("nothing to ask: pass a question or pipe content on stdin")
	}

	ctx, stop := signal.NotifyContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := chooseProvider(cfg); err != nil {
		return err
	}
	if err := applyProviderOverrides(cfg, askProvider); err != nil {
		return err
	}
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return err
	}

	req := llm.Request{
		System:          askInstructions(cfg),
		Prompt:          question,
		MaxOutputTokens: askMaxTokens,
	}
	if req.MaxOutputTokens == 0 && cfg.Provider == "anthropic" {
		req.MaxOutputTokens = cfg.Anthropic.MaxTokens
	}
	logger := slog.With("provider", provider.Name(), "model", cfg.ActiveModel())
	logger.Debug("asking", "prompt_len", len(req.Prompt))

	recorder, err := startRecording(cfg, provider.Name(), req)
	if err != nil {
		logger.Warn("recording disabled", "error", err)
	}
	defer func() {
		if recorder != nil {
			recorder.Close()
			slog.Info("recorded session", "path", recorder.Path())
		}
	}()

	stream, err := provider.Stream(ctx, req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	stream = debuglog.Record(stream, recorder)

	if askView {
		return runViewer(stream, cfg, askOpts, cfg.ActiveModel())
	}
	if askText {
		return streamPlain(cmd.OutOrStdout(), stream)
	}

	out := cmd.OutOrStdout()
	registry, _, err := buildRegistry(cfg, out, askOpts)
	if err != nil {
		return err
	}
	width, height := terminalSize(cfg, askOpts.width)
	opts := []streaming.StreamRendererOption{
		streaming.WithTerminalWidth(width),
		streaming.WithAdapterOptions(adapterOptions(cfg, askOpts)...),
	}
	tty := out == os.Stdout && isTerminal()
	if tty {
		opts = append(opts, streaming.WithPartialRendering(), streaming.WithTerminalHeight(height))
	}
	if askOpts.holdUnstable(cfg.Render.HoldUnstable) {
		opts = append(opts, streaming.WithHoldUnstable())
	}
	sr := streaming.NewStreamRenderer(out, registry, opts...)

	// Show a spinner on stderr until the first text arrives
	var stopWaiting func(string)
	if tty {
		waiting := startWaitSpinner()
		stopWaiting = func(string) {
			if waiting != nil {
				waiting()
				waiting = nil
			}
		}
		defer func() {
			if waiting != nil {
				waiting()
			}
		}()
	}

	usage, err := pumpStream(stream, sr, stopWaiting)
	if usage != nil {
		logger.Debug("usage", "input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens)
	}
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// startRecording opens a session recording when --record or
// record.enabled asks for one. It returns a nil logger otherwise.
func startRecording(cfg *config.Config, providerName string, req llm.Request) (*debuglog.Logger, error) {
	if !askRecord && !cfg.Record.Enabled {
		return nil, nil
	}
	recorder, err := debuglog.NewLogger(cfg.RecordDir(), debuglog.NewSessionID(), cfg.Record.Retention)
	if err != nil {
		return nil, err
	}
	cwd, _ := os.Getwd()
	recorder.LogSessionStart(os.Args[0], os.Args[1:], cwd)
	recorder.LogRequest(providerName, cfg.ActiveModel(), req)
	return recorder, nil
}

func askInstructions(cfg *config.Config) string {
	switch {
	case askSystemMessage != "":
		return askSystemMessage
	case cfg.Ask.Instructions != "":
		return cfg.Ask.Instructions
	}
	return defaultAskInstructions
}

// chooseProvider asks for a provider on first use when nothing says which
// one to use and there is a terminal to ask on.
func chooseProvider(cfg *config.Config) error {
	if askProvider != "" || config.Exists() || configFile != "" {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil
	}
	provider, err := ui.SelectProvider()
	if err != nil {
		return fmt.Errorf("provider selection cancelled: %w", err)
	}
	cfg.Provider = provider
	return nil
}

// readStdinIfPiped returns stdin's content when it is not a terminal.
func readStdinIfPiped(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func streamPlain(w io.Writer, stream llm.Stream) error {
	defer stream.Close()
	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(w)
			return nil
		}
		if err != nil {
			return err
		}
		if event.Type == llm.EventTextDelta {
			fmt.Fprint(w, event.Text)
		}
	}
}

type stopSpinnerMsg struct{}

// spinnerModel shows a spinner until it is told to stop.
type spinnerModel struct {
	spinner spinner.Model
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopSpinnerMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " Thinking..."
}

// startWaitSpinner draws a spinner on stderr and returns a function that
// removes it.
func startWaitSpinner() func() {
	s := spinner.New()
	s.Spinner = spinner.Dot
	p := tea.NewProgram(spinnerModel{spinner: s},
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
		tea.WithoutSignalHandler())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := p.Run(); err != nil {
			slog.Debug("spinner", "error", err)
		}
	}()
	return func() {
		p.Send(stopSpinnerMsg{})
		<-done
	}
}
