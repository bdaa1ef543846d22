// Package viewer is a full screen bubbletea program showing a markdown
// stream as it is rendered.
package viewer

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/samsaffron/mdstream/internal/llm"
	"github.com/samsaffron/mdstream/internal/render/chat"
	"github.com/samsaffron/mdstream/internal/ui"
	"github.com/samsaffron/mdstream/internal/ui/streaming"
)

// streamEventMsg carries one event read from the stream
type streamEventMsg struct {
	event llm.Event
	err   error
}

// Config holds optional configuration for the viewer
type Config struct {
	Title        string
	HoldUnstable bool
	AdapterOpts  []streaming.AdapterOption
}

// Model is the viewer model
type Model struct {
	// Dimensions
	width  int
	height int

	// Rendering
	adapter  *streaming.Adapter
	renderer *chat.Renderer[*streaming.Widget]
	virtual  *chat.VirtualViewport
	viewport viewport.Model
	follow   bool

	// Stream
	stream    llm.Stream
	smooth    *ui.SmoothBuffer
	streaming bool
	stopped   bool
	err       error
	retry     string
	usage     *llm.Usage
	stats     *ui.StreamStats

	// Components
	spinner spinner.Model
	styles  *ui.Styles
	keyMap  KeyMap
	title   string
}

// New creates a viewer reading stream and drawing with registry.
func New(stream llm.Stream, registry *ui.Registry, theme *ui.Theme, cfg *Config) *Model {
	if cfg == nil {
		cfg = &Config{}
	}
	title := cfg.Title
	if title == "" {
		title = "mdstream"
	}

	var rendererOpts []chat.RendererOption
	if cfg.HoldUnstable {
		rendererOpts = append(rendererOpts, chat.WithHoldUnstable())
	}
	adapter := streaming.NewAdapter(registry, streaming.DefaultWidth, cfg.AdapterOpts...)
	styles := ui.NewStyles(registry.Renderer(), theme)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	m := &Model{
		adapter:   adapter,
		renderer:  chat.NewRenderer[*streaming.Widget](adapter, rendererOpts...),
		virtual:   chat.NewVirtualViewport(0),
		viewport:  viewport.New(streaming.DefaultWidth, 20),
		follow:    true,
		stream:    stream,
		smooth:    ui.NewSmoothBuffer(),
		streaming: true,
		stats:     ui.NewStreamStats(),
		spinner:   s,
		styles:    styles,
		keyMap:    DefaultKeyMap(),
		title:     title,
	}
	m.renderer.HandleEvent(chat.NewStreamStartEvent())
	return m
}

// Init starts reading the stream
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.listen(), m.spinner.Tick, ui.SmoothTick())
}

// listen returns a command that waits for the next stream event
func (m *Model) listen() tea.Cmd {
	stream := m.stream
	return func() tea.Msg {
		event, err := stream.Recv()
		return streamEventMsg{event: event, err: err}
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = m.viewportHeight()
		m.virtual = chat.NewVirtualViewport(m.viewportHeight())
		m.record(m.renderer.HandleEvent(chat.NewResizeEvent(msg.Width, msg.Height)))
		m.refresh()

	case spinner.TickMsg:
		if m.streaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case streamEventMsg:
		cmds = append(cmds, m.handleStreamEvent(msg))

	case ui.SmoothTickMsg:
		// Release buffered text a few words per frame
		if words := m.smooth.NextWords(); words != "" {
			m.record(m.renderer.HandleEvent(chat.NewStreamTextEvent(words)))
			m.refresh()
		}
		if m.smooth.IsDrained() {
			m.finish(nil)
		} else if m.streaming {
			cmds = append(cmds, ui.SmoothTick())
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.follow = m.viewport.AtBottom()
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleStreamEvent(msg streamEventMsg) tea.Cmd {
	if msg.err != nil {
		if msg.err == io.EOF || m.stopped {
			m.smooth.MarkDone()
			return nil
		}
		// Show what already arrived, then end with the error
		m.record(m.renderer.HandleEvent(chat.NewStreamTextEvent(m.smooth.FlushAll())))
		m.finish(msg.err)
		return nil
	}

	switch msg.event.Type {
	case llm.EventTextDelta:
		m.retry = ""
		m.stats.AddChunk(len(msg.event.Text))
		m.smooth.Write(msg.event.Text)
	case llm.EventUsage:
		m.usage = msg.event.Use
	case llm.EventRetry:
		m.retry = fmt.Sprintf("retrying %d/%d in %.0fs", msg.event.RetryAttempt, msg.event.RetryMaxAttempts, msg.event.RetryWaitSecs)
	}
	return m.listen()
}

// handleKeyMsg handles keyboard input
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.stream.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Stop):
		if m.streaming && !m.stopped {
			m.stopped = true
			m.stream.Close()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.GoToTop):
		m.follow = false
		m.refresh()
		m.viewport.GotoTop()
		return m, nil

	case key.Matches(msg, m.keyMap.GoToBottom):
		m.follow = true
		m.refresh()
		return m, nil
	}

	wasFollowing := m.follow
	if wasFollowing {
		// the whole document is needed to scroll back
		m.follow = false
		m.refresh()
		m.viewport.GotoBottom()
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	if m.viewport.AtBottom() {
		m.follow = true
		m.refresh()
	}
	return m, cmd
}

// finish ends the stream once. A nil err is a normal end.
func (m *Model) finish(err error) {
	if !m.streaming {
		return
	}
	m.streaming = false
	m.err = err
	if err != nil {
		m.record(m.renderer.HandleEvent(chat.NewStreamErrorEvent(err)))
	} else {
		m.record(m.renderer.HandleEvent(chat.NewStreamEndEvent()))
	}
	m.stats.Finalize()
	m.refresh()
}

func (m *Model) record(stats chat.Stats) {
	if stats.Created > 0 || stats.Destroyed > 0 {
		m.stats.AddUpdate(stats.Kept, stats.Destroyed, stats.Created, stats.FullRebuild)
	}
}

// refresh puts the rendered document into the viewport. While following
// the tail only the widgets that fill the screen are joined.
func (m *Model) refresh() {
	widgets := m.renderer.Widgets()
	start := 0
	if m.follow {
		heights := make([]int, len(widgets))
		for i, w := range widgets {
			heights[i] = w.Height
		}
		start, _ = m.virtual.VisibleRange(heights, 0)
	}

	var b strings.Builder
	for i, w := range widgets[start:] {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(w.Rendered)
	}
	m.viewport.SetContent(b.String())
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// viewportHeight returns the available height for content
func (m *Model) viewportHeight() int {
	// header and footer
	return max(1, m.height-2)
}

// View renders the model
func (m *Model) View() string {
	theme := m.styles.Theme()
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.Text).
		Background(theme.Border).
		Padding(0, 1).
		Width(m.width)
	title := m.title
	if m.streaming {
		title = m.spinner.View() + " " + title
	}
	b.WriteString(headerStyle.Render(title))
	b.WriteString("\n")

	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m *Model) footer() string {
	var status string
	switch {
	case m.err != nil:
		return m.styles.Error.Render("Error: " + m.err.Error())
	case m.retry != "":
		status = m.retry
	case m.streaming:
		status = fmt.Sprintf("%d blocks", len(m.renderer.Widgets()))
	default:
		status = m.stats.Render()
		if m.usage != nil {
			status += fmt.Sprintf(" | %d in / %d out tokens", m.usage.InputTokens, m.usage.OutputTokens)
		}
	}
	if !m.follow {
		status = fmt.Sprintf("%3.0f%% %s", m.viewport.ScrollPercent()*100, status)
	}
	help := "q:quit  s:stop  g/G:top/follow"

	padding := max(1, m.width-lipgloss.Width(status)-len(help))
	return m.styles.Muted.Render(status + strings.Repeat(" ", padding) + help)
}

// Err returns the error that ended the stream, if any.
func (m *Model) Err() error {
	return m.err
}

// Text returns the markdown received so far.
func (m *Model) Text() string {
	return m.renderer.Text()
}

// Stats returns the stream statistics.
func (m *Model) Stats() *ui.StreamStats {
	return m.stats
}

// Run starts the viewer on the alternate screen and blocks until it quits.
func Run(m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return err
	}
	return m.Err()
}
