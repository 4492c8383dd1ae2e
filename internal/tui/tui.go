package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"truthguard/internal/analysis"
	"truthguard/internal/renderer"
)

type mode int

const (
	modeText mode = iota
	modeURL
	modeImage
	modeVideo
)

var modes = []mode{modeText, modeURL, modeImage, modeVideo}

func (m mode) String() string {
	switch m {
	case modeURL:
		return "url"
	case modeImage:
		return "image"
	case modeVideo:
		return "video"
	default:
		return "text"
	}
}

func (m mode) placeholder() string {
	switch m {
	case modeURL:
		return "https://news.example.com/story"
	case modeImage:
		return "path/to/image.png"
	case modeVideo:
		return "path/to/video.mp4"
	default:
		return "Paste a claim or article text"
	}
}

// stateMsg carries a session snapshot into the program.
type stateMsg analysis.State

// localErrMsg reports a failure that happened before the session was reached,
// such as an unreadable file.
type localErrMsg struct{ err error }

type Model struct {
	ctx     context.Context
	session *analysis.Session
	title   string

	input   textinput.Model
	spinner spinner.Model
	vp      viewport.Model
	mode    mode

	state     analysis.State
	submitted string
	localErr  string
	markdown  string

	width  int
	height int
}

// New builds the UI model around session. Session calls are made from
// commands, never from Update, so observers may block on Program.Send.
func New(ctx context.Context, session *analysis.Session, title string) Model {
	ti := textinput.New()
	ti.Placeholder = modeText.placeholder()
	ti.CharLimit = 0
	ti.Width = 76
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	return Model{
		ctx:     ctx,
		session: session,
		title:   title,
		input:   ti,
		spinner: sp,
		vp:      viewport.New(80, 16),
		state:   session.State(),
	}
}

// Run starts the full-screen UI and blocks until the user quits.
func Run(ctx context.Context, session *analysis.Session, title string) error {
	p := tea.NewProgram(New(ctx, session, title), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := session.Subscribe(func(st analysis.State) {
		p.Send(stateMsg(st))
	})
	defer unsubscribe()
	defer session.Cancel()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case stateMsg:
		m.state = analysis.State(v)
		m.localErr = ""
		m.refreshReport()
		return m, nil
	case localErrMsg:
		m.localErr = v.err.Error()
		return m, nil
	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
		m.input.Width = max(20, v.Width-6)
		m.vp.Width = max(20, v.Width-4)
		m.vp.Height = max(5, v.Height-9)
		m.refreshReport()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(v)
		return m, cmd
	case tea.KeyMsg:
		switch v.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.mode = modes[(int(m.mode)+1)%len(modes)]
			m.input.Placeholder = m.mode.placeholder()
			m.input.SetValue("")
			return m, nil
		case "shift+tab":
			m.mode = modes[(int(m.mode)+len(modes)-1)%len(modes)]
			m.input.Placeholder = m.mode.placeholder()
			m.input.SetValue("")
			return m, nil
		case "enter":
			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				return m, nil
			}
			m.submitted = value
			m.localErr = ""
			return m, m.submit(m.mode, value)
		case "esc":
			return m, m.cancel()
		case "ctrl+r":
			m.input.SetValue("")
			return m, m.reset()
		case "pgup":
			m.vp.LineUp(max(1, m.vp.Height/2))
			return m, nil
		case "pgdown":
			m.vp.LineDown(max(1, m.vp.Height/2))
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit(md mode, value string) tea.Cmd {
	ctx, session := m.ctx, m.session
	return func() tea.Msg {
		switch md {
		case modeURL:
			session.SubmitURL(ctx, value)
		case modeImage, modeVideo:
			f, err := os.Open(value)
			if err != nil {
				return localErrMsg{err: fmt.Errorf("open %s: %w", value, err)}
			}
			defer f.Close()
			if md == modeImage {
				session.SubmitImage(ctx, filepath.Base(value), f)
			} else {
				session.SubmitVideo(ctx, filepath.Base(value), f)
			}
		default:
			session.SubmitText(ctx, value)
		}
		return nil
	}
}

func (m Model) cancel() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		session.Cancel()
		return nil
	}
}

func (m Model) reset() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		session.Reset()
		return nil
	}
}

// refreshReport re-renders the report pane from the current state.
func (m *Model) refreshReport() {
	switch {
	case m.state.Result != nil:
		m.markdown = renderer.RenderReport(m.submitted, m.state.Result)
	case m.state.Error != "":
		m.markdown = renderer.RenderError(m.submitted, m.state.Error)
	default:
		m.markdown = ""
	}
	m.vp.SetContent(renderMarkdown(m.markdown, m.vp.Width))
	m.vp.GotoTop()
}

func renderMarkdown(md string, width int) string {
	if md == "" {
		return ""
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(max(20, width-2)))
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69"))
	modeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	activeMode  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("39")).Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func (m Model) View() string {
	header := headerStyle.Render(m.title)

	var tabs []string
	for _, md := range modes {
		if md == m.mode {
			tabs = append(tabs, activeMode.Render(md.String()))
		} else {
			tabs = append(tabs, modeStyle.Render(" "+md.String()+" "))
		}
	}
	modeBar := strings.Join(tabs, " ")

	input := boxStyle.Render(m.input.View())
	status := m.statusLine()

	body := m.vp.View()
	if m.markdown == "" {
		body = dimStyle.Render("Submit something to see its credibility report.")
	}

	help := dimStyle.Render("enter submit • tab mode • esc cancel • ctrl+r reset • pgup/pgdn scroll • ctrl+c quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, modeBar, input, status, body, help)
}

func (m Model) statusLine() string {
	switch {
	case m.localErr != "":
		return errorStyle.Render("✗ " + m.localErr)
	case m.state.Analyzing:
		return m.spinner.View() + " Analyzing…"
	case m.state.Error != "":
		return errorStyle.Render("✗ " + m.state.Error)
	case m.state.Result != nil:
		v := renderer.VerdictFor(m.state.Result.CredibilityScore)
		return okStyle.Render(fmt.Sprintf("✓ %s %s", v.Icon, v.Label))
	default:
		return dimStyle.Render("Ready")
	}
}
