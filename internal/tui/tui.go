// Package tui provides a Bubble Tea terminal user interface for ingenuity-dl.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/ingenuity-dl/internal/config"
	"github.com/handiism/ingenuity-dl/internal/download"
	"github.com/handiism/ingenuity-dl/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	solStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

const (
	maxLogs = 10
	minFPS  = 1
	maxFPS  = 50
)

var errCancelled = errors.New("cancelled by user")

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateResolving
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	inputErr  string
	err       error

	// Run context
	ctx    context.Context
	cancel context.CancelFunc
	events chan download.ProgressEvent

	manager *download.Manager
	result  *download.Result

	// Run progress
	step     int
	stepText string
	sol      model.Sol
	phase    download.EventKind

	// Options
	save    bool
	verbose bool
	fps     int

	width  int
	height int
}

// NewModel creates a new TUI model using settings for everything the screen
// does not expose. A nil settings uses config.DefaultSettings.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "latest"
	ti.Focus()
	ti.CharLimit = 6
	ti.Width = 20

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:     StateInput,
		textInput: ti,
		spinner:   sp,
		progress:  prog,
		settings:  settings,
		logs:      make([]LogEntry, 0),
		ctx:       ctx,
		cancel:    cancel,
		save:      settings.SaveImages,
		fps:       settings.FPS,
		sol:       model.LatestSol,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Message types
type (
	// ProgressMsg carries one event from the running Manager.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// EventsClosedMsg is sent once the Manager can send no more events.
	EventsClosedMsg struct{}

	// RunDoneMsg is sent when the run finishes.
	RunDoneMsg struct {
		Result *download.Result
		Err    error
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.running() {
				m.cancel()
				m.state = StateError
				m.err = errCancelled
			}
			return m, nil

		case "enter":
			if m.state == StateInput {
				sol, err := parseSol(m.textInput.Value())
				if err != nil {
					m.inputErr = err.Error()
					return m, nil
				}
				m.inputErr = ""
				m.sol = sol
				m.state = StateResolving
				m.events = make(chan download.ProgressEvent, 64)
				m.manager = m.newManager()
				return m, tea.Batch(m.startRun(), m.waitForEvent(), m.spinner.Tick)
			}

		case "s":
			if m.state == StateInput {
				m.save = !m.save
				return m, nil
			}

		case "v":
			if m.state == StateInput {
				m.verbose = !m.verbose
				return m, nil
			}

		case "+", "=":
			if m.state == StateInput {
				m.fps = min(m.fps+1, maxFPS)
				return m, nil
			}

		case "-":
			if m.state == StateInput {
				m.fps = max(m.fps-1, minFPS)
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				m.reset()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, m.handleEvent(msg.Event), m.waitForEvent())

	case EventsClosedMsg:
		// nothing left to listen for

	case RunDoneMsg:
		switch {
		case m.ctx.Err() != nil:
			m.state = StateError
			m.err = errCancelled
		case msg.Err != nil:
			m.state = StateError
			m.err = msg.Err
		default:
			m.state = StateComplete
			m.result = msg.Result
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleEvent applies one progress event to the model.
func (m *Model) handleEvent(e download.ProgressEvent) tea.Cmd {
	switch e.Kind {
	case download.EventStep:
		m.step = e.Step
		m.stepText = e.Message
		if e.Step >= 3 && m.running() {
			m.state = StateDownloading
		}
		m.addLog(LogEntry{Message: fmt.Sprintf("[%d/%d] %s", e.Step, e.Steps, e.Message), Level: download.LevelInfo})
		if e.Step >= 3 {
			return m.progress.SetPercent(0)
		}

	case download.EventSol:
		m.sol = e.Sol

	case download.EventDownloaded, download.EventEncoded:
		m.phase = e.Kind
		if m.verbose {
			m.addLog(LogEntry{Message: e.Message, Level: e.Level})
		}
		return m.progress.SetPercent(e.Fraction())

	default:
		if e.Level == download.LevelVerbose && !m.verbose {
			return nil
		}
		m.addLog(LogEntry{Message: e.Message, Level: e.Level})
	}
	return nil
}

func (m *Model) addLog(entry LogEntry) {
	m.logs = append(m.logs, entry)
	// Keep only last 10 logs
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func (m *Model) reset() {
	m.state = StateInput
	m.logs = nil
	m.err = nil
	m.inputErr = ""
	m.manager = nil
	m.result = nil
	m.events = nil
	m.step = 0
	m.stepText = ""
	m.sol = model.LatestSol
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.textInput.SetValue("")
	m.textInput.Focus()
}

func (m Model) running() bool {
	return m.state == StateResolving || m.state == StateDownloading
}

// parseSol reads the sol input. Blank means the latest sol.
func parseSol(s string) (model.Sol, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "latest") {
		return model.LatestSol, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a sol number", s)
	}
	return model.Sol(n), nil
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Ingenuity Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Animate the Mars helicopter's raw images"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateResolving:
		b.WriteString(m.viewResolving())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Sol (blank for latest):"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n")
	if m.inputErr != "" {
		b.WriteString(errorStyle.Render(m.inputErr))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	saveCheck := "[ ]"
	if m.save {
		saveCheck = "[x]"
	}
	verboseCheck := "[ ]"
	if m.verbose {
		verboseCheck = "[x]"
	}

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Keep downloaded images (s)\n", saveCheck))
	b.WriteString(fmt.Sprintf("  %s Verbose output (v)\n", verboseCheck))
	b.WriteString(fmt.Sprintf("  %3d fps (+/-)\n", m.fps))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Output: %s", m.settings.OutputPath)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewResolving() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	if m.stepText != "" {
		b.WriteString(subtitleStyle.Render(m.stepText + "..."))
	} else {
		b.WriteString(subtitleStyle.Render("Contacting feed..."))
	}
	b.WriteString("\n\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	b.WriteString(solStyle.Render(fmt.Sprintf("Sol %s", m.sol)))
	b.WriteString("\n\n")

	label := "Downloading"
	if m.phase == download.EventEncoded || m.step == download.TotalSteps {
		label = "Encoding"
	}
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("[%d/%d] %s", m.step, download.TotalSteps, label)))
	b.WriteString("\n")
	b.WriteString(m.progress.View())
	b.WriteString("\n")

	if m.manager != nil {
		downloaded, encoded, total := m.manager.GetProgress()
		b.WriteString(infoStyle.Render(fmt.Sprintf(
			"Images: %d/%d | Frames: %d/%d | %d fps",
			downloaded, total, encoded, total, m.fps,
		)))
		b.WriteString("\n\n")
	}

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	if m.result == nil {
		return successStyle.Render("Done.")
	}

	details := fmt.Sprintf(
		"GIF Complete!\n\n"+
			"Sol: %s\n"+
			"Frames: %d\n"+
			"Output: %s",
		m.result.Sol,
		m.result.Frames,
		m.result.Output,
	)
	if m.result.SaveDir != "" {
		details += fmt.Sprintf("\nImages: %s", m.result.SaveDir)
	}
	b.WriteString(boxStyle.Render(details))

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "x"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • s: save images • v: verbose • +/-: fps • esc: quit"
	case StateResolving, StateDownloading:
		return "esc: cancel"
	case StateComplete, StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// newManager builds a Manager from the screen options that forwards its
// events to m.events.
func (m *Model) newManager() *download.Manager {
	settings := *m.settings
	settings.SaveImages = m.save
	settings.FPS = m.fps

	events, ctx := m.events, m.ctx
	return download.NewManager(&settings, func(e download.ProgressEvent) {
		select {
		case events <- e:
		case <-ctx.Done():
		}
	})
}

// startRun runs the Manager in the background and closes the event channel
// when it returns.
func (m *Model) startRun() tea.Cmd {
	manager, events, ctx := m.manager, m.events, m.ctx
	opts := download.Options{
		Sol:    m.sol,
		Output: m.settings.OutputPath,
		FPS:    m.fps,
		Save:   m.save,
	}
	return func() tea.Msg {
		res, err := manager.Run(ctx, opts)
		close(events)
		return RunDoneMsg{Result: res, Err: err}
	}
}

// waitForEvent delivers the next Manager event as a ProgressMsg.
func (m *Model) waitForEvent() tea.Cmd {
	events := m.events
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return EventsClosedMsg{}
		}
		return ProgressMsg{Event: e}
	}
}

// Run starts the TUI application.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
