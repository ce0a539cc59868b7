package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"mrfix/internal/config"
	"mrfix/internal/fixer"
	"mrfix/internal/gitlab"
	"mrfix/internal/report"
	"mrfix/internal/resolve"
)

type FixModel struct {
	cfg *config.Config

	stage    Stage
	mrInput  textinput.Model
	viewport viewport.Model

	session  *fixer.Session
	mr       *gitlab.MergeRequest
	ref      string
	events   chan tea.Msg
	lines    []string
	progress string
	message  string
	result   report.ResultCode
	width    int
	height   int
	quitting bool

	// Styles
	titleStyle   lipgloss.Style
	panelStyle   lipgloss.Style
	headerStyle  lipgloss.Style
	helpStyle    lipgloss.Style
	messageStyle lipgloss.Style

	// Log severity styles
	debugStyle   lipgloss.Style
	infoStyle    lipgloss.Style
	warnStyle    lipgloss.Style
	errorStyle   lipgloss.Style
	successStyle lipgloss.Style
}

func NewFixModel(cfg *config.Config) FixModel {
	ti := textinput.New()
	ti.Placeholder = "MR URL or number..."
	ti.CharLimit = 200
	ti.Width = 50
	ti.Focus()

	vp := viewport.New(0, 0)

	return FixModel{
		cfg:      cfg,
		stage:    InputStage,
		mrInput:  ti,
		viewport: vp,
		events:   make(chan tea.Msg, 64),

		titleStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),

		panelStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1),

		headerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true),

		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),

		messageStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")).
			Bold(true),

		debugStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")),

		infoStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),

		warnStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")),

		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),

		successStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true),
	}
}

func (m FixModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForEvent(m.events))
}

func (m FixModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = msg.Height - 10
		m.refreshLog()

	case tea.KeyMsg:
		if m.quitting {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case logLineMsg:
		m.lines = append(m.lines, m.renderLogLine(msg.level, msg.text))
		m.refreshLog()
		return m, waitForEvent(m.events)

	case progressMsg:
		m.progress = string(msg)
		return m, waitForEvent(m.events)

	case analyzeDoneMsg:
		if msg.err != nil {
			m.stage = InputStage
			m.message = fmt.Sprintf("Analysis failed: %v", msg.err)
			m.mrInput.Focus()
			return m, textinput.Blink
		}
		m.mr = msg.mr
		m.stage = ReadyStage
		m.message = ""
		m.progress = ""
		return m, nil

	case fixDoneMsg:
		m.stage = DoneStage
		m.result = msg.result
		m.progress = ""
		return m, nil
	}

	if m.stage == InputStage {
		m.mrInput, cmd = m.mrInput.Update(msg)
		return m, cmd
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m FixModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// Scrolling works on every screen that shows the log.
	if m.stage != InputStage {
		switch msg.String() {
		case "j", "down":
			m.viewport.LineDown(1)
			return m, nil
		case "k", "up":
			m.viewport.LineUp(1)
			return m, nil
		case "g":
			m.viewport.GotoTop()
			return m, nil
		case "G":
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	switch m.stage {
	case InputStage:
		if msg.String() == "enter" {
			ref := strings.TrimSpace(m.mrInput.Value())
			if ref == "" {
				return m, nil
			}
			return m.startAnalyze(ref)
		}
		m.mrInput, cmd = m.mrInput.Update(msg)
		return m, cmd

	case AnalyzingStage:
		switch msg.String() {
		case "enter", "f":
			m.message = "Already processing. Please wait..."
		}

	case ReadyStage:
		switch msg.String() {
		case "f":
			// Fixing is offered only when the analysis found conflicts.
			if m.mr != nil && m.mr.HasMergeConflicts() {
				m.stage = ConfirmStage
				m.message = ""
			} else {
				m.message = "No conflicts to fix."
			}
		case "esc":
			return m.reset(), textinput.Blink
		case "q":
			m.quitting = true
			return m, tea.Quit
		}

	case ConfirmStage:
		switch msg.String() {
		case "y", "enter":
			return m.startFix()
		case "n", "esc":
			m.stage = ReadyStage
		}

	case FixingStage:
		switch msg.String() {
		case "c":
			if m.session != nil {
				m.session.Cancel()
				m.message = "Cancellation requested..."
			}
		case "enter", "f":
			m.message = "Already processing. Please wait..."
		}

	case DoneStage:
		switch msg.String() {
		case "r":
			return m.reset(), textinput.Blink
		case "q":
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m FixModel) startAnalyze(ref string) (tea.Model, tea.Cmd) {
	m.ref = ref
	m.session = fixer.New(m.cfg, programSink{events: m.events})
	m.stage = AnalyzingStage
	m.message = ""
	m.progress = "Analyzing MR..."
	m.lines = nil
	m.refreshLog()
	m.mrInput.Blur()
	return m, m.runAnalyze
}

func (m FixModel) runAnalyze() tea.Msg {
	mr, err := m.session.Analyze(context.Background(), m.ref)
	return analyzeDoneMsg{mr: mr, err: err}
}

func (m FixModel) startFix() (tea.Model, tea.Cmd) {
	m.stage = FixingStage
	m.message = ""
	if m.mr != nil {
		m.progress = fmt.Sprintf("Resolving conflicts in MR !%d...", m.mr.IID)
	}
	return m, m.runFix
}

func (m FixModel) runFix() tea.Msg {
	m.session.Finish(context.Background())
	return fixDoneMsg{result: m.session.Report().Result()}
}

func (m FixModel) reset() FixModel {
	m.stage = InputStage
	m.session = nil
	m.mr = nil
	m.ref = ""
	m.lines = nil
	m.progress = ""
	m.message = ""
	m.result = ""
	m.mrInput.SetValue("")
	m.mrInput.Focus()
	m.viewport.SetContent("")
	return m
}

func (m *FixModel) refreshLog() {
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m FixModel) renderLogLine(level resolve.Level, text string) string {
	switch level {
	case resolve.LevelDebug:
		return m.debugStyle.Render(text)
	case resolve.LevelWarn:
		return m.warnStyle.Render("⚠ " + text)
	case resolve.LevelError:
		return m.errorStyle.Render("✗ " + text)
	default:
		return m.infoStyle.Render(text)
	}
}

func (m FixModel) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	var sections []string

	sections = append(sections, m.renderHeader())

	switch m.stage {
	case InputStage:
		sections = append(sections, m.renderInputView())
	case ConfirmStage:
		sections = append(sections, m.renderConfirmView())
	default:
		sections = append(sections, m.renderRunView())
	}

	sections = append(sections, m.renderHelp())

	if m.message != "" {
		sections = append(sections, m.messageStyle.Render(m.message))
	}

	return strings.Join(sections, "\n")
}

func (m FixModel) renderHeader() string {
	title := m.titleStyle.Render("GitLab MR Conflict Resolver")
	project := m.headerStyle.Render(fmt.Sprintf("Project: %s", m.cfg.ProjectID))

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(project)
	if gap < 0 {
		gap = 0
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, title, strings.Repeat(" ", gap), project)
}

func (m FixModel) renderInputView() string {
	var content strings.Builder

	content.WriteString(m.headerStyle.Render("Merge request URL or number:") + "\n")
	content.WriteString(m.mrInput.View() + "\n\n")
	content.WriteString(m.helpStyle.Render(fmt.Sprintf("Connected to: %s", m.cfg.GitLabURL)) + "\n")
	content.WriteString(m.helpStyle.Render(fmt.Sprintf("Strategy: %s", m.cfg.Resolution.Strategy)))

	return m.panelStyle.Render(content.String())
}

func (m FixModel) renderRunView() string {
	var sections []string

	if m.mr != nil {
		info := fmt.Sprintf("MR !%d: %s  (%s -> %s)",
			m.mr.IID, m.mr.Title, m.mr.SourceBranch, m.mr.TargetBranch)
		sections = append(sections, m.headerStyle.Render(info))
	}

	sections = append(sections, m.panelStyle.Render(m.viewport.View()))

	switch m.stage {
	case AnalyzingStage, FixingStage:
		if m.progress != "" {
			sections = append(sections, m.messageStyle.Render(m.progress+" ⏳"))
		}
	case ReadyStage:
		if m.mr != nil && m.mr.HasMergeConflicts() {
			sections = append(sections, m.warnStyle.Render("⚠ Conflicts detected - ready to fix"))
		} else {
			sections = append(sections, m.successStyle.Render("✓ No conflicts found - this MR is ready to merge"))
		}
	case DoneStage:
		sections = append(sections, m.renderResult())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m FixModel) renderResult() string {
	switch m.result {
	case report.ResultSuccess, report.ResultRebaseSuccess:
		return m.successStyle.Render(fmt.Sprintf("✓ %s - MR is ready to merge", m.result))
	case report.ResultCancelled:
		return m.warnStyle.Render("✖ Cancelled")
	default:
		return m.errorStyle.Render(fmt.Sprintf("✗ %s - manual resolution required", m.result))
	}
}

func (m FixModel) renderConfirmView() string {
	var content strings.Builder

	content.WriteString(m.titleStyle.Render("Confirm Automatic Resolution") + "\n\n")
	content.WriteString(fmt.Sprintf("This will resolve conflicts using the '%s' strategy.\n\n", m.cfg.Resolution.Strategy))
	content.WriteString("The tool will:\n")
	content.WriteString(fmt.Sprintf("  • Keep the %s version of conflicted files\n", strategySide(m.cfg.Resolution.Strategy)))
	content.WriteString("  • Handle multiple rounds of conflicts\n")
	if m.mr != nil {
		content.WriteString(fmt.Sprintf("  • Force push %s\n", m.mr.SourceBranch))
	} else {
		content.WriteString("  • Force push the resolved branch\n")
	}
	content.WriteString("  • Post an update to the MR\n")

	return m.panelStyle.Render(content.String())
}

func (m FixModel) renderHelp() string {
	switch m.stage {
	case InputStage:
		return m.helpStyle.Render("enter: analyze | ctrl+c: quit")
	case AnalyzingStage:
		return m.helpStyle.Render("j/k: scroll | ctrl+c: quit")
	case ReadyStage:
		if m.mr != nil && m.mr.HasMergeConflicts() {
			return m.helpStyle.Render("f: fix conflicts | j/k: scroll | esc: new MR | q: quit")
		}
		return m.helpStyle.Render("j/k: scroll | esc: new MR | q: quit")
	case ConfirmStage:
		return m.helpStyle.Render("y: proceed | n: back")
	case FixingStage:
		return m.helpStyle.Render("c: cancel | j/k: scroll | ctrl+c: quit")
	case DoneStage:
		return m.helpStyle.Render("r: another MR | j/k: scroll | q: quit")
	}
	return ""
}

// strategySide names the branch a strategy keeps during a rebase.
func strategySide(strategy string) string {
	if strategy == "ours" {
		return "target branch"
	}
	return "source branch"
}

// StartFixTUI runs the interactive resolver against the given config.
func StartFixTUI(cfg *config.Config) error {
	m := NewFixModel(cfg)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
