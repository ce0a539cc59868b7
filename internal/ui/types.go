package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"mrfix/internal/gitlab"
	"mrfix/internal/report"
	"mrfix/internal/resolve"
)

// Stage is which screen the fix UI shows.
type Stage int

const (
	InputStage Stage = iota
	AnalyzingStage
	ReadyStage
	ConfirmStage
	FixingStage
	DoneStage
)

type logLineMsg struct {
	level resolve.Level
	text  string
}

type progressMsg string

type analyzeDoneMsg struct {
	mr  *gitlab.MergeRequest
	err error
}

type fixDoneMsg struct {
	result report.ResultCode
}

// programSink forwards session output from the worker goroutine into the
// update loop.
type programSink struct {
	events chan tea.Msg
}

func (s programSink) Log(level resolve.Level, msg string) {
	s.events <- logLineMsg{level: level, text: msg}
}

func (s programSink) Progress(msg string) {
	s.events <- progressMsg(msg)
}

func waitForEvent(events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}
