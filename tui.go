package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"clipmagic/dispatch"
	"clipmagic/log"
	"clipmagic/tray"
)

// TUI message types
type SlotsMsg struct{ Slots []tray.Slot }
type OutcomeMsg struct {
	Outcome dispatch.Outcome
	At      time.Time
}
type LogMsg struct{ Text string }

const maxHistory = 8

type outcomeEntry struct {
	at   time.Time
	line string
	ok   bool
}

type tuiModel struct {
	slots         []tray.Slot
	history       []outcomeEntry // newest first
	count         int
	failures      int
	logLine       string
	width, height int
	reload        func()
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
	tuiExit    = make(chan struct{})
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	comboStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	helpKeyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
)

func newTUIModel(slots []tray.Slot, reload func()) tuiModel {
	return tuiModel{slots: slots, reload: reload}
}

// startTUI runs the status view until the user quits it.
func startTUI(slots []tray.Slot, reload func()) {
	p := tea.NewProgram(newTUIModel(slots, reload), tea.WithAltScreen())
	tuiMu.Lock()
	tuiProgram = p
	tuiMu.Unlock()
	go func() {
		defer close(tuiExit)
		if _, err := p.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
		}
	}()
}

// tuiDone is closed when the status view exits. It never closes when no
// view was started.
func tuiDone() <-chan struct{} {
	tuiMu.Lock()
	defer tuiMu.Unlock()
	if tuiProgram == nil {
		return nil
	}
	return tuiExit
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func tuiLog(format string, args ...any) {
	tuiSend(LogMsg{Text: fmt.Sprintf(format, args...)})
}

func tuiReport(o dispatch.Outcome) {
	tuiSend(OutcomeMsg{Outcome: o, At: time.Now()})
}

func tuiQuit() {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			if m.reload != nil {
				reload := m.reload
				m.logLine = "reloading…"
				return m, func() tea.Msg {
					reload()
					return nil
				}
			}
		}

	case SlotsMsg:
		m.slots = msg.Slots

	case OutcomeMsg:
		m.count++
		e := outcomeEntry{at: msg.At, line: outcomeLine(msg.Outcome), ok: msg.Outcome.OK()}
		if !e.ok {
			m.failures++
		}
		m.history = append([]outcomeEntry{e}, m.history...)
		if len(m.history) > maxHistory {
			m.history = m.history[:maxHistory]
		}

	case LogMsg:
		m.logLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("clipmagic "+version) + "\n\n")

	textWidth := m.width - 30
	if textWidth < 10 {
		textWidth = 40
	}
	for _, s := range m.slots {
		combo := s.Combination
		if combo == "" {
			combo = "unbound"
		}
		text := strings.ReplaceAll(s.Text, "\n", "⏎")
		if r := []rune(text); len(r) > textWidth {
			text = string(r[:textWidth-1]) + "…"
		}
		line := fmt.Sprintf("%d  %s  %s", s.Index+1,
			comboStyle.Render(fmt.Sprintf("%-22s", combo)),
			textStyle.Render(text))
		if text == "" {
			line = fmt.Sprintf("%d  %s  %s", s.Index+1,
				comboStyle.Render(fmt.Sprintf("%-22s", combo)),
				dimStyle.Render("(empty)"))
		}
		if s.Clipboard {
			line += okStyle.Render("  [clipboard]")
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d actions, %d failed", m.count, m.failures)) + "\n")
	if len(m.history) == 0 {
		b.WriteString(dimStyle.Render("No actions yet") + "\n")
	}
	for _, e := range m.history {
		style := okStyle
		if !e.ok {
			style = failStyle
		}
		b.WriteString(dimStyle.Render(e.at.Format("15:04:05")) + " " + style.Render(e.line) + "\n")
	}

	if m.logLine != "" {
		b.WriteString("\n" + dimStyle.Render(m.logLine) + "\n")
	}
	b.WriteString("\n" + helpKeyStyle.Render("r") + helpStyle.Render(" reload  ") +
		helpKeyStyle.Render("q") + helpStyle.Render(" quit") + "\n")
	return b.String()
}
