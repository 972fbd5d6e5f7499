// Package tui is the terminal front end. It drives the tracker's consumer
// ticks from its own frame loop and renders the folder listing and log.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/foldermon/foldermon/internal/tracker"
)

// DefaultInterval is the consumer tick period.
const DefaultInterval = 100 * time.Millisecond

// Controller is the tracker surface the UI drives. Tick and Retarget are
// only called from the bubbletea update loop, which makes it the consumer.
type Controller interface {
	Tick()
	Snapshot() tracker.Snapshot
	NotifyEnabled() bool
	SetNotifyEnabled(enabled bool)
	Retarget(folder string) error
}

type tickMsg time.Time

// Options configures the UI.
type Options struct {
	Title    string
	Interval time.Duration
	// Watching describes the watch, e.g. "watching /data (inotify)", or why it is off.
	Watching string
	ShowLog  bool
}

// Model is the bubbletea model.
type Model struct {
	ctrl     Controller
	interval time.Duration
	title    string
	watching string

	snap     tracker.Snapshot
	folder   textinput.Model
	files    viewport.Model
	log      viewport.Model
	help     help.Model
	keys     keyMap
	editing  bool
	showLog  bool
	flash    string
	flashErr bool
	logLen   int

	width  int
	height int
}

// New creates the UI model.
func New(ctrl Controller, opts Options) Model {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Title == "" {
		opts.Title = "File Monitor"
	}

	snap := ctrl.Snapshot()

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = "folder path"
	in.CharLimit = 4096
	in.Width = 48
	in.SetValue(snap.Folder)

	m := Model{
		ctrl:     ctrl,
		interval: opts.Interval,
		title:    opts.Title,
		watching: opts.Watching,
		snap:     snap,
		folder:   in,
		files:    viewport.New(60, 8),
		log:      viewport.New(60, 6),
		help:     help.New(),
		keys:     defaultKeyMap(),
		showLog:  opts.ShowLog,
		width:    64,
	}
	m.refresh()
	return m
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.ctrl.Tick()
		m.snap = m.ctrl.Snapshot()
		m.refresh()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)
	}

	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Apply):
		path := strings.TrimSpace(m.folder.Value())
		if err := m.ctrl.Retarget(path); err != nil {
			m.setFlash(err.Error(), true)
			return m, nil
		}
		m.editing = false
		m.folder.Blur()
		m.setFlash("", false)
		// The UI is the consumer, so the retarget can be applied right away.
		m.ctrl.Tick()
		m.snap = m.ctrl.Snapshot()
		m.folder.SetValue(m.snap.Folder)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.editing = false
		m.folder.Blur()
		m.folder.SetValue(m.snap.Folder)
		m.setFlash("", false)
		return m, nil

	case msg.String() == "ctrl+c":
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.folder, cmd = m.folder.Update(msg)
	return m, cmd
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Notify):
		m.ctrl.SetNotifyEnabled(!m.ctrl.NotifyEnabled())
		return m, nil

	case key.Matches(msg, m.keys.Log):
		m.showLog = !m.showLog
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.Folder):
		m.editing = true
		m.folder.CursorEnd()
		return m, m.folder.Focus()

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		if m.showLog {
			m.log, cmd = m.log.Update(msg)
		} else {
			m.files, cmd = m.files.Update(msg)
		}
		return m, cmd
	}

	return m, nil
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
}

// resize splits the height between the listing and the log.
func (m *Model) resize() {
	width := max(m.width-4, 20)
	m.files.Width = width
	m.log.Width = width
	m.folder.Width = max(width-14, 10)

	if m.height == 0 {
		return
	}
	// Title, folder line, toggles, help, borders and labels.
	avail := max(m.height-14, 4)
	if m.showLog {
		m.files.Height = max(avail/2, 2)
		m.log.Height = max(avail-m.files.Height, 2)
	} else {
		m.files.Height = avail
	}
}

// refresh renders the snapshot into the viewports.
func (m *Model) refresh() {
	var b strings.Builder
	if len(m.snap.Files) == 0 {
		b.WriteString(mutedStyle.Render("(empty)"))
	}
	for i, f := range m.snap.Files {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(kindStyle(f.Kind).Render(f.Name))
	}
	m.files.SetContent(b.String())

	if len(m.snap.Log) == m.logLen {
		return
	}
	atBottom := m.log.AtBottom() || m.logLen == 0
	b.Reset()
	for i, e := range m.snap.Log {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(severityStyle(e.Severity).Render(e.Message))
	}
	m.log.SetContent(b.String())
	m.logLen = len(m.snap.Log)
	if atBottom {
		m.log.GotoBottom()
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteByte('\n')

	folder := m.folder.View()
	if !m.editing {
		folder = m.snap.Folder
	}
	b.WriteString(labelStyle.Render("Folder path: ") + folder + "\n")
	if m.watching != "" {
		b.WriteString(mutedStyle.Render(m.watching) + "\n")
	}
	if m.flash != "" {
		style := mutedStyle
		if m.flashErr {
			style = errorStyle
		}
		b.WriteString(style.Render(m.flash) + "\n")
	}
	b.WriteByte('\n')

	b.WriteString(labelStyle.Render("Folder contents:") + "\n")
	b.WriteString(boxStyle.Render(m.files.View()) + "\n")

	b.WriteString(fmt.Sprintf("%s Email Notify   %s Show Log\n",
		checkbox(m.ctrl.NotifyEnabled()), checkbox(m.showLog)))

	if m.showLog {
		b.WriteString(labelStyle.Render("Log:") + "\n")
		b.WriteString(boxStyle.Render(m.log.View()) + "\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// Run starts a full-screen program and blocks until the user quits or ctx ends.
func Run(ctx context.Context, ctrl Controller, opts Options) error {
	p := tea.NewProgram(New(ctrl, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
