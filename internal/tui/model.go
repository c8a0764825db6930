// Package tui renders the browser and translates terminal input into
// navigation intents. All counting happens elsewhere; the model only drains
// finished results on a timer tick.
package tui

import (
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tallycount/tally/internal/browser"
	"github.com/tallycount/tally/internal/census"
)

// tickInterval bounds how long a finished count can sit in the result
// channel before the listing picks it up.
const tickInterval = 100 * time.Millisecond

// tableTop is the number of view lines above the first listing row. The
// mouse hit-test depends on it matching View exactly.
const tableTop = 4

var countingFrames = []string{"   ", ".  ", ".. ", "..."}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea program state around the navigation engine.
type Model struct {
	engine *browser.Engine
	pool   *census.Pool
	spin   spinner.Model
	log    *slog.Logger

	width  int
	height int
	offset int
}

// New wires a model around an engine and the pool whose results it drains.
func New(engine *browser.Engine, pool *census.Pool, log *slog.Logger) Model {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Spinner{
		Frames: countingFrames,
		FPS:    time.Second / 10,
	}))
	return Model{
		engine: engine,
		pool:   pool,
		spin:   sp,
		log:    log,
		width:  80,
		height: 24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spin.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampOffset()
		return m, nil
	case tickMsg:
		if m.drainResults() {
			m.engine.Resort()
		}
		if m.engine.ProcessPending() {
			m.offset = 0
			m.log.Debug("entered directory", "path", m.engine.CurrentDir())
		}
		m.clampOffset()
		return m, tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.engine.Retreat()
		m.clampOffset()
	case key.Matches(msg, keys.Down):
		m.engine.Advance()
		m.clampOffset()
	case key.Matches(msg, keys.Enter):
		m.engine.QueueEnter(m.engine.Selected())
	case key.Matches(msg, keys.Home):
		m.engine.GoHome()
		m.offset = 0
		m.clampOffset()
	}
	return m, nil
}

// updateMouse maps a left click onto the listing row under the cursor and
// queues an enter intent for it, mirroring what the Enter key does.
func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	row := msg.Y - tableTop
	if row < 0 || row >= m.visibleRows() {
		return m, nil
	}
	index := m.offset + row
	if index >= len(m.engine.Entries()) {
		return m, nil
	}
	m.engine.Select(index)
	m.engine.QueueEnter(index)
	return m, nil
}

// drainResults empties the result channel without blocking and merges every
// message. Results for paths no longer on screen still warmed the cache and
// are simply dropped by MergeCount.
func (m *Model) drainResults() bool {
	changed := false
	for {
		select {
		case r := <-m.pool.Results():
			if m.engine.MergeCount(r.Path, r.Count) {
				changed = true
			}
		default:
			return changed
		}
	}
}

// visibleRows is how many listing rows fit between the header and footer.
func (m Model) visibleRows() int {
	rows := m.height - tableTop - 2
	if rows < 1 {
		rows = 1
	}
	return rows
}

// clampOffset keeps the selection inside the visible window.
func (m *Model) clampOffset() {
	total := len(m.engine.Entries())
	rows := m.visibleRows()
	maxOffset := total - rows
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
	selected := m.engine.Selected()
	if selected < m.offset {
		m.offset = selected
	}
	if selected >= m.offset+rows {
		m.offset = selected - rows + 1
	}
}
