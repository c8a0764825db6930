package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/tallycount/tally/internal/browser"
)

const (
	typeWidth  = 4
	countWidth = 8
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	pathStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	dirStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	fileStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	parentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// View lays out four header lines, the visible slice of the listing and one
// footer line. tableTop in model.go counts the header lines; keep them in
// sync.
func (m Model) View() string {
	var b strings.Builder

	fmt.Fprintln(&b, titleStyle.Render("Current Directory"))
	fmt.Fprintln(&b, pathStyle.Render(truncate(m.headerLine(), m.width)))
	fmt.Fprintln(&b)

	nameWidth := m.nameWidth()
	fmt.Fprintln(&b, headerStyle.Render(fmt.Sprintf("   %-*s %-*s %*s",
		typeWidth, "Type", nameWidth, "Name", countWidth, "Count")))

	entries := m.engine.Entries()
	if len(entries) == 0 {
		fmt.Fprintln(&b, fileStyle.Render("   (empty directory)"))
	}

	start := m.offset
	if start > len(entries) {
		start = len(entries)
	}
	end := start + m.visibleRows()
	if end > len(entries) {
		end = len(entries)
	}
	for idx := start; idx < end; idx++ {
		fmt.Fprintln(&b, m.renderRow(entries[idx], idx == m.engine.Selected(), nameWidth))
	}

	fmt.Fprintln(&b)
	b.WriteString(footerStyle.Render("q - Quit  |  ↑/↓/k/j - Move  |  Enter - Open  |  h - Home"))
	return b.String()
}

// headerLine is the current directory plus its total, or a counting
// indicator while the census is still running.
func (m Model) headerLine() string {
	if count := m.engine.CurrentCount(); count >= 0 {
		return fmt.Sprintf("%s (Total files: %s)", m.engine.CurrentDir(), formatCount(count))
	}
	return fmt.Sprintf("%s (Counting files%s)", m.engine.CurrentDir(), m.spin.View())
}

func (m Model) renderRow(entry browser.Entry, selected bool, nameWidth int) string {
	typeCell := "File"
	if entry.IsDir {
		typeCell = "Dir"
	}

	countCell := "-"
	if entry.IsDir {
		if entry.Count >= 0 {
			countCell = formatCount(entry.Count)
		} else {
			countCell = m.spin.View()
		}
	}

	name := runewidth.FillRight(truncate(entry.Name, nameWidth), nameWidth)
	row := fmt.Sprintf("%-*s %s %*s", typeWidth, typeCell, name, countWidth, countCell)

	if selected {
		return selectedStyle.Render(">> " + row)
	}
	switch {
	case entry.Name == browser.ParentLabel:
		return "   " + parentStyle.Render(row)
	case entry.IsDir:
		return "   " + dirStyle.Render(row)
	default:
		return "   " + fileStyle.Render(row)
	}
}

// nameWidth gives the name column whatever is left of the terminal width.
func (m Model) nameWidth() int {
	w := m.width - typeWidth - countWidth - 6
	if w < 12 {
		w = 12
	}
	return w
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

func formatCount(n int64) string {
	return fmt.Sprintf("%d", n)
}
