package tui

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/bubbles/v2/help"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/tix/internal/app"
	"github.com/hylla/tix/internal/domain"
)

var (
	accentColor = lipgloss.Color("62")
	mutedColor  = lipgloss.Color("241")
	dimColor    = lipgloss.Color("239")
	warnColor   = lipgloss.Color("203")
)

var statusColors = map[domain.Status]color.Color{
	domain.StatusOpen:       lipgloss.Color("214"),
	domain.StatusInProgress: lipgloss.Color("39"),
	domain.StatusResolved:   lipgloss.Color("42"),
	domain.StatusClosed:     lipgloss.Color("245"),
}

var priorityColors = map[domain.Priority]color.Color{
	domain.PriorityLow:    lipgloss.Color("245"),
	domain.PriorityMedium: lipgloss.Color("39"),
	domain.PriorityHigh:   lipgloss.Color("214"),
	domain.PriorityUrgent: lipgloss.Color("203"),
}

// View handles view.
func (m Model) View() tea.View {
	if !m.ready {
		v := tea.NewView("loading...")
		v.AltScreen = true
		return v
	}

	v := tea.NewView(m.renderScreen())
	v.AltScreen = true
	return v
}

// renderScreen renders the full frame including the help line.
func (m Model) renderScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dimColor)

	sections := []string{
		titleStyle.Render("tix") + "  " + m.renderCounts(),
		m.renderFilterBar(),
		"",
	}
	switch m.mode {
	case modeDetail:
		sections = append(sections, m.renderDetail())
	case modeEdit, modeCreate:
		sections = append(sections, m.renderForm())
	case modeConfirmDelete:
		sections = append(sections, m.renderConfirm())
	default:
		sections = append(sections, m.renderList())
	}
	if m.help.ShowAll {
		sections = append(sections, "", m.renderFullHelp())
	}
	sections = append(sections, "")
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	if m.storageErr != nil {
		warn := lipgloss.NewStyle().Foreground(warnColor)
		sections = append(sections, warn.Render("not saved: "+truncate(m.storageErr.Error(), max(16, m.width-14))))
	}
	content := strings.Join(sections, "\n")

	helpLine := m.renderHelpLine()
	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	return content + "\n" + helpLine
}

// renderCounts renders per-status counters over the unfiltered list.
func (m Model) renderCounts() string {
	counts := app.CountByStatus(m.tickets)
	parts := make([]string, 0, len(domain.Statuses()))
	for _, s := range domain.Statuses() {
		style := lipgloss.NewStyle().Foreground(statusColors[s])
		parts = append(parts, style.Render(fmt.Sprintf("%s %d", s.Label(), counts[s])))
	}
	return strings.Join(parts, lipgloss.NewStyle().Foreground(dimColor).Render(" · "))
}

func (m Model) renderFilterBar() string {
	muted := lipgloss.NewStyle().Foreground(mutedColor)
	search := m.filter.Search
	if m.mode == modeSearch {
		search = m.searchInput.View()
	} else if search == "" {
		search = "-"
	} else {
		search = fmt.Sprintf("%q", search)
	}
	return muted.Render("search: ") + search +
		muted.Render("  status: ") + m.filter.Status.Label() +
		muted.Render("  priority: ") + m.filter.Priority.Label()
}

func (m Model) renderList() string {
	visible := m.visibleTickets()
	heading := lipgloss.NewStyle().Bold(true).Foreground(accentColor).
		Render(fmt.Sprintf("Tickets (%d)", len(visible)))
	if len(visible) == 0 {
		hint := "Try adjusting your search or filters."
		if len(m.tickets) == 0 {
			hint = "Press n to create your first ticket."
		}
		muted := lipgloss.NewStyle().Foreground(mutedColor)
		return strings.Join([]string{heading, "", "No tickets found", muted.Render(hint)}, "\n")
	}

	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(mutedColor)
	rowWidth := max(20, m.width-6)
	linesPerRow := 2
	if m.showDescription {
		linesPerRow = 3
	}
	start, end := windowBounds(len(visible), m.selected, max(1, m.listHeight()/linesPerRow))

	lines := []string{heading}
	for idx := start; idx < end; idx++ {
		t := visible[idx]
		prefix := "  "
		title := truncate(t.Title, rowWidth)
		if idx == m.selected {
			prefix = "│ "
			title = selectedStyle.Render(title)
		}
		lines = append(lines, prefix+title)
		lines = append(lines, prefix+subStyle.Render(truncate(m.rowMeta(t), rowWidth)))
		if m.showDescription && t.Description != "" {
			lines = append(lines, prefix+subStyle.Render(truncate(firstLine(t.Description), rowWidth)))
		}
	}
	if end < len(visible) {
		lines = append(lines, subStyle.Render(fmt.Sprintf("  … %d more", len(visible)-end)))
	}
	return strings.Join(lines, "\n")
}

// rowMeta renders the secondary line of one list row.
func (m Model) rowMeta(t domain.Ticket) string {
	parts := []string{
		"[" + t.Priority.Label() + "]",
		t.Status.Label(),
		t.CreatedAt.Local().Format("2006-01-02"),
	}
	if t.Assignee != "" {
		parts = append(parts, "@"+t.Assignee)
	}
	if t.Reporter != "" {
		parts = append(parts, "by "+t.Reporter)
	}
	return strings.Join(parts, " · ")
}

func (m Model) renderDetail() string {
	t, ok := m.ticketByID(m.detailID)
	if !ok {
		return "ticket not found"
	}
	label := lipgloss.NewStyle().Foreground(mutedColor).Width(12)
	title := lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(t.Title)
	statusStyle := lipgloss.NewStyle().Foreground(statusColors[t.Status])
	priorityStyle := lipgloss.NewStyle().Foreground(priorityColors[t.Priority])

	assignee := t.Assignee
	if assignee == "" {
		assignee = "Unassigned"
	}
	lines := []string{
		title,
		"",
		label.Render("Status") + statusStyle.Render(t.Status.Label()),
		label.Render("Priority") + priorityStyle.Render(t.Priority.Label()),
		label.Render("Assignee") + assignee,
		label.Render("Reporter") + t.Reporter,
		label.Render("Created") + t.CreatedAt.Local().Format("2006-01-02 15:04"),
		label.Render("Updated") + t.UpdatedAt.Local().Format("2006-01-02 15:04"),
		label.Render("ID") + t.ID,
		"",
	}
	desc := t.Description
	switch {
	case strings.TrimSpace(desc) == "":
		desc = lipgloss.NewStyle().Foreground(mutedColor).Render("No description.")
	case m.renderMarkdown:
		desc = m.markdown.render(desc, max(24, m.width-4))
	}
	lines = append(lines, desc)
	return strings.Join(lines, "\n")
}

func (m Model) renderForm() string {
	heading := "New Ticket"
	if m.mode == modeEdit {
		heading = "Edit Ticket"
	}
	label := lipgloss.NewStyle().Foreground(mutedColor).Width(14)
	focused := lipgloss.NewStyle().Foreground(accentColor).Bold(true).Width(14)
	lines := []string{lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render(heading), ""}
	for idx := 0; idx < fieldCount; idx++ {
		name := fieldLabels[idx]
		if idx == fieldReporter && m.form.editing() {
			name += " (ro)"
		}
		style := label
		if idx == m.form.focus {
			style = focused
		}
		lines = append(lines, style.Render(name)+m.form.fieldValue(idx))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderConfirm() string {
	t, _ := m.ticketByID(m.confirmID)
	warn := lipgloss.NewStyle().Bold(true).Foreground(warnColor)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(warnColor).
		Padding(0, 2).
		Render(warn.Render("Delete this ticket? y/n") + "\n" + truncate(t.Title, max(16, m.width-12)))
}

func (m Model) renderHelpLine() string {
	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	var keys help.KeyMap = m.keys
	if m.mode == modeEdit || m.mode == modeCreate {
		keys = m.formKeys
	}
	return lipgloss.NewStyle().
		Foreground(mutedColor).
		BorderTop(true).
		BorderForeground(dimColor).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(keys))
}

func (m Model) renderFullHelp() string {
	helpBubble := m.help
	helpBubble.ShowAll = true
	helpBubble.SetWidth(max(0, m.width-2))
	return helpBubble.View(m.keys)
}

// listHeight is the number of lines available to list rows.
func (m Model) listHeight() int {
	if m.height <= 0 {
		return 30
	}
	return max(3, m.height-10)
}

// windowBounds returns an inclusive-exclusive list window that keeps selected visible.
func windowBounds(total, selected, windowSize int) (int, int) {
	if total <= 0 || windowSize <= 0 {
		return 0, 0
	}
	if total <= windowSize {
		return 0, total
	}
	selected = clamp(selected, 0, total-1)
	start := max(0, selected-windowSize/2)
	end := start + windowSize
	if end > total {
		end = total
		start = max(0, end-windowSize)
	}
	return start, end
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		lines = append(lines, make([]string, maxLines-len(lines))...)
	}
	return strings.Join(lines, "\n")
}

// truncate truncates the requested operation.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit == 1 {
		return string(rs[:1])
	}
	return string(rs[:limit-1]) + "…"
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
