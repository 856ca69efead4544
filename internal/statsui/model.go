// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/kioku/internal/stats"
)

const (
	tabOverview = iota
	tabDaily
	tabCategories
)

// DefaultWindow is the moving-average window of the accuracy chart.
const DefaultWindow = 7

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	report stats.Report
	window int

	tabs      []string
	activeTab int
	viewports []viewport.Model
	catTable  table.Model

	width  int
	height int
}

// NewModel constructs a stats UI model over a prepared report.
func NewModel(report stats.Report, window int) *Model {
	if window < 1 {
		window = DefaultWindow
	}
	m := &Model{
		report: report,
		window: window,
		tabs:   []string{"Overview", "Daily", "Categories"},
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.catTable = buildCategoryTable(report.Categories, report.Threshold)
	m.renderTabContents()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.window = nextWindow(m.window)
			m.renderTabContents()
			return m, nil
		case "-":
			m.window = prevWindow(m.window)
			m.renderTabContents()
			return m, nil
		case "g", "home":
			if m.activeTab == tabCategories {
				m.catTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabCategories {
				m.catTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		}
		if m.activeTab == tabCategories {
			var cmd tea.Cmd
			m.catTable, cmd = m.catTable.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.catTable.SetWidth(m.width)
	m.catTable.SetHeight(max(bodyHeight-1, 1))
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	m.activeTab = (m.activeTab + delta + count) % count
	if m.activeTab == tabCategories {
		m.catTable.Focus()
	} else {
		m.catTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	summary := fmt.Sprintf("Range: %d days  window=%d  mastered at score >= %g", len(m.report.Days), m.window, m.report.Threshold)
	return tabs + "\n" + headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	return headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Quit: q")
}

func (m *Model) renderBody() string {
	if m.activeTab == tabCategories {
		if len(m.report.Categories) == 0 {
			return "No category stats."
		}
		return tableMutedStyle.Render(m.catTable.View())
	}
	return m.viewports[m.activeTab].View()
}

func (m *Model) renderTabContents() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.report, m.window, width))
	m.viewports[tabDaily].SetContent(renderDaily(m.report.Days))
}

func renderOverview(r stats.Report, window, width int) string {
	if r.Active == 0 && r.Deleted == 0 && r.Totals.Total == 0 {
		return "No problems yet."
	}
	cards := []string{
		metricCard("Problems", fmt.Sprintf("%d", r.Active)),
		metricCard("Deleted", fmt.Sprintf("%d", r.Deleted)),
		metricCard("Answers", fmt.Sprintf("%d", r.Totals.Total)),
		metricCard("Accuracy", fmt.Sprintf("%.1f%%", r.Totals.Accuracy()*100)),
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}

	var lines []string
	if busiest := stats.TopCategories(r.Categories, 3); len(busiest) > 0 {
		lines = append(lines, "Most practiced: "+strings.Join(busiest, ", "))
	}
	if weak := stats.WeakCategories(r.Categories, 3); len(weak) > 0 {
		lines = append(lines, "Weakest: "+strings.Join(weak, ", "))
	}

	var buf bytes.Buffer
	if err := stats.RenderAccuracyChart(&buf, r.Days, window, width); err != nil {
		lines = append(lines, fmt.Sprintf("Failed to render chart: %v", err))
	}
	out := summary
	if len(lines) > 0 {
		out += "\n" + strings.Join(lines, "\n")
	}
	if chart := strings.TrimRight(buf.String(), "\n"); chart != "" {
		out += "\n\n" + chart
	}
	return out
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

// renderDaily lists the newest day first.
func renderDaily(days []stats.DailyRow) string {
	rows := make([]stats.DailyRow, len(days))
	for i, d := range days {
		rows[len(days)-1-i] = d
	}
	var buf bytes.Buffer
	if err := stats.RenderDaily(&buf, rows); err != nil {
		return fmt.Sprintf("Failed to render daily stats: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func buildCategoryTable(rows []stats.CategoryRow, threshold float64) table.Model {
	columns := []table.Column{
		{Title: "Category", Width: 20},
		{Title: "Correct", Width: 9},
		{Title: "Total", Width: 7},
		{Title: "Accuracy", Width: 9},
		{Title: fmt.Sprintf("Mastered (>=%g)", threshold), Width: 16},
	}
	tableRows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		acc := "-"
		if r.Total > 0 {
			acc = fmt.Sprintf("%.1f%%", r.Accuracy()*100)
		}
		tableRows = append(tableRows, table.Row{
			r.Label,
			fmt.Sprintf("%d", r.Correct),
			fmt.Sprintf("%d", r.Total),
			acc,
			fmt.Sprintf("%d / %d", r.Mastered, r.Problems),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithHeight(10),
	)
	t.SetStyles(categoryTableStyles())
	return t
}

func categoryTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func nextWindow(n int) int {
	if n < 5 {
		return 5
	}
	return (n/5 + 1) * 5
}

func prevWindow(n int) int {
	if n <= 5 {
		return 1
	}
	if n%5 == 0 {
		return n - 5
	}
	return (n / 5) * 5
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
