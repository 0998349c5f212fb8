// Package statsui provides the Bubble Tea race-history interface.
package statsui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coderace-dev/coderace/internal/model"
	"github.com/coderace-dev/coderace/internal/stats"
	"github.com/coderace-dev/coderace/internal/store"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	sparkStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

type racesLoadedMsg struct {
	races []model.RaceAggregate
	err   error
}

// Model implements the Bubble Tea race-history UI.
type Model struct {
	store  *store.Store
	config model.StatsConfig

	width  int
	height int

	races []model.RaceAggregate
	table table.Model
	err   error
}

// NewModel constructs a race-history model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	columns := []table.Column{
		{Title: "Date", Width: 16},
		{Title: "Lang", Width: 10},
		{Title: "Mode", Width: 6},
		{Title: "WPM", Width: 5},
		{Title: "Acc", Width: 5},
		{Title: "Result", Width: 9},
	}
	t := table.New(table.WithColumns(columns), table.WithFocused(true), table.WithHeight(12))
	return &Model{store: st, config: cfg, table: t}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.loadRaces
}

func (m *Model) loadRaces() tea.Msg {
	races, err := m.store.ListRaces(context.Background(), m.config)
	return racesLoadedMsg{races: races, err: err}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case racesLoadedMsg:
		m.err = msg.err
		m.races = msg.races
		m.table.SetRows(raceRows(msg.races))
		if len(msg.races) > 0 {
			m.table.GotoBottom()
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("failed to load races: %v", m.err)) + "\n"
	}
	if len(m.races) == 0 {
		return headerStyle.Render("No races recorded yet. Finish a race first.") + "\n"
	}

	var b strings.Builder
	b.WriteString(m.renderCards())
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.renderCurve())
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("q quit · arrows scroll"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderCards() string {
	var totalWPM, totalAcc float64
	best := 0
	for _, r := range m.races {
		totalWPM += float64(r.WPM)
		totalAcc += float64(r.Accuracy)
		if r.WPM > best {
			best = r.WPM
		}
	}
	count := float64(len(m.races))
	cards := []string{
		renderCard("Races", fmt.Sprintf("%d", len(m.races))),
		renderCard("Avg WPM", fmt.Sprintf("%.1f", totalWPM/count)),
		renderCard("Best WPM", fmt.Sprintf("%d", best)),
		renderCard("Avg Acc", fmt.Sprintf("%.1f%%", totalAcc/count)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (m *Model) renderCurve() string {
	wpms := make([]float64, len(m.races))
	for i, r := range m.races {
		wpms[i] = float64(r.WPM)
	}
	window := m.config.CurveWindow
	if window <= 0 {
		window = 10
	}
	curve := stats.Sparkline(stats.MovingAverage(wpms, window))
	return headerStyle.Render("WPM trend ") + sparkStyle.Render(curve)
}

func renderCard(title, value string) string {
	content := cardTitleStyle.Render(title) + "\n" + cardValueStyle.Render(value)
	return cardStyle.Render(content)
}

func raceRows(races []model.RaceAggregate) []table.Row {
	rows := make([]table.Row, 0, len(races))
	for _, r := range races {
		result := "timeout"
		if r.Completed {
			result = "finished"
		}
		rows = append(rows, table.Row{
			r.EndedAt.Local().Format("2006-01-02 15:04"),
			r.Lang,
			string(r.Mode),
			fmt.Sprintf("%d", r.WPM),
			fmt.Sprintf("%d%%", r.Accuracy),
			result,
		})
	}
	return rows
}
