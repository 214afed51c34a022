package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ikk-contest/backend/moderation"
	"github.com/ikk-contest/backend/subm"
	"github.com/ikk-contest/backend/subm/submexport"
	"github.com/ikk-contest/backend/subm/submsrvc"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3498db"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7f8c8d"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#95a5a6"))
	boxStyle   = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("240"))
)

type tuiModel struct {
	all       []subm.Subm
	shown     []subm.Subm
	table     table.Model
	filter    textinput.Model
	filtering bool
}

func newTUIModel(subms []subm.Subm) tuiModel {
	columns := []table.Column{
		{Title: "Doğrulama", Width: 12},
		{Title: "Öğrenci", Width: 24},
		{Title: "Okul", Width: 24},
		{Title: "Kategori", Width: 11},
		{Title: "AI Durumu", Width: 30},
		{Title: "Tarih", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	ti := textinput.New()
	ti.Placeholder = "isim, soyisim veya IKK-..."
	ti.Prompt = "/ "
	ti.CharLimit = 64

	m := tuiModel{all: subms, table: t, filter: ti}
	m.applyFilter()
	return m
}

func (m *tuiModel) applyFilter() {
	m.shown = submsrvc.FilterSubms(m.all, m.filter.Value())
	rows := make([]table.Row, 0, len(m.shown))
	for _, s := range m.shown {
		rows = append(rows, table.Row{
			s.ValidationID,
			s.StudentName + " " + s.StudentSurname,
			s.School,
			s.Category,
			s.AIScore,
			submexport.FormatDate(s.CreatedAt),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m tuiModel) selected() (subm.Subm, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.shown) {
		return subm.Subm{}, false
	}
	return m.shown[i], true
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, isKey := msg.(tea.KeyMsg)
	if isKey && key.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.filtering {
		if isKey && (key.Type == tea.KeyEnter || key.Type == tea.KeyEsc) {
			m.filtering = false
			m.filter.Blur()
			m.table.Focus()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}

	if isKey {
		switch key.String() {
		case "q":
			return m, tea.Quit
		case "/":
			m.filtering = true
			m.table.Blur()
			return m, m.filter.Focus()
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m tuiModel) View() string {
	var b strings.Builder
	st := submsrvc.CountByCategory(m.all)
	b.WriteString(titleStyle.Render(fmt.Sprintf(
		"Başvurular  %d toplam · %d resim · %d şiir · %d kompozisyon",
		st.Total, st.Painting, st.Poetry, st.Composition)))
	b.WriteString("\n\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n")
	b.WriteString(boxStyle.Render(m.table.View()))
	b.WriteString("\n")

	if s, ok := m.selected(); ok {
		score := lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color(string(moderation.LabelColor(s.AIScore)))).
			Render(s.AIScore)
		fmt.Fprintf(&b, "%s %s %s  %s %s\n",
			labelStyle.Render("Öğrenci:"), s.StudentName, s.StudentSurname,
			labelStyle.Render("Veli:"), s.ParentPhone)
		fmt.Fprintf(&b, "%s %s  %s %s\n",
			labelStyle.Render("AI:"), score,
			labelStyle.Render("Dosya:"), s.FilePath)
	} else {
		b.WriteString(labelStyle.Render("Eşleşen başvuru yok.") + "\n")
	}

	b.WriteString(helpStyle.Render("↑/↓ gezin · / filtrele · q çıkış"))
	return b.String()
}

func runTUI(subms []subm.Subm) error {
	_, err := tea.NewProgram(newTUIModel(subms), tea.WithAltScreen()).Run()
	return err
}
