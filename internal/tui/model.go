package tui

import (
	"fmt"
	"strings"

	"github.com/MKhiriev/go-doc-sync/internal/projection"
	"github.com/MKhiriev/go-doc-sync/models"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type model struct {
	title    string
	peerID   string
	views    []*projection.View
	states   []projection.State
	notifier *notifier

	tab     int
	cursor  int
	details bool
	lastErr error

	spinner spinner.Model
}

func newModel(session Session, title string, n *notifier) model {
	m := model{
		title:    title,
		peerID:   session.PeerID(),
		views:    session.Views(),
		notifier: n,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.refresh()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.notifier.wait())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case changedMsg:
		m.refresh()
		return m, m.notifier.wait()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.quit):
		return m, tea.Quit
	case key.Matches(msg, keys.right), key.Matches(msg, keys.tab):
		m.switchTab(1)
	case key.Matches(msg, keys.left):
		m.switchTab(-1)
	case key.Matches(msg, keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.down):
		if m.cursor < len(m.items())-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.enter):
		m.details = !m.details && len(m.items()) > 0
	case key.Matches(msg, keys.esc):
		m.details = false
	}
	return m, nil
}

func (m *model) switchTab(step int) {
	if len(m.views) == 0 {
		return
	}
	m.tab = (m.tab + step + len(m.views)) % len(m.views)
	m.cursor = 0
	m.details = false
}

// refresh snapshots the views and keeps the cursor inside the current items.
func (m *model) refresh() {
	m.states = make([]projection.State, len(m.views))
	for i, v := range m.views {
		m.states[i] = v.State()
	}
	m.lastErr = m.notifier.err()

	if n := len(m.items()); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	if len(m.items()) == 0 {
		m.details = false
	}
}

func (m model) items() []models.Document {
	if m.tab >= len(m.states) {
		return nil
	}
	return m.states[m.tab].Items
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("  peer ")
	b.WriteString(m.peerID)
	b.WriteString("\n\n")

	tabs := make([]string, 0, len(m.views))
	for i, v := range m.views {
		label := fmt.Sprintf("%s (%d)", v.Category(), len(m.states[i].Items))
		if i == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
			continue
		}
		tabs = append(tabs, tabStyle.Render(label))
	}
	b.WriteString(strings.Join(tabs, "  "))
	b.WriteString("\n")
	b.WriteString(uiDivider)
	b.WriteString("\n")

	b.WriteString(m.renderBody())

	b.WriteString(uiDivider)
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("←/→ category  ↑/↓ select  enter details  q quit"))
	if m.lastErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("error: " + m.lastErr.Error()))
	}

	return appStyle.Render(b.String())
}

func (m model) renderBody() string {
	if len(m.views) == 0 {
		return "no categories\n"
	}
	if !m.states[m.tab].Ready {
		return m.spinner.View() + " loading\n"
	}

	items := m.items()
	if len(items) == 0 {
		return "-\n"
	}

	var b strings.Builder
	for i, doc := range items {
		line := fmt.Sprintf("%-20s %-12s %s", fitText(doc.ID, 20), shortRev(doc.Rev), fitText(renderFields(doc), 60))
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.details {
		b.WriteString(detailBoxStyle.Render(renderDetails(items[m.cursor])))
		b.WriteString("\n")
	}
	return b.String()
}

func renderDetails(doc models.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id:   %s\nrev:  %s\nkind: %s", doc.ID, doc.Rev, doc.Kind)
	if fields := renderFields(doc); fields != "" {
		b.WriteString("\n")
		b.WriteString(strings.ReplaceAll(fields, " ", "\n"))
	}
	return b.String()
}
