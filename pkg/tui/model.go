// Package tui implements the interactive skill selector: a bubbletea
// program that walks domains and categories, rendering each option with the
// selectability state computed by the resolver. The selector only collects
// choices; every gating and validation decision comes from the resolver.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jingkaihe/skillforge/pkg/matrix"
	"github.com/jingkaihe/skillforge/pkg/resolver"
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PrevCat  key.Binding
	NextCat  key.Binding
	Domain   key.Binding
	Toggle   key.Binding
	Confirm  key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "previous option")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next option")),
	PrevCat: key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous category")),
	NextCat: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next category")),
	Domain:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next domain")),
	Toggle:  key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "toggle")),
	Confirm: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "confirm")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	lockedStyle      = lipgloss.NewStyle().Faint(true)
	cursorStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	disabledStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	discouragedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	recommendedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	reasonStyle      = lipgloss.NewStyle().Faint(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model is the selector state.
type Model struct {
	matrix *matrix.Matrix
	res    *resolver.Resolver
	sel    *resolver.Selection

	domains   []*matrix.Domain
	domainIdx int
	catViews  []resolver.CategoryView
	catIdx    int
	optIdx    int

	confirmed bool
	aborted   bool
	message   string
}

// NewModel creates a selector over the given matrix.
func NewModel(m *matrix.Matrix) *Model {
	model := &Model{
		matrix:  m,
		res:     resolver.New(m),
		sel:     resolver.NewSelection(),
		domains: m.Domains(),
	}
	model.refresh()
	return model
}

// Selection returns the collected selection.
func (m *Model) Selection() *resolver.Selection { return m.sel }

// Aborted reports whether the user quit without confirming.
func (m *Model) Aborted() bool { return m.aborted }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) currentDomain() *matrix.Domain {
	if len(m.domains) == 0 {
		return nil
	}
	return m.domains[m.domainIdx]
}

// refresh recomputes category views after every selection change; option
// states depend on the whole cross-domain selection.
func (m *Model) refresh() {
	domain := m.currentDomain()
	if domain == nil {
		m.catViews = nil
		return
	}
	m.catViews = m.res.DomainCategories(domain.ID, m.sel)
	if m.catIdx >= len(m.catViews) {
		m.catIdx = 0
	}
	m.clampOption()
}

func (m *Model) clampOption() {
	if len(m.catViews) == 0 {
		m.optIdx = 0
		return
	}
	options := m.catViews[m.catIdx].Options
	if m.optIdx >= len(options) {
		m.optIdx = 0
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Quit):
		m.aborted = true
		return m, tea.Quit

	case key.Matches(keyMsg, keys.Confirm):
		result := m.res.Validate(m.matrix.Categories(), m.sel)
		if !result.Valid {
			m.message = result.Message
			return m, nil
		}
		m.confirmed = true
		return m, tea.Quit

	case key.Matches(keyMsg, keys.Domain):
		if len(m.domains) > 0 {
			m.domainIdx = (m.domainIdx + 1) % len(m.domains)
			m.catIdx, m.optIdx = 0, 0
			m.refresh()
		}

	case key.Matches(keyMsg, keys.PrevCat):
		if m.catIdx > 0 {
			m.catIdx--
			m.optIdx = 0
		}

	case key.Matches(keyMsg, keys.NextCat):
		if m.catIdx < len(m.catViews)-1 {
			m.catIdx++
			m.optIdx = 0
		}

	case key.Matches(keyMsg, keys.Up):
		if m.optIdx > 0 {
			m.optIdx--
		}

	case key.Matches(keyMsg, keys.Down):
		if len(m.catViews) > 0 && m.optIdx < len(m.catViews[m.catIdx].Options)-1 {
			m.optIdx++
		}

	case key.Matches(keyMsg, keys.Toggle):
		m.toggle()
	}

	return m, nil
}

func (m *Model) toggle() {
	m.message = ""
	domain := m.currentDomain()
	if domain == nil || len(m.catViews) == 0 {
		return
	}

	view := m.catViews[m.catIdx]
	if view.Locked || len(view.Options) == 0 {
		m.message = view.LockReason
		return
	}

	option := view.Options[m.optIdx]
	if option.State == resolver.StateDisabled {
		m.message = option.StateReason
		return
	}

	cat, ok := m.matrix.Category(view.ID)
	if !ok {
		return
	}

	if contains(m.sel.Category(domain.ID, view.ID), option.ID) {
		m.sel.Remove(domain.ID, view.ID, option.ID)
	} else {
		m.sel.Add(domain.ID, view.ID, option.ID, cat.Exclusive)
	}
	m.refresh()
}

// View implements tea.Model.
func (m *Model) View() string {
	domain := m.currentDomain()
	if domain == nil {
		return "no domains in library\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Domain: %s", domain.Name)))
	b.WriteString("\n\n")

	for ci, view := range m.catViews {
		header := view.DisplayName
		if view.Locked {
			header = lockedStyle.Render(header + " (locked: " + view.LockReason + ")")
		} else if ci == m.catIdx {
			header = titleStyle.Render(header)
		}
		b.WriteString(header)
		b.WriteString("\n")

		for oi, option := range view.Options {
			b.WriteString(m.renderOption(domain.ID, view, option, ci == m.catIdx && oi == m.optIdx))
		}
		b.WriteString("\n")
	}

	if m.message != "" {
		b.WriteString(errorStyle.Render(m.message))
		b.WriteString("\n")
	}
	b.WriteString(reasonStyle.Render("enter toggle · ←/→ category · tab domain · c confirm · q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m *Model) renderOption(domainID string, view resolver.CategoryView, option resolver.OptionView, focused bool) string {
	cursor := "  "
	if focused {
		cursor = cursorStyle.Render("> ")
	}

	marker := "[ ]"
	if contains(m.sel.Category(domainID, view.ID), option.ID) {
		marker = selectedStyle.Render("[x]")
	}

	label := option.Label
	reason := ""
	switch option.State {
	case resolver.StateDisabled:
		label = disabledStyle.Render(label)
		reason = option.StateReason
	case resolver.StateDiscouraged:
		label = discouragedStyle.Render(label)
		reason = option.StateReason
	case resolver.StateRecommended:
		label = recommendedStyle.Render(label + " ★")
	}

	line := fmt.Sprintf("%s%s %s", cursor, marker, label)
	if reason != "" {
		line += " " + reasonStyle.Render("("+reason+")")
	}
	return line + "\n"
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// Run runs the selector and returns the confirmed selection. An aborted
// session returns (nil, nil); the caller treats it as "nothing chosen".
func Run(m *matrix.Matrix) (*resolver.Selection, error) {
	model := NewModel(m)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, err
	}

	result := final.(*Model)
	if result.Aborted() || !result.confirmed {
		return nil, nil
	}
	return result.Selection(), nil
}
