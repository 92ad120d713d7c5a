package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// MenuItem is one scenario offered by the menu.
type MenuItem struct {
	Name        string
	Description string
	Presets     []string
}

// Launcher builds the live view for a scenario and preset. An empty preset
// means the scenario defaults.
type Launcher func(scenario, preset string) (Model, error)

const (
	stateScenarios = iota
	statePresets
	stateLive
)

// Menu picks a scenario and preset, then hands over to the live view.
type Menu struct {
	items  []MenuItem
	launch Launcher
	styles styles

	state   int
	cursor  int
	preset  int
	current int
	err     error
	live    Model
}

func NewMenu(items []MenuItem, launch Launcher) Menu {
	return Menu{items: items, launch: launch, styles: newStyles(ThemeCyberpunk)}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateLive {
		updated, cmd := m.live.Update(msg)
		m.live = updated.(Model)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.state = stateScenarios
		m.err = nil
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "enter", " ":
		return m.choose()
	}
	return m, nil
}

func (m *Menu) move(dir int) {
	if m.state == stateScenarios {
		m.cursor = max(0, min(m.cursor+dir, len(m.items)-1))
		return
	}
	// slot 0 is the scenario defaults
	m.preset = max(0, min(m.preset+dir, len(m.items[m.current].Presets)))
}

func (m Menu) choose() (tea.Model, tea.Cmd) {
	if len(m.items) == 0 {
		return m, nil
	}
	if m.state == stateScenarios {
		m.current = m.cursor
		m.preset = 0
		m.state = statePresets
		return m, nil
	}

	item := m.items[m.current]
	preset := ""
	if m.preset > 0 {
		preset = item.Presets[m.preset-1]
	}
	live, err := m.launch(item.Name, preset)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.live = live
	m.state = stateLive
	return m, m.live.Init()
}

func (m Menu) View() string {
	if m.state == stateLive {
		return m.live.View()
	}

	st := m.styles
	var s strings.Builder
	line := func(selected bool, text string) {
		if selected {
			s.WriteString(st.active.Render("> "+text) + "\n")
		} else {
			s.WriteString("  " + st.value.Render(text) + "\n")
		}
	}

	if m.state == stateScenarios {
		s.WriteString(st.header.Render("PHYSIM") + "\n")
		for i, item := range m.items {
			line(i == m.cursor, fmt.Sprintf("%-10s %s", item.Name, st.label.UnsetWidth().Render(item.Description)))
		}
		s.WriteString(st.help.Render("↑↓:Select Enter:Choose Q:Quit"))
		return s.String()
	}

	item := m.items[m.current]
	s.WriteString(st.header.Render(strings.ToUpper(item.Name)+" PRESETS") + "\n")
	line(m.preset == 0, "(defaults)")
	for i, p := range item.Presets {
		line(m.preset == i+1, p)
	}
	if m.err != nil {
		s.WriteString("\n" + st.failed.Render(m.err.Error()) + "\n")
	}
	s.WriteString(st.help.Render("↑↓:Select Enter:Run Esc:Back Q:Quit"))
	return s.String()
}
