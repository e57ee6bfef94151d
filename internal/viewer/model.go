package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-signals/internal/report"
)

// Application states.
const (
	StateMenu = iota
	StateSummary
	StateTable
	StateAssetInput
)

// Model is the Bubble Tea model of the artifact viewer.
type Model struct {
	state      int
	page       Page
	reader     *report.Reader
	pageList   list.Model
	assetInput textinput.Model
	dataTable  table.Model
	artifacts  Artifacts
	loaded     bool
	asset      string
	err        error
	width      int
	height     int
}

// NewModel creates a viewer reading the artifacts through reader.
func NewModel(reader *report.Reader) Model {
	return Model{
		state:      StateMenu,
		reader:     reader,
		pageList:   NewPageList(),
		assetInput: NewAssetInput(),
		dataTable:  NewDataTable(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.load()
}

func (m Model) load() tea.Cmd {
	reader := m.reader

	return func() tea.Msg {
		artifacts, err := LoadArtifacts(reader)
		if err != nil {
			return LoadErrorMsg{Err: err}
		}

		return ArtifactsLoadedMsg{Artifacts: artifacts}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			// Only quit on 'q' if not in text input mode
			if m.state != StateAssetInput {
				return m, tea.Quit
			}
		case "r":
			if m.state != StateAssetInput {
				return m, m.load()
			}
		case "esc":
			return m.handleEsc()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.pageList.SetSize(msg.Width, msg.Height-4)
		m.dataTable.SetWidth(msg.Width)
		m.dataTable.SetHeight(msg.Height - 8)

		return m, nil

	case ArtifactsLoadedMsg:
		m.artifacts = msg.Artifacts
		m.loaded = true
		m.err = nil

		if m.state == StateTable {
			m.dataTable = FillTable(m.dataTable, m.page, m.artifacts, m.asset)
		}

		return m, nil

	case LoadErrorMsg:
		m.err = msg.Err

		return m, nil
	}

	switch m.state {
	case StateMenu:
		return m.updateMenu(msg)
	case StateAssetInput:
		return m.updateAssetInput(msg)
	case StateTable:
		return m.updateTable(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateSummary, StateAssetInput:
		m.assetInput.Blur()
		m.state = StateMenu
	case StateTable:
		if m.page == PageAsset {
			m.assetInput.Reset()
			m.assetInput.Focus()
			m.state = StateAssetInput

			return m, textinput.Blink
		}

		m.state = StateMenu
	}

	return m, nil
}

func (m Model) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if item, ok := m.pageList.SelectedItem().(listItem); ok {
			m.page = item.page

			switch item.page {
			case PageSummary:
				m.state = StateSummary
			case PageAsset:
				m.state = StateAssetInput
				m.assetInput.Focus()

				return m, textinput.Blink
			default:
				m.state = StateTable
				m.dataTable = FillTable(m.dataTable, m.page, m.artifacts, m.asset)
			}

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.pageList, cmd = m.pageList.Update(msg)

	return m, cmd
}

func (m Model) updateAssetInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		if asset := ParseSymbol(m.assetInput.Value()); asset != "" {
			m.asset = asset
			m.state = StateTable
			m.assetInput.Blur()
			m.dataTable = FillTable(m.dataTable, PageAsset, m.artifacts, asset)

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.assetInput, cmd = m.assetInput.Update(msg)

	return m, cmd
}

func (m Model) updateTable(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.dataTable, cmd = m.dataTable.Update(msg)

	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateMenu:
		s.WriteString(TitleStyle.Render("Argo Signals - Portfolio Viewer"))
		s.WriteString("\n\n")
		s.WriteString(m.pageList.View())
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Press Enter to select, r to reload, q to quit"))

	case StateSummary:
		s.WriteString(TitleStyle.Render("Portfolio Summary"))
		s.WriteString("\n\n")
		s.WriteString(m.errorLine())
		s.WriteString(RenderSummary(m.artifacts.Summary))
		s.WriteString("\n")
		s.WriteString(HelpStyle.Render("Esc: back | r: reload | q: quit"))

	case StateAssetInput:
		s.WriteString(TitleStyle.Render("Enter Asset"))
		s.WriteString("\n\n")
		s.WriteString("Enter the asset symbol (e.g., AAPL):\n\n")
		s.WriteString(m.assetInput.View())
		s.WriteString("\n\n")
		s.WriteString(HelpStyle.Render("Press Enter to confirm, Esc to go back"))

	case StateTable:
		s.WriteString(TitleStyle.Render(m.tableTitle()))
		s.WriteString("\n\n")
		s.WriteString(m.errorLine())

		switch {
		case !m.loaded:
			s.WriteString("Loading...\n")
		case len(m.dataTable.Rows()) == 0:
			s.WriteString("No rows.\n")
		default:
			s.WriteString(m.dataTable.View())
			s.WriteString("\n")
		}

		if m.page == PageAsset {
			s.WriteString(RenderPerformance(m.artifacts.History, m.asset))
			s.WriteString("\n")
		}

		s.WriteString(HelpStyle.Render("Esc: back | r: reload | q: quit"))
	}

	return s.String()
}

func (m Model) tableTitle() string {
	switch m.page {
	case PageSignals:
		return "Daily Signals"
	case PageHoldings:
		return "Holdings"
	case PageAsset:
		return fmt.Sprintf("Asset History - %s", m.asset)
	}

	return ""
}

func (m Model) errorLine() string {
	if m.err == nil {
		return ""
	}

	return ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n"
}
