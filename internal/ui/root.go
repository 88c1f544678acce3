package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/boardly/internal/app"
	"github.com/dori/boardly/internal/ui/theme"
	"github.com/dori/boardly/internal/ui/views"
)

// RootModel is the main application model. It shows the auth form until a
// session exists, then the board sidebar next to the todo list.
type RootModel struct {
	app     *app.App
	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	width   int
	height  int

	pane        Pane
	auth        views.AuthView
	boards      views.BoardsView
	todos       views.TodosView
	helpVisible bool

	// Status message
	statusMsg string
	errorMsg  string
}

// NewRootModel creates a new root model
func NewRootModel(application *app.App) RootModel {
	h := help.New()
	h.ShowAll = true

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot

	theme.SetDark(application.Theme.Dark())

	return RootModel{
		app:     application,
		keys:    DefaultKeyMap(),
		help:    h,
		spinner: sp,
		pane:    PaneBoards,
		auth:    views.NewAuthView(application.Sessions),
		boards:  views.NewBoardsView(application.Boards),
		todos:   views.NewTodosView(application.Todos),
	}
}

func (m RootModel) authenticated() bool {
	return m.app.Sessions.Snapshot().IsAuthenticated
}

func (m RootModel) loading() bool {
	return m.app.Sessions.Snapshot().Loading ||
		m.app.Boards.Snapshot().Loading ||
		m.app.Todos.Snapshot().Loading
}

// Init initializes the model
func (m RootModel) Init() tea.Cmd {
	if m.authenticated() {
		return tea.Batch(m.spinner.Tick, m.boards.Init())
	}
	return tea.Batch(m.spinner.Tick, m.auth.Init())
}

func (m RootModel) inputMode() bool {
	if !m.authenticated() {
		return true
	}
	if m.pane == PaneTodos {
		return m.todos.IsInputMode()
	}
	return m.boards.IsInputMode()
}

func (m RootModel) resize() RootModel {
	contentHeight := max(3, m.height-4)
	sidebar := min(32, max(16, m.width/3))
	m.auth = m.auth.SetSize(m.width, contentHeight)
	m.boards = m.boards.SetSize(sidebar, contentHeight)
	m.todos = m.todos.SetSize(m.width-sidebar, contentHeight)
	m.help.Width = m.width
	return m
}

func (m RootModel) focus(p Pane) RootModel {
	m.pane = p
	m.boards = m.boards.SetFocused(p == PaneBoards)
	m.todos = m.todos.SetFocused(p == PaneTodos)
	return m
}

// Update handles messages
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m.resize(), nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StoreChangedMsg:
		return m, nil

	case tea.KeyMsg:
		// Clear status/error on any keypress
		m.statusMsg = ""
		m.errorMsg = ""
		inputMode := m.inputMode()

		switch {
		case key.Matches(msg, m.keys.Quit):
			// ctrl+c always quits, but 'q' only quits when not typing
			if msg.String() == "ctrl+c" || !inputMode {
				return m, tea.Quit
			}
		case key.Matches(msg, m.keys.Theme):
			return m.toggleTheme()
		}

		if !m.authenticated() {
			next, cmd := m.auth.Update(msg)
			m.auth = next.(views.AuthView)
			return m, cmd
		}
		// These only work when NOT typing
		if !inputMode {
			switch {
			case key.Matches(msg, m.keys.Help):
				m.helpVisible = !m.helpVisible
				return m, nil
			case m.helpVisible && key.Matches(msg, m.keys.Back):
				m.helpVisible = false
				return m, nil
			case key.Matches(msg, m.keys.Pane):
				if m.pane == PaneBoards {
					return m.focus(PaneTodos), nil
				}
				return m.focus(PaneBoards), nil
			case m.pane == PaneTodos && key.Matches(msg, m.keys.Back):
				return m.focus(PaneBoards), nil
			case key.Matches(msg, m.keys.Logout):
				return m.logout()
			}
		}

		if m.pane == PaneTodos {
			next, cmd := m.todos.Update(msg)
			m.todos = next.(views.TodosView)
			return m, cmd
		}
		next, cmd := m.boards.Update(msg)
		m.boards = next.(views.BoardsView)
		return m, cmd

	case views.SignedInMsg:
		m = m.focus(PaneBoards)
		m.statusMsg = "Signed in as " + m.app.Sessions.Snapshot().Session.User.DisplayName()
		return m, m.boards.Init()

	case views.BoardOpenedMsg:
		var cmd tea.Cmd
		m.todos, cmd = m.todos.Open(msg.Board)
		m.boards = m.boards.SetLoaded(msg.Board.ID)
		return m, cmd

	case views.BoardRemovedMsg:
		if m.todos.Board().ID == msg.ID {
			m.todos = m.todos.Close()
			m.boards = m.boards.SetLoaded("")
			m = m.focus(PaneBoards)
		}
		m.statusMsg = "Board deleted"
		return m, nil

	case views.ActionFailedMsg:
		m.errorMsg = msg.Err.Error()
		return m, nil

	case ThemeChangedMsg:
		m.statusMsg = fmt.Sprintf("Theme: %s", theme.ForMode(msg.Dark).Name)
		return m, nil
	}

	// Everything else goes to every view; each ignores what it does not own
	var cmds []tea.Cmd
	next, cmd := m.auth.Update(msg)
	m.auth = next.(views.AuthView)
	cmds = append(cmds, cmd)

	next, cmd = m.boards.Update(msg)
	m.boards = next.(views.BoardsView)
	cmds = append(cmds, cmd)

	next, cmd = m.todos.Update(msg)
	m.todos = next.(views.TodosView)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m RootModel) toggleTheme() (tea.Model, tea.Cmd) {
	dark, err := m.app.Theme.ToggleTheme()
	if err != nil {
		m.errorMsg = err.Error()
		return m, nil
	}
	theme.SetDark(dark)
	return m, func() tea.Msg { return ThemeChangedMsg{Dark: dark} }
}

func (m RootModel) logout() (tea.Model, tea.Cmd) {
	err := m.app.Sessions.Logout()
	m.app.Boards.Reset()
	m.todos = m.todos.Close()
	m.boards = views.NewBoardsView(m.app.Boards)
	m.auth = views.NewAuthView(m.app.Sessions)
	m = m.focus(PaneBoards).resize()
	m.helpVisible = false
	if err != nil {
		m.errorMsg = err.Error()
	} else {
		m.statusMsg = "Logged out"
	}
	return m, m.auth.Init()
}

// View renders the UI
func (m RootModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())

	contentHeight := max(3, m.height-4)
	var content string
	switch {
	case !m.authenticated():
		content = m.auth.View()
	case m.helpVisible:
		content = m.renderHelp()
	default:
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.boards.View(), m.todos.View())
	}

	// Ensure content fills available space
	contentLines := strings.Count(content, "\n") + 1
	if contentLines < contentHeight {
		content += strings.Repeat("\n", contentHeight-contentLines)
	}
	sections = append(sections, content)
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

// renderHeader renders the header bar
func (m RootModel) renderHeader() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme

	title := styles.Header.Render("boardly")
	indicator := lipgloss.NewStyle().Foreground(t.Subtle).Padding(0, 1)

	left := title
	if m.loading() {
		left += indicator.Render(m.spinner.View())
	}

	var right []string
	sess := m.app.Sessions.Snapshot().Session
	if u := sess.User; u != nil {
		right = append(right, u.DisplayName())
	}
	if sess.Expired(time.Now()) {
		right = append(right, "session expired")
	}
	right = append(right, t.Name)
	rightSide := indicator.Render(strings.Join(right, " · "))

	gap := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(rightSide))
	return left + strings.Repeat(" ", gap) + rightSide
}

// renderFooter renders the status line and key hints
func (m RootModel) renderFooter() string {
	styles := theme.Current.Styles

	hint := func(k, desc string) string {
		return styles.HelpKey.Render(k) + styles.HelpDesc.Render(" "+desc)
	}
	sep := styles.HelpSeparator.Render(" │ ")

	var statusLine string
	if m.errorMsg != "" {
		statusLine = styles.Error.Render(m.errorMsg)
	} else if m.statusMsg != "" {
		statusLine = styles.Status.Render(m.statusMsg)
	}

	var line string
	switch {
	case !m.authenticated():
		line = hint("tab", "next field") + sep +
			hint("enter", "submit") + sep +
			hint("ctrl+t", "theme") + sep +
			hint("ctrl+c", "quit")
	case m.inputMode():
		line = hint("enter", "confirm") + sep + hint("esc", "cancel")
	case m.pane == PaneTodos:
		line = hint("a", "add") + sep +
			hint("e", "edit") + sep +
			hint("space", "done") + sep +
			hint("d", "del") + sep +
			hint("tab", strings.ToLower(PaneBoards.String())) + sep +
			hint("?", "help")
	default:
		line = hint("enter", "open") + sep +
			hint("a", "add") + sep +
			hint("r", "rename") + sep +
			hint("d", "del") + sep +
			hint("tab", strings.ToLower(PaneTodos.String())) + sep +
			hint("?", "help")
	}

	var lines []string
	if statusLine != "" {
		lines = append(lines, statusLine)
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

// renderHelp renders the help overlay
func (m RootModel) renderHelp() string {
	styles := theme.Current.Styles

	var b strings.Builder
	b.WriteString(styles.Title.Render("boardly help"))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpDesc.Render("Press ? or esc to close"))
	return styles.Panel.Render(b.String())
}
