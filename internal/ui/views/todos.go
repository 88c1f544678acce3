package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/boardly/internal/model"
	"github.com/dori/boardly/internal/store"
	"github.com/dori/boardly/internal/ui/theme"
)

// TodoMode represents the current input mode of the todo list
type TodoMode int

const (
	TodoModeNormal TodoMode = iota
	TodoModeAdd
	TodoModeEdit
	TodoModeDescribe
	TodoModeConfirmDelete
)

type todosLoadedMsg struct{ err error }

type todoSavedMsg struct{ err error }

type todoDeletedMsg struct{ err error }

// TodosView displays the todos of the loaded board
type TodosView struct {
	todos  *store.TodoStore
	width  int
	height int

	board        model.Board
	cursor       int
	scrollOffset int
	mode         TodoMode
	input        textinput.Model
	target       string // todo id being edited or deleted
	focused      bool
}

// NewTodosView creates an empty todo list
func NewTodosView(todos *store.TodoStore) TodosView {
	ti := textinput.New()
	ti.Placeholder = "New todo..."
	ti.CharLimit = 256

	return TodosView{
		todos: todos,
		input: ti,
	}
}

// Init does nothing until a board is opened
func (v TodosView) Init() tea.Cmd {
	return nil
}

// Open switches to board and fetches its todos
func (v TodosView) Open(board model.Board) (TodosView, tea.Cmd) {
	if board.ID != v.board.ID {
		v.cursor = 0
		v.scrollOffset = 0
	}
	v.board = board
	v.mode = TodoModeNormal
	todos, id := v.todos, board.ID
	return v, func() tea.Msg {
		return todosLoadedMsg{err: todos.FetchTodos(context.Background(), id)}
	}
}

// Close forgets the board, used when it is deleted
func (v TodosView) Close() TodosView {
	v.board = model.Board{}
	v.cursor = 0
	v.scrollOffset = 0
	v.mode = TodoModeNormal
	v.todos.Reset()
	return v
}

// Board returns the board on screen
func (v TodosView) Board() model.Board { return v.board }

// IsInputMode returns true when the list is capturing text or a confirmation
func (v TodosView) IsInputMode() bool {
	return v.mode != TodoModeNormal
}

// SetSize updates the view dimensions
func (v TodosView) SetSize(width, height int) TodosView {
	v.width = width
	v.height = height
	v.input.Width = max(10, width-8)
	return v
}

// SetFocused marks whether the list receives keys
func (v TodosView) SetFocused(focused bool) TodosView {
	v.focused = focused
	return v
}

func (v TodosView) selected() (model.Todo, bool) {
	todos := v.todos.Snapshot().Todos
	if v.cursor < 0 || v.cursor >= len(todos) {
		return model.Todo{}, false
	}
	return todos[v.cursor], true
}

// visibleCount is how many todos fit, each taking up to two lines
func (v TodosView) visibleCount() int {
	reserved := 5
	if v.mode != TodoModeNormal {
		reserved += 3
	}
	return max(1, (v.height-reserved)/2)
}

func (v *TodosView) ensureCursorVisible() {
	n := len(v.todos.Snapshot().Todos)
	if v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
	visible := v.visibleCount()
	if v.cursor < v.scrollOffset {
		v.scrollOffset = v.cursor
	}
	if v.cursor >= v.scrollOffset+visible {
		v.scrollOffset = v.cursor - visible + 1
	}
}

// Update handles messages
func (v TodosView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case todosLoadedMsg:
		v.ensureCursorVisible()
		return v, failed(msg.err)

	case todoSavedMsg:
		v.ensureCursorVisible()
		return v, failed(msg.err)

	case todoDeletedMsg:
		v.ensureCursorVisible()
		return v, failed(msg.err)

	case tea.KeyMsg:
		switch v.mode {
		case TodoModeAdd, TodoModeEdit, TodoModeDescribe:
			return v.handleInput(msg)
		case TodoModeConfirmDelete:
			return v.handleDeleteConfirm(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	if v.mode == TodoModeAdd || v.mode == TodoModeEdit || v.mode == TodoModeDescribe {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v TodosView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if v.board.ID == "" {
		return v, nil
	}
	n := len(v.todos.Snapshot().Todos)
	todos := v.todos

	switch msg.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < n-1 {
			v.cursor++
		}
	case "g":
		v.cursor = 0
	case "G":
		v.cursor = max(0, n-1)
	case "a":
		v.mode = TodoModeAdd
		v.input.SetValue("")
		v.input.Placeholder = "New todo..."
		return v, v.input.Focus()
	case "e", "enter":
		if t, ok := v.selected(); ok {
			v.mode = TodoModeEdit
			v.target = t.ID
			v.input.Placeholder = "Title"
			v.input.SetValue(t.Title)
			v.input.CursorEnd()
			return v, v.input.Focus()
		}
	case "D":
		if t, ok := v.selected(); ok {
			v.mode = TodoModeDescribe
			v.target = t.ID
			v.input.Placeholder = "Description"
			v.input.SetValue(t.Description)
			v.input.CursorEnd()
			return v, v.input.Focus()
		}
	case " ", "x":
		if t, ok := v.selected(); ok {
			id := t.ID
			return v, func() tea.Msg {
				_, err := todos.ToggleTodo(context.Background(), id)
				return todoSavedMsg{err: err}
			}
		}
	case "d":
		if t, ok := v.selected(); ok {
			v.mode = TodoModeConfirmDelete
			v.target = t.ID
		}
	case "R":
		var cmd tea.Cmd
		v, cmd = v.Open(v.board)
		return v, cmd
	}
	v.ensureCursorVisible()
	return v, nil
}

func (v TodosView) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := strings.TrimSpace(v.input.Value())
		if value == "" && v.mode != TodoModeDescribe {
			return v, nil
		}
		todos := v.todos
		mode, id, boardID := v.mode, v.target, v.board.ID
		v.mode = TodoModeNormal
		v.target = ""
		v.input.Blur()

		switch mode {
		case TodoModeAdd:
			return v, func() tea.Msg {
				_, err := todos.CreateTodo(context.Background(), model.NewTodo{Title: value, BoardID: boardID})
				return todoSavedMsg{err: err}
			}
		case TodoModeEdit:
			return v, func() tea.Msg {
				_, err := todos.UpdateTodo(context.Background(), id, model.TodoPatch{Title: &value})
				return todoSavedMsg{err: err}
			}
		default:
			return v, func() tea.Msg {
				_, err := todos.UpdateTodo(context.Background(), id, model.TodoPatch{Description: &value})
				return todoSavedMsg{err: err}
			}
		}
	case "esc":
		v.mode = TodoModeNormal
		v.target = ""
		v.input.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v TodosView) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		todos, id := v.todos, v.target
		v.mode = TodoModeNormal
		v.target = ""
		return v, func() tea.Msg {
			return todoDeletedMsg{err: todos.DeleteTodo(context.Background(), id)}
		}
	case "n", "N", "esc":
		v.mode = TodoModeNormal
		v.target = ""
	}
	return v, nil
}

// View renders the todo list
func (v TodosView) View() string {
	styles := theme.Current.Styles
	t := theme.Current.Theme
	state := v.todos.Snapshot()

	var b strings.Builder

	if v.board.ID == "" {
		b.WriteString(styles.Empty.Render("Select a board to see its todos."))
		return v.frame(b.String())
	}

	done, pending := model.TodoStats(state.Todos)
	title := v.board.Title
	if state.Loading {
		title += " …"
	}
	b.WriteString(styles.PanelTitle.Render(title))
	b.WriteString(styles.Label.Render(fmt.Sprintf(" %d open, %d done", pending, done)))
	b.WriteString("\n")

	switch v.mode {
	case TodoModeAdd, TodoModeEdit, TodoModeDescribe:
		b.WriteString(styles.InputFocused.Render(v.input.View()))
		b.WriteString("\n")
	case TodoModeConfirmDelete:
		name := v.target
		if i := model.IndexOfTodo(state.Todos, v.target); i >= 0 {
			name = state.Todos[i].Title
		}
		b.WriteString(styles.Confirm.Render(fmt.Sprintf("Delete %q? (y/n)", name)))
		b.WriteString("\n")
	}

	if state.Error != "" {
		b.WriteString(styles.Error.Render(state.Error))
		b.WriteString("\n")
	}

	if len(state.Todos) == 0 && !state.Loading {
		b.WriteString(styles.Empty.Render("No todos. Press 'a' to add one."))
		return v.frame(b.String())
	}

	visible := v.visibleCount()
	end := min(len(state.Todos), v.scrollOffset+visible)
	if v.scrollOffset > 0 {
		b.WriteString(styles.Label.Render(fmt.Sprintf("  ↑ %d more above", v.scrollOffset)))
		b.WriteString("\n")
	}

	for i := v.scrollOffset; i < end; i++ {
		todo := state.Todos[i]
		check := styles.StatusOpen.Render("[ ]")
		if todo.Completed {
			check = styles.StatusDone.Render("[x]")
		}

		line := truncate(todo.Title, max(4, v.width-24))
		style := styles.TodoNormal
		switch {
		case i == v.cursor && v.focused:
			style = styles.TodoSelected
		case todo.Completed:
			style = styles.TodoDone
		}
		b.WriteString(check + style.Render(line))
		b.WriteString(styles.Label.Render(" " + relativeTime(todo.UpdatedAt)))
		b.WriteString("\n")

		if todo.Description != "" {
			b.WriteString(styles.Description.Render(truncate(todo.Description, max(4, v.width-12))))
			b.WriteString("\n")
		}
	}

	if end < len(state.Todos) {
		b.WriteString(styles.Label.Foreground(t.Subtle).Render(fmt.Sprintf("  ↓ %d more below", len(state.Todos)-end)))
	}

	return v.frame(b.String())
}

func (v TodosView) frame(content string) string {
	styles := theme.Current.Styles
	pane := styles.Sidebar
	if v.focused {
		pane = styles.SidebarActive
	}
	return pane.Width(max(10, v.width-2)).Height(max(1, v.height-2)).Render(strings.TrimRight(content, "\n"))
}

// relativeTime formats t as a short age like "3m" or "2d"
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
