package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/boardly/internal/model"
	"github.com/dori/boardly/internal/store"
	"github.com/dori/boardly/internal/ui/theme"
)

// BoardMode represents the current input mode of the board sidebar
type BoardMode int

const (
	BoardModeNormal BoardMode = iota
	BoardModeAdd
	BoardModeRename
	BoardModeConfirmDelete
)

// BoardOpenedMsg asks for the todos of a board to be shown
type BoardOpenedMsg struct {
	Board model.Board
}

// BoardRemovedMsg is emitted after a board is deleted on the server
type BoardRemovedMsg struct {
	ID string
}

// ActionFailedMsg carries an error that the stores did not record, such as
// a validation failure
type ActionFailedMsg struct {
	Err error
}

type boardsLoadedMsg struct{ err error }

type boardCreatedMsg struct {
	board model.Board
	err   error
}

type boardRenamedMsg struct{ err error }

type boardDeletedMsg struct {
	id  string
	err error
}

// BoardsView is the sidebar listing boards
type BoardsView struct {
	boards *store.BoardStore
	width  int
	height int

	cursor  int
	mode    BoardMode
	input   textinput.Model
	target  string // board id being renamed or deleted
	loaded  string // board whose todos are shown
	focused bool
}

// NewBoardsView creates the sidebar
func NewBoardsView(boards *store.BoardStore) BoardsView {
	ti := textinput.New()
	ti.Placeholder = "Board title..."
	ti.CharLimit = 128

	return BoardsView{
		boards:  boards,
		input:   ti,
		focused: true,
	}
}

// Init loads the boards
func (v BoardsView) Init() tea.Cmd {
	return v.fetch
}

func (v BoardsView) fetch() tea.Msg {
	return boardsLoadedMsg{err: v.boards.FetchBoards(context.Background())}
}

// IsInputMode returns true when the sidebar is capturing text or a confirmation
func (v BoardsView) IsInputMode() bool {
	return v.mode != BoardModeNormal
}

// SetSize updates the view dimensions
func (v BoardsView) SetSize(width, height int) BoardsView {
	v.width = width
	v.height = height
	v.input.Width = max(10, width-6)
	return v
}

// SetFocused marks whether the sidebar receives keys
func (v BoardsView) SetFocused(focused bool) BoardsView {
	v.focused = focused
	return v
}

// SetLoaded records which board's todos are on screen
func (v BoardsView) SetLoaded(id string) BoardsView {
	v.loaded = id
	return v
}

// Selected returns the board under the cursor
func (v BoardsView) Selected() (model.Board, bool) {
	boards := v.boards.Snapshot().Boards
	if v.cursor < 0 || v.cursor >= len(boards) {
		return model.Board{}, false
	}
	return boards[v.cursor], true
}

func (v *BoardsView) clampCursor() {
	n := len(v.boards.Snapshot().Boards)
	if v.cursor >= n {
		v.cursor = n - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

// Update handles messages
func (v BoardsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardsLoadedMsg:
		v.clampCursor()
		if msg.err != nil {
			return v, nil
		}
		if b, ok := v.Selected(); ok {
			return v, func() tea.Msg { return BoardOpenedMsg{Board: b} }
		}
		return v, nil

	case boardCreatedMsg:
		if msg.err != nil {
			return v, failed(msg.err)
		}
		boards := v.boards.Snapshot().Boards
		if i := model.IndexOfBoard(boards, msg.board.ID); i >= 0 {
			v.cursor = i
		}
		board := msg.board
		return v, func() tea.Msg { return BoardOpenedMsg{Board: board} }

	case boardRenamedMsg:
		return v, failed(msg.err)

	case boardDeletedMsg:
		v.clampCursor()
		if msg.err != nil {
			return v, failed(msg.err)
		}
		id := msg.id
		return v, func() tea.Msg { return BoardRemovedMsg{ID: id} }

	case tea.KeyMsg:
		switch v.mode {
		case BoardModeAdd, BoardModeRename:
			return v.handleInput(msg)
		case BoardModeConfirmDelete:
			return v.handleDeleteConfirm(msg)
		default:
			return v.handleNormalMode(msg)
		}
	}

	if v.mode == BoardModeAdd || v.mode == BoardModeRename {
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}
	return v, nil
}

func (v BoardsView) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(v.boards.Snapshot().Boards)

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
	case "enter", "l", "right":
		if b, ok := v.Selected(); ok {
			return v, func() tea.Msg { return BoardOpenedMsg{Board: b} }
		}
	case "a":
		v.mode = BoardModeAdd
		v.input.SetValue("")
		v.input.Placeholder = "New board..."
		return v, v.input.Focus()
	case "r":
		if b, ok := v.Selected(); ok {
			v.mode = BoardModeRename
			v.target = b.ID
			v.input.SetValue(b.Title)
			v.input.CursorEnd()
			return v, v.input.Focus()
		}
	case "d":
		if b, ok := v.Selected(); ok {
			v.mode = BoardModeConfirmDelete
			v.target = b.ID
		}
	case "R":
		return v, v.fetch
	}
	return v, nil
}

func (v BoardsView) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(v.input.Value())
		if title == "" {
			return v, nil
		}
		boards := v.boards
		mode, id := v.mode, v.target
		v.mode = BoardModeNormal
		v.input.Blur()
		v.target = ""
		if mode == BoardModeAdd {
			return v, func() tea.Msg {
				b, err := boards.CreateBoard(context.Background(), title)
				return boardCreatedMsg{board: b, err: err}
			}
		}
		return v, func() tea.Msg {
			_, err := boards.UpdateBoard(context.Background(), id, title)
			return boardRenamedMsg{err: err}
		}
	case "esc":
		v.mode = BoardModeNormal
		v.input.Blur()
		v.target = ""
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v BoardsView) handleDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		boards, id := v.boards, v.target
		v.mode = BoardModeNormal
		v.target = ""
		return v, func() tea.Msg {
			return boardDeletedMsg{id: id, err: boards.DeleteBoard(context.Background(), id)}
		}
	case "n", "N", "esc":
		v.mode = BoardModeNormal
		v.target = ""
	}
	return v, nil
}

// View renders the sidebar
func (v BoardsView) View() string {
	styles := theme.Current.Styles
	state := v.boards.Snapshot()

	var b strings.Builder
	title := "Boards"
	if state.Loading {
		title += " …"
	}
	b.WriteString(styles.PanelTitle.Render(title))
	b.WriteString("\n")

	switch v.mode {
	case BoardModeAdd, BoardModeRename:
		b.WriteString(styles.InputFocused.Render(v.input.View()))
		b.WriteString("\n")
	case BoardModeConfirmDelete:
		name := v.target
		if board, ok := v.boards.BoardByID(v.target); ok {
			name = board.Title
		}
		b.WriteString(styles.Confirm.Render(fmt.Sprintf("Delete %q? (y/n)", name)))
		b.WriteString("\n")
	}

	if state.Error != "" {
		b.WriteString(styles.Error.Render(state.Error))
		b.WriteString("\n")
	}

	if len(state.Boards) == 0 {
		b.WriteString(styles.Empty.Render("No boards yet.\nPress 'a' to add one."))
	}
	for i, board := range state.Boards {
		marker := "  "
		if board.ID == v.loaded {
			marker = "▸ "
		}
		line := marker + truncate(board.Title, max(4, v.width-8))
		switch {
		case i == v.cursor && v.focused:
			b.WriteString(styles.BoardSelected.Render(line))
		case board.ID == v.loaded:
			b.WriteString(styles.BoardLoaded.Render(line))
		default:
			b.WriteString(styles.Board.Render(line))
		}
		b.WriteString("\n")
	}

	pane := styles.Sidebar
	if v.focused {
		pane = styles.SidebarActive
	}
	return pane.Width(max(10, v.width-2)).Height(max(1, v.height-2)).Render(strings.TrimRight(b.String(), "\n"))
}

// failed reports errors the stores did not record
func failed(err error) tea.Cmd {
	if err == nil || !isValidation(err) {
		return nil
	}
	return func() tea.Msg { return ActionFailedMsg{Err: err} }
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
