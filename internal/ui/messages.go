package ui

// Pane is the part of the main screen that receives keys
type Pane int

const (
	PaneBoards Pane = iota
	PaneTodos
)

// String returns the display name for a pane
func (p Pane) String() string {
	switch p {
	case PaneBoards:
		return "Boards"
	case PaneTodos:
		return "Todos"
	default:
		return "Unknown"
	}
}

// StoreChangedMsg is sent whenever a store notifies its subscribers
type StoreChangedMsg struct{}

// ThemeChangedMsg indicates the palette was switched
type ThemeChangedMsg struct {
	Dark bool
}
