package model

import (
	"time"
)

// Board is a named container for todos, owned by the signed-in user
type Board struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// IndexOfBoard returns the position of the board with the given id, or -1
func IndexOfBoard(boards []Board, id string) int {
	for i := range boards {
		if boards[i].ID == id {
			return i
		}
	}
	return -1
}

// Copy returns b with its timestamps detached, so the copy shares no memory
// with the original
func (b Board) Copy() Board {
	b.CreatedAt = copyTime(b.CreatedAt)
	b.UpdatedAt = copyTime(b.UpdatedAt)
	return b
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
