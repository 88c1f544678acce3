package model

import (
	"time"
)

// Todo is a titled task belonging to exactly one board
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	BoardID     string     `json:"boardId"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Copy returns t with CreatedAt detached
func (t Todo) Copy() Todo {
	t.CreatedAt = copyTime(t.CreatedAt)
	return t
}

// NewTodo is the payload for creating a todo
type NewTodo struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	BoardID     string `json:"boardId"`
}

// TodoPatch is a partial update. Nil fields are left untouched by the server.
type TodoPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p TodoPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Apply returns a copy of t with the patch applied
func (p TodoPatch) Apply(t Todo) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// IndexOfTodo returns the position of the todo with the given id, or -1
func IndexOfTodo(todos []Todo, id string) int {
	for i := range todos {
		if todos[i].ID == id {
			return i
		}
	}
	return -1
}

// TodoStats counts completed and pending todos
func TodoStats(todos []Todo) (done, pending int) {
	for _, t := range todos {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
