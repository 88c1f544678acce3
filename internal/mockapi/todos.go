package mockapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dori/boardly/internal/model"
)

type todoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	BoardID     string `json:"boardId"`
}

// ownedTodo returns the todo if its board belongs to owner. Caller holds s.mu.
func (s *Server) ownedTodo(id, owner string) (*model.Todo, bool) {
	t, ok := s.todos[id]
	if !ok {
		return nil, false
	}
	if _, ok := s.ownedBoard(t.BoardID, owner); !ok {
		return nil, false
	}
	return t, true
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	boardID := chi.URLParam(r, "boardId")

	s.mu.Lock()
	_, ok := s.ownedBoard(boardID, userIDFrom(r.Context()))
	todos := []model.Todo{}
	if ok {
		for _, id := range s.todoSeq {
			if t := s.todos[id]; t.BoardID == boardID {
				todos = append(todos, *t)
			}
		}
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"todos": todos})
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	var in todoRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	now := s.now().UTC()
	todo := model.Todo{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		BoardID:     in.BoardID,
		CreatedAt:   &now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	_, ok := s.ownedBoard(in.BoardID, userIDFrom(r.Context()))
	if ok {
		s.todos[todo.ID] = &todo
		s.todoSeq = append(s.todoSeq, todo.ID)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Todo created", "todo": todo})
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request) {
	var patch model.TodoPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if patch.IsEmpty() {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			writeError(w, http.StatusBadRequest, "Title is required")
			return
		}
		patch.Title = &title
	}

	s.mu.Lock()
	t, ok := s.ownedTodo(chi.URLParam(r, "id"), userIDFrom(r.Context()))
	var todo model.Todo
	if ok {
		*t = patch.Apply(*t)
		t.UpdatedAt = s.now().UTC()
		todo = *t
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Todo not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Todo updated", "todo": todo})
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.ownedTodo(id, userIDFrom(r.Context()))
	if ok {
		delete(s.todos, id)
		s.todoSeq = without(s.todoSeq, id)
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Todo not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Todo deleted"})
}
