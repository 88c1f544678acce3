package mockapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dori/boardly/internal/model"
)

type boardRequest struct {
	Title string `json:"title"`
}

// ownedBoard returns the board if it exists and belongs to owner. Caller holds s.mu.
func (s *Server) ownedBoard(id, owner string) (*boardRow, bool) {
	row, ok := s.boards[id]
	if !ok || row.owner != owner {
		return nil, false
	}
	return row, true
}

func (s *Server) handleListBoards(w http.ResponseWriter, r *http.Request) {
	owner := userIDFrom(r.Context())

	s.mu.Lock()
	boards := make([]model.Board, 0, len(s.order))
	for _, id := range s.order {
		if row := s.boards[id]; row.owner == owner {
			boards = append(boards, row.board)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"boards": boards})
}

func (s *Server) handleGetBoard(w http.ResponseWriter, r *http.Request) {
	owner := userIDFrom(r.Context())

	s.mu.Lock()
	row, ok := s.ownedBoard(chi.URLParam(r, "id"), owner)
	var board model.Board
	if ok {
		board = row.board
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"board": board})
}

func (s *Server) handleCreateBoard(w http.ResponseWriter, r *http.Request) {
	var in boardRequest
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
	board := model.Board{ID: uuid.NewString(), Title: title, CreatedAt: &now, UpdatedAt: &now}

	s.mu.Lock()
	s.boards[board.ID] = &boardRow{board: board, owner: userIDFrom(r.Context())}
	s.order = append(s.order, board.ID)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"message": "Board created", "board": board})
}

func (s *Server) handleUpdateBoard(w http.ResponseWriter, r *http.Request) {
	var in boardRequest
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	s.mu.Lock()
	row, ok := s.ownedBoard(chi.URLParam(r, "id"), userIDFrom(r.Context()))
	var board model.Board
	if ok {
		now := s.now().UTC()
		row.board.Title = title
		row.board.UpdatedAt = &now
		board = row.board
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Board updated", "board": board})
}

func (s *Server) handleDeleteBoard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	_, ok := s.ownedBoard(id, userIDFrom(r.Context()))
	if ok {
		delete(s.boards, id)
		s.order = without(s.order, id)
		kept := s.todoSeq[:0]
		for _, tid := range s.todoSeq {
			if s.todos[tid].BoardID == id {
				delete(s.todos, tid)
				continue
			}
			kept = append(kept, tid)
		}
		s.todoSeq = kept
	}
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "Board not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Board deleted"})
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
