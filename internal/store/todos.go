package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dori/boardly/internal/model"
)

// ErrTodoNotLoaded is returned by ToggleTodo for an id the store does not hold
var ErrTodoNotLoaded = errors.New("todo not loaded")

// TodoState is a snapshot of TodoStore
type TodoState struct {
	BoardID string
	Todos   []model.Todo
	Loading bool
	Error   string
}

// TodoStore mirrors the todos of one board
type TodoStore struct {
	api    TodoAPI
	logger *log.Logger
	subs   subscribers

	mu      sync.Mutex
	boardID string
	todos   []model.Todo
	status  status
}

// NewTodoStore creates an empty todo store
func NewTodoStore(todos TodoAPI, logger *log.Logger) *TodoStore {
	return &TodoStore{
		api:    todos,
		logger: orDiscard(logger).With("store", "todos"),
		todos:  []model.Todo{},
	}
}

// Snapshot returns a copy of the current state
func (s *TodoStore) Snapshot() TodoState {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos := make([]model.Todo, len(s.todos))
	for i, t := range s.todos {
		todos[i] = t.Copy()
	}
	return TodoState{
		BoardID: s.boardID,
		Todos:   todos,
		Loading: s.status.loading(),
		Error:   s.status.err,
	}
}

// BoardID reports which board's todos are loaded, or ""
func (s *TodoStore) BoardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boardID
}

// Subscribe registers fn to run after every change. It returns an unsubscribe function.
func (s *TodoStore) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

// start marks an action in flight. Untracked actions neither raise Loading
// nor clear a previous error.
func (s *TodoStore) start(track bool) {
	if !track {
		return
	}
	s.mu.Lock()
	s.status.start(true)
	s.mu.Unlock()
	s.subs.notify()
}

func (s *TodoStore) finish(track bool, logger *log.Logger, err error, fallback string, apply func()) {
	if err != nil {
		logger.Warn(fallback, "err", err)
	}
	s.mu.Lock()
	s.status.finish(track, err, fallback)
	if err == nil {
		apply()
	}
	s.mu.Unlock()
	s.subs.notify()
}

// FetchTodos replaces the collection with the todos of boardID
func (s *TodoStore) FetchTodos(ctx context.Context, boardID string) error {
	if strings.TrimSpace(boardID) == "" {
		return required("board id")
	}

	ctx, logger := begin(ctx, s.logger, "fetch_todos")
	s.start(true)
	todos, err := s.api.FetchTodos(ctx, boardID)
	s.finish(true, logger, err, "Failed to fetch todos", func() {
		s.boardID = boardID
		s.todos = todos
	})
	return err
}

// CreateTodo creates a todo. The server copy is appended when it belongs to
// the loaded board.
func (s *TodoStore) CreateTodo(ctx context.Context, in model.NewTodo) (model.Todo, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return model.Todo{}, required("title")
	}
	if in.BoardID == "" {
		return model.Todo{}, required("board id")
	}

	ctx, logger := begin(ctx, s.logger, "create_todo")
	s.start(true)
	todo, err := s.api.CreateTodo(ctx, in)
	s.finish(true, logger, err, "Failed to create todo", func() {
		if s.boardID == "" {
			s.boardID = todo.BoardID
		}
		if todo.BoardID == s.boardID {
			s.todos = append(s.todos, todo)
		}
	})
	return todo.Copy(), err
}

// UpdateTodo applies patch and replaces the matching entity with the server
// copy. Loading is not touched.
func (s *TodoStore) UpdateTodo(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	if strings.TrimSpace(id) == "" {
		return model.Todo{}, required("id")
	}
	if patch.IsEmpty() {
		return model.Todo{}, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return model.Todo{}, required("title")
		}
		patch.Title = &title
	}

	ctx, logger := begin(ctx, s.logger, "update_todo")
	todo, err := s.api.UpdateTodo(ctx, id, patch)
	s.finish(false, logger, err, "Failed to update todo", func() {
		if i := model.IndexOfTodo(s.todos, id); i >= 0 {
			s.todos[i] = todo
		}
	})
	return todo.Copy(), err
}

// ToggleTodo flips the completed flag of a loaded todo
func (s *TodoStore) ToggleTodo(ctx context.Context, id string) (model.Todo, error) {
	s.mu.Lock()
	i := model.IndexOfTodo(s.todos, id)
	var completed bool
	if i >= 0 {
		completed = !s.todos[i].Completed
	}
	s.mu.Unlock()

	if i < 0 {
		return model.Todo{}, fmt.Errorf("%w: %s", ErrTodoNotLoaded, id)
	}
	return s.UpdateTodo(ctx, id, model.TodoPatch{Completed: &completed})
}

// DeleteTodo deletes a todo and drops it from the collection. Loading is
// not touched.
func (s *TodoStore) DeleteTodo(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return required("id")
	}

	ctx, logger := begin(ctx, s.logger, "delete_todo")
	err := s.api.DeleteTodo(ctx, id)
	s.finish(false, logger, err, "Failed to delete todo", func() {
		if i := model.IndexOfTodo(s.todos, id); i >= 0 {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
		}
	})
	return err
}

// Reset forgets the loaded board and its todos
func (s *TodoStore) Reset() {
	s.mu.Lock()
	s.boardID = ""
	s.todos = []model.Todo{}
	s.status.err = ""
	s.mu.Unlock()
	s.subs.notify()
}
