package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dori/boardly/internal/model"
)

func todoTitles(todos []model.Todo) []string {
	out := make([]string, len(todos))
	for i, t := range todos {
		out[i] = t.Title
	}
	return out
}

func TestTodoLifecycleAgainstMock(t *testing.T) {
	_, client, _ := signedIn(t)
	boards := NewBoardStore(client, nil)
	todos := NewTodoStore(client, nil)
	ctx := context.Background()

	work, err := boards.CreateBoard(ctx, "Work")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}
	home, err := boards.CreateBoard(ctx, "Home")
	if err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	if err := todos.FetchTodos(ctx, work.ID); err != nil {
		t.Fatalf("FetchTodos: %v", err)
	}
	first, err := todos.CreateTodo(ctx, model.NewTodo{Title: "write", Description: "docs", BoardID: work.ID})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	if _, err := todos.CreateTodo(ctx, model.NewTodo{Title: "review", BoardID: work.ID}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	if got := todoTitles(todos.Snapshot().Todos); !equalStrings(got, []string{"write", "review"}) {
		t.Fatalf("after create: %v", got)
	}

	toggled, err := todos.ToggleTodo(ctx, first.ID)
	if err != nil {
		t.Fatalf("ToggleTodo: %v", err)
	}
	if !toggled.Completed || toggled.Description != "docs" {
		t.Errorf("unexpected toggle result: %+v", toggled)
	}
	if done, pending := model.TodoStats(todos.Snapshot().Todos); done != 1 || pending != 1 {
		t.Errorf("stats = %d done, %d pending", done, pending)
	}

	if err := todos.DeleteTodo(ctx, first.ID); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}
	if got := todoTitles(todos.Snapshot().Todos); !equalStrings(got, []string{"review"}) {
		t.Fatalf("after delete: %v", got)
	}

	if err := todos.FetchTodos(ctx, home.ID); err != nil {
		t.Fatalf("FetchTodos: %v", err)
	}
	got := todos.Snapshot()
	if got.BoardID != home.ID || len(got.Todos) != 0 {
		t.Errorf("switching boards did not replace the collection: %+v", got)
	}
}

func TestCreateTodoForOtherBoardNotAppended(t *testing.T) {
	fake := &fakeAPI{
		fetchTodos: func(string) ([]model.Todo, error) { return []model.Todo{{ID: "1", Title: "a", BoardID: "b1"}}, nil },
		createTodo: func(in model.NewTodo) (model.Todo, error) {
			return model.Todo{ID: "2", Title: in.Title, BoardID: in.BoardID}, nil
		},
	}
	s := NewTodoStore(fake, nil)
	ctx := context.Background()
	_ = s.FetchTodos(ctx, "b1")

	if _, err := s.CreateTodo(ctx, model.NewTodo{Title: "elsewhere", BoardID: "b2"}); err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	if got := todoTitles(s.Snapshot().Todos); !equalStrings(got, []string{"a"}) {
		t.Errorf("got %v, want only the loaded board's todos", got)
	}
}

func TestTodoUpdateDeleteNeverTouchLoading(t *testing.T) {
	fake := &fakeAPI{
		fetchTodos: func(string) ([]model.Todo, error) {
			return []model.Todo{{ID: "1", Title: "a", BoardID: "b"}, {ID: "2", Title: "b", BoardID: "b"}}, nil
		},
		updateTodo: func(id string, p model.TodoPatch) (model.Todo, error) {
			return p.Apply(model.Todo{ID: id, Title: "a", BoardID: "b"}), nil
		},
		deleteTodo: func(string) error { return nil },
	}
	s := NewTodoStore(fake, nil)
	ctx := context.Background()
	if err := s.FetchTodos(ctx, "b"); err != nil {
		t.Fatalf("FetchTodos: %v", err)
	}

	var rec recorder[bool]
	s.Subscribe(func() { rec.add(s.Snapshot().Loading) })

	done := true
	if _, err := s.UpdateTodo(ctx, "1", model.TodoPatch{Completed: &done}); err != nil {
		t.Fatalf("UpdateTodo: %v", err)
	}
	if err := s.DeleteTodo(ctx, "2"); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}

	seen := rec.values()
	if len(seen) != 2 {
		t.Fatalf("got %d notifications, want 2", len(seen))
	}
	for i, loading := range seen {
		if loading {
			t.Errorf("notification %d saw Loading=true", i)
		}
	}
	got := s.Snapshot()
	if len(got.Todos) != 1 || !got.Todos[0].Completed {
		t.Errorf("unexpected todos: %+v", got.Todos)
	}
}

func TestTodoFailureMessages(t *testing.T) {
	transport := errors.New("connection refused")
	fake := &fakeAPI{
		fetchTodos: func(string) ([]model.Todo, error) { return nil, transport },
		createTodo: func(model.NewTodo) (model.Todo, error) { return model.Todo{}, transport },
		updateTodo: func(string, model.TodoPatch) (model.Todo, error) { return model.Todo{}, transport },
		deleteTodo: func(string) error { return transport },
	}
	s := NewTodoStore(fake, nil)
	ctx := context.Background()
	title := "x"

	tests := []struct {
		name string
		run  func() error
		want string
	}{
		{"fetch", func() error { return s.FetchTodos(ctx, "b") }, "Failed to fetch todos"},
		{"create", func() error {
			_, err := s.CreateTodo(ctx, model.NewTodo{Title: "x", BoardID: "b"})
			return err
		}, "Failed to create todo"},
		{"update", func() error {
			_, err := s.UpdateTodo(ctx, "1", model.TodoPatch{Title: &title})
			return err
		}, "Failed to update todo"},
		{"delete", func() error { return s.DeleteTodo(ctx, "1") }, "Failed to delete todo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, transport) {
				t.Fatalf("got %v, want %v", err, transport)
			}
			got := s.Snapshot()
			if got.Error != tt.want || got.Loading {
				t.Errorf("got Error=%q Loading=%v, want %q and not loading", got.Error, got.Loading, tt.want)
			}
		})
	}
}

func TestTodoUpdateKeepsEarlierError(t *testing.T) {
	fake := &fakeAPI{
		fetchTodos: func(string) ([]model.Todo, error) { return nil, errors.New("down") },
		updateTodo: func(id string, p model.TodoPatch) (model.Todo, error) { return model.Todo{ID: id}, nil },
	}
	s := NewTodoStore(fake, nil)
	ctx := context.Background()
	_ = s.FetchTodos(ctx, "b")

	done := true
	if _, err := s.UpdateTodo(ctx, "1", model.TodoPatch{Completed: &done}); err != nil {
		t.Fatalf("UpdateTodo: %v", err)
	}
	if got := s.Snapshot().Error; got != "Failed to fetch todos" {
		t.Errorf("Error = %q, want the earlier fetch error kept", got)
	}
}

func TestTodoValidation(t *testing.T) {
	fake := &fakeAPI{}
	s := NewTodoStore(fake, nil)
	ctx := context.Background()
	blank, title := "  ", "ok"

	errs := []error{
		s.FetchTodos(ctx, ""),
		func() error { _, err := s.CreateTodo(ctx, model.NewTodo{Title: " ", BoardID: "b"}); return err }(),
		func() error { _, err := s.CreateTodo(ctx, model.NewTodo{Title: "x"}); return err }(),
		func() error { _, err := s.UpdateTodo(ctx, "1", model.TodoPatch{Title: &blank}); return err }(),
		func() error { _, err := s.UpdateTodo(ctx, "1", model.TodoPatch{}); return err }(),
		func() error { _, err := s.UpdateTodo(ctx, " ", model.TodoPatch{Title: &title}); return err }(),
		s.DeleteTodo(ctx, ""),
	}
	for i, err := range errs {
		if !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: got %v, want ErrValidation", i, err)
		}
	}
	if fake.Calls() != 0 {
		t.Errorf("made %d network calls", fake.Calls())
	}
	if got := s.Snapshot().Error; got != "" {
		t.Errorf("Error = %q, validation must not be recorded", got)
	}
}

func TestTodoReturnedCopyIsDetached(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	fake := &fakeAPI{
		fetchTodos: func(string) ([]model.Todo, error) {
			c := created
			return []model.Todo{{ID: "t1", Title: "a", BoardID: "b", CreatedAt: &c}}, nil
		},
		updateTodo: func(id string, p model.TodoPatch) (model.Todo, error) {
			c := created
			return model.Todo{ID: id, Title: *p.Title, BoardID: "b", CreatedAt: &c}, nil
		},
	}
	s := NewTodoStore(fake, nil)
	ctx := context.Background()
	if err := s.FetchTodos(ctx, "b"); err != nil {
		t.Fatalf("FetchTodos: %v", err)
	}

	title := "renamed"
	got, err := s.UpdateTodo(ctx, "t1", model.TodoPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTodo: %v", err)
	}
	*got.CreatedAt = created.AddDate(0, 0, 2)

	snap := s.Snapshot()
	*snap.Todos[0].CreatedAt = created.AddDate(0, 0, 5)

	if c := s.Snapshot().Todos[0].CreatedAt; !c.Equal(created) {
		t.Errorf("store CreatedAt = %v, want %v", c, created)
	}
}

func TestToggleUnknownTodo(t *testing.T) {
	fake := &fakeAPI{}
	s := NewTodoStore(fake, nil)

	if _, err := s.ToggleTodo(context.Background(), "nope"); !errors.Is(err, ErrTodoNotLoaded) {
		t.Fatalf("got %v, want ErrTodoNotLoaded", err)
	}
	if fake.Calls() != 0 {
		t.Errorf("made %d network calls", fake.Calls())
	}
}

func TestTodoReset(t *testing.T) {
	fake := &fakeAPI{fetchTodos: func(string) ([]model.Todo, error) {
		return []model.Todo{{ID: "1", Title: "a", BoardID: "b"}}, nil
	}}
	s := NewTodoStore(fake, nil)
	_ = s.FetchTodos(context.Background(), "b")

	s.Reset()
	got := s.Snapshot()
	if got.BoardID != "" || len(got.Todos) != 0 {
		t.Errorf("state after Reset: %+v", got)
	}
}
