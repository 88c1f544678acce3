package store

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dori/boardly/internal/api"
	"github.com/dori/boardly/internal/db"
	"github.com/dori/boardly/internal/mockapi"
	"github.com/dori/boardly/internal/model"
)

func openKV(t *testing.T) *db.DB {
	t.Helper()
	kv, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return kv
}

// backend is a mock server plus a client whose token comes from kv
func backend(t *testing.T, kv KV) *api.Client {
	t.Helper()
	srv := httptest.NewServer(mockapi.New(mockapi.WithBcryptCost(bcrypt.MinCost)))
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, api.TokenFunc(func() (string, error) {
		token, _, err := kv.Get(db.KeyToken)
		return token, err
	}))
}

// signedIn returns a session store already authenticated against a fresh backend
func signedIn(t *testing.T) (*SessionStore, *api.Client, *db.DB) {
	t.Helper()
	kv := openKV(t)
	client := backend(t, kv)
	sessions, err := NewSessionStore(kv, client, nil)
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	ctx := context.Background()
	if err := sessions.SignUp(ctx, api.Registration{Name: "Ada", Email: "ada@example.com", Password: "pw"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := sessions.SignIn(ctx, api.Credentials{Email: "ada@example.com", Password: "pw"}); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	return sessions, client, kv
}

// recorder collects a value each time a store notifies
type recorder[T any] struct {
	mu   sync.Mutex
	seen []T
}

func (r *recorder[T]) add(v T) {
	r.mu.Lock()
	r.seen = append(r.seen, v)
	r.mu.Unlock()
}

func (r *recorder[T]) values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.seen...)
}

// fakeAPI implements AuthAPI, BoardAPI and TodoAPI with overridable funcs.
// Unset funcs panic so an unexpected network call fails the test loudly.
type fakeAPI struct {
	mu    sync.Mutex
	calls int

	signUp      func(api.Registration) (*api.SignUpResult, error)
	signIn      func(api.Credentials) (*api.LoginResult, error)
	fetchBoards func(context.Context) ([]model.Board, error)
	fetchBoard  func(string) (model.Board, error)
	createBoard func(context.Context, string) (model.Board, error)
	updateBoard func(string, string) (model.Board, error)
	deleteBoard func(string) error
	fetchTodos  func(string) ([]model.Todo, error)
	createTodo  func(model.NewTodo) (model.Todo, error)
	updateTodo  func(string, model.TodoPatch) (model.Todo, error)
	deleteTodo  func(string) error
}

func (f *fakeAPI) count() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeAPI) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeAPI) SignUp(_ context.Context, r api.Registration) (*api.SignUpResult, error) {
	f.count()
	return f.signUp(r)
}

func (f *fakeAPI) SignIn(_ context.Context, c api.Credentials) (*api.LoginResult, error) {
	f.count()
	return f.signIn(c)
}

func (f *fakeAPI) FetchBoards(ctx context.Context) ([]model.Board, error) {
	f.count()
	return f.fetchBoards(ctx)
}

func (f *fakeAPI) FetchBoard(_ context.Context, id string) (model.Board, error) {
	f.count()
	return f.fetchBoard(id)
}

func (f *fakeAPI) CreateBoard(ctx context.Context, title string) (model.Board, error) {
	f.count()
	return f.createBoard(ctx, title)
}

func (f *fakeAPI) UpdateBoard(_ context.Context, id, title string) (model.Board, error) {
	f.count()
	return f.updateBoard(id, title)
}

func (f *fakeAPI) DeleteBoard(_ context.Context, id string) error {
	f.count()
	return f.deleteBoard(id)
}

func (f *fakeAPI) FetchTodos(_ context.Context, boardID string) ([]model.Todo, error) {
	f.count()
	return f.fetchTodos(boardID)
}

func (f *fakeAPI) CreateTodo(_ context.Context, in model.NewTodo) (model.Todo, error) {
	f.count()
	return f.createTodo(in)
}

func (f *fakeAPI) UpdateTodo(_ context.Context, id string, patch model.TodoPatch) (model.Todo, error) {
	f.count()
	return f.updateTodo(id, patch)
}

func (f *fakeAPI) DeleteTodo(_ context.Context, id string) error {
	f.count()
	return f.deleteTodo(id)
}

// failingKV fails every write
type failingKV struct {
	KV
	err error
}

func (f failingKV) Set(string, string) error { return f.err }
func (f failingKV) SetMany(map[string]string) error { return f.err }
func (f failingKV) Delete(...string) error { return f.err }
