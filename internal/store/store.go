// Package store holds the client-visible state mirrored from the server:
// the session, the board list, the todos of one board and the theme flag.
//
// Every store is safe for concurrent use. Network calls happen outside the
// store's lock and subscribers run after it is released, so a subscriber may
// call Snapshot.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dori/boardly/internal/api"
	"github.com/dori/boardly/internal/model"
)

// ErrValidation is returned before any network call when input is unusable
var ErrValidation = errors.New("invalid input")

// ErrSignUpRejected is returned when the server answers 2xx with success=false
var ErrSignUpRejected = errors.New("sign up rejected")

// KV is the persisted slot. *db.DB satisfies it.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	SetMany(values map[string]string) error
	Delete(keys ...string) error
}

// AuthAPI is the subset of *api.Client used by SessionStore
type AuthAPI interface {
	SignUp(ctx context.Context, r api.Registration) (*api.SignUpResult, error)
	SignIn(ctx context.Context, c api.Credentials) (*api.LoginResult, error)
}

// BoardAPI is the subset of *api.Client used by BoardStore
type BoardAPI interface {
	FetchBoards(ctx context.Context) ([]model.Board, error)
	FetchBoard(ctx context.Context, id string) (model.Board, error)
	CreateBoard(ctx context.Context, title string) (model.Board, error)
	UpdateBoard(ctx context.Context, id, title string) (model.Board, error)
	DeleteBoard(ctx context.Context, id string) error
}

// TodoAPI is the subset of *api.Client used by TodoStore
type TodoAPI interface {
	FetchTodos(ctx context.Context, boardID string) ([]model.Todo, error)
	CreateTodo(ctx context.Context, in model.NewTodo) (model.Todo, error)
	UpdateTodo(ctx context.Context, id string, patch model.TodoPatch) (model.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
}

func required(field string) error {
	return fmt.Errorf("%w: %s is required", ErrValidation, field)
}

func orDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return log.New(io.Discard)
	}
	return l
}

// begin tags ctx with a fresh request id and returns a logger carrying it
func begin(ctx context.Context, logger *log.Logger, op string) (context.Context, *log.Logger) {
	id := uuid.NewString()
	l := logger.With("op", op, "request_id", id)
	l.Debug("start")
	return api.WithRequestID(ctx, id), l
}

// subscribers is an ordered list of change listeners
type subscribers struct {
	mu   sync.Mutex
	next int
	subs []subscriber
}

type subscriber struct {
	id int
	fn func()
}

// add registers fn and returns a function that removes it
func (s *subscribers) add(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// notify calls every listener synchronously in registration order.
// Callers must not hold their state lock.
func (s *subscribers) notify() {
	s.mu.Lock()
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.fn()
	}
}

// status is the loading/error pair shared by every server-backed store.
// Loading holds while any tracked action is in flight.
type status struct {
	pending int
	err     string
}

func (s *status) start(track bool) {
	if track {
		s.pending++
		s.err = ""
	}
}

func (s *status) finish(track bool, err error, fallback string) {
	if track {
		s.pending--
	}
	if err != nil {
		s.err = api.MessageOf(err, fallback)
	}
}

func (s *status) loading() bool { return s.pending > 0 }
