package store

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dori/boardly/internal/model"
)

// BoardState is a snapshot of BoardStore
type BoardState struct {
	Boards  []model.Board
	Loading bool
	Error   string
}

// BoardStore mirrors the signed-in user's boards
type BoardStore struct {
	api    BoardAPI
	logger *log.Logger
	subs   subscribers

	mu     sync.Mutex
	boards []model.Board
	status status
}

// NewBoardStore creates an empty board store
func NewBoardStore(boards BoardAPI, logger *log.Logger) *BoardStore {
	return &BoardStore{
		api:    boards,
		logger: orDiscard(logger).With("store", "boards"),
		boards: []model.Board{},
	}
}

// Snapshot returns a copy of the current state
func (s *BoardStore) Snapshot() BoardState {
	s.mu.Lock()
	defer s.mu.Unlock()
	boards := make([]model.Board, len(s.boards))
	for i, b := range s.boards {
		boards[i] = b.Copy()
	}
	return BoardState{
		Boards:  boards,
		Loading: s.status.loading(),
		Error:   s.status.err,
	}
}

// Subscribe registers fn to run after every change. It returns an unsubscribe function.
func (s *BoardStore) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

// BoardByID looks a board up in memory
func (s *BoardStore) BoardByID(id string) (model.Board, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := model.IndexOfBoard(s.boards, id); i >= 0 {
		return s.boards[i].Copy(), true
	}
	return model.Board{}, false
}

func (s *BoardStore) start() {
	s.mu.Lock()
	s.status.start(true)
	s.mu.Unlock()
	s.subs.notify()
}

func (s *BoardStore) finish(logger *log.Logger, err error, fallback string, apply func()) {
	if err != nil {
		logger.Warn(fallback, "err", err)
	}
	s.mu.Lock()
	s.status.finish(true, err, fallback)
	if err == nil {
		apply()
	}
	s.mu.Unlock()
	s.subs.notify()
}

// FetchBoards replaces the collection with the server's list
func (s *BoardStore) FetchBoards(ctx context.Context) error {
	ctx, logger := begin(ctx, s.logger, "fetch_boards")
	s.start()
	boards, err := s.api.FetchBoards(ctx)
	s.finish(logger, err, "Failed to fetch boards", func() { s.boards = boards })
	return err
}

// FetchBoard reloads one board, replacing it in place or appending it when
// it is not held yet.
func (s *BoardStore) FetchBoard(ctx context.Context, id string) (model.Board, error) {
	if strings.TrimSpace(id) == "" {
		return model.Board{}, required("id")
	}

	ctx, logger := begin(ctx, s.logger, "fetch_board")
	s.start()
	board, err := s.api.FetchBoard(ctx, id)
	s.finish(logger, err, "Failed to fetch board", func() {
		if i := model.IndexOfBoard(s.boards, board.ID); i >= 0 {
			s.boards[i] = board
		} else {
			s.boards = append(s.boards, board)
		}
	})
	return board.Copy(), err
}

// CreateBoard creates a board and appends the server copy
func (s *BoardStore) CreateBoard(ctx context.Context, title string) (model.Board, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Board{}, required("title")
	}

	ctx, logger := begin(ctx, s.logger, "create_board")
	s.start()
	board, err := s.api.CreateBoard(ctx, title)
	s.finish(logger, err, "Failed to create board", func() {
		s.boards = append(s.boards, board)
	})
	return board.Copy(), err
}

// UpdateBoard renames a board and replaces the matching entity with the
// server copy
func (s *BoardStore) UpdateBoard(ctx context.Context, id, title string) (model.Board, error) {
	if strings.TrimSpace(id) == "" {
		return model.Board{}, required("id")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Board{}, required("title")
	}

	ctx, logger := begin(ctx, s.logger, "update_board")
	s.start()
	board, err := s.api.UpdateBoard(ctx, id, title)
	s.finish(logger, err, "Failed to update board", func() {
		if i := model.IndexOfBoard(s.boards, id); i >= 0 {
			s.boards[i] = board
		}
	})
	return board.Copy(), err
}

// DeleteBoard deletes a board and drops it from the collection
func (s *BoardStore) DeleteBoard(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return required("id")
	}

	ctx, logger := begin(ctx, s.logger, "delete_board")
	s.start()
	err := s.api.DeleteBoard(ctx, id)
	s.finish(logger, err, "Failed to delete board", func() {
		if i := model.IndexOfBoard(s.boards, id); i >= 0 {
			s.boards = append(s.boards[:i], s.boards[i+1:]...)
		}
	})
	return err
}

// Reset drops every held board, used after logout
func (s *BoardStore) Reset() {
	s.mu.Lock()
	s.boards = []model.Board{}
	s.status.err = ""
	s.mu.Unlock()
	s.subs.notify()
}
