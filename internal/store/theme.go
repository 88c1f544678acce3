package store

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dori/boardly/internal/db"
)

// ThemeStore holds the persisted dark-mode flag. It never talks to the server.
type ThemeStore struct {
	kv     KV
	logger *log.Logger
	subs   subscribers

	mu   sync.Mutex
	dark bool
}

// NewThemeStore reads the stored flag. Anything but "true" means light.
func NewThemeStore(kv KV, logger *log.Logger) (*ThemeStore, error) {
	v, _, err := kv.Get(db.KeyDark)
	if err != nil {
		return nil, fmt.Errorf("read theme: %w", err)
	}
	return &ThemeStore{
		kv:     kv,
		logger: orDiscard(logger).With("store", "theme"),
		dark:   v == "true",
	}, nil
}

// Dark reports whether the dark palette is selected
func (s *ThemeStore) Dark() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// Subscribe registers fn to run after every change. It returns an unsubscribe function.
func (s *ThemeStore) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

// ToggleTheme flips the flag, persists it and notifies subscribers. On a
// storage failure the flag is left as it was.
func (s *ThemeStore) ToggleTheme() (bool, error) {
	s.mu.Lock()
	next := !s.dark
	if err := s.kv.Set(db.KeyDark, strconv.FormatBool(next)); err != nil {
		s.mu.Unlock()
		return !next, fmt.Errorf("persist theme: %w", err)
	}
	s.dark = next
	s.mu.Unlock()

	s.logger.Debug("theme toggled", "dark", next)
	s.subs.notify()
	return next, nil
}
