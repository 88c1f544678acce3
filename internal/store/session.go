package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dori/boardly/internal/api"
	"github.com/dori/boardly/internal/db"
	"github.com/dori/boardly/internal/model"
)

// SessionState is a snapshot of SessionStore
type SessionState struct {
	Session         model.Session
	IsAuthenticated bool
	Loading         bool
	Error           string
}

// SessionStore owns the token and the signed-in user
type SessionStore struct {
	kv     KV
	auth   AuthAPI
	logger *log.Logger
	subs   subscribers

	mu      sync.Mutex
	session model.Session
	status  status
}

// NewSessionStore reads the stored token. A stored token alone marks the
// session authenticated; the user stays nil until Hydrate.
func NewSessionStore(kv KV, auth AuthAPI, logger *log.Logger) (*SessionStore, error) {
	token, _, err := kv.Get(db.KeyToken)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	return &SessionStore{
		kv:      kv,
		auth:    auth,
		logger:  orDiscard(logger).With("store", "session"),
		session: model.Session{Token: token, ExpiresAt: model.TokenExpiry(token)},
	}, nil
}

// Snapshot returns a copy of the current state
func (s *SessionStore) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SessionStore) snapshotLocked() SessionState {
	sess := s.session
	if sess.User != nil {
		u := *sess.User
		sess.User = &u
	}
	if sess.ExpiresAt != nil {
		t := *sess.ExpiresAt
		sess.ExpiresAt = &t
	}
	return SessionState{
		Session:         sess,
		IsAuthenticated: sess.IsAuthenticated(),
		Loading:         s.status.loading(),
		Error:           s.status.err,
	}
}

// Subscribe registers fn to run after every change. It returns an unsubscribe function.
func (s *SessionStore) Subscribe(fn func()) func() {
	return s.subs.add(fn)
}

func (s *SessionStore) start() {
	s.mu.Lock()
	s.status.start(true)
	s.mu.Unlock()
	s.subs.notify()
}

func (s *SessionStore) finish(err error, fallback string, apply func()) {
	s.mu.Lock()
	s.status.finish(true, err, fallback)
	if err == nil && apply != nil {
		apply()
	}
	s.mu.Unlock()
	s.subs.notify()
}

// SignIn exchanges credentials for a token, persists token and user and
// marks the session authenticated.
func (s *SessionStore) SignIn(ctx context.Context, c api.Credentials) error {
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" {
		return required("email")
	}
	if c.Password == "" {
		return required("password")
	}

	ctx, logger := begin(ctx, s.logger, "sign_in")
	s.start()

	res, err := s.auth.SignIn(ctx, c)
	if err == nil {
		err = s.persist(res.Token, res.User)
	}
	if err != nil {
		logger.Warn("sign in failed", "err", err)
		s.finish(err, "Login failed", nil)
		return err
	}

	user := res.User
	s.finish(nil, "", func() {
		s.session = model.Session{Token: res.Token, User: &user, ExpiresAt: model.TokenExpiry(res.Token)}
	})
	logger.Info("signed in", "user", user.Email)
	return nil
}

func (s *SessionStore) persist(token string, user model.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	if err := s.kv.SetMany(map[string]string{db.KeyToken: token, db.KeyUser: string(raw)}); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// SignUp registers an account. It never stores a token and leaves the
// session untouched.
func (s *SessionStore) SignUp(ctx context.Context, r api.Registration) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	switch {
	case r.Name == "":
		return required("name")
	case r.Email == "":
		return required("email")
	case r.Password == "":
		return required("password")
	}

	ctx, logger := begin(ctx, s.logger, "sign_up")
	s.start()

	res, err := s.auth.SignUp(ctx, r)
	if err == nil && !res.Success {
		msg := res.Message
		if msg == "" {
			msg = "Signup failed"
		}
		err = fmt.Errorf("%w: %s", ErrSignUpRejected, msg)
	}
	if err != nil {
		logger.Warn("sign up failed", "err", err)
	} else {
		logger.Info("signed up", "email", r.Email)
	}
	s.finish(err, "Signup failed", nil)
	return err
}

// Logout forgets the session locally. The server is not contacted. Memory
// is cleared even when the stored keys cannot be removed.
func (s *SessionStore) Logout() error {
	err := s.kv.Delete(db.KeyToken, db.KeyUser)

	s.mu.Lock()
	s.session = model.Session{}
	s.mu.Unlock()
	s.subs.notify()

	if err != nil {
		s.logger.Warn("clear stored session", "err", err)
		return fmt.Errorf("clear session: %w", err)
	}
	s.logger.Info("logged out")
	return nil
}

// ErrCorruptUser is returned by Hydrate when the stored user cannot be decoded
var ErrCorruptUser = errors.New("stored user is corrupt")

// Hydrate restores token and user from storage when both are present.
// Otherwise state is left as it is.
func (s *SessionStore) Hydrate() error {
	token, _, err := s.kv.Get(db.KeyToken)
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}
	raw, _, err := s.kv.Get(db.KeyUser)
	if err != nil {
		return fmt.Errorf("read user: %w", err)
	}
	if token == "" || raw == "" {
		return nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("stored user is corrupt", "err", err)
		return fmt.Errorf("%w: %v", ErrCorruptUser, err)
	}

	s.mu.Lock()
	s.session = model.Session{Token: token, User: &user, ExpiresAt: model.TokenExpiry(token)}
	s.mu.Unlock()
	s.subs.notify()
	return nil
}
