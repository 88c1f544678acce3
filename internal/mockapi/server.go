// Package mockapi is an in-memory implementation of the boardly REST
// contract. It backs the api and store tests and cmd/boardly-mock; it is not
// a production backend.
package mockapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/dori/boardly/internal/model"
)

// DefaultTokenTTL is how long issued tokens stay valid
const DefaultTokenTTL = 24 * time.Hour

type account struct {
	id   string
	name string
	mail string
	hash []byte
}

type boardRow struct {
	board model.Board
	owner string
}

// Server holds users, boards and todos in memory
type Server struct {
	mu       sync.Mutex
	accounts map[string]*account // by email
	boards   map[string]*boardRow
	order    []string // board ids in creation order
	todos    map[string]*model.Todo
	todoSeq  []string // todo ids in creation order

	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time
	logger *log.Logger
	router chi.Router
}

// Option configures a Server
type Option func(*Server)

// WithSecret sets the HS256 signing key
func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

// WithTokenTTL sets the lifetime of issued tokens
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.ttl = d }
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Server) { s.cost = cost }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithLogger enables request logging
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New creates an empty server
func New(opts ...Option) *Server {
	s := &Server{
		accounts: make(map[string]*account),
		boards:   make(map[string]*boardRow),
		todos:    make(map[string]*model.Todo),
		secret:   []byte("boardly-mock-secret"),
		ttl:      DefaultTokenTTL,
		cost:     bcrypt.DefaultCost,
		now:      time.Now,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Route("/boards", func(r chi.Router) {
			r.Get("/", s.handleListBoards)
			r.Post("/", s.handleCreateBoard)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetBoard)
				r.Put("/", s.handleUpdateBoard)
				r.Delete("/", s.handleDeleteBoard)
			})
		})

		r.Route("/todos", func(r chi.Router) {
			r.Post("/", s.handleCreateTodo)
			r.Get("/board/{boardId}", s.handleListTodos)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", s.handleUpdateTodo)
				r.Delete("/", s.handleDeleteTodo)
			})
		})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
