// Package app wires configuration, the persisted slot, the api client and
// the stores into one value shared by the TUI and the CLI.
package app

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gofrs/flock"

	"github.com/dori/boardly/internal/api"
	"github.com/dori/boardly/internal/config"
	"github.com/dori/boardly/internal/db"
	"github.com/dori/boardly/internal/logging"
	"github.com/dori/boardly/internal/store"
)

// ErrLocked is returned when another TUI holds the data directory
var ErrLocked = errors.New("another instance of boardly is already running")

// App holds the application state and dependencies
type App struct {
	Config   *config.Config
	DB       *db.DB
	Client   *api.Client
	Sessions *store.SessionStore
	Boards   *store.BoardStore
	Todos    *store.TodoStore
	Theme    *store.ThemeStore
	Logger   *log.Logger

	lockFile *flock.Flock
}

// Options controls how New builds the App
type Options struct {
	// Lock takes the single-instance lock. The TUI sets it; one-shot
	// subcommands do not.
	Lock bool

	Logger     *log.Logger
	HTTPClient *http.Client
}

// New creates a new application instance
func New(cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	// Ensure data directory exists
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	a := &App{Config: cfg, Logger: logger}

	if opts.Lock {
		if err := a.acquireLock(); err != nil {
			return nil, err
		}
	}

	database, err := db.Open(cfg.DBPath())
	if err != nil {
		a.releaseLock()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database

	clientOpts := []api.Option{api.WithLogger(logger)}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(opts.HTTPClient))
	}
	a.Client = api.NewClient(cfg.APIURL, api.TokenFunc(a.token), clientOpts...)

	if err := a.initStores(); err != nil {
		a.Close()
		return nil, err
	}

	logger.Debug("app ready", "api", cfg.APIURL, "data_dir", cfg.DataDir, "authenticated", a.Sessions.Snapshot().IsAuthenticated)
	return a, nil
}

// token reads the bearer token from storage on every request, so a token
// written after startup is used right away
func (a *App) token() (string, error) {
	token, _, err := a.DB.Get(db.KeyToken)
	return token, err
}

func (a *App) initStores() error {
	sessions, err := store.NewSessionStore(a.DB, a.Client, a.Logger)
	if err != nil {
		return err
	}
	// A corrupt stored user leaves the token-only session in place
	if err := sessions.Hydrate(); err != nil {
		a.Logger.Warn("restore session", "err", err)
	}

	themes, err := store.NewThemeStore(a.DB, a.Logger)
	if err != nil {
		return err
	}

	a.Sessions = sessions
	a.Theme = themes
	a.Boards = store.NewBoardStore(a.Client, a.Logger)
	a.Todos = store.NewTodoStore(a.Client, a.Logger)
	return nil
}

// OnChange subscribes fn to every store and returns a function that
// removes all four subscriptions
func (a *App) OnChange(fn func()) func() {
	unsubs := []func(){
		a.Sessions.Subscribe(fn),
		a.Boards.Subscribe(fn),
		a.Todos.Subscribe(fn),
		a.Theme.Subscribe(fn),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// acquireLock acquires an exclusive file lock to prevent multiple instances
func (a *App) acquireLock() error {
	a.lockFile = flock.New(a.Config.LockPath())

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		return ErrLocked
	}
	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close cleans up application resources
func (a *App) Close() error {
	var errs []error

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()

	return errors.Join(errs...)
}
