// Package db is the local persisted slot: a small sqlite key/value table
// holding the session token, the signed-in user and the theme flag.
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB is the sqlite handle behind the slot
type DB struct {
	*sql.DB
}

// DefaultDataDir is ~/.local/share/boardly, or .boardly when there is no home
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".boardly"
	}
	return filepath.Join(home, ".local", "share", "boardly")
}

// Open opens (creating if needed) the slot at path and brings its schema up
// to date. The file is restricted to the current user since it holds a
// bearer token.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	// WAL lets a CLI subcommand read the slot while the TUI holds it open
	conn, err := sql.Open("sqlite3", "file:"+path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	d := &DB{DB: conn}
	if err := d.init(path); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

func (d *DB) init(path string) error {
	if err := d.Ping(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := d.migrate(context.Background()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := os.Chmod(path, 0600); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("restrict permissions: %w", err)
	}
	return nil
}

// migrate applies pending embedded migrations. The provider is not verbose,
// so nothing is written to the terminal the TUI owns.
func (d *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	p, err := goose.NewProvider(goose.DialectSQLite3, d.DB, fsys)
	if err != nil {
		return err
	}
	_, err = p.Up(ctx)
	return err
}

// update runs fn in a transaction, committing only when fn succeeds
func (d *DB) update(fn func(*sql.Tx) error) (err error) {
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, rbErr)
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
