package db

import (
	"database/sql"
	"errors"
	"time"
)

// Keys of the persisted client slot
const (
	KeyToken = "token"
	KeyUser  = "user"
	KeyDark  = "dark"
)

// Get returns the value stored under key. found is false when the key is absent.
func (db *DB) Get(key string) (string, bool, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores value under key, replacing any previous value
func (db *DB) Set(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	return err
}

// SetMany stores several keys atomically
func (db *DB) SetMany(values map[string]string) error {
	now := time.Now()
	return db.update(func(tx *sql.Tx) error {
		for k, v := range values {
			_, err := tx.Exec(`
				INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
			`, k, v, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes the given keys. Missing keys are not an error.
func (db *DB) Delete(keys ...string) error {
	return db.update(func(tx *sql.Tx) error {
		for _, k := range keys {
			if _, err := tx.Exec(`DELETE FROM kv WHERE key = ?`, k); err != nil {
				return err
			}
		}
		return nil
	})
}
