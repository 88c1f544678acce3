package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, dbPath
}

func TestGetMissingKey(t *testing.T) {
	db, _ := openTestDB(t)

	value, found, err := db.Get(KeyToken)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if found || value != "" {
		t.Fatalf("expected missing key, got found=%v value=%q", found, value)
	}
}

func TestSetOverwrites(t *testing.T) {
	db, _ := openTestDB(t)

	if err := db.Set(KeyDark, "false"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := db.Set(KeyDark, "true"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, found, err := db.Get(KeyDark)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !found || value != "true" {
		t.Fatalf("got found=%v value=%q, want true", found, value)
	}
}

// TestSlotSurvivesReopen checks the slot outlives the process that wrote it.
func TestSlotSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.SetMany(map[string]string{KeyToken: "abc", KeyUser: `{"id":"u1"}`}); err != nil {
		t.Fatalf("SetMany failed: %v", err)
	}
	db.Close()

	db, err = Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db.Close()

	for key, want := range map[string]string{KeyToken: "abc", KeyUser: `{"id":"u1"}`} {
		got, found, err := db.Get(key)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", key, err)
		}
		if !found || got != want {
			t.Fatalf("Get(%s) = %q (found=%v), want %q", key, got, found, want)
		}
	}
}

func TestDeleteRemovesOnlyNamedKeys(t *testing.T) {
	db, _ := openTestDB(t)

	if err := db.SetMany(map[string]string{KeyToken: "abc", KeyUser: "{}", KeyDark: "true"}); err != nil {
		t.Fatalf("SetMany failed: %v", err)
	}
	if err := db.Delete(KeyToken, KeyUser, "never-set"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, key := range []string{KeyToken, KeyUser} {
		if _, found, _ := db.Get(key); found {
			t.Fatalf("key %s still present after Delete", key)
		}
	}
	if v, found, _ := db.Get(KeyDark); !found || v != "true" {
		t.Fatalf("dark flag was touched: found=%v value=%q", found, v)
	}
}

// TestConcurrentAccessNoDeadlock guards the single-connection pool: many
// goroutines reading and writing must all finish.
func TestConcurrentAccessNoDeadlock(t *testing.T) {
	db, _ := openTestDB(t)

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				key := fmt.Sprintf("k%d", i%4)
				if err := db.Set(key, fmt.Sprint(i)); err != nil {
					t.Errorf("Set failed: %v", err)
					return
				}
				if _, _, err := db.Get(key); err != nil {
					t.Errorf("Get failed: %v", err)
				}
			}(i)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Test timed out - possible deadlock detected")
	}
}

func TestFailedUpdateRollsBack(t *testing.T) {
	db, _ := openTestDB(t)
	if err := db.Set(KeyToken, "old"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	boom := errors.New("boom")
	err := db.update(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE kv SET value = ? WHERE key = ?`, "new", KeyToken); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("update err = %v, want boom", err)
	}

	if v, _, _ := db.Get(KeyToken); v != "old" {
		t.Fatalf("token = %q after a failed update, want old", v)
	}
}

func TestSlotFileIsPrivate(t *testing.T) {
	_, path := openTestDB(t)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("mode = %v, want 0600", perm)
	}
}
