package database

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestPool creates a pool over a temp database file.
func newTestPool(t *testing.T, capacity int) *Pool {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	pool, err := NewPool(Config{
		Path:        dbPath,
		Capacity:    capacity,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	return pool
}

func TestNewPool(t *testing.T) {
	t.Run("requires path", func(t *testing.T) {
		if _, err := NewPool(Config{}); err == nil {
			t.Error("NewPool() with empty path should error")
		}
	})

	t.Run("defaults capacity", func(t *testing.T) {
		pool, err := NewPool(Config{Path: filepath.Join(t.TempDir(), "test.db")})
		if err != nil {
			t.Fatalf("NewPool() error = %v", err)
		}
		defer pool.Close() //nolint:errcheck // Test cleanup
		if pool.capacity != DefaultCapacity {
			t.Errorf("capacity = %d, want %d", pool.capacity, DefaultCapacity)
		}
	})
}

func TestPoolAcquire(t *testing.T) {
	t.Run("creates database file", func(t *testing.T) {
		pool := newTestPool(t, 5)

		conn, err := pool.Acquire()
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		defer pool.Release(conn)

		if _, err := os.Stat(pool.Location()); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("reuses released handle", func(t *testing.T) {
		pool := newTestPool(t, 5)

		conn, err := pool.Acquire()
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		pool.Release(conn)

		if pool.IdleCount() != 1 {
			t.Fatalf("IdleCount() = %d, want 1", pool.IdleCount())
		}

		again, err := pool.Acquire()
		if err != nil {
			t.Fatalf("second Acquire() error = %v", err)
		}
		defer pool.Release(again)

		if again != conn {
			t.Error("Acquire() did not reuse the released handle")
		}
		if pool.IdleCount() != 0 {
			t.Errorf("IdleCount() = %d, want 0 after reuse", pool.IdleCount())
		}
	})

	t.Run("lends most recently released first", func(t *testing.T) {
		pool := newTestPool(t, 5)

		first, err := pool.Acquire()
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		second, err := pool.Acquire()
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}

		pool.Release(first)
		pool.Release(second)

		got, err := pool.Acquire()
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		defer pool.Release(got)
		if got != second {
			t.Error("Acquire() should pop the last released handle (LIFO)")
		}
	})

	t.Run("errors after close", func(t *testing.T) {
		pool := newTestPool(t, 5)
		if err := pool.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if _, err := pool.Acquire(); err == nil {
			t.Error("Acquire() on closed pool should error")
		}
	})
}

func TestPoolRelease(t *testing.T) {
	t.Run("closes overflow handles", func(t *testing.T) {
		pool := newTestPool(t, 2)

		conns := make([]*Conn, 0, 3)
		for i := 0; i < 3; i++ {
			conn, err := pool.Acquire()
			if err != nil {
				t.Fatalf("Acquire() #%d error = %v", i, err)
			}
			conns = append(conns, conn)
		}

		for _, conn := range conns {
			pool.Release(conn)
		}

		// Capacity 2: the third release must close rather than queue.
		if pool.IdleCount() != 2 {
			t.Errorf("IdleCount() = %d, want 2", pool.IdleCount())
		}
	})

	t.Run("closes handles released after close", func(t *testing.T) {
		pool := newTestPool(t, 5)

		conn, err := pool.Acquire()
		if err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
		if err := pool.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		pool.Release(conn)
		if pool.IdleCount() != 0 {
			t.Errorf("IdleCount() = %d, want 0 after close", pool.IdleCount())
		}

		// The handle must actually be closed.
		if err := conn.DB.Ping(); err == nil {
			t.Error("released handle should be closed after pool close")
		}
	})

	t.Run("ignores nil", func(t *testing.T) {
		pool := newTestPool(t, 5)
		pool.Release(nil) // must not panic
	})
}

func TestConnForeignKeys(t *testing.T) {
	pool := newTestPool(t, 5)

	conn, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer pool.Release(conn)

	var enabled int
	if err := conn.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		t.Fatalf("PRAGMA foreign_keys error = %v", err)
	}
	if enabled != 1 {
		t.Error("foreign key enforcement should be on for every handle")
	}
}
