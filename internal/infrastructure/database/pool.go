package database

import (
	"fmt"
	"sync"
)

// DefaultCapacity is the number of idle handles a pool retains.
const DefaultCapacity = 5

// Config contains pool configuration options.
// These map to the database section of the YAML config.
type Config struct {
	// Path is the filesystem path to the SQLite database file.
	// The directory will be created if it doesn't exist.
	Path string

	// Capacity is the maximum number of idle handles kept for reuse.
	// Zero means DefaultCapacity.
	Capacity int

	// BusyTimeout is the maximum time to wait for a database lock (seconds).
	// Prevents "database is locked" errors under contention.
	BusyTimeout int
}

// Pool is a bounded last-in-first-out cache of open database handles.
//
// A Pool is bound to a single storage location for its whole lifetime;
// relocating the store means constructing a new Pool, never mutating an
// existing one. Acquire pops an idle handle or opens a fresh one, Release
// pushes the handle back or closes it when the pool is full. Neither
// operation ever blocks waiting for capacity: an overflow handle is simply
// discarded, trading a closed connection for never deadlocking a caller.
//
// Thread Safety:
//   - Acquire, Release and Close are safe for concurrent use. A lent
//     handle itself must only be used by one holder at a time.
type Pool struct {
	location    string
	capacity    int
	busyTimeout int

	mu     sync.Mutex
	idle   []*Conn
	closed bool
}

// NewPool creates a pool bound to the configured location.
//
// No handle is opened until the first Acquire, so constructing a pool
// for a not-yet-existing database file is cheap and error-free.
func NewPool(cfg Config) (*Pool, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("pool: path is required")
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Pool{
		location:    cfg.Path,
		capacity:    capacity,
		busyTimeout: cfg.BusyTimeout,
	}, nil
}

// Location returns the storage location this pool is bound to.
func (p *Pool) Location() string {
	return p.location
}

// Acquire returns an open handle to the pool's location.
//
// The most recently released idle handle is preferred; a new handle is
// opened with referential integrity enforcement when none are idle.
func (p *Pool) Acquire() (*Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("pool: closed")
	}
	if n := len(p.idle); n > 0 {
		conn := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()
		return conn, nil
	}
	p.mu.Unlock()

	conn, err := openConn(p.location, p.busyTimeout)
	if err != nil {
		return nil, fmt.Errorf("pool: %w", err)
	}
	return conn, nil
}

// Release returns a handle to the pool.
//
// The handle is closed instead of cached when the pool is full, closed,
// or the handle belongs to a different location. The caller must not use
// the handle after releasing it.
func (p *Pool) Release(conn *Conn) {
	if conn == nil {
		return
	}

	p.mu.Lock()
	if !p.closed && conn.location == p.location && len(p.idle) < p.capacity {
		p.idle = append(p.idle, conn)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	conn.Close() //nolint:errcheck // Overflow handles are discarded, not queued
}

// IdleCount returns the number of idle handles currently cached.
func (p *Pool) IdleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

// Close closes all idle handles and marks the pool closed.
//
// Handles currently lent out are closed by Release when returned.
func (p *Pool) Close() error {
	p.mu.Lock()
	idle := p.idle
	p.idle = nil
	p.closed = true
	p.mu.Unlock()

	var firstErr error
	for _, conn := range idle {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
