package swiftkit

import (
	"time"
)

// poolEntry pairs a released connection with the time it went idle. The
// timestamp is informational; it plays no part in eviction.
type poolEntry struct {
	released time.Time
	conn     *Connection
}

// ConnectionPool is a bounded, goroutine-safe cache of idle Connections for
// reuse across concurrent workers, keyed by one fixed set of credentials.
//
// The pool performs no health check on Get: a connection that was
// mid-failure when released may be handed out, and its next request will go
// through the normal reconnect/re-auth recovery. That trade-off is by
// contract; callers own correctness of released connections.
type ConnectionPool struct {
	auth    Authenticator
	opts    *ConnectionOptions
	entries chan poolEntry
}

// NewConnectionPool returns a pool that dials new Connections with the
// given Authenticator when empty. size bounds the number of idle
// connections kept; zero means DefaultPoolSize.
func NewConnectionPool(auth Authenticator, size int, opts *ConnectionOptions) *ConnectionPool {
	if size <= 0 {
		size = DefaultPoolSize
	}
	return &ConnectionPool{
		auth:    auth,
		opts:    opts,
		entries: make(chan poolEntry, size),
	}
}

// Get pops an idle Connection, or constructs and authenticates a brand-new
// one when the pool is empty. It never blocks waiting for a release.
func (p *ConnectionPool) Get() (*Connection, error) {
	select {
	case entry := <-p.entries:
		return entry.conn, nil
	default:
		return NewConnection(p.auth, p.opts)
	}
}

// Put returns a Connection to the pool. When the pool is at capacity the
// connection is closed and dropped.
func (p *ConnectionPool) Put(conn *Connection) {
	select {
	case p.entries <- poolEntry{released: time.Now(), conn: conn}:
	default:
		conn.Close()
	}
}

// Close tears down every idle connection currently in the pool.
func (p *ConnectionPool) Close() {
	for {
		select {
		case entry := <-p.entries:
			entry.conn.Close()
		default:
			return
		}
	}
}

// Idle reports the number of connections currently parked in the pool.
func (p *ConnectionPool) Idle() int {
	return len(p.entries)
}
