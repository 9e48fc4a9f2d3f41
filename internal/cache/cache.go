// Package cache holds the in-memory mirror of persisted user collections.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
)

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Collections mirrors each user's transaction collection. Slices are copied
// on the way in and out so the mirror cannot be mutated by callers.
type Collections struct {
	lru *LRUCache[[]core.Transaction]
}

// NewCollections creates a collection mirror holding at most maxUsers
// collections for ttl each.
func NewCollections(maxUsers int, ttl time.Duration) *Collections {
	return &Collections{lru: NewLRUCache[[]core.Transaction](maxUsers, ttl)}
}

func (c *Collections) Get(userID string) ([]core.Transaction, bool) {
	txs, ok := c.lru.Get(userID)
	if !ok {
		return nil, false
	}
	return clone(txs), true
}

func (c *Collections) Set(userID string, txs []core.Transaction) {
	c.lru.Set(userID, clone(txs))
}

func (c *Collections) Delete(userID string) { c.lru.Delete(userID) }

func (c *Collections) Size() int { return c.lru.Size() }

func (c *Collections) CleanExpired() int { return c.lru.CleanExpired() }

func clone(txs []core.Transaction) []core.Transaction {
	if txs == nil {
		return []core.Transaction{}
	}
	return append(make([]core.Transaction, 0, len(txs)), txs...)
}

// Manager periodically drops expired entries from registered caches.
type Manager struct {
	caches      []Cleaner
	logger      *slog.Logger
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	stopOnce    sync.Once
	started     bool
}

// NewManager creates a new cache manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:      logger,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup begins periodic cleanup of all registered caches.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				m.logger.Debug("Cache cleanup completed", "entries_removed", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// CleanNow runs one cleanup pass and returns the number of dropped entries.
func (m *Manager) CleanNow() int {
	total := 0
	for _, c := range m.caches {
		total += c.CleanExpired()
	}
	return total
}

// Stop halts the cleanup goroutine. Safe to call more than once.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCleanup)
		if m.started {
			<-m.cleanupDone
		}
	})
}
