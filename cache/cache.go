// Package cache holds the last-known active sessions and history. The server
// owns canonical state; this is a disposable projection rebuilt by each
// refresh cycle. Lists are replaced whole, never patched, so a reader can
// never observe a mix of two refreshes in one list.
package cache

import (
	"sync"

	"github.com/fieldsafe/loneworker/types"
)

// Snapshot is a point-in-time copy of the cache for readers.
type Snapshot struct {
	Active  []types.Session
	History []types.HistoryRecord

	// Loaded flags distinguish "never fetched" from "fetched, empty".
	ActiveLoaded  bool
	HistoryLoaded bool

	// Last refresh error per list, nil after a successful refresh.
	ActiveErr  error
	HistoryErr error
}

type Cache struct {
	mu sync.RWMutex

	active  []types.Session
	history []types.HistoryRecord

	activeLoaded  bool
	historyLoaded bool
	activeErr     error
	historyErr    error

	stale bool

	// Refresh ordering. Each refresh cycle obtains a token from Begin;
	// writes carrying a token older than the last applied one are
	// discarded, so a slow response cannot overwrite a newer refresh.
	nextSeq    uint64
	activeSeq  uint64
	historySeq uint64
}

func New() *Cache {
	return &Cache{}
}

// Begin allocates the sequence token for one refresh cycle. Call it before
// issuing the cycle's network requests.
func (c *Cache) Begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSeq++
	return c.nextSeq
}

// ReplaceActive atomically replaces the active-session list. It reports
// whether the write was applied; writes from superseded refreshes are
// dropped.
func (c *Cache) ReplaceActive(seq uint64, sessions []types.Session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.activeSeq {
		return false
	}
	c.activeSeq = seq
	c.active = sessions
	c.activeLoaded = true
	c.activeErr = nil
	c.stale = false
	return true
}

// ReplaceHistory atomically replaces the history list.
func (c *Cache) ReplaceHistory(seq uint64, records []types.HistoryRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.historySeq {
		return false
	}
	c.historySeq = seq
	c.history = records
	c.historyLoaded = true
	c.historyErr = nil
	c.stale = false
	return true
}

// SetActiveError records a failed active-session refresh. The previous list
// is kept; transient failures must not clear what is already rendered.
func (c *Cache) SetActiveError(seq uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.activeSeq {
		return
	}
	c.activeSeq = seq
	c.activeErr = err
}

// SetHistoryError records a failed history refresh, keeping the old list.
func (c *Cache) SetHistoryError(seq uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.historySeq {
		return
	}
	c.historySeq = seq
	c.historyErr = err
}

// Invalidate marks the cache stale. Data stays readable; callers that see
// Stale should trigger a refresh.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
}

func (c *Cache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}

// Snapshot returns a copy of the current state. The slices are copied so a
// later refresh cannot mutate what a reader is holding.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap := Snapshot{
		ActiveLoaded:  c.activeLoaded,
		HistoryLoaded: c.historyLoaded,
		ActiveErr:     c.activeErr,
		HistoryErr:    c.historyErr,
	}
	if c.active != nil {
		snap.Active = make([]types.Session, len(c.active))
		copy(snap.Active, c.active)
	}
	if c.history != nil {
		snap.History = make([]types.HistoryRecord, len(c.history))
		copy(snap.History, c.history)
	}
	return snap
}
