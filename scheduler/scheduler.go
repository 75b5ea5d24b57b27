// Package scheduler runs the periodic refresh loop. One goroutine executes
// all refresh cycles serially; a scheduled tick and an on-demand RefreshNow
// can therefore never interleave their cache writes.
package scheduler

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// RefreshFunc performs one fetch-and-replace cycle.
type RefreshFunc func(ctx context.Context) error

// Stats describes the refresh loop's history since Start.
type Stats struct {
	StartTime          time.Time
	LastUpdate         time.Time
	CompletedRefreshes int64
	FailedRefreshes    int64
}

type Scheduler struct {
	refresh  RefreshFunc
	interval time.Duration

	// kick has capacity 1: while a refresh is in flight, at most one
	// follow-up is queued and further RefreshNow calls coalesce into it.
	kick   chan struct{}
	stopCh chan struct{}
	done   chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool

	mu    sync.Mutex
	stats Stats
}

func New(interval time.Duration, refresh RefreshFunc) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Scheduler{
		refresh:  refresh,
		interval: interval,
		kick:     make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the periodic refresh, running one cycle immediately.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.mu.Lock()
		s.stats.StartTime = time.Now()
		s.mu.Unlock()
		s.started.Store(true)
		go s.run()
	})
}

// Stop halts the periodic timer and waits for any in-flight cycle to finish.
// An in-flight network request is never aborted; it runs to completion.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	if s.started.Load() {
		<-s.done
	}
}

// Started reports whether the polling loop has been launched. RefreshNow is
// only serviced once it has.
func (s *Scheduler) Started() bool { return s.started.Load() }

// RefreshNow requests an immediate out-of-band refresh. At least one full
// cycle is guaranteed to complete after this call returns; if a cycle is
// already in flight, exactly one follow-up runs once it resolves.
func (s *Scheduler) RefreshNow() {
	select {
	case s.kick <- struct{}{}:
	default:
		// A follow-up is already queued.
	}
}

func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Scheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle()
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.kick:
			s.runCycle()
		case <-ticker.C:
			s.runCycle()
		}
	}
}

// runCycle executes one refresh. A failed cycle logs and moves on; the next
// tick proceeds independently.
func (s *Scheduler) runCycle() {
	err := s.refresh(context.Background())

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.stats.FailedRefreshes++
		log.Printf("Refresh cycle failed: %v", err)
		return
	}
	s.stats.CompletedRefreshes++
	s.stats.LastUpdate = time.Now()
}
