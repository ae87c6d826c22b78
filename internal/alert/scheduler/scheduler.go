// Package scheduler runs deferred callbacks that can be cancelled by key.
package scheduler

import (
	"sync"
	"time"
)

// TimerScheduler schedules callbacks on time.AfterFunc. Several tasks may
// share a key; Cancel drops all of them.
type TimerScheduler struct {
	mu      sync.Mutex
	tasks   map[string]map[uint64]*time.Timer
	nextID  uint64
	stopped bool
	// running counts claimed callbacks that have not returned.
	running sync.WaitGroup
}

func New() *TimerScheduler {
	return &TimerScheduler{tasks: make(map[string]map[uint64]*time.Timer)}
}

// Schedule runs fn after delay unless key is cancelled first. Calls after Stop
// are ignored.
func (s *TimerScheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	id := s.nextID
	s.nextID++
	if s.tasks[key] == nil {
		s.tasks[key] = make(map[uint64]*time.Timer)
	}
	s.tasks[key][id] = time.AfterFunc(delay, func() {
		if !s.claim(key, id) {
			return
		}
		defer s.running.Done()
		fn()
	})
}

// claim removes the task entry and reports whether it was still pending.
// A task cancelled after its timer fired but before claim never runs.
// A successful claim is counted in running before the lock is released, so it
// is always visible to a Wait that follows Stop.
func (s *TimerScheduler) claim(key string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	group, ok := s.tasks[key]
	if !ok {
		return false
	}
	if _, ok := group[id]; !ok {
		return false
	}
	delete(group, id)
	if len(group) == 0 {
		delete(s.tasks, key)
	}
	s.running.Add(1)
	return true
}

// Cancel stops every pending task for key and returns how many were dropped.
func (s *TimerScheduler) Cancel(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	group := s.tasks[key]
	for _, t := range group {
		t.Stop()
	}
	delete(s.tasks, key)
	return len(group)
}

// Pending returns the number of tasks still waiting for key.
func (s *TimerScheduler) Pending(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks[key])
}

// Stop cancels everything and rejects new tasks.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for key, group := range s.tasks {
		for _, t := range group {
			t.Stop()
		}
		delete(s.tasks, key)
	}
}

// Wait blocks until every claimed callback has returned. Call it after Stop.
func (s *TimerScheduler) Wait() {
	s.running.Wait()
}
