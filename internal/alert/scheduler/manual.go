package scheduler

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic scheduler driven by Advance. Callbacks run on the
// goroutine calling Advance, in due-time order.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	tasks   []*manualTask
	nextSeq uint64
	stopped bool
}

type manualTask struct {
	key string
	due time.Duration
	seq uint64
	fn  func()
}

func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) Schedule(key string, delay time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.tasks = append(m.tasks, &manualTask{key: key, due: m.now + delay, seq: m.nextSeq, fn: fn})
	m.nextSeq++
}

func (m *Manual) Cancel(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tasks[:0]
	dropped := 0
	for _, t := range m.tasks {
		if t.key == key {
			dropped++
			continue
		}
		kept = append(kept, t)
	}
	m.tasks = kept
	return dropped
}

func (m *Manual) Pending(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if t.key == key {
			n++
		}
	}
	return n
}

func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	m.tasks = nil
}

// Wait is a no-op: callbacks run synchronously inside Advance.
func (m *Manual) Wait() {}

// Advance moves the clock forward by d and runs every task that became due.
// Tasks scheduled by a callback run in the same call if they fall due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		sort.Slice(m.tasks, func(i, j int) bool {
			if m.tasks[i].due == m.tasks[j].due {
				return m.tasks[i].seq < m.tasks[j].seq
			}
			return m.tasks[i].due < m.tasks[j].due
		})
		if len(m.tasks) == 0 || m.tasks[0].due > target {
			m.now = target
			m.mu.Unlock()
			return
		}
		next := m.tasks[0]
		m.tasks = m.tasks[1:]
		m.now = next.due
		m.mu.Unlock()

		next.fn()
	}
}
