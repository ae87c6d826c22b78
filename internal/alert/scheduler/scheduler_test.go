package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimerScheduler(t *testing.T) {
	t.Run("runs tasks after their delay", func(t *testing.T) {
		s := New()
		var ran atomic.Int32
		s.Schedule("a", 5*time.Millisecond, func() { ran.Add(1) })
		s.Schedule("a", 10*time.Millisecond, func() { ran.Add(1) })
		assert.Equal(t, 2, s.Pending("a"))

		assert.Eventually(t, func() bool { return ran.Load() == 2 }, time.Second, time.Millisecond)
		assert.Equal(t, 0, s.Pending("a"))
	})

	t.Run("cancel drops every task for the key only", func(t *testing.T) {
		s := New()
		var a, b atomic.Int32
		s.Schedule("a", 20*time.Millisecond, func() { a.Add(1) })
		s.Schedule("a", 30*time.Millisecond, func() { a.Add(1) })
		s.Schedule("b", 20*time.Millisecond, func() { b.Add(1) })

		assert.Equal(t, 2, s.Cancel("a"))
		assert.Equal(t, 0, s.Cancel("a"))

		assert.Eventually(t, func() bool { return b.Load() == 1 }, time.Second, time.Millisecond)
		time.Sleep(40 * time.Millisecond)
		assert.Equal(t, int32(0), a.Load())
	})

	t.Run("stop cancels everything and ignores new tasks", func(t *testing.T) {
		s := New()
		var ran atomic.Int32
		s.Schedule("a", 10*time.Millisecond, func() { ran.Add(1) })
		s.Stop()
		s.Schedule("b", time.Millisecond, func() { ran.Add(1) })

		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, int32(0), ran.Load())
		assert.Equal(t, 0, s.Pending("b"))
	})

	t.Run("wait returns only after running callbacks finish", func(t *testing.T) {
		s := New()
		started := make(chan struct{})
		release := make(chan struct{})
		var finished atomic.Bool
		s.Schedule("a", time.Millisecond, func() {
			close(started)
			<-release
			finished.Store(true)
		})
		<-started
		s.Stop()

		waited := make(chan struct{})
		go func() {
			s.Wait()
			close(waited)
		}()
		select {
		case <-waited:
			t.Fatal("wait returned while a callback was running")
		case <-time.After(20 * time.Millisecond):
		}

		close(release)
		<-waited
		assert.True(t, finished.Load())
	})
}

func TestManual(t *testing.T) {
	m := NewManual()
	var order []string
	m.Schedule("x", 2*time.Second, func() { order = append(order, "x2") })
	m.Schedule("x", time.Second, func() {
		order = append(order, "x1")
		m.Schedule("y", 500*time.Millisecond, func() { order = append(order, "y") })
	})
	m.Schedule("z", 3*time.Second, func() { order = append(order, "z") })

	m.Advance(2 * time.Second)
	assert.Equal(t, []string{"x1", "y", "x2"}, order)

	assert.Equal(t, 1, m.Cancel("z"))
	m.Advance(time.Hour)
	assert.Equal(t, []string{"x1", "y", "x2"}, order)
}
