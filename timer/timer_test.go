package timer

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManager_OneShotTimer(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	fired := make(chan struct{})
	manager.AddTimer(50*time.Millisecond, 0, func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("One-shot timer never fired")
	}
}

func TestManager_RecurringTimer(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	var count int64
	manager.AddTimer(50*time.Millisecond, 50*time.Millisecond, func() {
		atomic.AddInt64(&count, 1)
	})

	time.Sleep(400 * time.Millisecond)
	if got := atomic.LoadInt64(&count); got < 2 {
		t.Errorf("Recurring timer should have fired repeatedly, got %d", got)
	}
}

func TestManager_RemoveTimer(t *testing.T) {
	manager := NewManager()
	defer manager.Stop()

	var count int64
	id := manager.AddTimer(200*time.Millisecond, 0, func() {
		atomic.AddInt64(&count, 1)
	})
	manager.RemoveTimer(id)

	time.Sleep(400 * time.Millisecond)
	if got := atomic.LoadInt64(&count); got != 0 {
		t.Errorf("Removed timer must not fire, got %d", got)
	}
}
