package keymutex

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializesPerKey(t *testing.T) {
	m := New()

	var a, b int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock := m.Lock("a")
			defer unlock()
			a++
		}()
		go func() {
			defer wg.Done()
			unlock := m.Lock("b")
			defer unlock()
			b++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, a)
	assert.Equal(t, 50, b)
}

func TestEntriesAreReleased(t *testing.T) {
	m := New()

	unlock := m.Lock("k")
	unlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.locks)
}

func TestDifferentKeysDoNotBlock(t *testing.T) {
	m := New()

	unlockA := m.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := m.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
}
