package ca

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDCounterSkipsLiveIDs(t *testing.T) {
	var c IDCounter
	live := map[uint32]struct{}{1: {}, 2: {}}
	id := c.Next(LiveIDSetFunc(func(id uint32) bool {
		_, ok := live[id]
		return ok
	}))
	assert.Equal(t, uint32(3), id)
}

func TestIDCounterNilLiveSetNeverSkips(t *testing.T) {
	var c IDCounter
	first := c.Next(nil)
	second := c.Next(nil)
	assert.Equal(t, first+1, second)
}

func TestIDCounterConcurrentNextNeverRepeats(t *testing.T) {
	var c IDCounter
	var mu sync.Mutex
	seen := make(map[uint32]struct{})
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := c.Next(nil)
			mu.Lock()
			_, dup := seen[id]
			seen[id] = struct{}{}
			mu.Unlock()
			assert.False(t, dup)
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 100)
}
