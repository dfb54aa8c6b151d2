package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestSteppingClock_StrictlyIncreasing(t *testing.T) {
	clock := NewSteppingClock(epoch)

	assert.Equal(t, epoch, clock.Now())
	assert.Equal(t, epoch.Add(time.Second), clock.Now())
	assert.Equal(t, epoch.Add(2*time.Second), clock.Now())
}

func TestSteppingClock_Set(t *testing.T) {
	clock := NewSteppingClock(epoch)
	clock.Now()
	clock.Now()

	clock.Set(epoch)
	assert.Equal(t, epoch, clock.Now())
}

func TestSteppingClock_ThreadSafe(t *testing.T) {
	clock := NewSteppingClock(epoch)
	const goroutines = 50
	const callsEach = 50

	var wg sync.WaitGroup
	wg.Add(goroutines)
	results := make([][]time.Time, goroutines)
	for i := 0; i < goroutines; i++ {
		results[i] = make([]time.Time, callsEach)
		go func(idx int) {
			defer wg.Done()
			for j := 0; j < callsEach; j++ {
				results[idx][j] = clock.Now()
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[time.Time]bool)
	for i := range results {
		for _, ts := range results[i] {
			require.False(t, seen[ts], "duplicate timestamp %v", ts)
			seen[ts] = true
		}
	}
	assert.Len(t, seen, goroutines*callsEach)
}

func TestSequentialIDs(t *testing.T) {
	ids := NewSequentialIDs("commit")
	assert.Equal(t, "commit-0001", ids.NewID())
	assert.Equal(t, "commit-0002", ids.NewID())

	def := NewSequentialIDs("")
	assert.Equal(t, "id-0001", def.NewID())
}
