package easyfs

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func testLockerMutualExclusion(t *testing.T, l Locker) {
	t.Helper()
	var counter int
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Lock()
			defer l.Unlock()
			counter++
		}()
	}
	wg.Wait()
	require.Equal(t, 100, counter)
}

func TestBlockingMutexExcludesConcurrentWriters(t *testing.T) {
	testLockerMutualExclusion(t, NewBlockingMutex())
}

func TestSpinLockExcludesConcurrentWriters(t *testing.T) {
	testLockerMutualExclusion(t, NewSpinLock())
}

func TestNoopLockDoesNotPanic(t *testing.T) {
	var l NoopLock
	l.Lock()
	l.Unlock()
}
