package easyfs

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Locker is the mutual-exclusion capability the core is parametric over:
// one instance guards the EFS, one guards the BCM, and one guards each
// cache slot (spec.md §5, "Lock hierarchy"). A kernel build can supply a
// spinlock, a userspace packer a blocking mutex, and tests a no-op.
type Locker interface {
	Lock()
	Unlock()
}

// BlockingMutex is a Locker backed by sync.Mutex, suitable for a userspace
// packer or any caller that can afford to block the OS thread while waiting.
type BlockingMutex struct {
	mu sync.Mutex
}

func NewBlockingMutex() *BlockingMutex { return &BlockingMutex{} }

func (m *BlockingMutex) Lock()   { m.mu.Lock() }
func (m *BlockingMutex) Unlock() { m.mu.Unlock() }

// SpinLock is a Locker that busy-waits on a CAS loop, yielding the
// scheduler between attempts. Intended for a kernel build where blocking
// on a full mutex isn't available.
type SpinLock struct {
	state uint32
}

func NewSpinLock() *SpinLock { return &SpinLock{} }

func (s *SpinLock) Lock() {
	for !atomic.CompareAndSwapUint32(&s.state, 0, 1) {
		runtime.Gosched()
	}
}

func (s *SpinLock) Unlock() {
	atomic.StoreUint32(&s.state, 0)
}

// NoopLock is a Locker that performs no synchronization at all. It exists
// for single-threaded tests and for the no-op variant spec.md §9 calls
// out explicitly ("Tests should additionally provide a no-op
// single-threaded implementation").
type NoopLock struct{}

func (NoopLock) Lock()   {}
func (NoopLock) Unlock() {}

// LockerFactory constructs a fresh Locker of whichever kind a caller wants
// each cache slot, the BCM, or the EFS to use. EasyFileSystem and
// BlockCacheManager both take one of these as a construction option
// instead of hardcoding sync.Mutex, mirroring the teacher's functional
// option style (options.go) for anything that varies by deployment.
type LockerFactory func() Locker

// DefaultLockerFactory returns BlockingMutex instances, the right default
// for a host-side packer or FUSE mount.
func DefaultLockerFactory() Locker { return NewBlockingMutex() }
