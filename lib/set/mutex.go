package set

import (
	"runtime"
	"sync"
	"sync/atomic"
)

const unlocked = uint64(0)

// nodeMutex is the per-node lock behind the hand-over-hand traversal.
// An acquired lock is an owned value for the caller: the (node, version)
// pair lives in ordinary locals and is released by an explicit unlock
// call at whatever point the traversal chooses, never by scope exit.
// The spin implementation stamps the operation's version into the lock
// word; a failed unlock CAS means the word no longer carries that
// version and the node state can't be trusted (lock poisoning analogue).
type nodeMutex interface {
	lock(version uint64)
	tryLock(version uint64) bool
	unlock(version uint64) bool
}

type mutexImpl uint8

const (
	xSetSpinMutex mutexImpl = 1 + iota // Lock-free, spin-lock, optimistic-lock
	xSetGoMutex                        // Go native sync mutex
	xSetFakeMutex                      // No lock
)

func (mu mutexImpl) String() string {
	switch mu {
	case xSetSpinMutex:
		return "spin"
	case xSetGoMutex:
		return "go"
	case xSetFakeMutex:
		return "fake"
	default:
		return "unknown"
	}
}

type spinMutex uint64

func (m *spinMutex) lock(version uint64) {
	backoff := uint8(1)
	for !atomic.CompareAndSwapUint64((*uint64)(m), unlocked, version) {
		for i := uint8(0); i < backoff; i++ {
			runtime.Gosched()
		}
		if backoff < 32 {
			backoff <<= 1
		}
	}
}

func (m *spinMutex) tryLock(version uint64) bool {
	return atomic.CompareAndSwapUint64((*uint64)(m), unlocked, version)
}

func (m *spinMutex) unlock(version uint64) bool {
	return atomic.CompareAndSwapUint64((*uint64)(m), version, unlocked)
}

type goSyncMutex struct {
	mu sync.Mutex
}

func (m *goSyncMutex) lock(version uint64) {
	m.mu.Lock()
}

func (m *goSyncMutex) tryLock(version uint64) bool {
	return m.mu.TryLock()
}

func (m *goSyncMutex) unlock(version uint64) bool {
	m.mu.Unlock()
	return true
}

type fakeMutex struct{}

func (m *fakeMutex) lock(version uint64)         {}
func (m *fakeMutex) tryLock(version uint64) bool { return true }
func (m *fakeMutex) unlock(version uint64) bool  { return true }

func mutexFactory(e mutexImpl) nodeMutex {
	switch e {
	case xSetGoMutex:
		return &goSyncMutex{}
	case xSetFakeMutex:
		return &fakeMutex{}
	default:
		return new(spinMutex)
	}
}
