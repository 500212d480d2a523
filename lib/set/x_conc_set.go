package set

// References:
// https://people.csail.mit.edu/shanir/publications/LazySkipList.pdf
// The Art of Multiprocessor Programming, ch. 9 (fine-grained synchronization).

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/multierr"

	"github.com/benz9527/xcset/lib/id"
	"github.com/benz9527/xcset/lib/infra"
)

const (
	xConcSetValReplace = 1 << iota
)

var (
	_ OrderedSet[uint8, uint8] = (*xConcSet[uint8, uint8])(nil)
)

type xConcSet[K infra.OrderedKey, V any] struct {
	head     *xConcSetNode[K, V]
	tail     *xConcSetNode[K, V]
	kcmp     infra.OrderedKeyComparator[K]
	optVer   id.UUIDGen
	stats    *setStats
	flags    flagBits
	lockMode mutexImpl
	nodeLen  int64
}

func (set *xConcSet[K, V]) Len() int64 {
	return atomic.LoadInt64(&set.nodeLen)
}

func (set *xConcSet[K, V]) isValReplaced() bool {
	return set.flags.isSet(xConcSetValReplace)
}

// find walks from the head sentinel toward key with hand-over-hand
// locking. From the first acquisition until the caller releases the
// returned pair, at least one of the two locks is held continuously
// (both during the handoff), so no other goroutine can splice nodes
// into or out of the region being traversed without blocking first.
//
//	+------+       +------+
//	| pred |------>| curr |      pred.key < key <= curr.key
//	+------+       +------+
//	 locked         locked
//
// The trailing lock is released only after the leading one is held.
// Locks are acquired strictly in list order (head toward tail), never
// backwards, so no wait-for cycle between operations can form.
// Termination: curr's key strictly increases per step and the tail
// sentinel compares greater than every search key.
func (set *xConcSet[K, V]) find(key K, ver uint64) (pred, curr *xConcSetNode[K, V], err error) {
	pred = set.head
	pred.mu.lock(ver)
	curr = pred.next
	curr.mu.lock(ver)
	for curr.keyCompare(set.kcmp, key) < 0 {
		if !pred.mu.unlock(ver) {
			_ = curr.mu.unlock(ver)
			return nil, nil, fmt.Errorf("%w: traversal lock handoff failed", ErrXConcSetLockCorrupted)
		}
		pred = curr
		curr = pred.next
		curr.mu.lock(ver)
	}
	return pred, curr, nil
}

// release drops the traversal pair, pred before curr. After an unlink
// this order guarantees that the moment another goroutine can observe
// the updated pred.next, curr is already unreachable from head.
func (set *xConcSet[K, V]) release(ver uint64, pred, curr *xConcSetNode[K, V]) error {
	var err error
	if !pred.mu.unlock(ver) {
		err = multierr.Append(err, fmt.Errorf("%w: pred lock version mismatch", ErrXConcSetLockCorrupted))
	}
	if !curr.mu.unlock(ver) {
		err = multierr.Append(err, fmt.Errorf("%w: curr lock version mismatch", ErrXConcSetLockCorrupted))
	}
	return err
}

// Insert adds the key with its value. A duplicate key is rejected with
// ErrXConcSetKeyExists unless value replacement was enabled at
// construction, in which case the value is swapped in place.
func (set *xConcSet[K, V]) Insert(key K, val V) error {
	ver := set.optVer.Number()
	pred, curr, err := set.find(key, ver)
	if err != nil {
		return err
	}
	if curr.keyCompare(set.kcmp, key) == 0 {
		if set.isValReplaced() {
			curr.storeVal(val)
			set.stats.IncreaseReplacedCount()
			return set.release(ver, pred, curr)
		}
		set.stats.IncreaseConflictCount()
		return multierr.Append(ErrXConcSetKeyExists, set.release(ver, pred, curr))
	}
	// The splice. pred's lock protects both pred.next and the region the
	// new node is linked into, so other traversals observe it atomically.
	n := newXConcSetNode[K, V](key, val, curr, set.lockMode)
	pred.next = n
	atomic.AddInt64(&set.nodeLen, 1)
	set.stats.IncreaseInsertedCount()
	set.stats.RecordElementCount(1)
	return set.release(ver, pred, curr)
}

// Remove unlinks the key's node and returns the removed element.
// The unlink happens before any lock release; reclamation is left to
// the GC, which is safe immediately because a traversal wishing to
// reach curr must first lock pred, and by the time pred is released
// pred.next no longer points at curr.
func (set *xConcSet[K, V]) Remove(key K) (SetElement[K, V], error) {
	ver := set.optVer.Number()
	pred, curr, err := set.find(key, ver)
	if err != nil {
		return nil, err
	}
	if curr.keyCompare(set.kcmp, key) != 0 {
		set.stats.IncreaseNotFoundCount()
		return nil, multierr.Append(ErrXConcSetNotFound, set.release(ver, pred, curr))
	}
	pred.next = curr.next // The unlink.
	atomic.AddInt64(&set.nodeLen, -1)
	set.stats.IncreaseRemovedCount()
	set.stats.RecordElementCount(-1)
	e := &xSetElement[K, V]{key: curr.key, val: curr.loadVal()}
	return e, set.release(ver, pred, curr)
}

// Contains reports whether the key is present. No side effects; the
// answer is exact as of the instant find pinned the bracketing pair.
func (set *xConcSet[K, V]) Contains(key K) (bool, error) {
	ver := set.optVer.Number()
	pred, curr, err := set.find(key, ver)
	if err != nil {
		return false, err
	}
	found := curr.keyCompare(set.kcmp, key) == 0
	set.stats.IncreaseContainsCount(found)
	return found, set.release(ver, pred, curr)
}

// foreach walks the whole list under the same lock-coupling discipline
// as find. Serves the tests' order audits; deliberately unexported, an
// iteration surface is not part of the set API.
func (set *xConcSet[K, V]) foreach(fn func(key K, val V) bool) error {
	ver := set.optVer.Number()
	pred := set.head
	pred.mu.lock(ver)
	curr := pred.next
	curr.mu.lock(ver)
	for !curr.flags.isSet(nodeTailSentinel) {
		if !fn(curr.key, curr.loadVal()) {
			break
		}
		if !pred.mu.unlock(ver) {
			_ = curr.mu.unlock(ver)
			return fmt.Errorf("%w: traversal lock handoff failed", ErrXConcSetLockCorrupted)
		}
		pred = curr
		curr = pred.next
		curr.mu.lock(ver)
	}
	return set.release(ver, pred, curr)
}

// NewXConcSet builds an empty concurrent ordered set bounded by two
// permanent sentinel nodes. A nil kcmp falls back to the keys' natural
// ascending order.
func NewXConcSet[K infra.OrderedKey, V any](kcmp infra.OrderedKeyComparator[K], opts ...SetOption[K, V]) (OrderedSet[K, V], error) {
	if kcmp == nil {
		kcmp = infra.OrderedKeyAscComparator[K]
	}
	set := &xConcSet[K, V]{
		kcmp:     kcmp,
		lockMode: xSetSpinMutex,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(set); err != nil {
			return nil, err
		}
	}
	gen, err := id.MonotonicNonZeroID()
	if err != nil {
		return nil, err
	}
	set.optVer = gen
	// The sentinels live exactly as long as the set and are never
	// locked-and-removed; head.next == tail is the empty list.
	set.head = newXConcSetSentinel[K, V](nodeHeadSentinel, set.lockMode)
	set.tail = newXConcSetSentinel[K, V](nodeTailSentinel, set.lockMode)
	set.head.next = set.tail
	return set, nil
}
