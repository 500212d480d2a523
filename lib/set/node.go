package set

import (
	"sync/atomic"
	"unsafe"

	"github.com/benz9527/xcset/lib/infra"
)

const (
	nodeHeadSentinel = 1 << iota
	nodeTailSentinel
)

// xConcSetNode owns its successor chain: next is only loaded or stored
// while this node's mutex is held, so the splice in Insert and the
// unlink in Remove become visible atomically to every traversal.
type xConcSetNode[K infra.OrderedKey, V any] struct {
	key   K
	val   *V
	next  *xConcSetNode[K, V]
	mu    nodeMutex
	flags flagBits
}

func (node *xConcSetNode[K, V]) storeVal(val V) {
	atomic.StorePointer((*unsafe.Pointer)(unsafe.Pointer(&node.val)), unsafe.Pointer(&val))
}

func (node *xConcSetNode[K, V]) loadVal() V {
	return *(*V)(atomic.LoadPointer((*unsafe.Pointer)(unsafe.Pointer(&node.val))))
}

// keyCompare positions the node relative to key. Sentinels bound every
// possible key, which gives find a uniform start and stop condition.
// The sentinel marks are written once before the list is published, so
// the plain flag read here is race free.
func (node *xConcSetNode[K, V]) keyCompare(kcmp infra.OrderedKeyComparator[K], key K) int64 {
	if node.flags.isSet(nodeHeadSentinel) {
		return -1
	} else if node.flags.isSet(nodeTailSentinel) {
		return 1
	}
	return kcmp(node.key, key)
}

// The new node is fully initialized, next included, before any
// predecessor is redirected at it.
func newXConcSetNode[K infra.OrderedKey, V any](key K, val V, next *xConcSetNode[K, V], e mutexImpl) *xConcSetNode[K, V] {
	node := &xConcSetNode[K, V]{
		key:  key,
		next: next,
		mu:   mutexFactory(e),
	}
	node.storeVal(val)
	return node
}

func newXConcSetSentinel[K infra.OrderedKey, V any](mark uint32, e mutexImpl) *xConcSetNode[K, V] {
	node := &xConcSetNode[K, V]{
		key: *new(K),
		mu:  mutexFactory(e),
	}
	node.storeVal(*new(V))
	node.flags.set(mark)
	return node
}
