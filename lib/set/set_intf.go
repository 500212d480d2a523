package set

import (
	"errors"

	"github.com/benz9527/xcset/lib/infra"
)

// OrderedSet is a concurrent set of unique keys kept in ascending order.
// Each operation is linearizable at the instant the hand-over-hand
// traversal pins the pair of adjacent nodes bracketing the key.
type OrderedSet[K infra.OrderedKey, V any] interface {
	Len() int64
	Insert(key K, val V) error
	Remove(key K) (SetElement[K, V], error)
	Contains(key K) (bool, error)
}

type SetElement[K infra.OrderedKey, V any] interface {
	Key() K
	Val() V
}

var (
	ErrXConcSetNotFound      = errors.New("[x-conc-set] key not found")
	ErrXConcSetKeyExists     = errors.New("[x-conc-set] key already exists")
	ErrXConcSetLockCorrupted = errors.New("[x-conc-set] node lock state corrupted")
)

var (
	_ SetElement[uint8, uint8] = (*xSetElement[uint8, uint8])(nil)
)

type xSetElement[K infra.OrderedKey, V any] struct {
	key K
	val V
}

func (e *xSetElement[K, V]) Key() K {
	return e.key
}

func (e *xSetElement[K, V]) Val() V {
	return e.val
}
