package set

import (
	"github.com/benz9527/xcset/lib/infra"
)

type SetOption[K infra.OrderedKey, V any] func(*xConcSet[K, V]) error

// WithSetConcBySpin selects the version-stamped spin lock for the node
// mutexes. This is the default.
func WithSetConcBySpin[K infra.OrderedKey, V any]() SetOption[K, V] {
	return func(set *xConcSet[K, V]) error {
		set.lockMode = xSetSpinMutex
		return nil
	}
}

// WithSetConcByGoNative selects sync.Mutex for the node mutexes.
func WithSetConcByGoNative[K infra.OrderedKey, V any]() SetOption[K, V] {
	return func(set *xConcSet[K, V]) error {
		set.lockMode = xSetGoMutex
		return nil
	}
}

// WithSetValReplaceOnDuplicate makes Insert overwrite the stored value
// when the key is already present, instead of rejecting the insert.
func WithSetValReplaceOnDuplicate[K infra.OrderedKey, V any]() SetOption[K, V] {
	return func(set *xConcSet[K, V]) error {
		set.flags.set(xConcSetValReplace)
		return nil
	}
}

// WithSetStats publishes the set's operation counters through the
// global otel meter provider under xcset/set/<name>.
func WithSetStats[K infra.OrderedKey, V any](name string) SetOption[K, V] {
	return func(set *xConcSet[K, V]) error {
		set.stats = newSetStats(name)
		return nil
	}
}
