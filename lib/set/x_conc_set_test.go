package set

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/xcset/lib/infra"
)

func setMutexOptions(mu mutexImpl) []SetOption[uint64, string] {
	opts := make([]SetOption[uint64, string], 0, 2)
	switch mu {
	case xSetGoMutex:
		opts = append(opts, WithSetConcByGoNative[uint64, string]())
	case xSetSpinMutex:
		opts = append(opts, WithSetConcBySpin[uint64, string]())
	default:
	}
	return opts
}

// auditKeys walks the list and checks strict ascending order with no
// duplicates, then returns the keys in walk order.
func auditKeys(t *testing.T, s OrderedSet[uint64, string]) []uint64 {
	keys := make([]uint64, 0, 16)
	err := s.(*xConcSet[uint64, string]).foreach(func(key uint64, val string) bool {
		keys = append(keys, key)
		return true
	})
	require.NoError(t, err)
	for i := 1; i < len(keys); i++ {
		require.Less(t, keys[i-1], keys[i])
	}
	require.Equal(t, int64(len(keys)), s.Len())
	return keys
}

func xConcSetSerialProcessingRunCore(t *testing.T, mu mutexImpl) {
	s, err := NewXConcSet[uint64, string](nil, setMutexOptions(mu)...)
	require.NoError(t, err)
	require.Equal(t, int64(0), s.Len())

	size := 50
	for i := size - 1; i >= 0; i-- {
		require.NoError(t, s.Insert(uint64(i), "v"))
		auditKeys(t, s)
	}
	require.Equal(t, int64(size), s.Len())

	for i := 0; i < size; i++ {
		ok, err := s.Contains(uint64(i))
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, err := s.Contains(uint64(size))
	require.NoError(t, err)
	require.False(t, ok)

	for i := 0; i < size; i += 2 {
		ele, err := s.Remove(uint64(i))
		require.NoError(t, err)
		require.Equal(t, uint64(i), ele.Key())
		auditKeys(t, s)
	}
	require.Equal(t, int64(size/2), s.Len())

	for i := 0; i < size; i += 2 {
		ok, err := s.Contains(uint64(i))
		require.NoError(t, err)
		require.False(t, ok)
	}
}

func TestXConcSet_SerialProcessing(t *testing.T) {
	type testcase struct {
		name string
		mu   mutexImpl
	}
	testcases := []testcase{
		{
			name: "go native sync mutex",
			mu:   xSetGoMutex,
		}, {
			name: "set lock free mutex",
			mu:   xSetSpinMutex,
		},
	}
	t.Parallel()
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			xConcSetSerialProcessingRunCore(tt, tc.mu)
		})
	}
}

// The scenario from the protocol walkthrough: [1,5,9], insert 3,
// remove 5, probe 9 and 7, remove 7.
func TestXConcSet_Scenario(t *testing.T) {
	s, err := NewXConcSet[uint64, string](nil)
	require.NoError(t, err)
	for _, k := range []uint64{1, 5, 9} {
		require.NoError(t, s.Insert(k, "v"))
	}

	require.NoError(t, s.Insert(3, "v3"))
	assert.Equal(t, []uint64{1, 3, 5, 9}, auditKeys(t, s))

	ele, err := s.Remove(5)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), ele.Key())
	assert.Equal(t, []uint64{1, 3, 9}, auditKeys(t, s))

	ok, err := s.Contains(9)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Contains(7)
	require.NoError(t, err)
	assert.False(t, ok)

	ele, err = s.Remove(7)
	require.Nil(t, ele)
	require.True(t, errors.Is(err, ErrXConcSetNotFound))
	assert.Equal(t, []uint64{1, 3, 9}, auditKeys(t, s))
}

func TestXConcSet_DuplicateInsertPolicy(t *testing.T) {
	s, err := NewXConcSet[uint64, string](nil)
	require.NoError(t, err)
	require.NoError(t, s.Insert(7, "old"))

	err = s.Insert(7, "new")
	require.True(t, errors.Is(err, ErrXConcSetKeyExists))
	require.Equal(t, int64(1), s.Len())
	ele, err := s.Remove(7)
	require.NoError(t, err)
	require.Equal(t, "old", ele.Val())

	replaced, err := NewXConcSet[uint64, string](nil,
		WithSetValReplaceOnDuplicate[uint64, string](),
	)
	require.NoError(t, err)
	require.NoError(t, replaced.Insert(7, "old"))
	require.NoError(t, replaced.Insert(7, "new"))
	require.Equal(t, int64(1), replaced.Len())
	ele, err = replaced.Remove(7)
	require.NoError(t, err)
	require.Equal(t, "new", ele.Val())
}

// find must bracket the target key between two locked adjacent nodes,
// degenerating to the head sentinel below all keys and to the tail
// sentinel above all keys.
func TestXConcSet_FindBracket(t *testing.T) {
	s, err := NewXConcSet[uint64, string](infra.OrderedKeyAscComparator[uint64])
	require.NoError(t, err)
	impl := s.(*xConcSet[uint64, string])
	for _, k := range []uint64{10, 50, 90} {
		require.NoError(t, s.Insert(k, "v"))
	}

	type testcase struct {
		name     string
		key      uint64
		predKey  uint64
		currKey  uint64
		predHead bool
		currTail bool
	}
	testcases := []testcase{
		{name: "between nodes", key: 30, predKey: 10, currKey: 50},
		{name: "exact match", key: 50, predKey: 10, currKey: 50},
		{name: "below all keys", key: 5, predHead: true, currKey: 10},
		{name: "above all keys", key: 100, predKey: 90, currTail: true},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			ver := impl.optVer.Number()
			pred, curr, err := impl.find(tc.key, ver)
			require.NoError(tt, err)
			require.Same(tt, curr, pred.next)
			if tc.predHead {
				require.Same(tt, impl.head, pred)
			} else {
				require.Equal(tt, tc.predKey, pred.key)
				require.Less(tt, pred.key, tc.key)
			}
			if tc.currTail {
				require.Same(tt, impl.tail, curr)
			} else {
				require.Equal(tt, tc.currKey, curr.key)
				require.GreaterOrEqual(tt, curr.key, tc.key)
			}
			require.NoError(tt, impl.release(ver, pred, curr))
		})
	}
}

func TestXConcSet_EmptySet(t *testing.T) {
	s, err := NewXConcSet[uint64, string](nil)
	require.NoError(t, err)

	ok, err := s.Contains(1)
	require.NoError(t, err)
	require.False(t, ok)

	ele, err := s.Remove(1)
	require.Nil(t, ele)
	require.True(t, errors.Is(err, ErrXConcSetNotFound))

	require.NoError(t, s.Insert(1, "only"))
	require.Equal(t, []uint64{1}, auditKeys(t, s))
}

// A stale-version unlock must fail the CAS on the spin lock word and be
// reported as lock corruption instead of silently proceeding.
func TestXConcSet_LockVersionCorruption(t *testing.T) {
	s, err := NewXConcSet[uint64, string](nil, WithSetConcBySpin[uint64, string]())
	require.NoError(t, err)
	impl := s.(*xConcSet[uint64, string])
	require.NoError(t, s.Insert(1, "v"))

	ver := impl.optVer.Number()
	pred, curr, err := impl.find(1, ver)
	require.NoError(t, err)

	staleVer := impl.optVer.Number()
	err = impl.release(staleVer, pred, curr)
	require.True(t, errors.Is(err, ErrXConcSetLockCorrupted))
	// The locks still carry ver and remain releasable with it.
	require.NoError(t, impl.release(ver, pred, curr))
}

func TestXConcSet_StringKeys(t *testing.T) {
	s, err := NewXConcSet[string, int](nil)
	require.NoError(t, err)
	for _, k := range []string{"pear", "apple", "orange", "banana"} {
		require.NoError(t, s.Insert(k, len(k)))
	}
	keys := make([]string, 0, 4)
	err = s.(*xConcSet[string, int]).foreach(func(key string, val int) bool {
		keys = append(keys, key)
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "banana", "orange", "pear"}, keys)
}
