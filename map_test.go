package automaton

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sameHash Collides with every other sameHash on purpose.
type sameHash int

func (k sameHash) Hash() uint64 {
	return 7
}

func (k sameHash) Equals(other Hashable) bool {
	o, ok := other.(sameHash)
	return ok && k == o
}

func TestHashMap(t *testing.T) {
	t.Run("testStateSets", func(t *testing.T) {
		m := NewHashMap[int](WithCapacity(4))
		m.Set(FrozenIntSetOf(0, 2), 1)
		m.Set(FrozenIntSetOf(1), 2)

		v, ok := m.Get(FrozenIntSetOf(2, 0))
		require.True(t, ok)
		assert.Equal(t, 1, v)

		_, ok = m.Get(FrozenIntSetOf(0, 1, 2))
		assert.False(t, ok)
		_, ok = m.Get(FrozenIntSetOf())
		assert.False(t, ok)
	})

	t.Run("testStatePairs", func(t *testing.T) {
		m := NewHashMap[int]()
		m.Set(&statePair{1, 2}, 12)
		m.Set(&statePair{2, 1}, 21)
		m.Set(&statePair{1, 2}, 120)

		assert.Equal(t, 2, m.Size())
		v, ok := m.Get(&statePair{1, 2})
		require.True(t, ok)
		assert.Equal(t, 120, v)
		v, ok = m.Get(&statePair{2, 1})
		require.True(t, ok)
		assert.Equal(t, 21, v)
	})

	t.Run("testDelete", func(t *testing.T) {
		m := NewHashMap[string](WithCapacity(8))
		m.Set(sameHash(1), "one")
		m.Set(sameHash(2), "two")
		m.Set(sameHash(3), "three")

		m.Delete(sameHash(2))
		m.Delete(sameHash(4))
		assert.Equal(t, 2, m.Size())
		_, ok := m.Get(sameHash(2))
		assert.False(t, ok)
		v, ok := m.Get(sameHash(3))
		require.True(t, ok)
		assert.Equal(t, "three", v)
	})

	t.Run("testKeyTypesDoNotMix", func(t *testing.T) {
		m := NewHashMap[string]()
		m.Set(sameHash(1), "hash")
		m.Set(FrozenIntSetOf(1), "set")

		v, ok := m.Get(sameHash(1))
		require.True(t, ok)
		assert.Equal(t, "hash", v)
		v, ok = m.Get(FrozenIntSetOf(1))
		require.True(t, ok)
		assert.Equal(t, "set", v)
	})
}

func TestHashMap_Resize(t *testing.T) {
	m := NewHashMap[int](WithCapacity(2), WithLoadFactor(0.5))
	for i := 0; i < 50; i++ {
		m.Set(&statePair{i, i + 1}, i)
	}
	assert.Greater(t, len(m.buckets), 2)
	assert.Equal(t, 50, m.Size())
	for i := 0; i < 50; i++ {
		v, ok := m.Get(&statePair{i, i + 1})
		require.True(t, ok)
		assert.Equal(t, i, v)
	}

	t.Run("testZeroCapacity", func(t *testing.T) {
		assert.Len(t, NewHashMap[int](WithCapacity(0)).buckets, 1)
	})
}

func TestHashMap_GetOrCompute(t *testing.T) {
	m := NewHashMap[int]()
	next := 0
	compute := func() int {
		next++
		return next
	}

	tests := []struct {
		key     *FrozenIntSet
		want    int
		existed bool
	}{
		{FrozenIntSetOf(0), 1, false},
		{FrozenIntSetOf(0), 1, true},
		{FrozenIntSetOf(0, 3), 2, false},
		{FrozenIntSetOf(3, 0), 2, true},
	}
	for _, tt := range tests {
		v, existed := m.GetOrCompute(tt.key, compute)
		assert.Equal(t, tt.existed, existed)
		assert.Equal(t, tt.want, v)
	}
	assert.Equal(t, 2, next)
}

func TestHashMap_Iterator(t *testing.T) {
	m := NewHashMap[int]()
	for i := 0; i < 20; i++ {
		m.Set(FrozenIntSetOf(i, i+1), i)
	}

	seen := make(map[int]bool)
	for key, v := range m.Iterator() {
		assert.Equal(t, []int{v, v + 1}, key.(*FrozenIntSet).GetArray())
		seen[v] = true
	}
	assert.Len(t, seen, 20)

	count := 0
	for range m.Iterator() {
		count++
		if count == 3 {
			break
		}
	}
	assert.Equal(t, 3, count)
}
