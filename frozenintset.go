package automaton

import "github.com/bits-and-blooms/bitset"

var _ Hashable = &FrozenIntSet{}

// FrozenIntSet An immutable set of states usable as a HashMap key. The hash is computed once,
// from the size and the mixed members, so equal sets always hash alike.
type FrozenIntSet struct {
	values   *bitset.BitSet
	hashCode uint64
}

// NewFrozenIntSet Freezes a copy of values.
func NewFrozenIntSet(values *bitset.BitSet) *FrozenIntSet {
	frozen := values.Clone()
	hashCode := uint64(frozen.Count())
	for i, ok := frozen.NextSet(0); ok; i, ok = frozen.NextSet(i + 1) {
		hashCode += uint64(uint32(mix32(int(i))))
	}
	return &FrozenIntSet{values: frozen, hashCode: hashCode}
}

// FrozenIntSetOf Freezes the given states.
func FrozenIntSetOf(states ...int) *FrozenIntSet {
	set := bitset.New(0)
	for _, s := range states {
		set.Set(uint(s))
	}
	return NewFrozenIntSet(set)
}

func (f *FrozenIntSet) Hash() uint64 {
	return f.hashCode
}

func (f *FrozenIntSet) Equals(other Hashable) bool {
	o, ok := other.(*FrozenIntSet)
	if !ok {
		return false
	}
	if f == nil || o == nil {
		return f == o
	}
	return f.hashCode == o.hashCode && f.values.SymmetricDifferenceCardinality(o.values) == 0
}

// GetArray Returns the members in ascending order.
func (f *FrozenIntSet) GetArray() []int {
	res := make([]int, 0, f.values.Count())
	for i, ok := f.values.NextSet(0); ok; i, ok = f.values.NextSet(i + 1) {
		res = append(res, int(i))
	}
	return res
}

func (f *FrozenIntSet) Contains(state int) bool {
	return state >= 0 && f.values.Test(uint(state))
}

// Intersects Reports whether any member is also set in other.
func (f *FrozenIntSet) Intersects(other *bitset.BitSet) bool {
	return f.values.IntersectionCardinality(other) > 0
}

// Bits Returns the members as a bitset; the caller must not modify it.
func (f *FrozenIntSet) Bits() *bitset.BitSet {
	return f.values
}

func (f *FrozenIntSet) Size() int {
	return int(f.values.Count())
}
