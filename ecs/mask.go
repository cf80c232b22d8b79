package ecs

import "math/bits"

// MaxComponentTypes is the maximum number of component types a registry can hold.
const MaxComponentTypes = 256

const maskWords = MaxComponentTypes / 64

// Mask is a set of component types. Bit i is set when component type i is present.
// Masks are comparable and can be used as map keys.
type Mask [maskWords]uint64

// MaskOf builds a mask from the given component types.
func MaskOf(types ...ComponentType) Mask {
	var m Mask
	for _, t := range types {
		m.Set(t)
	}
	return m
}

// Set enables the bit for t.
func (m *Mask) Set(t ComponentType) {
	m[t>>6] |= 1 << (t & 63)
}

// Unset clears the bit for t.
func (m *Mask) Unset(t ComponentType) {
	m[t>>6] &^= 1 << (t & 63)
}

// Has reports whether the bit for t is set.
func (m Mask) Has(t ComponentType) bool {
	return m[t>>6]&(1<<(t&63)) != 0
}

// ContainsAll reports whether every bit of sub is also set in m.
func (m Mask) ContainsAll(sub Mask) bool {
	for i := range m {
		if m[i]&sub[i] != sub[i] {
			return false
		}
	}
	return true
}

// Intersects reports whether m and other share at least one bit.
func (m Mask) Intersects(other Mask) bool {
	for i := range m {
		if m[i]&other[i] != 0 {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no bit is set.
func (m Mask) IsEmpty() bool {
	return m == Mask{}
}

// Count returns the number of set bits.
func (m Mask) Count() int {
	n := 0
	for _, w := range m {
		n += bits.OnesCount64(w)
	}
	return n
}

// Types returns the component types in the mask in ascending order.
func (m Mask) Types() []ComponentType {
	types := make([]ComponentType, 0, m.Count())
	for i, w := range m {
		for w != 0 {
			bit := bits.TrailingZeros64(w)
			types = append(types, ComponentType(i*64+bit))
			w &^= 1 << bit
		}
	}
	return types
}
