// Package generics implements generic data structure functions missing from the stdlib.
package generics

import (
	"cmp"
	"golang.org/x/exp/constraints"
	"iter"
	"maps"
	"slices"
)

// SliceMap executes the given function sequentially for every element on in, and returns a mapped slice.
func SliceMap[In, Out any](in []In, fn func(e In) Out) (out []Out) {
	out = make([]Out, len(in))
	for ii, e := range in {
		out[ii] = fn(e)
	}
	return
}

// SortedKeys returns an iterator over the sorted keys of the given map.
//
// It extracts the keys, sort them and then iterate over, so it's convenient but not fast.
func SortedKeys[M interface{ ~map[K]V }, K cmp.Ordered, V any](m M) iter.Seq[K] {
	sortedKeys := slices.Collect(maps.Keys(m))
	slices.Sort(sortedKeys)
	return slices.Values(sortedKeys)
}

// KeysSlice returns the sorted keys of the map as a slice.
func KeysSlice[M interface{ ~map[K]V }, K cmp.Ordered, V any](m M) []K {
	return slices.Collect(SortedKeys(m))
}

// Abs returns the absolute value of x.
func Abs[T constraints.Signed | constraints.Float](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// ArgMax returns the index of the first largest value, or -1 if values is empty.
func ArgMax[T cmp.Ordered](values []T) int {
	best := -1
	for ii, v := range values {
		if best < 0 || v > values[best] {
			best = ii
		}
	}
	return best
}

// Ring is a fixed capacity FIFO: once full, pushing a value drops the oldest one.
type Ring[T any] struct {
	values []T
	start  int
	size   int
}

// NewRing returns an empty Ring with the given capacity.
func NewRing[T any](capacity int) *Ring[T] {
	return &Ring[T]{values: make([]T, capacity)}
}

// Push appends a value, dropping the oldest if the Ring is full.
func (r *Ring[T]) Push(value T) {
	if len(r.values) == 0 {
		return
	}
	idx := (r.start + r.size) % len(r.values)
	r.values[idx] = value
	if r.size < len(r.values) {
		r.size++
	} else {
		r.start = (r.start + 1) % len(r.values)
	}
}

// Len returns the number of values stored.
func (r *Ring[T]) Len() int {
	return r.size
}

// All iterates over the values from the oldest to the newest.
func (r *Ring[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for ii := range r.size {
			if !yield(r.values[(r.start+ii)%len(r.values)]) {
				return
			}
		}
	}
}
