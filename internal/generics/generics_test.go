package generics

import (
	"github.com/stretchr/testify/assert"
	"slices"
	"testing"
)

func TestSortedKeys(t *testing.T) {
	m := map[int]string{1: "1", 5: "5", 3: "3"}
	// Since the builtin map iterator in Go is deliberately non-deterministic, we
	// run it a bunch of times to show it is stably sorted.
	want := []int{1, 3, 5}
	for _ = range 100 {
		got := slices.Collect(SortedKeys(m))
		if !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	}
	assert.Equal(t, []string{"a", "b"}, KeysSlice(map[string]bool{"b": true, "a": false}))
}

func TestAbsAndArgMax(t *testing.T) {
	assert.Equal(t, 3, Abs(-3))
	assert.Equal(t, int8(4), Abs(int8(4)))
	assert.Equal(t, float32(0.5), Abs(float32(-0.5)))

	assert.Equal(t, -1, ArgMax([]float32{}))
	assert.Equal(t, 1, ArgMax([]float32{1, 3, 2, 3}), "ties go to the first")
}

func TestRing(t *testing.T) {
	r := NewRing[int](3)
	assert.Equal(t, 0, r.Len())
	for ii := range 5 {
		r.Push(ii)
	}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []int{2, 3, 4}, slices.Collect(r.All()))

	empty := NewRing[int](0)
	empty.Push(1)
	assert.Equal(t, 0, empty.Len())
}
