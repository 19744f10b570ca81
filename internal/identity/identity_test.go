package identity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name   string
		ab, bc Map
		want   Map
	}{
		{"drops missing continuation", Map{1: 10, 2: 20}, Map{10: 100}, Map{1: 100}},
		{"full overlap", Map{1: 10, 2: 20}, Map{10: 100, 20: 200}, Map{1: 100, 2: 200}},
		{"disjoint", Map{1: 10}, Map{11: 110}, Map{}},
		{"empty left", Map{}, Map{10: 100}, Map{}},
		{"extra right keys ignored", Map{1: 10}, Map{10: 100, 30: 300}, Map{1: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Compose(tt.ab, tt.bc)); diff != "" {
				t.Errorf("Compose mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompose_DoesNotModifyInputs(t *testing.T) {
	ab := Map{1: 10, 2: 20}
	bc := Map{10: 100}
	Compose(ab, bc)
	assert.Equal(t, Map{1: 10, 2: 20}, ab)
	assert.Equal(t, Map{10: 100}, bc)
}

func TestResolveChain_Associative(t *testing.T) {
	ab := Map{1: 11, 2: 12, 3: 13, 4: 14}
	bc := Map{11: 21, 12: 22, 14: 24}
	cd := Map{21: 31, 24: 34, 25: 35}

	left := Compose(Compose(ab, bc), cd)
	right := Compose(ab, Compose(bc, cd))
	chain := ResolveChain(ab, bc, cd)

	want := Map{1: 31, 4: 34}
	assert.Equal(t, want, left)
	assert.Equal(t, want, right)
	assert.Equal(t, want, chain)
}

func TestResolveChain_Edges(t *testing.T) {
	assert.Equal(t, Map{}, ResolveChain())

	single := Map{1: 2}
	got := ResolveChain(single)
	assert.Equal(t, single, got)
	got[5] = 6
	assert.Len(t, single, 1, "ResolveChain must copy its first map")
}

func TestFromPairs(t *testing.T) {
	m, err := FromPairs([]int{1, 2, 3}, []int{10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, Map{1: 10, 2: 20, 3: 30}, m)

	_, err = FromPairs([]int{1, 2}, []int{10})
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = FromPairs([]int{1, 1}, []int{10, 20})
	assert.ErrorIs(t, err, ErrNotBijective)

	_, err = FromPairs([]int{1, 2}, []int{10, 10})
	assert.ErrorIs(t, err, ErrNotBijective)
}

func TestMap_Inverse(t *testing.T) {
	inv, err := Map{1: 10, 2: 20}.Inverse()
	require.NoError(t, err)
	assert.Equal(t, Map{10: 1, 20: 2}, inv)

	_, err = Map{1: 10, 2: 10}.Inverse()
	assert.ErrorIs(t, err, ErrNotBijective)
}

func TestMap_RestrictAndKeys(t *testing.T) {
	m := Map{5: 50, 1: 10, 3: 30}
	assert.Equal(t, []int{1, 3, 5}, m.Keys())
	assert.Equal(t, Map{3: 30}, m.Restrict([]int{3, 4}))
	assert.Empty(t, Map{}.Keys())
}

func TestAlign(t *testing.T) {
	expToRef := Map{1: 11, 2: 12, 3: 13}
	refToMesh := Map{11: 101, 13: 103}

	got := Align(expToRef, refToMesh)
	want := [][]int{{1, 11, 101}, {3, 13, 103}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Align mismatch (-want +got):\n%s", diff)
	}

	assert.Nil(t, Align())
	assert.Nil(t, Align(Map{1: 2}, Map{}))
}
