// Package identity reconciles grain numbering across independently
// generated ID namespaces (experimental, reference map, simulation mesh).
//
// A Map is a partial function between two namespaces. Composition keeps
// only the IDs that continue through both maps; it never invents an ID.
package identity

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrNotBijective is returned by FromPairs when an ID repeats on
	// either side.
	ErrNotBijective = errors.New("identity: mapping is not one-to-one")
	// ErrLengthMismatch is returned by FromPairs for columns of unequal
	// length.
	ErrLengthMismatch = errors.New("identity: column lengths differ")
)

// Map is a partial mapping from one ID namespace to another.
type Map map[int]int

// FromPairs builds a Map from two parallel columns. Each ID may appear at
// most once per column.
func FromPairs(from, to []int) (Map, error) {
	if len(from) != len(to) {
		return nil, fmt.Errorf("%w: %d and %d", ErrLengthMismatch, len(from), len(to))
	}
	m := make(Map, len(from))
	seen := make(map[int]bool, len(to))
	for i, a := range from {
		b := to[i]
		if _, dup := m[a]; dup {
			return nil, fmt.Errorf("%w: source ID %d repeats at row %d", ErrNotBijective, a, i)
		}
		if seen[b] {
			return nil, fmt.Errorf("%w: target ID %d repeats at row %d", ErrNotBijective, b, i)
		}
		m[a] = b
		seen[b] = true
	}
	return m, nil
}

// Compose returns ab followed by bc. Keys of ab whose image is not a key of
// bc are dropped; this is how populations defined on different meshes are
// intersected, not an error.
func Compose(ab, bc Map) Map {
	ac := make(Map)
	for a, b := range ab {
		if c, ok := bc[b]; ok {
			ac[a] = c
		}
	}
	return ac
}

// ResolveChain composes maps left to right. An empty chain yields an empty
// map.
func ResolveChain(maps ...Map) Map {
	if len(maps) == 0 {
		return Map{}
	}
	out := make(Map, len(maps[0]))
	for a, b := range maps[0] {
		out[a] = b
	}
	for _, m := range maps[1:] {
		out = Compose(out, m)
	}
	return out
}

// Inverse swaps keys and values. It fails if two keys share a value.
func (m Map) Inverse() (Map, error) {
	inv := make(Map, len(m))
	for _, a := range m.Keys() {
		b := m[a]
		if prev, dup := inv[b]; dup {
			return nil, fmt.Errorf("%w: %d and %d both map to %d", ErrNotBijective, prev, a, b)
		}
		inv[b] = a
	}
	return inv, nil
}

// Restrict keeps only the listed keys. Unknown keys are ignored.
func (m Map) Restrict(keys []int) Map {
	out := make(Map, len(keys))
	for _, k := range keys {
		if v, ok := m[k]; ok {
			out[k] = v
		}
	}
	return out
}

// Keys returns the keys in ascending order.
func (m Map) Keys() []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Align follows every ID of the first map through the whole chain and
// returns, for each one that survives, its ID in every namespace: row[0] in
// the first map's domain, row[i] in the codomain of maps[i-1]. Rows are
// ordered by their first ID.
func Align(maps ...Map) [][]int {
	if len(maps) == 0 {
		return nil
	}
	var rows [][]int
	for _, start := range maps[0].Keys() {
		row := make([]int, 1, len(maps)+1)
		row[0] = start
		id, ok := start, true
		for _, m := range maps {
			if id, ok = m[id]; !ok {
				break
			}
			row = append(row, id)
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return rows
}
