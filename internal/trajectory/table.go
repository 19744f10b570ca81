package trajectory

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/banshee-data/texture.report/internal/identity"
	"github.com/banshee-data/texture.report/internal/rotation"
	"github.com/banshee-data/texture.report/internal/tabular"
	"github.com/banshee-data/texture.report/internal/units"
)

// ErrUnmappedGrain is returned by RenameGrains for a grain the map lacks.
var ErrUnmappedGrain = errors.New("trajectory: grain missing from ID map")

// Components are the Euler column suffixes, in (φ1, Φ, φ2) order.
var Components = [3]string{"phi_1", "Phi", "phi_2"}

var grainColumn = regexp.MustCompile(`^g(\d+)_(phi_1|Phi|phi_2)$`)

// ColumnName returns the table column for one Euler component of a grain.
func ColumnName(grainID, component int) string {
	return fmt.Sprintf("g%d_%s", grainID, Components[component])
}

// ToTable lays trajectories out as three columns per grain, in grainIDs
// order (ascending when nil). A positive sigFigs rounds every angle to that
// many significant figures.
func ToTable(trajectories map[int][]rotation.EulerAngle, grainIDs []int, sigFigs int) (*tabular.Table, error) {
	if grainIDs == nil {
		for id := range trajectories {
			grainIDs = append(grainIDs, id)
		}
		sort.Ints(grainIDs)
	}
	t := tabular.NewTable()
	for _, id := range grainIDs {
		seq, ok := trajectories[id]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownGrain, id)
		}
		for c := range Components {
			col := make([]float64, len(seq))
			for i, e := range seq {
				col[i] = units.RoundSignificant(e.Components()[c], sigFigs)
			}
			t.Set(ColumnName(id, c), col)
		}
	}
	return t, nil
}

// GrainIDs returns the grains that have a φ1 column in t, ascending.
func GrainIDs(t *tabular.Table) []int {
	var ids []int
	for _, name := range t.Names() {
		if m := grainColumn.FindStringSubmatch(name); m != nil && m[2] == Components[0] {
			id, err := strconv.Atoi(m[1])
			if err == nil {
				ids = append(ids, id)
			}
		}
	}
	sort.Ints(ids)
	return ids
}

// FromTable reads trajectories back from a table, deduplicated. A nil
// grainIDs reads every grain with a φ1 column; listed grains absent from
// the table are skipped.
func FromTable(t *tabular.Table, grainIDs []int) (map[int][]rotation.EulerAngle, error) {
	available := GrainIDs(t)
	if grainIDs != nil {
		wanted := make(map[int]bool, len(grainIDs))
		for _, id := range grainIDs {
			wanted[id] = true
		}
		kept := available[:0]
		for _, id := range available {
			if wanted[id] {
				kept = append(kept, id)
			}
		}
		available = kept
	}

	out := make(map[int][]rotation.EulerAngle, len(available))
	for _, id := range available {
		var cols [3][]float64
		for c := range Components {
			col, err := t.Column(ColumnName(id, c))
			if err != nil {
				return nil, fmt.Errorf("trajectory: grain %d: %w", id, err)
			}
			cols[c] = col
		}
		n := min(len(cols[0]), len(cols[1]), len(cols[2]))
		seq := make([]rotation.EulerAngle, n)
		for i := range seq {
			seq[i] = rotation.Euler(cols[0][i], cols[1][i], cols[2][i])
		}
		out[id] = DeduplicateConsecutive(seq)
	}
	return out, nil
}

// RenameGrains returns a copy of t with every g{id}_* column renamed
// through m. Other columns are copied unchanged. A grain column whose ID is
// not in m is an error.
func RenameGrains(t *tabular.Table, m identity.Map) (*tabular.Table, error) {
	out := tabular.NewTable()
	for _, name := range t.Names() {
		col, _ := t.Column(name)
		if match := grainColumn.FindStringSubmatch(name); match != nil {
			id, err := strconv.Atoi(match[1])
			if err != nil {
				return nil, fmt.Errorf("trajectory: column %q: %w", name, err)
			}
			to, ok := m[id]
			if !ok {
				return nil, fmt.Errorf("%w: %d", ErrUnmappedGrain, id)
			}
			name = fmt.Sprintf("g%d_%s", to, match[2])
		}
		out.Set(name, col)
	}
	return out, nil
}
