package tabular

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/texture.report/internal/aggregate"
	"github.com/banshee-data/texture.report/internal/fsutil"
	"github.com/banshee-data/texture.report/internal/identity"
	"github.com/banshee-data/texture.report/internal/rotation"
)

// Column names in the solver's element result files.
const (
	GrainColumn   = "block_id"
	ElementColumn = "id"
)

// OrientationColumns hold the element quaternion, scalar part first.
var OrientationColumns = [4]string{"orientation_q1", "orientation_q2", "orientation_q3", "orientation_q4"}

// SnapshotFromTable converts one element result table into a snapshot.
// Columns other than the grain, element and orientation ones become
// per-element scalar fields.
func SnapshotFromTable(t *Table, timestep int) (aggregate.Snapshot, error) {
	grains, err := intColumn(t, GrainColumn)
	if err != nil {
		return aggregate.Snapshot{}, err
	}
	elements, err := intColumn(t, ElementColumn)
	if err != nil {
		return aggregate.Snapshot{}, err
	}
	if len(grains) != len(elements) {
		return aggregate.Snapshot{}, fmt.Errorf("tabular: %d grain IDs for %d elements", len(grains), len(elements))
	}
	var quat [4][]float64
	for i, name := range OrientationColumns {
		if quat[i], err = t.Column(name); err != nil {
			return aggregate.Snapshot{}, err
		}
	}

	reserved := map[string]bool{GrainColumn: true, ElementColumn: true}
	for _, name := range OrientationColumns {
		reserved[name] = true
	}

	s := aggregate.Snapshot{Timestep: timestep, Samples: make([]aggregate.ElementSample, len(elements))}
	for row := range elements {
		var c [4]float64
		for i := range c {
			if row >= len(quat[i]) {
				return aggregate.Snapshot{}, fmt.Errorf("tabular: row %d has no %s", row, OrientationColumns[i])
			}
			c[i] = quat[i][row]
		}
		q := rotation.FromComponents(c)
		if !q.IsValid() {
			return aggregate.Snapshot{}, fmt.Errorf("tabular: element %d: %w: %v", elements[row], aggregate.ErrInvalidOrientation, c)
		}
		fields := make(map[string]float64)
		for _, name := range t.names {
			if reserved[name] {
				continue
			}
			if col := t.values[name]; row < len(col) && !math.IsNaN(col[row]) {
				fields[name] = col[row]
			}
		}
		s.Samples[row] = aggregate.ElementSample{
			ElementID:   elements[row],
			GrainID:     grains[row],
			Orientation: q.Normalize(),
			Fields:      fields,
		}
	}
	return s, nil
}

// ReadSnapshotDir reads every CSV in dir that has a grain column, in
// natural file-name order, and numbers them as timesteps from zero. Other
// CSVs (summaries, grip tables) are skipped.
func ReadSnapshotDir(fsys fsutil.FileSystem, dir string) ([]aggregate.Snapshot, error) {
	names, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var csvs []string
	for _, name := range names {
		if strings.EqualFold(filepath.Ext(name), ".csv") {
			csvs = append(csvs, name)
		}
	}
	sort.SliceStable(csvs, func(i, j int) bool { return naturalLess(csvs[i], csvs[j]) })

	var snapshots []aggregate.Snapshot
	for _, name := range csvs {
		t, err := ReadFile(fsys, filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if !t.Has(GrainColumn) {
			continue
		}
		s, err := SnapshotFromTable(t, len(snapshots))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, nil
}

// MapFromTable builds an ID map from two columns. Rows where either ID is
// missing are skipped.
func MapFromTable(t *Table, fromColumn, toColumn string) (identity.Map, error) {
	from, err := t.Column(fromColumn)
	if err != nil {
		return nil, err
	}
	to, err := t.Column(toColumn)
	if err != nil {
		return nil, err
	}
	var a, b []int
	for i := 0; i < min(len(from), len(to)); i++ {
		if math.IsNaN(from[i]) || math.IsNaN(to[i]) {
			continue
		}
		x, okx := asInt(from[i])
		y, oky := asInt(to[i])
		if !okx || !oky {
			return nil, fmt.Errorf("tabular: row %d: non-integer ID %g -> %g", i, from[i], to[i])
		}
		a = append(a, x)
		b = append(b, y)
	}
	return identity.FromPairs(a, b)
}

func intColumn(t *Table, name string) ([]int, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(col))
	for i, v := range col {
		n, ok := asInt(v)
		if !ok {
			return nil, fmt.Errorf("tabular: column %q row %d: non-integer ID %g", name, i, v)
		}
		out[i] = n
	}
	return out, nil
}

func asInt(v float64) (int, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

// naturalLess orders strings with embedded numbers by numeric value, so
// "step_2" sorts before "step_10".
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		switch {
		case da && db:
			na, ra := splitDigits(a)
			nb, rb := splitDigits(b)
			ta, tb := strings.TrimLeft(na, "0"), strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			a, b = ra, rb
		case a[0] != b[0]:
			return a[0] < b[0]
		default:
			a, b = a[1:], b[1:]
		}
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func splitDigits(s string) (digits, rest string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
