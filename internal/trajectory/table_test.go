package trajectory

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/texture.report/internal/identity"
	"github.com/banshee-data/texture.report/internal/rotation"
	"github.com/banshee-data/texture.report/internal/tabular"
)

func TestToTable(t *testing.T) {
	trajectories := map[int][]rotation.EulerAngle{
		12: {rotation.Euler(1.234567, 0.5, 6.0), rotation.Euler(1.3, 0.51, 6.1)},
		3:  {rotation.Euler(0.1, 0.2, 0.3)},
	}

	tbl, err := ToTable(trajectories, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"g3_phi_1", "g3_Phi", "g3_phi_2",
		"g12_phi_1", "g12_Phi", "g12_phi_2",
	}, tbl.Names())

	col, err := tbl.Column("g12_phi_1")
	require.NoError(t, err)
	assert.Equal(t, []float64{1.2346, 1.3}, col)

	var buf bytes.Buffer
	require.NoError(t, tabular.WriteCSV(&buf, tbl))
	assert.Equal(t,
		"g3_phi_1,g3_Phi,g3_phi_2,g12_phi_1,g12_Phi,g12_phi_2\n"+
			"0.1,0.2,0.3,1.2346,0.5,6\n"+
			",,,1.3,0.51,6.1\n",
		buf.String())

	_, err = ToTable(trajectories, []int{99}, 0)
	assert.ErrorIs(t, err, ErrUnknownGrain)
}

func TestFromTable_RoundTrip(t *testing.T) {
	trajectories := map[int][]rotation.EulerAngle{
		1: {e1, e2, e3},
		2: {e3, e1},
	}
	tbl, err := ToTable(trajectories, nil, 0)
	require.NoError(t, err)
	tbl.Set("time", []float64{0, 1, 2})

	assert.Equal(t, []int{1, 2}, GrainIDs(tbl))

	back, err := FromTable(tbl, nil)
	require.NoError(t, err)
	if diff := cmp.Diff(trajectories, back, cmpopts.EquateApprox(0, 1e-15)); diff != "" {
		t.Errorf("FromTable mismatch (-want +got):\n%s", diff)
	}

	only, err := FromTable(tbl, []int{2, 5})
	require.NoError(t, err)
	assert.Len(t, only, 1)
	assert.Contains(t, only, 2)
}

func TestFromTable_DeduplicatesAndChecksColumns(t *testing.T) {
	tbl := tabular.NewTable()
	tbl.Set("g1_phi_1", []float64{1, 1, 2})
	tbl.Set("g1_Phi", []float64{0, 0, 0})
	tbl.Set("g1_phi_2", []float64{0, 0, 0})
	tbl.Set("g2_phi_1", []float64{1})

	got, err := FromTable(tbl, []int{1})
	require.NoError(t, err)
	assert.Equal(t, []rotation.EulerAngle{rotation.Euler(1, 0, 0), rotation.Euler(2, 0, 0)}, got[1])

	_, err = FromTable(tbl, nil)
	assert.ErrorContains(t, err, "grain 2")
}

func TestRenameGrains(t *testing.T) {
	tbl := tabular.NewTable()
	tbl.Set("time", []float64{0, 1})
	tbl.Set("g1_phi_1", []float64{1, 2})
	tbl.Set("g1_Phi", []float64{3, 4})
	tbl.Set("g20_phi_2", []float64{5})
	tbl.Set("grain_stress", []float64{7})

	out, err := RenameGrains(tbl, identity.Map{1: 101, 20: 120})
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "g101_phi_1", "g101_Phi", "g120_phi_2", "grain_stress"}, out.Names())
	col, _ := out.Column("g101_Phi")
	assert.Equal(t, []float64{3, 4}, col)

	_, err = RenameGrains(tbl, identity.Map{1: 101})
	assert.ErrorIs(t, err, ErrUnmappedGrain)
}
