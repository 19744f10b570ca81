package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/texture.report/internal/family"
	"github.com/banshee-data/texture.report/internal/fsutil"
	"github.com/banshee-data/texture.report/internal/rotation"
	"github.com/banshee-data/texture.report/internal/store"
	"github.com/banshee-data/texture.report/internal/tabular"
	"github.com/banshee-data/texture.report/internal/trajectory"
)

type familyFlags struct {
	trajectories string
	name         string
	plane        string
	direction    string
	sampleAxis   string
	threshold    float64
	lattice      string
	grains       []int
	dbPath       string
	runID        string
}

func newFamilyCmd() *cobra.Command {
	var f familyFlags
	cmd := &cobra.Command{
		Use:   "family",
		Short: "List grains whose initial orientation belongs to a texture family",
		Long: `family reads a trajectory table and prints the IDs of the grains whose
first orientation carries the crystal direction along the sample axis,
within the threshold. With --db and --run the family is also stored
against that run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := f.spec()
			if err != nil {
				return err
			}
			members, err := classifyFile(fsutil.OSFileSystem{}, f.trajectories, f.grains, spec)
			if err != nil {
				return err
			}
			if err := writeIDs(cmd.OutOrStdout(), members); err != nil {
				return err
			}
			if f.dbPath != "" {
				return storeFamily(cmd.Context(), f.dbPath, f.runID, spec.Name, members)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.trajectories, "trajectories", "t", "summary.csv", "trajectory table with g{id}_phi_1/Phi/phi_2 columns")
	cmd.Flags().StringVar(&f.name, "name", "", "family name (defaults to the plane indices)")
	cmd.Flags().StringVar(&f.plane, "plane", "", "crystal plane normal, e.g. 1,1,1")
	cmd.Flags().StringVar(&f.direction, "direction", "", "crystal direction, e.g. 1,-1,0")
	cmd.Flags().StringVar(&f.sampleAxis, "sample-axis", "1,0,0", "sample axis the direction must align with")
	cmd.Flags().Float64Var(&f.threshold, "threshold", 10, "maximum misorientation in degrees")
	cmd.Flags().StringVar(&f.lattice, "lattice", "cubic", "lattice symmetry")
	cmd.Flags().IntSliceVar(&f.grains, "grains", nil, "restrict to these grain IDs")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "store the family in this database")
	cmd.Flags().StringVar(&f.runID, "run", "", "run ID to store the family against")
	_ = cmd.MarkFlagRequired("plane")
	_ = cmd.MarkFlagRequired("direction")
	cmd.MarkFlagsRequiredTogether("db", "run")
	return cmd
}

func (f familyFlags) spec() (family.Spec, error) {
	plane, err := parseVec(f.plane)
	if err != nil {
		return family.Spec{}, fmt.Errorf("--plane: %w", err)
	}
	direction, err := parseVec(f.direction)
	if err != nil {
		return family.Spec{}, fmt.Errorf("--direction: %w", err)
	}
	axis, err := parseVec(f.sampleAxis)
	if err != nil {
		return family.Spec{}, fmt.Errorf("--sample-axis: %w", err)
	}
	name := f.name
	if name == "" {
		name = strings.ReplaceAll(f.plane, ",", "")
	}
	return family.Spec{
		Name:             name,
		Plane:            plane,
		Direction:        direction,
		SampleAxis:       axis,
		ThresholdDegrees: f.threshold,
		Lattice:          f.lattice,
	}, nil
}

// parseVec parses "x,y,z".
func parseVec(s string) (rotation.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return rotation.Vec3{}, fmt.Errorf("want three comma-separated components, got %q", s)
	}
	var v [3]float64
	for i, p := range parts {
		x, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return rotation.Vec3{}, fmt.Errorf("component %d of %q: %w", i, s, err)
		}
		v[i] = x
	}
	return rotation.V(v[0], v[1], v[2]), nil
}

// classifyFile returns the IDs of the grains in the trajectory table at
// path whose first orientation belongs to spec, ascending.
func classifyFile(fsys fsutil.FileSystem, path string, grainIDs []int, spec family.Spec) ([]int, error) {
	t, err := tabular.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	trajectories, err := trajectory.FromTable(t, grainIDs)
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(trajectories))
	for id := range trajectories {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	initial, err := trajectory.Initial(trajectories, ids)
	if err != nil {
		return nil, err
	}
	idx, err := spec.Classify(initial)
	if err != nil {
		return nil, err
	}
	members := make([]int, len(idx))
	for i, j := range idx {
		members[i] = ids[j]
	}
	return members, nil
}

func writeIDs(w io.Writer, ids []int) error {
	for _, id := range ids {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return err
		}
	}
	return nil
}

func storeFamily(ctx context.Context, path, runID, name string, members []int) error {
	db, err := store.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return store.NewRunStore(db, nil).InsertFamily(ctx, runID, name, members)
}
