package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/banshee-data/texture.report/internal/aggregate"
	"github.com/banshee-data/texture.report/internal/config"
	"github.com/banshee-data/texture.report/internal/family"
	"github.com/banshee-data/texture.report/internal/fsutil"
	"github.com/banshee-data/texture.report/internal/identity"
	"github.com/banshee-data/texture.report/internal/monitoring"
	"github.com/banshee-data/texture.report/internal/rotation"
	"github.com/banshee-data/texture.report/internal/store"
	"github.com/banshee-data/texture.report/internal/tabular"
	"github.com/banshee-data/texture.report/internal/timeutil"
	"github.com/banshee-data/texture.report/internal/trajectory"
	"github.com/banshee-data/texture.report/internal/units"
)

type trajectoriesFlags struct {
	configPath string
	snapshots  string
	output     string
	dbPath     string
	label      string
	units      string
}

func newTrajectoriesCmd() *cobra.Command {
	var f trajectoriesFlags
	cmd := &cobra.Command{
		Use:   "trajectories",
		Short: "Average snapshots into per-grain Euler trajectories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !units.IsValid(f.units) {
				return fmt.Errorf("invalid units %q, want one of: %s", f.units, units.GetValidUnitsString())
			}
			cfg, err := loadConfig(f.configPath)
			if err != nil {
				return err
			}
			if f.snapshots != "" {
				cfg.SnapshotDir = &f.snapshots
			}
			if f.output != "" {
				cfg.OutputPath = &f.output
			}
			if f.dbPath != "" {
				cfg.DatabasePath = &f.dbPath
			}

			progress := monitoring.NewProgress("trajectories", nil, timeutil.RealClock{})
			result, err := analyze(cmd.Context(), cfg, fsutil.OSFileSystem{}, f.units, progress)
			if err != nil {
				return err
			}
			if err := tabular.WriteFile(fsutil.OSFileSystem{}, cfg.GetOutputPath(), result.Table); err != nil {
				return fmt.Errorf("writing %s: %w", cfg.GetOutputPath(), err)
			}
			progress.Step("wrote %s", cfg.GetOutputPath())

			if path := cfg.GetDatabasePath(); path != "" {
				runID, err := persist(cmd.Context(), path, f.label, cfg, result)
				if err != nil {
					return err
				}
				progress.Step("stored run %s in %s", runID, path)
				fmt.Fprintln(cmd.OutOrStdout(), runID)
			}
			progress.Done()
			return nil
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "analysis config (.json or .toml); defaults apply when empty")
	cmd.Flags().StringVar(&f.snapshots, "snapshots", "", "override snapshot_dir")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "override output_path")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "override database_path")
	cmd.Flags().StringVar(&f.label, "label", "", "label stored with the run")
	cmd.Flags().StringVar(&f.units, "units", units.Radians, "angle units of the trajectory columns ("+units.GetValidUnitsString()+")")
	return cmd
}

func loadConfig(path string) (*config.AnalysisConfig, error) {
	if path == "" {
		return config.EmptyAnalysisConfig(), nil
	}
	return config.LoadAnalysisConfig(path)
}

// analysisResult is the outcome of one trajectories run.
type analysisResult struct {
	Snapshots    int
	Trajectories map[int][]rotation.EulerAngle
	Families     map[string][]int
	Table        *tabular.Table
}

// analyze reads the snapshot directory and builds the summary table:
// trajectory columns per grain (renamed into experimental numbering when
// id_maps are configured), then the global stress and strain curves,
// then each family's stress and strain curves. Curves whose field is
// absent from the snapshots are left out.
func analyze(ctx context.Context, cfg *config.AnalysisConfig, fsys fsutil.FileSystem, unit string, progress *monitoring.Progress) (*analysisResult, error) {
	dir := cfg.GetSnapshotDir()
	snapshots, err := tabular.ReadSnapshotDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("no snapshots with a %s column in %s", tabular.GrainColumn, dir)
	}
	progress.Step("read %d snapshots from %s", len(snapshots), dir)

	membership := cfg.SelectGrains(aggregate.MembershipFromSnapshot(snapshots[len(snapshots)-1]))
	series, err := aggregate.GrainOrientationSeries(ctx, snapshots, membership, cfg.AggregateOptions(progress))
	if err != nil {
		return nil, err
	}
	trajectories, err := trajectory.BuildAll(series, nil)
	if err != nil {
		return nil, err
	}
	if tol := cfg.GetDedupTolerance(); tol > 0 {
		for id, seq := range trajectories {
			trajectories[id] = trajectory.DeduplicateConsecutiveWithin(seq, tol)
		}
	}
	progress.Step("built %d trajectories", len(trajectories))

	ids := make([]int, 0, len(trajectories))
	for id := range trajectories {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	tableIDs := ids
	var toExperimental identity.Map
	if len(cfg.IDMaps) > 0 {
		if toExperimental, err = experimentalIDs(fsys, cfg); err != nil {
			return nil, err
		}
		tableIDs = toExperimental.Restrict(ids).Keys()
		progress.Step("%d of %d grains have an experimental ID", len(tableIDs), len(ids))
	}
	table, err := trajectory.ToTable(convertUnits(trajectories, unit), tableIDs, cfg.GetSignificantFigures())
	if err != nil {
		return nil, err
	}
	if toExperimental != nil {
		if table, err = trajectory.RenameGrains(table, toExperimental); err != nil {
			return nil, err
		}
	}

	initial, err := trajectory.Initial(trajectories, ids)
	if err != nil {
		return nil, err
	}

	fields := map[string]string{"stress": cfg.GetStressField(), "strain": cfg.GetStrainField()}
	grainSeries := make(map[string]map[int][]float64, len(fields))
	for _, key := range []string{"stress", "strain"} {
		curve, err := aggregate.FieldAverages(snapshots, fields[key])
		if errors.Is(err, aggregate.ErrUnknownField) {
			monitoring.Logf("skipping %s curve: %v", key, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		table.Set("sim_"+key, curve)
		gs, err := aggregate.GrainFieldSeries(snapshots, membership, fields[key], cfg.GetWeightField())
		if err != nil {
			return nil, err
		}
		grainSeries[key] = gs
	}

	weights, err := grainWeights(snapshots, membership, cfg.GetWeightField())
	if err != nil {
		return nil, err
	}

	families := make(map[string][]int, len(cfg.Families))
	for _, fc := range cfg.Families {
		idx, err := fc.Spec().Classify(initial)
		if err != nil {
			return nil, err
		}
		members := make([]int, len(idx))
		for i, j := range idx {
			members[i] = ids[j]
		}
		families[fc.Name] = members
		progress.Step("family %s: %d of %d grains", fc.Name, len(members), len(ids))

		for _, key := range []string{"stress", "strain"} {
			gs, ok := grainSeries[key]
			if !ok {
				continue
			}
			curve, err := family.AverageField(gs, weights, members)
			if errors.Is(err, family.ErrEmptyFamily) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("family %q: %w", fc.Name, err)
			}
			table.Set(fc.Name+"_"+key, curve)
		}
	}

	return &analysisResult{
		Snapshots:    len(snapshots),
		Trajectories: trajectories,
		Families:     families,
		Table:        table,
	}, nil
}

// experimentalIDs resolves the configured ID map chain, which runs from
// experimental to simulation numbering, and inverts it.
func experimentalIDs(fsys fsutil.FileSystem, cfg *config.AnalysisConfig) (identity.Map, error) {
	sources := make([]mapSource, len(cfg.IDMaps))
	for i, m := range cfg.IDMaps {
		path, err := cfg.ResolvePath(m.Path)
		if err != nil {
			return nil, err
		}
		sources[i] = mapSource{path: path, from: m.FromColumn, to: m.ToColumn}
	}
	chain, err := loadMaps(fsys, sources)
	if err != nil {
		return nil, err
	}
	m, err := identity.ResolveChain(chain...).Inverse()
	if err != nil {
		return nil, fmt.Errorf("id_maps: %w", err)
	}
	return m, nil
}

// convertUnits returns trajectories with every angle in unit. Radians are
// returned as is.
func convertUnits(trajectories map[int][]rotation.EulerAngle, unit string) map[int][]rotation.EulerAngle {
	if unit != units.Degrees {
		return trajectories
	}
	out := make(map[int][]rotation.EulerAngle, len(trajectories))
	for id, seq := range trajectories {
		converted := make([]rotation.EulerAngle, len(seq))
		for i, e := range seq {
			converted[i] = rotation.Euler(
				units.ConvertAngle(e.Phi1, unit),
				units.ConvertAngle(e.Phi, unit),
				units.ConvertAngle(e.Phi2, unit),
			)
		}
		out[id] = converted
	}
	return out
}

// grainWeights sums weightField over each grain's elements at every
// timestep. It returns nil when weightField is empty.
func grainWeights(snapshots []aggregate.Snapshot, membership aggregate.Membership, weightField string) (map[int][]float64, error) {
	if weightField == "" {
		return nil, nil
	}
	return aggregate.GrainFieldTotals(snapshots, membership, weightField)
}

// persist stores the run, its trajectories and families, and returns the
// run ID.
func persist(ctx context.Context, path, label string, cfg *config.AnalysisConfig, result *analysisResult) (string, error) {
	db, err := store.Open(path)
	if err != nil {
		return "", err
	}
	defer db.Close()

	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	runs := store.NewRunStore(db, nil)
	run, err := runs.InsertRun(ctx, label, raw)
	if err != nil {
		return "", err
	}
	if err := runs.InsertTrajectories(ctx, run.ID, result.Trajectories); err != nil {
		return "", err
	}
	names := make([]string, 0, len(result.Families))
	for name := range result.Families {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := runs.InsertFamily(ctx, run.ID, name, result.Families[name]); err != nil {
			return "", err
		}
	}
	return run.ID, nil
}
