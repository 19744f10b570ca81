package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/banshee-data/texture.report/internal/fsutil"
	"github.com/banshee-data/texture.report/internal/rotation"
	"github.com/banshee-data/texture.report/internal/security"
	"github.com/banshee-data/texture.report/internal/store"
	"github.com/banshee-data/texture.report/internal/tabular"
	"github.com/banshee-data/texture.report/internal/trajectory"
)

func newRunsCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored analysis runs",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "texture.db", "database path")

	list := &cobra.Command{
		Use:   "list",
		Short: "List runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			runs, err := store.NewRunStore(db, nil).ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tCREATED\tGRAINS\tLABEL")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.GrainCount, r.Label)
			}
			return w.Flush()
		},
	}

	families := &cobra.Command{
		Use:   "families <run-id>",
		Short: "Print the families stored against a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			fams, err := store.NewRunStore(db, nil).ListFamilies(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, f := range fams {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", f.Name, f.GrainIDs)
			}
			return nil
		},
	}

	var output string
	var sigFigs int
	export := &cobra.Command{
		Use:   "export <run-id>",
		Short: "Write the stored trajectories of a run as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			runs := store.NewRunStore(db, nil)
			t, err := exportRun(cmd.Context(), runs, args[0], sigFigs)
			if err != nil {
				return err
			}
			path := output
			if path == "" {
				run, err := runs.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				path = exportName(run)
			}
			if err := tabular.WriteFile(fsutil.OSFileSystem{}, path, t); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	export.Flags().StringVarP(&output, "output", "o", "", "output table (default <label>_<run>.csv)")
	export.Flags().IntVar(&sigFigs, "sig-figs", 5, "significant figures, 0 for full precision")

	cmd.AddCommand(list, families, export)
	return cmd
}

// exportName derives a file name from the run label and the first block of
// its ID.
func exportName(run *store.Run) string {
	id, _, _ := strings.Cut(run.ID, "-")
	if run.Label == "" {
		return id + ".csv"
	}
	return security.SanitizeFilename(run.Label) + "_" + id + ".csv"
}

// exportRun rebuilds the trajectory table of a stored run.
func exportRun(ctx context.Context, runs *store.RunStore, runID string, sigFigs int) (*tabular.Table, error) {
	if _, err := runs.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	ids, err := runs.GrainIDs(ctx, runID)
	if err != nil {
		return nil, err
	}
	trajectories := make(map[int][]rotation.EulerAngle, len(ids))
	for _, id := range ids {
		seq, err := runs.GetTrajectory(ctx, runID, id)
		if err != nil {
			return nil, err
		}
		trajectories[id] = seq
	}
	return trajectory.ToTable(trajectories, ids, sigFigs)
}
