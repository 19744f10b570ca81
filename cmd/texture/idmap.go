package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/banshee-data/texture.report/internal/fsutil"
	"github.com/banshee-data/texture.report/internal/identity"
	"github.com/banshee-data/texture.report/internal/tabular"
	"github.com/banshee-data/texture.report/internal/trajectory"
)

// mapSource is one --map argument: a table and its two ID columns.
type mapSource struct {
	path, from, to string
}

func parseMapSource(s string) (mapSource, error) {
	// Split from the right so paths may contain colons.
	parts := strings.Split(s, ":")
	if len(parts) < 3 {
		return mapSource{}, fmt.Errorf("--map %q: want path:from_column:to_column", s)
	}
	n := len(parts)
	src := mapSource{
		path: strings.Join(parts[:n-2], ":"),
		from: parts[n-2],
		to:   parts[n-1],
	}
	if src.path == "" || src.from == "" || src.to == "" {
		return mapSource{}, fmt.Errorf("--map %q: empty path or column", s)
	}
	return src, nil
}

func newIDMapCmd() *cobra.Command {
	var (
		maps   []string
		rename string
		output string
	)
	cmd := &cobra.Command{
		Use:   "idmap",
		Short: "Resolve grain IDs through a chain of ID maps",
		Long: `idmap composes the given ID maps in order and prints, for every starting
ID that survives the chain, its ID in each namespace. With --rename the
g{id}_* columns of a trajectory table are renamed into the last namespace
and written to --output.`,
		Example: "  texture idmap --map ebsd_map.csv:ebsd_1:ebsd_2 --map mesh_map.csv:ebsd_id:mesh_id",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := fsutil.OSFileSystem{}
			sources := make([]mapSource, len(maps))
			for i, s := range maps {
				src, err := parseMapSource(s)
				if err != nil {
					return err
				}
				sources[i] = src
			}
			chain, err := loadMaps(fsys, sources)
			if err != nil {
				return err
			}
			if rename != "" {
				return renameTable(fsys, rename, output, identity.ResolveChain(chain...))
			}
			return writeAligned(cmd.OutOrStdout(), sources, identity.Align(chain...))
		},
	}
	cmd.Flags().StringArrayVar(&maps, "map", nil, "ID map as path:from_column:to_column, repeatable, applied in order")
	cmd.Flags().StringVar(&rename, "rename", "", "trajectory table to rename through the resolved chain")
	cmd.Flags().StringVarP(&output, "output", "o", "renamed.csv", "output path for --rename")
	_ = cmd.MarkFlagRequired("map")
	return cmd
}

func loadMaps(fsys fsutil.FileSystem, sources []mapSource) ([]identity.Map, error) {
	chain := make([]identity.Map, len(sources))
	for i, src := range sources {
		t, err := tabular.ReadFile(fsys, src.path)
		if err != nil {
			return nil, err
		}
		m, err := tabular.MapFromTable(t, src.from, src.to)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.path, err)
		}
		chain[i] = m
	}
	return chain, nil
}

// writeAligned prints one CSV row per resolved ID, headed by the column
// names of each namespace.
func writeAligned(w io.Writer, sources []mapSource, rows [][]int) error {
	header := []string{sources[0].from}
	for _, src := range sources {
		header = append(header, src.to)
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, ",")); err != nil {
		return err
	}
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, id := range row {
			cells[i] = strconv.Itoa(id)
		}
		if _, err := fmt.Fprintln(w, strings.Join(cells, ",")); err != nil {
			return err
		}
	}
	return nil
}

func renameTable(fsys fsutil.FileSystem, in, out string, m identity.Map) error {
	t, err := tabular.ReadFile(fsys, in)
	if err != nil {
		return err
	}
	renamed, err := trajectory.RenameGrains(t, m)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	return tabular.WriteFile(fsys, out, renamed)
}
