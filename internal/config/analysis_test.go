package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/banshee-data/texture.report/internal/aggregate"
	"github.com/banshee-data/texture.report/internal/rotation"
	"github.com/banshee-data/texture.report/internal/security"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if cfg.GetSnapshotDir() != "results" {
		t.Errorf("GetSnapshotDir() = %q, want results", cfg.GetSnapshotDir())
	}
	if !cfg.GetReorient() || !cfg.GetOffsetFirst() {
		t.Error("Expected reorient and offset_first to default true")
	}
	if cfg.GetSignificantFigures() != 5 {
		t.Errorf("GetSignificantFigures() = %d, want 5", cfg.GetSignificantFigures())
	}
	if len(cfg.Families) != 2 || cfg.Families[0].Name != "111" {
		t.Errorf("Families = %+v", cfg.Families)
	}
}

func TestLoadAnalysisConfigJSON(t *testing.T) {
	path := writeConfig(t, "run.json", `{
  "snapshot_dir": "sim/results",
  "database_path": "runs.db",
  "grain_ids": [1, 4, 9],
  "reorient": false,
  "workers": 3,
  "weight_field": "volume",
  "significant_figures": 7,
  "dedup_tolerance": 1e-9,
  "id_maps": [{"path": "ebsd_map.csv", "from_column": "ebsd_1", "to_column": "ebsd_2"}]
}`)

	cfg, err := LoadAnalysisConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetSnapshotDir() != "sim/results" {
		t.Errorf("GetSnapshotDir() = %q", cfg.GetSnapshotDir())
	}
	if cfg.GetDatabasePath() != "runs.db" {
		t.Errorf("GetDatabasePath() = %q", cfg.GetDatabasePath())
	}
	if cfg.GetReorient() {
		t.Error("Expected reorient false")
	}
	if !cfg.GetOffsetFirst() {
		t.Error("Expected offset_first to default true")
	}
	if cfg.GetWorkers() != 3 {
		t.Errorf("GetWorkers() = %d, want 3", cfg.GetWorkers())
	}
	if cfg.GetSignificantFigures() != 7 || cfg.GetDedupTolerance() != 1e-9 {
		t.Errorf("sig figs %d, tolerance %g", cfg.GetSignificantFigures(), cfg.GetDedupTolerance())
	}
	if len(cfg.IDMaps) != 1 || cfg.IDMaps[0].ToColumn != "ebsd_2" {
		t.Errorf("IDMaps = %+v", cfg.IDMaps)
	}

	opts := cfg.AggregateOptions(nil)
	if opts.Reorient || !opts.OffsetFirst || opts.Workers != 3 || opts.WeightField != "volume" {
		t.Errorf("AggregateOptions() = %+v", opts)
	}
}

func TestLoadAnalysisConfigTOML(t *testing.T) {
	path := writeConfig(t, "run.toml", `
snapshot_dir = "deer/results"
offset_first = false
exclude_grains = [301, 302]

[[families]]
name = "goss"
plane = [0.0, 1.0, 1.0]
direction = [1.0, 0.0, 0.0]
sample_axis = [0.0, 0.0, 1.0]
threshold_degrees = 7.5
`)

	cfg, err := LoadAnalysisConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.GetSnapshotDir() != "deer/results" || cfg.GetOffsetFirst() {
		t.Errorf("unexpected values: %q %v", cfg.GetSnapshotDir(), cfg.GetOffsetFirst())
	}
	if len(cfg.Families) != 1 {
		t.Fatalf("Families = %+v", cfg.Families)
	}
	spec := cfg.Families[0].Spec()
	if spec.Name != "goss" || spec.ThresholdDegrees != 7.5 {
		t.Errorf("Spec() = %+v", spec)
	}
	if spec.SampleAxis != rotation.V(0, 0, 1) || spec.Plane != rotation.V(0, 1, 1) {
		t.Errorf("Spec() vectors = %+v", spec)
	}
}

func TestLoadAnalysisConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"bad extension", "run.yaml", "snapshot_dir: x", "extension"},
		{"invalid JSON", "run.json", `{"workers": "many"`, "parse config JSON"},
		{"invalid TOML", "run.toml", `workers = [`, "parse config TOML"},
		{"negative workers", "run.json", `{"workers": -2}`, "Workers"},
		{"family without plane", "run.json", `{"families": [{"name": "a", "direction": [1,0,0]}]}`, "Plane"},
		{"threshold too large", "run.json", `{"families": [{"name": "a", "plane": [0,0,1], "direction": [1,0,0], "threshold_degrees": 200}]}`, "ThresholdDegrees"},
		{"unsupported lattice", "run.json", `{"families": [{"name": "a", "plane": [0,0,1], "direction": [1,0,0], "lattice": "hcp"}]}`, "Lattice"},
		{"degenerate family", "run.json", `{"families": [{"name": "a", "plane": [0,0,1], "direction": [0,0,3]}]}`, "degenerate"},
		{"id map without columns", "run.json", `{"id_maps": [{"path": "m.csv"}]}`, "FromColumn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadAnalysisConfig(writeConfig(t, tt.file, tt.body))
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadAnalysisConfig("/nonexistent/path/to/config.json"); err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadAnalysisConfigTooLarge(t *testing.T) {
	body := `{"snapshot_dir": "` + strings.Repeat("x", maxFileSize) + `"}`
	_, err := LoadAnalysisConfig(writeConfig(t, "big.json", body))
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected too-large error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *AnalysisConfig
		wantErr bool
	}{
		{"empty config is valid", &AnalysisConfig{}, false},
		{"defaults are valid", MustLoadDefaultConfig(), false},
		{"negative tolerance", &AnalysisConfig{DedupTolerance: ptrFloat64(-1)}, true},
		{"too many significant figures", &AnalysisConfig{SignificantFigures: ptrInt(30)}, true},
		{"selected and excluded", &AnalysisConfig{GrainIDs: []int{1, 2}, ExcludeGrains: []int{2}}, true},
		{
			"duplicate family names",
			&AnalysisConfig{Families: []FamilyConfig{
				{Name: "a", Plane: []float64{0, 0, 1}, Direction: []float64{1, 0, 0}},
				{Name: "a", Plane: []float64{1, 1, 1}, Direction: []float64{1, -1, 0}},
			}},
			true,
		},
		{"weight field set", &AnalysisConfig{WeightField: ptrString("volume"), Reorient: ptrBool(false)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGettersDefaults(t *testing.T) {
	cfg := EmptyAnalysisConfig()

	if cfg.GetOutputPath() != "summary.csv" {
		t.Errorf("GetOutputPath() = %q", cfg.GetOutputPath())
	}
	if cfg.GetDatabasePath() != "" || cfg.GetWeightField() != "" {
		t.Error("Expected empty database path and weight field")
	}
	if cfg.GetStressField() != "cauchy_stress_xx" || cfg.GetStrainField() != "elastic_strain_xx" {
		t.Errorf("fields = %q, %q", cfg.GetStressField(), cfg.GetStrainField())
	}
	if cfg.GetWorkers() != runtime.GOMAXPROCS(0) {
		t.Errorf("GetWorkers() = %d", cfg.GetWorkers())
	}
	if cfg.GetDedupTolerance() != 0 {
		t.Errorf("GetDedupTolerance() = %g", cfg.GetDedupTolerance())
	}
}

func TestSelectGrains(t *testing.T) {
	m := aggregate.Membership{1: {10}, 2: {20}, 3: {30}, 301: {3010}}

	tests := []struct {
		name string
		cfg  *AnalysisConfig
		want []int
	}{
		{"all", &AnalysisConfig{}, []int{1, 2, 3, 301}},
		{"selected", &AnalysisConfig{GrainIDs: []int{2, 3, 99}}, []int{2, 3}},
		{"excluded", &AnalysisConfig{ExcludeGrains: []int{301}}, []int{1, 2, 3}},
		{"both", &AnalysisConfig{GrainIDs: []int{1, 2}, ExcludeGrains: []int{301}}, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.SelectGrains(m).GrainIDs()
			if len(got) != len(tt.want) {
				t.Fatalf("SelectGrains() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("SelectGrains() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestResolvePath(t *testing.T) {
	path := writeConfig(t, "run.json", `{"id_maps": [{"path": "maps/ebsd_map.csv", "from_column": "a", "to_column": "b"}]}`)
	cfg, err := LoadAnalysisConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	got, err := cfg.ResolvePath(cfg.IDMaps[0].Path)
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}
	if want := filepath.Join(filepath.Dir(path), "maps", "ebsd_map.csv"); got != want {
		t.Errorf("ResolvePath() = %q, want %q", got, want)
	}
	if _, err := cfg.ResolvePath("../../elsewhere.csv"); !errors.Is(err, security.ErrPathEscape) {
		t.Errorf("Expected ErrPathEscape, got %v", err)
	}

	// Configs built in code resolve against the working directory.
	got, err = EmptyAnalysisConfig().ResolvePath("maps/../ebsd_map.csv")
	if err != nil || got != "ebsd_map.csv" {
		t.Errorf("ResolvePath() = %q, %v", got, err)
	}
}
