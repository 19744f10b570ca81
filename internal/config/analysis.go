package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/banshee-data/texture.report/internal/aggregate"
	"github.com/banshee-data/texture.report/internal/family"
	"github.com/banshee-data/texture.report/internal/monitoring"
	"github.com/banshee-data/texture.report/internal/rotation"
	"github.com/banshee-data/texture.report/internal/security"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
// This is the single source of truth for all default analysis values.
const DefaultConfigPath = "config/analysis.defaults.json"

// maxFileSize bounds config files read from disk.
const maxFileSize = 1 * 1024 * 1024 // 1MB

var validate = validator.New()

// FamilyConfig is one named grain family query.
type FamilyConfig struct {
	Name             string    `json:"name" toml:"name" validate:"required"`
	Plane            []float64 `json:"plane" toml:"plane" validate:"len=3"`
	Direction        []float64 `json:"direction" toml:"direction" validate:"len=3"`
	SampleAxis       []float64 `json:"sample_axis,omitempty" toml:"sample_axis" validate:"omitempty,len=3"`
	ThresholdDegrees float64   `json:"threshold_degrees" toml:"threshold_degrees" validate:"gte=0,lte=180"`
	Lattice          string    `json:"lattice,omitempty" toml:"lattice" validate:"omitempty,oneof=cubic"`
}

// Spec converts the query for the classifier. The sample axis defaults to
// sample x.
func (f FamilyConfig) Spec() family.Spec {
	axis := rotation.V(1, 0, 0)
	if len(f.SampleAxis) == 3 {
		axis, _ = rotation.VecFromSlice(f.SampleAxis)
	}
	plane, _ := rotation.VecFromSlice(f.Plane)
	direction, _ := rotation.VecFromSlice(f.Direction)
	return family.Spec{
		Name:             f.Name,
		Plane:            plane,
		Direction:        direction,
		SampleAxis:       axis,
		ThresholdDegrees: f.ThresholdDegrees,
		Lattice:          f.Lattice,
	}
}

// IDMapConfig names a two-column ID map table.
type IDMapConfig struct {
	Path       string `json:"path" toml:"path" validate:"required"`
	FromColumn string `json:"from_column" toml:"from_column" validate:"required"`
	ToColumn   string `json:"to_column" toml:"to_column" validate:"required"`
}

// AnalysisConfig is the root configuration of a trajectory analysis run.
// Pointer fields are optional; the Get* accessors supply defaults.
type AnalysisConfig struct {
	// Inputs and outputs
	SnapshotDir  *string `json:"snapshot_dir,omitempty" toml:"snapshot_dir"`
	OutputPath   *string `json:"output_path,omitempty" toml:"output_path"`
	DatabasePath *string `json:"database_path,omitempty" toml:"database_path"`

	// Grain selection
	GrainIDs      []int `json:"grain_ids,omitempty" toml:"grain_ids"`
	ExcludeGrains []int `json:"exclude_grains,omitempty" toml:"exclude_grains"`

	// Averaging
	Reorient    *bool   `json:"reorient,omitempty" toml:"reorient"`
	OffsetFirst *bool   `json:"offset_first,omitempty" toml:"offset_first"`
	Workers     *int    `json:"workers,omitempty" toml:"workers" validate:"omitempty,gte=0,lte=1024"`
	WeightField *string `json:"weight_field,omitempty" toml:"weight_field"`

	// Summary table
	StressField        *string  `json:"stress_field,omitempty" toml:"stress_field"`
	StrainField        *string  `json:"strain_field,omitempty" toml:"strain_field"`
	SignificantFigures *int     `json:"significant_figures,omitempty" toml:"significant_figures" validate:"omitempty,gte=0,lte=17"`
	DedupTolerance     *float64 `json:"dedup_tolerance,omitempty" toml:"dedup_tolerance" validate:"omitempty,gte=0"`

	Families []FamilyConfig `json:"families,omitempty" toml:"families" validate:"dive"`
	IDMaps   []IDMapConfig  `json:"id_maps,omitempty" toml:"id_maps" validate:"dive"`

	// baseDir is the directory of the loaded file; empty when built in code.
	baseDir string
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset.
// Use LoadAnalysisConfig to load actual values from a file.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a .json or .toml file
// under the max file size. Fields omitted from the file fall back to their
// defaults, so partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	if ext != ".json" && ext != ".toml" {
		return nil, fmt.Errorf("config file must have .json or .toml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	cfg.baseDir = filepath.Dir(cleanPath)
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from cmd/
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks struct tags, then the rules tags cannot express.
func (c *AnalysisConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return err
	}

	names := make(map[string]bool, len(c.Families))
	for _, f := range c.Families {
		if names[f.Name] {
			return fmt.Errorf("duplicate family name %q", f.Name)
		}
		names[f.Name] = true
		if _, err := family.Target(f.Spec().Plane, f.Spec().Direction); err != nil {
			return fmt.Errorf("family %q: %w", f.Name, err)
		}
	}

	excluded := make(map[int]bool, len(c.ExcludeGrains))
	for _, id := range c.ExcludeGrains {
		excluded[id] = true
	}
	for _, id := range c.GrainIDs {
		if excluded[id] {
			return fmt.Errorf("grain %d is both selected and excluded", id)
		}
	}
	return nil
}

// ResolvePath resolves an id_maps path. Relative paths are taken from the
// config file's directory and may not leave it.
func (c *AnalysisConfig) ResolvePath(p string) (string, error) {
	if c.baseDir == "" {
		return filepath.Clean(p), nil
	}
	return security.ResolveWithin(c.baseDir, p)
}

// GetSnapshotDir returns the snapshot_dir value or the default.
func (c *AnalysisConfig) GetSnapshotDir() string {
	if c.SnapshotDir == nil || *c.SnapshotDir == "" {
		return "results"
	}
	return *c.SnapshotDir
}

// GetOutputPath returns the output_path value or the default.
func (c *AnalysisConfig) GetOutputPath() string {
	if c.OutputPath == nil || *c.OutputPath == "" {
		return "summary.csv"
	}
	return *c.OutputPath
}

// GetDatabasePath returns the database_path value. Empty disables
// persistence.
func (c *AnalysisConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return ""
	}
	return *c.DatabasePath
}

// GetReorient returns the reorient value or the default.
func (c *AnalysisConfig) GetReorient() bool {
	if c.Reorient == nil {
		return true
	}
	return *c.Reorient
}

// GetOffsetFirst returns the offset_first value or the default.
func (c *AnalysisConfig) GetOffsetFirst() bool {
	if c.OffsetFirst == nil {
		return true
	}
	return *c.OffsetFirst
}

// GetWorkers returns the workers value, or GOMAXPROCS when unset or zero.
func (c *AnalysisConfig) GetWorkers() int {
	if c.Workers == nil || *c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return *c.Workers
}

// GetWeightField returns the weight_field value. Empty weights elements
// equally.
func (c *AnalysisConfig) GetWeightField() string {
	if c.WeightField == nil {
		return ""
	}
	return *c.WeightField
}

// GetStressField returns the stress_field value or the default.
func (c *AnalysisConfig) GetStressField() string {
	if c.StressField == nil {
		return "cauchy_stress_xx"
	}
	return *c.StressField
}

// GetStrainField returns the strain_field value or the default.
func (c *AnalysisConfig) GetStrainField() string {
	if c.StrainField == nil {
		return "elastic_strain_xx"
	}
	return *c.StrainField
}

// GetSignificantFigures returns the significant_figures value or the
// default. Zero disables rounding.
func (c *AnalysisConfig) GetSignificantFigures() int {
	if c.SignificantFigures == nil {
		return 5
	}
	return *c.SignificantFigures
}

// GetDedupTolerance returns the dedup_tolerance value or the default of
// exact comparison.
func (c *AnalysisConfig) GetDedupTolerance() float64 {
	if c.DedupTolerance == nil {
		return 0
	}
	return *c.DedupTolerance
}

// AggregateOptions builds the averaging options for this configuration.
func (c *AnalysisConfig) AggregateOptions(progress *monitoring.Progress) aggregate.Options {
	return aggregate.Options{
		Reorient:    c.GetReorient(),
		OffsetFirst: c.GetOffsetFirst(),
		Workers:     c.GetWorkers(),
		WeightField: c.GetWeightField(),
		Progress:    progress,
	}
}

// SelectGrains applies grain_ids and exclude_grains to membership.
func (c *AnalysisConfig) SelectGrains(m aggregate.Membership) aggregate.Membership {
	if c.GrainIDs != nil {
		m = m.Restrict(c.GrainIDs)
	}
	if len(c.ExcludeGrains) == 0 {
		return m
	}
	excluded := make(map[int]bool, len(c.ExcludeGrains))
	for _, id := range c.ExcludeGrains {
		excluded[id] = true
	}
	out := make(aggregate.Membership, len(m))
	for id, elements := range m {
		if !excluded[id] {
			out[id] = elements
		}
	}
	return out
}
