package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/lumen-optics/eyecal/internal/fsutil"
	"github.com/lumen-optics/eyecal/internal/units"
)

// fileSystem backs config reads; tests swap in a MemoryFileSystem.
var fileSystem fsutil.FileSystem = fsutil.OSFileSystem{}

// DefaultConfigPath is the path to the canonical calibration defaults file.
// This is the single source of truth for all default calibration values.
const DefaultConfigPath = "config/calibration.defaults.json"

// CalibrationConfig is the root configuration for the calibration service.
// Fields are pointers so that partial JSON files only override what they
// mention; the Get* accessors supply defaults for everything else.
type CalibrationConfig struct {
	// Depth range embedded in produced matrices, millimetres.
	NearMM *float64 `json:"near_mm,omitempty"`
	FarMM  *float64 `json:"far_mm,omitempty"`

	// Solver params
	MinScaleSeparation *float64 `json:"min_scale_separation,omitempty"`

	// Default printed target, millimetres. Sessions may override per call.
	TargetWidthMM  *float64 `json:"target_width_mm,omitempty"`
	TargetHeightMM *float64 `json:"target_height_mm,omitempty"`

	// DefaultDevice selects the device profile applied when a session
	// request names none.
	DefaultDevice *string `json:"default_device,omitempty"`

	// ProfileCatalog is a path or URL to a device-profile catalog JSON.
	ProfileCatalog *string `json:"profile_catalog,omitempty"`

	// ReportUnits selects the length unit used by human-facing output.
	ReportUnits *string `json:"report_units,omitempty"`
}

// EmptyCalibrationConfig returns a CalibrationConfig with all fields unset.
// Use LoadCalibrationConfig to load actual values from the defaults file.
func EmptyCalibrationConfig() *CalibrationConfig {
	return &CalibrationConfig{}
}

// LoadCalibrationConfig loads a CalibrationConfig from a JSON file. The file
// must have a .json extension and stay under the max file size. Fields
// omitted from the file keep their defaults, so partial configs are safe.
func LoadCalibrationConfig(path string) (*CalibrationConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := fileSystem.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := fileSystem.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyCalibrationConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching upward from the current directory. Panics if the file cannot be
// loaded; intended for test setup.
func MustLoadDefaultConfig() *CalibrationConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadCalibrationConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that any set values are usable.
func (c *CalibrationConfig) Validate() error {
	if c.NearMM != nil && *c.NearMM <= 0 {
		return fmt.Errorf("near_mm must be positive, got %f", *c.NearMM)
	}
	if c.FarMM != nil && *c.FarMM <= 0 {
		return fmt.Errorf("far_mm must be positive, got %f", *c.FarMM)
	}
	if c.NearMM != nil && c.FarMM != nil && *c.FarMM <= *c.NearMM {
		return fmt.Errorf("far_mm %f must exceed near_mm %f", *c.FarMM, *c.NearMM)
	}
	if c.MinScaleSeparation != nil && (*c.MinScaleSeparation < 0 || *c.MinScaleSeparation >= 1) {
		return fmt.Errorf("min_scale_separation must be in [0, 1), got %f", *c.MinScaleSeparation)
	}
	if c.TargetWidthMM != nil && *c.TargetWidthMM <= 0 {
		return fmt.Errorf("target_width_mm must be positive, got %f", *c.TargetWidthMM)
	}
	if c.TargetHeightMM != nil && *c.TargetHeightMM <= 0 {
		return fmt.Errorf("target_height_mm must be positive, got %f", *c.TargetHeightMM)
	}
	if c.ReportUnits != nil && !units.IsValid(*c.ReportUnits) {
		return fmt.Errorf("report_units must be one of %s, got %q", units.GetValidUnitsString(), *c.ReportUnits)
	}
	return nil
}

// GetNearMM returns the near clip plane or the default.
func (c *CalibrationConfig) GetNearMM() float64 {
	if c.NearMM == nil {
		return 100.0
	}
	return *c.NearMM
}

// GetFarMM returns the far clip plane or the default.
func (c *CalibrationConfig) GetFarMM() float64 {
	if c.FarMM == nil {
		return 100000.0
	}
	return *c.FarMM
}

// GetMinScaleSeparation returns the solver's scale-spread floor or the default.
func (c *CalibrationConfig) GetMinScaleSeparation() float64 {
	if c.MinScaleSeparation == nil {
		return 0.05
	}
	return *c.MinScaleSeparation
}

// GetTargetWidthMM returns the default target width or the built-in default.
func (c *CalibrationConfig) GetTargetWidthMM() float64 {
	if c.TargetWidthMM == nil {
		return 80.0
	}
	return *c.TargetWidthMM
}

// GetTargetHeightMM returns the default target height or the built-in default.
func (c *CalibrationConfig) GetTargetHeightMM() float64 {
	if c.TargetHeightMM == nil {
		return 50.0
	}
	return *c.TargetHeightMM
}

// GetDefaultDevice returns the default device model, empty for generic.
func (c *CalibrationConfig) GetDefaultDevice() string {
	if c.DefaultDevice == nil {
		return ""
	}
	return *c.DefaultDevice
}

// GetProfileCatalog returns the profile catalog location, empty for none.
func (c *CalibrationConfig) GetProfileCatalog() string {
	if c.ProfileCatalog == nil {
		return ""
	}
	return *c.ProfileCatalog
}

// GetReportUnits returns the report length unit or the default.
func (c *CalibrationConfig) GetReportUnits() string {
	if c.ReportUnits == nil {
		return units.MM
	}
	return *c.ReportUnits
}
