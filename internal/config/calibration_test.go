package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lumen-optics/eyecal/internal/fsutil"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "calibration.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyCalibrationConfig()
	if got := cfg.GetNearMM(); got != 100.0 {
		t.Errorf("GetNearMM = %v, want 100", got)
	}
	if got := cfg.GetFarMM(); got != 100000.0 {
		t.Errorf("GetFarMM = %v, want 100000", got)
	}
	if got := cfg.GetMinScaleSeparation(); got != 0.05 {
		t.Errorf("GetMinScaleSeparation = %v, want 0.05", got)
	}
	if got := cfg.GetTargetWidthMM(); got != 80.0 {
		t.Errorf("GetTargetWidthMM = %v, want 80", got)
	}
	if got := cfg.GetReportUnits(); got != "mm" {
		t.Errorf("GetReportUnits = %q, want mm", got)
	}
	if got := cfg.GetDefaultDevice(); got != "" {
		t.Errorf("GetDefaultDevice = %q, want empty", got)
	}
}

func TestLoadPartialConfig(t *testing.T) {
	path := writeConfig(t, `{"near_mm": 250.0, "default_device": "epson-bt200"}`)
	cfg, err := LoadCalibrationConfig(path)
	if err != nil {
		t.Fatalf("LoadCalibrationConfig: %v", err)
	}
	if got := cfg.GetNearMM(); got != 250.0 {
		t.Errorf("GetNearMM = %v, want 250", got)
	}
	if got := cfg.GetDefaultDevice(); got != "epson-bt200" {
		t.Errorf("GetDefaultDevice = %q, want epson-bt200", got)
	}
	// Untouched fields keep defaults.
	if got := cfg.GetFarMM(); got != 100000.0 {
		t.Errorf("GetFarMM = %v, want default 100000", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []string{
		`{"near_mm": -1}`,
		`{"far_mm": 0}`,
		`{"near_mm": 500, "far_mm": 100}`,
		`{"min_scale_separation": 1.5}`,
		`{"target_width_mm": -80}`,
	}
	for _, content := range cases {
		path := writeConfig(t, content)
		if _, err := LoadCalibrationConfig(path); err == nil {
			t.Errorf("LoadCalibrationConfig(%s) succeeded, want error", content)
		}
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.yaml")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadCalibrationConfig(path); err == nil {
		t.Error("expected error for non-json extension")
	}
}

func TestLoadFromMemoryFileSystem(t *testing.T) {
	mem := fsutil.NewMemoryFileSystem()
	if err := mem.WriteFile("etc/calibration.json", []byte(`{"near_mm": 200}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	fileSystem = mem
	t.Cleanup(func() { fileSystem = fsutil.OSFileSystem{} })

	cfg, err := LoadCalibrationConfig("etc/calibration.json")
	if err != nil {
		t.Fatalf("LoadCalibrationConfig: %v", err)
	}
	if got := cfg.GetNearMM(); got != 200 {
		t.Errorf("GetNearMM = %v, want 200", got)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.GetFarMM() <= cfg.GetNearMM() {
		t.Error("default depth range inverted")
	}
}
