package eyewear

import "testing"

func boolPtr(b bool) *bool { return &b }

func TestStereoStretched(t *testing.T) {
	tests := []struct {
		name    string
		profile DeviceProfile
		surface SurfaceDimensions
		want    bool
	}{
		{
			name:    "no panel data assumes unstretched",
			profile: DeviceProfile{},
			surface: SurfaceDimensions{Width: 1280, Height: 720},
			want:    false,
		},
		{
			name:    "surface matches single panel means merged and stretched",
			profile: DeviceProfile{PanelWidth: 960, PanelHeight: 540},
			surface: SurfaceDimensions{Width: 960, Height: 540},
			want:    true,
		},
		{
			name:    "doubled width is a true side-by-side surface",
			profile: DeviceProfile{PanelWidth: 960, PanelHeight: 540},
			surface: SurfaceDimensions{Width: 1920, Height: 540},
			want:    false,
		},
		{
			name:    "characterised override wins over geometry",
			profile: DeviceProfile{PanelWidth: 960, PanelHeight: 540, Stretched: boolPtr(false)},
			surface: SurfaceDimensions{Width: 960, Height: 540},
			want:    false,
		},
		{
			name:    "characterised override forces stretched",
			profile: DeviceProfile{Stretched: boolPtr(true)},
			surface: SurfaceDimensions{Width: 1920, Height: 540},
			want:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stereoStretched(tt.profile, tt.surface); got != tt.want {
				t.Errorf("stereoStretched = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionStereoStretched(t *testing.T) {
	cfg := baselineConfig()
	cfg.Surface = SurfaceDimensions{Width: 960, Height: 540}
	cfg.Profile = DeviceProfile{Model: "merged-hmd", PanelWidth: 960, PanelHeight: 540}
	s, err := NewSession(cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if !s.StereoStretched() {
		t.Error("session did not report the merged surface as stretched")
	}
}
