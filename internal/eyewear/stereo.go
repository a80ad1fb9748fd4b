package eyewear

// stereoStretched reports whether the device presents its two eye displays as
// one merged logical surface without doubling the reported resolution. When
// the OS joins the panels for side-by-side stereo the surface should claim
// twice a single panel's width; if it still claims a single panel's
// dimensions, each logical pixel has been stretched to span both panels.
//
// A profile with a characterised Stretched flag wins over the geometric test.
// Without panel dimensions the test cannot run and the surface is assumed
// unstretched.
func stereoStretched(p DeviceProfile, surface SurfaceDimensions) bool {
	if p.Stretched != nil {
		return *p.Stretched
	}
	if p.PanelWidth <= 0 || p.PanelHeight <= 0 {
		return false
	}
	return surface.Width == p.PanelWidth && surface.Height == p.PanelHeight
}
