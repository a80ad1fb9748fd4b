// Package units holds the measurement-unit helpers shared by the calibration
// tools and API. Calibration itself is strictly millimetre-based; these
// helpers exist so the outer surfaces can accept and report friendlier units.
package units

import "strings"

const (
	MM = "mm"
	CM = "cm"
	M  = "m"
	IN = "in"
)

var ValidUnits = []string{MM, CM, M, IN}

// IsValid checks if the provided length unit is supported.
func IsValid(unit string) bool {
	for _, u := range ValidUnits {
		if u == unit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated list of valid units for
// error messages.
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertLength converts a millimetre value into the target unit. Unknown
// units pass the value through unchanged.
func ConvertLength(valueMM float64, targetUnits string) float64 {
	switch targetUnits {
	case CM:
		return valueMM / 10
	case M:
		return valueMM / 1000
	case IN:
		return valueMM / 25.4
	case MM:
		return valueMM
	default:
		return valueMM
	}
}

// ConvertToMM converts a value in the given unit back to millimetres.
func ConvertToMM(value float64, sourceUnits string) float64 {
	switch sourceUnits {
	case CM:
		return value * 10
	case M:
		return value * 1000
	case IN:
		return value * 25.4
	case MM:
		return value
	default:
		return value
	}
}

// PixelsPerMM returns the surface pixel density given a physical display
// width. Zero when either measurement is missing.
func PixelsPerMM(pixels int, widthMM float64) float64 {
	if pixels <= 0 || widthMM <= 0 {
		return 0
	}
	return float64(pixels) / widthMM
}
