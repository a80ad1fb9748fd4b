// Command solve runs the calibration solver offline over recorded readings.
// Readings come from a file (or stdin) with one "READ,<eye>,<scale>,<range_mm>"
// line each, the same format the calibration remote streams.
//
// Usage:
//
//	solve -surface 1920x1080 -target 80x50 -eye left readings.txt
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/lumen-optics/eyecal/internal/devicelink"
	"github.com/lumen-optics/eyecal/internal/eyewear"
	"github.com/lumen-optics/eyecal/internal/units"
)

var (
	surfaceFlag = flag.String("surface", "1920x1080", "Rendering surface size in pixels, WxH")
	targetFlag  = flag.String("target", "80x50", "Printed target size in millimetres, WxH")
	eyeFlag     = flag.String("eye", "mono", "Eye to solve for: mono, left or right")
	nearFlag    = flag.Float64("near", eyewear.DefaultNear, "Near clip plane in millimetres")
	farFlag     = flag.Float64("far", eyewear.DefaultFar, "Far clip plane in millimetres")
	jsonFlag    = flag.Bool("json", false, "Emit the full fit as JSON instead of a matrix dump")
	unitsFlag   = flag.String("units", units.MM, "Length unit for the summary line: "+units.GetValidUnitsString())
)

func main() {
	flag.Parse()

	surfaceW, surfaceH, err := parsePair(*surfaceFlag)
	if err != nil {
		log.Fatalf("invalid -surface: %v", err)
	}
	targetW, targetH, err := parsePairFloat(*targetFlag)
	if err != nil {
		log.Fatalf("invalid -target: %v", err)
	}
	eye, err := eyewear.ParseEye(*eyeFlag)
	if err != nil {
		log.Fatalf("invalid -eye: %v", err)
	}
	if !units.IsValid(*unitsFlag) {
		log.Fatalf("invalid -units %q: valid units are %s", *unitsFlag, units.GetValidUnitsString())
	}

	in := io.Reader(os.Stdin)
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatalf("failed to open readings file: %v", err)
		}
		defer f.Close()
		in = f
	}

	readings, err := readReadings(in, eye)
	if err != nil {
		log.Fatalf("failed to read readings: %v", err)
	}
	if len(readings) == 0 {
		log.Fatalf("no readings for eye %s in input", eye)
	}

	cfg := eyewear.Config{
		Surface: eyewear.SurfaceDimensions{Width: surfaceW, Height: surfaceH},
		Target:  eyewear.TargetDimensions{Width: targetW, Height: targetH},
		Near:    *nearFlag,
		Far:     *farFlag,
	}
	matrix, fit, err := eyewear.Solve(cfg, readings)
	if err != nil {
		log.Fatalf("solve failed: %v", err)
	}

	if *jsonFlag {
		out := struct {
			Matrix eyewear.Matrix44 `json:"matrix"`
			GL     [16]float32      `json:"matrix_gl"`
			Fit    eyewear.Fit      `json:"fit"`
		}{matrix, matrix.GL(), fit}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Fatalf("failed to encode output: %v", err)
		}
		return
	}

	minRange, maxRange := rangeSpan(readings)
	fmt.Printf("eye %s, %d readings, ranges %.1f-%.1f %s, rms %.4g\n",
		fit.Eye, len(fit.Residuals),
		units.ConvertLength(minRange, *unitsFlag), units.ConvertLength(maxRange, *unitsFlag), *unitsFlag,
		fit.RMS)
	fmt.Printf("x: gain %.6f bias %.6f\n", fit.X.Gain, fit.X.Bias)
	fmt.Printf("y: gain %.6f bias %.6f\n", fit.Y.Gain, fit.Y.Bias)
	for _, row := range matrix {
		fmt.Printf("% .6f % .6f % .6f % .6f\n", row[0], row[1], row[2], row[3])
	}
}

// rangeSpan returns the smallest and largest tracker range in the batch,
// in millimetres.
func rangeSpan(readings []eyewear.Reading) (min, max float64) {
	min, max = readings[0].Range, readings[0].Range
	for _, r := range readings[1:] {
		if r.Range < min {
			min = r.Range
		}
		if r.Range > max {
			max = r.Range
		}
	}
	return min, max
}

// readReadings parses reading lines from r, keeping only those for the
// requested eye. Blank lines and comments are skipped; anything else that
// fails to parse aborts the run.
func readReadings(r io.Reader, eye eyewear.Eye) ([]eyewear.Reading, error) {
	var readings []eyewear.Reading
	scan := bufio.NewScanner(r)
	for scan.Scan() {
		line := strings.TrimSpace(scan.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		reading, err := devicelink.ParseReading(line)
		if err != nil {
			return nil, err
		}
		if reading.Eye != eye {
			continue
		}
		readings = append(readings, reading)
	}
	return readings, scan.Err()
}

func parsePair(s string) (int, int, error) {
	var w, h int
	if _, err := fmt.Sscanf(s, "%dx%d", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("expected WxH, got %q", s)
	}
	return w, h, nil
}

func parsePairFloat(s string) (float64, float64, error) {
	var w, h float64
	if _, err := fmt.Sscanf(s, "%gx%g", &w, &h); err != nil {
		return 0, 0, fmt.Errorf("expected WxH, got %q", s)
	}
	return w, h, nil
}
