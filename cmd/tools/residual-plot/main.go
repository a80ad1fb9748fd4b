// Command residual-plot solves recorded readings and renders the per-reading
// fit residuals as a PNG scatter plot, one point per reading and axis. Large
// or one-sided residuals usually mean the user mis-aligned a sample or the
// tracker range was off.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image/color"
	"io"
	"log"
	"os"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/lumen-optics/eyecal/internal/devicelink"
	"github.com/lumen-optics/eyecal/internal/eyewear"
	"github.com/lumen-optics/eyecal/internal/security"
)

var (
	surfaceFlag = flag.String("surface", "1920x1080", "Rendering surface size in pixels, WxH")
	targetFlag  = flag.String("target", "80x50", "Printed target size in millimetres, WxH")
	eyeFlag     = flag.String("eye", "mono", "Eye to solve for: mono, left or right")
	outFlag     = flag.String("o", "residuals.png", "Output PNG path")
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

	if err := security.ValidateExportPath(*outFlag); err != nil {
		log.Fatalf("invalid output path: %v", err)
	}

	cfg := eyewear.Config{
		Surface: eyewear.SurfaceDimensions{Width: surfaceW, Height: surfaceH},
		Target:  eyewear.TargetDimensions{Width: targetW, Height: targetH},
	}
	_, fit, err := eyewear.Solve(cfg, readings)
	if err != nil {
		log.Fatalf("solve failed: %v", err)
	}

	if err := plotResiduals(fit, *outFlag); err != nil {
		log.Fatalf("failed to plot residuals: %v", err)
	}
	log.Printf("wrote %s (%d readings, rms %.4g)", *outFlag, len(fit.Residuals), fit.RMS)
}

func plotResiduals(fit eyewear.Fit, path string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Fit residuals (%s, rms %.4g)", fit.Eye, fit.RMS)
	p.X.Label.Text = "alignment scale"
	p.Y.Label.Text = "residual"

	xPts := make(plotter.XYs, len(fit.Residuals))
	yPts := make(plotter.XYs, len(fit.Residuals))
	for i, res := range fit.Residuals {
		xPts[i] = plotter.XY{X: res.Scale, Y: res.X}
		yPts[i] = plotter.XY{X: res.Scale, Y: res.Y}
	}

	xScatter, err := plotter.NewScatter(xPts)
	if err != nil {
		return err
	}
	xScatter.GlyphStyle.Color = color.RGBA{R: 220, G: 60, B: 60, A: 255}
	xScatter.GlyphStyle.Radius = vg.Points(3)

	yScatter, err := plotter.NewScatter(yPts)
	if err != nil {
		return err
	}
	yScatter.GlyphStyle.Color = color.RGBA{R: 60, G: 60, B: 220, A: 255}
	yScatter.GlyphStyle.Radius = vg.Points(3)

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Color = color.Gray{Y: 160}

	p.Add(plotter.NewGrid(), zero, xScatter, yScatter)
	p.Legend.Add("x axis", xScatter)
	p.Legend.Add("y axis", yScatter)
	p.Legend.Top = true

	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

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
