package api

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const echartsAssetsPrefix = "https://cdn.jsdelivr.net/npm/echarts@5/dist/"

// residualChart renders a quick scatter plot (HTML) of per-reading fit
// residuals using go-echarts. This is a debugging-only endpoint (no auth)
// for eyeballing outlier readings without a frontend.
// Query params:
//   - session_id (required; must have a solved fit)
func (s *Server) residualChart(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		writeJSONError(w, http.StatusBadRequest, "session_id query parameter is required")
		return
	}

	sess, ok := s.session(sessionID)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no such session")
		return
	}

	fit := sess.LastFit()
	if fit == nil {
		writeJSONError(w, http.StatusNotFound, "session has no solved fit yet")
		return
	}

	xData := make([]opts.ScatterData, 0, len(fit.Residuals))
	yData := make([]opts.ScatterData, 0, len(fit.Residuals))
	maxAbs := 0.0
	for _, res := range fit.Residuals {
		if math.Abs(res.X) > maxAbs {
			maxAbs = math.Abs(res.X)
		}
		if math.Abs(res.Y) > maxAbs {
			maxAbs = math.Abs(res.Y)
		}
		xData = append(xData, opts.ScatterData{Value: []interface{}{res.Scale, res.X}})
		yData = append(yData, opts.ScatterData{Value: []interface{}{res.Scale, res.Y}})
	}

	// Add a small padding so points at the edges are visible
	pad := maxAbs * 1.1
	if pad == 0 {
		pad = 1e-6
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Calibration Residuals", Theme: "dark", Width: "900px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Fit Residuals", Subtitle: fmt.Sprintf("session=%s eye=%s readings=%d rms=%.3g", sessionID, fit.Eye, len(fit.Residuals), fit.RMS)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "alignment scale", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "residual", NameLocation: "middle", NameGap: 40}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	scatter.AddSeries("x axis", xData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	scatter.AddSeries("y axis", yData, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
