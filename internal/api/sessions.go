package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/lumen-optics/eyecal/internal/db"
	"github.com/lumen-optics/eyecal/internal/eyewear"
)

// createSessionRequest describes a new calibration run. Target dimensions
// default from the service config; the device model selects a stored
// profile.
type createSessionRequest struct {
	Surface     eyewear.SurfaceDimensions `json:"surface"`
	Target      *eyewear.TargetDimensions `json:"target,omitempty"`
	DeviceModel string                    `json:"device_model,omitempty"`
	NearMM      float64                   `json:"near_mm,omitempty"`
	FarMM       float64                   `json:"far_mm,omitempty"`
}

type sessionResponse struct {
	SessionID       string  `json:"session_id"`
	DeviceModel     string  `json:"device_model,omitempty"`
	MinScaleHint    float64 `json:"min_scale_hint"`
	MaxScaleHint    float64 `json:"max_scale_hint"`
	AspectRatio     float64 `json:"drawing_aspect_ratio"`
	StereoStretched bool    `json:"stereo_stretched"`
	NumReadings     int     `json:"num_readings"`
}

func (s *Server) sessionResponse(sess *eyewear.Session) sessionResponse {
	cfg := sess.Config()
	aspect, _ := sess.DrawingAspectRatio(cfg.Surface.Width, cfg.Surface.Height)
	return sessionResponse{
		SessionID:       sess.ID(),
		DeviceModel:     cfg.Profile.Model,
		MinScaleHint:    sess.MinScaleHint(),
		MaxScaleHint:    sess.MaxScaleHint(),
		AspectRatio:     aspect,
		StereoStretched: sess.StereoStretched(),
		NumReadings:     len(sess.Readings()),
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	model := req.DeviceModel
	if model == "" {
		model = s.defaults.GetDefaultDevice()
	}
	var profile eyewear.DeviceProfile
	if model != "" && s.profiles != nil {
		p, err := s.profiles.Get(model)
		switch {
		case err == nil:
			profile = p
		case errors.Is(err, db.ErrProfileNotFound):
			// Unknown device calibrates with the generic profile; the
			// model name still tags stored results.
			profile = eyewear.DeviceProfile{Model: model}
		default:
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("loading profile: %v", err))
			return
		}
	}

	target := eyewear.TargetDimensions{
		Width:  s.defaults.GetTargetWidthMM(),
		Height: s.defaults.GetTargetHeightMM(),
	}
	if req.Target != nil {
		target = *req.Target
	}

	cfg := eyewear.Config{
		Surface:            req.Surface,
		Target:             target,
		Profile:            profile,
		Near:               req.NearMM,
		Far:                req.FarMM,
		MinScaleSeparation: s.defaults.GetMinScaleSeparation(),
	}
	if cfg.Near == 0 {
		cfg.Near = s.defaults.GetNearMM()
	}
	if cfg.Far == 0 {
		cfg.Far = s.defaults.GetFarMM()
	}

	sess, err := eyewear.NewSession(cfg)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.current = sess.ID()
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, s.sessionResponse(sess))
}

func (s *Server) showSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no such session")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.sessionResponse(sess))
}

func (s *Server) showHints(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no such session")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// The aspect ratio is recomputed against the surface dimensions the UI
	// reports now, which may differ from the configured ones after a
	// rotation.
	cfg := sess.Config()
	width, height := cfg.Surface.Width, cfg.Surface.Height
	q := r.URL.Query()
	if v := q.Get("surface_width"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			width = n
		}
	}
	if v := q.Get("surface_height"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			height = n
		}
	}
	aspect, err := sess.DrawingAspectRatio(width, height)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"min_scale_hint":       sess.MinScaleHint(),
		"max_scale_hint":       sess.MaxScaleHint(),
		"drawing_aspect_ratio": aspect,
		"stereo_stretched":     sess.StereoStretched(),
	})
}

func (s *Server) addReading(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no such session")
		return
	}

	var reading eyewear.Reading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := sess.AddReading(reading); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"num_readings": len(sess.Readings()),
	})
}

type solveRequest struct {
	Eye string `json:"eye"`
}

type solveResponse struct {
	ResultID string           `json:"result_id,omitempty"`
	Eye      string           `json:"eye"`
	Matrix   eyewear.Matrix44 `json:"matrix"`
	GL       [16]float32      `json:"matrix_gl"`
	Fit      *eyewear.Fit     `json:"fit,omitempty"`
}

func (s *Server) solveMatrix(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		writeJSONError(w, http.StatusNotFound, "no such session")
		return
	}

	var req solveRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
	}
	eye, err := eyewear.ParseEye(req.Eye)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matrix, err := sess.ProjectionMatrixFor(eye)
	if err != nil {
		writeJSONError(w, solveStatus(err), err.Error())
		return
	}
	fit := sess.LastFit()

	resp := solveResponse{Eye: eye.String(), Matrix: matrix, GL: matrix.GL(), Fit: fit}
	if s.results != nil {
		fitJSON, _ := json.Marshal(fit)
		res := &db.CalibrationResult{
			SessionID:   sess.ID(),
			DeviceModel: sess.Config().Profile.Model,
			Eye:         eye.String(),
			NumReadings: len(sess.ReadingsFor(eye)),
			RMS:         fit.RMS,
			Matrix:      matrix,
			FitJSON:     fitJSON,
		}
		if err := s.results.Insert(res); err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("storing result: %v", err))
			return
		}
		resp.ResultID = res.ResultID
	}

	writeJSON(w, http.StatusOK, resp)
}

// solveStatus maps solver failures onto HTTP statuses: bad readings are the
// client's problem, numeric blowups are ours.
func solveStatus(err error) int {
	switch {
	case errors.Is(err, eyewear.ErrInsufficientReadings),
		errors.Is(err, eyewear.ErrDegenerateReadings),
		errors.Is(err, eyewear.ErrMixedEyeReadings),
		errors.Is(err, eyewear.ErrInvalidReading):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) latestResult(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no result store configured")
		return
	}
	device := r.URL.Query().Get("device")
	eye := r.URL.Query().Get("eye")
	if eye == "" {
		eye = eyewear.EyeMono.String()
	}

	res, err := s.results.Latest(device, eye)
	if err != nil {
		if errors.Is(err, db.ErrResultNotFound) {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}
