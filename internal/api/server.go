// Package api exposes the calibration service over HTTP JSON: session
// lifecycle, device profiles, solved matrices and debug charts.
package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/lumen-optics/eyecal/internal/config"
	"github.com/lumen-optics/eyecal/internal/db"
	"github.com/lumen-optics/eyecal/internal/eyewear"
	"github.com/lumen-optics/eyecal/internal/httputil"
)

// ANSI escape codes for request logging
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Server is the HTTP surface over the calibration core. It owns the live
// session table; the core session type itself is single-owner, so every
// access goes through the server mutex.
type Server struct {
	profiles *db.DeviceProfileStore
	results  *db.ResultStore
	defaults *config.CalibrationConfig

	mu       sync.Mutex
	sessions map[string]*eyewear.Session
	// current is the most recently created session; device-fed readings
	// land there.
	current string
}

// NewServer creates a Server over the given stores and defaults.
func NewServer(profiles *db.DeviceProfileStore, results *db.ResultStore, defaults *config.CalibrationConfig) *Server {
	if defaults == nil {
		defaults = config.EmptyCalibrationConfig()
	}
	return &Server{
		profiles: profiles,
		results:  results,
		defaults: defaults,
		sessions: make(map[string]*eyewear.Session),
	}
}

// ServeMux returns the API route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/sessions", s.createSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.showSession)
	mux.HandleFunc("GET /api/sessions/{id}/hints", s.showHints)
	mux.HandleFunc("POST /api/sessions/{id}/readings", s.addReading)
	mux.HandleFunc("POST /api/sessions/{id}/matrix", s.solveMatrix)
	mux.HandleFunc("GET /api/devices", s.listDevices)
	mux.HandleFunc("GET /api/devices/{model}", s.showDevice)
	mux.HandleFunc("PUT /api/devices/{model}", s.putDevice)
	mux.HandleFunc("GET /api/results/latest", s.latestResult)
	mux.HandleFunc("GET /api/charts/residuals", s.residualChart)
	return mux
}

func (s *Server) session(id string) (*eyewear.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// FeedReading records a reading arriving from the calibration remote rather
// than the HTTP API. The remote has no session concept, so the reading lands
// in the most recently created session.
func (s *Server) FeedReading(r eyewear.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[s.current]
	if !ok {
		return fmt.Errorf("no active calibration session")
	}
	return sess.AddReading(r)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	httputil.WriteJSON(w, status, v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	httputil.WriteJSONError(w, status, msg)
}
