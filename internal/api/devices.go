package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lumen-optics/eyecal/internal/db"
	"github.com/lumen-optics/eyecal/internal/eyewear"
)

func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no profile store configured")
		return
	}
	profiles, err := s.profiles.List()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if profiles == nil {
		profiles = []eyewear.DeviceProfile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) showDevice(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no profile store configured")
		return
	}
	p, err := s.profiles.Get(r.PathValue("model"))
	if err != nil {
		if errors.Is(err, db.ErrProfileNotFound) {
			writeJSONError(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) putDevice(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "no profile store configured")
		return
	}

	var p eyewear.DeviceProfile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	// The path is authoritative for the model name.
	p.Model = r.PathValue("model")

	if err := s.profiles.Upsert(p); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}
