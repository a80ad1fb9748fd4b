package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lumen-optics/eyecal/internal/eyewear"
)

// ErrResultNotFound is returned when no stored calibration matches a query.
var ErrResultNotFound = errors.New("db: calibration result not found")

// CalibrationResult is one solved calibration: the matrix plus the fit
// diagnostics it came from, keyed by session and eye so stereo devices store
// two rows per run.
type CalibrationResult struct {
	ResultID    string          `json:"result_id"`
	SessionID   string          `json:"session_id"`
	DeviceModel string          `json:"device_model,omitempty"`
	Eye         string          `json:"eye"`
	NumReadings int             `json:"num_readings"`
	RMS         float64         `json:"rms"`
	Matrix      eyewear.Matrix44 `json:"matrix"`
	FitJSON     json.RawMessage `json:"fit_json,omitempty"`
	CreatedAt   int64           `json:"created_at"`
}

// ResultStore archives solved calibrations.
type ResultStore struct {
	db *DB
}

// NewResultStore creates a ResultStore.
func NewResultStore(db *DB) *ResultStore {
	return &ResultStore{db: db}
}

// Insert persists a result. If ResultID is empty, a UUID is generated.
func (s *ResultStore) Insert(res *CalibrationResult) error {
	if res.ResultID == "" {
		res.ResultID = uuid.New().String()
	}
	if res.CreatedAt == 0 {
		res.CreatedAt = time.Now().UnixNano()
	}

	matrixJSON, err := json.Marshal(res.Matrix)
	if err != nil {
		return fmt.Errorf("marshal matrix: %w", err)
	}
	var fitStr interface{}
	if len(res.FitJSON) > 0 {
		fitStr = string(res.FitJSON)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO calibration_results (
				result_id, session_id, device_model, eye,
				num_readings, rms, matrix_json, fit_json, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.ResultID, res.SessionID, res.DeviceModel, res.Eye,
			res.NumReadings, res.RMS, string(matrixJSON), fitStr, res.CreatedAt,
		)
		return err
	})
}

// ListBySession returns all results for a session, newest first.
func (s *ResultStore) ListBySession(sessionID string) ([]*CalibrationResult, error) {
	rows, err := s.db.Query(`
		SELECT result_id, session_id, device_model, eye,
		       num_readings, rms, matrix_json, fit_json, created_at
		FROM calibration_results
		WHERE session_id = ?
		ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []*CalibrationResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Latest returns the most recent result for a device model and eye, the row
// a rendering host would load at startup.
func (s *ResultStore) Latest(deviceModel, eye string) (*CalibrationResult, error) {
	row := s.db.QueryRow(`
		SELECT result_id, session_id, device_model, eye,
		       num_readings, rms, matrix_json, fit_json, created_at
		FROM calibration_results
		WHERE device_model = ? AND eye = ?
		ORDER BY created_at DESC
		LIMIT 1`, deviceModel, eye)
	r, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: device %q eye %q", ErrResultNotFound, deviceModel, eye)
	}
	return r, err
}

func scanResult(row rowScanner) (*CalibrationResult, error) {
	var r CalibrationResult
	var matrixJSON string
	var fitJSON sql.NullString
	err := row.Scan(
		&r.ResultID, &r.SessionID, &r.DeviceModel, &r.Eye,
		&r.NumReadings, &r.RMS, &matrixJSON, &fitJSON, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(matrixJSON), &r.Matrix); err != nil {
		return nil, fmt.Errorf("unmarshal matrix: %w", err)
	}
	if fitJSON.Valid {
		r.FitJSON = json.RawMessage(fitJSON.String)
	}
	return &r, nil
}
