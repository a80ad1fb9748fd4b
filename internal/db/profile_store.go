package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lumen-optics/eyecal/internal/eyewear"
)

// ErrProfileNotFound is returned when no profile exists for a device model.
var ErrProfileNotFound = errors.New("db: device profile not found")

// DeviceProfileStore persists the per-device characterisation table: panel
// dimensions, scale-hint overrides and stereo-stretch flags keyed by model.
type DeviceProfileStore struct {
	db *DB
}

// NewDeviceProfileStore creates a DeviceProfileStore.
func NewDeviceProfileStore(db *DB) *DeviceProfileStore {
	return &DeviceProfileStore{db: db}
}

// Upsert inserts or replaces the profile for its model.
func (s *DeviceProfileStore) Upsert(p eyewear.DeviceProfile) error {
	if p.Model == "" {
		return fmt.Errorf("db: profile has no model")
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("db: %w", err)
	}

	var stretched interface{}
	if p.Stretched != nil {
		stretched = boolToInt(*p.Stretched)
	}

	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO device_profiles (
				model, panel_width, panel_height,
				min_scale_hint, max_scale_hint, aspect_correction,
				stretched, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(model) DO UPDATE SET
				panel_width = excluded.panel_width,
				panel_height = excluded.panel_height,
				min_scale_hint = excluded.min_scale_hint,
				max_scale_hint = excluded.max_scale_hint,
				aspect_correction = excluded.aspect_correction,
				stretched = excluded.stretched,
				updated_at = excluded.updated_at`,
			p.Model, p.PanelWidth, p.PanelHeight,
			p.MinScaleHint, p.MaxScaleHint, p.AspectCorrection,
			stretched, time.Now().UnixNano(),
		)
		return err
	})
}

// Get returns the profile for model, or ErrProfileNotFound.
func (s *DeviceProfileStore) Get(model string) (eyewear.DeviceProfile, error) {
	row := s.db.QueryRow(`
		SELECT model, panel_width, panel_height,
		       min_scale_hint, max_scale_hint, aspect_correction, stretched
		FROM device_profiles WHERE model = ?`, model)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return eyewear.DeviceProfile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, model)
	}
	return p, err
}

// List returns all profiles ordered by model.
func (s *DeviceProfileStore) List() ([]eyewear.DeviceProfile, error) {
	rows, err := s.db.Query(`
		SELECT model, panel_width, panel_height,
		       min_scale_hint, max_scale_hint, aspect_correction, stretched
		FROM device_profiles ORDER BY model`)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var out []eyewear.DeviceProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes the profile for model. Deleting an absent model is not an
// error.
func (s *DeviceProfileStore) Delete(model string) error {
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`DELETE FROM device_profiles WHERE model = ?`, model)
		return err
	})
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (eyewear.DeviceProfile, error) {
	var p eyewear.DeviceProfile
	var stretched sql.NullInt64
	err := row.Scan(
		&p.Model, &p.PanelWidth, &p.PanelHeight,
		&p.MinScaleHint, &p.MaxScaleHint, &p.AspectCorrection,
		&stretched,
	)
	if err != nil {
		return eyewear.DeviceProfile{}, err
	}
	if stretched.Valid {
		v := stretched.Int64 != 0
		p.Stretched = &v
	}
	return p, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
