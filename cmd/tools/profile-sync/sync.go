package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/lumen-optics/eyecal/internal/eyewear"
	"github.com/lumen-optics/eyecal/internal/httputil"
)

// maxCatalogBytes bounds the catalog download; the real catalog is a few KB.
const maxCatalogBytes = 4 << 20

// profileUpserter is the slice of the profile store the sync needs.
type profileUpserter interface {
	Upsert(eyewear.DeviceProfile) error
}

// syncProfiles fetches the catalog at url and upserts every profile it
// contains. A profile that fails validation aborts the sync so that a bad
// catalog cannot partially overwrite good local data beyond the entries
// already written.
func syncProfiles(client httputil.HTTPClient, url string, store profileUpserter) (int, error) {
	resp, err := client.Get(url)
	if err != nil {
		return 0, fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetching catalog: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes))
	if err != nil {
		return 0, fmt.Errorf("reading catalog: %w", err)
	}

	var profiles []eyewear.DeviceProfile
	if err := json.Unmarshal(body, &profiles); err != nil {
		return 0, fmt.Errorf("parsing catalog: %w", err)
	}

	for i, p := range profiles {
		if p.Model == "" {
			return i, fmt.Errorf("catalog entry %d has no model name", i)
		}
		if err := p.Validate(); err != nil {
			return i, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if err := store.Upsert(p); err != nil {
			return i, fmt.Errorf("storing profile %q: %w", p.Model, err)
		}
	}
	return len(profiles), nil
}
