package db

import (
	"strings"
	"time"

	"github.com/lumen-optics/eyecal/internal/monitoring"
	"github.com/lumen-optics/eyecal/internal/timeutil"
)

const (
	busyRetries    = 5
	busyRetryDelay = 50 * time.Millisecond
)

// clock backs the retry backoff; tests swap in a mock to avoid real sleeps.
var clock timeutil.Clock = timeutil.RealClock{}

// retryOnBusy runs fn, retrying with linear backoff while sqlite reports the
// database locked. Any other error fails immediately.
func retryOnBusy(fn func() error) error {
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		err = fn()
		if err == nil || !isBusyError(err) {
			return err
		}
		monitoring.Logf("database busy, retrying (attempt %d/%d): %v", attempt+1, busyRetries, err)
		clock.Sleep(busyRetryDelay * time.Duration(attempt+1))
	}
	return err
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
