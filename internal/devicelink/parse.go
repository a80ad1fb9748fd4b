package devicelink

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lumen-optics/eyecal/internal/eyewear"
)

const (
	EventTypeReading = "reading"
	EventTypeAck     = "ack"
	EventTypeError   = "error"
	EventTypeUnknown = "unknown"
)

// ClassifyLine inspects a device line and returns a simple event type token.
// The classification is intentionally conservative; anything the remote
// firmware emits that we do not recognise is passed through as unknown.
func ClassifyLine(line string) string {
	switch {
	case strings.HasPrefix(line, "READ,"):
		return EventTypeReading
	case strings.HasPrefix(line, "OK"):
		return EventTypeAck
	case strings.HasPrefix(line, "ERR"):
		return EventTypeError
	}
	return EventTypeUnknown
}

// ParseReading decodes a reading line from the remote:
//
//	READ,<eye>,<scale>,<range_mm>
//
// e.g. "READ,left,0.45,620.5". The eye token accepts anything
// eyewear.ParseEye accepts.
func ParseReading(line string) (eyewear.Reading, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 4 || fields[0] != "READ" {
		return eyewear.Reading{}, fmt.Errorf("not a reading line: %q", line)
	}

	eye, err := eyewear.ParseEye(fields[1])
	if err != nil {
		return eyewear.Reading{}, fmt.Errorf("reading line %q: %w", line, err)
	}

	scale, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return eyewear.Reading{}, fmt.Errorf("reading line %q: bad scale: %w", line, err)
	}

	rangeMM, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return eyewear.Reading{}, fmt.Errorf("reading line %q: bad range: %w", line, err)
	}

	r := eyewear.Reading{Eye: eye, Scale: scale, Range: rangeMM}
	if err := r.Validate(); err != nil {
		return eyewear.Reading{}, fmt.Errorf("reading line %q: %w", line, err)
	}
	return r, nil
}
