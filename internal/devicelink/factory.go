package devicelink

import (
	"go.bug.st/serial"
)

// NewSerialLink creates a Link backed by a real serial port at the given path
// using the provided options.
func NewSerialLink(path string, opts PortOptions) (*Link[serial.Port], error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}

	return NewLink[serial.Port](port), nil
}
