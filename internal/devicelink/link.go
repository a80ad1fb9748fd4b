// Package devicelink talks to the handheld calibration remote over a serial
// line. The remote streams one text line per confirmed alignment; multiple
// clients can subscribe to the stream and send control commands to the
// single device.
package devicelink

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"tailscale.com/tsweb"
)

var ErrWriteFailed = fmt.Errorf("failed to write to device port")

// Link is a generic port multiplexer that allows multiple clients to
// subscribe to line events from a single calibration remote.
type Link[T Porter] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	commandMu    sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// Linker defines the interface for the Link type.
type Linker interface {
	// Subscribe creates a new channel for receiving line events from the
	// device. The channel ID identifies the channel when unsubscribing.
	Subscribe() (string, chan string)
	// Unsubscribe removes a channel from the list of subscribers.
	Unsubscribe(string)
	// SendCommand writes the provided command to the device.
	SendCommand(string) error
	// Monitor reads lines from the device and fans them out to
	// subscribers.
	Monitor(context.Context) error
	// Close closes all subscribed channels and closes the port.
	Close() error

	Initialize() error

	// AttachAdminRoutes attaches admin debugging endpoints to the given
	// HTTP mux served at /debug/. These routes are accessible only over
	// localhost/via Tailscale and are not publicly accessible.
	AttachAdminRoutes(*http.ServeMux)
}

// NewLink creates a Link instance over an already-open port.
func NewLink[T Porter](port T) *Link[T] {
	return &Link[T]{
		port:         port,
		subscribers:  make(map[string]chan string),
		subscriberMu: sync.Mutex{},
		commandMu:    sync.Mutex{},
	}
}

// randomID generates a random channel ID (8 byte random hex encoded value)
func randomID() string {
	b := make([]byte, 8)
	crand.Read(b)
	return hex.EncodeToString(b)
}

func (l *Link[T]) Subscribe() (string, chan string) {
	id := randomID()
	ch := make(chan string)
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	l.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber from the link.
func (l *Link[T]) Unsubscribe(id string) {
	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	if ch, ok := l.subscribers[id]; ok {
		close(ch)
		delete(l.subscribers, id)
	}
}

// Initialize puts the remote into a known reporting state so that its lines
// parse cleanly.
func (l *Link[T]) Initialize() error {
	for _, command := range []string{
		"RESET",   // drop any half-entered alignment on the remote
		"UNIT,MM", // report ranges in millimetres
		"MODE,RD", // stream a reading line per confirmed alignment
	} {
		if err := l.SendCommand(command); err != nil {
			return fmt.Errorf("failed to send setup command %q: %w", command, err)
		}
	}

	return nil
}

// SendCommand sends a command to the device.
func (l *Link[T]) SendCommand(command string) error {
	l.commandMu.Lock()
	defer l.commandMu.Unlock()
	if !strings.HasSuffix(command, "\n") {
		command += "\n" // ensure command ends with a newline
	}
	n, err := l.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Monitor reads lines from the device and sends them to subscribers.
func (l *Link[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(l.port)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// A goroutine owns the blocking scan.Scan so that the outer loop can
	// await lines and context cancellation at the same time.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			// if the channel is closed, we're done reading from the port
			if !ok {
				if err := scan.Err(); err != nil {
					return err
				}
				return nil
			}
			l.closingMu.Lock()
			if l.closing {
				l.closingMu.Unlock()
				return nil
			}
			l.closingMu.Unlock()

			l.subscriberMu.Lock()
			for _, ch := range l.subscribers {
				select {
				case ch <- line:
				default:
					// skip a full channel so one slow subscriber
					// cannot stall the stream
				}
			}
			l.subscriberMu.Unlock()
		}
	}
}

func (l *Link[T]) Close() error {
	l.closingMu.Lock()
	l.closing = true
	l.closingMu.Unlock()

	l.subscriberMu.Lock()
	defer l.subscriberMu.Unlock()
	for id, ch := range l.subscribers {
		close(ch)
		delete(l.subscribers, id)
	}
	return l.port.Close()
}

func (l *Link[T]) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	// API endpoint to write a command to the device
	debug.HandleSilentFunc("send-command-api", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		command := strings.TrimSpace(r.FormValue("command"))
		if command == "" {
			http.Error(w, "Missing command", http.StatusBadRequest)
			return
		}
		if err := l.SendCommand(command); err != nil {
			http.Error(w, "Failed to write command", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, fmt.Sprintf("Wrote command %q to device", command))
	})
	// API endpoint to issue Server-Side Events (SSE) for lines coming from the device.
	debug.HandleSilentFunc("tail", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

		id, c := l.Subscribe()
		defer l.Unsubscribe(id)

		// Send initial ping to establish connection
		w.Write([]byte(": ping\n\n"))
		w.(http.Flusher).Flush()

		for {
			select {
			case payload, ok := <-c:
				if !ok {
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					return
				}
				w.(http.Flusher).Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
}
