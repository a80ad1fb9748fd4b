// Command eyecald serves the eyewear calibration API: session management,
// device profiles, solved projection matrices, and an optional serial link to
// a handheld calibration remote.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lumen-optics/eyecal/internal/api"
	"github.com/lumen-optics/eyecal/internal/config"
	"github.com/lumen-optics/eyecal/internal/db"
	"github.com/lumen-optics/eyecal/internal/devicelink"
	"github.com/lumen-optics/eyecal/internal/monitoring"
	"github.com/lumen-optics/eyecal/internal/version"
)

var (
	listen        = flag.String("listen", ":8080", "Listen address")
	dbPath        = flag.String("db", "eyecal.db", "Path to the sqlite database")
	migrationsDir = flag.String("migrations", "migrations", "Path to the schema migrations directory")
	configPath    = flag.String("config", "", "Path to the calibration config JSON (optional)")
	serialPath    = flag.String("serial", "", "Serial port of the calibration remote (optional)")
	devMode       = flag.Bool("dev", false, "Run with a simulated calibration remote")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("eyecald %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	defaults := config.EmptyCalibrationConfig()
	if *configPath != "" {
		var err error
		defaults, err = config.LoadCalibrationConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	server := api.NewServer(db.NewDeviceProfileStore(database), db.NewResultStore(database), defaults)

	// The remote link is optional; plain HTTP-only deployments run without
	// one.
	var link devicelink.Linker
	switch {
	case *devMode:
		link = devicelink.NewMockLink([]byte("READ,mono,0.5,600\n"))
	case *serialPath != "":
		link, err = devicelink.NewSerialLink(*serialPath, devicelink.PortOptions{})
		if err != nil {
			log.Fatalf("failed to open calibration remote: %v", err)
		}
		if err := link.Initialize(); err != nil {
			log.Printf("remote initialization failed: %v", err)
		}
	}
	if link != nil {
		defer link.Close()
	}

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if link != nil {
		// run the monitor routine to manage IO on the serial port
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := link.Monitor(ctx); err != nil && err != context.Canceled {
				log.Printf("failed to monitor calibration remote: %v", err)
			}
			log.Print("monitor routine terminated")
		}()

		// subscribe to remote lines and feed readings into the active
		// session
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, c := link.Subscribe()
			defer link.Unsubscribe(id)
			for {
				select {
				case line, ok := <-c:
					if !ok {
						return
					}
					handleLine(server, line)
				case <-ctx.Done():
					log.Printf("subscribe routine terminated")
					return
				}
			}
		}()
	}

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// mount the admin debugging routes (accessible only in dev mode
		// or over Tailscale)
		database.AttachAdminRoutes(mux)
		if link != nil {
			link.AttachAdminRoutes(mux)
		}

		mux.Handle("/api/", server.ServeMux())

		httpServer := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("eyecald %s listening on %s", version.Version, *listen)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// handleLine routes one line from the calibration remote. Readings land in
// the active session; everything else is logged for diagnosis.
func handleLine(server *api.Server, line string) {
	switch devicelink.ClassifyLine(line) {
	case devicelink.EventTypeReading:
		reading, err := devicelink.ParseReading(line)
		if err != nil {
			monitoring.Logf("dropping malformed reading: %v", err)
			return
		}
		if err := server.FeedReading(reading); err != nil {
			monitoring.Logf("dropping device reading: %v", err)
			return
		}
		log.Printf("recorded device reading: eye=%s scale=%.3f range=%.1fmm", reading.Eye, reading.Scale, reading.Range)
	case devicelink.EventTypeError:
		log.Printf("remote reported error: %s", line)
	case devicelink.EventTypeAck:
		// setup command acknowledgements are uninteresting
	default:
		monitoring.Logf("unrecognised remote line: %q", line)
	}
}
