// Command profile-sync pulls the published device profile catalog and
// mirrors it into the local calibration database, so that field units pick
// up newly characterised eyewear models without a service redeploy.
package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/lumen-optics/eyecal/internal/config"
	"github.com/lumen-optics/eyecal/internal/db"
	"github.com/lumen-optics/eyecal/internal/httputil"
)

var (
	dbPath        = flag.String("db", "eyecal.db", "Path to the sqlite database")
	migrationsDir = flag.String("migrations", "migrations", "Path to the schema migrations directory")
	catalogURL    = flag.String("catalog", "", "Profile catalog URL (defaults from config)")
	configPath    = flag.String("config", "", "Path to the calibration config JSON (optional)")
	timeout       = flag.Duration("timeout", 30*time.Second, "Catalog fetch timeout")
)

func main() {
	flag.Parse()

	url := *catalogURL
	if url == "" {
		defaults := config.EmptyCalibrationConfig()
		if *configPath != "" {
			var err error
			defaults, err = config.LoadCalibrationConfig(*configPath)
			if err != nil {
				log.Fatalf("failed to load config: %v", err)
			}
		}
		url = defaults.GetProfileCatalog()
	}
	if url == "" {
		log.Fatal("no catalog URL: pass -catalog or set profile_catalog in the config")
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	if err := database.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	client := httputil.NewStandardClient(&http.Client{Timeout: *timeout})
	n, err := syncProfiles(client, url, db.NewDeviceProfileStore(database))
	if err != nil {
		log.Fatalf("profile sync failed: %v", err)
	}
	log.Printf("synced %d device profiles from %s", n, url)
}
