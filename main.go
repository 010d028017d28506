// Command trajectory.report runs the live marker tracking service: it
// accepts pose observations from an external detector, gates them through a
// recording session, and serves derived kinematics, summaries, charts and
// CSV exports over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marker-data/trajectory.report/internal/config"
	"github.com/marker-data/trajectory.report/internal/trajdb"
	"github.com/marker-data/trajectory.report/internal/trajectory"
	"github.com/marker-data/trajectory.report/internal/units"
	"github.com/marker-data/trajectory.report/internal/vision"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	dbFile     = flag.String("db", "trajectory.db", "SQLite database path")
	configPath = flag.String("config", "", "Tracker tuning config JSON (optional)")
	speedUnits = flag.String("units", units.MPS, "Default speed units for summaries")
)

func main() {
	flag.Parse()

	if flag.Arg(0) == "migrate" {
		runMigrateCommand(flag.Args()[1:], *dbFile)
		return
	}

	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid units %q (valid: %s)", *speedUnits, units.ValidUnitsString())
	}

	cfg := config.EmptyTrackerConfig()
	if *configPath != "" {
		loaded, err := config.LoadTrackerConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
		log.Printf("loaded tracker config from %s", *configPath)
	}

	if path := cfg.CalibrationFile(); path != "" {
		calib, err := vision.LoadCalibration(path)
		if err != nil {
			log.Fatalf("failed to load camera calibration: %v", err)
		}
		log.Printf("loaded camera calibration from %s (marker size %.3fm)", path, calib.MarkerSizeMeters)
	}

	db, err := trajdb.New(*dbFile)
	if err != nil {
		log.Fatalf("failed to open trajectory database %s: %v", *dbFile, err)
	}
	defer db.Close()

	store := trajectory.NewStore()
	session := trajectory.NewRecordingSession(store)

	server := NewServer(store, session, db, cfg, *speedUnits)
	mux := server.ServeMux()
	db.AttachAdminRoutes(mux)

	httpServer := &http.Server{
		Addr:    *listen,
		Handler: mux,
	}

	go func() {
		log.Printf("trajectory server listening on %s", *listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
