// Command analyze runs offline kinematics analysis over a trajectory CSV:
// per-marker summaries, derived-metrics export, and a full HTML/PNG report.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/marker-data/trajectory.report/internal/charts"
	"github.com/marker-data/trajectory.report/internal/config"
	"github.com/marker-data/trajectory.report/internal/trajectory"
	"github.com/marker-data/trajectory.report/internal/units"
)

var (
	markerID   = flag.Int("marker-id", -1, "Analyse a single marker (default: all markers)")
	summary    = flag.Bool("summary", false, "Print summary statistics")
	exportPath = flag.String("export", "", "Write derived metrics CSV to this file")
	outputDir  = flag.String("output-dir", "trajectory_report", "Directory for full report output")
	fullReport = flag.Bool("full-report", false, "Write summary, charts and plots to the output directory")
	speedUnits = flag.String("units", units.MPS, "Speed units for summaries")
	configPath = flag.String("config", "", "Tracker tuning config JSON (optional)")
	noSmooth   = flag.Bool("no-smooth", false, "Disable Savitzky-Golay smoothing")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <trajectory.csv>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	csvPath := flag.Arg(0)

	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid units %q (valid: %s)", *speedUnits, units.ValidUnitsString())
	}

	smoothing := trajectory.DefaultSmoothingConfig()
	if *configPath != "" {
		cfg, err := config.LoadTrackerConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		smoothing = cfg.Smoothing()
	}
	if *noSmooth {
		smoothing.Enabled = false
	}

	store := trajectory.NewStore()
	if err := trajectory.LoadCSVFile(csvPath, store); err != nil {
		log.Fatalf("failed to load %s: %v", csvPath, err)
	}

	markerIDs := store.Markers()
	if *markerID >= 0 {
		markerIDs = []int{*markerID}
	}
	if len(markerIDs) == 0 {
		log.Fatalf("no markers found in %s", csvPath)
	}

	var all []*trajectory.DerivedSeries
	for _, id := range markerIDs {
		seq, err := store.SequenceFor(id)
		if err != nil {
			log.Fatalf("marker %d not found in %s", id, csvPath)
		}
		ds, err := trajectory.Derive(seq, smoothing)
		if err != nil {
			log.Fatalf("failed to derive marker %d: %v", id, err)
		}
		all = append(all, ds)
	}

	if *summary || (!*fullReport && *exportPath == "") {
		for _, ds := range all {
			trajectory.WriteSummaryText(os.Stdout, trajectory.Summarize(ds), *speedUnits)
		}
	}

	if *exportPath != "" {
		if err := writeDerivedFile(*exportPath, all); err != nil {
			log.Fatalf("failed to export derived metrics: %v", err)
		}
		log.Printf("wrote derived metrics to %s", *exportPath)
	}

	if *fullReport {
		if err := writeFullReport(*outputDir, all, *speedUnits); err != nil {
			log.Fatalf("failed to write report: %v", err)
		}
		log.Printf("wrote full report to %s", *outputDir)
	}
}

func writeDerivedFile(path string, all []*trajectory.DerivedSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = trajectory.WriteDerivedCSV(f, all...)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// writeFullReport populates dir with the text summary, interactive chart
// pages, static PNG plots and the derived-metrics CSV.
func writeFullReport(dir string, all []*trajectory.DerivedSeries, speedUnits string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	sf, err := os.Create(filepath.Join(dir, "summary.txt"))
	if err != nil {
		return err
	}
	for _, ds := range all {
		trajectory.WriteSummaryText(sf, trajectory.Summarize(ds), speedUnits)
	}
	if err := sf.Close(); err != nil {
		return err
	}

	if _, err := charts.WriteReportFiles(dir, all); err != nil {
		return err
	}
	if err := charts.SavePathPlot(filepath.Join(dir, "trajectory_path.png"), all); err != nil {
		return fmt.Errorf("failed to save path plot: %w", err)
	}
	if err := charts.SaveSpeedPlot(filepath.Join(dir, "speed_vs_time.png"), all); err != nil {
		return fmt.Errorf("failed to save speed plot: %w", err)
	}

	return writeDerivedFile(filepath.Join(dir, "analysis_metrics.csv"), all)
}
