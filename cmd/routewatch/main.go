package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ngmaloney/routewatch/internal/analysis"
	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/logging"
	"github.com/ngmaloney/routewatch/internal/ui"
)

func main() {
	vessel := flag.String("vessel", "", "IMO or MMSI to analyze on start (e.g. 9321483)")
	asJSON := flag.Bool("json", false, "print the analysis for --vessel as JSON and exit")
	logFile := flag.String("log", filepath.Join("data", "routewatch.log"), "log file for the dashboard")
	flag.Parse()

	if *asJSON && *vessel == "" {
		fmt.Fprintln(os.Stderr, "Error: --json requires --vessel")
		os.Exit(2)
	}

	cfg, err := config.Load("routewatch")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Log lines would corrupt the dashboard, so they go to a file.
	if err := os.MkdirAll(filepath.Dir(*logFile), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating log directory: %v\n", err)
		os.Exit(1)
	}
	f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	logger := logging.SetupWriter(f, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	rt, err := analysis.Build(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	timeout := time.Duration(cfg.Server.AnalysisTimeout) * time.Second

	if *asJSON {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		a, err := rt.Service.AnalyzeVessel(ctx, *vessel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(a); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	p := tea.NewProgram(ui.NewModel(rt.Service, *vessel, timeout), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}
