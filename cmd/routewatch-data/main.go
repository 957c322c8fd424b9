package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ngmaloney/routewatch/internal/analysis"
	"github.com/ngmaloney/routewatch/internal/config"
	"github.com/ngmaloney/routewatch/internal/database"
	"github.com/ngmaloney/routewatch/internal/logging"
	"github.com/ngmaloney/routewatch/internal/ports"
	"github.com/ngmaloney/routewatch/internal/zonelookup"
)

const usage = `usage: routewatch-data <command> [flags]

commands:
  ports import <file.csv>   import a port catalog (port_name, un_locode, latitude, longitude)
  ports seed                load the built-in port table into an empty store
  zones provision           download the NOAA marine zones shapefile into the zone table
  zones load <file.zip>     load a local marine zones shapefile zip
`

func main() {
	if len(os.Args) < 3 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load("routewatch-data")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Log.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, cmd, args := os.Args[1], os.Args[2], os.Args[3:]
	switch group {
	case "ports":
		err = runPorts(ctx, cfg, logger, cmd, args)
	case "zones":
		err = runZones(ctx, cfg, logger, cmd, args)
	default:
		err = fmt.Errorf("unknown command %q", group)
	}
	if err != nil {
		logger.Error("command failed", "command", group+" "+cmd, "error", err)
		os.Exit(1)
	}
}

func openPorts(ctx context.Context, cfg *config.Config) (ports.Repository, func(), error) {
	if cfg.Ports.Backend == "postgres" {
		pg, err := database.OpenPostgres(ctx, cfg.Ports.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.EnsurePortSchema(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return ports.NewPostgresRepository(pg), pg.Close, nil
	}

	db, err := database.Open(cfg.Ports.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	if err := database.EnsurePortSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return ports.NewSQLiteRepository(db), func() { db.Close() }, nil
}

func runPorts(ctx context.Context, cfg *config.Config, logger *slog.Logger, cmd string, args []string) error {
	repo, closeRepo, err := openPorts(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	switch cmd {
	case "import":
		fs := flag.NewFlagSet("ports import", flag.ExitOnError)
		fs.Parse(args)
		if fs.NArg() != 1 {
			return fmt.Errorf("ports import needs exactly one CSV file")
		}
		stats, err := ports.LoadCSVFile(ctx, repo, fs.Arg(0), logger)
		if err != nil {
			return err
		}
		logger.Info("port import complete", "imported", stats.Imported, "skipped", stats.Skipped)
	case "seed":
		if err := analysis.SeedPorts(ctx, repo, "", logger); err != nil {
			return err
		}
		n, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		logger.Info("port store ready", "ports", n)
	default:
		return fmt.Errorf("unknown ports command %q", cmd)
	}
	return nil
}

func runZones(ctx context.Context, cfg *config.Config, logger *slog.Logger, cmd string, args []string) error {
	db, err := database.Open(cfg.Zones.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := zonelookup.EnsureSchema(ctx, db); err != nil {
		return err
	}

	switch cmd {
	case "provision":
		fs := flag.NewFlagSet("zones provision", flag.ExitOnError)
		url := fs.String("url", zonelookup.MarineZonesURL, "shapefile zip to download")
		fs.Parse(args)

		p := zonelookup.NewProvisioner(filepath.Dir(cfg.Zones.DBPath), logger)
		p.URL = *url
		if err := p.Ensure(ctx, db); err != nil {
			return err
		}
	case "load":
		fs := flag.NewFlagSet("zones load", flag.ExitOnError)
		fs.Parse(args)
		if fs.NArg() != 1 {
			return fmt.Errorf("zones load needs exactly one zip file")
		}
		n, err := zonelookup.LoadShapefileZip(ctx, db, fs.Arg(0), logger)
		if err != nil {
			return err
		}
		logger.Info("loaded marine zones", "zones", n)
	default:
		return fmt.Errorf("unknown zones command %q", cmd)
	}

	n, err := zonelookup.New(db, cfg.Zones.MaxDistanceMiles, logger).Count(ctx)
	if err != nil {
		return err
	}
	logger.Info("zone table ready", "zones", n)
	return nil
}
