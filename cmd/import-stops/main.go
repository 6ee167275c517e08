// Command import-stops loads a GTFS stops.txt (plain or inside a feed zip)
// into the offline SQLite stop index used when STOPS_SQLITE_PATH is set.
package main

import (
	"archive/zip"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/citynav/citynav/internal/transit"
	"github.com/citynav/citynav/internal/transit/stopstore"
)

func main() {
	gtfsPath := flag.String("gtfs", "", "Path to a GTFS feed zip or stops.txt")
	dbPath := flag.String("db", "data/stops.db", "Path to SQLite stop index")
	stopType := flag.String("type", "bus", "Stop type: bus, metro, rail or tram")
	operator := flag.String("operator", "", "Operator name stored with every stop")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Logger()

	if *gtfsPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	kind := parseKind(*stopType)
	if kind == transit.StopTypeUnknown {
		log.Fatal().Str("type", *stopType).Msg("unknown stop type")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := run(ctx, log, *gtfsPath, *dbPath, kind, *operator); err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
}

func run(ctx context.Context, log zerolog.Logger, gtfsPath, dbPath string, kind transit.StopType, operator string) error {
	stops, err := readStops(gtfsPath, kind, operator)
	if err != nil {
		return err
	}
	if len(stops) == 0 {
		return errors.New("no boardable stops found")
	}
	log.Info().Str("file", gtfsPath).Int("stops", len(stops)).Msg("parsed GTFS stops")

	store, err := stopstore.Open(ctx, dbPath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.Upsert(ctx, stops); err != nil {
		return err
	}

	total, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting stops: %w", err)
	}
	log.Info().Str("db", dbPath).Int("total", total).Msg("import complete")
	return nil
}

func readStops(path string, kind transit.StopType, operator string) ([]transit.Stop, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		return stopstore.ParseGTFSStops(f, kind, operator)
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening feed %s: %w", path, err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		if filepath.Base(file.Name) != "stops.txt" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("opening stops.txt: %w", err)
		}
		defer rc.Close()
		return stopstore.ParseGTFSStops(rc, kind, operator)
	}
	return nil, fmt.Errorf("feed %s has no stops.txt", path)
}

// parseKind accepts the short flag names as well as stored stop types.
func parseKind(s string) transit.StopType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bus":
		return transit.BusStop
	case "metro", "subway":
		return transit.MetroStation
	case "rail", "train":
		return transit.RailwayStation
	case "tram":
		return transit.TramStop
	}
	return transit.ParseStopType(s)
}
