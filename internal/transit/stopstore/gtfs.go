package stopstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/citynav/citynav/internal/geo"
	"github.com/citynav/citynav/internal/transit"
)

// ErrMissingColumn is returned when stops.txt lacks a required column.
var ErrMissingColumn = errors.New("stops.txt missing required column")

// GTFS location_type values that describe boardable places.
const (
	locationStop    = 0
	locationStation = 1
)

// ParseGTFSStops reads a GTFS stops.txt and tags every stop or station
// with kind. Rows with unparseable coordinates and non-boardable entries
// (entrances, nodes, boarding areas) are skipped.
func ParseGTFSStops(r io.Reader, kind transit.StopType, operator string) ([]transit.Stop, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := makeIndex(header)
	for _, col := range []string{"stop_id", "stop_lat", "stop_lon"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var stops []transit.Stop
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		lat, errLat := strconv.ParseFloat(getField(record, idx, "stop_lat"), 64)
		lng, errLng := strconv.ParseFloat(getField(record, idx, "stop_lon"), 64)
		if errLat != nil || errLng != nil {
			continue
		}

		locType := locationStop
		if v := getField(record, idx, "location_type"); v != "" {
			locType, err = strconv.Atoi(v)
			if err != nil {
				continue
			}
		}
		if locType != locationStop && locType != locationStation {
			continue
		}

		name := getField(record, idx, "stop_name")
		stops = append(stops, transit.Stop{
			ID:       getField(record, idx, "stop_id"),
			Name:     name,
			Type:     kind,
			Location: geo.Location{Lat: lat, Lng: lng, Name: name},
			Operator: operator,
		})
	}

	return stops, nil
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		idx[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
