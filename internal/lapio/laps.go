// Package lapio reads lap telemetry from CSV and exports analysis
// geometry as GeoJSON.
package lapio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/paddock/internal/telemetry"
)

// ColumnLapID names the lap id column of the long-format CSV.
const ColumnLapID = "id"

// ReadLaps reads a long-format CSV: a header with an id column, a
// DistanceRoundTrack column and any number of numeric signal columns,
// then one row per sample. Rows are grouped into laps by id in order of
// first appearance; row order within a lap is kept.
func ReadLaps(r io.Reader) ([]telemetry.Lap, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read laps: empty input: %w", telemetry.ErrDegenerateInput)
	}
	if err != nil {
		return nil, fmt.Errorf("read laps header: %w", err)
	}

	idCol, distCol := -1, -1
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
		switch header[i] {
		case ColumnLapID:
			idCol = i
		case telemetry.ColumnDistance:
			distCol = i
		}
	}
	if idCol < 0 {
		return nil, fmt.Errorf("read laps: no %q column: %w", ColumnLapID, telemetry.ErrMissingSignal)
	}
	if distCol < 0 {
		return nil, fmt.Errorf("read laps: no %q column: %w", telemetry.ColumnDistance, telemetry.ErrMissingSignal)
	}

	type building struct {
		distance []float64
		signals  map[string][]float64
	}
	var order []string
	byID := map[string]*building{}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read laps line %d: %w", line, err)
		}
		id := strings.TrimSpace(record[idCol])
		if id == "" {
			return nil, fmt.Errorf("read laps line %d: empty lap id: %w", line, telemetry.ErrConfiguration)
		}
		b, ok := byID[id]
		if !ok {
			b = &building{signals: map[string][]float64{}}
			byID[id] = b
			order = append(order, id)
		}
		for i, field := range record {
			if i == idCol {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("read laps line %d column %s: %v: %w", line, header[i], err, telemetry.ErrConfiguration)
			}
			if i == distCol {
				b.distance = append(b.distance, v)
			} else {
				b.signals[header[i]] = append(b.signals[header[i]], v)
			}
		}
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("read laps: no rows: %w", telemetry.ErrDegenerateInput)
	}

	laps := make([]telemetry.Lap, 0, len(order))
	for _, id := range order {
		b := byID[id]
		lap, err := telemetry.NewLap(id, b.distance, b.signals)
		if err != nil {
			return nil, err
		}
		laps = append(laps, lap)
	}
	return laps, nil
}

// WriteLaps writes laps in the format ReadLaps reads. Signal columns are
// the sorted union over all laps; a lap missing a column writes an empty
// cell and cannot be read back.
func WriteLaps(w io.Writer, laps []telemetry.Lap) error {
	seen := map[string]bool{}
	var columns []string
	for _, lap := range laps {
		for _, c := range lap.Columns() {
			if !seen[c] {
				seen[c] = true
				columns = append(columns, c)
			}
		}
	}

	sort.Strings(columns)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{ColumnLapID, telemetry.ColumnDistance}, columns...)); err != nil {
		return err
	}
	row := make([]string, len(columns)+2)
	for _, lap := range laps {
		for i, d := range lap.Distance {
			row[0] = lap.ID
			row[1] = strconv.FormatFloat(d, 'g', -1, 64)
			for j, c := range columns {
				row[j+2] = ""
				if values, ok := lap.Signals[c]; ok {
					row[j+2] = strconv.FormatFloat(values[i], 'g', -1, 64)
				}
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
