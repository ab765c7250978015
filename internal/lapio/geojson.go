package lapio

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/banshee-data/paddock/internal/sections"
	"github.com/banshee-data/paddock/internal/telemetry"
	"github.com/banshee-data/paddock/internal/trackmap"
)

// Feature kinds set in the "kind" property.
const (
	KindTrack   = "track"
	KindSection = "section"
)

// ConsensusGeoJSON builds a feature collection holding the consensus path
// as one MultiLineString, split wherever points are invalid, followed by
// one LineString feature per section. Coordinates are the path's local
// meters, not longitude and latitude.
func ConsensusGeoJSON(path trackmap.ConsensusPath, secs []sections.Section) (*geojson.FeatureCollection, error) {
	segments := path.Segments()
	if len(segments) == 0 {
		return nil, fmt.Errorf("geojson: no valid path segment: %w", telemetry.ErrDegenerateInput)
	}

	fc := geojson.NewFeatureCollection()

	track := geojson.NewFeature(orb.MultiLineString(segments))
	track.Properties["kind"] = KindTrack
	track.Properties["step"] = path.Step
	track.Properties["points"] = path.Len()
	track.Properties["valid_points"] = trackmap.CountValid(path.Points)
	fc.Append(track)

	for i, s := range secs {
		var line orb.LineString
		for j, p := range path.Points {
			d := path.Distances[j]
			if p.Valid && d >= s.Start && d <= s.End {
				line = append(line, p.Point)
			}
		}
		if len(line) < 2 {
			continue
		}
		f := geojson.NewFeature(line)
		f.Properties["kind"] = KindSection
		f.Properties["index"] = i
		f.Properties["type"] = string(s.Type)
		f.Properties["start"] = s.Start
		f.Properties["end"] = s.End
		f.Properties["max_yaw_change"] = s.MaxYawChange
		fc.Append(f)
	}
	return fc, nil
}

// WriteGeoJSON writes the consensus feature collection as indented JSON.
func WriteGeoJSON(w io.Writer, path trackmap.ConsensusPath, secs []sections.Section) error {
	fc, err := ConsensusGeoJSON(path, secs)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	_, err = w.Write(data)
	return err
}
