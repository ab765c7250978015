// Package render draws analysis results: a PNG track map with gonum/plot
// and an HTML report with go-echarts.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/paddock/internal/sections"
	"github.com/banshee-data/paddock/internal/telemetry"
	"github.com/banshee-data/paddock/internal/trackmap"
)

// TrackSize is the edge length of the square track map.
const TrackSize = 8 * vg.Inch

var (
	pathColor = color.RGBA{R: 120, G: 120, B: 120, A: 255}

	sectionColors = map[sections.SectionType]color.Color{
		sections.CornerCW:  color.RGBA{R: 220, G: 60, B: 50, A: 255},
		sections.CornerCCW: color.RGBA{R: 40, G: 110, B: 220, A: 255},
	}
)

// TrackPNG writes the consensus path as a PNG, corners highlighted by
// rotation direction.
func TrackPNG(w io.Writer, path trackmap.ConsensusPath, secs []sections.Section) error {
	p, err := trackPlot(path, secs)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(TrackSize, TrackSize, "png")
	if err != nil {
		return fmt.Errorf("track png: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveTrackPNG writes the track map to filename. The extension selects the
// image format.
func SaveTrackPNG(filename string, path trackmap.ConsensusPath, secs []sections.Section) error {
	p, err := trackPlot(path, secs)
	if err != nil {
		return err
	}
	if err := p.Save(TrackSize, TrackSize, filename); err != nil {
		return fmt.Errorf("save track plot: %w", err)
	}
	return nil
}

func trackPlot(path trackmap.ConsensusPath, secs []sections.Section) (*plot.Plot, error) {
	segments := path.Segments()
	if len(segments) == 0 {
		return nil, fmt.Errorf("track plot: no valid path segment: %w", telemetry.ErrDegenerateInput)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Consensus track (%d points, %.0f m grid)", path.Len(), path.Step)
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Add(plotter.NewGrid())

	for i, seg := range segments {
		pts := make(plotter.XYs, len(seg))
		for j, pt := range seg {
			pts[j] = plotter.XY{X: pt[0], Y: pt[1]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.Color = pathColor
		line.Width = vg.Points(1)
		p.Add(line)
		if i == 0 {
			p.Legend.Add("path", line)
		}
	}

	for _, typ := range []sections.SectionType{sections.CornerCW, sections.CornerCCW} {
		pts := cornerPoints(path, secs, typ)
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		sc.GlyphStyle.Color = sectionColors[typ]
		sc.GlyphStyle.Radius = vg.Points(1.5)
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(sc)
		p.Legend.Add(string(typ), sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	squareAxes(p, path)
	return p, nil
}

// cornerPoints returns the valid path points inside any section of typ.
func cornerPoints(path trackmap.ConsensusPath, secs []sections.Section, typ sections.SectionType) plotter.XYs {
	var out plotter.XYs
	for i, pt := range path.Points {
		if !pt.Valid {
			continue
		}
		d := path.Distances[i]
		for _, s := range secs {
			if s.Type == typ && d >= s.Start && d <= s.End {
				out = append(out, plotter.XY{X: pt.Point[0], Y: pt.Point[1]})
				break
			}
		}
	}
	return out
}

// squareAxes gives both axes the same span so the map is not distorted.
func squareAxes(p *plot.Plot, path trackmap.ConsensusPath) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range path.Points {
		if !pt.Valid {
			continue
		}
		minX, maxX = math.Min(minX, pt.Point[0]), math.Max(maxX, pt.Point[0])
		minY, maxY = math.Min(minY, pt.Point[1]), math.Max(maxY, pt.Point[1])
	}
	half := math.Max(maxX-minX, maxY-minY)/2*1.05 + 1
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	p.X.Min, p.X.Max = cx-half, cx+half
	p.Y.Min, p.Y.Max = cy-half, cy+half
}
