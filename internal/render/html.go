package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/paddock/internal/analysis"
	"github.com/banshee-data/paddock/internal/events"
	"github.com/banshee-data/paddock/internal/sections"
	"github.com/banshee-data/paddock/internal/telemetry"
	"github.com/banshee-data/paddock/internal/trackmap"
)

// AnalysisHTML writes a single page with the sectioned track map, the
// smoothed yaw change profile and the clustered event points of res.
func AnalysisHTML(w io.Writer, res *analysis.Result) error {
	if res == nil {
		return fmt.Errorf("analysis html: nil result: %w", telemetry.ErrDegenerateInput)
	}
	ev, err := eventChart(res)
	if err != nil {
		return err
	}

	page := components.NewPage()
	page.PageTitle = "Lap analysis " + res.RunID
	page.AddCharts(trackChart(res.Track), yawChart(res.Track), ev)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render analysis page: %w", err)
	}
	return nil
}

// sectionOf returns the first corner section containing d, or Straight.
func sectionOf(secs []sections.Section, d float64) sections.SectionType {
	for _, s := range secs {
		if s.Type != sections.Straight && d >= s.Start && d <= s.End {
			return s.Type
		}
	}
	return sections.Straight
}

func trackChart(tr analysis.TrackResult) *charts.Scatter {
	byType := map[sections.SectionType][]opts.ScatterData{}
	for i, pt := range tr.Path.Points {
		if !pt.Valid {
			continue
		}
		typ := sectionOf(tr.Sections, tr.Path.Distances[i])
		byType[typ] = append(byType[typ], opts.ScatterData{
			Value: []interface{}{pt.Point[0], pt.Point[1], tr.Path.Distances[i]},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Consensus track",
			Subtitle: fmt.Sprintf("length=%.1f m points=%d valid=%d", tr.Length, tr.Path.Len(), trackmap.CountValid(tr.Path.Points)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", Type: "value", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", Type: "value", NameLocation: "middle", NameGap: 30}),
	)
	for _, typ := range []sections.SectionType{sections.Straight, sections.CornerCW, sections.CornerCCW} {
		if len(byType[typ]) == 0 {
			continue
		}
		scatter.AddSeries(string(typ), byType[typ], charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	}
	return scatter
}

func yawChart(tr analysis.TrackResult) *charts.Line {
	data := make([]opts.LineData, len(tr.YawChanges))
	for i, y := range tr.YawChanges {
		data[i] = opts.LineData{Value: []interface{}{tr.Path.Distances[i], y}}
	}

	corners := 0
	for _, s := range tr.Sections {
		if s.Type != sections.Straight {
			corners++
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Smoothed yaw change",
			Subtitle: fmt.Sprintf("sections=%d corners=%d", len(tr.Sections), corners),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)", Type: "value", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "rad / step", Type: "value"}),
	)
	line.AddSeries("yaw change", data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	return line
}

func eventChart(res *analysis.Result) (*charts.Scatter, error) {
	ev := res.Events
	c := ev.Clusters
	byLabel := make([][]opts.ScatterData, c.K)
	if len(c.Labels) > 0 {
		pooled, err := events.Pool(ev.Extrema, c.Column)
		if err != nil {
			return nil, fmt.Errorf("event chart: %w", err)
		}
		if len(pooled) != len(c.Labels) {
			return nil, fmt.Errorf("event chart: %d events for %d labels: %w",
				len(pooled), len(c.Labels), telemetry.ErrDegenerateInput)
		}
		for i, e := range pooled {
			l := c.Labels[i]
			if l < 0 || l >= len(byLabel) {
				continue
			}
			byLabel[l] = append(byLabel[l], opts.ScatterData{Value: []interface{}{e.Distance, e.Value}, Name: e.LapID})
		}
	}

	centroids := make([]opts.ScatterData, len(c.Centroids))
	for i, cent := range c.Centroids {
		centroids[i] = opts.ScatterData{Value: []interface{}{cent.Distance, cent.Value}, Name: fmt.Sprintf("centroid %d", i)}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s %s events", ev.Signal, ev.Mode),
			Subtitle: fmt.Sprintf("k=%d inertia=%.2f removed laps=%d", c.K, c.Inertia, len(ev.Filter.Removed)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)", Type: "value", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: c.Column, Type: "value"}),
	)
	for i, pts := range byLabel {
		scatter.AddSeries(fmt.Sprintf("cluster %d", i), pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	}
	scatter.AddSeries("centroids", centroids, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 16}))
	return scatter, nil
}
