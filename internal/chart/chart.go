// Package chart turns dated koi measurements into pixel geometry for the
// growth chart. Everything here is pure: the same input always yields the
// same output, so it can be called from any goroutine.
package chart

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"koi-keeper-backend/internal/models"
)

// Metric selects which measurement is plotted
type Metric string

const (
	MetricLength Metric = "length"
	MetricWeight Metric = "weight"
)

// ErrNoData is returned when no point survives the selection filter
var ErrNoData = errors.New("chart: no data")

// Palette is cycled through in group order
var Palette = []string{"#2E7D8A", "#E74C3C", "#F39C12", "#8E44AD", "#27AE60"}

// Point is one dated measurement of one koi
type Point struct {
	Date    time.Time `json:"date"`
	Length  float64   `json:"length"`
	Weight  float64   `json:"weight"`
	KoiID   string    `json:"koiId"`
	KoiName string    `json:"koiName"`
}

func (p Point) value(m Metric) float64 {
	if m == MetricWeight {
		return p.Weight
	}
	return p.Length
}

// Options controls the projection
type Options struct {
	Width    float64
	Height   float64
	Metric   Metric
	Selected []string // koi ids; empty means every koi
}

// Pixel is a projected point
type Pixel struct {
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Segment joins two consecutive pixels of one series. It is drawn as a
// unit-height bar of the given length anchored at (X, Y) and rotated by Angle degrees.
type Segment struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Length float64 `json:"length"`
	Angle  float64 `json:"angle"`
}

// Series holds the geometry of one koi
type Series struct {
	KoiID    string    `json:"koiId"`
	KoiName  string    `json:"koiName"`
	Color    string    `json:"color"`
	Points   []Pixel   `json:"points"`
	Segments []Segment `json:"segments"`
}

// Chart is the full projection result
type Chart struct {
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
	Metric   Metric   `json:"metric"`
	MinValue float64  `json:"minValue"`
	MaxValue float64  `json:"maxValue"`
	Labels   []string `json:"labels"` // max, mid, min from top to bottom
	Series   []Series `json:"series"`
}

// Project filters points by selection and maps them into a width x height
// pixel box. Time runs left to right; values run bottom to top, so the
// largest value sits at y=0.
func Project(points []Point, opts Options) (Chart, error) {
	metric := opts.Metric
	if metric == "" {
		metric = MetricLength
	}

	filtered := filter(points, opts.Selected)
	if len(filtered) == 0 {
		return Chart{}, ErrNoData
	}

	minValue, maxValue := filtered[0].value(metric), filtered[0].value(metric)
	minTime, maxTime := filtered[0].Date.UnixMilli(), filtered[0].Date.UnixMilli()
	for _, p := range filtered[1:] {
		v := p.value(metric)
		minValue = math.Min(minValue, v)
		maxValue = math.Max(maxValue, v)
		t := p.Date.UnixMilli()
		if t < minTime {
			minTime = t
		}
		if t > maxTime {
			maxTime = t
		}
	}
	valueRange := maxValue - minValue
	if valueRange == 0 {
		valueRange = 1
	}
	timeRange := float64(maxTime - minTime)
	if timeRange == 0 {
		timeRange = 1
	}

	project := func(p Point) Pixel {
		x := float64(p.Date.UnixMilli()-minTime) / timeRange * opts.Width
		y := opts.Height - (p.value(metric)-minValue)/valueRange*opts.Height
		return Pixel{
			X:     clamp(x, 0, opts.Width),
			Y:     clamp(y, 0, opts.Height),
			Date:  p.Date,
			Value: p.value(metric),
		}
	}

	groups := group(filtered)
	series := make([]Series, 0, len(groups))
	for i, g := range groups {
		s := Series{
			KoiID:    g[0].KoiID,
			KoiName:  g[0].KoiName,
			Color:    Palette[i%len(Palette)],
			Points:   make([]Pixel, len(g)),
			Segments: []Segment{},
		}
		for j, p := range g {
			s.Points[j] = project(p)
		}
		for j := 0; j+1 < len(s.Points); j++ {
			s.Segments = append(s.Segments, segment(s.Points[j], s.Points[j+1]))
		}
		series = append(series, s)
	}

	return Chart{
		Width:    opts.Width,
		Height:   opts.Height,
		Metric:   metric,
		MinValue: minValue,
		MaxValue: maxValue,
		Labels: []string{
			formatLabel(maxValue),
			formatLabel((maxValue + minValue) / 2),
			formatLabel(minValue),
		},
		Series: series,
	}, nil
}

// PointsFromKoi collects every photo that carries both a length and a weight,
// ordered by date.
func PointsFromKoi(koi []models.Koi) []Point {
	var points []Point
	for _, k := range koi {
		for _, photo := range k.Photos {
			if photo.Length == nil || photo.Weight == nil || *photo.Length == 0 || *photo.Weight == 0 {
				continue
			}
			date, err := models.ParseDate(photo.Date)
			if err != nil {
				continue
			}
			points = append(points, Point{
				Date:    date,
				Length:  *photo.Length,
				Weight:  *photo.Weight,
				KoiID:   k.ID,
				KoiName: k.Name,
			})
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points
}

func filter(points []Point, selected []string) []Point {
	if len(selected) == 0 {
		return points
	}
	keep := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		keep[id] = struct{}{}
	}
	var out []Point
	for _, p := range points {
		if _, ok := keep[p.KoiID]; ok {
			out = append(out, p)
		}
	}
	return out
}

// group splits points by koi in order of first appearance and sorts each
// group by date. The input slice is left as it was.
func group(points []Point) [][]Point {
	index := map[string]int{}
	var groups [][]Point
	for _, p := range points {
		i, ok := index[p.KoiID]
		if !ok {
			i = len(groups)
			index[p.KoiID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], p)
	}
	for _, g := range groups {
		sort.SliceStable(g, func(a, b int) bool {
			return g[a].Date.Before(g[b].Date)
		})
	}
	return groups
}

func segment(from, to Pixel) Segment {
	dx := to.X - from.X
	dy := to.Y - from.Y
	return Segment{
		X:      from.X,
		Y:      from.Y,
		Length: math.Hypot(dx, dy),
		Angle:  math.Atan2(dy, dx) * 180 / math.Pi,
	}
}

// formatLabel rounds halves away from zero
func formatLabel(v float64) string {
	return fmt.Sprintf("%.0f", math.Round(v))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
