package chart

import (
	"math"
	"testing"
	"time"

	"koi-keeper-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func twoKoi() []Point {
	return []Point{
		{Date: day("2024-01-01"), Length: 10, Weight: 100, KoiID: "a", KoiName: "Asagi"},
		{Date: day("2024-02-01"), Length: 15, Weight: 150, KoiID: "b", KoiName: "Bekko"},
		{Date: day("2024-03-01"), Length: 20, Weight: 250, KoiID: "a", KoiName: "Asagi"},
		{Date: day("2024-04-01"), Length: 30, Weight: 400, KoiID: "b", KoiName: "Bekko"},
	}
}

func TestProject_ValueRangeMapsToInvertedHeight(t *testing.T) {
	c, err := Project(twoKoi(), Options{Width: 300, Height: 200, Metric: MetricLength})
	require.NoError(t, err)

	require.Len(t, c.Series, 2)
	a, b := c.Series[0], c.Series[1]
	assert.Equal(t, "a", a.KoiID)
	assert.Equal(t, "b", b.KoiID)

	// min value 10 sits at the bottom, max value 30 at the top
	assert.Equal(t, 200.0, a.Points[0].Y)
	assert.Equal(t, 0.0, b.Points[1].Y)

	// time spans the full width
	assert.Equal(t, 0.0, a.Points[0].X)
	assert.Equal(t, 300.0, b.Points[1].X)

	assert.Equal(t, []string{"30", "20", "10"}, c.Labels)
	assert.Equal(t, 10.0, c.MinValue)
	assert.Equal(t, 30.0, c.MaxValue)
}

func TestProject_SinglePointUsesUnitRange(t *testing.T) {
	c, err := Project([]Point{{Date: day("2024-01-01"), Length: 12, Weight: 90, KoiID: "a"}}, Options{Width: 100, Height: 50, Metric: MetricLength})
	require.NoError(t, err)

	require.Len(t, c.Series, 1)
	p := c.Series[0].Points[0]
	assert.Equal(t, 50.0, p.Y)
	assert.Equal(t, 0.0, p.X)
	assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y))
	assert.Empty(t, c.Series[0].Segments)
	assert.Equal(t, []string{"12", "12", "12"}, c.Labels)
}

func TestProject_EmptySelectionResultIsNoData(t *testing.T) {
	_, err := Project(twoKoi(), Options{Width: 100, Height: 100, Selected: []string{"zzz"}})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Project(nil, Options{Width: 100, Height: 100})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestProject_MidLabelRoundsHalfUp(t *testing.T) {
	in := []Point{
		{Date: day("2024-01-01"), Length: 10, KoiID: "a"},
		{Date: day("2024-06-01"), Length: 35, KoiID: "a"},
	}
	c, err := Project(in, Options{Width: 100, Height: 100})
	require.NoError(t, err)
	assert.Equal(t, []string{"35", "23", "10"}, c.Labels)

	assert.Equal(t, "3", formatLabel(2.5))
	assert.Equal(t, "-3", formatLabel(-2.5))
}

func TestProject_SelectionFilters(t *testing.T) {
	c, err := Project(twoKoi(), Options{Width: 100, Height: 100, Metric: MetricWeight, Selected: []string{"b"}})
	require.NoError(t, err)

	require.Len(t, c.Series, 1)
	assert.Equal(t, "Bekko", c.Series[0].KoiName)
	assert.Equal(t, Palette[0], c.Series[0].Color)
	assert.Equal(t, []string{"400", "275", "150"}, c.Labels)
}

func TestProject_GroupsSortByDateWithoutTouchingInput(t *testing.T) {
	in := []Point{
		{Date: day("2024-03-01"), Length: 20, KoiID: "a"},
		{Date: day("2024-01-01"), Length: 10, KoiID: "a"},
		{Date: day("2024-02-01"), Length: 15, KoiID: "a"},
	}
	c, err := Project(in, Options{Width: 100, Height: 100})
	require.NoError(t, err)

	pts := c.Series[0].Points
	require.Len(t, pts, 3)
	assert.True(t, pts[0].Date.Before(pts[1].Date))
	assert.True(t, pts[1].Date.Before(pts[2].Date))
	assert.Equal(t, day("2024-03-01"), in[0].Date, "input order must be preserved")
}

func TestProject_Segments(t *testing.T) {
	in := []Point{
		{Date: day("2024-01-01"), Length: 0.5, KoiID: "a"},
		{Date: day("2024-01-11"), Length: 1.5, KoiID: "a"},
	}
	c, err := Project(in, Options{Width: 30, Height: 40})
	require.NoError(t, err)

	segs := c.Series[0].Segments
	require.Len(t, segs, 1)
	// (0,40) -> (30,0)
	assert.InDelta(t, 50.0, segs[0].Length, 1e-9)
	assert.InDelta(t, math.Atan2(-40, 30)*180/math.Pi, segs[0].Angle, 1e-9)
	assert.Equal(t, 0.0, segs[0].X)
	assert.Equal(t, 40.0, segs[0].Y)
}

func TestProject_PaletteCyclesDeterministically(t *testing.T) {
	var in []Point
	for i := 0; i < 7; i++ {
		in = append(in, Point{Date: day("2024-01-01").AddDate(0, 0, i), Length: float64(i), KoiID: string(rune('a' + i))})
	}
	first, err := Project(in, Options{Width: 10, Height: 10})
	require.NoError(t, err)
	second, err := Project(in, Options{Width: 10, Height: 10})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first.Series, 7)
	assert.Equal(t, Palette[0], first.Series[5].Color)
	assert.Equal(t, Palette[1], first.Series[6].Color)
}

func TestProject_PointsStayInsideBox(t *testing.T) {
	c, err := Project(twoKoi(), Options{Width: 321, Height: 123, Metric: MetricWeight})
	require.NoError(t, err)
	for _, s := range c.Series {
		for _, p := range s.Points {
			assert.GreaterOrEqual(t, p.X, 0.0)
			assert.LessOrEqual(t, p.X, 321.0)
			assert.GreaterOrEqual(t, p.Y, 0.0)
			assert.LessOrEqual(t, p.Y, 123.0)
		}
	}
}

func TestPointsFromKoi(t *testing.T) {
	koi := models.DemoKoi()
	koi[0].Photos = append(koi[0].Photos, models.KoiPhoto{ID: "no-weight", Date: "2024-06-01", Length: models.Float(27)})

	points := PointsFromKoi(koi)
	assert.Len(t, points, 9)
	for i := 1; i < len(points); i++ {
		assert.False(t, points[i].Date.Before(points[i-1].Date))
	}
	assert.Equal(t, "2", points[0].KoiID, "Kenzo has the earliest photo")
}
