package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-03-15T10:30:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, 10, d.Hour())

	_, err = ParseDate("15/03/2024")
	assert.Error(t, err)
	assert.True(t, DateOrZero("nope").IsZero())
}

func TestKoiPatchApply(t *testing.T) {
	k := DemoKoi()[0]
	name := "Hana"

	got := KoiPatch{Name: &name}.Apply(k)

	assert.Equal(t, "Hana", got.Name)
	assert.Equal(t, k.Variety, got.Variety)
	assert.Equal(t, k.BirthDate, got.BirthDate)
	assert.Equal(t, *k.CurrentLength, *got.CurrentLength)
}

func TestPhotoPatchApplyKeepsURI(t *testing.T) {
	p := DemoKoi()[0].Photos[0]
	notes := "re-measured"

	got := PhotoPatch{Length: Float(9), Notes: &notes}.Apply(p)

	assert.Equal(t, p.URI, got.URI)
	assert.Equal(t, p.Date, got.Date)
	assert.Equal(t, 9.0, *got.Length)
	assert.Equal(t, "re-measured", got.Notes)
}

func TestKoiCloneIsDeep(t *testing.T) {
	k := DemoKoi()[1]
	c := k.Clone()

	*c.CurrentLength = 99
	c.Photos[0].Notes = "changed"
	*c.Photos[0].Weight = 1

	assert.Equal(t, 35.0, *k.CurrentLength)
	assert.Equal(t, "Young Showa with great potential", k.Photos[0].Notes)
	assert.Equal(t, 85.0, *k.Photos[0].Weight)
}

func TestAgeInMonths(t *testing.T) {
	k := Koi{BirthDate: "2024-01-01"}
	now := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	// 91 days
	assert.Equal(t, 3, k.AgeInMonths(now))
	assert.Equal(t, 0, Koi{BirthDate: "bad"}.AgeInMonths(now))
	assert.Equal(t, 0, Koi{BirthDate: "2025-01-01"}.AgeInMonths(now))
}

func TestWaterWarnings(t *testing.T) {
	ok := WaterParameter{Temperature: 20, PH: 7.2, Ammonia: 0, Nitrite: 0.1, Nitrate: 20}
	assert.Empty(t, ok.Warnings())

	bad := WaterParameter{Temperature: 28, PH: 9, Ammonia: 0.5, Nitrite: 0.3, Nitrate: 50}
	assert.Equal(t, []string{"pH", "Ammonia", "Nitrite", "Nitrate", "Temperature"}, bad.Warnings())
}

func TestDemoKoiIsFresh(t *testing.T) {
	a := DemoKoi()
	a[0].Name = "mutated"

	b := DemoKoi()
	require.Len(t, b, 3)
	assert.Equal(t, "Sakura", b[0].Name)
	for _, k := range b {
		assert.Len(t, k.Photos, 3)
	}
}
