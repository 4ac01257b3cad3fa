package models

import (
	"fmt"
	"math"
	"time"
)

// Koi represents one tracked fish and its growth history
type Koi struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Variety       string     `json:"variety"`
	BirthDate     string     `json:"birthDate"`
	Photos        []KoiPhoto `json:"photos"`
	CurrentLength *float64   `json:"currentLength,omitempty"`
	CurrentWeight *float64   `json:"currentWeight,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// KoiPhoto is one dated growth entry owned by a single koi
type KoiPhoto struct {
	ID     string   `json:"id"`
	URI    string   `json:"uri"`
	Date   string   `json:"date"`
	Length *float64 `json:"length,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Notes  string   `json:"notes,omitempty"`
}

// WaterParameter is one pond water-quality test result
type WaterParameter struct {
	ID          string   `json:"id"`
	Date        string   `json:"date"`
	Temperature float64  `json:"temperature"`
	PH          float64  `json:"ph"`
	Ammonia     float64  `json:"ammonia"`
	Nitrite     float64  `json:"nitrite"`
	Nitrate     float64  `json:"nitrate"`
	Oxygen      *float64 `json:"oxygen,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// NotificationSettings is the singleton reminder configuration
type NotificationSettings struct {
	MeasurementReminders bool `json:"measurementReminders"`
	WaterTestReminders   bool `json:"waterTestReminders"`
	MeasurementInterval  int  `json:"measurementInterval"` // days
	WaterTestInterval    int  `json:"waterTestInterval"`   // days
}

// NewKoi is a koi record before an id is assigned
type NewKoi struct {
	Name          string     `json:"name"`
	Variety       string     `json:"variety"`
	BirthDate     string     `json:"birthDate"`
	Photos        []KoiPhoto `json:"photos"`
	CurrentLength *float64   `json:"currentLength,omitempty"`
	CurrentWeight *float64   `json:"currentWeight,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// NewPhoto is a photo entry before an id is assigned
type NewPhoto struct {
	URI    string   `json:"uri"`
	Date   string   `json:"date"`
	Length *float64 `json:"length,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Notes  string   `json:"notes,omitempty"`
}

// NewWaterParameter is a water test before an id is assigned
type NewWaterParameter struct {
	Date        string   `json:"date"`
	Temperature float64  `json:"temperature"`
	PH          float64  `json:"ph"`
	Ammonia     float64  `json:"ammonia"`
	Nitrite     float64  `json:"nitrite"`
	Nitrate     float64  `json:"nitrate"`
	Oxygen      *float64 `json:"oxygen,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// KoiPatch lists the koi fields an update may replace. Nil fields are left untouched.
type KoiPatch struct {
	Name          *string  `json:"name,omitempty"`
	Variety       *string  `json:"variety,omitempty"`
	BirthDate     *string  `json:"birthDate,omitempty"`
	CurrentLength *float64 `json:"currentLength,omitempty"`
	CurrentWeight *float64 `json:"currentWeight,omitempty"`
	Notes         *string  `json:"notes,omitempty"`
}

// PhotoPatch lists the photo fields an edit may replace. The uri is fixed at creation.
type PhotoPatch struct {
	Date   *string  `json:"date,omitempty"`
	Length *float64 `json:"length,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Notes  *string  `json:"notes,omitempty"`
}

// DefaultNotificationSettings returns the settings used before the first update
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		MeasurementReminders: true,
		WaterTestReminders:   true,
		MeasurementInterval:  7,
		WaterTestInterval:    3,
	}
}

// Apply merges the patch into k
func (p KoiPatch) Apply(k Koi) Koi {
	if p.Name != nil {
		k.Name = *p.Name
	}
	if p.Variety != nil {
		k.Variety = *p.Variety
	}
	if p.BirthDate != nil {
		k.BirthDate = *p.BirthDate
	}
	if p.CurrentLength != nil {
		k.CurrentLength = Float(*p.CurrentLength)
	}
	if p.CurrentWeight != nil {
		k.CurrentWeight = Float(*p.CurrentWeight)
	}
	if p.Notes != nil {
		k.Notes = *p.Notes
	}
	return k
}

// Apply merges the patch into ph
func (p PhotoPatch) Apply(ph KoiPhoto) KoiPhoto {
	if p.Date != nil {
		ph.Date = *p.Date
	}
	if p.Length != nil {
		ph.Length = Float(*p.Length)
	}
	if p.Weight != nil {
		ph.Weight = Float(*p.Weight)
	}
	if p.Notes != nil {
		ph.Notes = *p.Notes
	}
	return ph
}

// Float returns a pointer to a copy of v
func Float(v float64) *float64 {
	return &v
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
}

// ParseDate parses a stored date. Both plain ISO dates and full timestamps are accepted.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// DateOrZero parses s and returns the zero time when it cannot be parsed
func DateOrZero(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AgeInMonths returns the koi's age counted in 30-day months
func (k Koi) AgeInMonths(now time.Time) int {
	born, err := ParseDate(k.BirthDate)
	if err != nil {
		return 0
	}
	days := now.Sub(born).Hours() / 24
	if days < 0 {
		return 0
	}
	return int(math.Floor(days / 30))
}

// Clone returns a deep copy of k
func (k Koi) Clone() Koi {
	out := k
	out.CurrentLength = cloneFloat(k.CurrentLength)
	out.CurrentWeight = cloneFloat(k.CurrentWeight)
	out.Photos = make([]KoiPhoto, len(k.Photos))
	for i, p := range k.Photos {
		out.Photos[i] = p.Clone()
	}
	return out
}

// Clone returns a deep copy of p
func (p KoiPhoto) Clone() KoiPhoto {
	out := p
	out.Length = cloneFloat(p.Length)
	out.Weight = cloneFloat(p.Weight)
	return out
}

// Clone returns a deep copy of w
func (w WaterParameter) Clone() WaterParameter {
	out := w
	out.Oxygen = cloneFloat(w.Oxygen)
	return out
}

// CloneKoi deep-copies a koi collection
func CloneKoi(in []Koi) []Koi {
	out := make([]Koi, len(in))
	for i, k := range in {
		out[i] = k.Clone()
	}
	return out
}

// CloneWaterParameters deep-copies a water parameter collection
func CloneWaterParameters(in []WaterParameter) []WaterParameter {
	out := make([]WaterParameter, len(in))
	for i, w := range in {
		out[i] = w.Clone()
	}
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return Float(*v)
}
