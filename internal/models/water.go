package models

// Safe ranges for pond water. Readings outside them are reported as warnings.
const (
	MinPH          = 6.5
	MaxPH          = 8.5
	MaxAmmonia     = 0.25
	MaxNitrite     = 0.25
	MaxNitrate     = 40
	MinTemperature = 15
	MaxTemperature = 25
)

// Warnings returns the names of the parameters that are out of their safe range
func (w WaterParameter) Warnings() []string {
	warnings := []string{}
	if w.PH < MinPH || w.PH > MaxPH {
		warnings = append(warnings, "pH")
	}
	if w.Ammonia > MaxAmmonia {
		warnings = append(warnings, "Ammonia")
	}
	if w.Nitrite > MaxNitrite {
		warnings = append(warnings, "Nitrite")
	}
	if w.Nitrate > MaxNitrate {
		warnings = append(warnings, "Nitrate")
	}
	if w.Temperature < MinTemperature || w.Temperature > MaxTemperature {
		warnings = append(warnings, "Temperature")
	}
	return warnings
}
