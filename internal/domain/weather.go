package domain

import (
	"math"
	"time"
)

// Ideal metric values used when a reading carries a malformed number.
// Degrading to the safe midpoint keeps bad input from ever raising a score.
const (
	IdealTemperature = 25.0
	IdealHumidity    = 50.0
	IdealRainfall    = 0.0
	IdealWindSpeed   = 3.0
)

// WeatherReading is one weather snapshot from the external collaborator.
// Immutable once captured; one per fetch cycle.
type WeatherReading struct {
	Temperature float64   `json:"temperature"`   // °C
	Humidity    float64   `json:"humidity"`      // %
	RainfallMm  float64   `json:"rainfall_mm"`   // accumulated mm
	WindSpeedMs float64   `json:"wind_speed_ms"` // m/s
	RainChance  *float64  `json:"rain_chance,omitempty"` // %, optional
	Timestamp   time.Time `json:"timestamp"`
}

// Sanitized returns a copy with every value finite and percentages clamped
// to [0,100]. Non-finite values degrade to the ideal value for the metric,
// never to zero-is-dangerous.
func (w WeatherReading) Sanitized() WeatherReading {
	w.Temperature = finiteOr(w.Temperature, IdealTemperature)
	w.Humidity = clampPercent(finiteOr(w.Humidity, IdealHumidity))
	w.RainfallMm = finiteOr(w.RainfallMm, IdealRainfall)
	w.WindSpeedMs = finiteOr(w.WindSpeedMs, IdealWindSpeed)
	if w.RainChance != nil {
		c := clampPercent(finiteOr(*w.RainChance, 0))
		w.RainChance = &c
	}
	return w
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clampPercent(v float64) float64 {
	return math.Min(100, math.Max(0, v))
}
