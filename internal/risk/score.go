// Package risk converts weather readings and crop batch state into
// quantified risk: a point score in [0,100], a coarse risk level, a
// decomposition into named contributing factors, and an area-wide "most
// urgent risk" used when no specific crop is in context.
//
// Three humidity threshold tables appear in this package and they are
// intentionally different views, not an accident: the point-scoring bands
// start at 60/70/80/90, the factor analyzer's severity scale starts at 75,
// and the urgency tiers sit at 75/90. Unifying them would change scores.
package risk

import (
	"math"

	"github.com/agrisafe/crop-risk-advisory/internal/domain"
)

// band is one inclusive lower bound and the points it awards. Exceeding a
// higher threshold supersedes the lower band; points are not cumulative
// within a metric.
type band struct {
	threshold float64
	points    float64
}

// Point-scoring band tables, highest threshold first.
var (
	humidityBands = []band{{90, 35}, {80, 25}, {70, 15}, {60, 8}}
	temperatureBands = []band{{42, 30}, {38, 20}, {35, 12}, {30, 7}}
	rainfallBands = []band{{150, 25}, {100, 18}, {50, 10}, {20, 5}}
	windBands = []band{{20, 10}, {15, 7}, {10, 4}}
)

func bandPoints(bands []band, value float64) float64 {
	for _, b := range bands {
		if value >= b.threshold {
			return b.points
		}
	}
	return 0
}

// Score maps a weather reading and crop batch to an integer score in
// [0,100]: the sum of the four metric band contributions, multiplied by the
// storage vulnerability multiplier for harvested crops, clamped to 100 and
// rounded. A nil crop scores the weather alone (multiplier 1.0).
func Score(w domain.WeatherReading, crop *domain.CropBatchState) int {
	w = w.Sanitized()

	sum := bandPoints(humidityBands, w.Humidity) +
		bandPoints(temperatureBands, w.Temperature) +
		bandPoints(rainfallBands, w.RainfallMm) +
		bandPoints(windBands, w.WindSpeedMs)

	multiplier := 1.0
	if crop != nil {
		multiplier = crop.StorageMultiplier()
	}

	return int(math.Round(math.Min(100, sum*multiplier)))
}

// LevelForScore maps a score to its risk level:
// <40 Low, 40–59 Medium, 60–79 High, ≥80 Critical.
func LevelForScore(score int) domain.RiskLevel {
	switch {
	case score >= 80:
		return domain.RiskCritical
	case score >= 60:
		return domain.RiskHigh
	case score >= 40:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
