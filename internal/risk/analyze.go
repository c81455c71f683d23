package risk

import (
	"math"

	"github.com/agrisafe/crop-risk-advisory/internal/domain"
)

// NoSignificantRisk is the primary threat reported when no factor crosses
// its scale minimum.
const NoSignificantRisk = "No significant risk"

// InsufficientData is the primary threat reported for nil weather or crop
// input. The level degrades to Medium, a deliberately conservative default:
// missing data is not safe data, but it is not an emergency either.
const InsufficientData = "Insufficient data"

// severityScale maps a metric value to a severity in [0,100] as its linear
// position between min and max. These scales are the analyzer's own view and
// deliberately differ from the point-scoring bands (humidity in particular
// starts at 75 here versus 60 for scoring).
type severityScale struct {
	min, max float64
}

var (
	humidityScale    = severityScale{75, 100}
	temperatureScale = severityScale{30, 50}
	rainfallScale    = severityScale{20, 150}
	windScale        = severityScale{10, 25}
)

// severity returns the clamped position of value within the scale, or 0 when
// the value has not reached the scale minimum.
func (s severityScale) severity(value float64) int {
	if value < s.min {
		return 0
	}
	pos := (value - s.min) / (s.max - s.min) * 100
	return int(math.Round(math.Min(100, pos)))
}

// Days within which an upcoming harvest becomes a timing factor.
const harvestTimingWindowDays = 7

// Severity assigned to the storage factor per multiplier step and to the
// harvest-timing factor.
const harvestTimingSeverity = 50

// AssessCrop decomposes the risk for one crop batch under the given weather
// into ordered factors and selects the primary threat. Factors appear in
// evaluation order: humidity, temperature, rainfall, wind, storage,
// harvest_timing. Nil inputs yield a Medium assessment with no factors.
func AssessCrop(crop *domain.CropBatchState, weather *domain.WeatherReading) domain.RiskAssessment {
	if crop == nil || weather == nil {
		return domain.RiskAssessment{
			Level:         domain.RiskMedium,
			Score:         50,
			Factors:       []domain.RiskFactor{},
			PrimaryThreat: InsufficientData,
		}
	}

	if crop.Stage == domain.StageHarvested {
		return calculateStorageRisk(*crop, weather.Sanitized())
	}
	return calculateGrowingRisk(*crop, weather.Sanitized())
}

// calculateStorageRisk assesses a harvested batch: the four weather factors
// plus a storage factor whenever the batch is not in a silo. The storage
// factor's severity is the multiplier's excess over 1.0 expressed in
// percent, e.g. open_space ×1.5 → 50.
func calculateStorageRisk(crop domain.CropBatchState, w domain.WeatherReading) domain.RiskAssessment {
	factors := weatherFactors(w)

	if mult := crop.StorageMultiplier(); mult > 1.0 {
		factors = append(factors, domain.RiskFactor{
			Type:     domain.FactorStorage,
			Severity: int(math.Round((mult - 1) * 100)),
		})
	}

	return buildAssessment(w, &crop, factors)
}

// calculateGrowingRisk assesses a growing batch: the four weather factors
// plus a harvest-timing factor when the expected harvest is between 1 and 7
// days out. Past-due and far-out harvests add no factor.
func calculateGrowingRisk(crop domain.CropBatchState, w domain.WeatherReading) domain.RiskAssessment {
	factors := weatherFactors(w)

	if days := domain.DaysUntilHarvest(crop.ExpectedHarvestDate); days != nil && *days > 0 && *days <= harvestTimingWindowDays {
		factors = append(factors, domain.RiskFactor{
			Type:     domain.FactorHarvestTiming,
			Severity: harvestTimingSeverity,
		})
	}

	return buildAssessment(w, &crop, factors)
}

// weatherFactors evaluates the four weather metrics in order, keeping only
// factors whose severity is above zero.
func weatherFactors(w domain.WeatherReading) []domain.RiskFactor {
	candidates := []domain.RiskFactor{
		{Type: domain.FactorHumidity, Severity: humidityScale.severity(w.Humidity)},
		{Type: domain.FactorTemperature, Severity: temperatureScale.severity(w.Temperature)},
		{Type: domain.FactorRainfall, Severity: rainfallScale.severity(w.RainfallMm)},
		{Type: domain.FactorWind, Severity: windScale.severity(w.WindSpeedMs)},
	}

	factors := make([]domain.RiskFactor, 0, len(candidates))
	for _, f := range candidates {
		if f.Severity > 0 {
			factors = append(factors, f)
		}
	}
	return factors
}

func buildAssessment(w domain.WeatherReading, crop *domain.CropBatchState, factors []domain.RiskFactor) domain.RiskAssessment {
	score := Score(w, crop)

	if len(factors) == 0 {
		return domain.RiskAssessment{
			Level:         domain.RiskLow,
			Score:         score,
			Factors:       []domain.RiskFactor{},
			PrimaryThreat: NoSignificantRisk,
		}
	}

	// Max severity wins; ties resolve to the earlier factor because the
	// slice is already in evaluation order.
	primary := factors[0]
	for _, f := range factors[1:] {
		if f.Severity > primary.Severity {
			primary = f
		}
	}

	return domain.RiskAssessment{
		Level:         LevelForScore(score),
		Score:         score,
		Factors:       factors,
		PrimaryThreat: string(primary.Type),
	}
}

// OverallRisk returns the maximum level across assessments,
// Low for empty input.
func OverallRisk(assessments []domain.RiskAssessment) domain.RiskLevel {
	overall := domain.RiskLow
	for _, a := range assessments {
		if a.Level.Rank() > overall.Rank() {
			overall = a.Level
		}
	}
	return overall
}
