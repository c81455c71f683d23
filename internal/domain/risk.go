package domain

// RiskLevel is the coarse outcome of scoring.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Rank orders levels for max-wins comparisons: Low < Medium < High < Critical.
func (l RiskLevel) Rank() int {
	switch l {
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	default:
		return 0
	}
}

// FactorType names a contributing risk factor. Declaration order is the
// evaluation order used for primary-threat tie-breaks.
type FactorType string

const (
	FactorHumidity      FactorType = "humidity"
	FactorTemperature   FactorType = "temperature"
	FactorRainfall      FactorType = "rainfall"
	FactorWind          FactorType = "wind"
	FactorStorage       FactorType = "storage"
	FactorHarvestTiming FactorType = "harvest_timing"
)

// RiskFactor is one named contributor to an assessment, severity in [0,100].
type RiskFactor struct {
	Type     FactorType `json:"type"`
	Severity int        `json:"severity"`
}

// RiskAssessment is the per-crop output of the factor analyzer. Factors keep
// evaluation order (humidity, temperature, rainfall, wind, storage,
// harvest_timing). Ephemeral; consumed immediately by the synthesizer.
type RiskAssessment struct {
	Level         RiskLevel    `json:"level"`
	Score         int          `json:"score"`
	Factors       []RiskFactor `json:"factors"`
	PrimaryThreat string       `json:"primary_threat"`
}

// UrgentRiskType names an area-wide urgent risk candidate.
type UrgentRiskType string

const (
	UrgentRain     UrgentRiskType = "rain"
	UrgentHeat     UrgentRiskType = "heat"
	UrgentWind     UrgentRiskType = "wind"
	UrgentHumidity UrgentRiskType = "humidity"
)

// Severity is the three-step advisory severity that drives delivery behavior.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities: low < medium < high.
func (s Severity) Rank() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	default:
		return 0
	}
}

// UrgentRisk is the single most urgent weather risk; at most one per reading.
type UrgentRisk struct {
	Type     UrgentRiskType `json:"type"`
	Severity Severity       `json:"severity"`
	Value    float64        `json:"value"`
}
