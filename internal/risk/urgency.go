package risk

import "github.com/agrisafe/crop-risk-advisory/internal/domain"

// Urgency tier thresholds. These are a third, independent view of "how bad
// is this metric" (see the package comment on the three humidity tables).
const (
	rainChanceHigh   = 70.0
	rainChanceMedium = 50.0
	// Raw rainfall tiers (used only when no rain probability is present)
	// borrow the scoring bands' medium/high cutoffs.
	rainfallHigh   = 100.0
	rainfallMedium = 50.0

	heatHigh   = 38.0
	heatMedium = 35.0
	heatLow    = 30.0 // any temperature ≥30 is significant

	windHigh   = 15.0
	windMedium = 10.0

	humidityHigh = 90.0
	// The medium tier starts where the analyzer's humidity scale starts.
	// 80 was the other candidate boundary; kept for documentation.
	humidityMedium    = 75.0
	humidityMediumAlt = 80.0
)

// MostUrgentRisk picks the single most urgent named risk for a weather
// reading with no crop in context. Candidates are computed independently per
// type; the highest severity tier wins, and ties break in the fixed order
// rain > heat > wind > humidity. Returns nil when no threshold is crossed.
func MostUrgentRisk(weather *domain.WeatherReading) *domain.UrgentRisk {
	if weather == nil {
		return nil
	}
	w := weather.Sanitized()

	// Candidate order is the tie-break order.
	candidates := []*domain.UrgentRisk{
		rainRisk(w),
		heatRisk(w.Temperature),
		windRisk(w.WindSpeedMs),
		humidityRisk(w.Humidity),
	}

	var best *domain.UrgentRisk
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if best == nil || c.Severity.Rank() > best.Severity.Rank() {
			best = c
		}
	}
	return best
}

// rainRisk prefers the forecast rain probability over raw accumulated
// rainfall when a probability is present.
func rainRisk(w domain.WeatherReading) *domain.UrgentRisk {
	if w.RainChance != nil {
		chance := *w.RainChance
		switch {
		case chance >= rainChanceHigh:
			return &domain.UrgentRisk{Type: domain.UrgentRain, Severity: domain.SeverityHigh, Value: chance}
		case chance >= rainChanceMedium:
			return &domain.UrgentRisk{Type: domain.UrgentRain, Severity: domain.SeverityMedium, Value: chance}
		}
		return nil
	}

	switch {
	case w.RainfallMm >= rainfallHigh:
		return &domain.UrgentRisk{Type: domain.UrgentRain, Severity: domain.SeverityHigh, Value: w.RainfallMm}
	case w.RainfallMm >= rainfallMedium:
		return &domain.UrgentRisk{Type: domain.UrgentRain, Severity: domain.SeverityMedium, Value: w.RainfallMm}
	}
	return nil
}

func heatRisk(temp float64) *domain.UrgentRisk {
	switch {
	case temp >= heatHigh:
		return &domain.UrgentRisk{Type: domain.UrgentHeat, Severity: domain.SeverityHigh, Value: temp}
	case temp >= heatMedium:
		return &domain.UrgentRisk{Type: domain.UrgentHeat, Severity: domain.SeverityMedium, Value: temp}
	case temp >= heatLow:
		return &domain.UrgentRisk{Type: domain.UrgentHeat, Severity: domain.SeverityLow, Value: temp}
	}
	return nil
}

func windRisk(speed float64) *domain.UrgentRisk {
	switch {
	case speed >= windHigh:
		return &domain.UrgentRisk{Type: domain.UrgentWind, Severity: domain.SeverityHigh, Value: speed}
	case speed >= windMedium:
		return &domain.UrgentRisk{Type: domain.UrgentWind, Severity: domain.SeverityMedium, Value: speed}
	}
	return nil
}

func humidityRisk(humidity float64) *domain.UrgentRisk {
	switch {
	case humidity >= humidityHigh:
		return &domain.UrgentRisk{Type: domain.UrgentHumidity, Severity: domain.SeverityHigh, Value: humidity}
	case humidity >= humidityMedium:
		return &domain.UrgentRisk{Type: domain.UrgentHumidity, Severity: domain.SeverityMedium, Value: humidity}
	}
	return nil
}
