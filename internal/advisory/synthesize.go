// Package advisory turns risk assessments and urgent weather risks into
// localized, user-facing advisories. The synthesizer only selects templates
// and interpolates numbers; it computes no risk of its own. Synthesis is
// deterministic, so equal inputs produce equal advisory identity keys and
// deduplicate downstream.
package advisory

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/agrisafe/crop-risk-advisory/internal/domain"
)

// SeverityForLevel maps a risk level to the advisory severity that drives
// delivery: Low→low, Medium→medium, High and Critical→high.
func SeverityForLevel(level domain.RiskLevel) domain.Severity {
	switch level {
	case domain.RiskHigh, domain.RiskCritical:
		return domain.SeverityHigh
	case domain.RiskMedium:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// FromAssessment synthesizes the advisory for one crop's assessment. The
// template follows the primary threat; numbers render in the locale's digit
// system.
func FromAssessment(a domain.RiskAssessment, crop domain.CropBatchState, weather domain.WeatherReading, lang language.Tag) domain.Advisory {
	w := weather.Sanitized()
	printer := message.NewPrinter(lang)

	advisoryType := domain.AdvisoryGrowingRisk
	if crop.Stage == domain.StageHarvested {
		advisoryType = domain.AdvisoryStorageRisk
	}

	key, args := templateFor(a, crop, w)
	tpl := lookup(lang, key)

	return domain.Advisory{
		Type:     advisoryType,
		Severity: SeverityForLevel(a.Level),
		Title:    tpl.Title,
		Message:  printer.Sprintf(tpl.Message, args...),
		Actions:  tpl.Actions,
		Conditions: map[string]float64{
			"temperature":   w.Temperature,
			"humidity":      w.Humidity,
			"rainfall_mm":   w.RainfallMm,
			"wind_speed_ms": w.WindSpeedMs,
			"score":         float64(a.Score),
		},
	}
}

// templateFor picks the catalog key and interpolation arguments for the
// assessment's primary threat.
func templateFor(a domain.RiskAssessment, crop domain.CropBatchState, w domain.WeatherReading) (string, []any) {
	switch domain.FactorType(a.PrimaryThreat) {
	case domain.FactorHumidity:
		return keyHumidity, []any{w.Humidity}
	case domain.FactorTemperature:
		return keyTemperature, []any{w.Temperature}
	case domain.FactorRainfall:
		return keyRainfall, []any{w.RainfallMm}
	case domain.FactorWind:
		return keyWind, []any{w.WindSpeedMs}
	case domain.FactorStorage:
		return keyStorage, []any{a.Score}
	case domain.FactorHarvestTiming:
		days := 0
		if d := domain.DaysUntilHarvest(crop.ExpectedHarvestDate); d != nil {
			days = *d
		}
		return keyHarvestTiming, []any{days}
	default:
		return keyGeneralRisk, []any{a.Score}
	}
}

// FromUrgentRisk synthesizes the area-wide weather advisory for the single
// most urgent risk.
func FromUrgentRisk(u domain.UrgentRisk, lang language.Tag) domain.Advisory {
	printer := message.NewPrinter(lang)

	var key string
	switch u.Type {
	case domain.UrgentRain:
		key = keyUrgentRain
	case domain.UrgentHeat:
		key = keyUrgentHeat
	case domain.UrgentWind:
		key = keyUrgentWind
	default:
		key = keyUrgentHumid
	}
	tpl := lookup(lang, key)

	return domain.Advisory{
		Type:       domain.AdvisoryWeatherAlert,
		Severity:   u.Severity,
		Title:      tpl.Title,
		Message:    printer.Sprintf(tpl.Message, u.Value),
		Actions:    tpl.Actions,
		Conditions: map[string]float64{string(u.Type): u.Value},
	}
}

// HarvestReminder synthesizes the reminder for a growing crop at one of the
// fixed reminder offsets. Closer reminders escalate: 7 days out is
// informational, 3 days is a normal alert, 1 day interrupts.
func HarvestReminder(crop domain.CropBatchState, daysOut int, lang language.Tag) domain.Advisory {
	printer := message.NewPrinter(lang)
	tpl := lookup(lang, keyHarvestSoon)

	severity := domain.SeverityMedium
	switch {
	case daysOut <= 1:
		severity = domain.SeverityHigh
	case daysOut >= 7:
		severity = domain.SeverityLow
	}

	name := crop.CropName
	if name == "" {
		name = defaultCropName(lang)
	}

	return domain.Advisory{
		Type:       domain.AdvisoryHarvestReminder,
		Severity:   severity,
		Title:      tpl.Title,
		Message:    printer.Sprintf(tpl.Message, name, daysOut),
		Actions:    tpl.Actions,
		Conditions: map[string]float64{"days_until_harvest": float64(daysOut)},
	}
}

func defaultCropName(lang language.Tag) string {
	if base, _ := lang.Base(); base.String() == "bn" {
		return "ফসল"
	}
	return "crop"
}
