// Command assess scores a weather-and-crops fixture offline and prints the
// resulting assessments and advisories. It runs the same pure evaluation
// path as the service, with a frozen clock so harvest-date math is
// reproducible.
//
// Usage:
//
//	go run ./cmd/assess -input fixture.json -lang bn -now 2026-08-30T12:00:00Z
//
// The fixture holds a weather reading and a list of crop batches:
//
//	{
//	  "weather": {"temperature": 36, "humidity": 88, "rainfall_mm": 40, "wind_speed_ms": 9},
//	  "crops": [{"id": "c1", "crop_name": "rice", "stage": "harvested", "storage_method": "jute_bag"}]
//	}
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/language"

	"github.com/agrisafe/crop-risk-advisory/internal/domain"
	"github.com/agrisafe/crop-risk-advisory/internal/engine"
	"github.com/agrisafe/crop-risk-advisory/internal/risk"
)

type fixture struct {
	Weather *domain.WeatherReading  `json:"weather"`
	Crops   []domain.CropBatchState `json:"crops"`
}

func main() {
	input := flag.String("input", "", "path to weather-and-crops JSON fixture")
	langFlag := flag.String("lang", "en", "advisory language tag (e.g. en, bn)")
	nowFlag := flag.String("now", "", "evaluation time, RFC3339 (default: current time)")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(1)
	}

	lang, err := language.Parse(*langFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: invalid -lang %q: %v\n", *langFlag, err)
		os.Exit(1)
	}

	if *nowFlag != "" {
		now, err := time.Parse(time.RFC3339, *nowFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: invalid -now: %v\n", err)
			os.Exit(1)
		}
		domain.SetClock(clockwork.NewFakeClockAt(now))
		defer domain.SetClock(nil)
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read fixture: %v\n", err)
		os.Exit(1)
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse fixture: %v\n", err)
		os.Exit(1)
	}

	run(fx, lang)
}

func run(fx fixture, lang language.Tag) {
	fmt.Println("=== Crop Risk Assessment ===")
	fmt.Println()

	if fx.Weather != nil {
		w := fx.Weather.Sanitized()
		fmt.Printf("Weather: %.1f°C, %.0f%% humidity, %.1fmm rain, %.1fm/s wind",
			w.Temperature, w.Humidity, w.RainfallMm, w.WindSpeedMs)
		if w.RainChance != nil {
			fmt.Printf(", %.0f%% rain chance", *w.RainChance)
		}
		fmt.Println()
	} else {
		fmt.Println("Weather: none (assessments degrade to medium)")
	}
	fmt.Println()

	assessments := make([]domain.RiskAssessment, 0, len(fx.Crops))
	for _, crop := range fx.Crops {
		a := risk.AssessCrop(&crop, fx.Weather)
		assessments = append(assessments, a)

		name := crop.CropName
		if name == "" {
			name = crop.ID
		}
		fmt.Printf("  %-16s %-10s score=%-3d level=%-8s threat=%s\n",
			name, crop.Stage, a.Score, a.Level, a.PrimaryThreat)
		for _, f := range a.Factors {
			fmt.Printf("    %-20s severity=%d\n", f.Type, f.Severity)
		}
	}

	fmt.Println()
	fmt.Printf("Overall risk: %s\n", risk.OverallRisk(assessments))

	if urgent := risk.MostUrgentRisk(fx.Weather); urgent != nil {
		fmt.Printf("Urgent risk:  %s (%s, value=%.1f)\n", urgent.Type, urgent.Severity, urgent.Value)
	} else {
		fmt.Println("Urgent risk:  none")
	}

	advisories := engine.Evaluate(fx.Weather, fx.Crops, lang)
	fmt.Println()
	fmt.Printf("Advisories (%d):\n", len(advisories))
	for _, adv := range advisories {
		fmt.Printf("  [%s/%s] %s\n", adv.Type, adv.Severity, adv.Title)
		fmt.Printf("      %s\n", adv.Message)
		for _, action := range adv.Actions {
			fmt.Printf("      - %s\n", action)
		}
	}
}
