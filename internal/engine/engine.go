// Package engine orchestrates one evaluation cycle: fetch weather and crop
// state, assess risk per crop, synthesize advisories, and hand them to the
// dispatcher. The pure synthesis step is exposed separately from the
// orchestration so it can be exercised without any collaborators.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"

	"github.com/agrisafe/crop-risk-advisory/internal/advisory"
	"github.com/agrisafe/crop-risk-advisory/internal/dispatch"
	"github.com/agrisafe/crop-risk-advisory/internal/domain"
	"github.com/agrisafe/crop-risk-advisory/internal/observability"
	"github.com/agrisafe/crop-risk-advisory/internal/risk"
)

// ErrNotReady is returned by CheckReadiness until the first cycle completes.
var ErrNotReady = errors.New("engine has not completed a cycle yet")

// WeatherFetcher supplies the current weather for a farmer's area.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, farmerID string) (*domain.WeatherReading, error)
}

// CropFetcher supplies the farmer's crop batches.
type CropFetcher interface {
	FetchCropBatches(ctx context.Context, farmerID string) ([]domain.CropBatchState, error)
}

// Evaluate runs the pure assessment-and-synthesis step for one farmer's
// inputs. It returns one advisory per crop whose assessed level is Medium or
// above, plus at most one area-wide weather alert for the most urgent risk.
// Dedup and routing are the dispatcher's job; Evaluate never suppresses.
func Evaluate(weather *domain.WeatherReading, crops []domain.CropBatchState, lang language.Tag) []domain.Advisory {
	var advisories []domain.Advisory

	if weather != nil {
		w := weather.Sanitized()
		for _, crop := range crops {
			a := risk.AssessCrop(&crop, &w)
			if a.Level.Rank() < domain.RiskMedium.Rank() {
				continue
			}
			advisories = append(advisories, advisory.FromAssessment(a, crop, w, lang))
		}
	}

	if urgent := risk.MostUrgentRisk(weather); urgent != nil {
		advisories = append(advisories, advisory.FromUrgentRisk(*urgent, lang))
	}

	return advisories
}

// Engine drives periodic evaluation cycles for a set of farmers.
type Engine struct {
	weather    WeatherFetcher
	crops      CropFetcher
	dispatcher *dispatch.Dispatcher
	lang       language.Tag
	logger     *slog.Logger
	metrics    *observability.Metrics

	ready atomic.Bool
}

// New creates an Engine. The engine is not ready until a cycle completes.
func New(weather WeatherFetcher, crops CropFetcher, dispatcher *dispatch.Dispatcher, lang language.Tag, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		weather:    weather,
		crops:      crops,
		dispatcher: dispatcher,
		lang:       lang,
		logger:     logger,
		metrics:    metrics,
	}
}

// RunCycle executes one full cycle for a farmer. A failed weather or crop
// fetch skips the cycle without dispatching anything; stale advisories are
// worse than late ones.
func (e *Engine) RunCycle(ctx context.Context, farmerID string) error {
	start := time.Now()

	weather, err := e.weather.FetchWeather(ctx, farmerID)
	if err != nil {
		e.metrics.WeatherFetchFailures.Inc()
		return fmt.Errorf("fetch weather for %s: %w", farmerID, err)
	}

	crops, err := e.crops.FetchCropBatches(ctx, farmerID)
	if err != nil {
		return fmt.Errorf("fetch crop batches for %s: %w", farmerID, err)
	}

	advisories := Evaluate(weather, crops, e.lang)
	for _, adv := range advisories {
		e.metrics.AdvisoriesSynthesized.WithLabelValues(string(adv.Severity)).Inc()
	}

	e.dispatcher.Dispatch(ctx, advisories, farmerID)
	e.dispatcher.ScheduleHarvestReminders(ctx, farmerID, crops, e.lang)

	e.ready.Store(true)
	e.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())

	e.logger.Info("evaluation cycle complete",
		"farmer_id", farmerID,
		"crops", len(crops),
		"advisories", len(advisories),
		"duration", time.Since(start))
	return nil
}

// RunAll runs a cycle for every farmer, continuing past per-farmer failures.
func (e *Engine) RunAll(ctx context.Context, farmerIDs []string) {
	for _, farmerID := range farmerIDs {
		if err := e.RunCycle(ctx, farmerID); err != nil {
			e.logger.Error("evaluation cycle failed", "farmer_id", farmerID, "error", err)
		}
	}
}

// CheckReadiness reports whether at least one cycle has completed.
func (e *Engine) CheckReadiness() error {
	if !e.ready.Load() {
		return ErrNotReady
	}
	return nil
}
