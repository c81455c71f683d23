package engine

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/agrisafe/crop-risk-advisory/internal/dispatch"
	"github.com/agrisafe/crop-risk-advisory/internal/domain"
	"github.com/agrisafe/crop-risk-advisory/internal/observability"
	"github.com/agrisafe/crop-risk-advisory/internal/store"
)

func idealWeather() *domain.WeatherReading {
	return &domain.WeatherReading{
		Temperature: 25,
		Humidity:    50,
		RainfallMm:  0,
		WindSpeedMs: 3,
		Timestamp:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestEvaluate_NilWeatherProducesNothing(t *testing.T) {
	crops := []domain.CropBatchState{{ID: "c1", Stage: domain.StageHarvested, StorageMethod: domain.StorageOpenSpace}}

	advisories := Evaluate(nil, crops, language.English)

	assert.Empty(t, advisories)
}

func TestEvaluate_IdealConditionsProduceNothing(t *testing.T) {
	crops := []domain.CropBatchState{{ID: "c1", Stage: domain.StageHarvested, StorageMethod: domain.StorageSilo}}

	advisories := Evaluate(idealWeather(), crops, language.English)

	assert.Empty(t, advisories)
}

func TestEvaluate_SevereHumidityYieldsStorageAdvisoryAndAlert(t *testing.T) {
	weather := idealWeather()
	weather.Humidity = 95
	crops := []domain.CropBatchState{{ID: "c1", CropName: "rice", Stage: domain.StageHarvested, StorageMethod: domain.StorageOpenSpace}}

	advisories := Evaluate(weather, crops, language.English)

	require.Len(t, advisories, 2)
	assert.Equal(t, domain.AdvisoryStorageRisk, advisories[0].Type)
	assert.Equal(t, domain.SeverityMedium, advisories[0].Severity, "humidity 95 open_space scores 53")
	assert.Equal(t, domain.AdvisoryWeatherAlert, advisories[1].Type)
	assert.Equal(t, domain.SeverityHigh, advisories[1].Severity)
}

func TestEvaluate_LowRiskCropsAreSkipped(t *testing.T) {
	// Humidity 70 scores 15 points: real but below the Medium cutoff.
	weather := idealWeather()
	weather.Humidity = 70
	crops := []domain.CropBatchState{{ID: "c1", Stage: domain.StageGrowing}}

	advisories := Evaluate(weather, crops, language.English)

	assert.Empty(t, advisories)
}

func TestEvaluate_UrgentAlertWithoutCropAdvisory(t *testing.T) {
	// 36° crosses the medium heat tier but only scores 12 points.
	weather := idealWeather()
	weather.Temperature = 36

	advisories := Evaluate(weather, []domain.CropBatchState{{ID: "c1", Stage: domain.StageGrowing}}, language.English)

	require.Len(t, advisories, 1)
	assert.Equal(t, domain.AdvisoryWeatherAlert, advisories[0].Type)
	assert.Equal(t, domain.SeverityMedium, advisories[0].Severity)
}

func TestEvaluate_OneAdvisoryPerRiskyCrop(t *testing.T) {
	weather := idealWeather()
	weather.Humidity = 95
	crops := []domain.CropBatchState{
		{ID: "a", CropName: "rice", Stage: domain.StageHarvested, StorageMethod: domain.StorageOpenSpace},
		{ID: "b", CropName: "jute", Stage: domain.StageHarvested, StorageMethod: domain.StorageJuteBag},
	}

	advisories := Evaluate(weather, crops, language.English)

	require.Len(t, advisories, 3, "two storage advisories plus the weather alert")
	assert.Equal(t, domain.AdvisoryStorageRisk, advisories[0].Type)
	assert.Equal(t, domain.AdvisoryStorageRisk, advisories[1].Type)
	assert.Equal(t, domain.AdvisoryWeatherAlert, advisories[2].Type)
}

// --- orchestration ---

type stubWeather struct {
	reading *domain.WeatherReading
	err     error
}

func (s *stubWeather) FetchWeather(_ context.Context, _ string) (*domain.WeatherReading, error) {
	return s.reading, s.err
}

type stubCrops struct {
	batches []domain.CropBatchState
	err     error
}

func (s *stubCrops) FetchCropBatches(_ context.Context, _ string) ([]domain.CropBatchState, error) {
	return s.batches, s.err
}

type countingSink struct{ delivered int }

func (c *countingSink) Deliver(_ context.Context, _, _ string, _ dispatch.DeliveryOptions) error {
	c.delivered++
	return nil
}

type countingFallback struct{ delivered int }

func (c *countingFallback) DeliverFallback(_ context.Context, _, _ string) error {
	c.delivered++
	return nil
}

func newTestEngine(t *testing.T, weather *stubWeather, crops *stubCrops) (*Engine, *countingSink) {
	t.Helper()

	fc := clockwork.NewFakeClockAt(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fc)
	t.Cleanup(func() { domain.SetClock(nil) })

	sessions := dispatch.NewSessions(store.NewMemoryStore(), slog.Default(), 50, 24*time.Hour, 100)
	sink := &countingSink{}
	d := dispatch.New(sessions, sink, &countingFallback{}, fc, time.Minute, slog.Default(), observability.NewMetricsForTesting())

	e := New(weather, crops, d, language.English, slog.Default(), observability.NewMetricsForTesting())
	return e, sink
}

func TestRunCycle_DispatchesAdvisories(t *testing.T) {
	weather := idealWeather()
	weather.Humidity = 95
	weather.Temperature = 42
	e, sink := newTestEngine(t,
		&stubWeather{reading: weather},
		&stubCrops{batches: []domain.CropBatchState{{ID: "c1", Stage: domain.StageHarvested, StorageMethod: domain.StorageOpenSpace}}},
	)

	err := e.RunCycle(context.Background(), "farmer-1")

	require.NoError(t, err)
	assert.Equal(t, 2, sink.delivered, "high-severity storage advisory and weather alert")
	assert.NoError(t, e.CheckReadiness())
}

func TestRunCycle_WeatherFailureSkipsCycle(t *testing.T) {
	e, sink := newTestEngine(t,
		&stubWeather{err: errors.New("upstream 503")},
		&stubCrops{batches: []domain.CropBatchState{{ID: "c1", Stage: domain.StageGrowing}}},
	)

	err := e.RunCycle(context.Background(), "farmer-1")

	require.Error(t, err)
	assert.Zero(t, sink.delivered)
	assert.ErrorIs(t, e.CheckReadiness(), ErrNotReady)
}

func TestRunCycle_CropFetchFailureSkipsCycle(t *testing.T) {
	e, sink := newTestEngine(t,
		&stubWeather{reading: idealWeather()},
		&stubCrops{err: errors.New("backend unreachable")},
	)

	err := e.RunCycle(context.Background(), "farmer-1")

	require.Error(t, err)
	assert.Zero(t, sink.delivered)
}

func TestCheckReadiness_BeforeFirstCycle(t *testing.T) {
	e, _ := newTestEngine(t, &stubWeather{reading: idealWeather()}, &stubCrops{})

	assert.ErrorIs(t, e.CheckReadiness(), ErrNotReady)
}

func TestRunAll_ContinuesPastFailures(t *testing.T) {
	e, _ := newTestEngine(t, &stubWeather{err: errors.New("down")}, &stubCrops{})

	e.RunAll(context.Background(), []string{"farmer-1", "farmer-2"})

	assert.ErrorIs(t, e.CheckReadiness(), ErrNotReady)
}
