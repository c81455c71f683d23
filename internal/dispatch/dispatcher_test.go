package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/agrisafe/crop-risk-advisory/internal/domain"
	"github.com/agrisafe/crop-risk-advisory/internal/observability"
	"github.com/agrisafe/crop-risk-advisory/internal/store"
)

// --- recording stubs ---

type sinkCall struct {
	title, body string
	opts        DeliveryOptions
}

type recordingSink struct {
	mu    sync.Mutex
	calls []sinkCall
	err   error
}

func (r *recordingSink) Deliver(_ context.Context, title, body string, opts DeliveryOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, sinkCall{title: title, body: body, opts: opts})
	return nil
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingSink) last() sinkCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

type recordingFallback struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (r *recordingFallback) DeliverFallback(_ context.Context, title, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sinkCall{title: title, body: body})
	return nil
}

func (r *recordingFallback) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

type staticCrops struct {
	mu      sync.Mutex
	batches []domain.CropBatchState
	fetches int
}

func (s *staticCrops) FetchCropBatches(_ context.Context, _ string) ([]domain.CropBatchState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	return s.batches, nil
}

func (s *staticCrops) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

// --- helpers ---

const testDelay = 5 * time.Minute

func newTestDispatcher(t *testing.T) (*Dispatcher, *recordingSink, *recordingFallback, *clockwork.FakeClock) {
	t.Helper()

	fc := clockwork.NewFakeClockAt(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fc)
	t.Cleanup(func() { domain.SetClock(nil) })

	sessions := NewSessions(store.NewMemoryStore(), slog.Default(), 50, 24*time.Hour, 100)
	primary := &recordingSink{}
	fallback := &recordingFallback{}
	metrics := observability.NewMetricsForTesting()

	d := New(sessions, primary, fallback, fc, testDelay, slog.Default(), metrics)
	return d, primary, fallback, fc
}

func highAdvisory(title string) domain.Advisory {
	return domain.Advisory{
		Type:     domain.AdvisoryWeatherAlert,
		Severity: domain.SeverityHigh,
		Title:    title,
		Message:  "take cover",
	}
}

func mediumAdvisory(title string) domain.Advisory {
	return domain.Advisory{
		Type:     domain.AdvisoryStorageRisk,
		Severity: domain.SeverityMedium,
		Title:    title,
		Message:  "check storage",
	}
}

// --- tests ---

func TestDispatch_HighSeverityDeliversImmediately(t *testing.T) {
	d, primary, fallback, _ := newTestDispatcher(t)

	d.Dispatch(context.Background(), []domain.Advisory{highAdvisory("Rain expected")}, "farmer-1")

	require.Equal(t, 1, primary.count())
	assert.True(t, primary.last().opts.RequireInteraction)
	assert.Equal(t, "Rain expected", primary.last().title)
	assert.Zero(t, fallback.count())
}

func TestDispatch_DedupByAdvisoryKey(t *testing.T) {
	d, primary, _, _ := newTestDispatcher(t)
	adv := highAdvisory("Rain expected")

	d.Dispatch(context.Background(), []domain.Advisory{adv}, "farmer-1")
	d.Dispatch(context.Background(), []domain.Advisory{adv}, "farmer-1")

	assert.Equal(t, 1, primary.count(), "second dispatch is a silent no-op")
}

func TestDispatch_DedupIsPerFarmer(t *testing.T) {
	d, primary, _, _ := newTestDispatcher(t)
	adv := highAdvisory("Rain expected")

	d.Dispatch(context.Background(), []domain.Advisory{adv}, "farmer-1")
	d.Dispatch(context.Background(), []domain.Advisory{adv}, "farmer-2")

	assert.Equal(t, 2, primary.count())
}

func TestDispatch_MediumSeverityIsDelayed(t *testing.T) {
	d, primary, _, fc := newTestDispatcher(t)

	d.Dispatch(context.Background(), []domain.Advisory{mediumAdvisory("Humidity rising")}, "farmer-1")

	assert.Zero(t, primary.count(), "not delivered synchronously")

	fc.Advance(testDelay)
	require.Eventually(t, func() bool { return primary.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, primary.last().opts.RequireInteraction)
}

func TestDispatch_DelayedAlertStillBlocksDuplicates(t *testing.T) {
	d, primary, _, fc := newTestDispatcher(t)
	adv := mediumAdvisory("Humidity rising")

	d.Dispatch(context.Background(), []domain.Advisory{adv}, "farmer-1")
	d.Dispatch(context.Background(), []domain.Advisory{adv}, "farmer-1")

	fc.Advance(testDelay)
	require.Eventually(t, func() bool { return primary.count() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, primary.count(), "queued-but-undelivered key already dedups")
}

func TestDispatch_LowSeverityUsesFallbackOnly(t *testing.T) {
	d, primary, fallback, _ := newTestDispatcher(t)
	adv := domain.Advisory{
		Type:     domain.AdvisoryWeatherAlert,
		Severity: domain.SeverityLow,
		Title:    "Warm day",
		Message:  "nothing urgent",
	}

	d.Dispatch(context.Background(), []domain.Advisory{adv}, "farmer-1")

	assert.Zero(t, primary.count())
	assert.Equal(t, 1, fallback.count())
}

func TestDispatch_PrimaryFailureFallsBack(t *testing.T) {
	d, primary, fallback, _ := newTestDispatcher(t)
	primary.err = errors.New("permission denied")

	d.Dispatch(context.Background(), []domain.Advisory{highAdvisory("Rain expected")}, "farmer-1")

	require.Equal(t, 1, fallback.count())
	assert.Equal(t, "Rain expected", fallback.calls[0].title, "same title on the fallback channel")
}

func TestDispatch_MutedCategoryShortCircuits(t *testing.T) {
	d, primary, fallback, _ := newTestDispatcher(t)
	sess := d.sessions.Get("farmer-1")
	sess.SetPreferences(domain.Preferences{MuteWeatherAdvisories: true})

	adv := highAdvisory("Rain expected")
	d.Dispatch(context.Background(), []domain.Advisory{adv}, "farmer-1")

	assert.Zero(t, primary.count())
	assert.Zero(t, fallback.count())

	// The mute check runs before dedup: unmuting lets the same advisory out.
	sess.SetPreferences(domain.Preferences{})
	d.Dispatch(context.Background(), []domain.Advisory{adv}, "farmer-1")
	assert.Equal(t, 1, primary.count())
}

func TestDispatch_OfflineQueuesAndDrainsOnReconnect(t *testing.T) {
	d, primary, _, fc := newTestDispatcher(t)
	d.SetOnline(false)

	d.Dispatch(context.Background(), []domain.Advisory{highAdvisory("Rain expected")}, "farmer-1")
	assert.Zero(t, primary.count())

	fc.Advance(time.Hour)
	d.SetOnline(true)

	require.Equal(t, 1, primary.count())
	assert.True(t, primary.last().opts.RequireInteraction)
}

func TestDispatch_StaleQueuedEntryNeverDelivered(t *testing.T) {
	d, primary, fallback, fc := newTestDispatcher(t)
	d.SetOnline(false)

	d.Dispatch(context.Background(), []domain.Advisory{highAdvisory("Rain expected")}, "farmer-1")

	fc.Advance(25 * time.Hour)
	d.SetOnline(true)

	assert.Zero(t, primary.count())
	assert.Zero(t, fallback.count())
}

func TestScheduleHarvestReminders_ExactOffsetsFireOnce(t *testing.T) {
	d, primary, fallback, fc := newTestDispatcher(t)
	now := fc.Now()

	in7 := now.AddDate(0, 0, 7)
	in5 := now.AddDate(0, 0, 5)
	in1 := now.AddDate(0, 0, 1)
	crops := []domain.CropBatchState{
		{ID: "c7", CropName: "rice", Stage: domain.StageGrowing, ExpectedHarvestDate: &in7},
		{ID: "c5", CropName: "jute", Stage: domain.StageGrowing, ExpectedHarvestDate: &in5},
		{ID: "c1", CropName: "maize", Stage: domain.StageGrowing, ExpectedHarvestDate: &in1},
		{ID: "h1", Stage: domain.StageHarvested, StorageMethod: domain.StorageSilo},
	}

	d.ScheduleHarvestReminders(context.Background(), "farmer-1", crops, language.English)

	// 1 day out → high → primary; 7 days out → low → fallback; 5 days → nothing.
	assert.Equal(t, 1, primary.count())
	assert.Equal(t, 1, fallback.count())

	// Same cycle repeated: every (crop, daysOut) pair fires at most once.
	d.ScheduleHarvestReminders(context.Background(), "farmer-1", crops, language.English)
	assert.Equal(t, 1, primary.count())
	assert.Equal(t, 1, fallback.count())
}

func TestScheduleHarvestReminders_TwoCropsSameDayBothRemind(t *testing.T) {
	d, primary, _, fc := newTestDispatcher(t)
	in1 := fc.Now().AddDate(0, 0, 1)
	crops := []domain.CropBatchState{
		{ID: "a", CropName: "rice", Stage: domain.StageGrowing, ExpectedHarvestDate: &in1},
		{ID: "b", CropName: "rice", Stage: domain.StageGrowing, ExpectedHarvestDate: &in1},
	}

	d.ScheduleHarvestReminders(context.Background(), "farmer-1", crops, language.English)

	assert.Equal(t, 2, primary.count(), "reminder set is keyed by crop, not advisory identity")
}

func TestReminderPoll_RestartCancelsPrevious(t *testing.T) {
	d, _, _, fc := newTestDispatcher(t)
	crops := &staticCrops{}

	d.StartReminderPoll(context.Background(), 24*time.Hour, []string{"farmer-1"}, crops, language.English)
	fc.BlockUntil(1)

	// Restarting replaces the first loop rather than stacking a second one.
	// Give the cancelled loop a moment to unregister its ticker before
	// advancing, so only the replacement's ticker fires.
	d.StartReminderPoll(context.Background(), 24*time.Hour, []string{"farmer-1"}, crops, language.English)
	time.Sleep(50 * time.Millisecond)
	fc.BlockUntil(1)

	fc.Advance(24 * time.Hour)
	require.Eventually(t, func() bool { return crops.fetchCount() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, crops.fetchCount(), "only the replacement loop polls")

	d.StopReminderPoll()
}

func TestSessionState_SurvivesRestart(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	domain.SetClock(fc)
	t.Cleanup(func() { domain.SetClock(nil) })

	st := store.NewMemoryStore()
	metrics := observability.NewMetricsForTesting()

	sessions := NewSessions(st, slog.Default(), 50, 24*time.Hour, 100)
	primary := &recordingSink{}
	d := New(sessions, primary, &recordingFallback{}, fc, testDelay, slog.Default(), metrics)
	d.Dispatch(context.Background(), []domain.Advisory{highAdvisory("Rain expected")}, "farmer-1")
	require.Equal(t, 1, primary.count())

	// New registry over the same store simulates an app restart.
	sessions2 := NewSessions(st, slog.Default(), 50, 24*time.Hour, 100)
	primary2 := &recordingSink{}
	d2 := New(sessions2, primary2, &recordingFallback{}, fc, testDelay, slog.Default(), observability.NewMetricsForTesting())
	d2.Dispatch(context.Background(), []domain.Advisory{highAdvisory("Rain expected")}, "farmer-1")

	assert.Zero(t, primary2.count(), "notified keys persist across sessions")
}
