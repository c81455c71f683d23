// Package dispatch decides whether, when, and through which channel a
// synthesized advisory reaches the farmer. It owns deduplication, the
// medium-severity delay, per-category preferences, channel fallback, the
// offline queue, and harvest reminders.
//
// All mutable state is scoped per farmer (see Session); delivery channels
// are injected so tests substitute recording stubs.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/language"

	"github.com/agrisafe/crop-risk-advisory/internal/advisory"
	"github.com/agrisafe/crop-risk-advisory/internal/domain"
	"github.com/agrisafe/crop-risk-advisory/internal/observability"
)

// DefaultMediumDelay is how long a medium-severity alert waits before
// delivery, giving transient conditions a chance to clear.
const DefaultMediumDelay = 5 * time.Minute

// Harvest reminders fire at exactly these days before the expected date.
var reminderOffsets = []int{7, 3, 1}

// DeliveryOptions carries channel hints for an interactive delivery.
type DeliveryOptions struct {
	RequireInteraction bool
	Tag                string
}

// Sink is the primary interactive delivery channel. It may fail.
type Sink interface {
	Deliver(ctx context.Context, title, body string, opts DeliveryOptions) error
}

// FallbackSink is the secondary informational channel, expected to always
// succeed (e.g. an in-app toast).
type FallbackSink interface {
	DeliverFallback(ctx context.Context, title, body string) error
}

// EventPublisher receives a copy of every delivered advisory, e.g. for an
// analytics stream. Optional.
type EventPublisher interface {
	Publish(ctx context.Context, farmerID string, adv domain.Advisory) error
}

// CropSource supplies crop batches for the reminder poll.
type CropSource interface {
	FetchCropBatches(ctx context.Context, farmerID string) ([]domain.CropBatchState, error)
}

// Dispatcher routes advisories to delivery channels with dedup, delay, and
// offline queueing. Delivery is best-effort by design: no error from a
// channel ever reaches the evaluation pipeline.
type Dispatcher struct {
	sessions    *Sessions
	primary     Sink
	fallback    FallbackSink
	events      EventPublisher
	clock       clockwork.Clock
	mediumDelay time.Duration
	logger      *slog.Logger
	metrics     *observability.Metrics

	online atomic.Bool

	pollMu     sync.Mutex
	pollCancel context.CancelFunc
}

// New creates a Dispatcher. The dispatcher starts online.
func New(sessions *Sessions, primary Sink, fallback FallbackSink, clock clockwork.Clock, mediumDelay time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Dispatcher {
	if mediumDelay <= 0 {
		mediumDelay = DefaultMediumDelay
	}
	d := &Dispatcher{
		sessions:    sessions,
		primary:     primary,
		fallback:    fallback,
		clock:       clock,
		mediumDelay: mediumDelay,
		logger:      logger,
		metrics:     metrics,
	}
	d.online.Store(true)
	return d
}

// SetEventPublisher attaches an optional publisher for delivered advisories.
func (d *Dispatcher) SetEventPublisher(p EventPublisher) {
	d.events = p
}

// Dispatch routes a batch of advisories for one farmer. Each advisory runs
// through preference opt-outs, then dedup, then severity routing.
func (d *Dispatcher) Dispatch(ctx context.Context, advisories []domain.Advisory, farmerID string) {
	sess := d.sessions.Get(farmerID)

	for _, adv := range advisories {
		if !sess.Preferences().Enabled(domain.CategoryOf(adv.Type)) {
			d.metrics.NotificationsMuted.Inc()
			continue
		}
		d.dispatchOne(ctx, sess, adv)
	}
}

// dispatchOne applies dedup and routes a single advisory. The key enters
// the notified-set at scheduling time, not at completion, so a delayed or
// queued alert already blocks duplicates.
func (d *Dispatcher) dispatchOne(ctx context.Context, sess *Session, adv domain.Advisory) {
	key := adv.Key()

	sess.mu.Lock()
	if sess.notified.contains(key) {
		sess.mu.Unlock()
		d.metrics.NotificationsDeduped.Inc()
		d.logger.Debug("advisory suppressed by dedup", "farmer_id", sess.farmerID, "key", key)
		return
	}
	sess.notified.add(key)
	sess.persistLocked()
	sess.mu.Unlock()

	d.route(ctx, sess, adv)
}

// route applies severity routing for an advisory that already passed
// preference and dedup checks.
func (d *Dispatcher) route(ctx context.Context, sess *Session, adv domain.Advisory) {
	if !d.online.Load() {
		d.enqueue(sess, adv)
		return
	}

	switch adv.Severity {
	case domain.SeverityHigh:
		d.deliverNow(ctx, sess.farmerID, adv, true)
	case domain.SeverityMedium:
		d.scheduleDelayed(sess, adv)
	default:
		// Informational: fallback channel only.
		d.deliverFallback(ctx, sess.farmerID, adv.Title, adv.Message)
		d.publish(ctx, sess.farmerID, adv)
	}
}

// scheduleDelayed fires the advisory after the medium delay without
// blocking the caller. If connectivity drops before the timer fires, the
// advisory lands on the offline queue instead.
func (d *Dispatcher) scheduleDelayed(sess *Session, adv domain.Advisory) {
	d.clock.AfterFunc(d.mediumDelay, func() {
		if !d.online.Load() {
			d.enqueue(sess, adv)
			return
		}
		d.deliverNow(context.Background(), sess.farmerID, adv, false)
	})
}

// enqueue places the advisory on the farmer's offline queue. Medium
// severity keeps its delay through ScheduledFor.
func (d *Dispatcher) enqueue(sess *Session, adv domain.Advisory) {
	now := d.clock.Now()
	scheduledFor := now
	if adv.Severity == domain.SeverityMedium {
		scheduledFor = now.Add(d.mediumDelay)
	}
	entry := newPendingNotification(adv, scheduledFor, now, adv.Severity == domain.SeverityHigh)

	sess.mu.Lock()
	evicted := sess.queue.Enqueue(entry)
	sess.persistLocked()
	sess.mu.Unlock()

	d.metrics.NotificationsQueued.Inc()
	d.metrics.QueueDepth.Add(1)
	if evicted > 0 {
		d.metrics.QueueEvictions.Add(float64(evicted))
		d.metrics.QueueDepth.Sub(float64(evicted))
	}
}

// deliverNow attempts the primary interactive channel and degrades to the
// fallback on any failure. Errors are logged, never surfaced.
func (d *Dispatcher) deliverNow(ctx context.Context, farmerID string, adv domain.Advisory, requireInteraction bool) {
	opts := DeliveryOptions{RequireInteraction: requireInteraction, Tag: adv.Key()}
	if err := d.primary.Deliver(ctx, adv.Title, adv.Message, opts); err != nil {
		d.logger.Warn("primary delivery failed, using fallback",
			"farmer_id", farmerID, "key", adv.Key(), "error", err)
		d.deliverFallback(ctx, farmerID, adv.Title, adv.Message)
	} else {
		d.metrics.NotificationsDelivered.WithLabelValues("primary").Inc()
	}
	d.publish(ctx, farmerID, adv)
}

func (d *Dispatcher) deliverFallback(ctx context.Context, farmerID, title, body string) {
	if err := d.fallback.DeliverFallback(ctx, title, body); err != nil {
		d.logger.Error("fallback delivery failed", "farmer_id", farmerID, "error", err)
		return
	}
	d.metrics.NotificationsDelivered.WithLabelValues("fallback").Inc()
}

func (d *Dispatcher) publish(ctx context.Context, farmerID string, adv domain.Advisory) {
	if d.events == nil {
		return
	}
	if err := d.events.Publish(ctx, farmerID, adv); err != nil {
		d.logger.Warn("advisory event publish failed", "farmer_id", farmerID, "error", err)
	}
}

// SetOnline flips connectivity. Coming online drains every materialized
// session's queue.
func (d *Dispatcher) SetOnline(online bool) {
	was := d.online.Swap(online)
	if online && !was {
		d.drainAll(context.Background())
	}
}

// Online reports current connectivity.
func (d *Dispatcher) Online() bool {
	return d.online.Load()
}

// drainAll replays due queued notifications for every session, dropping
// stale entries silently.
func (d *Dispatcher) drainAll(ctx context.Context) {
	now := d.clock.Now()
	for _, sess := range d.sessions.All() {
		sess.mu.Lock()
		due, stale := sess.queue.DrainDue(now)
		sess.persistLocked()
		sess.mu.Unlock()

		d.metrics.QueueDepth.Sub(float64(len(due) + stale))
		if stale > 0 {
			d.metrics.QueueStaleDropped.Add(float64(stale))
			d.logger.Info("dropped stale queued notifications",
				"farmer_id", sess.farmerID, "count", stale)
		}

		for _, entry := range due {
			opts := DeliveryOptions{RequireInteraction: entry.RequireInteraction, Tag: entry.Key}
			if err := d.primary.Deliver(ctx, entry.Payload.Title, entry.Payload.Message, opts); err != nil {
				d.logger.Warn("queued delivery failed, using fallback",
					"farmer_id", sess.farmerID, "id", entry.ID, "error", err)
				d.deliverFallback(ctx, sess.farmerID, entry.Payload.Title, entry.Payload.Message)
				continue
			}
			d.metrics.NotificationsDelivered.WithLabelValues("primary").Inc()
		}
	}
}

// ScheduleHarvestReminders dispatches reminders for growing crops whose
// expected harvest is exactly 7, 3, or 1 days away. Each (crop, daysOut)
// pair fires at most once, tracked in the session's persisted reminder set
// independently of the advisory notified-set (two crops harvesting the same
// day must both remind).
func (d *Dispatcher) ScheduleHarvestReminders(ctx context.Context, farmerID string, crops []domain.CropBatchState, lang language.Tag) {
	sess := d.sessions.Get(farmerID)

	if !sess.Preferences().Enabled(domain.CategoryHarvestReminder) {
		return
	}

	for _, crop := range crops {
		if crop.Stage != domain.StageGrowing {
			continue
		}
		days := domain.DaysUntilHarvest(crop.ExpectedHarvestDate)
		if days == nil {
			continue
		}

		for _, offset := range reminderOffsets {
			if *days != offset {
				continue
			}
			key := fmt.Sprintf("%s-%d", crop.ID, offset)

			sess.mu.Lock()
			if _, fired := sess.reminders[key]; fired {
				sess.mu.Unlock()
				continue
			}
			sess.reminders[key] = struct{}{}
			sess.persistLocked()
			sess.mu.Unlock()

			d.route(ctx, sess, advisory.HarvestReminder(crop, offset, lang))
			d.metrics.RemindersSent.Inc()
		}
	}
}

// StartReminderPoll begins a periodic reminder check for the given farmers.
// Starting a new poll cancels any previous one so duplicate timers cannot
// accumulate; an in-flight check is allowed to finish (best effort).
func (d *Dispatcher) StartReminderPoll(ctx context.Context, interval time.Duration, farmerIDs []string, crops CropSource, lang language.Tag) {
	d.pollMu.Lock()
	if d.pollCancel != nil {
		d.pollCancel()
	}
	pollCtx, cancel := context.WithCancel(ctx)
	d.pollCancel = cancel
	d.pollMu.Unlock()

	go d.pollLoop(pollCtx, interval, farmerIDs, crops, lang)
}

// StopReminderPoll cancels the active poll loop, if any.
func (d *Dispatcher) StopReminderPoll() {
	d.pollMu.Lock()
	defer d.pollMu.Unlock()
	if d.pollCancel != nil {
		d.pollCancel()
		d.pollCancel = nil
	}
}

func (d *Dispatcher) pollLoop(ctx context.Context, interval time.Duration, farmerIDs []string, crops CropSource, lang language.Tag) {
	ticker := d.clock.NewTicker(interval)
	defer ticker.Stop()

	d.logger.Info("harvest reminder poll started", "interval", interval, "farmers", len(farmerIDs))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("harvest reminder poll stopped", "reason", ctx.Err())
			return
		case <-ticker.Chan():
			for _, farmerID := range farmerIDs {
				batches, err := crops.FetchCropBatches(ctx, farmerID)
				if err != nil {
					d.logger.Warn("crop fetch failed, skipping reminder check",
						"farmer_id", farmerID, "error", err)
					continue
				}
				d.ScheduleHarvestReminders(ctx, farmerID, batches, lang)
			}
		}
	}
}

// EnqueueSyncAction records a create/update/delete made while offline for
// later replay.
func (d *Dispatcher) EnqueueSyncAction(farmerID, kind string, payload []byte) domain.PendingAction {
	sess := d.sessions.Get(farmerID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	action := sess.syncQueue.Enqueue(kind, payload, d.clock.Now())
	sess.persistLocked()
	return action
}

// RecordSyncFailure increments the action's retry counter with the error
// text. Retries are unbounded here; the caller decides cadence.
func (d *Dispatcher) RecordSyncFailure(farmerID, actionID string, err error) {
	sess := d.sessions.Get(farmerID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.syncQueue.RecordFailure(actionID, err)
	sess.persistLocked()
	d.metrics.SyncRetries.Inc()
}

// CompleteSyncAction removes a successfully replayed action.
func (d *Dispatcher) CompleteSyncAction(farmerID, actionID string) {
	sess := d.sessions.Get(farmerID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.syncQueue.Remove(actionID)
	sess.persistLocked()
}

// PendingSyncActions returns the farmer's queued sync actions.
func (d *Dispatcher) PendingSyncActions(farmerID string) []domain.PendingAction {
	sess := d.sessions.Get(farmerID)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.syncQueue.Actions()
}
