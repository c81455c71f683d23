package dispatch

import (
	"time"

	"github.com/google/uuid"

	"github.com/agrisafe/crop-risk-advisory/internal/domain"
)

// Offline queue bounds. The cap evicts oldest-first; entries older than the
// max age are discarded silently on drain, never delivered.
const (
	DefaultQueueMaxEntries = 50
	DefaultQueueMaxAge     = 24 * time.Hour
)

// OfflineQueue holds pending notifications while the device is offline or a
// delayed alert has not fired yet. Not safe for concurrent use on its own;
// the owning session serializes access.
type OfflineQueue struct {
	entries    []domain.PendingNotification
	maxEntries int
	maxAge     time.Duration
}

// NewOfflineQueue creates a queue with the given bounds; non-positive
// values fall back to the defaults.
func NewOfflineQueue(maxEntries int, maxAge time.Duration) *OfflineQueue {
	if maxEntries <= 0 {
		maxEntries = DefaultQueueMaxEntries
	}
	if maxAge <= 0 {
		maxAge = DefaultQueueMaxAge
	}
	return &OfflineQueue{maxEntries: maxEntries, maxAge: maxAge}
}

// Restore replaces the queue contents from persisted state.
func (q *OfflineQueue) Restore(entries []domain.PendingNotification) {
	q.entries = append(q.entries[:0], entries...)
}

// Entries returns a copy of the queue for persistence.
func (q *OfflineQueue) Entries() []domain.PendingNotification {
	out := make([]domain.PendingNotification, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of queued entries.
func (q *OfflineQueue) Len() int {
	return len(q.entries)
}

// Enqueue appends an entry, evicting oldest-first past the cap. Returns the
// number of evicted entries.
func (q *OfflineQueue) Enqueue(n domain.PendingNotification) int {
	q.entries = append(q.entries, n)

	evicted := 0
	if over := len(q.entries) - q.maxEntries; over > 0 {
		q.entries = q.entries[over:]
		evicted = over
	}
	return evicted
}

// DrainDue removes and returns every entry due for delivery at now, marked
// delivered. Entries older than the max age are dropped silently and
// counted in stale. Entries already delivered are pruned without being
// returned, making repeated drains idempotent. Entries scheduled for later
// stay queued.
func (q *OfflineQueue) DrainDue(now time.Time) (due []domain.PendingNotification, stale int) {
	kept := q.entries[:0]
	for _, e := range q.entries {
		switch {
		case e.Delivered:
			// prune
		case now.Sub(e.CreatedAt) > q.maxAge:
			stale++
		case e.ScheduledFor.After(now):
			kept = append(kept, e)
		default:
			e.Delivered = true
			due = append(due, e)
		}
	}
	q.entries = kept
	return due, stale
}

// newPendingNotification builds a queue entry for an advisory.
func newPendingNotification(adv domain.Advisory, scheduledFor, createdAt time.Time, requireInteraction bool) domain.PendingNotification {
	return domain.PendingNotification{
		ID:                 uuid.NewString(),
		Type:               adv.Type,
		Key:                adv.Key(),
		ScheduledFor:       scheduledFor,
		Payload:            domain.NotificationPayload{Title: adv.Title, Message: adv.Message},
		RequireInteraction: requireInteraction,
		CreatedAt:          createdAt,
	}
}

// SyncQueue holds pending create/update/delete actions awaiting replay
// against the backend. The queue itself never caps retries; the dispatcher
// decides cadence. Not safe for concurrent use on its own.
type SyncQueue struct {
	actions []domain.PendingAction
}

// Restore replaces the queue contents from persisted state.
func (q *SyncQueue) Restore(actions []domain.PendingAction) {
	q.actions = append(q.actions[:0], actions...)
}

// Actions returns a copy of the pending actions.
func (q *SyncQueue) Actions() []domain.PendingAction {
	out := make([]domain.PendingAction, len(q.actions))
	copy(out, q.actions)
	return out
}

// Enqueue appends a new pending action and returns it.
func (q *SyncQueue) Enqueue(kind string, payload []byte, createdAt time.Time) domain.PendingAction {
	action := domain.PendingAction{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   payload,
		CreatedAt: createdAt,
	}
	q.actions = append(q.actions, action)
	return action
}

// RecordFailure increments the retry counter and stores the error text for
// the action. Unknown IDs are ignored.
func (q *SyncQueue) RecordFailure(id string, err error) {
	for i := range q.actions {
		if q.actions[i].ID == id {
			q.actions[i].RetryCount++
			if err != nil {
				q.actions[i].LastError = err.Error()
			}
			return
		}
	}
}

// Remove deletes a successfully replayed action.
func (q *SyncQueue) Remove(id string) {
	for i := range q.actions {
		if q.actions[i].ID == id {
			q.actions = append(q.actions[:i], q.actions[i+1:]...)
			return
		}
	}
}
