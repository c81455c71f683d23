package domain

import (
	"fmt"
	"time"
)

// AdvisoryType classifies a synthesized advisory.
type AdvisoryType string

const (
	AdvisoryWeatherAlert    AdvisoryType = "weather_alert"
	AdvisoryStorageRisk     AdvisoryType = "storage_risk"
	AdvisoryGrowingRisk     AdvisoryType = "growing_risk"
	AdvisoryHarvestReminder AdvisoryType = "harvest_reminder"
	AdvisoryScanResult      AdvisoryType = "scan_result"
	AdvisoryPendingScan     AdvisoryType = "pending_scan"
)

// Category is the user-preference bucket an advisory falls into. Each
// category has an independent opt-out.
type Category string

const (
	CategoryScanResult          Category = "scan_result"
	CategoryPendingScanReminder Category = "pending_scan_reminder"
	CategoryWeatherAdvisory     Category = "weather_advisory"
	CategoryHarvestReminder     Category = "harvest_reminder"
)

// CategoryOf maps an advisory type to its preference category.
func CategoryOf(t AdvisoryType) Category {
	switch t {
	case AdvisoryScanResult:
		return CategoryScanResult
	case AdvisoryPendingScan:
		return CategoryPendingScanReminder
	case AdvisoryHarvestReminder:
		return CategoryHarvestReminder
	default:
		return CategoryWeatherAdvisory
	}
}

// Preferences holds per-category opt-outs. The zero value enables everything.
type Preferences struct {
	MuteScanResults          bool `json:"mute_scan_results,omitempty"`
	MutePendingScanReminders bool `json:"mute_pending_scan_reminders,omitempty"`
	MuteWeatherAdvisories    bool `json:"mute_weather_advisories,omitempty"`
	MuteHarvestReminders     bool `json:"mute_harvest_reminders,omitempty"`
}

// Enabled reports whether the category is not opted out.
func (p Preferences) Enabled(c Category) bool {
	switch c {
	case CategoryScanResult:
		return !p.MuteScanResults
	case CategoryPendingScanReminder:
		return !p.MutePendingScanReminders
	case CategoryHarvestReminder:
		return !p.MuteHarvestReminders
	default:
		return !p.MuteWeatherAdvisories
	}
}

// Advisory is a synthesized, user-facing message describing a risk and the
// recommended actions. Conditions snapshots the numeric values that
// triggered it.
type Advisory struct {
	Type       AdvisoryType       `json:"type"`
	Severity   Severity           `json:"severity"`
	Title      string             `json:"title"`
	Message    string             `json:"message"`
	Actions    []string           `json:"actions"`
	Conditions map[string]float64 `json:"conditions,omitempty"`
}

// Key is the advisory's identity for deduplication. Two advisories with the
// same key describe the same condition and must be delivered at most once.
func (a Advisory) Key() string {
	return fmt.Sprintf("%s-%s-%s", a.Type, a.Severity, a.Title)
}

// NotificationPayload is the displayable part of a pending notification.
type NotificationPayload struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// PendingNotification is one offline-queue entry awaiting delivery.
// Delivered flips false→true exactly once; entries older than the queue's
// max age are discarded before delivery.
type PendingNotification struct {
	ID                 string              `json:"id"`
	Type               AdvisoryType        `json:"type"`
	Key                string              `json:"key"`
	ScheduledFor       time.Time           `json:"scheduled_for"`
	Payload            NotificationPayload `json:"payload"`
	RequireInteraction bool                `json:"require_interaction,omitempty"`
	Delivered          bool                `json:"delivered"`
	CreatedAt          time.Time           `json:"created_at"`
}

// PendingAction is one entry in the sync-action queue: a create/update/delete
// payload awaiting replay against the backend. Retries are unbounded here;
// the dispatcher decides cadence.
type PendingAction struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // "create", "update", "delete"
	Payload    []byte    `json:"payload,omitempty"`
	RetryCount int       `json:"retry_count"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
