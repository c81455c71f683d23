// Package store persists per-farmer dispatcher state through a simple
// load/save key-value contract. Two implementations exist: an in-memory
// store for tests and single-process use, and a JSON-file store for
// durability across restarts.
package store

import (
	"errors"

	"github.com/agrisafe/crop-risk-advisory/internal/domain"
)

// ErrNotFound is returned when no state has been saved for a farmer.
var ErrNotFound = errors.New("no state for farmer")

// FarmerState is everything the dispatcher persists for one farmer:
// the offline queue, the sync-action queue, delivered advisory keys,
// fired harvest-reminder keys, and notification preferences.
type FarmerState struct {
	Queue       []domain.PendingNotification `json:"queue"`
	SyncQueue   []domain.PendingAction       `json:"sync_queue,omitempty"`
	Notified    []string                     `json:"notified"`
	Reminders   []string                     `json:"reminders"`
	Preferences domain.Preferences           `json:"preferences"`
}

// Store is the persistence contract. Load returns ErrNotFound for an
// unknown farmer; Save overwrites the farmer's state atomically.
type Store interface {
	Load(farmerID string) (FarmerState, error)
	Save(farmerID string, state FarmerState) error
}
