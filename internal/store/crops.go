package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/agrisafe/crop-risk-advisory/internal/domain"
)

// CropRegistry caches each farmer's crop batches as reported by the backend
// or the API. The registry is the read model for evaluation cycles and
// harvest reminder polls; it is not the system of record.
type CropRegistry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	crops map[string][]domain.CropBatchState
}

// NewCropRegistry creates an empty registry.
func NewCropRegistry(logger *slog.Logger) *CropRegistry {
	return &CropRegistry{
		logger: logger,
		crops:  make(map[string][]domain.CropBatchState),
	}
}

// SetCrops replaces a farmer's crop batches.
func (r *CropRegistry) SetCrops(farmerID string, batches []domain.CropBatchState) {
	r.mu.Lock()
	r.crops[farmerID] = append([]domain.CropBatchState(nil), batches...)
	r.mu.Unlock()

	r.logger.Debug("crop batches updated", "farmer_id", farmerID, "count", len(batches))
}

// FetchCropBatches returns the farmer's current crop batches. Unknown
// farmers get an empty slice, not an error.
func (r *CropRegistry) FetchCropBatches(_ context.Context, farmerID string) ([]domain.CropBatchState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.CropBatchState, len(r.crops[farmerID]))
	copy(out, r.crops[farmerID])
	return out, nil
}
