package domain

import "time"

// CropStage is the lifecycle stage of a crop batch. The growing→harvested
// transition is one-way.
type CropStage string

const (
	StageGrowing   CropStage = "growing"
	StageHarvested CropStage = "harvested"
)

// StorageMethod is how a harvested batch is stored.
type StorageMethod string

const (
	StorageSilo      StorageMethod = "silo"
	StorageTinShed   StorageMethod = "tin_shed"
	StorageJuteBag   StorageMethod = "jute_bag"
	StorageOpenSpace StorageMethod = "open_space"
)

// CropBatchState is the external collaborator's view of one crop batch.
// Exactly the fields for its stage are set: ExpectedHarvestDate for growing
// batches, StorageMethod and ActualHarvestDate for harvested ones.
type CropBatchState struct {
	ID                  string        `json:"id"`
	CropName            string        `json:"crop_name,omitempty"`
	Stage               CropStage     `json:"stage"`
	ExpectedHarvestDate *time.Time    `json:"expected_harvest_date,omitempty"`
	ActualHarvestDate   *time.Time    `json:"actual_harvest_date,omitempty"`
	StorageMethod       StorageMethod `json:"storage_method,omitempty"`
	WeightKg            float64       `json:"weight_kg,omitempty"`
}

// StorageMultiplier returns the storage vulnerability multiplier for a
// harvested batch's method. Growing batches and unknown methods get 1.0.
func (c CropBatchState) StorageMultiplier() float64 {
	if c.Stage != StageHarvested {
		return 1.0
	}
	switch c.StorageMethod {
	case StorageOpenSpace:
		return 1.5
	case StorageJuteBag:
		return 1.2
	case StorageTinShed:
		return 1.1
	default:
		return 1.0
	}
}
