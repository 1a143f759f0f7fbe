package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SnapshotBatchDetail is the per-batch breakdown inside a tank snapshot.
type SnapshotBatchDetail struct {
	BatchID     uuid.UUID `json:"batch_id"`
	BatchNumber string    `json:"batch_number"`
	Quantity    int       `json:"quantity"`
	BiomassKg   float64   `json:"biomass_kg"`
	Percent     float64   `json:"percent"`
}

// TankSnapshot is the materialized current state of one tank. It is a pure
// projection over the allocation ledger: every write to the ledger rebuilds the
// snapshot from scratch, it is never incrementally patched. When a tank
// empties the row is zeroed, not deleted, so the lock target survives.
type TankSnapshot struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_snapshot_tenant_tank" json:"tenant_id"`
	TankID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_snapshot_tenant_tank" json:"tank_id"`

	// PrimaryBatchID is the batch holding the largest share of the tank.
	PrimaryBatchID *uuid.UUID `gorm:"type:uuid;column:primary_batch_id" json:"primary_batch_id,omitempty"`

	TotalQuantity  int     `gorm:"column:total_quantity;not null;default:0" json:"total_quantity"`
	TotalBiomassKg float64 `gorm:"column:total_biomass_kg;not null;default:0" json:"total_biomass_kg"`
	AvgWeightG     float64 `gorm:"column:avg_weight_g;not null;default:0" json:"avg_weight_g"`
	DensityKgM3    float64 `gorm:"column:density_kg_m3;not null;default:0" json:"density_kg_m3"`

	IsMixedBatch bool           `gorm:"column:is_mixed_batch;not null;default:false" json:"is_mixed_batch"`
	BatchDetails datatypes.JSON `gorm:"column:batch_details;type:jsonb" json:"batch_details,omitempty"`

	CapacityUsedPercent float64 `gorm:"column:capacity_used_percent;not null;default:0" json:"capacity_used_percent"`
	IsOverCapacity      bool    `gorm:"column:is_over_capacity;not null;default:false" json:"is_over_capacity"`

	LastAllocationAt *time.Time `gorm:"column:last_allocation_at" json:"last_allocation_at,omitempty"`
	LastOperationAt  *time.Time `gorm:"column:last_operation_at" json:"last_operation_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TankSnapshot) TableName() string { return "tank_snapshot" }

func (s *TankSnapshot) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsEmpty reports whether the tank currently holds no population.
func (s *TankSnapshot) IsEmpty() bool {
	return s.TotalQuantity <= 0
}
