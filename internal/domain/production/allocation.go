package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AllocationType classifies a ledger entry by how the population reached the
// tank. TRANSFER_OUT and HARVEST entries carry the quantity that left the tank
// and count negative during snapshot rebuild; every other type counts positive.
type AllocationType string

const (
	AllocationInitial     AllocationType = "INITIAL"
	AllocationSplit       AllocationType = "SPLIT"
	AllocationTransferIn  AllocationType = "TRANSFER_IN"
	AllocationTransferOut AllocationType = "TRANSFER_OUT"
	AllocationGrading     AllocationType = "GRADING"
	AllocationHarvest     AllocationType = "HARVEST"
)

func (t AllocationType) IsValid() bool {
	switch t {
	case AllocationInitial, AllocationSplit, AllocationTransferIn,
		AllocationTransferOut, AllocationGrading, AllocationHarvest:
		return true
	default:
		return false
	}
}

// Outbound reports whether entries of this type remove population from the
// tank during snapshot rebuild.
func (t AllocationType) Outbound() bool {
	return t == AllocationTransferOut || t == AllocationHarvest
}

// TankAllocation is one append-only ledger entry recording a distribution of
// batch population into a tank. Rows are never updated after creation;
// corrections are new entries.
type TankAllocation struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	BatchID  uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`
	TankID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tank_id"`

	AllocationType AllocationType `gorm:"column:allocation_type;not null;index" json:"allocation_type"`
	Quantity       int            `gorm:"column:quantity;not null" json:"quantity"`
	AvgWeightG     float64        `gorm:"column:avg_weight_g;not null" json:"avg_weight_g"`
	BiomassKg      float64        `gorm:"column:biomass_kg;not null" json:"biomass_kg"`
	DensityKgM3    float64        `gorm:"column:density_kg_m3;not null;default:0" json:"density_kg_m3"`

	// SourceTankID is set on transfer legs; TransferGroupID links the paired
	// out/in entries of one transfer.
	SourceTankID    *uuid.UUID `gorm:"type:uuid;column:source_tank_id" json:"source_tank_id,omitempty"`
	TransferGroupID *uuid.UUID `gorm:"type:uuid;column:transfer_group_id;index" json:"transfer_group_id,omitempty"`

	AllocatedBy uuid.UUID `gorm:"type:uuid;column:allocated_by;not null" json:"allocated_by"`
	AllocatedAt time.Time `gorm:"column:allocated_at;not null;index" json:"allocated_at"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TankAllocation) TableName() string { return "tank_allocation" }

func (a *TankAllocation) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
