package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OperationType classifies a population-affecting event. Stock direction is
// fixed per type: mortality, cull, transfer-out and harvest reduce the batch
// population; transfer-in increases it; sampling never touches it; adjustment
// carries a signed quantity for stock reconciliation.
type OperationType string

const (
	OperationMortality   OperationType = "MORTALITY"
	OperationCull        OperationType = "CULL"
	OperationTransferOut OperationType = "TRANSFER_OUT"
	OperationTransferIn  OperationType = "TRANSFER_IN"
	OperationHarvest     OperationType = "HARVEST"
	OperationSampling    OperationType = "SAMPLING"
	OperationAdjustment  OperationType = "ADJUSTMENT"
)

func (t OperationType) IsValid() bool {
	switch t {
	case OperationMortality, OperationCull, OperationTransferOut,
		OperationTransferIn, OperationHarvest, OperationSampling, OperationAdjustment:
		return true
	default:
		return false
	}
}

// StockReducing reports whether the type always removes live population.
func (t OperationType) StockReducing() bool {
	switch t {
	case OperationMortality, OperationCull, OperationTransferOut, OperationHarvest:
		return true
	default:
		return false
	}
}

// StockIncreasing reports whether the type always adds live population.
func (t OperationType) StockIncreasing() bool {
	return t == OperationTransferIn
}

// Per-type operation detail. Exactly one of these shapes is serialized into
// TankOperation.Detail, keyed by OperationType, so illegal field combinations
// are unrepresentable.

type MortalityDetail struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes,omitempty"`
}

type CullDetail struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes,omitempty"`
}

type TransferDetail struct {
	SourceTankID      *uuid.UUID `json:"source_tank_id,omitempty"`
	DestinationTankID *uuid.UUID `json:"destination_tank_id,omitempty"`
	TransferGroupID   uuid.UUID  `json:"transfer_group_id"`
	Notes             string     `json:"notes,omitempty"`
}

type HarvestDetail struct {
	PricePerKg float64 `json:"price_per_kg,omitempty"`
	Buyer      string  `json:"buyer,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

type SamplingDetail struct {
	SampleSize int    `json:"sample_size,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

type AdjustmentDetail struct {
	Reason string `json:"reason"`
	Notes  string `json:"notes,omitempty"`
}

// ContainerState captures a tank's aggregate state at a point in time. Stored
// as the pre/post snapshots on each operation row.
type ContainerState struct {
	TankID        uuid.UUID `json:"tank_id"`
	Quantity      int       `json:"quantity"`
	BiomassKg     float64   `json:"biomass_kg"`
	AvgWeightG    float64   `json:"avg_weight_g"`
	DensityKgM3   float64   `json:"density_kg_m3"`
	IsMixedBatch  bool      `json:"is_mixed_batch"`
	CapturedAt    time.Time `json:"captured_at"`
	BatchQuantity int       `json:"batch_quantity"`
}

// TankOperation is one append-only ledger entry recording a population-affecting
// event, with the container state captured before and after application.
type TankOperation struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	BatchID  uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`
	TankID   uuid.UUID `gorm:"type:uuid;not null;index" json:"tank_id"`

	OperationType OperationType `gorm:"column:operation_type;not null;index" json:"operation_type"`
	Quantity      int           `gorm:"column:quantity;not null" json:"quantity"`
	AvgWeightG    float64       `gorm:"column:avg_weight_g;not null;default:0" json:"avg_weight_g"`
	BiomassKg     float64       `gorm:"column:biomass_kg;not null;default:0" json:"biomass_kg"`

	Detail    datatypes.JSON `gorm:"column:detail;type:jsonb" json:"detail,omitempty"`
	PreState  datatypes.JSON `gorm:"column:pre_state;type:jsonb" json:"pre_state,omitempty"`
	PostState datatypes.JSON `gorm:"column:post_state;type:jsonb" json:"post_state,omitempty"`

	RecordedBy uuid.UUID `gorm:"type:uuid;column:recorded_by;not null" json:"recorded_by"`
	RecordedAt time.Time `gorm:"column:recorded_at;not null;index" json:"recorded_at"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (TankOperation) TableName() string { return "tank_operation" }

func (o *TankOperation) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
