package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContainerType distinguishes the physical container kinds a batch can occupy.
type ContainerType string

const (
	ContainerTank ContainerType = "TANK"
	ContainerPond ContainerType = "POND"
)

func (t ContainerType) IsValid() bool {
	return t == ContainerTank || t == ContainerPond
}

// BatchLocation is the container-agnostic current/historical assignment of a
// batch, maintained alongside the tank allocation ledger. IsCurrentLocation
// marks the live assignment; ExitedAt closes a historical one.
type BatchLocation struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenant_id"`
	BatchID  uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`

	ContainerID   uuid.UUID     `gorm:"type:uuid;column:container_id;not null;index" json:"container_id"`
	ContainerType ContainerType `gorm:"column:container_type;not null" json:"container_type"`

	Quantity  int     `gorm:"column:quantity;not null" json:"quantity"`
	BiomassKg float64 `gorm:"column:biomass_kg;not null" json:"biomass_kg"`

	IsCurrentLocation bool       `gorm:"column:is_current_location;not null;default:true;index" json:"is_current_location"`
	EnteredAt         time.Time  `gorm:"column:entered_at;not null" json:"entered_at"`
	ExitedAt          *time.Time `gorm:"column:exited_at" json:"exited_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (BatchLocation) TableName() string { return "batch_location" }

func (l *BatchLocation) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
