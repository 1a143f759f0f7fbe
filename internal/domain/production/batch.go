package production

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Batch is the authoritative record of one production cohort, from stocking
// through growth to harvest or closure. Population counters obey the
// conservation law: CurrentQuantity + TotalMortality + CullCount +
// HarvestedQuantity == InitialQuantity after every committed write.
type Batch struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_batch_tenant_number" json:"tenant_id"`
	BatchNumber string    `gorm:"column:batch_number;not null;uniqueIndex:idx_batch_tenant_number" json:"batch_number"`
	SpeciesID   string    `gorm:"column:species_id;not null;index" json:"species_id"`
	Name        string    `gorm:"column:name" json:"name,omitempty"`
	Notes       string    `gorm:"column:notes" json:"notes,omitempty"`

	// Population counters. InitialQuantity is set once at stocking and never
	// mutated afterwards.
	InitialQuantity   int     `gorm:"column:initial_quantity;not null" json:"initial_quantity"`
	CurrentQuantity   int     `gorm:"column:current_quantity;not null" json:"current_quantity"`
	TotalMortality    int     `gorm:"column:total_mortality;not null;default:0" json:"total_mortality"`
	CullCount         int     `gorm:"column:cull_count;not null;default:0" json:"cull_count"`
	HarvestedQuantity int     `gorm:"column:harvested_quantity;not null;default:0" json:"harvested_quantity"`
	MortalityRate     float64 `gorm:"column:mortality_rate;not null;default:0" json:"mortality_rate"`

	// Weight views. Initial is immutable, theoretical is projected from the
	// species growth model, actual comes from physical sampling, variance
	// compares theoretical against actual.
	InitialAvgWeightG     float64    `gorm:"column:initial_avg_weight_g;not null" json:"initial_avg_weight_g"`
	InitialBiomassKg      float64    `gorm:"column:initial_biomass_kg;not null" json:"initial_biomass_kg"`
	TheoreticalAvgWeightG float64    `gorm:"column:theoretical_avg_weight_g;not null;default:0" json:"theoretical_avg_weight_g"`
	TheoreticalBiomassKg  float64    `gorm:"column:theoretical_biomass_kg;not null;default:0" json:"theoretical_biomass_kg"`
	ActualAvgWeightG      float64    `gorm:"column:actual_avg_weight_g;not null;default:0" json:"actual_avg_weight_g"`
	ActualBiomassKg       float64    `gorm:"column:actual_biomass_kg;not null;default:0" json:"actual_biomass_kg"`
	LastSampledAt         *time.Time `gorm:"column:last_sampled_at" json:"last_sampled_at,omitempty"`
	VarianceG             float64    `gorm:"column:variance_g;not null;default:0" json:"variance_g"`
	VariancePercent       float64    `gorm:"column:variance_percent;not null;default:0" json:"variance_percent"`
	VarianceSignificant   bool       `gorm:"column:variance_significant;not null;default:false" json:"variance_significant"`

	// Feed conversion. ActualFCR is NULL until enough data exists to compute a
	// meaningful ratio (weight gain <= 0 keeps it NULL).
	TargetFCR          float64    `gorm:"column:target_fcr;not null;default:0" json:"target_fcr"`
	ActualFCR          *float64   `gorm:"column:actual_fcr" json:"actual_fcr,omitempty"`
	TheoreticalFCR     float64    `gorm:"column:theoretical_fcr;not null;default:0" json:"theoretical_fcr"`
	FCROverridden      bool       `gorm:"column:fcr_overridden;not null;default:false" json:"fcr_overridden"`
	FCRUpdatedAt       *time.Time `gorm:"column:fcr_updated_at" json:"fcr_updated_at,omitempty"`
	TotalFeedKg        float64    `gorm:"column:total_feed_kg;not null;default:0" json:"total_feed_kg"`
	MortalityBiomassKg float64    `gorm:"column:mortality_biomass_kg;not null;default:0" json:"mortality_biomass_kg"`

	// Growth cache, maintained by metric refresh.
	SGR                       float64 `gorm:"column:sgr;not null;default:0" json:"sgr"`
	DaysInProduction          int     `gorm:"column:days_in_production;not null;default:0" json:"days_in_production"`
	GrowthRateActualGPerDay   float64 `gorm:"column:growth_rate_actual_g_per_day;not null;default:0" json:"growth_rate_actual_g_per_day"`
	GrowthRateTargetGPerDay   float64 `gorm:"column:growth_rate_target_g_per_day;not null;default:0" json:"growth_rate_target_g_per_day"`
	GrowthRateVariancePercent float64 `gorm:"column:growth_rate_variance_percent;not null;default:0" json:"growth_rate_variance_percent"`

	// Lifecycle.
	Status            BatchStatus `gorm:"column:status;not null;index" json:"status"`
	StockingDate      time.Time   `gorm:"column:stocking_date;not null" json:"stocking_date"`
	StatusChangedAt   time.Time   `gorm:"column:status_changed_at;not null" json:"status_changed_at"`
	ActualHarvestDate *time.Time  `gorm:"column:actual_harvest_date" json:"actual_harvest_date,omitempty"`
	ClosedAt          *time.Time  `gorm:"column:closed_at" json:"closed_at,omitempty"`
	CloseReason       string      `gorm:"column:close_reason" json:"close_reason,omitempty"`
	IsActive          bool        `gorm:"column:is_active;not null;default:true;index" json:"is_active"`

	// Version guards concurrent writers: updates compare-and-swap on it.
	Version int `gorm:"column:version;not null;default:0" json:"version"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Batch) TableName() string { return "batch" }

// BeforeCreate never inserts a zero UUID primary key.
func (b *Batch) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ConservationHolds reports whether the population counters still sum to the
// initial quantity.
func (b *Batch) ConservationHolds() bool {
	return b.CurrentQuantity+b.TotalMortality+b.CullCount+b.HarvestedQuantity == b.InitialQuantity
}

// SurvivalRate returns the percentage of the initial population still alive.
func (b *Batch) SurvivalRate() float64 {
	if b.InitialQuantity <= 0 {
		return 0
	}
	return float64(b.CurrentQuantity) / float64(b.InitialQuantity) * 100
}

// CurrentAvgWeightG picks the freshest weight view: actual when a sampling has
// been recorded, theoretical otherwise, falling back to the stocking weight.
func (b *Batch) CurrentAvgWeightG() float64 {
	if b.LastSampledAt != nil && b.ActualAvgWeightG > 0 {
		return b.ActualAvgWeightG
	}
	if b.TheoreticalAvgWeightG > 0 {
		return b.TheoreticalAvgWeightG
	}
	return b.InitialAvgWeightG
}

// CurrentBiomassKg derives live biomass from the current population and the
// freshest weight view.
func (b *Batch) CurrentBiomassKg() float64 {
	if b.CurrentQuantity <= 0 {
		return 0
	}
	return float64(b.CurrentQuantity) * b.CurrentAvgWeightG() / 1000
}
