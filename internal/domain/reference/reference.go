// Package reference holds the read-only external data the production engine
// consumes: species growth parameters and physical container specifications.
// Both are owned by other subsystems and injected as lookups.
package reference

import "github.com/google/uuid"

// SpeciesParams are the growth parameters for one farmed species.
type SpeciesParams struct {
	SpeciesID           string  `yaml:"species_id" json:"species_id"`
	CommonName          string  `yaml:"common_name" json:"common_name"`
	AvgDailyGrowthG     float64 `yaml:"avg_daily_growth_g" json:"avg_daily_growth_g"`
	ExpectedSurvivalPct float64 `yaml:"expected_survival_pct" json:"expected_survival_pct"`
	TargetFCR           float64 `yaml:"target_fcr" json:"target_fcr"`
}

// ContainerSpec is the physical specification of one growing container.
type ContainerSpec struct {
	ContainerID    uuid.UUID `yaml:"container_id" json:"container_id"`
	Name           string    `yaml:"name" json:"name"`
	ContainerType  string    `yaml:"container_type" json:"container_type"`
	VolumeM3       float64   `yaml:"volume_m3" json:"volume_m3"`
	MaxDensityKgM3 float64   `yaml:"max_density_kg_m3" json:"max_density_kg_m3"`
	OptimalMinKgM3 float64   `yaml:"optimal_min_kg_m3" json:"optimal_min_kg_m3"`
	OptimalMaxKgM3 float64   `yaml:"optimal_max_kg_m3" json:"optimal_max_kg_m3"`
	IsActive       bool      `yaml:"is_active" json:"is_active"`
}

// SpeciesDirectory resolves species growth parameters by species id.
type SpeciesDirectory interface {
	Species(speciesID string) (*SpeciesParams, bool)
}

// ContainerDirectory resolves container specifications by container id.
type ContainerDirectory interface {
	Container(containerID uuid.UUID) (*ContainerSpec, bool)
}
