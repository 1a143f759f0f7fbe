// Package biomass computes biomass, stocking density, and density
// classification for growing containers. All functions are pure.
package biomass

import "fmt"

// DensityClass buckets a stocking density against a container's configured
// band.
type DensityClass string

const (
	DensityOptimal  DensityClass = "optimal"
	DensityLow      DensityClass = "low"
	DensityHigh     DensityClass = "high"
	DensityCritical DensityClass = "critical"
)

// FromCount returns total live weight in kilograms for quantity animals at
// avgWeightG grams each, 0 when either input is non-positive.
func FromCount(quantity int, avgWeightG float64) float64 {
	if quantity <= 0 || avgWeightG <= 0 {
		return 0
	}
	return float64(quantity) * avgWeightG / 1000
}

// AvgWeightG derives average weight back from biomass, 0 for an empty
// population.
func AvgWeightG(biomassKg float64, quantity int) float64 {
	if quantity <= 0 || biomassKg <= 0 {
		return 0
	}
	return biomassKg * 1000 / float64(quantity)
}

// Density returns kg/m³ for the given biomass in the given volume. Volume must
// be validated positive by the caller; a non-positive volume yields 0 here.
func Density(biomassKg, volumeM3 float64) float64 {
	if volumeM3 <= 0 || biomassKg <= 0 {
		return 0
	}
	return biomassKg / volumeM3
}

// Classify buckets a density against the container's optimal band and hard
// maximum.
func Classify(densityKgM3, optimalMinKgM3, optimalMaxKgM3, maxDensityKgM3 float64) DensityClass {
	switch {
	case maxDensityKgM3 > 0 && densityKgM3 >= maxDensityKgM3:
		return DensityCritical
	case optimalMaxKgM3 > 0 && densityKgM3 > optimalMaxKgM3:
		return DensityHigh
	case densityKgM3 < optimalMinKgM3 && densityKgM3 > 0:
		return DensityLow
	default:
		return DensityOptimal
	}
}

// CapacityUsedPercent returns density as a percentage of the container's hard
// maximum, 0 when no maximum is configured.
func CapacityUsedPercent(densityKgM3, maxDensityKgM3 float64) float64 {
	if maxDensityKgM3 <= 0 {
		return 0
	}
	return densityKgM3 / maxDensityKgM3 * 100
}

// TransferProjection is the predicted outcome of moving transferBiomassKg from
// a source container to a destination container. Warnings are advisory; farms
// may override density limits, so nothing here blocks.
type TransferProjection struct {
	SourceDensityKgM3 float64  `json:"source_density_kg_m3"`
	DestDensityKgM3   float64  `json:"dest_density_kg_m3"`
	Warnings          []string `json:"warnings,omitempty"`
	IsValid           bool     `json:"is_valid"`
}

// ProjectTransfer computes both post-transfer densities and collects advisory
// warnings: transferring more biomass than the source holds, or driving the
// destination to critical density.
func ProjectTransfer(sourceBiomassKg, sourceVolumeM3, destBiomassKg, destVolumeM3, transferBiomassKg, destMaxDensityKgM3 float64) TransferProjection {
	p := TransferProjection{}
	if transferBiomassKg > sourceBiomassKg {
		p.Warnings = append(p.Warnings,
			fmt.Sprintf("transfer biomass %.2fkg exceeds source biomass %.2fkg", transferBiomassKg, sourceBiomassKg))
	}
	p.SourceDensityKgM3 = Density(sourceBiomassKg-transferBiomassKg, sourceVolumeM3)
	p.DestDensityKgM3 = Density(destBiomassKg+transferBiomassKg, destVolumeM3)
	if destMaxDensityKgM3 > 0 && p.DestDensityKgM3 >= destMaxDensityKgM3 {
		p.Warnings = append(p.Warnings,
			fmt.Sprintf("destination density %.2fkg/m³ reaches critical threshold %.2fkg/m³", p.DestDensityKgM3, destMaxDensityKgM3))
	}
	p.IsValid = len(p.Warnings) == 0
	return p
}
