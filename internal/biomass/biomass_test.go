package biomass

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromCount(t *testing.T) {
	assert.InDelta(t, 50.0, FromCount(10000, 5), 1e-9)
	assert.InDelta(t, 2375.0, FromCount(9500, 250), 1e-9)
	assert.Zero(t, FromCount(0, 5))
	assert.Zero(t, FromCount(100, 0))
	assert.Zero(t, FromCount(-10, 5))
}

func TestAvgWeightG(t *testing.T) {
	assert.InDelta(t, 5.0, AvgWeightG(50, 10000), 1e-9)
	assert.Zero(t, AvgWeightG(50, 0))
	assert.Zero(t, AvgWeightG(0, 100))
}

func TestDensity(t *testing.T) {
	assert.InDelta(t, 26.4, Density(2640, 100), 1e-9)
	assert.Zero(t, Density(2640, 0))
	assert.Zero(t, Density(0, 100))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		density    float64
		optimalMin float64
		optimalMax float64
		maxDensity float64
		want       DensityClass
	}{
		{"over hard maximum", 26.4, 10, 20, 25, DensityCritical},
		{"exactly at maximum", 25, 10, 20, 25, DensityCritical},
		{"above optimal band", 22, 10, 20, 25, DensityHigh},
		{"below optimal band", 5, 10, 20, 25, DensityLow},
		{"inside band", 15, 10, 20, 25, DensityOptimal},
		{"band lower edge", 10, 10, 20, 25, DensityOptimal},
		{"empty tank is not low", 0, 10, 20, 25, DensityOptimal},
		{"no configured band", 15, 0, 0, 0, DensityOptimal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.density, tt.optimalMin, tt.optimalMax, tt.maxDensity))
		})
	}
}

func TestCapacityUsedPercent(t *testing.T) {
	assert.InDelta(t, 105.6, CapacityUsedPercent(26.4, 25), 1e-9)
	assert.InDelta(t, 50.0, CapacityUsedPercent(12.5, 25), 1e-9)
	assert.Zero(t, CapacityUsedPercent(10, 0))
}

func TestProjectTransfer_Clean(t *testing.T) {
	p := ProjectTransfer(1000, 100, 500, 100, 400, 25)
	assert.InDelta(t, 6.0, p.SourceDensityKgM3, 1e-9)
	assert.InDelta(t, 9.0, p.DestDensityKgM3, 1e-9)
	assert.Empty(t, p.Warnings)
	assert.True(t, p.IsValid)
}

func TestProjectTransfer_ExceedsSource(t *testing.T) {
	p := ProjectTransfer(300, 100, 500, 100, 400, 25)
	assert.False(t, p.IsValid)
	assert.Len(t, p.Warnings, 1)
}

func TestProjectTransfer_DestinationCritical(t *testing.T) {
	p := ProjectTransfer(3000, 100, 2000, 100, 600, 25)
	assert.InDelta(t, 26.0, p.DestDensityKgM3, 1e-9)
	assert.False(t, p.IsValid)
	assert.Len(t, p.Warnings, 1)
}
