package growth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSGR(t *testing.T) {
	tests := []struct {
		name     string
		initialG float64
		finalG   float64
		days     int
		want     float64
	}{
		{"two weeks of growth", 100, 150, 14, 2.8962},
		{"no growth", 100, 100, 10, 0},
		{"zero days", 100, 150, 0, 0},
		{"negative days", 100, 150, -3, 0},
		{"zero initial weight", 0, 100, 14, 0},
		{"zero final weight", 100, 0, 14, 0},
		{"shrinkage is negative", 150, 100, 14, -2.8962},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, SGR(tt.initialG, tt.finalG, tt.days), 0.001)
		})
	}
}

func TestRateSGR(t *testing.T) {
	tests := []struct {
		sgr  float64
		want Rating
	}{
		{3.5, RatingExcellent},
		{3.0, RatingExcellent},
		{2.9, RatingGood},
		{2.0, RatingGood},
		{1.5, RatingAverage},
		{1.0, RatingAverage},
		{0.5, RatingBelowAverage},
		{0, RatingBelowAverage},
		{-0.1, RatingPoor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RateSGR(tt.sgr), "sgr=%v", tt.sgr)
	}
}

func TestFCR(t *testing.T) {
	// 100kg feed for 100kg of gain.
	assert.InDelta(t, 1.0, FCR(100, 150, 50, 0), 1e-9)

	// Mortality biomass counts toward gain.
	assert.InDelta(t, 1.2, FCR(120, 140, 50, 10), 1e-9)
}

func TestFCR_NoGainIsNaN(t *testing.T) {
	assert.True(t, math.IsNaN(FCR(100, 50, 50, 0)))
	assert.True(t, math.IsNaN(FCR(100, 40, 50, 5)))
}

func TestDailyGrowthRate(t *testing.T) {
	assert.InDelta(t, 5.0, DailyGrowthRate(100, 150, 10), 1e-9)
	assert.InDelta(t, -5.0, DailyGrowthRate(150, 100, 10), 1e-9)
	assert.Zero(t, DailyGrowthRate(100, 150, 0))
}

func TestProjectWeight(t *testing.T) {
	assert.InDelta(t, 125.0, ProjectWeight(100, 2.5, 10), 1e-9)
	assert.InDelta(t, 100.0, ProjectWeight(100, 2.5, 0), 1e-9)
}

func TestWeightVariance(t *testing.T) {
	v := WeightVariance(100, 115)
	assert.InDelta(t, 15.0, v.DiffG, 1e-9)
	assert.InDelta(t, 15.0, v.Percent, 1e-9)
	assert.True(t, v.Significant)

	v = WeightVariance(100, 105)
	assert.InDelta(t, 5.0, v.Percent, 1e-9)
	assert.False(t, v.Significant)

	// Threshold is inclusive.
	v = WeightVariance(100, 90)
	assert.InDelta(t, -10.0, v.Percent, 1e-9)
	assert.True(t, v.Significant)
}

func TestWeightVariance_ZeroTheoretical(t *testing.T) {
	v := WeightVariance(0, 50)
	assert.InDelta(t, 50.0, v.DiffG, 1e-9)
	assert.Zero(t, v.Percent)
	assert.False(t, v.Significant)
}
