// Package growth computes growth and feed-efficiency metrics for production
// batches. All functions are pure; non-positive inputs yield sentinel values
// (0 or NaN) rather than errors, since sparse early-lifecycle data is normal.
package growth

import "math"

// Rating buckets a specific growth rate for operational reporting.
type Rating string

const (
	RatingExcellent    Rating = "excellent"
	RatingGood         Rating = "good"
	RatingAverage      Rating = "average"
	RatingBelowAverage Rating = "below_average"
	RatingPoor         Rating = "poor"
)

// SGR returns the specific growth rate in percent per day:
// ((ln(final) - ln(initial)) / days) * 100. Returns 0 when days <= 0 or
// either weight <= 0 (insufficient data, not a failure).
func SGR(initialWeightG, finalWeightG float64, days int) float64 {
	if days <= 0 || initialWeightG <= 0 || finalWeightG <= 0 {
		return 0
	}
	return (math.Log(finalWeightG) - math.Log(initialWeightG)) / float64(days) * 100
}

// RateSGR classifies an SGR value.
func RateSGR(sgr float64) Rating {
	switch {
	case sgr >= 3:
		return RatingExcellent
	case sgr >= 2:
		return RatingGood
	case sgr >= 1:
		return RatingAverage
	case sgr >= 0:
		return RatingBelowAverage
	default:
		return RatingPoor
	}
}

// FCR returns feed mass consumed per unit of biomass gained. Mortality biomass
// counts toward gain: those animals grew before they died. Returns NaN when
// weight gain is zero or negative, never a negative ratio.
func FCR(totalFeedKg, currentBiomassKg, initialBiomassKg, mortalityBiomassKg float64) float64 {
	weightGain := currentBiomassKg - initialBiomassKg + mortalityBiomassKg
	if weightGain <= 0 {
		return math.NaN()
	}
	return totalFeedKg / weightGain
}

// DailyGrowthRate returns linear growth in grams per day, 0 when days <= 0.
func DailyGrowthRate(initialWeightG, finalWeightG float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	return (finalWeightG - initialWeightG) / float64(days)
}

// ProjectWeight extends a weight forward assuming the species' linear average
// daily growth.
func ProjectWeight(currentWeightG, avgDailyGrowthG float64, daysForward int) float64 {
	if daysForward <= 0 {
		return currentWeightG
	}
	return currentWeightG + avgDailyGrowthG*float64(daysForward)
}

// Variance compares the theoretical weight view against the actual one.
type Variance struct {
	DiffG       float64
	Percent     float64
	Significant bool
}

// varianceSignificancePct is the |percent| threshold above which a
// theoretical/actual divergence warrants operator attention.
const varianceSignificancePct = 10

// WeightVariance computes the difference between theoretical and actual
// average weight. Percent is relative to theoretical; zero theoretical weight
// yields zero percent.
func WeightVariance(theoreticalG, actualG float64) Variance {
	v := Variance{DiffG: actualG - theoreticalG}
	if theoreticalG > 0 {
		v.Percent = v.DiffG / theoreticalG * 100
	}
	v.Significant = math.Abs(v.Percent) >= varianceSignificancePct
	return v
}
