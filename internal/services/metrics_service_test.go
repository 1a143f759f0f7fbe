package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
	"github.com/tidecrest/aquafarm-backend/internal/growth"
)

// createBatchStockedDaysAgo backdates the stocking so day-based metrics have
// something to chew on.
func (e *testEnv) createBatchStockedDaysAgo(t *testing.T, number string, quantity int, weightG float64, daysAgo int) *types.Batch {
	t.Helper()
	batch, err := e.batches.Create(context.Background(), e.tenantID, CreateBatchInput{
		BatchNumber:       number,
		SpeciesID:         "atlantic_salmon",
		InitialQuantity:   quantity,
		InitialAvgWeightG: weightG,
		StockingDate:      time.Now().UTC().AddDate(0, 0, -daysAgo),
	})
	require.NoError(t, err)
	return batch
}

func TestRecordFeedAccumulates(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 1000, 100)

	updated, err := env.metrics.RecordFeed(context.Background(), env.tenantID, batch.ID, 500.5)
	require.NoError(t, err)
	require.InDelta(t, 500.5, updated.TotalFeedKg, 0.001)
	require.Greater(t, updated.Version, batch.Version)

	updated, err = env.metrics.RecordFeed(context.Background(), env.tenantID, batch.ID, 249.5)
	require.NoError(t, err)
	require.InDelta(t, 750.0, updated.TotalFeedKg, 0.001)

	_, err = env.metrics.RecordFeed(context.Background(), env.tenantID, batch.ID, 0)
	requireCode(t, err, production.CodeInvalidArgument)
	_, err = env.metrics.RecordFeed(context.Background(), env.tenantID, batch.ID, -5)
	requireCode(t, err, production.CodeInvalidArgument)

	_, err = env.batches.Cancel(context.Background(), env.tenantID, batch.ID, "trial ended")
	require.NoError(t, err)
	_, err = env.metrics.RecordFeed(context.Background(), env.tenantID, batch.ID, 10)
	requireCode(t, err, production.CodeInvalidState)
}

func TestFCRReporting(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 1000, 100)
	env.allocate(t, batch.ID, tankA1, 1000, 100)

	// No weight gain yet: the ratio stays unreported rather than dividing by
	// zero.
	report, err := env.metrics.FCR(context.Background(), env.tenantID, batch.ID)
	require.NoError(t, err)
	require.Nil(t, report.ActualFCR)
	require.InDelta(t, 1.15, report.TargetFCR, 0.001)
	require.Zero(t, report.TotalFeedKg)

	// Fish grew to 150 g on 60 kg of feed: 60 / (150 - 100) = 1.2.
	env.record(t, RecordOperationInput{
		BatchID:    batch.ID,
		TankID:     tankA1,
		Type:       types.OperationSampling,
		Quantity:   30,
		AvgWeightG: 150,
	})
	_, err = env.metrics.RecordFeed(context.Background(), env.tenantID, batch.ID, 60)
	require.NoError(t, err)

	report, err = env.metrics.FCR(context.Background(), env.tenantID, batch.ID)
	require.NoError(t, err)
	require.NotNil(t, report.ActualFCR)
	require.InDelta(t, 1.2, *report.ActualFCR, 0.001)
	require.InDelta(t, 50.0, report.WeightGainKg, 0.001)

	// Dead fish grew before they died, so mortality biomass keeps counting
	// toward the gain and the ratio holds steady.
	env.record(t, RecordOperationInput{
		BatchID:   batch.ID,
		TankID:    tankA1,
		Type:      types.OperationMortality,
		Quantity:  100,
		Mortality: &types.MortalityDetail{Reason: "sea lice treatment losses"},
	})
	report, err = env.metrics.FCR(context.Background(), env.tenantID, batch.ID)
	require.NoError(t, err)
	require.NotNil(t, report.ActualFCR)
	require.InDelta(t, 1.2, *report.ActualFCR, 0.001)
	require.InDelta(t, 15.0, report.MortalityBiomassKg, 0.001)
}

func TestSGRReporting(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatchStockedDaysAgo(t, "B-2025-001", 1000, 100, 14)
	env.allocate(t, batch.ID, tankA1, 1000, 100)
	env.record(t, RecordOperationInput{
		BatchID:    batch.ID,
		TankID:     tankA1,
		Type:       types.OperationSampling,
		Quantity:   30,
		AvgWeightG: 150,
	})

	report, err := env.metrics.SGR(context.Background(), env.tenantID, batch.ID)
	require.NoError(t, err)
	// ((ln 150 - ln 100) / 14) * 100
	require.InDelta(t, 2.8962, report.SGR, 0.001)
	require.Equal(t, growth.RatingGood, report.Rating)
	require.Equal(t, 14, report.DaysInProduction)
	require.InDelta(t, 150.0, report.CurrentAvgWeightG, 0.001)
}

func TestUpdateBatchMetricsRecomputesViews(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatchStockedDaysAgo(t, "B-2025-001", 1000, 100, 14)
	env.allocate(t, batch.ID, tankA1, 1000, 100)

	// Unsampled: only the theoretical view moves, at 9.5 g/day for salmon.
	updated, err := env.metrics.UpdateBatchMetrics(context.Background(), env.tenantID, batch.ID)
	require.NoError(t, err)
	require.Equal(t, 14, updated.DaysInProduction)
	require.InDelta(t, 233.0, updated.TheoreticalAvgWeightG, 0.001)
	require.InDelta(t, 233.0, updated.TheoreticalBiomassKg, 0.001)
	require.InDelta(t, 9.5, updated.GrowthRateTargetGPerDay, 0.001)
	require.Zero(t, updated.GrowthRateActualGPerDay)
	require.NotNil(t, updated.FCRUpdatedAt)

	// A sample well under the projection flags the variance and rates actual
	// growth against the species target.
	env.record(t, RecordOperationInput{
		BatchID:    batch.ID,
		TankID:     tankA1,
		Type:       types.OperationSampling,
		Quantity:   30,
		AvgWeightG: 150,
	})
	updated, err = env.metrics.UpdateBatchMetrics(context.Background(), env.tenantID, batch.ID)
	require.NoError(t, err)
	require.InDelta(t, 150.0, updated.ActualBiomassKg, 0.001)
	require.InDelta(t, -83.0, updated.VarianceG, 0.01)
	require.InDelta(t, -35.622, updated.VariancePercent, 0.01)
	require.True(t, updated.VarianceSignificant)
	require.InDelta(t, 3.5714, updated.GrowthRateActualGPerDay, 0.001)
	require.InDelta(t, -62.406, updated.GrowthRateVariancePercent, 0.01)

	_, err = env.batches.Close(context.Background(), env.tenantID, batch.ID, "cycle complete")
	require.NoError(t, err)
	_, err = env.metrics.UpdateBatchMetrics(context.Background(), env.tenantID, batch.ID)
	requireCode(t, err, production.CodeInvalidState)
}

func TestProjectBiomass(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 10000, 5)

	proj, err := env.metrics.ProjectBiomass(context.Background(), env.tenantID, batch.ID, 30)
	require.NoError(t, err)
	require.Equal(t, 30, proj.DaysForward)
	require.Equal(t, 10000, proj.CurrentQuantity)
	require.InDelta(t, 5.0, proj.CurrentAvgWeightG, 0.001)
	require.InDelta(t, 50.0, proj.CurrentBiomassKg, 0.001)
	// 5 g + 30 days at 9.5 g/day.
	require.InDelta(t, 290.0, proj.ProjectedAvgWeightG, 0.001)
	require.InDelta(t, 2900.0, proj.ProjectedBiomassKg, 0.001)
	// 92% expected survival for salmon.
	require.Equal(t, 9200, proj.ExpectedSurvivors)

	_, err = env.metrics.ProjectBiomass(context.Background(), env.tenantID, batch.ID, 0)
	requireCode(t, err, production.CodeInvalidArgument)
	_, err = env.metrics.ProjectBiomass(context.Background(), env.tenantID, uuid.New(), 30)
	requireCode(t, err, production.CodeNotFound)
}

func TestRefreshAllSweepsActiveBatches(t *testing.T) {
	env := newTestEnv(t)
	a := env.createBatchStockedDaysAgo(t, "B-2025-001", 1000, 100, 10)
	b := env.createBatchStockedDaysAgo(t, "B-2025-002", 2000, 50, 20)
	env.createBatchStockedDaysAgo(t, "B-2025-003", 3000, 20, 30)

	summary, err := env.metrics.RefreshAll(context.Background(), env.tenantID)
	require.NoError(t, err)
	require.Equal(t, 3, summary.Refreshed)
	require.Zero(t, summary.Failed)

	refreshed := env.reload(t, b.ID)
	require.Equal(t, 20, refreshed.DaysInProduction)
	require.InDelta(t, 50+9.5*20, refreshed.TheoreticalAvgWeightG, 0.001)

	// Cancelled batches drop out of the sweep.
	_, err = env.batches.Cancel(context.Background(), env.tenantID, a.ID, "stock recalled")
	require.NoError(t, err)
	summary, err = env.metrics.RefreshAll(context.Background(), env.tenantID)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Refreshed)
	require.Zero(t, summary.Failed)
}
