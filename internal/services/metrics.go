package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tidecrest/aquafarm-backend/internal/biomass"
	"github.com/tidecrest/aquafarm-backend/internal/data/aggregates"
	"github.com/tidecrest/aquafarm-backend/internal/data/repos"
	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
	"github.com/tidecrest/aquafarm-backend/internal/domain/reference"
	"github.com/tidecrest/aquafarm-backend/internal/growth"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

// metricsRefreshConcurrency bounds the parallel batch refreshes in RefreshAll.
const metricsRefreshConcurrency = 8

type FCRReport struct {
	BatchID            uuid.UUID `json:"batch_id"`
	TargetFCR          float64   `json:"target_fcr"`
	ActualFCR          *float64  `json:"actual_fcr,omitempty"`
	TheoreticalFCR     float64   `json:"theoretical_fcr"`
	TotalFeedKg        float64   `json:"total_feed_kg"`
	WeightGainKg       float64   `json:"weight_gain_kg"`
	CurrentBiomassKg   float64   `json:"current_biomass_kg"`
	InitialBiomassKg   float64   `json:"initial_biomass_kg"`
	MortalityBiomassKg float64   `json:"mortality_biomass_kg"`
}

type SGRReport struct {
	BatchID           uuid.UUID     `json:"batch_id"`
	SGR               float64       `json:"sgr"`
	Rating            growth.Rating `json:"rating"`
	InitialAvgWeightG float64       `json:"initial_avg_weight_g"`
	CurrentAvgWeightG float64       `json:"current_avg_weight_g"`
	DaysInProduction  int           `json:"days_in_production"`
}

type BiomassProjection struct {
	BatchID             uuid.UUID `json:"batch_id"`
	DaysForward         int       `json:"days_forward"`
	ProjectedDate       time.Time `json:"projected_date"`
	CurrentQuantity     int       `json:"current_quantity"`
	CurrentAvgWeightG   float64   `json:"current_avg_weight_g"`
	CurrentBiomassKg    float64   `json:"current_biomass_kg"`
	ProjectedAvgWeightG float64   `json:"projected_avg_weight_g"`
	ProjectedBiomassKg  float64   `json:"projected_biomass_kg"`
	ExpectedSurvivors   int       `json:"expected_survivors"`
}

type RefreshSummary struct {
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

type MetricsService interface {
	FCR(ctx context.Context, tenantID, batchID uuid.UUID) (*FCRReport, error)
	SGR(ctx context.Context, tenantID, batchID uuid.UUID) (*SGRReport, error)
	UpdateBatchMetrics(ctx context.Context, tenantID, batchID uuid.UUID) (*types.Batch, error)
	ProjectBiomass(ctx context.Context, tenantID, batchID uuid.UUID, daysForward int) (*BiomassProjection, error)
	RecordFeed(ctx context.Context, tenantID, batchID uuid.UUID, feedKg float64) (*types.Batch, error)
	RefreshAll(ctx context.Context, tenantID uuid.UUID) (*RefreshSummary, error)
}

type MetricsServiceDeps struct {
	Base    aggregates.BaseDeps
	Repos   repos.Set
	Species reference.SpeciesDirectory
}

type metricsService struct {
	base    aggregates.BaseDeps
	repos   repos.Set
	species reference.SpeciesDirectory
	log     *logger.Logger
}

func NewMetricsService(deps MetricsServiceDeps) MetricsService {
	deps.Base = deps.Base.WithDefaults()
	return &metricsService{
		base:    deps.Base,
		repos:   deps.Repos,
		species: deps.Species,
		log:     deps.Base.Log.With("service", "MetricsService"),
	}
}

func (s *metricsService) getBatch(ctx context.Context, op string, tenantID, batchID uuid.UUID) (*types.Batch, error) {
	batch, err := s.repos.Batches.GetByID(dbctx.Context{Ctx: ctx}, tenantID, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, production.NewError(production.CodeNotFound, op, "batch not found", nil)
		}
		return nil, production.Wrap(production.CodeInternal, op, err)
	}
	return batch, nil
}

// FCR computes the feed conversion ratio from the batch's feed and biomass
// books without persisting anything. ActualFCR stays nil until the batch has
// gained weight, so a fresh or shrinking batch never reports a bogus ratio.
func (s *metricsService) FCR(ctx context.Context, tenantID, batchID uuid.UUID) (*FCRReport, error) {
	const op = "Metrics.FCR"
	batch, err := s.getBatch(ctx, op, tenantID, batchID)
	if err != nil {
		return nil, err
	}

	currentBiomass := batch.CurrentBiomassKg()
	gain := currentBiomass - batch.InitialBiomassKg + batch.MortalityBiomassKg
	report := &FCRReport{
		BatchID:            batch.ID,
		TargetFCR:          batch.TargetFCR,
		TheoreticalFCR:     batch.TheoreticalFCR,
		TotalFeedKg:        batch.TotalFeedKg,
		WeightGainKg:       gain,
		CurrentBiomassKg:   currentBiomass,
		InitialBiomassKg:   batch.InitialBiomassKg,
		MortalityBiomassKg: batch.MortalityBiomassKg,
	}
	if fcr := growth.FCR(batch.TotalFeedKg, currentBiomass, batch.InitialBiomassKg, batch.MortalityBiomassKg); !math.IsNaN(fcr) {
		report.ActualFCR = &fcr
	}
	return report, nil
}

// SGR computes the specific growth rate from stocking weight to the freshest
// weight view over the days in production.
func (s *metricsService) SGR(ctx context.Context, tenantID, batchID uuid.UUID) (*SGRReport, error) {
	const op = "Metrics.SGR"
	batch, err := s.getBatch(ctx, op, tenantID, batchID)
	if err != nil {
		return nil, err
	}

	days := daysBetween(batch.StockingDate, productionEnd(batch))
	currentWeight := batch.CurrentAvgWeightG()
	sgr := growth.SGR(batch.InitialAvgWeightG, currentWeight, days)
	return &SGRReport{
		BatchID:           batch.ID,
		SGR:               sgr,
		Rating:            growth.RateSGR(sgr),
		InitialAvgWeightG: batch.InitialAvgWeightG,
		CurrentAvgWeightG: currentWeight,
		DaysInProduction:  days,
	}, nil
}

// UpdateBatchMetrics recomputes and persists every derived metric on the
// batch: the theoretical weight view projected from the species growth model,
// SGR, growth rates against target, weight variance and both FCR figures.
// Terminal batches are frozen and refuse the refresh.
func (s *metricsService) UpdateBatchMetrics(ctx context.Context, tenantID, batchID uuid.UUID) (*types.Batch, error) {
	const op = "Metrics.UpdateBatchMetrics"

	var updated *types.Batch
	err := aggregates.ExecuteWriteWithRetry(ctx, s.base, op, func(dbc dbctx.Context) error {
		updated = nil
		batch, err := s.repos.Batches.GetForUpdate(dbc, tenantID, batchID)
		if err != nil {
			return err
		}
		if batch.Status.IsTerminal() {
			return production.NewError(production.CodeInvalidState, op, fmt.Sprintf("batch is %s; its metrics are frozen", batch.Status), nil)
		}
		species, ok := s.species.Species(batch.SpeciesID)
		if !ok {
			return production.NewError(production.CodeNotFound, op, fmt.Sprintf("species %q not found", batch.SpeciesID), nil)
		}

		now := time.Now().UTC()
		days := daysBetween(batch.StockingDate, productionEnd(batch))

		theoreticalWeight := growth.ProjectWeight(batch.InitialAvgWeightG, species.AvgDailyGrowthG, days)
		theoreticalBiomass := biomass.FromCount(batch.CurrentQuantity, theoreticalWeight)

		sampled := batch.LastSampledAt != nil && batch.ActualAvgWeightG > 0
		currentWeight := theoreticalWeight
		if sampled {
			currentWeight = batch.ActualAvgWeightG
		}
		currentBiomass := biomass.FromCount(batch.CurrentQuantity, currentWeight)

		updates := map[string]any{
			"theoretical_avg_weight_g":     theoreticalWeight,
			"theoretical_biomass_kg":       theoreticalBiomass,
			"days_in_production":           days,
			"sgr":                          growth.SGR(batch.InitialAvgWeightG, currentWeight, days),
			"growth_rate_target_g_per_day": species.AvgDailyGrowthG,
			"fcr_updated_at":               now,
			"updated_at":                   now,
		}

		if sampled {
			updates["actual_biomass_kg"] = currentBiomass
			variance := growth.WeightVariance(theoreticalWeight, batch.ActualAvgWeightG)
			updates["variance_g"] = variance.DiffG
			updates["variance_percent"] = variance.Percent
			updates["variance_significant"] = variance.Significant

			actualRate := growth.DailyGrowthRate(batch.InitialAvgWeightG, batch.ActualAvgWeightG, days)
			updates["growth_rate_actual_g_per_day"] = actualRate
			if species.AvgDailyGrowthG > 0 {
				updates["growth_rate_variance_percent"] = (actualRate - species.AvgDailyGrowthG) / species.AvgDailyGrowthG * 100
			}
		}

		if fcr := growth.FCR(batch.TotalFeedKg, currentBiomass, batch.InitialBiomassKg, batch.MortalityBiomassKg); math.IsNaN(fcr) {
			updates["actual_fcr"] = nil
		} else {
			updates["actual_fcr"] = fcr
		}
		if fcr := growth.FCR(batch.TotalFeedKg, theoreticalBiomass, batch.InitialBiomassKg, batch.MortalityBiomassKg); math.IsNaN(fcr) {
			updates["theoretical_fcr"] = 0.0
		} else {
			updates["theoretical_fcr"] = fcr
		}

		casOK, err := s.base.CASGuard.UpdateByVersion(dbc, "batch", batch.ID, batch.Version, updates)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(casOK, "batch was modified concurrently"); err != nil {
			return err
		}
		updated, err = s.repos.Batches.GetByID(dbc, tenantID, batchID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ProjectBiomass estimates the batch's biomass a number of days ahead using
// the species' average daily growth, holding the population at its current
// count. ExpectedSurvivors reports the end-of-cycle population the species'
// survival rate predicts, for comparison against the live count.
func (s *metricsService) ProjectBiomass(ctx context.Context, tenantID, batchID uuid.UUID, daysForward int) (*BiomassProjection, error) {
	const op = "Metrics.ProjectBiomass"
	if daysForward <= 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, "days forward must be positive", nil)
	}
	batch, err := s.getBatch(ctx, op, tenantID, batchID)
	if err != nil {
		return nil, err
	}
	species, ok := s.species.Species(batch.SpeciesID)
	if !ok {
		return nil, production.NewError(production.CodeNotFound, op, fmt.Sprintf("species %q not found", batch.SpeciesID), nil)
	}

	currentWeight := batch.CurrentAvgWeightG()
	projectedWeight := growth.ProjectWeight(currentWeight, species.AvgDailyGrowthG, daysForward)
	return &BiomassProjection{
		BatchID:             batch.ID,
		DaysForward:         daysForward,
		ProjectedDate:       time.Now().UTC().AddDate(0, 0, daysForward),
		CurrentQuantity:     batch.CurrentQuantity,
		CurrentAvgWeightG:   currentWeight,
		CurrentBiomassKg:    batch.CurrentBiomassKg(),
		ProjectedAvgWeightG: projectedWeight,
		ProjectedBiomassKg:  biomass.FromCount(batch.CurrentQuantity, projectedWeight),
		ExpectedSurvivors:   int(math.Round(float64(batch.InitialQuantity) * species.ExpectedSurvivalPct / 100)),
	}, nil
}

// RecordFeed adds consumed feed to the batch's running total. FCR figures pick
// it up on the next metrics refresh.
func (s *metricsService) RecordFeed(ctx context.Context, tenantID, batchID uuid.UUID, feedKg float64) (*types.Batch, error) {
	const op = "Metrics.RecordFeed"
	if feedKg <= 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, "feed amount must be positive", nil)
	}

	var updated *types.Batch
	err := aggregates.ExecuteWriteWithRetry(ctx, s.base, op, func(dbc dbctx.Context) error {
		updated = nil
		batch, err := s.repos.Batches.GetForUpdate(dbc, tenantID, batchID)
		if err != nil {
			return err
		}
		if batch.Status.IsTerminal() {
			return production.NewError(production.CodeInvalidState, op, fmt.Sprintf("batch is %s and can no longer record feed", batch.Status), nil)
		}
		ok, err := s.base.CASGuard.UpdateByVersion(dbc, "batch", batch.ID, batch.Version, map[string]any{
			"total_feed_kg": batch.TotalFeedKg + feedKg,
			"updated_at":    time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "batch was modified concurrently"); err != nil {
			return err
		}
		updated, err = s.repos.Batches.GetByID(dbc, tenantID, batchID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Recorded feed", "batch_id", batchID, "feed_kg", feedKg, "total_feed_kg", updated.TotalFeedKg)
	return updated, nil
}

// RefreshAll recomputes metrics for every active batch of the tenant, a
// bounded number at a time. One failing batch does not stop the sweep.
func (s *metricsService) RefreshAll(ctx context.Context, tenantID uuid.UUID) (*RefreshSummary, error) {
	const op = "Metrics.RefreshAll"
	ids, err := s.repos.Batches.ListActiveIDs(dbctx.Context{Ctx: ctx}, tenantID)
	if err != nil {
		return nil, production.Wrap(production.CodeInternal, op, err)
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metricsRefreshConcurrency)
	for _, id := range ids {
		batchID := id
		g.Go(func() error {
			if _, err := s.UpdateBatchMetrics(gctx, tenantID, batchID); err != nil {
				failed.Add(1)
				s.log.Warn("Metrics refresh failed for batch", "batch_id", batchID, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, production.Wrap(production.CodeInternal, op, err)
	}

	summary := &RefreshSummary{
		Refreshed: len(ids) - int(failed.Load()),
		Failed:    int(failed.Load()),
	}
	s.log.Info("Refreshed batch metrics", "total", len(ids), "failed", summary.Failed)
	return summary, nil
}

// productionEnd is the moment growth accounting stops: the harvest date once
// the batch is fully harvested, now otherwise.
func productionEnd(b *types.Batch) time.Time {
	if b.ActualHarvestDate != nil {
		return *b.ActualHarvestDate
	}
	return time.Now().UTC()
}

func daysBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours() / 24)
}
