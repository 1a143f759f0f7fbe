package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tidecrest/aquafarm-backend/internal/biomass"
	"github.com/tidecrest/aquafarm-backend/internal/data/aggregates"
	"github.com/tidecrest/aquafarm-backend/internal/data/repos"
	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
	"github.com/tidecrest/aquafarm-backend/internal/domain/reference"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type CreateBatchInput struct {
	BatchNumber       string    `json:"batch_number"`
	SpeciesID         string    `json:"species_id"`
	Name              string    `json:"name"`
	Notes             string    `json:"notes"`
	InitialQuantity   int       `json:"initial_quantity"`
	InitialAvgWeightG float64   `json:"initial_avg_weight_g"`
	StockingDate      time.Time `json:"stocking_date"`
	TargetFCR         *float64  `json:"target_fcr"`
}

type UpdateBatchInput struct {
	Name      *string            `json:"name"`
	Notes     *string            `json:"notes"`
	TargetFCR *float64           `json:"target_fcr"`
	Status    *types.BatchStatus `json:"status"`
}

type BatchService interface {
	Create(ctx context.Context, tenantID uuid.UUID, in CreateBatchInput) (*types.Batch, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*types.Batch, error)
	List(ctx context.Context, tenantID uuid.UUID, filter repos.BatchFilter) ([]*types.Batch, error)
	Update(ctx context.Context, tenantID, id uuid.UUID, in UpdateBatchInput) (*types.Batch, error)
	Close(ctx context.Context, tenantID, id uuid.UUID, reason string) (*types.Batch, error)
	Cancel(ctx context.Context, tenantID, id uuid.UUID, reason string) (*types.Batch, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type BatchServiceDeps struct {
	Base    aggregates.BaseDeps
	Repos   repos.Set
	Species reference.SpeciesDirectory
}

type batchService struct {
	base    aggregates.BaseDeps
	repos   repos.Set
	species reference.SpeciesDirectory
	log     *logger.Logger
}

func NewBatchService(deps BatchServiceDeps) BatchService {
	deps.Base = deps.Base.WithDefaults()
	return &batchService{
		base:    deps.Base,
		repos:   deps.Repos,
		species: deps.Species,
		log:     deps.Base.Log.With("service", "BatchService"),
	}
}

// Create stocks a new batch. The batch starts in quarantine with the current
// population equal to the initial one and all derived weight views seeded from
// the stocking weight.
func (s *batchService) Create(ctx context.Context, tenantID uuid.UUID, in CreateBatchInput) (*types.Batch, error) {
	const op = "Batch.Create"
	if tenantID == uuid.Nil {
		return nil, production.NewError(production.CodeInvalidArgument, op, "missing tenant id", nil)
	}
	if strings.TrimSpace(in.BatchNumber) == "" {
		return nil, production.NewError(production.CodeInvalidArgument, op, "missing batch number", nil)
	}
	if in.InitialQuantity < 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, "initial quantity cannot be negative", nil)
	}
	if in.InitialAvgWeightG <= 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, "initial avg weight must be positive", nil)
	}
	species, ok := s.species.Species(in.SpeciesID)
	if !ok {
		return nil, production.NewError(production.CodeNotFound, op, fmt.Sprintf("species %q not found", in.SpeciesID), nil)
	}

	targetFCR := species.TargetFCR
	overridden := false
	if in.TargetFCR != nil {
		if *in.TargetFCR <= 0 {
			return nil, production.NewError(production.CodeInvalidArgument, op, "target fcr must be positive", nil)
		}
		targetFCR = *in.TargetFCR
		overridden = true
	}

	now := time.Now().UTC()
	stockingDate := in.StockingDate
	if stockingDate.IsZero() {
		stockingDate = now
	}
	initialBiomass := biomass.FromCount(in.InitialQuantity, in.InitialAvgWeightG)

	batch := &types.Batch{
		TenantID:                tenantID,
		BatchNumber:             strings.TrimSpace(in.BatchNumber),
		SpeciesID:               in.SpeciesID,
		Name:                    in.Name,
		Notes:                   in.Notes,
		InitialQuantity:         in.InitialQuantity,
		CurrentQuantity:         in.InitialQuantity,
		InitialAvgWeightG:       in.InitialAvgWeightG,
		InitialBiomassKg:        initialBiomass,
		TheoreticalAvgWeightG:   in.InitialAvgWeightG,
		TheoreticalBiomassKg:    initialBiomass,
		TargetFCR:               targetFCR,
		FCROverridden:           overridden,
		GrowthRateTargetGPerDay: species.AvgDailyGrowthG,
		Status:                  types.StatusQuarantine,
		StockingDate:            stockingDate,
		StatusChangedAt:         now,
		IsActive:                true,
	}

	var created *types.Batch
	err := aggregates.ExecuteWrite(ctx, s.base, op, func(dbc dbctx.Context) error {
		existing, err := s.repos.Batches.GetByBatchNumber(dbc, tenantID, batch.BatchNumber)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if existing != nil {
			return aggregates.ConflictError(fmt.Sprintf("batch number %q already in use", batch.BatchNumber))
		}
		created, err = s.repos.Batches.Create(dbc, batch)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Created batch",
		"batch_id", created.ID,
		"batch_number", created.BatchNumber,
		"species_id", created.SpeciesID,
		"initial_quantity", created.InitialQuantity)
	return created, nil
}

func (s *batchService) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*types.Batch, error) {
	const op = "Batch.GetByID"
	batch, err := s.repos.Batches.GetByID(dbctx.Context{Ctx: ctx}, tenantID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, production.NewError(production.CodeNotFound, op, "batch not found", nil)
		}
		return nil, production.Wrap(production.CodeInternal, op, err)
	}
	return batch, nil
}

func (s *batchService) List(ctx context.Context, tenantID uuid.UUID, filter repos.BatchFilter) ([]*types.Batch, error) {
	const op = "Batch.List"
	batches, err := s.repos.Batches.List(dbctx.Context{Ctx: ctx}, tenantID, filter)
	if err != nil {
		return nil, production.Wrap(production.CodeInternal, op, err)
	}
	return batches, nil
}

// Update edits batch metadata and handles explicit status transitions, for
// example moving an active batch into harvesting. Closing and cancelling go
// through their own operations so a reason is always captured. Harvested can
// only be forced once the population has reached zero.
func (s *batchService) Update(ctx context.Context, tenantID, id uuid.UUID, in UpdateBatchInput) (*types.Batch, error) {
	const op = "Batch.Update"
	if in.TargetFCR != nil && *in.TargetFCR <= 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, "target fcr must be positive", nil)
	}
	if in.Status != nil && !in.Status.IsValid() {
		return nil, production.NewError(production.CodeInvalidArgument, op, fmt.Sprintf("unknown status %q", *in.Status), nil)
	}

	var updated *types.Batch
	err := aggregates.ExecuteWriteWithRetry(ctx, s.base, op, func(dbc dbctx.Context) error {
		updated = nil
		batch, err := s.repos.Batches.GetForUpdate(dbc, tenantID, id)
		if err != nil {
			return err
		}
		if batch.Status.IsTerminal() {
			return production.NewError(production.CodeInvalidState, op, fmt.Sprintf("batch is %s and can no longer be modified", batch.Status), nil)
		}

		now := time.Now().UTC()
		updates := map[string]any{"updated_at": now}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}
		if in.TargetFCR != nil {
			updates["target_fcr"] = *in.TargetFCR
			updates["fcr_overridden"] = true
		}
		if in.Status != nil && *in.Status != batch.Status {
			next := *in.Status
			if next == types.StatusClosed || next == types.StatusCancelled {
				return production.NewError(production.CodeInvalidState, op, "closing and cancelling have dedicated operations", nil)
			}
			if !production.CanTransition(batch.Status, next) {
				return production.NewError(production.CodeInvalidState, op, fmt.Sprintf("cannot transition from %s to %s", batch.Status, next), nil)
			}
			if next == types.StatusHarvested && batch.CurrentQuantity > 0 {
				return production.NewError(production.CodeInvalidState, op, "population must reach zero before the batch is harvested", nil)
			}
			updates["status"] = next
			updates["status_changed_at"] = now
		}

		ok, err := s.base.CASGuard.UpdateByVersion(dbc, "batch", batch.ID, batch.Version, updates)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "batch was modified concurrently"); err != nil {
			return err
		}
		updated, err = s.repos.Batches.GetByID(dbc, tenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Close finishes a batch. A close reason is mandatory; the batch becomes
// terminal and cannot be modified afterwards.
func (s *batchService) Close(ctx context.Context, tenantID, id uuid.UUID, reason string) (*types.Batch, error) {
	return s.finish(ctx, "Batch.Close", tenantID, id, types.StatusClosed, reason)
}

// Cancel aborts a batch that never reached harvest, for example after a total
// loss in quarantine. Only quarantined and active batches can be cancelled.
func (s *batchService) Cancel(ctx context.Context, tenantID, id uuid.UUID, reason string) (*types.Batch, error) {
	return s.finish(ctx, "Batch.Cancel", tenantID, id, types.StatusCancelled, reason)
}

func (s *batchService) finish(ctx context.Context, op string, tenantID, id uuid.UUID, terminal types.BatchStatus, reason string) (*types.Batch, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, production.NewError(production.CodeInvalidArgument, op, "a reason is required", nil)
	}

	var finished *types.Batch
	err := aggregates.ExecuteWriteWithRetry(ctx, s.base, op, func(dbc dbctx.Context) error {
		finished = nil
		batch, err := s.repos.Batches.GetForUpdate(dbc, tenantID, id)
		if err != nil {
			return err
		}
		if !production.CanTransition(batch.Status, terminal) {
			return production.NewError(production.CodeInvalidState, op, fmt.Sprintf("cannot move a %s batch to %s", batch.Status, terminal), nil)
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":            terminal,
			"status_changed_at": now,
			"closed_at":         now,
			"close_reason":      strings.TrimSpace(reason),
			"is_active":         false,
			"updated_at":        now,
		}
		ok, err := s.base.CASGuard.UpdateByVersion(dbc, "batch", batch.ID, batch.Version, updates)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "batch was modified concurrently"); err != nil {
			return err
		}
		finished, err = s.repos.Batches.GetByID(dbc, tenantID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Finished batch", "batch_id", id, "status", terminal, "reason", reason)
	return finished, nil
}

// Delete soft-deletes a batch. Batches that have entered production must be
// closed or cancelled first so the ledgers stay explainable.
func (s *batchService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	const op = "Batch.Delete"
	err := aggregates.ExecuteWrite(ctx, s.base, op, func(dbc dbctx.Context) error {
		batch, err := s.repos.Batches.GetForUpdate(dbc, tenantID, id)
		if err != nil {
			return err
		}
		if !batch.Status.IsTerminal() && batch.Status != types.StatusQuarantine {
			return production.NewError(production.CodeInvalidState, op, fmt.Sprintf("batch is %s; close or cancel it before deleting", batch.Status), nil)
		}
		return s.repos.Batches.SoftDelete(dbc, tenantID, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("Deleted batch", "batch_id", id)
	return nil
}
