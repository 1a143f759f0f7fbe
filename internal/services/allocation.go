package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tidecrest/aquafarm-backend/internal/biomass"
	"github.com/tidecrest/aquafarm-backend/internal/clients/redis"
	"github.com/tidecrest/aquafarm-backend/internal/data/aggregates"
	"github.com/tidecrest/aquafarm-backend/internal/data/repos"
	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
	"github.com/tidecrest/aquafarm-backend/internal/domain/reference"
	"github.com/tidecrest/aquafarm-backend/internal/observability"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type AllocateInput struct {
	BatchID      uuid.UUID            `json:"batch_id"`
	TankID       uuid.UUID            `json:"tank_id"`
	Quantity     int                  `json:"quantity"`
	AvgWeightG   float64              `json:"avg_weight_g"`
	Type         types.AllocationType `json:"type"`
	SourceTankID *uuid.UUID           `json:"source_tank_id"`
	ActorID      uuid.UUID            `json:"-"`
}

type AllocateResult struct {
	Allocation      *types.TankAllocation `json:"allocation"`
	Snapshot        *types.TankSnapshot   `json:"snapshot"`
	Batch           *types.Batch          `json:"batch"`
	CapacityWarning string                `json:"capacity_warning,omitempty"`
}

type AllocationService interface {
	Allocate(ctx context.Context, tenantID uuid.UUID, in AllocateInput) (*AllocateResult, error)
	ListByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]*types.TankAllocation, error)
	ListLocations(ctx context.Context, tenantID, batchID uuid.UUID, currentOnly bool) ([]*types.BatchLocation, error)
}

type AllocationServiceDeps struct {
	Base       aggregates.BaseDeps
	Repos      repos.Set
	Containers reference.ContainerDirectory
	Alerts     redis.AlertBus
	Metrics    *observability.Metrics
}

type allocationService struct {
	base       aggregates.BaseDeps
	repos      repos.Set
	containers reference.ContainerDirectory
	alerts     redis.AlertBus
	metrics    *observability.Metrics
	rebuilder  *snapshotRebuilder
	log        *logger.Logger
}

func NewAllocationService(deps AllocationServiceDeps) AllocationService {
	deps.Base = deps.Base.WithDefaults()
	if deps.Alerts == nil {
		deps.Alerts = redis.NewNoopAlertBus()
	}
	log := deps.Base.Log.With("service", "AllocationService")
	return &allocationService{
		base:       deps.Base,
		repos:      deps.Repos,
		containers: deps.Containers,
		alerts:     deps.Alerts,
		metrics:    deps.Metrics,
		rebuilder: &snapshotRebuilder{
			batches:     deps.Repos.Batches,
			allocations: deps.Repos.Allocations,
			snapshots:   deps.Repos.Snapshots,
			containers:  deps.Containers,
			log:         log,
		},
		log: log,
	}
}

// Allocate appends one entry to the allocation ledger and rebuilds the tank's
// snapshot. Exceeding the tank's maximum density does not block: the entry is
// written and a capacity warning comes back with the result. Allocating a
// quarantined batch for the first time activates it.
func (s *allocationService) Allocate(ctx context.Context, tenantID uuid.UUID, in AllocateInput) (*AllocateResult, error) {
	const op = "Allocation.Allocate"
	if in.Type == "" {
		in.Type = types.AllocationInitial
	}
	if !in.Type.IsValid() {
		return nil, production.NewError(production.CodeInvalidArgument, op, fmt.Sprintf("unknown allocation type %q", in.Type), nil)
	}
	if in.Type.Outbound() {
		return nil, production.NewError(production.CodeInvalidArgument, op, "transfer-out and harvest entries are written by their operations", nil)
	}
	if in.Quantity <= 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, "quantity must be positive", nil)
	}
	if in.AvgWeightG <= 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, "avg weight must be positive", nil)
	}

	spec, ok := s.containers.Container(in.TankID)
	if !ok {
		return nil, production.NewError(production.CodeNotFound, op, "container not found or inactive", nil)
	}
	if spec.VolumeM3 <= 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, fmt.Sprintf("container %s has no usable volume", spec.Name), nil)
	}

	result := &AllocateResult{}
	var alert *redis.CapacityAlert
	err := aggregates.ExecuteWriteWithRetry(ctx, s.base, op, func(dbc dbctx.Context) error {
		*result = AllocateResult{}
		alert = nil

		batch, err := s.repos.Batches.GetForUpdate(dbc, tenantID, in.BatchID)
		if err != nil {
			return err
		}
		if batch.Status.IsTerminal() {
			return production.NewError(production.CodeInvalidState, op, fmt.Sprintf("batch is %s and can no longer be allocated", batch.Status), nil)
		}

		prior, err := s.repos.Snapshots.GetForUpdate(dbc, tenantID, in.TankID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		biomassKg := biomass.FromCount(in.Quantity, in.AvgWeightG)
		priorBiomass := 0.0
		if prior != nil {
			priorBiomass = prior.TotalBiomassKg
		}
		projected := biomass.Density(priorBiomass+biomassKg, spec.VolumeM3)

		if spec.MaxDensityKgM3 > 0 && projected >= spec.MaxDensityKgM3 {
			result.CapacityWarning = fmt.Sprintf(
				"allocation brings %s to %.2f kg/m3, at or above its maximum of %.2f kg/m3",
				spec.Name, projected, spec.MaxDensityKgM3)
			alert = &redis.CapacityAlert{
				TenantID:            tenantID,
				TankID:              in.TankID,
				BatchID:             in.BatchID,
				Severity:            redis.SeverityCritical,
				DensityKgM3:         projected,
				MaxDensityKgM3:      spec.MaxDensityKgM3,
				CapacityUsedPercent: biomass.CapacityUsedPercent(projected, spec.MaxDensityKgM3),
				Message:             result.CapacityWarning,
				OccurredAt:          now,
			}
		} else if spec.OptimalMaxKgM3 > 0 && projected > spec.OptimalMaxKgM3 {
			result.CapacityWarning = fmt.Sprintf(
				"allocation brings %s to %.2f kg/m3, above its optimal band of %.2f-%.2f kg/m3",
				spec.Name, projected, spec.OptimalMinKgM3, spec.OptimalMaxKgM3)
			alert = &redis.CapacityAlert{
				TenantID:            tenantID,
				TankID:              in.TankID,
				BatchID:             in.BatchID,
				Severity:            redis.SeverityWarning,
				DensityKgM3:         projected,
				MaxDensityKgM3:      spec.MaxDensityKgM3,
				CapacityUsedPercent: biomass.CapacityUsedPercent(projected, spec.MaxDensityKgM3),
				Message:             result.CapacityWarning,
				OccurredAt:          now,
			}
		}

		rows, err := s.repos.Allocations.Create(dbc, []*types.TankAllocation{{
			TenantID:       tenantID,
			BatchID:        in.BatchID,
			TankID:         in.TankID,
			AllocationType: in.Type,
			Quantity:       in.Quantity,
			AvgWeightG:     in.AvgWeightG,
			BiomassKg:      biomassKg,
			DensityKgM3:    projected,
			SourceTankID:   in.SourceTankID,
			AllocatedBy:    in.ActorID,
			AllocatedAt:    now,
		}})
		if err != nil {
			return err
		}
		result.Allocation = rows[0]

		snap, err := s.rebuilder.rebuildTank(dbc, tenantID, in.TankID, now, triggerAllocation)
		if err != nil {
			return err
		}
		result.Snapshot = snap

		containerType := types.ContainerType(spec.ContainerType)
		if containerType == "" {
			containerType = types.ContainerTank
		}
		if err := syncBatchLocation(dbc, s.repos, tenantID, in.BatchID, in.TankID, containerType, snap, now); err != nil {
			return err
		}

		updates := map[string]any{"updated_at": now}
		if batch.Status == types.StatusQuarantine {
			updates["status"] = types.StatusActive
			updates["status_changed_at"] = now
		}
		ok, err := s.base.CASGuard.UpdateByVersion(dbc, "batch", batch.ID, batch.Version, updates)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "batch was modified concurrently"); err != nil {
			return err
		}
		result.Batch, err = s.repos.Batches.GetByID(dbc, tenantID, in.BatchID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if alert != nil {
		s.metrics.IncCapacityAlert(alert.Severity)
		if pubErr := s.alerts.PublishCapacityAlert(ctx, *alert); pubErr != nil {
			s.log.Warn("Failed to publish capacity alert", "error", pubErr, "tank_id", in.TankID)
		}
	}

	s.log.Info("Allocated batch to tank",
		"batch_id", in.BatchID,
		"tank_id", in.TankID,
		"type", in.Type,
		"quantity", in.Quantity,
		"density_kg_m3", result.Allocation.DensityKgM3)
	return result, nil
}

func (s *allocationService) ListByBatch(ctx context.Context, tenantID, batchID uuid.UUID) ([]*types.TankAllocation, error) {
	const op = "Allocation.ListByBatch"
	rows, err := s.repos.Allocations.ListByBatch(dbctx.Context{Ctx: ctx}, tenantID, batchID)
	if err != nil {
		return nil, production.Wrap(production.CodeInternal, op, err)
	}
	return rows, nil
}

// ListLocations returns where the batch's stock sits now (currentOnly) or its
// full movement history across containers.
func (s *allocationService) ListLocations(ctx context.Context, tenantID, batchID uuid.UUID, currentOnly bool) ([]*types.BatchLocation, error) {
	const op = "Allocation.ListLocations"
	rows, err := s.repos.Locations.ListByBatch(dbctx.Context{Ctx: ctx}, tenantID, batchID, currentOnly)
	if err != nil {
		return nil, production.Wrap(production.CodeInternal, op, err)
	}
	return rows, nil
}

// syncBatchLocation reconciles the batch's location row for one container with
// the rebuilt snapshot: present with stock keeps the row current, emptied
// closes it.
func syncBatchLocation(dbc dbctx.Context, rp repos.Set, tenantID, batchID, containerID uuid.UUID, containerType types.ContainerType, snap *types.TankSnapshot, now time.Time) error {
	quantity, biomassKg := snapshotBatchShare(snap, batchID)
	current, err := rp.Locations.Current(dbc, tenantID, batchID, containerID)
	if err != nil {
		return err
	}
	if quantity > 0 {
		if current == nil {
			_, err := rp.Locations.Create(dbc, &types.BatchLocation{
				TenantID:          tenantID,
				BatchID:           batchID,
				ContainerID:       containerID,
				ContainerType:     containerType,
				Quantity:          quantity,
				BiomassKg:         biomassKg,
				IsCurrentLocation: true,
				EnteredAt:         now,
			})
			return err
		}
		return rp.Locations.UpdateQuantities(dbc, current.ID, quantity, biomassKg)
	}
	if current != nil {
		return rp.Locations.Close(dbc, current.ID, now)
	}
	return nil
}
