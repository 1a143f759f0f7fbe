package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tidecrest/aquafarm-backend/internal/biomass"
	"github.com/tidecrest/aquafarm-backend/internal/clients/redis"
	"github.com/tidecrest/aquafarm-backend/internal/data/aggregates"
	"github.com/tidecrest/aquafarm-backend/internal/data/repos"
	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
	"github.com/tidecrest/aquafarm-backend/internal/domain/reference"
	"github.com/tidecrest/aquafarm-backend/internal/growth"
	"github.com/tidecrest/aquafarm-backend/internal/observability"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type RecordOperationInput struct {
	BatchID    uuid.UUID               `json:"batch_id"`
	TankID     uuid.UUID               `json:"tank_id"`
	Type       types.OperationType     `json:"type"`
	Quantity   int                     `json:"quantity"`
	AvgWeightG float64                 `json:"avg_weight_g"`
	Mortality  *types.MortalityDetail  `json:"mortality,omitempty"`
	Cull       *types.CullDetail       `json:"cull,omitempty"`
	Harvest    *types.HarvestDetail    `json:"harvest,omitempty"`
	Sampling   *types.SamplingDetail   `json:"sampling,omitempty"`
	Adjustment *types.AdjustmentDetail `json:"adjustment,omitempty"`
	ActorID    uuid.UUID               `json:"-"`
}

type RecordOperationResult struct {
	Operation *types.TankOperation `json:"operation"`
	Batch     *types.Batch         `json:"batch"`
	Snapshot  *types.TankSnapshot  `json:"snapshot"`
}

type TransferInput struct {
	BatchID      uuid.UUID `json:"batch_id"`
	SourceTankID uuid.UUID `json:"source_tank_id"`
	DestTankID   uuid.UUID `json:"dest_tank_id"`
	Quantity     int       `json:"quantity"`
	AvgWeightG   float64   `json:"avg_weight_g"`
	Notes        string    `json:"notes"`
	ActorID      uuid.UUID `json:"-"`
}

type TransferResult struct {
	TransferGroupID uuid.UUID            `json:"transfer_group_id"`
	OutOperation    *types.TankOperation `json:"out_operation"`
	InOperation     *types.TankOperation `json:"in_operation"`
	SourceSnapshot  *types.TankSnapshot  `json:"source_snapshot"`
	DestSnapshot    *types.TankSnapshot  `json:"dest_snapshot"`
	Batch           *types.Batch         `json:"batch"`
	Warnings        []string             `json:"warnings,omitempty"`
}

type OperationService interface {
	Record(ctx context.Context, tenantID uuid.UUID, in RecordOperationInput) (*RecordOperationResult, error)
	Transfer(ctx context.Context, tenantID uuid.UUID, in TransferInput) (*TransferResult, error)
	ListByBatch(ctx context.Context, tenantID, batchID uuid.UUID, filter repos.OperationFilter) ([]*types.TankOperation, error)
}

type OperationServiceDeps struct {
	Base       aggregates.BaseDeps
	Repos      repos.Set
	Containers reference.ContainerDirectory
	Alerts     redis.AlertBus
	Metrics    *observability.Metrics
}

type operationService struct {
	base       aggregates.BaseDeps
	repos      repos.Set
	containers reference.ContainerDirectory
	alerts     redis.AlertBus
	metrics    *observability.Metrics
	rebuilder  *snapshotRebuilder
	log        *logger.Logger
}

func NewOperationService(deps OperationServiceDeps) OperationService {
	deps.Base = deps.Base.WithDefaults()
	if deps.Alerts == nil {
		deps.Alerts = redis.NewNoopAlertBus()
	}
	log := deps.Base.Log.With("service", "OperationService")
	return &operationService{
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

// Record applies one population-affecting event to a batch: the batch counters
// mutate per operation type, the ledger entry is written with the tank state
// captured before and after, and the tank snapshot is rebuilt. The whole unit
// commits or rolls back together. Any stock reduction larger than the current
// population is rejected before anything is written.
func (s *operationService) Record(ctx context.Context, tenantID uuid.UUID, in RecordOperationInput) (*RecordOperationResult, error) {
	const op = "Operation.Record"
	if !in.Type.IsValid() {
		return nil, production.NewError(production.CodeInvalidArgument, op, fmt.Sprintf("unknown operation type %q", in.Type), nil)
	}
	if in.Type == types.OperationTransferOut || in.Type == types.OperationTransferIn {
		return nil, production.NewError(production.CodeInvalidArgument, op, "transfers are recorded through the transfer operation", nil)
	}
	if in.AvgWeightG < 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, "avg weight cannot be negative", nil)
	}
	detail, err := validateOperationDetail(op, in)
	if err != nil {
		return nil, err
	}

	result := &RecordOperationResult{}
	err = aggregates.ExecuteWriteWithRetry(ctx, s.base, op, func(dbc dbctx.Context) error {
		*result = RecordOperationResult{}

		batch, err := s.repos.Batches.GetForUpdate(dbc, tenantID, in.BatchID)
		if err != nil {
			return err
		}
		if batch.Status.IsTerminal() {
			return production.NewError(production.CodeInvalidState, op, fmt.Sprintf("batch is %s and can no longer record operations", batch.Status), nil)
		}

		prior, err := s.repos.Snapshots.GetForUpdate(dbc, tenantID, in.TankID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		weight := in.AvgWeightG
		if weight == 0 {
			weight = batch.CurrentAvgWeightG()
		}
		magnitude := in.Quantity
		if magnitude < 0 {
			magnitude = -magnitude
		}
		opBiomass := biomass.FromCount(magnitude, weight)
		preState := containerStateOf(in.TankID, prior, in.BatchID, now)

		updates := map[string]any{"updated_at": now}
		switch in.Type {
		case types.OperationMortality:
			if in.Quantity > batch.CurrentQuantity {
				return aggregates.ConservationError(fmt.Sprintf("mortality of %d exceeds current population of %d", in.Quantity, batch.CurrentQuantity))
			}
			mortality := batch.TotalMortality + in.Quantity
			updates["current_quantity"] = batch.CurrentQuantity - in.Quantity
			updates["total_mortality"] = mortality
			updates["mortality_biomass_kg"] = batch.MortalityBiomassKg + opBiomass
			if batch.InitialQuantity > 0 {
				updates["mortality_rate"] = float64(mortality) / float64(batch.InitialQuantity) * 100
			}

		case types.OperationCull:
			if in.Quantity > batch.CurrentQuantity {
				return aggregates.ConservationError(fmt.Sprintf("cull of %d exceeds current population of %d", in.Quantity, batch.CurrentQuantity))
			}
			updates["current_quantity"] = batch.CurrentQuantity - in.Quantity
			updates["cull_count"] = batch.CullCount + in.Quantity

		case types.OperationHarvest:
			if in.Quantity > batch.CurrentQuantity {
				return aggregates.ConservationError(fmt.Sprintf("harvest of %d exceeds current population of %d", in.Quantity, batch.CurrentQuantity))
			}
			remaining := batch.CurrentQuantity - in.Quantity
			updates["current_quantity"] = remaining
			updates["harvested_quantity"] = batch.HarvestedQuantity + in.Quantity
			if remaining == 0 && production.CanTransition(batch.Status, types.StatusHarvested) {
				updates["status"] = types.StatusHarvested
				updates["status_changed_at"] = now
				updates["actual_harvest_date"] = now
			}
			// The harvested share leaves the tank through the allocation
			// ledger so the snapshot converges to the remaining stock.
			if _, err := s.repos.Allocations.Create(dbc, []*types.TankAllocation{{
				TenantID:       tenantID,
				BatchID:        in.BatchID,
				TankID:         in.TankID,
				AllocationType: types.AllocationHarvest,
				Quantity:       in.Quantity,
				AvgWeightG:     weight,
				BiomassKg:      opBiomass,
				AllocatedBy:    in.ActorID,
				AllocatedAt:    now,
			}}); err != nil {
				return err
			}

		case types.OperationSampling:
			variance := growth.WeightVariance(batch.TheoreticalAvgWeightG, weight)
			updates["actual_avg_weight_g"] = weight
			updates["actual_biomass_kg"] = biomass.FromCount(batch.CurrentQuantity, weight)
			updates["last_sampled_at"] = now
			updates["variance_g"] = variance.DiffG
			updates["variance_percent"] = variance.Percent
			updates["variance_significant"] = variance.Significant

		case types.OperationAdjustment:
			// Reconciliation: the delta moves between the live count and the
			// mortality counter so the population books keep summing to the
			// initial quantity. A shortfall books as uncounted losses, a
			// surplus reverses previously over-reported ones.
			newCurrent := batch.CurrentQuantity + in.Quantity
			newMortality := batch.TotalMortality - in.Quantity
			if newCurrent < 0 {
				return aggregates.ConservationError(fmt.Sprintf("adjustment of %d would drive current population of %d negative", in.Quantity, batch.CurrentQuantity))
			}
			if newMortality < 0 {
				return aggregates.ConservationError(fmt.Sprintf("adjustment of %+d exceeds recorded mortality of %d", in.Quantity, batch.TotalMortality))
			}
			updates["current_quantity"] = newCurrent
			updates["total_mortality"] = newMortality
			if batch.InitialQuantity > 0 {
				updates["mortality_rate"] = float64(newMortality) / float64(batch.InitialQuantity) * 100
			}
			mortalityBiomass := batch.MortalityBiomassKg
			if in.Quantity < 0 {
				mortalityBiomass += opBiomass
			} else {
				mortalityBiomass -= opBiomass
				if mortalityBiomass < 0 {
					mortalityBiomass = 0
				}
			}
			updates["mortality_biomass_kg"] = mortalityBiomass
		}

		ok, err := s.base.CASGuard.UpdateByVersion(dbc, "batch", batch.ID, batch.Version, updates)
		if err != nil {
			return err
		}
		if err := aggregates.RequireCASSuccess(ok, "batch was modified concurrently"); err != nil {
			return err
		}

		snap, err := s.rebuilder.rebuildTank(dbc, tenantID, in.TankID, now, triggerOperation)
		if err != nil {
			return err
		}
		result.Snapshot = snap

		if spec, ok := s.containers.Container(in.TankID); ok {
			containerType := types.ContainerType(spec.ContainerType)
			if containerType == "" {
				containerType = types.ContainerTank
			}
			if err := syncBatchLocation(dbc, s.repos, tenantID, in.BatchID, in.TankID, containerType, snap, now); err != nil {
				return err
			}
		}

		postState := containerStateOf(in.TankID, snap, in.BatchID, now)
		row, err := buildOperationRow(op, tenantID, in, detail, weight, opBiomass, preState, postState, now)
		if err != nil {
			return err
		}
		rows, err := s.repos.Operations.Create(dbc, []*types.TankOperation{row})
		if err != nil {
			return err
		}
		result.Operation = rows[0]

		result.Batch, err = s.repos.Batches.GetByID(dbc, tenantID, in.BatchID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Recorded operation",
		"batch_id", in.BatchID,
		"tank_id", in.TankID,
		"type", in.Type,
		"quantity", in.Quantity,
		"current_quantity", result.Batch.CurrentQuantity)
	return result, nil
}

// Transfer moves part of a batch between two tanks as one transaction: two
// linked ledger entries sharing a transfer group, two operation records, both
// snapshots rebuilt. If any leg fails nothing commits, so the population books
// never see a half-applied move. Oversized transfers and a critical
// destination density come back as warnings, not failures.
func (s *operationService) Transfer(ctx context.Context, tenantID uuid.UUID, in TransferInput) (*TransferResult, error) {
	const op = "Operation.Transfer"
	if in.Quantity <= 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, "quantity must be positive", nil)
	}
	if in.AvgWeightG < 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, "avg weight cannot be negative", nil)
	}
	if in.SourceTankID == in.DestTankID {
		return nil, production.NewError(production.CodeInvalidArgument, op, "source and destination tanks must differ", nil)
	}
	sourceSpec, ok := s.containers.Container(in.SourceTankID)
	if !ok {
		return nil, production.NewError(production.CodeNotFound, op, "source container not found or inactive", nil)
	}
	destSpec, ok := s.containers.Container(in.DestTankID)
	if !ok {
		return nil, production.NewError(production.CodeNotFound, op, "destination container not found or inactive", nil)
	}
	if destSpec.VolumeM3 <= 0 {
		return nil, production.NewError(production.CodeInvalidArgument, op, fmt.Sprintf("container %s has no usable volume", destSpec.Name), nil)
	}

	result := &TransferResult{}
	var alert *redis.CapacityAlert
	err := aggregates.ExecuteWriteWithRetry(ctx, s.base, op, func(dbc dbctx.Context) error {
		*result = TransferResult{}
		alert = nil

		batch, err := s.repos.Batches.GetForUpdate(dbc, tenantID, in.BatchID)
		if err != nil {
			return err
		}
		if batch.Status.IsTerminal() {
			return production.NewError(production.CodeInvalidState, op, fmt.Sprintf("batch is %s and can no longer be transferred", batch.Status), nil)
		}
		if in.Quantity > batch.CurrentQuantity {
			return aggregates.ConservationError(fmt.Sprintf("transfer of %d exceeds current population of %d", in.Quantity, batch.CurrentQuantity))
		}

		// Lock both snapshots in a stable order so two opposite transfers
		// cannot deadlock.
		first, second := in.SourceTankID, in.DestTankID
		if strings.Compare(second.String(), first.String()) < 0 {
			first, second = second, first
		}
		locked := map[uuid.UUID]*types.TankSnapshot{}
		for _, tankID := range []uuid.UUID{first, second} {
			snap, err := s.repos.Snapshots.GetForUpdate(dbc, tenantID, tankID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			locked[tankID] = snap
		}
		sourcePrior, destPrior := locked[in.SourceTankID], locked[in.DestTankID]

		now := time.Now().UTC()
		weight := in.AvgWeightG
		if weight == 0 {
			weight = batch.CurrentAvgWeightG()
		}
		transferBiomass := biomass.FromCount(in.Quantity, weight)

		sourceBiomass, destBiomass := 0.0, 0.0
		if sourcePrior != nil {
			sourceBiomass = sourcePrior.TotalBiomassKg
		}
		if destPrior != nil {
			destBiomass = destPrior.TotalBiomassKg
		}
		projection := biomass.ProjectTransfer(sourceBiomass, sourceSpec.VolumeM3, destBiomass, destSpec.VolumeM3, transferBiomass, destSpec.MaxDensityKgM3)
		result.Warnings = projection.Warnings
		if destSpec.MaxDensityKgM3 > 0 && projection.DestDensityKgM3 >= destSpec.MaxDensityKgM3 {
			alert = &redis.CapacityAlert{
				TenantID:            tenantID,
				TankID:              in.DestTankID,
				BatchID:             in.BatchID,
				Severity:            redis.SeverityCritical,
				DensityKgM3:         projection.DestDensityKgM3,
				MaxDensityKgM3:      destSpec.MaxDensityKgM3,
				CapacityUsedPercent: biomass.CapacityUsedPercent(projection.DestDensityKgM3, destSpec.MaxDensityKgM3),
				Message:             fmt.Sprintf("transfer brings %s to %.2f kg/m3, at or above its maximum of %.2f kg/m3", destSpec.Name, projection.DestDensityKgM3, destSpec.MaxDensityKgM3),
				OccurredAt:          now,
			}
		}

		groupID := uuid.New()
		sourceID := in.SourceTankID
		if _, err := s.repos.Allocations.Create(dbc, []*types.TankAllocation{
			{
				TenantID:        tenantID,
				BatchID:         in.BatchID,
				TankID:          in.SourceTankID,
				AllocationType:  types.AllocationTransferOut,
				Quantity:        in.Quantity,
				AvgWeightG:      weight,
				BiomassKg:       transferBiomass,
				DensityKgM3:     projection.SourceDensityKgM3,
				TransferGroupID: &groupID,
				AllocatedBy:     in.ActorID,
				AllocatedAt:     now,
			},
			{
				TenantID:        tenantID,
				BatchID:         in.BatchID,
				TankID:          in.DestTankID,
				AllocationType:  types.AllocationTransferIn,
				Quantity:        in.Quantity,
				AvgWeightG:      weight,
				BiomassKg:       transferBiomass,
				DensityKgM3:     projection.DestDensityKgM3,
				SourceTankID:    &sourceID,
				TransferGroupID: &groupID,
				AllocatedBy:     in.ActorID,
				AllocatedAt:     now,
			},
		}); err != nil {
			return err
		}

		sourcePre := containerStateOf(in.SourceTankID, sourcePrior, in.BatchID, now)
		destPre := containerStateOf(in.DestTankID, destPrior, in.BatchID, now)

		sourceSnap, err := s.rebuilder.rebuildTank(dbc, tenantID, in.SourceTankID, now, triggerTransfer)
		if err != nil {
			return err
		}
		destSnap, err := s.rebuilder.rebuildTank(dbc, tenantID, in.DestTankID, now, triggerTransfer)
		if err != nil {
			return err
		}
		result.SourceSnapshot = sourceSnap
		result.DestSnapshot = destSnap

		sourceType := types.ContainerType(sourceSpec.ContainerType)
		if sourceType == "" {
			sourceType = types.ContainerTank
		}
		destType := types.ContainerType(destSpec.ContainerType)
		if destType == "" {
			destType = types.ContainerTank
		}
		if err := syncBatchLocation(dbc, s.repos, tenantID, in.BatchID, in.SourceTankID, sourceType, sourceSnap, now); err != nil {
			return err
		}
		if err := syncBatchLocation(dbc, s.repos, tenantID, in.BatchID, in.DestTankID, destType, destSnap, now); err != nil {
			return err
		}

		destID := in.DestTankID
		detail, err := marshalJSON(op, types.TransferDetail{
			SourceTankID:      &sourceID,
			DestinationTankID: &destID,
			TransferGroupID:   groupID,
			Notes:             in.Notes,
		})
		if err != nil {
			return err
		}
		outPre, err := marshalJSON(op, sourcePre)
		if err != nil {
			return err
		}
		outPost, err := marshalJSON(op, containerStateOf(in.SourceTankID, sourceSnap, in.BatchID, now))
		if err != nil {
			return err
		}
		inPre, err := marshalJSON(op, destPre)
		if err != nil {
			return err
		}
		inPost, err := marshalJSON(op, containerStateOf(in.DestTankID, destSnap, in.BatchID, now))
		if err != nil {
			return err
		}

		rows, err := s.repos.Operations.Create(dbc, []*types.TankOperation{
			{
				TenantID:      tenantID,
				BatchID:       in.BatchID,
				TankID:        in.SourceTankID,
				OperationType: types.OperationTransferOut,
				Quantity:      in.Quantity,
				AvgWeightG:    weight,
				BiomassKg:     transferBiomass,
				Detail:        detail,
				PreState:      outPre,
				PostState:     outPost,
				RecordedBy:    in.ActorID,
				RecordedAt:    now,
			},
			{
				TenantID:      tenantID,
				BatchID:       in.BatchID,
				TankID:        in.DestTankID,
				OperationType: types.OperationTransferIn,
				Quantity:      in.Quantity,
				AvgWeightG:    weight,
				BiomassKg:     transferBiomass,
				Detail:        detail,
				PreState:      inPre,
				PostState:     inPost,
				RecordedBy:    in.ActorID,
				RecordedAt:    now,
			},
		})
		if err != nil {
			return err
		}
		result.TransferGroupID = groupID
		result.OutOperation = rows[0]
		result.InOperation = rows[1]

		// The two legs cancel out on the batch counters; the CAS bump still
		// serializes this transfer against every other writer on the batch.
		ok, err := s.base.CASGuard.UpdateByVersion(dbc, "batch", batch.ID, batch.Version, map[string]any{"updated_at": now})
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
			s.log.Warn("Failed to publish capacity alert", "error", pubErr, "tank_id", in.DestTankID)
		}
	}

	s.log.Info("Transferred batch between tanks",
		"batch_id", in.BatchID,
		"source_tank_id", in.SourceTankID,
		"dest_tank_id", in.DestTankID,
		"quantity", in.Quantity,
		"transfer_group_id", result.TransferGroupID,
		"warnings", len(result.Warnings))
	return result, nil
}

func (s *operationService) ListByBatch(ctx context.Context, tenantID, batchID uuid.UUID, filter repos.OperationFilter) ([]*types.TankOperation, error) {
	const op = "Operation.ListByBatch"
	rows, err := s.repos.Operations.ListByBatch(dbctx.Context{Ctx: ctx}, tenantID, batchID, filter)
	if err != nil {
		return nil, production.Wrap(production.CodeInternal, op, err)
	}
	return rows, nil
}

// validateOperationDetail enforces the per-type argument shape and returns the
// detail payload that will be serialized onto the ledger entry.
func validateOperationDetail(op string, in RecordOperationInput) (any, error) {
	switch in.Type {
	case types.OperationMortality:
		if in.Quantity <= 0 {
			return nil, production.NewError(production.CodeInvalidArgument, op, "quantity must be positive", nil)
		}
		if in.Mortality == nil || strings.TrimSpace(in.Mortality.Reason) == "" {
			return nil, production.NewError(production.CodeInvalidArgument, op, "mortality requires a reason", nil)
		}
		return in.Mortality, nil
	case types.OperationCull:
		if in.Quantity <= 0 {
			return nil, production.NewError(production.CodeInvalidArgument, op, "quantity must be positive", nil)
		}
		if in.Cull == nil || strings.TrimSpace(in.Cull.Reason) == "" {
			return nil, production.NewError(production.CodeInvalidArgument, op, "cull requires a reason", nil)
		}
		return in.Cull, nil
	case types.OperationHarvest:
		if in.Quantity <= 0 {
			return nil, production.NewError(production.CodeInvalidArgument, op, "quantity must be positive", nil)
		}
		if in.Harvest != nil {
			return in.Harvest, nil
		}
		return &types.HarvestDetail{}, nil
	case types.OperationSampling:
		if in.Quantity < 0 {
			return nil, production.NewError(production.CodeInvalidArgument, op, "sample size cannot be negative", nil)
		}
		if in.AvgWeightG <= 0 {
			return nil, production.NewError(production.CodeInvalidArgument, op, "sampling requires a positive avg weight", nil)
		}
		if in.Sampling != nil {
			return in.Sampling, nil
		}
		return &types.SamplingDetail{SampleSize: in.Quantity}, nil
	case types.OperationAdjustment:
		if in.Quantity == 0 {
			return nil, production.NewError(production.CodeInvalidArgument, op, "adjustment quantity cannot be zero", nil)
		}
		if in.Adjustment == nil || strings.TrimSpace(in.Adjustment.Reason) == "" {
			return nil, production.NewError(production.CodeInvalidArgument, op, "adjustment requires a reason", nil)
		}
		return in.Adjustment, nil
	default:
		return nil, production.NewError(production.CodeInvalidArgument, op, fmt.Sprintf("unsupported operation type %q", in.Type), nil)
	}
}

func buildOperationRow(op string, tenantID uuid.UUID, in RecordOperationInput, detail any, weight, biomassKg float64, pre, post types.ContainerState, now time.Time) (*types.TankOperation, error) {
	detailJSON, err := marshalJSON(op, detail)
	if err != nil {
		return nil, err
	}
	preJSON, err := marshalJSON(op, pre)
	if err != nil {
		return nil, err
	}
	postJSON, err := marshalJSON(op, post)
	if err != nil {
		return nil, err
	}
	return &types.TankOperation{
		TenantID:      tenantID,
		BatchID:       in.BatchID,
		TankID:        in.TankID,
		OperationType: in.Type,
		Quantity:      in.Quantity,
		AvgWeightG:    weight,
		BiomassKg:     biomassKg,
		Detail:        detailJSON,
		PreState:      preJSON,
		PostState:     postJSON,
		RecordedBy:    in.ActorID,
		RecordedAt:    now,
	}, nil
}

// containerStateOf reduces a snapshot to the point-in-time state stored on
// operation rows. A nil snapshot (tank never stocked) yields a zeroed state.
func containerStateOf(tankID uuid.UUID, snap *types.TankSnapshot, batchID uuid.UUID, at time.Time) types.ContainerState {
	state := types.ContainerState{TankID: tankID, CapturedAt: at}
	if snap == nil {
		return state
	}
	state.Quantity = snap.TotalQuantity
	state.BiomassKg = snap.TotalBiomassKg
	state.AvgWeightG = snap.AvgWeightG
	state.DensityKgM3 = snap.DensityKgM3
	state.IsMixedBatch = snap.IsMixedBatch
	state.BatchQuantity, _ = snapshotBatchShare(snap, batchID)
	return state
}

func marshalJSON(op string, v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, production.Wrap(production.CodeInternal, op, err)
	}
	return raw, nil
}
