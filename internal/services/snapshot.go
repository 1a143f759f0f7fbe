package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tidecrest/aquafarm-backend/internal/biomass"
	"github.com/tidecrest/aquafarm-backend/internal/data/repos"
	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
	"github.com/tidecrest/aquafarm-backend/internal/domain/reference"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type rebuildTrigger int

const (
	triggerAllocation rebuildTrigger = iota
	triggerOperation
	triggerTransfer
)

// snapshotRebuilder recomputes tank snapshots from the allocation ledger. It is
// shared by the allocation and operation services so every ledger write funnels
// through the same rebuild path.
type snapshotRebuilder struct {
	batches     repos.BatchRepo
	allocations repos.AllocationRepo
	snapshots   repos.SnapshotRepo
	containers  reference.ContainerDirectory
	log         *logger.Logger
}

// rebuildTank recomputes the snapshot for one tank from scratch inside the
// caller's transaction. The existing row is locked first so concurrent rebuilds
// of the same tank serialize; an empty tank zeroes the row instead of deleting
// it. Returns the persisted snapshot.
func (r *snapshotRebuilder) rebuildTank(dbc dbctx.Context, tenantID, tankID uuid.UUID, at time.Time, trigger rebuildTrigger) (*types.TankSnapshot, error) {
	const op = "snapshot.rebuildTank"

	prior, err := r.snapshots.GetForUpdate(dbc, tenantID, tankID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	rows, err := r.allocations.ListActiveByTank(dbc, tenantID, tankID)
	if err != nil {
		return nil, err
	}

	type batchSum struct {
		quantity  int
		biomassKg float64
	}
	sums := make(map[uuid.UUID]*batchSum)
	order := make([]uuid.UUID, 0, 4)
	for _, row := range rows {
		s, ok := sums[row.BatchID]
		if !ok {
			s = &batchSum{}
			sums[row.BatchID] = s
			order = append(order, row.BatchID)
		}
		if row.AllocationType.Outbound() {
			s.quantity -= row.Quantity
			s.biomassKg -= row.BiomassKg
		} else {
			s.quantity += row.Quantity
			s.biomassKg += row.BiomassKg
		}
	}

	ids := make([]uuid.UUID, 0, len(order))
	for _, id := range order {
		s := sums[id]
		if s.quantity < 0 {
			// Ledger corruption or an oversized transfer out; clamp so the
			// projection stays usable and leave the trail in the log.
			r.log.Warn("Allocation ledger sums negative for batch in tank",
				"tank_id", tankID, "batch_id", id, "quantity", s.quantity)
			s.quantity = 0
			s.biomassKg = 0
		}
		if s.biomassKg < 0 {
			s.biomassKg = 0
		}
		if s.quantity > 0 {
			ids = append(ids, id)
		}
	}

	numbers := make(map[uuid.UUID]string, len(ids))
	if len(ids) > 0 {
		batches, err := r.batches.GetByIDs(dbc, tenantID, ids)
		if err != nil {
			return nil, err
		}
		for _, b := range batches {
			numbers[b.ID] = b.BatchNumber
		}
	}

	details := make([]types.SnapshotBatchDetail, 0, len(ids))
	totalQuantity := 0
	totalBiomassKg := 0.0
	for _, id := range ids {
		s := sums[id]
		totalQuantity += s.quantity
		totalBiomassKg += s.biomassKg
		details = append(details, types.SnapshotBatchDetail{
			BatchID:     id,
			BatchNumber: numbers[id],
			Quantity:    s.quantity,
			BiomassKg:   s.biomassKg,
		})
	}
	for i := range details {
		if totalQuantity > 0 {
			details[i].Percent = float64(details[i].Quantity) / float64(totalQuantity) * 100
		}
	}
	sort.Slice(details, func(i, j int) bool {
		if details[i].Quantity != details[j].Quantity {
			return details[i].Quantity > details[j].Quantity
		}
		return details[i].BatchNumber < details[j].BatchNumber
	})

	snap := &types.TankSnapshot{
		TenantID:       tenantID,
		TankID:         tankID,
		TotalQuantity:  totalQuantity,
		TotalBiomassKg: totalBiomassKg,
		AvgWeightG:     biomass.AvgWeightG(totalBiomassKg, totalQuantity),
		IsMixedBatch:   len(details) > 1,
	}
	if len(details) > 0 {
		primary := details[0].BatchID
		snap.PrimaryBatchID = &primary
	}

	raw, err := json.Marshal(details)
	if err != nil {
		return nil, production.Wrap(production.CodeInternal, op, err)
	}
	snap.BatchDetails = raw

	if spec, ok := r.containers.Container(tankID); ok && spec.VolumeM3 > 0 {
		snap.DensityKgM3 = biomass.Density(totalBiomassKg, spec.VolumeM3)
		snap.CapacityUsedPercent = biomass.CapacityUsedPercent(snap.DensityKgM3, spec.MaxDensityKgM3)
		snap.IsOverCapacity = spec.MaxDensityKgM3 > 0 && snap.DensityKgM3 >= spec.MaxDensityKgM3
	} else {
		r.log.Warn("Container spec missing during snapshot rebuild", "tank_id", tankID)
	}

	if prior != nil {
		snap.LastAllocationAt = prior.LastAllocationAt
		snap.LastOperationAt = prior.LastOperationAt
	}
	ts := at
	switch trigger {
	case triggerAllocation:
		snap.LastAllocationAt = &ts
	case triggerOperation:
		snap.LastOperationAt = &ts
	case triggerTransfer:
		snap.LastAllocationAt = &ts
		snap.LastOperationAt = &ts
	}

	if err := r.snapshots.Upsert(dbc, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// snapshotBatchShare extracts one batch's quantity and biomass from a
// snapshot's per-batch details. Zeroes when the batch is not present.
func snapshotBatchShare(snap *types.TankSnapshot, batchID uuid.UUID) (int, float64) {
	if snap == nil || len(snap.BatchDetails) == 0 {
		return 0, 0
	}
	var details []types.SnapshotBatchDetail
	if err := json.Unmarshal(snap.BatchDetails, &details); err != nil {
		return 0, 0
	}
	for _, d := range details {
		if d.BatchID == batchID {
			return d.Quantity, d.BiomassKg
		}
	}
	return 0, 0
}

// TankDensity is the density report for one tank: the measured value plus the
// container's configured band and capacity headroom.
type TankDensity struct {
	TankID              uuid.UUID            `json:"tank_id"`
	TankName            string               `json:"tank_name"`
	DensityKgM3         float64              `json:"density_kg_m3"`
	Classification      biomass.DensityClass `json:"classification"`
	VolumeM3            float64              `json:"volume_m3"`
	MaxDensityKgM3      float64              `json:"max_density_kg_m3"`
	OptimalMinKgM3      float64              `json:"optimal_min_kg_m3"`
	OptimalMaxKgM3      float64              `json:"optimal_max_kg_m3"`
	CapacityUsedPercent float64              `json:"capacity_used_percent"`
	IsOverCapacity      bool                 `json:"is_over_capacity"`
	TotalBiomassKg      float64              `json:"total_biomass_kg"`
	TotalQuantity       int                  `json:"total_quantity"`
}

type SnapshotService interface {
	GetTankSnapshot(ctx context.Context, tenantID, tankID uuid.UUID) (*types.TankSnapshot, error)
	GetTankDensity(ctx context.Context, tenantID, tankID uuid.UUID) (*TankDensity, error)
}

type snapshotService struct {
	db         *gorm.DB
	log        *logger.Logger
	repos      repos.Set
	containers reference.ContainerDirectory
}

func NewSnapshotService(db *gorm.DB, log *logger.Logger, rp repos.Set, containers reference.ContainerDirectory) SnapshotService {
	serviceLog := log.With("service", "SnapshotService")
	return &snapshotService{db: db, log: serviceLog, repos: rp, containers: containers}
}

// GetTankSnapshot returns the materialized state of a tank. A tank that has
// never seen an allocation yields an empty snapshot rather than an error, as
// long as the container itself is known.
func (s *snapshotService) GetTankSnapshot(ctx context.Context, tenantID, tankID uuid.UUID) (*types.TankSnapshot, error) {
	const op = "SnapshotService.GetTankSnapshot"
	spec, ok := s.containers.Container(tankID)
	if !ok {
		return nil, production.NewError(production.CodeNotFound, op, "container not found", nil)
	}

	dbc := dbctx.Context{Ctx: ctx}
	snap, err := s.repos.Snapshots.GetByTank(dbc, tenantID, tankID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &types.TankSnapshot{TenantID: tenantID, TankID: spec.ContainerID}, nil
		}
		return nil, production.Wrap(production.CodeInternal, op, err)
	}
	return snap, nil
}

// GetTankDensity classifies the tank's stocking density against the
// container's configured band.
func (s *snapshotService) GetTankDensity(ctx context.Context, tenantID, tankID uuid.UUID) (*TankDensity, error) {
	const op = "SnapshotService.GetTankDensity"
	spec, ok := s.containers.Container(tankID)
	if !ok {
		return nil, production.NewError(production.CodeNotFound, op, "container not found", nil)
	}

	snap, err := s.GetTankSnapshot(ctx, tenantID, tankID)
	if err != nil {
		return nil, err
	}

	density := biomass.Density(snap.TotalBiomassKg, spec.VolumeM3)
	return &TankDensity{
		TankID:              spec.ContainerID,
		TankName:            spec.Name,
		DensityKgM3:         density,
		Classification:      biomass.Classify(density, spec.OptimalMinKgM3, spec.OptimalMaxKgM3, spec.MaxDensityKgM3),
		VolumeM3:            spec.VolumeM3,
		MaxDensityKgM3:      spec.MaxDensityKgM3,
		OptimalMinKgM3:      spec.OptimalMinKgM3,
		OptimalMaxKgM3:      spec.OptimalMaxKgM3,
		CapacityUsedPercent: biomass.CapacityUsedPercent(density, spec.MaxDensityKgM3),
		IsOverCapacity:      spec.MaxDensityKgM3 > 0 && density >= spec.MaxDensityKgM3,
		TotalBiomassKg:      snap.TotalBiomassKg,
		TotalQuantity:       snap.TotalQuantity,
	}, nil
}
