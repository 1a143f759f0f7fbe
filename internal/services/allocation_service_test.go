package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tidecrest/aquafarm-backend/internal/clients/redis"
	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
	"github.com/tidecrest/aquafarm-backend/internal/domain/reference"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
)

func TestAllocateActivatesQuarantinedBatch(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 10000, 5)
	require.Equal(t, types.StatusQuarantine, batch.Status)

	res := env.allocate(t, batch.ID, tankA1, 10000, 5)

	require.Equal(t, types.StatusActive, res.Batch.Status)
	require.False(t, res.Batch.StatusChangedAt.Before(batch.StatusChangedAt))
	require.Greater(t, res.Batch.Version, batch.Version)

	// A second allocation must not touch the status again.
	second := env.allocate(t, batch.ID, tankA2, 100, 5)
	require.Equal(t, types.StatusActive, second.Batch.Status)
}

func TestAllocateBuildsSnapshot(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 10000, 5)

	res := env.allocate(t, batch.ID, tankA1, 10000, 5)

	require.Equal(t, types.AllocationInitial, res.Allocation.AllocationType)
	require.InDelta(t, 50.0, res.Allocation.BiomassKg, 0.001)
	require.InDelta(t, 0.5, res.Allocation.DensityKgM3, 0.001)

	snap := res.Snapshot
	require.Equal(t, tankA1, snap.TankID)
	require.Equal(t, 10000, snap.TotalQuantity)
	require.InDelta(t, 50.0, snap.TotalBiomassKg, 0.001)
	require.InDelta(t, 5.0, snap.AvgWeightG, 0.001)
	require.InDelta(t, 0.5, snap.DensityKgM3, 0.001)
	require.False(t, snap.IsMixedBatch)
	require.False(t, snap.IsOverCapacity)
	require.NotNil(t, snap.PrimaryBatchID)
	require.Equal(t, batch.ID, *snap.PrimaryBatchID)
	require.NotNil(t, snap.LastAllocationAt)

	var details []types.SnapshotBatchDetail
	require.NoError(t, json.Unmarshal(snap.BatchDetails, &details))
	require.Len(t, details, 1)
	require.Equal(t, batch.ID, details[0].BatchID)
	require.Equal(t, "B-2025-001", details[0].BatchNumber)
	require.InDelta(t, 100.0, details[0].Percent, 0.001)
}

func TestAllocateMixedBatchShares(t *testing.T) {
	env := newTestEnv(t)
	big := env.createBatch(t, "B-2025-001", 6000, 10)
	small := env.createBatch(t, "B-2025-002", 4000, 10)

	env.allocate(t, big.ID, tankA1, 6000, 10)
	res := env.allocate(t, small.ID, tankA1, 4000, 10)

	snap := res.Snapshot
	require.True(t, snap.IsMixedBatch)
	require.Equal(t, 10000, snap.TotalQuantity)
	require.NotNil(t, snap.PrimaryBatchID)
	require.Equal(t, big.ID, *snap.PrimaryBatchID)

	var details []types.SnapshotBatchDetail
	require.NoError(t, json.Unmarshal(snap.BatchDetails, &details))
	require.Len(t, details, 2)
	require.Equal(t, big.ID, details[0].BatchID)
	require.InDelta(t, 60.0, details[0].Percent, 0.001)
	require.Equal(t, small.ID, details[1].BatchID)
	require.InDelta(t, 40.0, details[1].Percent, 0.001)
}

func TestAllocateCapacityWarningDoesNotBlock(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 26400, 100)

	// 2640 kg into 100 m3 lands at 26.4 kg/m3, past the tank's 25 maximum.
	res := env.allocate(t, batch.ID, tankA1, 26400, 100)

	require.NotEmpty(t, res.CapacityWarning)
	require.Contains(t, res.CapacityWarning, "maximum")
	require.True(t, res.Snapshot.IsOverCapacity)
	require.InDelta(t, 26.4, res.Snapshot.DensityKgM3, 0.001)
	require.InDelta(t, 105.6, res.Snapshot.CapacityUsedPercent, 0.001)

	// The warning is advisory: the ledger entry is still written.
	rows, err := env.allocations.ListByBatch(context.Background(), env.tenantID, batch.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestAllocateWarnsAboveOptimalBand(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 22000, 100)

	// 22 kg/m3 sits above the 10-20 optimal band but below the 25 maximum.
	res := env.allocate(t, batch.ID, tankA1, 22000, 100)

	require.NotEmpty(t, res.CapacityWarning)
	require.Contains(t, res.CapacityWarning, "optimal")
	require.False(t, res.Snapshot.IsOverCapacity)
}

func TestAllocateValidation(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 10000, 5)

	cases := []struct {
		name string
		in   AllocateInput
		code production.ErrorCode
	}{
		{
			name: "zero quantity",
			in:   AllocateInput{BatchID: batch.ID, TankID: tankA1, Quantity: 0, AvgWeightG: 5},
			code: production.CodeInvalidArgument,
		},
		{
			name: "negative quantity",
			in:   AllocateInput{BatchID: batch.ID, TankID: tankA1, Quantity: -5, AvgWeightG: 5},
			code: production.CodeInvalidArgument,
		},
		{
			name: "zero weight",
			in:   AllocateInput{BatchID: batch.ID, TankID: tankA1, Quantity: 100, AvgWeightG: 0},
			code: production.CodeInvalidArgument,
		},
		{
			name: "outbound type",
			in:   AllocateInput{BatchID: batch.ID, TankID: tankA1, Quantity: 100, AvgWeightG: 5, Type: types.AllocationTransferOut},
			code: production.CodeInvalidArgument,
		},
		{
			name: "unknown type",
			in:   AllocateInput{BatchID: batch.ID, TankID: tankA1, Quantity: 100, AvgWeightG: 5, Type: "SIDEWAYS"},
			code: production.CodeInvalidArgument,
		},
		{
			name: "unknown tank",
			in:   AllocateInput{BatchID: batch.ID, TankID: uuid.New(), Quantity: 100, AvgWeightG: 5},
			code: production.CodeNotFound,
		},
		{
			name: "inactive tank",
			in:   AllocateInput{BatchID: batch.ID, TankID: tankR9, Quantity: 100, AvgWeightG: 5},
			code: production.CodeNotFound,
		},
		{
			name: "unknown batch",
			in:   AllocateInput{BatchID: uuid.New(), TankID: tankA1, Quantity: 100, AvgWeightG: 5},
			code: production.CodeNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.ActorID = env.actorID
			_, err := env.allocations.Allocate(context.Background(), env.tenantID, tc.in)
			requireCode(t, err, tc.code)
		})
	}
}

func TestAllocateTerminalBatchRejected(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 10000, 5)
	_, err := env.batches.Cancel(context.Background(), env.tenantID, batch.ID, "hatchery recall")
	require.NoError(t, err)

	_, err = env.allocations.Allocate(context.Background(), env.tenantID, AllocateInput{
		BatchID:    batch.ID,
		TankID:     tankA1,
		Quantity:   100,
		AvgWeightG: 5,
		ActorID:    env.actorID,
	})
	requireCode(t, err, production.CodeInvalidState)
}

// fixedContainers is a ContainerDirectory stub for specs the shipped catalog
// cannot represent.
type fixedContainers map[uuid.UUID]reference.ContainerSpec

func (f fixedContainers) Container(id uuid.UUID) (*reference.ContainerSpec, bool) {
	spec, ok := f[id]
	if !ok {
		return nil, false
	}
	return &spec, true
}

func TestAllocateRejectsZeroVolumeContainer(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 10000, 5)

	drained := uuid.New()
	svc := NewAllocationService(AllocationServiceDeps{
		Base:  env.base,
		Repos: env.repos,
		Containers: fixedContainers{
			drained: {ContainerID: drained, Name: "Drained Tank", ContainerType: "TANK", IsActive: true},
		},
		Alerts: redis.NewNoopAlertBus(),
	})

	_, err := svc.Allocate(context.Background(), env.tenantID, AllocateInput{
		BatchID:    batch.ID,
		TankID:     drained,
		Quantity:   100,
		AvgWeightG: 5,
		ActorID:    env.actorID,
	})
	requireCode(t, err, production.CodeInvalidArgument)
}

func TestAllocateTracksBatchLocation(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 10000, 5)
	env.allocate(t, batch.ID, tankA1, 10000, 5)

	loc, err := env.repos.Locations.Current(dbctx.Context{Ctx: context.Background()}, env.tenantID, batch.ID, tankA1)
	require.NoError(t, err)
	require.NotNil(t, loc)
	require.True(t, loc.IsCurrentLocation)
	require.Equal(t, 10000, loc.Quantity)
	require.InDelta(t, 50.0, loc.BiomassKg, 0.001)
	require.Nil(t, loc.ExitedAt)
}

func TestListLocationsKeepsMovementHistory(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 10000, 5)
	env.allocate(t, batch.ID, tankA1, 10000, 5)

	// Moving everything out closes the first assignment.
	_, err := env.operations.Transfer(context.Background(), env.tenantID, TransferInput{
		BatchID:      batch.ID,
		SourceTankID: tankA1,
		DestTankID:   tankA2,
		Quantity:     10000,
		ActorID:      env.actorID,
	})
	require.NoError(t, err)

	current, err := env.allocations.ListLocations(context.Background(), env.tenantID, batch.ID, true)
	require.NoError(t, err)
	require.Len(t, current, 1)
	require.Equal(t, tankA2, current[0].ContainerID)
	require.Equal(t, 10000, current[0].Quantity)

	all, err := env.allocations.ListLocations(context.Background(), env.tenantID, batch.ID, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	byContainer := map[uuid.UUID]*types.BatchLocation{}
	for _, loc := range all {
		byContainer[loc.ContainerID] = loc
	}
	vacated := byContainer[tankA1]
	require.NotNil(t, vacated)
	require.False(t, vacated.IsCurrentLocation)
	require.NotNil(t, vacated.ExitedAt)
	require.Zero(t, vacated.Quantity)
}

func TestGetTankSnapshotEmptyTank(t *testing.T) {
	env := newTestEnv(t)

	snap, err := env.snapshots.GetTankSnapshot(context.Background(), env.tenantID, tankA2)
	require.NoError(t, err)
	require.Equal(t, tankA2, snap.TankID)
	require.True(t, snap.IsEmpty())
	require.Zero(t, snap.TotalBiomassKg)

	_, err = env.snapshots.GetTankSnapshot(context.Background(), env.tenantID, uuid.New())
	requireCode(t, err, production.CodeNotFound)
}

func TestGetTankDensityClassification(t *testing.T) {
	env := newTestEnv(t)
	batch := env.createBatch(t, "B-2025-001", 26400, 100)
	env.allocate(t, batch.ID, tankA1, 26400, 100)

	report, err := env.snapshots.GetTankDensity(context.Background(), env.tenantID, tankA1)
	require.NoError(t, err)
	require.Equal(t, "Grow-out tank A1", report.TankName)
	require.InDelta(t, 26.4, report.DensityKgM3, 0.001)
	require.Equal(t, "critical", string(report.Classification))
	require.True(t, report.IsOverCapacity)
	require.InDelta(t, 105.6, report.CapacityUsedPercent, 0.001)

	empty, err := env.snapshots.GetTankDensity(context.Background(), env.tenantID, tankA2)
	require.NoError(t, err)
	require.Equal(t, "optimal", string(empty.Classification))
	require.Zero(t, empty.DensityKgM3)
}
