package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/tidecrest/aquafarm-backend/internal/clients/redis"
	"github.com/tidecrest/aquafarm-backend/internal/data/aggregates"
	"github.com/tidecrest/aquafarm-backend/internal/data/db"
	"github.com/tidecrest/aquafarm-backend/internal/data/repos"
	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
	"github.com/tidecrest/aquafarm-backend/internal/reference"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	require.NoError(t, err)
	return log
}

// Containers from the embedded default catalog.
var (
	tankA1 = uuid.MustParse("1f0b6d3a-8b1e-4a5c-9a5e-0d3f2a6c1001") // 100 m3, max 25, optimal 10-20
	tankA2 = uuid.MustParse("1f0b6d3a-8b1e-4a5c-9a5e-0d3f2a6c1002") // 100 m3, max 25, optimal 10-20
	tankN1 = uuid.MustParse("1f0b6d3a-8b1e-4a5c-9a5e-0d3f2a6c1003") // 20 m3, max 15
	tankR9 = uuid.MustParse("1f0b6d3a-8b1e-4a5c-9a5e-0d3f2a6c1006") // inactive
)

type testEnv struct {
	db          *gorm.DB
	base        aggregates.BaseDeps
	repos       repos.Set
	catalog     *reference.Catalog
	batches     BatchService
	allocations AllocationService
	operations  OperationService
	metrics     MetricsService
	snapshots   SnapshotService
	tenantID    uuid.UUID
	actorID     uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// One connection keeps every session on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrateAll(gdb))

	log := testLogger(t)
	catalog, err := reference.Load(log)
	require.NoError(t, err)

	rp := repos.NewSet(gdb, log)
	base := aggregates.BaseDeps{
		DB:       gdb,
		Log:      log,
		Runner:   aggregates.NewGormTxRunner(gdb),
		Hooks:    aggregates.NoopHooks(),
		CASGuard: aggregates.NewCASGuard(gdb),
	}

	return &testEnv{
		db:      gdb,
		base:    base,
		repos:   rp,
		catalog: catalog,
		batches: NewBatchService(BatchServiceDeps{
			Base:    base,
			Repos:   rp,
			Species: catalog,
		}),
		allocations: NewAllocationService(AllocationServiceDeps{
			Base:       base,
			Repos:      rp,
			Containers: catalog,
			Alerts:     redis.NewNoopAlertBus(),
		}),
		operations: NewOperationService(OperationServiceDeps{
			Base:       base,
			Repos:      rp,
			Containers: catalog,
			Alerts:     redis.NewNoopAlertBus(),
		}),
		metrics: NewMetricsService(MetricsServiceDeps{
			Base:    base,
			Repos:   rp,
			Species: catalog,
		}),
		snapshots: NewSnapshotService(gdb, log, rp, catalog),
		tenantID:  uuid.New(),
		actorID:   uuid.New(),
	}
}

// createBatch stocks a salmon batch and returns it.
func (e *testEnv) createBatch(t *testing.T, number string, quantity int, weightG float64) *types.Batch {
	t.Helper()
	batch, err := e.batches.Create(context.Background(), e.tenantID, CreateBatchInput{
		BatchNumber:       number,
		SpeciesID:         "atlantic_salmon",
		InitialQuantity:   quantity,
		InitialAvgWeightG: weightG,
	})
	require.NoError(t, err)
	return batch
}

// allocate stocks part of a batch into a tank.
func (e *testEnv) allocate(t *testing.T, batchID, tankID uuid.UUID, quantity int, weightG float64) *AllocateResult {
	t.Helper()
	res, err := e.allocations.Allocate(context.Background(), e.tenantID, AllocateInput{
		BatchID:    batchID,
		TankID:     tankID,
		Quantity:   quantity,
		AvgWeightG: weightG,
		ActorID:    e.actorID,
	})
	require.NoError(t, err)
	return res
}

// reload fetches the batch fresh from the database.
func (e *testEnv) reload(t *testing.T, batchID uuid.UUID) *types.Batch {
	t.Helper()
	batch, err := e.batches.GetByID(context.Background(), e.tenantID, batchID)
	require.NoError(t, err)
	return batch
}

func requireConservation(t *testing.T, b *types.Batch) {
	t.Helper()
	require.Truef(t, b.ConservationHolds(),
		"conservation broken: current=%d mortality=%d cull=%d harvested=%d initial=%d",
		b.CurrentQuantity, b.TotalMortality, b.CullCount, b.HarvestedQuantity, b.InitialQuantity)
}

func requireCode(t *testing.T, err error, code production.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equalf(t, code, production.CodeOf(err), "unexpected error code for %v", err)
}
