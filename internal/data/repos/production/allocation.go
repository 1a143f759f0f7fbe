package production

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type AllocationRepo interface {
	Create(dbc dbctx.Context, rows []*types.TankAllocation) ([]*types.TankAllocation, error)
	ListByBatch(dbc dbctx.Context, tenantID, batchID uuid.UUID) ([]*types.TankAllocation, error)
	ListActiveByTank(dbc dbctx.Context, tenantID, tankID uuid.UUID) ([]*types.TankAllocation, error)
	TankIDsForBatch(dbc dbctx.Context, tenantID, batchID uuid.UUID) ([]uuid.UUID, error)
}

type allocationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAllocationRepo(db *gorm.DB, baseLog *logger.Logger) AllocationRepo {
	return &allocationRepo{db: db, log: baseLog.With("repo", "AllocationRepo")}
}

func (r *allocationRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *allocationRepo) Create(dbc dbctx.Context, rows []*types.TankAllocation) ([]*types.TankAllocation, error) {
	if len(rows) == 0 {
		return []*types.TankAllocation{}, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *allocationRepo) ListByBatch(dbc dbctx.Context, tenantID, batchID uuid.UUID) ([]*types.TankAllocation, error) {
	out := []*types.TankAllocation{}
	if tenantID == uuid.Nil || batchID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.TankAllocation{}).
		Scopes(tenantScope(tenantID)).
		Where("batch_id = ?", batchID).
		Order("allocated_at ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveByTank returns the non-deleted ledger rows for one tank, oldest
// first. This is the input of every snapshot rebuild.
func (r *allocationRepo) ListActiveByTank(dbc dbctx.Context, tenantID, tankID uuid.UUID) ([]*types.TankAllocation, error) {
	out := []*types.TankAllocation{}
	if tenantID == uuid.Nil || tankID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.TankAllocation{}).
		Scopes(tenantScope(tenantID)).
		Where("tank_id = ?", tankID).
		Order("allocated_at ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *allocationRepo) TankIDsForBatch(dbc dbctx.Context, tenantID, batchID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if tenantID == uuid.Nil || batchID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.TankAllocation{}).
		Scopes(tenantScope(tenantID)).
		Where("batch_id = ?", batchID).
		Distinct().
		Pluck("tank_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
