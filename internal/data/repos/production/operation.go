package production

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

// OperationFilter narrows operation-history listings.
type OperationFilter struct {
	Types  []types.OperationType
	TankID *uuid.UUID
	Limit  int
}

type OperationRepo interface {
	Create(dbc dbctx.Context, rows []*types.TankOperation) ([]*types.TankOperation, error)
	ListByBatch(dbc dbctx.Context, tenantID, batchID uuid.UUID, filter OperationFilter) ([]*types.TankOperation, error)
}

type operationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOperationRepo(db *gorm.DB, baseLog *logger.Logger) OperationRepo {
	return &operationRepo{db: db, log: baseLog.With("repo", "OperationRepo")}
}

func (r *operationRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *operationRepo) Create(dbc dbctx.Context, rows []*types.TankOperation) ([]*types.TankOperation, error) {
	if len(rows) == 0 {
		return []*types.TankOperation{}, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *operationRepo) ListByBatch(dbc dbctx.Context, tenantID, batchID uuid.UUID, filter OperationFilter) ([]*types.TankOperation, error) {
	out := []*types.TankOperation{}
	if tenantID == uuid.Nil || batchID == uuid.Nil {
		return out, nil
	}
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	q := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.TankOperation{}).
		Scopes(tenantScope(tenantID)).
		Where("batch_id = ?", batchID)
	if len(filter.Types) > 0 {
		q = q.Where("operation_type IN ?", filter.Types)
	}
	if filter.TankID != nil && *filter.TankID != uuid.Nil {
		q = q.Where("tank_id = ?", *filter.TankID)
	}
	if err := q.Order("recorded_at DESC, created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
