package production

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

// BatchFilter narrows batch listings.
type BatchFilter struct {
	Statuses  []types.BatchStatus
	SpeciesID string
	IsActive  *bool
	Limit     int
}

type BatchRepo interface {
	Create(dbc dbctx.Context, batch *types.Batch) (*types.Batch, error)
	GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Batch, error)
	GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.Batch, error)
	GetForUpdate(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Batch, error)
	GetByBatchNumber(dbc dbctx.Context, tenantID uuid.UUID, batchNumber string) (*types.Batch, error)
	List(dbc dbctx.Context, tenantID uuid.UUID, filter BatchFilter) ([]*types.Batch, error)
	ListActiveIDs(dbc dbctx.Context, tenantID uuid.UUID) ([]uuid.UUID, error)
	SoftDelete(dbc dbctx.Context, tenantID, id uuid.UUID) error
}

type batchRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBatchRepo(db *gorm.DB, baseLog *logger.Logger) BatchRepo {
	return &batchRepo{db: db, log: baseLog.With("repo", "BatchRepo")}
}

func (r *batchRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *batchRepo) Create(dbc dbctx.Context, batch *types.Batch) (*types.Batch, error) {
	if batch == nil {
		return nil, fmt.Errorf("missing batch")
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *batchRepo) GetByID(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Batch, error) {
	if tenantID == uuid.Nil || id == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	var out types.Batch
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *batchRepo) GetByIDs(dbc dbctx.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]*types.Batch, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var batches []*types.Batch
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Scopes(tenantScope(tenantID)).
		Where("id IN ?", ids).
		Find(&batches).Error; err != nil {
		r.log.Error("Failed to get batches by ids", "error", err, "count", len(ids))
		return nil, err
	}
	return batches, nil
}

// GetForUpdate reads the batch under a row lock. Requires a transaction.
func (r *batchRepo) GetForUpdate(dbc dbctx.Context, tenantID, id uuid.UUID) (*types.Batch, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("GetForUpdate requires dbc.Tx")
	}
	if tenantID == uuid.Nil || id == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	var out types.Batch
	q := forUpdate(dbc.Tx.WithContext(dbc.Ctx)).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id)
	if err := q.Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *batchRepo) GetByBatchNumber(dbc dbctx.Context, tenantID uuid.UUID, batchNumber string) (*types.Batch, error) {
	if tenantID == uuid.Nil || batchNumber == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var out types.Batch
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Scopes(tenantScope(tenantID)).
		Where("batch_number = ?", batchNumber).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *batchRepo) List(dbc dbctx.Context, tenantID uuid.UUID, filter BatchFilter) ([]*types.Batch, error) {
	out := []*types.Batch{}
	if tenantID == uuid.Nil {
		return out, nil
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.Batch{}).
		Scopes(tenantScope(tenantID))
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.SpeciesID != "" {
		q = q.Where("species_id = ?", filter.SpeciesID)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if err := q.Order("stocking_date DESC, batch_number DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *batchRepo) ListActiveIDs(dbc dbctx.Context, tenantID uuid.UUID) ([]uuid.UUID, error) {
	out := []uuid.UUID{}
	if tenantID == uuid.Nil {
		return out, nil
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.Batch{}).
		Scopes(tenantScope(tenantID)).
		Where("is_active = ?", true).
		Pluck("id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *batchRepo) SoftDelete(dbc dbctx.Context, tenantID, id uuid.UUID) error {
	if tenantID == uuid.Nil || id == uuid.Nil {
		return gorm.ErrRecordNotFound
	}
	res := r.dbx(dbc).WithContext(dbc.Ctx).
		Scopes(tenantScope(tenantID)).
		Where("id = ?", id).
		Delete(&types.Batch{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
