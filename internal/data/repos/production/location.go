package production

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type LocationRepo interface {
	Create(dbc dbctx.Context, row *types.BatchLocation) (*types.BatchLocation, error)
	Current(dbc dbctx.Context, tenantID, batchID, containerID uuid.UUID) (*types.BatchLocation, error)
	ListByBatch(dbc dbctx.Context, tenantID, batchID uuid.UUID, currentOnly bool) ([]*types.BatchLocation, error)
	UpdateQuantities(dbc dbctx.Context, id uuid.UUID, quantity int, biomassKg float64) error
	Close(dbc dbctx.Context, id uuid.UUID, exitedAt time.Time) error
}

type locationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLocationRepo(db *gorm.DB, baseLog *logger.Logger) LocationRepo {
	return &locationRepo{db: db, log: baseLog.With("repo", "LocationRepo")}
}

func (r *locationRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *locationRepo) Create(dbc dbctx.Context, row *types.BatchLocation) (*types.BatchLocation, error) {
	if row == nil {
		return nil, errors.New("missing location")
	}
	if err := r.dbx(dbc).WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Current returns the live assignment of a batch in a container, or nil when
// the batch is not currently there.
func (r *locationRepo) Current(dbc dbctx.Context, tenantID, batchID, containerID uuid.UUID) (*types.BatchLocation, error) {
	if tenantID == uuid.Nil || batchID == uuid.Nil || containerID == uuid.Nil {
		return nil, nil
	}
	var out types.BatchLocation
	err := r.dbx(dbc).WithContext(dbc.Ctx).
		Scopes(tenantScope(tenantID)).
		Where("batch_id = ? AND container_id = ? AND is_current_location = ?", batchID, containerID, true).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *locationRepo) ListByBatch(dbc dbctx.Context, tenantID, batchID uuid.UUID, currentOnly bool) ([]*types.BatchLocation, error) {
	out := []*types.BatchLocation{}
	if tenantID == uuid.Nil || batchID == uuid.Nil {
		return out, nil
	}
	q := r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.BatchLocation{}).
		Scopes(tenantScope(tenantID)).
		Where("batch_id = ?", batchID)
	if currentOnly {
		q = q.Where("is_current_location = ?", true)
	}
	if err := q.Order("entered_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *locationRepo) UpdateQuantities(dbc dbctx.Context, id uuid.UUID, quantity int, biomassKg float64) error {
	if id == uuid.Nil {
		return gorm.ErrRecordNotFound
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.BatchLocation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   quantity,
			"biomass_kg": biomassKg,
			"updated_at": time.Now().UTC(),
		}).Error
}

// Close ends the assignment and zeroes its holdings so sums over location
// rows count only containers the stock is actually in.
func (r *locationRepo) Close(dbc dbctx.Context, id uuid.UUID, exitedAt time.Time) error {
	if id == uuid.Nil {
		return gorm.ErrRecordNotFound
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Model(&types.BatchLocation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_current_location": false,
			"quantity":            0,
			"biomass_kg":          0.0,
			"exited_at":           exitedAt,
			"updated_at":          time.Now().UTC(),
		}).Error
}
