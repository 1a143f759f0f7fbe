package production

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/tidecrest/aquafarm-backend/internal/domain"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type SnapshotRepo interface {
	GetByTank(dbc dbctx.Context, tenantID, tankID uuid.UUID) (*types.TankSnapshot, error)
	GetForUpdate(dbc dbctx.Context, tenantID, tankID uuid.UUID) (*types.TankSnapshot, error)
	Upsert(dbc dbctx.Context, snap *types.TankSnapshot) error
}

type snapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) SnapshotRepo {
	return &snapshotRepo{db: db, log: baseLog.With("repo", "SnapshotRepo")}
}

func (r *snapshotRepo) dbx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return r.db
}

func (r *snapshotRepo) GetByTank(dbc dbctx.Context, tenantID, tankID uuid.UUID) (*types.TankSnapshot, error) {
	if tenantID == uuid.Nil || tankID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	var out types.TankSnapshot
	if err := r.dbx(dbc).WithContext(dbc.Ctx).
		Scopes(tenantScope(tenantID)).
		Where("tank_id = ?", tankID).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate locks the snapshot row, serializing rebuilds per tank. Requires
// a transaction. Returns gorm.ErrRecordNotFound when the tank has never been
// allocated to.
func (r *snapshotRepo) GetForUpdate(dbc dbctx.Context, tenantID, tankID uuid.UUID) (*types.TankSnapshot, error) {
	if dbc.Tx == nil {
		return nil, fmt.Errorf("GetForUpdate requires dbc.Tx")
	}
	if tenantID == uuid.Nil || tankID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	var out types.TankSnapshot
	q := forUpdate(dbc.Tx.WithContext(dbc.Ctx)).
		Scopes(tenantScope(tenantID)).
		Where("tank_id = ?", tankID)
	if err := q.Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// Upsert writes the rebuilt snapshot keyed by (tenant_id, tank_id). The row is
// fully replaced: snapshots are projections, never patched.
func (r *snapshotRepo) Upsert(dbc dbctx.Context, snap *types.TankSnapshot) error {
	if snap == nil || snap.TenantID == uuid.Nil || snap.TankID == uuid.Nil {
		return fmt.Errorf("missing snapshot identity")
	}
	snap.UpdatedAt = time.Now().UTC()
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = snap.UpdatedAt
	}
	return r.dbx(dbc).WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "tenant_id"},
				{Name: "tank_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"primary_batch_id", "total_quantity", "total_biomass_kg", "avg_weight_g",
				"density_kg_m3", "is_mixed_batch", "batch_details", "capacity_used_percent",
				"is_over_capacity", "last_allocation_at", "last_operation_at", "updated_at",
			}),
		}).
		Create(snap).Error
}
