package repos

import (
	"gorm.io/gorm"

	"github.com/tidecrest/aquafarm-backend/internal/data/repos/production"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

type BatchRepo = production.BatchRepo
type AllocationRepo = production.AllocationRepo
type OperationRepo = production.OperationRepo
type SnapshotRepo = production.SnapshotRepo
type LocationRepo = production.LocationRepo

type BatchFilter = production.BatchFilter
type OperationFilter = production.OperationFilter

func NewBatchRepo(db *gorm.DB, baseLog *logger.Logger) BatchRepo {
	return production.NewBatchRepo(db, baseLog)
}
func NewAllocationRepo(db *gorm.DB, baseLog *logger.Logger) AllocationRepo {
	return production.NewAllocationRepo(db, baseLog)
}
func NewOperationRepo(db *gorm.DB, baseLog *logger.Logger) OperationRepo {
	return production.NewOperationRepo(db, baseLog)
}
func NewSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) SnapshotRepo {
	return production.NewSnapshotRepo(db, baseLog)
}
func NewLocationRepo(db *gorm.DB, baseLog *logger.Logger) LocationRepo {
	return production.NewLocationRepo(db, baseLog)
}

// Set bundles every production repo for service wiring.
type Set struct {
	Batches     BatchRepo
	Allocations AllocationRepo
	Operations  OperationRepo
	Snapshots   SnapshotRepo
	Locations   LocationRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Batches:     NewBatchRepo(db, baseLog),
		Allocations: NewAllocationRepo(db, baseLog),
		Operations:  NewOperationRepo(db, baseLog),
		Snapshots:   NewSnapshotRepo(db, baseLog),
		Locations:   NewLocationRepo(db, baseLog),
	}
}
