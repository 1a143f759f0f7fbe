package domain

import (
	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
	"github.com/tidecrest/aquafarm-backend/internal/domain/reference"
)

type Batch = production.Batch
type TankAllocation = production.TankAllocation
type TankOperation = production.TankOperation
type TankSnapshot = production.TankSnapshot
type SnapshotBatchDetail = production.SnapshotBatchDetail
type BatchLocation = production.BatchLocation
type ContainerState = production.ContainerState

type BatchStatus = production.BatchStatus
type AllocationType = production.AllocationType
type OperationType = production.OperationType
type ContainerType = production.ContainerType

type MortalityDetail = production.MortalityDetail
type CullDetail = production.CullDetail
type TransferDetail = production.TransferDetail
type HarvestDetail = production.HarvestDetail
type SamplingDetail = production.SamplingDetail
type AdjustmentDetail = production.AdjustmentDetail

type SpeciesParams = reference.SpeciesParams
type ContainerSpec = reference.ContainerSpec
type SpeciesDirectory = reference.SpeciesDirectory
type ContainerDirectory = reference.ContainerDirectory

const (
	StatusQuarantine = production.StatusQuarantine
	StatusActive     = production.StatusActive
	StatusHarvesting = production.StatusHarvesting
	StatusHarvested  = production.StatusHarvested
	StatusClosed     = production.StatusClosed
	StatusCancelled  = production.StatusCancelled

	AllocationInitial     = production.AllocationInitial
	AllocationSplit       = production.AllocationSplit
	AllocationTransferIn  = production.AllocationTransferIn
	AllocationTransferOut = production.AllocationTransferOut
	AllocationGrading     = production.AllocationGrading
	AllocationHarvest     = production.AllocationHarvest

	OperationMortality   = production.OperationMortality
	OperationCull        = production.OperationCull
	OperationTransferOut = production.OperationTransferOut
	OperationTransferIn  = production.OperationTransferIn
	OperationHarvest     = production.OperationHarvest
	OperationSampling    = production.OperationSampling
	OperationAdjustment  = production.OperationAdjustment

	ContainerTank = production.ContainerTank
	ContainerPond = production.ContainerPond
)
