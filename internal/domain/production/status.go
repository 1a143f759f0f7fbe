package production

// BatchStatus is the lifecycle state of a batch.
type BatchStatus string

const (
	StatusQuarantine BatchStatus = "QUARANTINE"
	StatusActive     BatchStatus = "ACTIVE"
	StatusHarvesting BatchStatus = "HARVESTING"
	StatusHarvested  BatchStatus = "HARVESTED"
	StatusClosed     BatchStatus = "CLOSED"
	StatusCancelled  BatchStatus = "CANCELLED"
)

var statusTransitions = map[BatchStatus][]BatchStatus{
	StatusQuarantine: {StatusActive, StatusClosed, StatusCancelled},
	StatusActive:     {StatusHarvesting, StatusHarvested, StatusClosed, StatusCancelled},
	StatusHarvesting: {StatusHarvested, StatusClosed},
	StatusHarvested:  {StatusClosed},
	StatusClosed:     {},
	StatusCancelled:  {},
}

// IsValid reports whether s is a known lifecycle status.
func (s BatchStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// IsTerminal reports whether no further population or status mutation is
// permitted. Harvested batches are not terminal: they can still be closed.
func (s BatchStatus) IsTerminal() bool {
	return s == StatusClosed || s == StatusCancelled
}

// CanTransition reports whether the status machine permits from -> to.
func CanTransition(from, to BatchStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
