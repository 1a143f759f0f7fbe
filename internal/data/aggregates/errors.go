package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("aggregate validation")
	// ErrConservation indicates a population/biomass conservation violation.
	ErrConservation = errors.New("aggregate conservation violation")
	// ErrConflict indicates optimistic/concurrency conflict.
	ErrConflict = errors.New("aggregate conflict")
	// ErrRetryable indicates transient retryable failure.
	ErrRetryable = errors.New("aggregate retryable")
)

// ValidationError tags an error as validation failure.
func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

// ConservationError tags an error as a conservation violation.
func ConservationError(msg string) error {
	return errors.Join(ErrConservation, errors.New(strings.TrimSpace(msg)))
}

// ConflictError tags an error as conflict failure.
func ConflictError(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

// RetryableError tags an error as retryable failure.
func RetryableError(msg string) error {
	return errors.Join(ErrRetryable, errors.New(strings.TrimSpace(msg)))
}

// MapError maps infrastructure failures into the domain error taxonomy.
// Already-typed domain errors pass through untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var domErr *production.Error
	if errors.As(err, &domErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return production.Wrap(production.CodeInvalidArgument, op, err)
	case errors.Is(err, ErrConservation):
		return production.Wrap(production.CodeConservationViolation, op, err)
	case errors.Is(err, ErrConflict):
		return production.Wrap(production.CodeConflict, op, err)
	case errors.Is(err, ErrRetryable):
		return production.Wrap(production.CodeRetryable, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return production.Wrap(production.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return production.Wrap(production.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return production.Wrap(production.CodeConflict, op, err) // unique_violation
		case "23503":
			return production.Wrap(production.CodeInvalidArgument, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return production.Wrap(production.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"),
		strings.Contains(msg, "unique constraint"),
		strings.Contains(msg, "already exists"):
		return production.Wrap(production.CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "database is locked"),
		strings.Contains(msg, "temporar"):
		return production.Wrap(production.CodeRetryable, op, err)
	default:
		return production.Wrap(production.CodeInternal, op, err)
	}
}
