package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
	"github.com/tidecrest/aquafarm-backend/internal/platform/logger"
)

// BaseDeps bundles the shared machinery every aggregate write needs.
type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

// WithDefaults fills unset members from the DB handle.
func (d BaseDeps) WithDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	return d
}

const (
	maxWriteAttempts = 3
	retryBackoffBase = 20 * time.Millisecond
)

// ExecuteWrite runs fn inside one transaction, maps the outcome into the
// domain taxonomy, and records operation metrics.
func ExecuteWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.WithDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "aggregate.write"
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = errorStatus(mapped)
		if production.IsCode(mapped, production.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if production.IsCode(mapped, production.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

// ExecuteWriteWithRetry re-runs the whole write unit on optimistic-lock
// conflicts and transient failures. fn must be safe to re-run: it re-reads all
// state inside the transaction.
func ExecuteWriteWithRetry(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.WithDefaults()
	var err error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		err = ExecuteWrite(ctx, deps, op, fn)
		if err == nil {
			return nil
		}
		if !production.IsCode(err, production.CodeConflict) && !production.IsCode(err, production.CodeRetryable) {
			return err
		}
		if attempt == maxWriteAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return MapError(op, ctx.Err())
		case <-time.After(retryBackoffBase * time.Duration(attempt)):
		}
	}
	return err
}

func errorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(production.CodeOf(err)))
	if code == "" {
		return "failure"
	}
	return code
}
