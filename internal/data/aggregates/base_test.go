package aggregates

import (
	"context"
	"testing"

	"github.com/tidecrest/aquafarm-backend/internal/data/aggregates/testutil"
	"github.com/tidecrest/aquafarm-backend/internal/domain/production"
	"github.com/tidecrest/aquafarm-backend/internal/platform/dbctx"
)

type passthroughTxRunner struct{}

func (passthroughTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(dbctx.Context{Ctx: ctx})
}

func TestExecuteWriteObservesSuccessStatus(t *testing.T) {
	hooks := &testutil.HooksRecorder{}

	err := ExecuteWrite(context.Background(), BaseDeps{
		Runner: passthroughTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.success", func(_ dbctx.Context) error { return nil })
	if err != nil {
		t.Fatalf("ExecuteWrite success: %v", err)
	}
	if len(hooks.Operations) != 1 {
		t.Fatalf("operations count: want=1 got=%d", len(hooks.Operations))
	}
	if hooks.Operations[0].Status != "success" {
		t.Fatalf("operation status: want=success got=%s", hooks.Operations[0].Status)
	}
}

func TestExecuteWriteObservesConservationStatus(t *testing.T) {
	hooks := &testutil.HooksRecorder{}

	err := ExecuteWrite(context.Background(), BaseDeps{
		Runner: passthroughTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.conservation", func(_ dbctx.Context) error {
		return ConservationError("population would go negative")
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !production.IsCode(err, production.CodeConservationViolation) {
		t.Fatalf("expected conservation code, got=%v", err)
	}
	if len(hooks.Operations) != 1 {
		t.Fatalf("operations count: want=1 got=%d", len(hooks.Operations))
	}
	if hooks.Operations[0].Status != string(production.CodeConservationViolation) {
		t.Fatalf("operation status: want=%s got=%s", production.CodeConservationViolation, hooks.Operations[0].Status)
	}
}

func TestExecuteWriteTracksConflictAndRetryCounters(t *testing.T) {
	t.Run("conflict", func(t *testing.T) {
		hooks := &testutil.HooksRecorder{}
		err := ExecuteWrite(context.Background(), BaseDeps{
			Runner: passthroughTxRunner{},
			Hooks:  hooks,
		}, "aggregate.test.conflict", func(_ dbctx.Context) error {
			return ConflictError("stale version")
		})
		if err == nil {
			t.Fatalf("expected error")
		}
		if !production.IsCode(err, production.CodeConflict) {
			t.Fatalf("expected conflict code, got=%v", err)
		}
		if len(hooks.Conflicts) != 1 || hooks.Conflicts[0] != "aggregate.test.conflict" {
			t.Fatalf("conflict hooks: %+v", hooks.Conflicts)
		}
		if len(hooks.Retries) != 0 {
			t.Fatalf("retry hooks should be empty, got=%+v", hooks.Retries)
		}
		if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(production.CodeConflict) {
			t.Fatalf("unexpected op status: %+v", hooks.Operations)
		}
	})

	t.Run("retryable", func(t *testing.T) {
		hooks := &testutil.HooksRecorder{}
		err := ExecuteWrite(context.Background(), BaseDeps{
			Runner: passthroughTxRunner{},
			Hooks:  hooks,
		}, "aggregate.test.retry", func(_ dbctx.Context) error {
			return RetryableError("temporary lock timeout")
		})
		if err == nil {
			t.Fatalf("expected error")
		}
		if !production.IsCode(err, production.CodeRetryable) {
			t.Fatalf("expected retryable code, got=%v", err)
		}
		if len(hooks.Retries) != 1 || hooks.Retries[0] != "aggregate.test.retry" {
			t.Fatalf("retry hooks: %+v", hooks.Retries)
		}
		if len(hooks.Conflicts) != 0 {
			t.Fatalf("conflict hooks should be empty, got=%+v", hooks.Conflicts)
		}
		if len(hooks.Operations) != 1 || hooks.Operations[0].Status != string(production.CodeRetryable) {
			t.Fatalf("unexpected op status: %+v", hooks.Operations)
		}
	})
}

func TestExecuteWriteWithRetrySucceedsOnSecondAttempt(t *testing.T) {
	hooks := &testutil.HooksRecorder{}
	attempts := 0

	err := ExecuteWriteWithRetry(context.Background(), BaseDeps{
		Runner: passthroughTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.retry_success", func(_ dbctx.Context) error {
		attempts++
		if attempts == 1 {
			return ConflictError("stale version")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success after retry, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("attempts: want=2 got=%d", attempts)
	}
	if len(hooks.Operations) != 2 {
		t.Fatalf("operations count: want=2 got=%d", len(hooks.Operations))
	}
	if hooks.Operations[1].Status != "success" {
		t.Fatalf("final status: want=success got=%s", hooks.Operations[1].Status)
	}
}

func TestExecuteWriteWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	hooks := &testutil.HooksRecorder{}
	attempts := 0

	err := ExecuteWriteWithRetry(context.Background(), BaseDeps{
		Runner: passthroughTxRunner{},
		Hooks:  hooks,
	}, "aggregate.test.retry_exhausted", func(_ dbctx.Context) error {
		attempts++
		return ConflictError("stale version")
	})
	if !production.IsCode(err, production.CodeConflict) {
		t.Fatalf("expected conflict code, got=%v", err)
	}
	if attempts != maxWriteAttempts {
		t.Fatalf("attempts: want=%d got=%d", maxWriteAttempts, attempts)
	}
}

func TestExecuteWriteWithRetryDoesNotRetryHardFailures(t *testing.T) {
	attempts := 0

	err := ExecuteWriteWithRetry(context.Background(), BaseDeps{
		Runner: passthroughTxRunner{},
		Hooks:  &testutil.HooksRecorder{},
	}, "aggregate.test.no_retry", func(_ dbctx.Context) error {
		attempts++
		return ConservationError("harvest exceeds population")
	})
	if !production.IsCode(err, production.CodeConservationViolation) {
		t.Fatalf("expected conservation code, got=%v", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts: want=1 got=%d", attempts)
	}
}

func TestErrorStatus(t *testing.T) {
	if got := errorStatus(nil); got != "success" {
		t.Fatalf("nil status: want=success got=%s", got)
	}
	if got := errorStatus(MapError("op", ValidationError("x"))); got != string(production.CodeInvalidArgument) {
		t.Fatalf("validation status: got=%s", got)
	}
	if got := errorStatus(MapError("op", ConflictError("x"))); got != string(production.CodeConflict) {
		t.Fatalf("conflict status: got=%s", got)
	}
	if got := errorStatus(MapError("op", RetryableError("x"))); got != string(production.CodeRetryable) {
		t.Fatalf("retry status: got=%s", got)
	}
	if got := errorStatus(MapError("op", context.DeadlineExceeded)); got != string(production.CodeRetryable) {
		t.Fatalf("deadline status: got=%s", got)
	}
}
