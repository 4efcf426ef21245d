package aggregates

import (
	"context"
	"strings"
	"time"

	domainagg "github.com/brynevale/admincore-backend/internal/domain/aggregates"
	"github.com/brynevale/admincore-backend/internal/pkg/dbctx"
	"github.com/brynevale/admincore-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// BaseDeps bundles the shared write-path dependencies every use case
// needs: the transaction runner, the CAS guard and observability hooks.
type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
}

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

// ExecuteWrite runs fn inside one transaction, maps any failure into a
// domain error code and feeds the operation outcome to the hooks.
func ExecuteWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.WithDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "usecase.write"
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = operationStatus(mapped)
		if domainagg.IsCode(mapped, domainagg.CodeConflict) {
			deps.Hooks.IncConflict(op)
		}
		if domainagg.Retryable(mapped) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func operationStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domainagg.CodeOf(err)))
	if code == "" {
		return "failure"
	}
	return code
}
