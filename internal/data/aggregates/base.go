package aggregates

import (
	"context"
	"time"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"github.com/yungbote/skillhub-backend/internal/platform/logger"
	"gorm.io/gorm"
)

// BaseDeps is shared by every aggregate. Runner defaults to a gorm runner on DB.
type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.Log == nil {
		d.Log = logger.NewNop()
	}
	return d
}

// executeWrite runs fn in one transaction, classifies the failure and reports
// the outcome to the hooks. The returned error is always nil or *domainagg.Error.
func executeWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	start := time.Now()

	err := MapError(op, deps.Runner.InTx(ctx, fn))

	deps.Hooks.ObserveWrite(WriteObservation{
		Op:       op,
		Code:     domainagg.CodeOf(err),
		Duration: time.Since(start),
	})
	if err != nil && domainagg.CodeOf(err) == domainagg.CodeInternal {
		deps.Log.Error("Aggregate write failed", "op", op, "error", err)
	}
	return err
}
