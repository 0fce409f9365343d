package aggregates

import (
	"context"
	"fmt"
	"time"

	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
	"gorm.io/gorm"
)

// DefaultLockTimeout bounds how long a write waits on another writer's skill
// row lock before failing with a retryable error.
const DefaultLockTimeout = 5 * time.Second

// TxRunner opens the transaction an aggregate write runs in.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormTxRunner runs writes in gorm transactions. On Postgres each
// transaction sets lock_timeout so a stuck publish surfaces as SQLSTATE 55P03.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db, lockTimeout: DefaultLockTimeout}
}

// NewGormTxRunnerWithLockTimeout is NewGormTxRunner with an explicit timeout;
// zero disables it.
func NewGormTxRunnerWithLockTimeout(db *gorm.DB, timeout time.Duration) TxRunner {
	return &gormTxRunner{db: db, lockTimeout: timeout}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has no database", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			if err := tx.Exec(fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())).Error; err != nil {
				return err
			}
		}
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
