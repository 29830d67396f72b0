package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/observability"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
)

// TxRunner is the transaction boundary for multi-row writes. fn may run more
// than once, so it must not have effects outside the transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

// DefaultTxAttempts bounds retries after a serialization failure or deadlock.
const DefaultTxAttempts = 3

type gormTxRunner struct {
	db       *gorm.DB
	attempts int
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db, attempts: DefaultTxAttempts}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return apierr.Unavailable(apierr.CodeStoreUnavailable, "store.tx", UnavailableError("transaction runner has nil db"))
	}
	ctx, span := observability.Tracer("store").Start(ctx, "store.tx")
	defer span.End()

	var err error
	attempt := 0
	for attempt < r.attempts {
		attempt++
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(dbctx.Context{Ctx: ctx, Tx: tx})
		})
		if !IsRetryableTx(err) || ctx.Err() != nil {
			break
		}
	}
	span.SetAttributes(attribute.Int("store.tx.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
	}
	return err
}

// IsRetryableTx reports failures that a fresh attempt can succeed past:
// postgres serialization failures and deadlocks, and sqlite busy locks.
func IsRetryableTx(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
