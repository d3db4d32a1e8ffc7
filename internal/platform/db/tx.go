package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx shared by pools, connections and transactions.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// Beginner starts transactions. *pgxpool.Pool satisfies it.
type Beginner interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type contextKey string

const TxKey contextKey = "db_tx"

// TxFromContext retrieves the open transaction from context, if any.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(TxKey).(pgx.Tx)
	return tx
}

// Conn returns the transaction carried by ctx, or fallback when there is none.
// Repositories call it on every statement so that a caller-opened
// transaction spans all of them.
func Conn(ctx context.Context, fallback Querier) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return fallback
}

// Transactor runs functions inside a single database transaction.
type Transactor struct {
	db   Beginner
	opts pgx.TxOptions
}

func NewTransactor(db Beginner) *Transactor {
	return &Transactor{db: db, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

// WithTx begins a transaction, hands fn a context carrying it, and commits
// when fn returns nil. Any error from fn rolls everything back. Calls nested
// inside an already transactional context join the outer transaction.
func (t *Transactor) WithTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, t.opts)
	if err != nil {
		return Wrap("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(context.WithValue(ctx, TxKey, tx)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return Wrap("commit transaction", err)
	}
	return nil
}
