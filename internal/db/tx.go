package db

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Good-for-good/goodforgood-sub000/internal/audit"
)

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RunInTx runs fn inside a transaction with gw rebound to it. fn runs under an
// audit scope, so every mutation it makes lands in one audit group. The
// transaction rolls back when fn returns an error.
func RunInTx(ctx context.Context, db TxBeginner, gw Gateway, fn func(ctx context.Context, gw Gateway) error) error {
	ctx, end := audit.Begin(ctx)
	defer end()

	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		return fn(ctx, gw.InTx(tx))
	})
}
