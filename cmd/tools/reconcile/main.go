// Command reconcile cross-checks a payment transaction's refund records
// against the expected totals. It is the operational guard behind the
// engine's invariants: if records have drifted from what a processor was
// told, this exits non-zero before the discrepancy reaches settlement.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pos/internal/config"
	"github.com/noah-isme/backend-pos/internal/invariant"
	"github.com/noah-isme/backend-pos/internal/ledger"
	"github.com/noah-isme/backend-pos/internal/obs"
)

func main() {
	txnFlag := flag.String("txn", "", "payment transaction id to reconcile")
	expected := flag.Int64("expected", 0, "expected total refunded amount in minor units (amount + tax)")
	tolerance := flag.Int64("tolerance", 0, "allowed drift in minor units")
	flag.Parse()

	cfg := config.MustLoad()
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("tool", "reconcile").Logger()

	txnID, err := uuid.Parse(*txnFlag)
	if err != nil {
		logger.Fatal().Err(err).Str("txn", *txnFlag).Msg("invalid transaction id")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	store := &ledger.RefundStore{Pool: pool}
	history, err := store.History(ctx, txnID)
	if err != nil {
		logger.Fatal().Err(err).Msg("load refund history")
	}

	components := make([]int64, 0, len(history))
	for _, rec := range history {
		components = append(components, rec.AmountMinor+rec.TaxMinor)
	}
	if err := invariant.ValidateSum(components, *expected, *tolerance); err != nil {
		logger.Error().
			Err(err).
			Str("transaction_id", txnID.String()).
			Int("records", len(history)).
			Msg("reconciliation failed")
		os.Exit(1)
	}
	logger.Info().
		Str("transaction_id", txnID.String()).
		Int("records", len(history)).
		Int64("expected_minor", *expected).
		Msg("reconciliation ok")
}
