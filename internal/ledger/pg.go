// Package ledger persists line tax records and refund records in
// PostgreSQL. It is the transactional boundary the refund engine itself
// does not provide: history reads and record appends for one payment
// transaction are serialised so concurrent refund attempts cannot both
// validate against stale history.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pos/internal/refund"
	"github.com/noah-isme/backend-pos/internal/tax"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// RefundStore implements refund.Store over a pgx pool.
type RefundStore struct {
	Pool *pgxpool.Pool
	tx   pgx.Tx
}

func (s *RefundStore) db() dbtx {
	if s.tx != nil {
		return s.tx
	}
	return s.Pool
}

// InTx runs fn inside one database transaction holding an advisory lock
// keyed by the payment transaction id. The lock blocks any concurrent
// refund attempt on the same transaction until commit or rollback, so the
// validate-then-append sequence never sees stale history.
func (s *RefundStore) InTx(ctx context.Context, txnID uuid.UUID, fn func(refund.Store) error) error {
	if s == nil || s.Pool == nil {
		return errors.New("ledger: refund store not configured")
	}
	if s.tx != nil {
		return errors.New("ledger: nested refund transaction")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("ledger: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, txnID.String()); err != nil {
		return fmt.Errorf("ledger: lock transaction %s: %w", txnID, err)
	}
	if err := fn(&RefundStore{Pool: s.Pool, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// History returns every refund record for the transaction, oldest first.
func (s *RefundStore) History(ctx context.Context, txnID uuid.UUID) ([]refund.Record, error) {
	rows, err := s.db().Query(ctx, `
		SELECT id, transaction_id, line_id, quantity, amount_minor, tax_minor, created_at
		FROM refund_records
		WHERE transaction_id = $1
		ORDER BY created_at, id`, pgUUID(txnID))
	if err != nil {
		return nil, fmt.Errorf("ledger: query history: %w", err)
	}
	defer rows.Close()

	var records []refund.Record
	for rows.Next() {
		var (
			rec              refund.Record
			recID, tID, lnID pgtype.UUID
			created          pgtype.Timestamptz
		)
		if err := rows.Scan(&recID, &tID, &lnID, &rec.Qty, &rec.AmountMinor, &rec.TaxMinor, &created); err != nil {
			return nil, fmt.Errorf("ledger: scan record: %w", err)
		}
		rec.ID = uuid.UUID(recID.Bytes)
		rec.TransactionID = uuid.UUID(tID.Bytes)
		rec.LineID = uuid.UUID(lnID.Bytes)
		rec.CreatedAt = created.Time
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Append inserts the records. Rows in refund_records are never updated or
// deleted; corrections are new records.
func (s *RefundStore) Append(ctx context.Context, records []refund.Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
			INSERT INTO refund_records (id, transaction_id, line_id, quantity, amount_minor, tax_minor)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			pgUUID(rec.ID), pgUUID(rec.TransactionID), pgUUID(rec.LineID),
			rec.Qty, rec.AmountMinor, rec.TaxMinor)
	}
	results := s.db().SendBatch(ctx, batch)
	defer results.Close()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("ledger: append record: %w", err)
		}
	}
	return nil
}

// TaxStore implements tax.Store over a pgx pool.
type TaxStore struct {
	Pool *pgxpool.Pool
}

// ReplaceLineTaxes swaps the order's full record set in one transaction.
// Deleting before inserting keeps rows for removed line items from
// surviving a recalculation.
func (s *TaxStore) ReplaceLineTaxes(ctx context.Context, orderID uuid.UUID, result tax.Result) error {
	if s == nil || s.Pool == nil {
		return errors.New("ledger: tax store not configured")
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("ledger: begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if _, err := tx.Exec(ctx, `DELETE FROM line_tax_records WHERE order_id = $1`, pgUUID(orderID)); err != nil {
		return fmt.Errorf("ledger: clear line taxes: %w", err)
	}
	batch := &pgx.Batch{}
	for _, lt := range result.Lines {
		batch.Queue(`
			INSERT INTO line_tax_records (order_id, line_id, currency, tax_minor)
			VALUES ($1, $2, $3, $4)`,
			pgUUID(orderID), pgUUID(lt.LineID), result.Currency, lt.TaxMinor)
	}
	results := tx.SendBatch(ctx, batch)
	for range result.Lines {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("ledger: insert line tax: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("ledger: flush batch: %w", err)
	}
	return tx.Commit(ctx)
}

// LineTaxes loads the stored per-line taxes for an order.
func (s *TaxStore) LineTaxes(ctx context.Context, orderID uuid.UUID) (tax.Result, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT line_id, currency, tax_minor
		FROM line_tax_records
		WHERE order_id = $1
		ORDER BY line_id`, pgUUID(orderID))
	if err != nil {
		return tax.Result{}, fmt.Errorf("ledger: query line taxes: %w", err)
	}
	defer rows.Close()

	var result tax.Result
	for rows.Next() {
		var (
			lineID pgtype.UUID
			lt     tax.LineTax
		)
		if err := rows.Scan(&lineID, &result.Currency, &lt.TaxMinor); err != nil {
			return tax.Result{}, fmt.Errorf("ledger: scan line tax: %w", err)
		}
		lt.LineID = uuid.UUID(lineID.Bytes)
		result.Lines = append(result.Lines, lt)
		result.TotalMinor += lt.TaxMinor
	}
	return result, rows.Err()
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
