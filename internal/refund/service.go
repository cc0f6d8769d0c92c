package refund

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-pos/internal/invariant"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// Store is the injected refund ledger. InTx must run fn atomically with
// respect to other refund attempts on the same transaction: the history
// read and the record append either both happen or neither does, and no
// concurrent attempt may interleave between them.
type Store interface {
	History(ctx context.Context, txnID uuid.UUID) ([]Record, error)
	Append(ctx context.Context, records []Record) error
	InTx(ctx context.Context, txnID uuid.UUID, fn func(Store) error) error
}

// Service computes refunds and records them through the ledger.
type Service struct {
	Store    Store
	Validate *validator.Validate
	Logger   zerolog.Logger
}

// Refund validates the batch, computes the proportional refund inside the
// ledger transaction, and appends one immutable record per refunded line.
// A *ValidationError is recoverable and should surface to the caller; any
// other error is operational.
func (s *Service) Refund(ctx context.Context, txn Transaction, reqs []Request) (Result, error) {
	if s == nil || s.Store == nil {
		return Result{}, errors.New("refund service not configured")
	}
	if len(reqs) == 0 {
		return Result{}, errors.New("refund: no line quantities requested")
	}
	ctx, span := otel.Tracer("refund.Service").Start(ctx, "RefundService.Refund")
	defer span.End()
	span.SetAttributes(
		attribute.String("transaction.id", txn.ID.String()),
		attribute.Int("refund.lines", len(reqs)),
	)

	if s.Validate != nil {
		for i, req := range reqs {
			if err := s.Validate.Struct(req); err != nil {
				obs.IncRefund("invalid")
				return Result{}, fmt.Errorf("refund: request %d: %w", i, err)
			}
		}
	}

	var result Result
	err := s.Store.InTx(ctx, txn.ID, func(st Store) error {
		history, err := st.History(ctx, txn.ID)
		if err != nil {
			return fmt.Errorf("refund: load history: %w", err)
		}
		result, err = Compute(txn, reqs, history)
		if err != nil {
			return err
		}
		for i := range result.Records {
			result.Records[i].ID = uuid.New()
		}
		return st.Append(ctx, result.Records)
	})
	if err != nil {
		var validation *ValidationError
		if errors.As(err, &validation) {
			obs.IncRefund("rejected")
			s.Logger.Warn().
				Str("transaction_id", txn.ID.String()).
				Str("line_id", validation.LineID.String()).
				Int64("requested", validation.Requested).
				Int64("available", validation.Available).
				Msg("refund_rejected")
		} else {
			obs.IncRefund("error")
		}
		span.RecordError(err)
		return Result{}, err
	}

	components := []int64{result.SubtotalMinor, result.TaxMinor, result.TipMinor, result.SurchargeMinor}
	if err := invariant.ValidateSum(components, result.TotalMinor, 0); err != nil {
		obs.IncSumMismatch()
		return Result{}, fmt.Errorf("refund: transaction %s: %w", txn.ID, err)
	}

	obs.IncRefund("success")
	s.Logger.Info().
		Str("transaction_id", txn.ID.String()).
		Int("lines", len(result.Records)).
		Int64("subtotal_minor", result.SubtotalMinor).
		Int64("tax_minor", result.TaxMinor).
		Int64("tip_minor", result.TipMinor).
		Int64("surcharge_minor", result.SurchargeMinor).
		Int64("total_minor", result.TotalMinor).
		Msg("refund_recorded")
	return result, nil
}
