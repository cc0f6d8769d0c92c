package tax

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/invariant"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// Store persists per-line tax records. Recalculation replaces the whole
// record set for an order atomically; stale rows never survive a changed
// discount or item set.
type Store interface {
	ReplaceLineTaxes(ctx context.Context, orderID uuid.UUID, result Result) error
}

// Service recomputes and persists line taxes for an order.
type Service struct {
	Store  Store
	Logger zerolog.Logger
}

// Recalculate computes per-line taxes and stores them, overwriting any
// previous records for the order. The caller owns the decision of when an
// order's lines are final; this method only guarantees the stored rows
// agree with the returned aggregate.
func (s *Service) Recalculate(ctx context.Context, orderID uuid.UUID, code string, lines []Line, discountFraction decimal.Decimal, defaultRate *decimal.Decimal) (Result, error) {
	if s == nil || s.Store == nil {
		return Result{}, errors.New("tax service not configured")
	}
	result, err := ComputeLineTaxes(code, lines, discountFraction, defaultRate)
	if err != nil {
		obs.IncTaxRecalc("error")
		return Result{}, err
	}

	components := make([]int64, 0, len(result.Lines))
	for _, lt := range result.Lines {
		components = append(components, lt.TaxMinor)
	}
	if err := invariant.ValidateSum(components, result.TotalMinor, 0); err != nil {
		obs.IncSumMismatch()
		return Result{}, fmt.Errorf("tax: order %s: %w", orderID, err)
	}

	if err := s.Store.ReplaceLineTaxes(ctx, orderID, result); err != nil {
		obs.IncTaxRecalc("error")
		return Result{}, fmt.Errorf("tax: persist order %s: %w", orderID, err)
	}
	obs.IncTaxRecalc("success")
	s.Logger.Info().
		Str("order_id", orderID.String()).
		Str("currency", result.Currency).
		Int("lines", len(result.Lines)).
		Int64("tax_total_minor", result.TotalMinor).
		Msg("tax_recalculated")
	return result, nil
}
