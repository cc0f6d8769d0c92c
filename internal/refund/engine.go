// Package refund computes proportional partial refunds for a payment
// transaction and guards against refunding the same unit twice. All
// proportional scaling goes through the exact-sum allocator, so the
// partial refunds of a line always reconstitute its recorded totals
// without drift.
package refund

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/noah-isme/backend-pos/internal/allocate"
	"github.com/noah-isme/backend-pos/internal/money"
)

var (
	// ErrUnknownLine is returned when a refund request names a line that is
	// not part of the transaction.
	ErrUnknownLine = errors.New("refund: unknown line item")
	// ErrInvalidQuantity is returned for zero or negative refund quantities.
	ErrInvalidQuantity = errors.New("refund: quantity must be positive")
	// ErrAlreadyRefunded is returned when every unit of the line has been
	// refunded before.
	ErrAlreadyRefunded = errors.New("refund: line already fully refunded")
	// ErrQuantityExceeded is returned when the requested quantity exceeds
	// the remaining refundable quantity.
	ErrQuantityExceeded = errors.New("refund: quantity exceeds refundable remainder")
)

// ValidationError rejects a refund batch with enough context to present a
// clear message: which line, how much was requested, and how much is left.
// Any single violation rejects the whole batch; partial application of a
// multi-line refund is not permitted.
type ValidationError struct {
	LineID    uuid.UUID
	Requested int64
	Available int64
	Err       error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: line %s requested %d, available %d", e.Err, e.LineID, e.Requested, e.Available)
}

// Unwrap allows errors.Is against the sentinel reasons.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Line is a transaction line as originally sold. TaxMinor is the line's
// persisted tax record, not a recomputation.
type Line struct {
	ID        uuid.UUID
	UnitPrice decimal.Decimal
	Qty       int64
	TaxMinor  int64
}

// Transaction carries the amounts charged by the payment processor, all
// already in minor units.
type Transaction struct {
	ID             uuid.UUID
	Currency       string
	AmountMinor    int64
	TipMinor       int64
	SurchargeMinor int64
	Lines          []Line
}

// Request asks to refund a quantity of one line.
type Request struct {
	LineID uuid.UUID `validate:"required"`
	Qty    int64     `validate:"required,gt=0"`
}

// Record is the append-only account of a refunded line quantity. A
// correction is a new record, never an edit; the record history is the
// sole source of truth for how much of a line has been refunded.
type Record struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	LineID        uuid.UUID
	Qty           int64
	AmountMinor   int64
	TaxMinor      int64
	CreatedAt     time.Time
}

// Result is the computed refund. Each component is an exact minor-unit
// integer before the final addition; the sum of already-quantized parts is
// never re-quantized.
type Result struct {
	SubtotalMinor  int64
	TaxMinor       int64
	TipMinor       int64
	SurchargeMinor int64
	TotalMinor     int64
	Records        []Record
}

// Compute validates the batch against the record history and computes the
// refund. It is pure: history is a snapshot, and holding it stable against
// concurrent refund attempts is the caller's transaction boundary.
func Compute(txn Transaction, reqs []Request, history []Record) (Result, error) {
	lines := make(map[uuid.UUID]Line, len(txn.Lines))
	for _, l := range txn.Lines {
		lines[l.ID] = l
	}

	refunded := make(map[uuid.UUID]int64, len(history))
	refundedSubtotal := int64(0)
	for _, rec := range history {
		if rec.TransactionID != txn.ID {
			continue
		}
		refunded[rec.LineID] += rec.Qty
		refundedSubtotal += rec.AmountMinor
	}

	// Validate the whole batch before computing anything. Requests are
	// applied in order against a shared tally, so two requests for the same
	// line inside one batch cannot jointly exceed the remainder.
	pending := make(map[uuid.UUID]int64, len(reqs))
	for _, req := range reqs {
		line, ok := lines[req.LineID]
		if !ok {
			return Result{}, &ValidationError{LineID: req.LineID, Requested: req.Qty, Err: ErrUnknownLine}
		}
		available := line.Qty - refunded[req.LineID] - pending[req.LineID]
		if req.Qty <= 0 {
			return Result{}, &ValidationError{LineID: req.LineID, Requested: req.Qty, Available: available, Err: ErrInvalidQuantity}
		}
		if available <= 0 {
			return Result{}, &ValidationError{LineID: req.LineID, Requested: req.Qty, Err: ErrAlreadyRefunded}
		}
		if req.Qty > available {
			return Result{}, &ValidationError{LineID: req.LineID, Requested: req.Qty, Available: available, Err: ErrQuantityExceeded}
		}
		pending[req.LineID] += req.Qty
	}

	originalSubtotal, err := transactionSubtotal(txn)
	if err != nil {
		return Result{}, err
	}

	var result Result
	taken := make(map[uuid.UUID]int64, len(reqs))
	for _, req := range reqs {
		line := lines[req.LineID]
		amount, err := lineAmountMinor(txn.Currency, line.UnitPrice, req.Qty)
		if err != nil {
			return Result{}, fmt.Errorf("refund: line %s: %w", req.LineID, err)
		}
		prior := refunded[req.LineID] + taken[req.LineID]
		taxShare := quantityShare(line.TaxMinor, line.Qty, prior, req.Qty)
		taken[req.LineID] += req.Qty

		result.SubtotalMinor += amount
		result.TaxMinor += taxShare
		result.Records = append(result.Records, Record{
			TransactionID: txn.ID,
			LineID:        req.LineID,
			Qty:           req.Qty,
			AmountMinor:   amount,
			TaxMinor:      taxShare,
		})
	}

	result.TipMinor = subtotalShare(txn.TipMinor, originalSubtotal, refundedSubtotal, result.SubtotalMinor)
	result.SurchargeMinor = subtotalShare(txn.SurchargeMinor, originalSubtotal, refundedSubtotal, result.SubtotalMinor)
	result.TotalMinor = result.SubtotalMinor + result.TaxMinor + result.TipMinor + result.SurchargeMinor
	return result, nil
}

// Remaining reports how many units of the line are still refundable given
// the record history. It is the pure predicate behind the double-refund
// guard; callers needing atomicity wrap it in their own transaction.
func Remaining(txn Transaction, lineID uuid.UUID, history []Record) int64 {
	var orig int64
	for _, l := range txn.Lines {
		if l.ID == lineID {
			orig = l.Qty
			break
		}
	}
	for _, rec := range history {
		if rec.TransactionID == txn.ID && rec.LineID == lineID {
			orig -= rec.Qty
		}
	}
	if orig < 0 {
		return 0
	}
	return orig
}

func transactionSubtotal(txn Transaction) (int64, error) {
	var subtotal int64
	for _, l := range txn.Lines {
		amount, err := lineAmountMinor(txn.Currency, l.UnitPrice, l.Qty)
		if err != nil {
			return 0, fmt.Errorf("refund: line %s: %w", l.ID, err)
		}
		subtotal += amount
	}
	return subtotal, nil
}

func lineAmountMinor(code string, unitPrice decimal.Decimal, qty int64) (int64, error) {
	q, err := decimal.New(qty, 0)
	if err != nil {
		return 0, err
	}
	gross, err := unitPrice.Mul(q)
	if err != nil {
		return 0, err
	}
	return money.ToMinor(code, money.Quantize(code, gross))
}

// quantityShare scales total by refunded quantity using cumulative
// allocation: the share for this request is the allocation at the new
// cumulative quantity minus the allocation at the previous one. Summed
// over a line's full quantity the shares reconstitute total exactly,
// however the refunds are batched.
func quantityShare(total, origQty, priorQty, qty int64) int64 {
	if total == 0 || origQty <= 0 {
		return 0
	}
	return allocatedAt(total, origQty, priorQty+qty) - allocatedAt(total, origQty, priorQty)
}

// subtotalShare scales total (tip or surcharge) by the refunded subtotal's
// share of the full transaction subtotal, cumulatively across refunds.
func subtotalShare(total, originalSubtotal, priorSubtotal, subtotal int64) int64 {
	if total == 0 || originalSubtotal <= 0 {
		return 0
	}
	return allocatedAt(total, originalSubtotal, priorSubtotal+subtotal) - allocatedAt(total, originalSubtotal, priorSubtotal)
}

// allocatedAt is the exact-sum allocation of total to the first bucket of
// a two-bucket split: taken units versus the remainder.
func allocatedAt(total, whole, taken int64) int64 {
	if taken <= 0 {
		return 0
	}
	if taken >= whole {
		return total
	}
	return allocate.Allocate([]int64{taken, whole - taken}, total)[0]
}
