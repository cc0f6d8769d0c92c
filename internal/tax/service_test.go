package tax_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-pos/internal/tax"
)

type stubStore struct {
	replaced map[uuid.UUID]tax.Result
	fail     error
}

func (s *stubStore) ReplaceLineTaxes(ctx context.Context, orderID uuid.UUID, result tax.Result) error {
	if s.fail != nil {
		return s.fail
	}
	if s.replaced == nil {
		s.replaced = make(map[uuid.UUID]tax.Result)
	}
	s.replaced[orderID] = result
	return nil
}

func TestRecalculatePersistsResult(t *testing.T) {
	store := &stubStore{}
	svc := &tax.Service{Store: store, Logger: zerolog.Nop()}
	orderID := uuid.New()
	defaultRate := decimal.MustParse("0.10")
	lines := []tax.Line{
		{ID: uuid.New(), UnitPrice: decimal.MustParse("15.99"), Qty: 2},
		{ID: uuid.New(), UnitPrice: decimal.MustParse("10.00"), Qty: 1},
	}

	result, err := svc.Recalculate(context.Background(), orderID, "USD", lines, decimal.Decimal{}, &defaultRate)
	require.NoError(t, err)
	require.Equal(t, int64(420), result.TotalMinor)

	stored, ok := store.replaced[orderID]
	require.True(t, ok, "result should have been persisted")
	require.Equal(t, result, stored)
}

func TestRecalculateOverwritesOnSecondRun(t *testing.T) {
	store := &stubStore{}
	svc := &tax.Service{Store: store, Logger: zerolog.Nop()}
	orderID := uuid.New()
	defaultRate := decimal.MustParse("0.10")
	lineID := uuid.New()
	lines := []tax.Line{{ID: lineID, UnitPrice: decimal.MustParse("10.00"), Qty: 1}}

	_, err := svc.Recalculate(context.Background(), orderID, "USD", lines, decimal.Decimal{}, &defaultRate)
	require.NoError(t, err)

	// A discount changed: the stale record set must be replaced wholesale.
	result, err := svc.Recalculate(context.Background(), orderID, "USD", lines, decimal.MustParse("0.5"), &defaultRate)
	require.NoError(t, err)
	require.Equal(t, int64(50), result.TotalMinor)
	require.Equal(t, result, store.replaced[orderID])
}

func TestRecalculateNotConfigured(t *testing.T) {
	var svc *tax.Service
	_, err := svc.Recalculate(context.Background(), uuid.New(), "USD", nil, decimal.Decimal{}, nil)
	require.Error(t, err)
}
