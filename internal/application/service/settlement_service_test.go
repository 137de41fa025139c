package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/sangkips/tillpoint-api/pkg/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettlementService_ConfirmOnce(t *testing.T) {
	f := newFixture()
	mem := printer.NewMemoryPrinter()
	ledger := f.ledger()
	svc := NewSettlementService(f.shiftService(), ledger, f.printerService(mem), f.log)
	session := f.openShift(t)
	ctx := context.Background()

	_, err := ledger.SubmitSale(ctx, cashSubmission(t, session, "200", burger()))
	require.NoError(t, err)

	preview, err := svc.Preview(ctx, f.cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, preview.NumTransactions)
	assert.Nil(t, svc.LastConfirmed(f.cashier.ID))

	rec, err := svc.Confirm(ctx, f.cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ShiftID, rec.ShiftID)
	assert.Len(t, mem.Jobs(), 1)

	again, err := svc.Confirm(ctx, f.cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)
	assert.Equal(t, 1, f.settlements.settleCalls)
	assert.Same(t, rec, svc.LastConfirmed(f.cashier.ID))

	_, err = svc.Preview(ctx, f.cashier.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestSettlementService_PrintFailureKeepsRecord(t *testing.T) {
	f := newFixture()
	mem := printer.NewMemoryPrinter()
	mem.Fail(errors.New("cover open"))
	svc := NewSettlementService(f.shiftService(), f.ledger(), f.printerService(mem), f.log)
	f.openShift(t)
	ctx := context.Background()

	rec, err := svc.Confirm(ctx, f.cashier.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindPrint, apperror.KindOf(err))
	require.NotNil(t, rec)
	assert.Empty(t, mem.Jobs())

	mem.Fail(nil)
	reprinted, err := svc.RetryPrint(ctx, f.cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, reprinted.ID)
	assert.Len(t, mem.Jobs(), 1)
	assert.Equal(t, 1, f.settlements.settleCalls)
}

func TestSettlementService_RetryPrintWithoutConfirmation(t *testing.T) {
	f := newFixture()
	svc := NewSettlementService(f.shiftService(), f.ledger(), nil, f.log)

	_, err := svc.RetryPrint(context.Background(), f.cashier.ID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestSettlementService_ConfirmWithoutShift(t *testing.T) {
	f := newFixture()
	svc := NewSettlementService(f.shiftService(), f.ledger(), nil, f.log)

	_, err := svc.Confirm(context.Background(), f.cashier.ID)
	require.Error(t, err)
	assert.Zero(t, f.settlements.settleCalls)
}
