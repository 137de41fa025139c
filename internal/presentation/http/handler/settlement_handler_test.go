package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"github.com/sangkips/tillpoint-api/pkg/apperror"
	"github.com/sangkips/tillpoint-api/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettlements struct {
	preview    *pos.ShiftSettlement
	record     *pos.SettlementRecord
	err        error
	last       *pos.SettlementRecord
	confirmed  int
	retried    int
	previewFor uuid.UUID
}

func (f *fakeSettlements) Preview(ctx context.Context, cashierID uuid.UUID) (*pos.ShiftSettlement, error) {
	f.previewFor = cashierID
	return f.preview, f.err
}

func (f *fakeSettlements) Confirm(ctx context.Context, cashierID uuid.UUID) (*pos.SettlementRecord, error) {
	f.confirmed++
	return f.record, f.err
}

func (f *fakeSettlements) RetryPrint(ctx context.Context, cashierID uuid.UUID) (*pos.SettlementRecord, error) {
	f.retried++
	return f.record, f.err
}

func (f *fakeSettlements) LastConfirmed(cashierID uuid.UUID) *pos.SettlementRecord {
	return f.last
}

func settlementRouter(userID uuid.UUID, fake *fakeSettlements) http.Handler {
	h := NewSettlementHandler(fake)
	r := newRouter(&userID)
	r.GET("/settlement/preview", h.Preview)
	r.GET("/settlement/last", h.Last)
	r.POST("/settlement/confirm", h.Confirm)
	r.POST("/settlement/print", h.RetryPrint)
	return r
}

func TestSettlementHandler_Preview(t *testing.T) {
	userID := uuid.New()
	fake := &fakeSettlements{preview: &pos.ShiftSettlement{
		NumTransactions: 2,
		ExpectedCash:    money.MustParse("1168"),
	}}
	r := settlementRouter(userID, fake)

	w, env := do(t, r, http.MethodGet, "/settlement/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, fake.previewFor)
	assert.Contains(t, string(env.Data), `"expected_cash":"1168"`)
}

func TestSettlementHandler_PreviewWithoutShift(t *testing.T) {
	fake := &fakeSettlements{err: apperror.NewInvalidInputError("shift", "No open shift")}
	r := settlementRouter(uuid.New(), fake)

	w, env := do(t, r, http.MethodGet, "/settlement/preview", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "No open shift", env.Message)
}

func TestSettlementHandler_Confirm(t *testing.T) {
	record := &pos.SettlementRecord{ID: uuid.New()}
	fake := &fakeSettlements{record: record}
	r := settlementRouter(uuid.New(), fake)

	w, env := do(t, r, http.MethodPost, "/settlement/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Shift settled successfully", env.Message)
	assert.Contains(t, string(env.Data), record.ID.String())
	assert.Equal(t, 1, fake.confirmed)
}

func TestSettlementHandler_PrintFailureIsAWarning(t *testing.T) {
	record := &pos.SettlementRecord{ID: uuid.New()}
	fake := &fakeSettlements{
		record: record,
		err:    apperror.NewPrintError("Settlement report was not printed", errors.New("paper out")),
	}
	r := settlementRouter(uuid.New(), fake)

	w, env := do(t, r, http.MethodPost, "/settlement/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Shift settled but the report was not printed", env.Message)
	require.Len(t, env.Warnings, 1)
	assert.Equal(t, "print", env.Warnings[0].Kind)
	assert.Equal(t, "Settlement report was not printed", env.Warnings[0].Message)
	assert.Contains(t, string(env.Data), record.ID.String())

	w, _ = do(t, r, http.MethodPost, "/settlement/print", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, fake.retried)
}

func TestSettlementHandler_ConfirmFailure(t *testing.T) {
	fake := &fakeSettlements{err: apperror.NewSettlementError("Settlement failed", errors.New("db down"))}
	r := settlementRouter(uuid.New(), fake)

	w, env := do(t, r, http.MethodPost, "/settlement/confirm", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "settlement", env.Kind)
}

func TestSettlementHandler_Last(t *testing.T) {
	fake := &fakeSettlements{}
	r := settlementRouter(uuid.New(), fake)

	w, _ := do(t, r, http.MethodGet, "/settlement/last", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	fake.last = &pos.SettlementRecord{ID: uuid.New()}
	w, env := do(t, r, http.MethodGet, "/settlement/last", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), fake.last.ID.String())
}
