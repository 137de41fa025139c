package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/pos"
	"go.uber.org/zap"
)

// SettlementService runs end of shift for each cashier through its own
// coordinator, so one cashier's confirmation never blocks another's.
type SettlementService struct {
	sessions pos.SessionStore
	ledger   pos.LedgerService
	printer  pos.ReportPrinter
	log      *zap.Logger

	mu           sync.Mutex
	coordinators map[uuid.UUID]*pos.SettlementCoordinator
}

// NewSettlementService creates a new settlement service. printer may be nil.
func NewSettlementService(
	sessions pos.SessionStore,
	ledger pos.LedgerService,
	printer pos.ReportPrinter,
	log *zap.Logger,
) *SettlementService {
	return &SettlementService{
		sessions:     sessions,
		ledger:       ledger,
		printer:      printer,
		log:          log,
		coordinators: make(map[uuid.UUID]*pos.SettlementCoordinator),
	}
}

func (s *SettlementService) coordinator(cashierID uuid.UUID) *pos.SettlementCoordinator {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coordinators[cashierID]
	if !ok {
		c = pos.NewSettlementCoordinator(s.ledger, s.printer)
		s.coordinators[cashierID] = c
	}
	return c
}

// Preview returns the current aggregate of the cashier's open shift.
func (s *SettlementService) Preview(ctx context.Context, cashierID uuid.UUID) (*pos.ShiftSettlement, error) {
	session, err := s.sessions.Current(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	return s.coordinator(cashierID).Preview(ctx, *session)
}

// Confirm settles the cashier's shift. On a print failure the confirmed
// record is returned together with the error.
func (s *SettlementService) Confirm(ctx context.Context, cashierID uuid.UUID) (*pos.SettlementRecord, error) {
	session, err := s.sessions.Current(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	rec, err := s.coordinator(cashierID).Confirm(ctx, *session)
	if err != nil && rec == nil {
		s.log.Warn("settlement confirmation failed", zap.String("cashier_id", cashierID.String()), zap.Error(err))
	}
	return rec, err
}

// RetryPrint prints the last confirmed settlement again.
func (s *SettlementService) RetryPrint(ctx context.Context, cashierID uuid.UUID) (*pos.SettlementRecord, error) {
	return s.coordinator(cashierID).RetryPrint(ctx)
}

// LastConfirmed returns the cashier's last confirmed settlement, if any.
func (s *SettlementService) LastConfirmed(cashierID uuid.UUID) *pos.SettlementRecord {
	return s.coordinator(cashierID).LastConfirmed()
}
