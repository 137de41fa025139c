package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillpoint-api/internal/domain/entity"
	"github.com/sangkips/tillpoint-api/internal/domain/enum"
	"github.com/sangkips/tillpoint-api/internal/domain/repository"
	"github.com/sangkips/tillpoint-api/internal/infrastructure/events"
	"github.com/sangkips/tillpoint-api/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testPasscode = "123456"

func passcodeHash() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPasscode), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(hash)
}

func testMetrics() *metrics.Metrics {
	return metrics.New("test", nil)
}

// --- users ---

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[uuid.UUID]*entity.User{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	return r.Create(ctx, user)
}

func (r *fakeUserRepo) GetWithRoles(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeUserRepo) AssignRole(ctx context.Context, userID uuid.UUID, roleID uint) error {
	return nil
}

// --- branches ---

type fakeBranchRepo struct {
	branches map[uuid.UUID]*entity.Branch
}

func newFakeBranchRepo(branches ...*entity.Branch) *fakeBranchRepo {
	r := &fakeBranchRepo{branches: map[uuid.UUID]*entity.Branch{}}
	for _, b := range branches {
		r.branches[b.ID] = b
	}
	return r
}

func (r *fakeBranchRepo) Create(ctx context.Context, branch *entity.Branch) error {
	r.branches[branch.ID] = branch
	return nil
}

func (r *fakeBranchRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Branch, error) {
	return r.branches[id], nil
}

func (r *fakeBranchRepo) GetByCode(ctx context.Context, code string) (*entity.Branch, error) {
	for _, b := range r.branches {
		if b.Code == code {
			return b, nil
		}
	}
	return nil, nil
}

// --- shifts ---

type fakeShiftRepo struct {
	mu     sync.Mutex
	shifts map[uuid.UUID]entity.Shift
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{shifts: map[uuid.UUID]entity.Shift{}}
}

func (r *fakeShiftRepo) Create(ctx context.Context, shift *entity.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	r.shifts[shift.ID] = *shift
	return nil
}

func (r *fakeShiftRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *fakeShiftRepo) GetOpenByCashier(ctx context.Context, cashierID uuid.UUID) (*entity.Shift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.shifts {
		if s.CashierID == cashierID && s.IsOpen() {
			return &s, nil
		}
	}
	return nil, nil
}

func (r *fakeShiftRepo) Update(ctx context.Context, shift *entity.Shift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shifts[shift.ID] = *shift
	return nil
}

func (r *fakeShiftRepo) close(id uuid.UUID, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok || !s.IsOpen() {
		return false
	}
	s.Status = enum.ShiftSettled
	s.ClosedAt = &at
	r.shifts[id] = s
	return true
}

func (r *fakeShiftRepo) isOpen(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	return ok && s.IsOpen()
}

// --- sales ---

type fakeSaleRepo struct {
	mu        sync.Mutex
	shifts    *fakeShiftRepo
	sales     []*entity.Sale
	createErr error
}

func newFakeSaleRepo(shifts *fakeShiftRepo) *fakeSaleRepo {
	return &fakeSaleRepo{shifts: shifts}
}

func (r *fakeSaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if !r.shifts.isOpen(sale.ShiftID) {
		return repository.ErrShiftNotOpen
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, s := range r.sales {
		if s.SubmissionKey == sale.SubmissionKey {
			return repository.ErrDuplicateSubmission
		}
	}
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	stored := *sale
	r.sales = append(r.sales, &stored)
	return nil
}

func (r *fakeSaleRepo) find(match func(*entity.Sale) bool) *entity.Sale {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if match(s) {
			cp := *s
			return &cp
		}
	}
	return nil
}

func (r *fakeSaleRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Sale, error) {
	return r.find(func(s *entity.Sale) bool { return s.ID == id }), nil
}

func (r *fakeSaleRepo) GetBySubmissionKey(ctx context.Context, key string) (*entity.Sale, error) {
	return r.find(func(s *entity.Sale) bool { return s.SubmissionKey == key }), nil
}

func (r *fakeSaleRepo) GetByInvoiceNo(ctx context.Context, branchID uuid.UUID, invoiceNo string) (*entity.Sale, error) {
	return r.find(func(s *entity.Sale) bool { return s.BranchID == branchID && s.InvoiceNo == invoiceNo }), nil
}

func (r *fakeSaleRepo) List(ctx context.Context, params *repository.SaleFilterParams) ([]entity.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entity.Sale{}
	for _, s := range r.sales {
		if s.BranchID != params.BranchID {
			continue
		}
		if params.ShiftID != nil && s.ShiftID != *params.ShiftID {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSaleRepo) ListByShift(ctx context.Context, shiftID uuid.UUID) ([]entity.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entity.Sale{}
	for _, s := range r.sales {
		if s.ShiftID == shiftID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) MarkRefunded(ctx context.Context, id uuid.UUID, reason, refundedBy string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sales {
		if s.ID == id {
			if s.Status != enum.SaleCompleted || s.SettlementID != nil {
				return repository.ErrSaleNotRefundable
			}
			s.Status = enum.SaleRefunded
			s.RefundReason = reason
			s.RefundedBy = refundedBy
			s.RefundedAt = &at
			return nil
		}
	}
	return repository.ErrSaleNotRefundable
}

func (r *fakeSaleRepo) unsettled(shiftID uuid.UUID) []entity.Sale {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entity.Sale{}
	for _, s := range r.sales {
		if s.ShiftID == shiftID && s.SettlementID == nil {
			out = append(out, *s)
		}
	}
	return out
}

func (r *fakeSaleRepo) stamp(sales []entity.Sale, settlementID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counted := make(map[uuid.UUID]bool, len(sales))
	for _, s := range sales {
		counted[s.ID] = true
	}
	for _, s := range r.sales {
		if counted[s.ID] {
			id := settlementID
			s.SettlementID = &id
		}
	}
}

// --- settlements ---

type fakeSettlementRepo struct {
	mu          sync.Mutex
	shifts      *fakeShiftRepo
	sales       *fakeSaleRepo
	settlements map[uuid.UUID]*entity.Settlement
	settleCalls int
	// afterBuild runs between computing the totals and closing the shift.
	afterBuild func()
}

func newFakeSettlementRepo(shifts *fakeShiftRepo, sales *fakeSaleRepo) *fakeSettlementRepo {
	return &fakeSettlementRepo{shifts: shifts, sales: sales, settlements: map[uuid.UUID]*entity.Settlement{}}
}

func (r *fakeSettlementRepo) GetByShift(ctx context.Context, shiftID uuid.UUID) (*entity.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settlements[shiftID], nil
}

func (r *fakeSettlementRepo) Settle(ctx context.Context, shiftID uuid.UUID, build repository.SettlementBuilder) (*entity.Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settleCalls++
	shift, _ := r.shifts.GetByID(ctx, shiftID)
	if shift == nil || !shift.IsOpen() {
		return nil, repository.ErrShiftNotOpen
	}
	sales := r.sales.unsettled(shiftID)
	settlement, err := build(shift, sales)
	if err != nil {
		return nil, err
	}
	if r.afterBuild != nil {
		r.afterBuild()
	}
	if !r.shifts.close(shiftID, settlement.ConfirmedAt) {
		return nil, repository.ErrShiftNotOpen
	}
	if settlement.ID == uuid.Nil {
		settlement.ID = uuid.New()
	}
	r.sales.stamp(sales, settlement.ID)
	r.settlements[shiftID] = settlement
	return settlement, nil
}

// --- events ---

type recordingPublisher struct {
	mu          sync.Mutex
	sales       []events.Event
	settlements []events.Event
	err         error
}

func (p *recordingPublisher) PublishSale(ctx context.Context, key string, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sales = append(p.sales, evt)
	return p.err
}

func (p *recordingPublisher) PublishSettlement(ctx context.Context, key string, evt events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settlements = append(p.settlements, evt)
	return p.err
}

// --- fixture ---

type fixture struct {
	branch      *entity.Branch
	cashier     *entity.User
	users       *fakeUserRepo
	branches    *fakeBranchRepo
	shifts      *fakeShiftRepo
	sales       *fakeSaleRepo
	settlements *fakeSettlementRepo
	publisher   *recordingPublisher
	metrics     *metrics.Metrics
	log         *zap.Logger
}

func newFixture() *fixture {
	branch := &entity.Branch{ID: uuid.New(), Code: "MNL01", Name: "Manila Main", Address: "1 Rizal Ave", TaxID: "000-111-222"}
	branchID := branch.ID
	cashier := &entity.User{
		ID:        uuid.New(),
		FirstName: "Ana",
		LastName:  "Cruz",
		Username:  "ana",
		BranchID:  &branchID,
		Branch:    branch,
		IsActive:  true,
	}
	shifts := newFakeShiftRepo()
	sales := newFakeSaleRepo(shifts)
	return &fixture{
		branch:      branch,
		cashier:     cashier,
		users:       newFakeUserRepo(cashier),
		branches:    newFakeBranchRepo(branch),
		shifts:      shifts,
		sales:       sales,
		settlements: newFakeSettlementRepo(shifts, sales),
		publisher:   &recordingPublisher{},
		metrics:     testMetrics(),
		log:         zap.NewNop(),
	}
}

func (f *fixture) shiftService() *ShiftService {
	return NewShiftService(f.users, f.shifts, f.log)
}

func (f *fixture) ledger() *LedgerService {
	return NewLedgerService(f.sales, f.shifts, f.settlements, f.branches, f.publisher, f.metrics, f.log, "INV")
}
