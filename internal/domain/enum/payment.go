package enum

// TenderMode is how the customer pays.
type TenderMode string

const (
	TenderCash     TenderMode = "cash"
	TenderCashless TenderMode = "cashless"
)

func (m TenderMode) String() string {
	return string(m)
}

// PaymentState is the position of a transaction in the checkout flow.
type PaymentState string

const (
	PaymentIdle               PaymentState = "idle"
	PaymentAccumulatingTender PaymentState = "accumulating_tender"
	PaymentCovered            PaymentState = "covered"
	PaymentFinalizing         PaymentState = "finalizing"
	PaymentCompleted          PaymentState = "completed"
	PaymentCancelled          PaymentState = "cancelled"
)

func (s PaymentState) String() string {
	return string(s)
}

// AcceptsEdits reports whether the order may still be changed.
func (s PaymentState) AcceptsEdits() bool {
	return s != PaymentFinalizing
}

// SaleStatus is the lifecycle of a persisted sale.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "completed"
	SaleRefunded  SaleStatus = "refunded"
)

// ShiftStatus is the lifecycle of a cashier shift.
type ShiftStatus string

const (
	ShiftOpen    ShiftStatus = "open"
	ShiftSettled ShiftStatus = "settled"
)

// Role is a staff role.
type Role string

const (
	RoleCashier       Role = "cashier"
	RoleBranchManager Role = "branch-manager"
	RoleAdmin         Role = "admin"
)
