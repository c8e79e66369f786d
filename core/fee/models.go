package fee

import (
	"context"
	"time"

	"github.com/tmalache/chuo/core"
)

// Fee status advances Pending → Partial → Paid as payments arrive;
// nothing moves it backwards.
type Status string

const (
	StatusPending Status = "Pending"
	StatusPartial Status = "Partial"
	StatusPaid    Status = "Paid"
)

// statusFor derives the aggregate status from the amounts.
func statusFor(total, paid float64) Status {
	switch {
	case paid <= 0:
		return StatusPending
	case paid < total:
		return StatusPartial
	default:
		return StatusPaid
	}
}

// Fee is the billing aggregate for one (student, year, semester) charge.
// PendingAmount is always TotalAmount - PaidAmount; the repo maintains
// the invariant inside the payment transaction.
type Fee struct {
	ID            string    `json:"id"`
	StudentID     string    `json:"student_id"`
	Year          int       `json:"year"`
	Semester      int       `json:"semester"`
	Description   string    `json:"description"`
	TotalAmount   float64   `json:"total_amount"`
	PaidAmount    float64   `json:"paid_amount"`
	PendingAmount float64   `json:"pending_amount"`
	Status        Status    `json:"status"`
	DueDate       time.Time `json:"due_date"`   // UTC
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

// Payment is one immutable ledger entry against a Fee.
type Payment struct {
	ID            string    `json:"id"`
	FeeID         string    `json:"fee_id"`
	OrderID       string    `json:"order_id"`
	PaymentID     string    `json:"payment_id"`
	Amount        float64   `json:"amount"`
	ReceiptNumber string    `json:"receipt_number"`
	Method        string    `json:"method"`
	PaidAt        time.Time `json:"paid_at"` // UTC
}

// FeeDetail is a fee with its payment ledger expanded.
type FeeDetail struct {
	Fee
	Payments []Payment `json:"payments"`
}

type Repository interface {
	CreateFee(ctx context.Context, f Fee) (Fee, error)
	GetFeeByID(ctx context.Context, id string) (Fee, error)
	GetFeeByOrderID(ctx context.Context, orderID string) (Fee, error)
	// QueryFeesByStudent applies AND on the optional year/semester window
	// (0 means unconstrained).
	QueryFeesByStudent(ctx context.Context, studentID string, year, semester int) ([]Fee, error)
	UpdateFee(ctx context.Context, f Fee) (Fee, error)
	DeleteFee(ctx context.Context, id string) error

	// ApplyPayment appends the ledger entry and updates the fee's
	// paid/pending amounts and status in one transaction.
	ApplyPayment(ctx context.Context, f Fee, p Payment) (Fee, Payment, error)
	QueryPayments(ctx context.Context, feeID string) ([]Payment, error)
	GetPaymentByID(ctx context.Context, id string) (Payment, error)
}

// StudentDirectory resolves the billed student for validation and
// receipt emails.
type StudentDirectory interface {
	GetStudentContact(ctx context.Context, id string) (name, email string, err error)
}

// NewFee contains information needed to raise a Fee.
type NewFee struct {
	StudentID   string  `json:"student_id" validate:"required"`
	Year        int     `json:"year" validate:"required,min=1,max=6"`
	Semester    int     `json:"semester" validate:"required,min=1,max=12"`
	Description string  `json:"description"`
	TotalAmount float64 `json:"total_amount" validate:"required,gt=0"`
	DueDate     string  `json:"due_date"` // 2006-01-02

	dueDate time.Time
}

func (nf *NewFee) Validate() error {
	nf.Description = core.CleanString(nf.Description)
	if err := core.Validate.Struct(nf); err != nil {
		return err
	}
	if nf.DueDate != "" {
		due, err := time.Parse("2006-01-02", nf.DueDate)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "due_date", Error: "due date must be formatted as 2006-01-02"})
		}
		nf.dueDate = due.UTC()
	}
	return nil
}

// VerifyPayment is the gateway confirmation callback payload.
type VerifyPayment struct {
	OrderID   string  `json:"order_id" validate:"required"`
	PaymentID string  `json:"payment_id" validate:"required"`
	Signature string  `json:"signature" validate:"required"`
	Amount    float64 `json:"amount" validate:"required"`
	Method    string  `json:"method"`
}

func (vp *VerifyPayment) Validate() error {
	vp.Method = core.CleanString(vp.Method)
	return core.Validate.Struct(vp)
}
