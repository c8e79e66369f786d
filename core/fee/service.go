package fee

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/tmalache/chuo/core"
)

var (
	// errors
	ErrNotFound          = errors.New("fee not found")
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	ErrRefundUnsupported = errors.New("refunds are not supported")
	ErrOverpayment       = errors.New("amount exceeds pending balance")
)

type Service struct {
	repo     Repository
	students StudentDirectory
	queue    core.TaskQueue
	logger   core.Logger
	secret   []byte
}

func NewService(repo Repository, students StudentDirectory, queue core.TaskQueue, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		repo:     repo,
		students: students,
		queue:    queue,
		logger:   logger,
		secret:   conf.PaymentSecret,
	}
}

// Create raises a fee against a student; the aggregate starts Pending
// with the full amount outstanding.
func (svc *Service) Create(ctx context.Context, nf NewFee) (Fee, error) {
	if _, _, err := svc.students.GetStudentContact(ctx, nf.StudentID); err != nil {
		return Fee{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
	}
	now := time.Now().UTC()
	return svc.repo.CreateFee(ctx, Fee{
		StudentID:     nf.StudentID,
		Year:          nf.Year,
		Semester:      nf.Semester,
		Description:   nf.Description,
		TotalAmount:   nf.TotalAmount,
		PaidAmount:    0,
		PendingAmount: nf.TotalAmount,
		Status:        StatusPending,
		DueDate:       nf.dueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (Fee, error) {
	return svc.repo.GetFeeByID(ctx, id)
}

func (svc *Service) GetDetail(ctx context.Context, id string) (FeeDetail, error) {
	f, err := svc.repo.GetFeeByID(ctx, id)
	if err != nil {
		return FeeDetail{}, err
	}
	payments, err := svc.repo.QueryPayments(ctx, id)
	if err != nil {
		return FeeDetail{}, err
	}
	return FeeDetail{Fee: f, Payments: payments}, nil
}

func (svc *Service) ListForStudent(ctx context.Context, studentID string, year, semester int) ([]Fee, error) {
	return svc.repo.QueryFeesByStudent(ctx, studentID, year, semester)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteFee(ctx, id)
}

func (svc *Service) GetPayment(ctx context.Context, id string) (Payment, error) {
	return svc.repo.GetPaymentByID(ctx, id)
}

// VerifyAndRecord runs the payment confirmation flow: signature check
// before any write, then ledger append and aggregate update in one
// transaction, then a best-effort receipt email.
func (svc *Service) VerifyAndRecord(ctx context.Context, vp VerifyPayment) (Fee, Payment, error) {
	if err := svc.verifySignature(vp.OrderID, vp.PaymentID, vp.Signature); err != nil {
		return Fee{}, Payment{}, core.NewValidationError(err)
	}
	if vp.Amount < 0 {
		return Fee{}, Payment{}, core.NewValidationError(ErrRefundUnsupported)
	}

	f, err := svc.repo.GetFeeByOrderID(ctx, vp.OrderID)
	if err != nil {
		return Fee{}, Payment{}, err
	}
	if vp.Amount > f.PendingAmount {
		return Fee{}, Payment{}, core.NewValidationError(ErrOverpayment)
	}

	now := time.Now().UTC()
	payment := Payment{
		FeeID:         f.ID,
		OrderID:       vp.OrderID,
		PaymentID:     vp.PaymentID,
		Amount:        vp.Amount,
		ReceiptNumber: receiptNumber(now),
		Method:        vp.Method,
		PaidAt:        now,
	}

	f.PaidAmount = core.Round2(f.PaidAmount + vp.Amount)
	f.PendingAmount = core.Round2(f.TotalAmount - f.PaidAmount)
	f.Status = statusFor(f.TotalAmount, f.PaidAmount)
	f.UpdatedAt = now

	f, payment, err = svc.repo.ApplyPayment(ctx, f, payment)
	if err != nil {
		return Fee{}, Payment{}, errors.Wrap(err, "applying payment")
	}

	svc.sendReceipt(ctx, f, payment)
	return f, payment, nil
}

// verifySignature checks the gateway's HMAC-SHA256 over "orderID|paymentID".
func (svc *Service) verifySignature(orderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, svc.secret)
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

// receiptNumber formats "RCPT-<year>-<8 uuid chars>".
func receiptNumber(t time.Time) string {
	return fmt.Sprintf("RCPT-%d-%s", t.Year(), uuid.NewString()[:8])
}

// sendReceipt queues the receipt email; failures are logged, the payment
// already stands.
func (svc *Service) sendReceipt(ctx context.Context, f Fee, p Payment) {
	name, email, err := svc.students.GetStudentContact(ctx, f.StudentID)
	if err != nil {
		svc.logger.Error("resolving student for receipt", err)
		return
	}
	task, err := core.EmailTask{
		ToName:    name,
		ToAddress: email,
		Subject:   fmt.Sprintf("Payment receipt %s", p.ReceiptNumber),
		Text: fmt.Sprintf(
			"Hi %s,\n\nWe received your payment of %.2f (receipt %s).\nOutstanding balance: %.2f.",
			name, p.Amount, p.ReceiptNumber, f.PendingAmount),
	}.Task()
	if err != nil {
		svc.logger.Error("encoding receipt email task", err)
		return
	}
	if err := svc.queue.Publish(ctx, task); err != nil {
		svc.logger.Error("queueing receipt email task", err)
	}
}
