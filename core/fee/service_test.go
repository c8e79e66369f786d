package fee_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmalache/chuo/core"
	"github.com/tmalache/chuo/core/fee"
	logsvc "github.com/tmalache/chuo/services/logger"
	queuesvc "github.com/tmalache/chuo/services/queue"
	dummydb "github.com/tmalache/chuo/storage/database/dummy"
)

var paymentSecret = []byte("payment-secret")

type fakeStudents map[string]string // id -> email

func (f fakeStudents) GetStudentContact(ctx context.Context, id string) (string, string, error) {
	email, ok := f[id]
	if !ok {
		return "", "", fee.ErrNotFound
	}
	return "Student " + id, email, nil
}

func setup(t *testing.T) (*fee.Service, core.TaskQueue) {
	db, err := dummydb.Open()
	require.NoError(t, err)

	queue := queuesvc.NewMemoryQueue(16)
	logger := logsvc.NewPlainLogger(log.New(io.Discard, "", 0))
	conf := &core.Config{PaymentSecret: paymentSecret}
	students := fakeStudents{"std-a": "alice@test.cd"}
	return fee.NewService(dummydb.NewFeeRepository(db), students, queue, logger, conf), queue
}

// sign reproduces the gateway's HMAC-SHA256 over "orderID|paymentID".
func sign(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, paymentSecret)
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}

func createFee(t *testing.T, svc *fee.Service, total float64) fee.Fee {
	f, err := svc.Create(context.Background(), fee.NewFee{
		StudentID:   "std-a",
		Year:        2,
		Semester:    1,
		Description: "Tuition",
		TotalAmount: total,
	})
	require.NoError(t, err)
	return f
}

func verify(t *testing.T, svc *fee.Service, orderID string, amount float64) (fee.Fee, fee.Payment, error) {
	paymentID := "pay-" + orderID[:8]
	return svc.VerifyAndRecord(context.Background(), fee.VerifyPayment{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: sign(orderID, paymentID),
		Amount:    amount,
		Method:    "card",
	})
}

func TestService_Create(t *testing.T) {
	svc, _ := setup(t)

	f := createFee(t, svc, 1000)
	assert.Equal(t, fee.StatusPending, f.Status)
	assert.Equal(t, 1000.0, f.TotalAmount)
	assert.Zero(t, f.PaidAmount)
	assert.Equal(t, 1000.0, f.PendingAmount)

	_, err := svc.Create(context.Background(), fee.NewFee{
		StudentID: "ghost", Year: 2, Semester: 1, TotalAmount: 100,
	})
	var vErr *core.ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestService_VerifyAndRecord(t *testing.T) {
	svc, queue := setup(t)
	f := createFee(t, svc, 1000)

	t.Run("bad signature writes nothing", func(t *testing.T) {
		_, _, err := svc.VerifyAndRecord(context.Background(), fee.VerifyPayment{
			OrderID:   f.ID,
			PaymentID: "pay-1",
			Signature: "forged",
			Amount:    400,
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, fee.ErrSignatureMismatch, vErr.Err)

		refreshed, err := svc.Get(context.Background(), f.ID)
		require.NoError(t, err)
		assert.Zero(t, refreshed.PaidAmount)
		assert.Equal(t, fee.StatusPending, refreshed.Status)
	})

	t.Run("negative amount", func(t *testing.T) {
		orderID, paymentID := f.ID, "pay-neg"
		_, _, err := svc.VerifyAndRecord(context.Background(), fee.VerifyPayment{
			OrderID: orderID, PaymentID: paymentID, Signature: sign(orderID, paymentID), Amount: -50,
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, fee.ErrRefundUnsupported, vErr.Err)
	})

	t.Run("partial payment", func(t *testing.T) {
		updated, payment, err := verify(t, svc, f.ID, 400)
		require.NoError(t, err)
		assert.Equal(t, 400.0, updated.PaidAmount)
		assert.Equal(t, 600.0, updated.PendingAmount)
		assert.Equal(t, fee.StatusPartial, updated.Status)
		assert.Contains(t, payment.ReceiptNumber, "RCPT-")
		assert.Equal(t, 1, queue.(interface{ Len() int }).Len(), "receipt email queued")
	})

	t.Run("overpayment", func(t *testing.T) {
		_, _, err := verify(t, svc, f.ID, 700)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, fee.ErrOverpayment, vErr.Err)
	})

	t.Run("settles to paid", func(t *testing.T) {
		updated, _, err := verify(t, svc, f.ID, 600)
		require.NoError(t, err)
		assert.Zero(t, updated.PendingAmount)
		assert.Equal(t, fee.StatusPaid, updated.Status)
	})

	t.Run("ledger", func(t *testing.T) {
		detail, err := svc.GetDetail(context.Background(), f.ID)
		require.NoError(t, err)
		require.Len(t, detail.Payments, 2)
		assert.Equal(t, 400.0, detail.Payments[0].Amount)
		assert.Equal(t, 600.0, detail.Payments[1].Amount)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, _, err := verify(t, svc, "no-such-order", 100)
		assert.Equal(t, fee.ErrNotFound, err)
	})
}

func TestService_ListForStudent(t *testing.T) {
	svc, _ := setup(t)
	createFee(t, svc, 1000)

	sem2, err := svc.Create(context.Background(), fee.NewFee{
		StudentID: "std-a", Year: 2, Semester: 2, TotalAmount: 500,
	})
	require.NoError(t, err)

	fees, err := svc.ListForStudent(context.Background(), "std-a", 0, 0)
	require.NoError(t, err)
	assert.Len(t, fees, 2)

	fees, err = svc.ListForStudent(context.Background(), "std-a", 2, 2)
	require.NoError(t, err)
	require.Len(t, fees, 1)
	assert.Equal(t, sem2.ID, fees[0].ID)

	fees, err = svc.ListForStudent(context.Background(), "nobody", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, fees)
}
