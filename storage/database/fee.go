package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tmalache/chuo/core/fee"
)

type feeRow struct {
	ID            string    `db:"id"`
	StudentID     string    `db:"student_id"`
	Year          int       `db:"year"`
	Semester      int       `db:"semester"`
	Description   string    `db:"description"`
	TotalAmount   float64   `db:"total_amount"`
	PaidAmount    float64   `db:"paid_amount"`
	PendingAmount float64   `db:"pending_amount"`
	Status        string    `db:"status"`
	DueDate       null.Time `db:"due_date"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r feeRow) toDomain() fee.Fee {
	f := fee.Fee{
		ID:            r.ID,
		StudentID:     r.StudentID,
		Year:          r.Year,
		Semester:      r.Semester,
		Description:   r.Description,
		TotalAmount:   r.TotalAmount,
		PaidAmount:    r.PaidAmount,
		PendingAmount: r.PendingAmount,
		Status:        fee.Status(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.DueDate.Valid {
		f.DueDate = r.DueDate.Time
	}
	return f
}

type feeRepository struct {
	db *sqlx.DB
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *sqlx.DB) fee.Repository {
	return &feeRepository{db: db}
}

const feeCols = `id, student_id, year, semester, description, total_amount, paid_amount, pending_amount, status, due_date, created_at, updated_at`

func (repo *feeRepository) CreateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	q := `
	INSERT INTO fee (student_id, year, semester, description, total_amount, paid_amount, pending_amount, status, due_date, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`
	var due interface{}
	if !f.DueDate.IsZero() {
		due = f.DueDate
	}
	err := repo.db.QueryRowxContext(ctx, q,
		f.StudentID, f.Year, f.Semester, f.Description, f.TotalAmount, f.PaidAmount,
		f.PendingAmount, string(f.Status), due, f.CreatedAt, f.UpdatedAt,
	).Scan(&f.ID)
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "creating fee")
	}
	return f, nil
}

func (repo *feeRepository) GetFeeByID(ctx context.Context, id string) (fee.Fee, error) {
	var row feeRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+feeCols+` FROM fee WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return fee.Fee{}, fee.ErrNotFound
		}
		return fee.Fee{}, errors.Wrap(err, "getting fee")
	}
	return row.toDomain(), nil
}

// GetFeeByOrderID resolves a fee from the gateway's order reference; the
// order id carries the fee id.
func (repo *feeRepository) GetFeeByOrderID(ctx context.Context, orderID string) (fee.Fee, error) {
	return repo.GetFeeByID(ctx, orderID)
}

func (repo *feeRepository) QueryFeesByStudent(ctx context.Context, studentID string, year, semester int) ([]fee.Fee, error) {
	q := `SELECT ` + feeCols + ` FROM fee WHERE student_id = $1`
	args := []interface{}{studentID}
	if year != 0 {
		args = append(args, year)
		q += ` AND year = $` + argN(len(args))
	}
	if semester != 0 {
		args = append(args, semester)
		q += ` AND semester = $` + argN(len(args))
	}
	q += ` ORDER BY created_at DESC`

	var rows []feeRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying student fees")
	}
	fees := make([]fee.Fee, 0, len(rows))
	for _, row := range rows {
		fees = append(fees, row.toDomain())
	}
	return fees, nil
}

func (repo *feeRepository) UpdateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	q := `
	UPDATE fee
	SET description = $2, total_amount = $3, paid_amount = $4, pending_amount = $5, status = $6, updated_at = $7
	WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		f.ID, f.Description, f.TotalAmount, f.PaidAmount, f.PendingAmount, string(f.Status), f.UpdatedAt)
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "updating fee")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fee.Fee{}, fee.ErrNotFound
	}
	return f, nil
}

func (repo *feeRepository) DeleteFee(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM fee WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting fee")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fee.ErrNotFound
	}
	return nil
}

// ApplyPayment appends the ledger entry and persists the recomputed
// aggregate in one transaction; partial writes never surface.
func (repo *feeRepository) ApplyPayment(ctx context.Context, f fee.Fee, p fee.Payment) (fee.Fee, fee.Payment, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return fee.Fee{}, fee.Payment{}, errors.Wrap(err, "beginning payment tx")
	}
	defer func() { _ = tx.Rollback() }()

	q := `
	INSERT INTO fee_payment (fee_id, order_id, payment_id, amount, receipt_number, method, paid_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`
	err = tx.QueryRowxContext(ctx, q,
		p.FeeID, p.OrderID, p.PaymentID, p.Amount, p.ReceiptNumber, p.Method, p.PaidAt,
	).Scan(&p.ID)
	if err != nil {
		return fee.Fee{}, fee.Payment{}, errors.Wrap(err, "recording payment")
	}

	q = `UPDATE fee SET paid_amount = $2, pending_amount = $3, status = $4, updated_at = $5 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, q, f.ID, f.PaidAmount, f.PendingAmount, string(f.Status), f.UpdatedAt); err != nil {
		return fee.Fee{}, fee.Payment{}, errors.Wrap(err, "updating fee aggregate")
	}

	if err = tx.Commit(); err != nil {
		return fee.Fee{}, fee.Payment{}, errors.Wrap(err, "committing payment tx")
	}
	return f, p, nil
}

func (repo *feeRepository) QueryPayments(ctx context.Context, feeID string) ([]fee.Payment, error) {
	payments := make([]fee.Payment, 0)
	q := `
	SELECT id, fee_id, order_id, payment_id, amount, receipt_number, method, paid_at
	FROM fee_payment WHERE fee_id = $1
	ORDER BY paid_at ASC`
	rows, err := repo.db.QueryxContext(ctx, q, feeID)
	if err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var p fee.Payment
		if err = rows.Scan(&p.ID, &p.FeeID, &p.OrderID, &p.PaymentID, &p.Amount, &p.ReceiptNumber, &p.Method, &p.PaidAt); err != nil {
			return nil, errors.Wrap(err, "scanning payment")
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (repo *feeRepository) GetPaymentByID(ctx context.Context, id string) (fee.Payment, error) {
	var p fee.Payment
	q := `SELECT id, fee_id, order_id, payment_id, amount, receipt_number, method, paid_at FROM fee_payment WHERE id = $1`
	if err := repo.db.QueryRowxContext(ctx, q, id).
		Scan(&p.ID, &p.FeeID, &p.OrderID, &p.PaymentID, &p.Amount, &p.ReceiptNumber, &p.Method, &p.PaidAt); err != nil {
		if err == sql.ErrNoRows {
			return fee.Payment{}, fee.ErrNotFound
		}
		return fee.Payment{}, errors.Wrap(err, "getting payment")
	}
	return p, nil
}
