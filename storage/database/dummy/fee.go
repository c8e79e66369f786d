package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/tmalache/chuo/core/fee"
)

type feeRepository struct {
	fees     *table[fee.Fee]
	payments *table[fee.Payment]
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{fees: db.fees, payments: db.payments}
}

func (repo *feeRepository) CreateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	repo.fees.Lock()
	defer repo.fees.Unlock()
	f.ID = uuid.NewString()
	repo.fees.rows[f.ID] = &f
	return f, nil
}

func (repo *feeRepository) GetFeeByID(ctx context.Context, id string) (fee.Fee, error) {
	repo.fees.RLock()
	defer repo.fees.RUnlock()
	if f, ok := repo.fees.rows[id]; ok {
		return *f, nil
	}
	return fee.Fee{}, fee.ErrNotFound
}

func (repo *feeRepository) GetFeeByOrderID(ctx context.Context, orderID string) (fee.Fee, error) {
	return repo.GetFeeByID(ctx, orderID)
}

func (repo *feeRepository) QueryFeesByStudent(ctx context.Context, studentID string, year, semester int) ([]fee.Fee, error) {
	repo.fees.RLock()
	defer repo.fees.RUnlock()
	fees := make([]fee.Fee, 0)
	for _, f := range repo.fees.rows {
		if f.StudentID != studentID {
			continue
		}
		if year != 0 && f.Year != year {
			continue
		}
		if semester != 0 && f.Semester != semester {
			continue
		}
		fees = append(fees, *f)
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].CreatedAt.After(fees[j].CreatedAt) })
	return fees, nil
}

func (repo *feeRepository) UpdateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	repo.fees.Lock()
	defer repo.fees.Unlock()
	if _, ok := repo.fees.rows[f.ID]; !ok {
		return fee.Fee{}, fee.ErrNotFound
	}
	repo.fees.rows[f.ID] = &f
	return f, nil
}

func (repo *feeRepository) DeleteFee(ctx context.Context, id string) error {
	repo.fees.Lock()
	defer repo.fees.Unlock()
	if _, ok := repo.fees.rows[id]; !ok {
		return fee.ErrNotFound
	}
	delete(repo.fees.rows, id)
	return nil
}

func (repo *feeRepository) ApplyPayment(ctx context.Context, f fee.Fee, p fee.Payment) (fee.Fee, fee.Payment, error) {
	repo.fees.Lock()
	defer repo.fees.Unlock()
	if _, ok := repo.fees.rows[f.ID]; !ok {
		return fee.Fee{}, fee.Payment{}, fee.ErrNotFound
	}

	repo.payments.Lock()
	defer repo.payments.Unlock()
	p.ID = uuid.NewString()
	repo.payments.rows[p.ID] = &p
	repo.fees.rows[f.ID] = &f
	return f, p, nil
}

func (repo *feeRepository) QueryPayments(ctx context.Context, feeID string) ([]fee.Payment, error) {
	repo.payments.RLock()
	defer repo.payments.RUnlock()
	payments := make([]fee.Payment, 0)
	for _, p := range repo.payments.rows {
		if p.FeeID == feeID {
			payments = append(payments, *p)
		}
	}
	sort.Slice(payments, func(i, j int) bool { return payments[i].PaidAt.Before(payments[j].PaidAt) })
	return payments, nil
}

func (repo *feeRepository) GetPaymentByID(ctx context.Context, id string) (fee.Payment, error) {
	repo.payments.RLock()
	defer repo.payments.RUnlock()
	if p, ok := repo.payments.rows[id]; ok {
		return *p, nil
	}
	return fee.Payment{}, fee.ErrNotFound
}
