package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/libdesk/core/payment"
)

type paymentRepository struct {
	db *DB
}

var _ payment.Repository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) payment.Repository {
	return &paymentRepository{db: db}
}

// get must be called with the lock held.
func (repo *paymentRepository) get(libraryID, id string) (*payment.Payment, error) {
	p, ok := repo.db.payments[id]
	if !ok || p.LibraryID != libraryID {
		return nil, payment.ErrNotFound
	}
	return p, nil
}

// withStudent must be called with the lock held.
func (repo *paymentRepository) withStudent(p payment.Payment) payment.Payment {
	if s, ok := repo.db.students[p.StudentID]; ok {
		p.StudentName = s.Name
		p.StudentRollNumber = s.RollNumber
	}
	return p
}

func (repo *paymentRepository) CreatePayment(_ context.Context, p payment.Payment) (payment.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.payments[p.ID] = &p
	return p, nil
}

func (repo *paymentRepository) GetPayment(_ context.Context, libraryID, id string) (payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	p, err := repo.get(libraryID, id)
	if err != nil {
		return payment.Payment{}, err
	}
	return *p, nil
}

func (repo *paymentRepository) UpdatePayment(_ context.Context, p payment.Payment) (payment.Payment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, err := repo.get(p.LibraryID, p.ID)
	if err != nil {
		return payment.Payment{}, err
	}
	p.StudentID = orig.StudentID
	p.PaidDate = orig.PaidDate
	p.CreatedAt = orig.CreatedAt
	repo.db.payments[p.ID] = &p
	return p, nil
}

func (repo *paymentRepository) DeletePayment(_ context.Context, libraryID, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, err := repo.get(libraryID, id); err != nil {
		return err
	}
	delete(repo.db.payments, id)
	return nil
}

func (repo *paymentRepository) StudentPayments(_ context.Context, libraryID, studentID string) ([]payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	payments := make([]payment.Payment, 0)
	for _, p := range repo.db.payments {
		if p.LibraryID == libraryID && p.StudentID == studentID {
			payments = append(payments, *p)
		}
	}
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].FromMonth.After(payments[j].FromMonth) })
	return payments, nil
}

func (repo *paymentRepository) QueryPayments(_ context.Context, libraryID string, filter payment.QueryFilter) ([]payment.Payment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	from, to, ranged := filter.Range()
	payments := make([]payment.Payment, 0)
	for _, p := range repo.db.payments {
		if p.LibraryID != libraryID {
			continue
		}
		if ranged && (p.PaidDate.Before(from) || p.PaidDate.After(to)) {
			continue
		}
		payments = append(payments, repo.withStudent(*p))
	}
	sort.SliceStable(payments, func(i, j int) bool { return payments[i].PaidDate.After(payments[j].PaidDate) })
	return payments, nil
}

func (repo *paymentRepository) RecentPayments(_ context.Context, libraryID string, since time.Time) ([]payment.RecentPayment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	recent := make([]payment.RecentPayment, 0)
	for _, p := range repo.db.payments {
		if p.LibraryID != libraryID || p.PaidDate.Before(since) {
			continue
		}
		s, ok := repo.db.students[p.StudentID]
		if !ok { // inner join
			continue
		}
		recent = append(recent, payment.RecentPayment{
			ID:            p.ID,
			Name:          s.Name,
			RollNumber:    s.RollNumber,
			PaidDate:      p.PaidDate,
			Amount:        p.Amount,
			PaymentMethod: p.PaymentMethod,
		})
	}
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].PaidDate.After(recent[j].PaidDate) })
	return recent, nil
}

func (repo *paymentRepository) TotalsByMethod(_ context.Context, libraryID string, from, to time.Time) ([]payment.MethodTotal, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var inRange []payment.Payment
	for _, p := range repo.db.payments {
		if p.LibraryID == libraryID && !p.PaidDate.Before(from) && !p.PaidDate.After(to) {
			inRange = append(inRange, *p)
		}
	}
	return payment.GroupByMethod(inRange), nil
}
