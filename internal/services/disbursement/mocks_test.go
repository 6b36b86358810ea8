package disbursement

import (
	"context"
	"time"

	"disburse/internal/models"
	"disburse/internal/repositories"

	"github.com/stretchr/testify/mock"
)

type MockMerchantStore struct {
	mock.Mock
	batches [][]models.Merchant
}

func (m *MockMerchantStore) FindInBatches(ctx context.Context, size int, fn func([]models.Merchant) error) error {
	args := m.Called(ctx, size)
	if err := args.Error(0); err != nil {
		return err
	}
	for _, batch := range m.batches {
		if err := fn(batch); err != nil {
			return err
		}
	}
	return nil
}

type MockOrderStore struct {
	mock.Mock
}

func (m *MockOrderStore) OldestUnprocessedDate(ctx context.Context, merchantID uint) (time.Time, bool, error) {
	args := m.Called(ctx, merchantID)
	return args.Get(0).(time.Time), args.Bool(1), args.Error(2)
}

func (m *MockOrderStore) SumUnprocessed(ctx context.Context, merchantID uint, from, to time.Time) (repositories.PendingOrders, error) {
	args := m.Called(ctx, merchantID, from, to)
	return args.Get(0).(repositories.PendingOrders), args.Error(1)
}

type MockDisbursementStore struct {
	mock.Mock
}

func (m *MockDisbursementStore) CreateAndLinkOrders(ctx context.Context, d *models.Disbursement, orderIDs []uint) error {
	args := m.Called(ctx, d, orderIDs)
	return args.Error(0)
}

func (m *MockDisbursementStore) SumFeesBetween(ctx context.Context, merchantID uint, from, to time.Time) (int64, error) {
	args := m.Called(ctx, merchantID, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDisbursementStore) MonthlyFeeChargedBetween(ctx context.Context, merchantID uint, from, to time.Time) (bool, error) {
	args := m.Called(ctx, merchantID, from, to)
	return args.Bool(0), args.Error(1)
}

type sequenceRefs struct {
	refs []string
	next int
}

func (s *sequenceRefs) Generate(uint, time.Time) (string, error) {
	ref := s.refs[s.next%len(s.refs)]
	s.next++
	return ref, nil
}

// at matches a time argument by instant rather than representation.
func at(want time.Time) interface{} {
	return mock.MatchedBy(func(got time.Time) bool { return got.Equal(want) })
}

func jan(d int) time.Time {
	return time.Date(2023, time.January, d, 0, 0, 0, 0, time.UTC)
}
