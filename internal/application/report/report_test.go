package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/domain/circulation"
)

type mockReader struct {
	mock.Mock
}

func (m *mockReader) OverdueLoans(ctx context.Context, asOf time.Time, limit int) ([]OverdueLoan, error) {
	args := m.Called(ctx, asOf, limit)
	items, _ := args.Get(0).([]OverdueLoan)
	return items, args.Error(1)
}

func (m *mockReader) Summary(ctx context.Context, asOf time.Time) (*Summary, error) {
	args := m.Called(ctx, asOf)
	s, _ := args.Get(0).(*Summary)
	return s, args.Error(1)
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestOverdue(t *testing.T) {
	ctx := context.Background()
	clock := circulation.FixedClock(day("2024-02-01"))

	t.Run("计算逾期天数，limit取默认值", func(t *testing.T) {
		reader := &mockReader{}
		reader.On("OverdueLoans", ctx, day("2024-02-01"), defaultLimit).Return([]OverdueLoan{
			{LoanID: 1, DueDate: day("2024-01-15")},
			{LoanID: 2, DueDate: day("2024-01-31")},
		}, nil)

		items, err := NewUseCase(reader, clock).Overdue(ctx, time.Time{}, 0)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, 17, items[0].DaysOverdue)
		assert.Equal(t, 1, items[1].DaysOverdue)
		reader.AssertExpectations(t)
	})

	t.Run("limit上限", func(t *testing.T) {
		reader := &mockReader{}
		reader.On("OverdueLoans", ctx, day("2024-01-20"), maxLimit).Return([]OverdueLoan{}, nil)

		_, err := NewUseCase(reader, clock).Overdue(ctx, day("2024-01-20"), 10000)
		require.NoError(t, err)
		reader.AssertExpectations(t)
	})

	t.Run("查询失败", func(t *testing.T) {
		reader := &mockReader{}
		reader.On("OverdueLoans", ctx, mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		_, err := NewUseCase(reader, clock).Overdue(ctx, time.Time{}, 5)
		assert.Error(t, err)
	})
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	reader := &mockReader{}
	reader.On("Summary", ctx, day("2024-02-01")).Return(&Summary{Titles: 3, ActiveLoans: 2}, nil)

	s, err := NewUseCase(reader, circulation.FixedClock(day("2024-02-01"))).Summary(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Titles)
	assert.Equal(t, "2024-02-01", s.AsOf)
	reader.AssertExpectations(t)
}
