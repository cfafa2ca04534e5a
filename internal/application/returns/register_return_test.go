package returns_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/application/apptest"
	loanapp "github.com/xiebiao/library/internal/application/loan"
	resapp "github.com/xiebiao/library/internal/application/reservation"
	returnapp "github.com/xiebiao/library/internal/application/returns"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/internal/domain/returns"
)

type env struct {
	*apptest.Fixture
	lend     *loanapp.CreateLoanUseCase
	cancel   *loanapp.CancelLoanUseCase
	reserve  *resapp.CreateReservationUseCase
	register *returnapp.RegisterReturnUseCase

	copyID   uint
	patron   uint
	patron2  uint
	operator uint
}

func newEnv(t *testing.T) *env {
	f := apptest.New()
	s := f.Store
	e := &env{
		Fixture:  f,
		lend:     loanapp.NewCreateLoanUseCase(s, f.Arbiter, s.Loans(), s.Reservations(), s.Directory(), f.Events, f.Clock),
		cancel:   loanapp.NewCancelLoanUseCase(s, f.Arbiter, s.Loans(), f.Events),
		reserve:  resapp.NewCreateReservationUseCase(s, f.Arbiter, s.Reservations(), s.Directory(), f.Events, reservation.NewValidityPolicy(3), f.Clock),
		register: returnapp.NewRegisterReturnUseCase(s, f.Arbiter, s.Loans(), s.Returns(), s.Directory(), f.Events, f.Clock),
	}
	titleID := f.Title(t, "T1")
	e.copyID = f.Copy(t, titleID, "C101")
	e.patron = f.Patron("P1", true)
	e.patron2 = f.Patron("P2", true)
	e.operator = f.Operator("E1", true)
	return e
}

func (e *env) lendCopy(t *testing.T) uint {
	t.Helper()
	resp, err := e.lend.Execute(context.Background(), loanapp.CreateLoanRequest{
		CopyID:       e.copyID,
		PatronID:     e.patron,
		OperatorID:   e.operator,
		CheckoutDate: apptest.Day("2024-01-01"),
		DueDate:      apptest.Day("2024-01-15"),
	})
	require.NoError(t, err)
	return resp.Loan.ID
}

func (e *env) returnReq(loanID uint, date string) returnapp.RegisterReturnRequest {
	return returnapp.RegisterReturnRequest{
		LoanID:     loanID,
		OperatorID: e.operator,
		ReturnDate: apptest.Day(date),
	}
}

func TestRegisterReturn_Success(t *testing.T) {
	ctx := context.Background()

	t.Run("无人预约时副本恢复可借", func(t *testing.T) {
		e := newEnv(t)
		loanID := e.lendCopy(t)

		resp, err := e.register.Execute(ctx, e.returnReq(loanID, "2024-01-10"))
		require.NoError(t, err)
		assert.Equal(t, loanID, resp.LoanID)
		assert.Equal(t, e.copyID, resp.CopyID)
		assert.Equal(t, "2024-01-10", resp.ReturnedOn)
		assert.Equal(t, "available", resp.CopyStatus)
		assert.False(t, resp.Overdue)
		assert.Zero(t, resp.ReservedFor)

		l, err := e.Store.Loans().FindByID(ctx, loanID)
		require.NoError(t, err)
		assert.Equal(t, loan.StatusReturned, l.Status)
		require.NotNil(t, l.ReturnedOn)

		ret, err := e.Store.Returns().FindByLoanID(ctx, loanID)
		require.NoError(t, err)
		assert.Equal(t, resp.ReturnID, ret.ID)
		assert.Equal(t, e.operator, ret.OperatorID)
		assert.Equal(t, circulation.EventReturnRegistered, e.Events.Last().Type)
		t.Logf("✓ 归还成功: return_id=%d", resp.ReturnID)
	})

	t.Run("逾期归还会标记overdue", func(t *testing.T) {
		e := newEnv(t)
		loanID := e.lendCopy(t)

		resp, err := e.register.Execute(ctx, e.returnReq(loanID, "2024-01-16"))
		require.NoError(t, err)
		assert.True(t, resp.Overdue)
	})

	t.Run("有排队预约时副本转为保留", func(t *testing.T) {
		e := newEnv(t)
		loanID := e.lendCopy(t)
		_, err := e.reserve.Execute(ctx, resapp.CreateReservationRequest{
			CopyID:     e.copyID,
			PatronID:   e.patron2,
			ReservedOn: apptest.Day("2024-01-02"),
		})
		require.NoError(t, err)

		resp, err := e.register.Execute(ctx, e.returnReq(loanID, "2024-01-10"))
		require.NoError(t, err)
		assert.Equal(t, "reserved", resp.CopyStatus)
		assert.Equal(t, e.patron2, resp.ReservedFor)

		// 预约不会自动转成借阅
		st := e.StatusOf(t, e.copyID, "2024-01-10")
		assert.True(t, st.ReservedFor(e.patron2))
		assert.Nil(t, st.Loan)
	})
}

func TestRegisterReturn_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("借阅不存在", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.register.Execute(ctx, e.returnReq(999, "2024-01-10"))
		assert.ErrorIs(t, err, loan.ErrLoanNotFound)
	})

	t.Run("重复归还", func(t *testing.T) {
		e := newEnv(t)
		loanID := e.lendCopy(t)
		_, err := e.register.Execute(ctx, e.returnReq(loanID, "2024-01-10"))
		require.NoError(t, err)

		_, err = e.register.Execute(ctx, e.returnReq(loanID, "2024-01-11"))
		assert.ErrorIs(t, err, loan.ErrLoanAlreadyReturned)
	})

	t.Run("已取消的借阅不能归还", func(t *testing.T) {
		e := newEnv(t)
		loanID := e.lendCopy(t)
		_, err := e.cancel.Execute(ctx, loanID)
		require.NoError(t, err)

		_, err = e.register.Execute(ctx, e.returnReq(loanID, "2024-01-10"))
		assert.ErrorIs(t, err, loan.ErrLoanAlreadyCancelled)
	})

	t.Run("馆员停用时整个归还回滚", func(t *testing.T) {
		e := newEnv(t)
		loanID := e.lendCopy(t)
		e.Store.SetMemberActive(member.KindOperator, e.operator, false)

		_, err := e.register.Execute(ctx, e.returnReq(loanID, "2024-01-10"))
		assert.ErrorIs(t, err, member.ErrOperatorInactive)

		l, err := e.Store.Loans().FindByID(ctx, loanID)
		require.NoError(t, err)
		assert.True(t, l.IsActive())
		_, err = e.Store.Returns().FindByLoanID(ctx, loanID)
		assert.ErrorIs(t, err, returns.ErrReturnNotFound)
		assert.Equal(t, circulation.StatusOnLoan, e.StatusOf(t, e.copyID, "2024-01-10").Status)
	})

	t.Run("归还日期早于借出日期", func(t *testing.T) {
		e := newEnv(t)
		loanID := e.lendCopy(t)
		_, err := e.register.Execute(ctx, e.returnReq(loanID, "2023-12-31"))
		assert.ErrorIs(t, err, loan.ErrInvalidReturnDate)
	})
}

func TestLoanReturnRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	for i := 0; i < 3; i++ {
		loanID := e.lendCopy(t)
		assert.Equal(t, circulation.StatusOnLoan, e.StatusOf(t, e.copyID, "2024-01-01").Status)

		_, err := e.register.Execute(ctx, e.returnReq(loanID, "2024-01-05"))
		require.NoError(t, err)
		assert.Equal(t, circulation.StatusAvailable, e.StatusOf(t, e.copyID, "2024-01-05").Status)
	}
	t.Log("✓ 借出→归还可以反复进行，副本回到可借")
}
