package loan_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/application/apptest"
	loanapp "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/domain/reservation"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type env struct {
	*apptest.Fixture
	create *loanapp.CreateLoanUseCase
	cancel *loanapp.CancelLoanUseCase
	query  *loanapp.QueryUseCase

	titleID  uint
	copyID   uint
	patron   uint
	patron2  uint
	operator uint
}

func newEnv(t *testing.T) *env {
	f := apptest.New()
	s := f.Store
	e := &env{
		Fixture: f,
		create:  loanapp.NewCreateLoanUseCase(s, f.Arbiter, s.Loans(), s.Reservations(), s.Directory(), f.Events, f.Clock),
		cancel:  loanapp.NewCancelLoanUseCase(s, f.Arbiter, s.Loans(), f.Events),
		query:   loanapp.NewQueryUseCase(s.Loans()),
	}
	e.titleID = f.Title(t, "T1")
	e.copyID = f.Copy(t, e.titleID, "C101")
	e.patron = f.Patron("P1", true)
	e.patron2 = f.Patron("P2", true)
	e.operator = f.Operator("E1", true)
	return e
}

func (e *env) loanReq(copyID, patronID uint) loanapp.CreateLoanRequest {
	return loanapp.CreateLoanRequest{
		CopyID:       copyID,
		PatronID:     patronID,
		OperatorID:   e.operator,
		CheckoutDate: apptest.Day("2024-01-01"),
		DueDate:      apptest.Day("2024-01-15"),
	}
}

func TestCreateLoan_Success(t *testing.T) {
	e := newEnv(t)

	resp, err := e.create.Execute(context.Background(), e.loanReq(e.copyID, e.patron))
	require.NoError(t, err)
	assert.Equal(t, "active", resp.Loan.Status)
	assert.Equal(t, "2024-01-01", resp.Loan.CheckoutDate)
	assert.Equal(t, "2024-01-15", resp.Loan.DueDate)
	assert.Equal(t, "on_loan", resp.CopyStatus)
	assert.Zero(t, resp.FulfilledReservationID)

	assert.Equal(t, circulation.StatusOnLoan, e.StatusOf(t, e.copyID, "2024-01-01").Status)
	assert.Equal(t, []circulation.EventType{circulation.EventLoanCreated}, e.Events.Types())
	t.Logf("✓ 借出成功: loan_id=%d", resp.Loan.ID)
}

func TestCreateLoan_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, e *env) loanapp.CreateLoanRequest
		want    error
		kind    apperrors.Kind
	}{
		{
			name: "副本不存在",
			prepare: func(t *testing.T, e *env) loanapp.CreateLoanRequest {
				return e.loanReq(999, e.patron)
			},
			want: catalog.ErrCopyNotFound,
			kind: apperrors.KindNotFound,
		},
		{
			name: "书目已下架",
			prepare: func(t *testing.T, e *env) loanapp.CreateLoanRequest {
				title, _ := e.Store.Titles().FindByID(context.Background(), e.titleID)
				title.Delist()
				require.NoError(t, e.Store.Titles().Update(context.Background(), title))
				return e.loanReq(e.copyID, e.patron)
			},
			want: catalog.ErrTitleDelisted,
			kind: apperrors.KindPreconditionFailed,
		},
		{
			name: "副本已报废",
			prepare: func(t *testing.T, e *env) loanapp.CreateLoanRequest {
				_, err := e.Store.Copies().DiscardByTitle(context.Background(), e.titleID)
				require.NoError(t, err)
				return e.loanReq(e.copyID, e.patron)
			},
			want: catalog.ErrTitleDelisted,
			kind: apperrors.KindPreconditionFailed,
		},
		{
			name: "副本已借出",
			prepare: func(t *testing.T, e *env) loanapp.CreateLoanRequest {
				_, err := e.create.Execute(context.Background(), e.loanReq(e.copyID, e.patron2))
				require.NoError(t, err)
				return e.loanReq(e.copyID, e.patron)
			},
			want: loan.ErrCopyUnavailable,
			kind: apperrors.KindConflict,
		},
		{
			name: "读者不存在",
			prepare: func(t *testing.T, e *env) loanapp.CreateLoanRequest {
				return e.loanReq(e.copyID, 999)
			},
			want: member.ErrPatronNotFound,
			kind: apperrors.KindNotFound,
		},
		{
			name: "读者已停用",
			prepare: func(t *testing.T, e *env) loanapp.CreateLoanRequest {
				e.Store.SetMemberActive(member.KindPatron, e.patron, false)
				return e.loanReq(e.copyID, e.patron)
			},
			want: member.ErrPatronInactive,
			kind: apperrors.KindPreconditionFailed,
		},
		{
			name: "馆员不存在",
			prepare: func(t *testing.T, e *env) loanapp.CreateLoanRequest {
				req := e.loanReq(e.copyID, e.patron)
				req.OperatorID = 999
				return req
			},
			want: member.ErrOperatorNotFound,
			kind: apperrors.KindNotFound,
		},
		{
			name: "馆员已停用",
			prepare: func(t *testing.T, e *env) loanapp.CreateLoanRequest {
				e.Store.SetMemberActive(member.KindOperator, e.operator, false)
				return e.loanReq(e.copyID, e.patron)
			},
			want: member.ErrOperatorInactive,
			kind: apperrors.KindPreconditionFailed,
		},
		{
			name: "副本不可借优先于读者停用",
			prepare: func(t *testing.T, e *env) loanapp.CreateLoanRequest {
				_, err := e.create.Execute(context.Background(), e.loanReq(e.copyID, e.patron2))
				require.NoError(t, err)
				e.Store.SetMemberActive(member.KindPatron, e.patron, false)
				return e.loanReq(e.copyID, e.patron)
			},
			want: loan.ErrCopyUnavailable,
			kind: apperrors.KindConflict,
		},
		{
			name: "应还日期早于借出日期",
			prepare: func(t *testing.T, e *env) loanapp.CreateLoanRequest {
				req := e.loanReq(e.copyID, e.patron)
				req.DueDate = apptest.Day("2023-12-31")
				return req
			},
			want: loan.ErrInvalidDueDate,
			kind: apperrors.KindInvalidParams,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			req := tt.prepare(t, e)

			_, err := e.create.Execute(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.kind, apperrors.GetAppError(err).Kind())
		})
	}
}

func TestCreateLoan_FulfilsReservation(t *testing.T) {
	t.Run("为本读者保留的副本可以借出，预约转为fulfilled", func(t *testing.T) {
		e := newEnv(t)
		r := reservation.NewReservation(e.patron2, nil, e.titleID, e.copyID, apptest.Day("2024-01-01"), apptest.Day("2024-01-04"))
		require.NoError(t, e.Store.Reservations().Create(context.Background(), r))

		_, err := e.create.Execute(context.Background(), e.loanReq(e.copyID, e.patron))
		assert.ErrorIs(t, err, loan.ErrCopyUnavailable)

		resp, err := e.create.Execute(context.Background(), e.loanReq(e.copyID, e.patron2))
		require.NoError(t, err)
		assert.Equal(t, r.ID, resp.FulfilledReservationID)

		got, err := e.Store.Reservations().FindByID(context.Background(), r.ID)
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusFulfilled, got.Status)
		assert.Equal(t, []circulation.EventType{
			circulation.EventLoanCreated,
			circulation.EventReservationFulfilled,
		}, e.Events.Types())
	})

	t.Run("书目级预约兑现时记录实际副本", func(t *testing.T) {
		e := newEnv(t)
		r := reservation.NewReservation(e.patron2, nil, e.titleID, 0, apptest.Day("2024-01-01"), apptest.Day("2024-01-04"))
		require.NoError(t, e.Store.Reservations().Create(context.Background(), r))
		assert.True(t, e.StatusOf(t, e.copyID, "2024-01-01").ReservedFor(e.patron2))

		_, err := e.create.Execute(context.Background(), e.loanReq(e.copyID, e.patron2))
		require.NoError(t, err)

		got, _ := e.Store.Reservations().FindByID(context.Background(), r.ID)
		assert.Equal(t, reservation.StatusFulfilled, got.Status)
		assert.True(t, got.BoundTo(e.copyID))
	})

	t.Run("已过有效期的预约不再占用副本", func(t *testing.T) {
		e := newEnv(t)
		r := reservation.NewReservation(e.patron2, nil, e.titleID, e.copyID, apptest.Day("2024-01-01"), apptest.Day("2024-01-04"))
		require.NoError(t, e.Store.Reservations().Create(context.Background(), r))

		e.Clock.Set("2024-01-05")
		req := e.loanReq(e.copyID, e.patron)
		req.CheckoutDate = apptest.Day("2024-01-05")
		_, err := e.create.Execute(context.Background(), req)
		require.NoError(t, err)

		got, _ := e.Store.Reservations().FindByID(context.Background(), r.ID)
		assert.Equal(t, reservation.StatusExpired, got.Status)
	})
}

func TestCancelLoan(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.create.Execute(ctx, e.loanReq(e.copyID, e.patron))
	require.NoError(t, err)

	t.Run("取消后副本恢复可借", func(t *testing.T) {
		resp, err := e.cancel.Execute(ctx, created.Loan.ID)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Loan.Status)
		assert.Equal(t, "available", resp.CopyStatus)
		assert.Equal(t, circulation.EventLoanCancelled, e.Events.Last().Type)
	})

	t.Run("重复取消返回终态错误", func(t *testing.T) {
		_, err := e.cancel.Execute(ctx, created.Loan.ID)
		assert.ErrorIs(t, err, loan.ErrLoanAlreadyCancelled)
		assert.Equal(t, apperrors.KindAlreadyTerminal, apperrors.GetAppError(err).Kind())
	})

	t.Run("借阅不存在", func(t *testing.T) {
		_, err := e.cancel.Execute(ctx, 999)
		assert.ErrorIs(t, err, loan.ErrLoanNotFound)
	})

	t.Run("已归还的借阅不能取消", func(t *testing.T) {
		again, err := e.create.Execute(ctx, e.loanReq(e.copyID, e.patron))
		require.NoError(t, err)
		l, _ := e.Store.Loans().FindByID(ctx, again.Loan.ID)
		require.NoError(t, l.Return(apptest.Day("2024-01-05")))
		require.NoError(t, e.Store.Loans().Update(ctx, l))

		_, err = e.cancel.Execute(ctx, again.Loan.ID)
		assert.ErrorIs(t, err, loan.ErrLoanAlreadyReturned)
	})
}

func TestQuery(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	other := e.Copy(t, e.titleID, "C102")

	first, err := e.create.Execute(ctx, e.loanReq(e.copyID, e.patron))
	require.NoError(t, err)
	req := e.loanReq(other, e.patron)
	req.CheckoutDate = apptest.Day("2024-01-03")
	second, err := e.create.Execute(ctx, req)
	require.NoError(t, err)

	t.Run("按借出日期倒序分页", func(t *testing.T) {
		resp, err := e.query.ListByPatron(ctx, loanapp.ListByPatronRequest{PatronID: e.patron, Page: 1, PageSize: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Total)
		require.Len(t, resp.List, 1)
		assert.Equal(t, second.Loan.ID, resp.List[0].ID)
	})

	t.Run("借出中的记录不能删除", func(t *testing.T) {
		assert.ErrorIs(t, e.query.Delete(ctx, first.Loan.ID), loan.ErrLoanActive)
	})

	t.Run("取消后可以删除", func(t *testing.T) {
		_, err := e.cancel.Execute(ctx, first.Loan.ID)
		require.NoError(t, err)
		require.NoError(t, e.query.Delete(ctx, first.Loan.ID))

		_, err = e.query.Get(ctx, first.Loan.ID)
		assert.ErrorIs(t, err, loan.ErrLoanNotFound)
	})
}
