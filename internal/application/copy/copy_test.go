package copy_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/application/apptest"
	copyapp "github.com/xiebiao/library/internal/application/copy"
	loanapp "github.com/xiebiao/library/internal/application/loan"
	resapp "github.com/xiebiao/library/internal/application/reservation"
	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/reservation"
)

type env struct {
	*apptest.Fixture
	register *copyapp.RegisterCopyUseCase
	status   *copyapp.StatusOfUseCase
	remove   *copyapp.DeleteCopyUseCase
	lend     *loanapp.CreateLoanUseCase
	reserve  *resapp.CreateReservationUseCase

	titleID  uint
	patron   uint
	patron2  uint
	operator uint
}

func newEnv(t *testing.T) *env {
	f := apptest.New()
	s := f.Store
	e := &env{
		Fixture:  f,
		register: copyapp.NewRegisterCopyUseCase(s, f.Arbiter, s.Copies()),
		status:   copyapp.NewStatusOfUseCase(s, f.Arbiter, f.Clock),
		remove:   copyapp.NewDeleteCopyUseCase(s, f.Arbiter, s.Copies()),
		lend:     loanapp.NewCreateLoanUseCase(s, f.Arbiter, s.Loans(), s.Reservations(), s.Directory(), f.Events, f.Clock),
		reserve:  resapp.NewCreateReservationUseCase(s, f.Arbiter, s.Reservations(), s.Directory(), f.Events, reservation.NewValidityPolicy(3), f.Clock),
	}
	e.titleID = f.Title(t, "T1")
	e.patron = f.Patron("P1", true)
	e.patron2 = f.Patron("P2", true)
	e.operator = f.Operator("E1", true)
	return e
}

func (e *env) lendCopy(t *testing.T, copyID uint) {
	t.Helper()
	_, err := e.lend.Execute(context.Background(), loanapp.CreateLoanRequest{
		CopyID:       copyID,
		PatronID:     e.patron,
		OperatorID:   e.operator,
		CheckoutDate: apptest.Day("2024-01-01"),
		DueDate:      apptest.Day("2024-01-15"),
	})
	require.NoError(t, err)
}

func TestRegisterCopy(t *testing.T) {
	ctx := context.Background()

	t.Run("登记流通副本", func(t *testing.T) {
		e := newEnv(t)
		v, err := e.register.Execute(ctx, copyapp.RegisterCopyRequest{TitleID: e.titleID, ExternalCode: " C101 "})
		require.NoError(t, err)
		assert.Equal(t, "C101", v.ExternalCode)
		assert.Equal(t, "circulating", v.Disposition)
		assert.Equal(t, "available", v.Status)
	})

	t.Run("书目级排队预约立即绑定到新副本", func(t *testing.T) {
		e := newEnv(t)
		first := e.Copy(t, e.titleID, "C101")
		e.lendCopy(t, first)
		_, err := e.reserve.Execute(ctx, resapp.CreateReservationRequest{CopyID: first, PatronID: e.patron2})
		require.NoError(t, err)
		p3 := e.Patron("P3", true)
		queued, err := e.reserve.Execute(ctx, resapp.CreateReservationRequest{TitleID: e.titleID, PatronID: p3})
		require.NoError(t, err)

		v, err := e.register.Execute(ctx, copyapp.RegisterCopyRequest{TitleID: e.titleID, ExternalCode: "C102"})
		require.NoError(t, err)
		assert.Equal(t, "reserved", v.Status)

		st := e.StatusOf(t, v.ID, "2024-01-01")
		require.NotNil(t, st.Reservation)
		require.True(t, queued.Queued)
		assert.Equal(t, queued.Reservation.ID, st.Reservation.ID)
		assert.True(t, st.ReservedFor(p3))
		t.Log("✓ 新副本的状态按推导结果返回")
	})

	t.Run("外部编码重复", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.register.Execute(ctx, copyapp.RegisterCopyRequest{TitleID: e.titleID, ExternalCode: "C101"})
		require.NoError(t, err)
		_, err = e.register.Execute(ctx, copyapp.RegisterCopyRequest{TitleID: e.titleID, ExternalCode: "C101"})
		assert.ErrorIs(t, err, catalog.ErrDuplicateCode)
	})

	t.Run("参数校验", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.register.Execute(ctx, copyapp.RegisterCopyRequest{TitleID: e.titleID})
		assert.ErrorIs(t, err, catalog.ErrInvalidCode)

		_, err = e.register.Execute(ctx, copyapp.RegisterCopyRequest{TitleID: e.titleID, ExternalCode: "C1", Disposition: "lost"})
		assert.ErrorIs(t, err, catalog.ErrInvalidDisposition)

		_, err = e.register.Execute(ctx, copyapp.RegisterCopyRequest{TitleID: 999, ExternalCode: "C1"})
		assert.ErrorIs(t, err, catalog.ErrTitleNotFound)
	})

	t.Run("已下架书目只能登记报废副本", func(t *testing.T) {
		e := newEnv(t)
		title, err := e.Store.Titles().FindByID(ctx, e.titleID)
		require.NoError(t, err)
		title.Delist()
		require.NoError(t, e.Store.Titles().Update(ctx, title))

		_, err = e.register.Execute(ctx, copyapp.RegisterCopyRequest{TitleID: e.titleID, ExternalCode: "C1"})
		assert.ErrorIs(t, err, catalog.ErrTitleDelisted)

		v, err := e.register.Execute(ctx, copyapp.RegisterCopyRequest{TitleID: e.titleID, ExternalCode: "C1", Disposition: "discarded"})
		require.NoError(t, err)
		assert.Equal(t, "discarded", v.Status)
	})
}

func TestStatusOf(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	first := e.Copy(t, e.titleID, "C101")
	second := e.Copy(t, e.titleID, "C102")
	e.lendCopy(t, first)
	_, err := e.reserve.Execute(ctx, resapp.CreateReservationRequest{
		CopyID:     first,
		PatronID:   e.patron2,
		ReservedOn: apptest.Day("2024-01-02"),
	})
	require.NoError(t, err)

	t.Run("借出中的副本有人排队时为reserved，同时带出借阅", func(t *testing.T) {
		v, err := e.status.Execute(ctx, first, apptest.Day("2024-01-02"))
		require.NoError(t, err)
		assert.Equal(t, "reserved", v.Status)
		assert.Equal(t, "2024-01-02", v.AsOf)
		assert.NotZero(t, v.LoanID)
		assert.Equal(t, "2024-01-15", v.DueDate)
		assert.NotZero(t, v.ReservationID)
		assert.Equal(t, e.patron2, v.ReservedFor)
	})

	t.Run("asOf为空时取当前日期", func(t *testing.T) {
		v, err := e.status.Execute(ctx, second, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, "available", v.Status)
		assert.Equal(t, "2024-01-01", v.AsOf)
	})

	t.Run("书目下副本按ID升序", func(t *testing.T) {
		list, err := e.status.ListByTitle(ctx, e.titleID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first, list[0].ID)
		assert.Equal(t, "reserved", list[0].Status)
		assert.Equal(t, "available", list[1].Status)
	})

	t.Run("副本不存在", func(t *testing.T) {
		_, err := e.status.Get(ctx, 999)
		assert.ErrorIs(t, err, catalog.ErrCopyNotFound)
	})
}

func TestDeleteCopy(t *testing.T) {
	ctx := context.Background()

	t.Run("借出中的副本不能删除", func(t *testing.T) {
		e := newEnv(t)
		c := e.Copy(t, e.titleID, "C101")
		e.lendCopy(t, c)
		assert.ErrorIs(t, e.remove.Execute(ctx, c), catalog.ErrCopyOnLoan)
	})

	t.Run("副本级预约占用时不能删除", func(t *testing.T) {
		e := newEnv(t)
		c := e.Copy(t, e.titleID, "C101")
		_, err := e.reserve.Execute(ctx, resapp.CreateReservationRequest{CopyID: c, PatronID: e.patron2})
		require.NoError(t, err)
		assert.ErrorIs(t, e.remove.Execute(ctx, c), catalog.ErrCopyReserved)
	})

	t.Run("书目级预约改由其他副本承接", func(t *testing.T) {
		e := newEnv(t)
		first := e.Copy(t, e.titleID, "C101")
		second := e.Copy(t, e.titleID, "C102")
		e.lendCopy(t, second)
		r := reservation.NewReservation(e.patron2, nil, e.titleID, 0, apptest.Day("2024-01-01"), apptest.Day("2024-01-04"))
		require.NoError(t, e.Store.Reservations().Create(ctx, r))
		assert.True(t, e.StatusOf(t, first, "2024-01-01").Matched)

		require.NoError(t, e.remove.Execute(ctx, first))
		_, err := e.status.Get(ctx, first)
		assert.ErrorIs(t, err, catalog.ErrCopyNotFound)
	})

	t.Run("空闲副本可以删除", func(t *testing.T) {
		e := newEnv(t)
		c := e.Copy(t, e.titleID, "C101")
		require.NoError(t, e.remove.Execute(ctx, c))
		assert.ErrorIs(t, e.remove.Execute(ctx, c), catalog.ErrCopyNotFound)
	})
}
