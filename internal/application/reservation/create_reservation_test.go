package reservation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/library/internal/application/apptest"
	loanapp "github.com/xiebiao/library/internal/application/loan"
	resapp "github.com/xiebiao/library/internal/application/reservation"
	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/domain/reservation"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

type env struct {
	*apptest.Fixture
	reserve *resapp.CreateReservationUseCase
	cancel  *resapp.CancelReservationUseCase
	expire  *resapp.ExpireReservationsUseCase
	query   *resapp.QueryUseCase
	lend    *loanapp.CreateLoanUseCase

	titleID  uint
	copyID   uint
	patron   uint
	patron2  uint
	patron3  uint
	operator uint
}

func newEnv(t *testing.T) *env {
	f := apptest.New()
	s := f.Store
	e := &env{
		Fixture: f,
		reserve: resapp.NewCreateReservationUseCase(s, f.Arbiter, s.Reservations(), s.Directory(), f.Events, reservation.NewValidityPolicy(0), f.Clock),
		cancel:  resapp.NewCancelReservationUseCase(s, f.Arbiter, s.Reservations(), f.Events),
		expire:  resapp.NewExpireReservationsUseCase(s, s.Reservations(), f.Events, f.Clock),
		query:   resapp.NewQueryUseCase(s.Reservations()),
		lend:    loanapp.NewCreateLoanUseCase(s, f.Arbiter, s.Loans(), s.Reservations(), s.Directory(), f.Events, f.Clock),
	}
	e.titleID = f.Title(t, "T1")
	e.copyID = f.Copy(t, e.titleID, "C101")
	e.patron = f.Patron("P1", true)
	e.patron2 = f.Patron("P2", true)
	e.patron3 = f.Patron("P3", true)
	e.operator = f.Operator("E1", true)
	return e
}

func (e *env) lendCopy(t *testing.T, copyID, patronID uint, checkout, due string) {
	t.Helper()
	_, err := e.lend.Execute(context.Background(), loanapp.CreateLoanRequest{
		CopyID:       copyID,
		PatronID:     patronID,
		OperatorID:   e.operator,
		CheckoutDate: apptest.Day(checkout),
		DueDate:      apptest.Day(due),
	})
	require.NoError(t, err)
}

func (e *env) copyReq(copyID, patronID uint, reservedOn string) resapp.CreateReservationRequest {
	return resapp.CreateReservationRequest{
		CopyID:     copyID,
		PatronID:   patronID,
		ReservedOn: apptest.Day(reservedOn),
	}
}

func (e *env) titleReq(patronID uint, reservedOn string) resapp.CreateReservationRequest {
	return resapp.CreateReservationRequest{
		TitleID:    e.titleID,
		PatronID:   patronID,
		ReservedOn: apptest.Day(reservedOn),
	}
}

func TestCreateReservation_CopyTarget(t *testing.T) {
	ctx := context.Background()

	t.Run("可借副本：立即保留，有效期为预约日+3天", func(t *testing.T) {
		e := newEnv(t)
		resp, err := e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron, "2024-01-02"))
		require.NoError(t, err)

		assert.Equal(t, "active", resp.Reservation.Status)
		assert.Equal(t, "2024-01-05", resp.Reservation.ExpiresOn)
		assert.Equal(t, "reserved", resp.CopyStatus)
		assert.Empty(t, resp.BlockingDueDate)
		assert.False(t, resp.Queued)
		assert.True(t, e.StatusOf(t, e.copyID, "2024-01-02").ReservedFor(e.patron))
		t.Logf("✓ 预约成功: reservation_id=%d", resp.Reservation.ID)
	})

	t.Run("借出中副本：排在借阅之后，有效期至少到应还日+1", func(t *testing.T) {
		e := newEnv(t)
		e.lendCopy(t, e.copyID, e.patron, "2024-01-01", "2024-01-15")

		resp, err := e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron2, "2024-01-02"))
		require.NoError(t, err)
		assert.Equal(t, "reserved", resp.CopyStatus)
		assert.Equal(t, "2024-01-15", resp.BlockingDueDate)
		assert.Equal(t, "2024-01-16", resp.Reservation.ExpiresOn)

		st := e.StatusOf(t, e.copyID, "2024-01-02")
		assert.Equal(t, circulation.StatusReserved, st.Status)
		assert.True(t, st.OnLoan())
		require.NotNil(t, st.Reservation)
		assert.Equal(t, e.patron2, st.Reservation.PatronID)
	})

	t.Run("指定的有效期更晚时以指定值为准", func(t *testing.T) {
		e := newEnv(t)
		req := e.copyReq(e.copyID, e.patron, "2024-01-02")
		want := apptest.Day("2024-01-20")
		req.ExpiresOn = &want

		resp, err := e.reserve.Execute(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-20", resp.Reservation.ExpiresOn)
	})

	t.Run("每个副本只有一个排队位置", func(t *testing.T) {
		e := newEnv(t)
		e.lendCopy(t, e.copyID, e.patron, "2024-01-01", "2024-01-15")
		_, err := e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron2, "2024-01-02"))
		require.NoError(t, err)

		_, err = e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron3, "2024-01-02"))
		assert.ErrorIs(t, err, reservation.ErrReservationAlreadyActive)
		assert.Equal(t, apperrors.KindConflict, apperrors.GetAppError(err).Kind())
	})

	t.Run("旧预约过期后副本可以再次预约", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron, "2024-01-02"))
		require.NoError(t, err)

		e.Clock.Set("2024-01-06")
		resp, err := e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron2, "2024-01-06"))
		require.NoError(t, err)
		assert.Equal(t, "reserved", resp.CopyStatus)
	})
}

func TestCreateReservation_Rejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(t *testing.T, e *env) resapp.CreateReservationRequest
		want    error
	}{
		{
			name: "未指定副本和书目",
			prepare: func(t *testing.T, e *env) resapp.CreateReservationRequest {
				return resapp.CreateReservationRequest{PatronID: e.patron}
			},
			want: reservation.ErrTargetRequired,
		},
		{
			name: "有效期早于预约日",
			prepare: func(t *testing.T, e *env) resapp.CreateReservationRequest {
				req := e.copyReq(e.copyID, e.patron, "2024-01-05")
				early := apptest.Day("2024-01-04")
				req.ExpiresOn = &early
				return req
			},
			want: apperrors.ErrInvalidParams,
		},
		{
			name: "读者已停用",
			prepare: func(t *testing.T, e *env) resapp.CreateReservationRequest {
				e.Store.SetMemberActive(member.KindPatron, e.patron, false)
				return e.copyReq(e.copyID, e.patron, "2024-01-02")
			},
			want: member.ErrPatronInactive,
		},
		{
			name: "代办馆员不存在",
			prepare: func(t *testing.T, e *env) resapp.CreateReservationRequest {
				req := e.copyReq(e.copyID, e.patron, "2024-01-02")
				op := uint(999)
				req.OperatorID = &op
				return req
			},
			want: member.ErrOperatorNotFound,
		},
		{
			name: "副本不存在",
			prepare: func(t *testing.T, e *env) resapp.CreateReservationRequest {
				return e.copyReq(999, e.patron, "2024-01-02")
			},
			want: catalog.ErrCopyNotFound,
		},
		{
			name: "副本已报废",
			prepare: func(t *testing.T, e *env) resapp.CreateReservationRequest {
				_, err := e.Store.Copies().DiscardByTitle(context.Background(), e.titleID)
				require.NoError(t, err)
				return e.copyReq(e.copyID, e.patron, "2024-01-02")
			},
			want: catalog.ErrTitleDelisted,
		},
		{
			name: "书目已下架",
			prepare: func(t *testing.T, e *env) resapp.CreateReservationRequest {
				title, err := e.Store.Titles().FindByID(context.Background(), e.titleID)
				require.NoError(t, err)
				title.Delist()
				require.NoError(t, e.Store.Titles().Update(context.Background(), title))
				return e.titleReq(e.patron, "2024-01-02")
			},
			want: catalog.ErrTitleDelisted,
		},
		{
			name: "书目没有副本",
			prepare: func(t *testing.T, e *env) resapp.CreateReservationRequest {
				empty := e.Title(t, "T-empty")
				return resapp.CreateReservationRequest{TitleID: empty, PatronID: e.patron}
			},
			want: reservation.ErrNoCopyForTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			_, err := e.reserve.Execute(ctx, tt.prepare(t, e))
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, e.Events.Types())
		})
	}
}

func TestCreateReservation_TitleTarget(t *testing.T) {
	ctx := context.Background()

	t.Run("优先绑定ID最小的可借副本", func(t *testing.T) {
		e := newEnv(t)
		second := e.Copy(t, e.titleID, "C102")
		e.lendCopy(t, e.copyID, e.patron, "2024-01-01", "2024-01-15")

		resp, err := e.reserve.Execute(ctx, e.titleReq(e.patron2, "2024-01-02"))
		require.NoError(t, err)
		require.NotNil(t, resp.Reservation.CopyID)
		assert.Equal(t, second, *resp.Reservation.CopyID)
		assert.Equal(t, "reserved", resp.CopyStatus)
	})

	t.Run("没有可借副本时排在无人排队的借出副本之后", func(t *testing.T) {
		e := newEnv(t)
		second := e.Copy(t, e.titleID, "C102")
		e.lendCopy(t, e.copyID, e.patron, "2024-01-01", "2024-01-10")
		e.lendCopy(t, second, e.patron, "2024-01-01", "2024-01-20")
		_, err := e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron2, "2024-01-02"))
		require.NoError(t, err)

		resp, err := e.reserve.Execute(ctx, e.titleReq(e.patron3, "2024-01-02"))
		require.NoError(t, err)
		require.NotNil(t, resp.Reservation.CopyID)
		assert.Equal(t, second, *resp.Reservation.CopyID)
		assert.Equal(t, "2024-01-20", resp.BlockingDueDate)
		assert.Equal(t, "2024-01-21", resp.Reservation.ExpiresOn)
	})

	t.Run("所有副本都有人排队时进入书目级队列", func(t *testing.T) {
		e := newEnv(t)
		e.lendCopy(t, e.copyID, e.patron, "2024-01-01", "2024-01-15")
		_, err := e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron2, "2024-01-02"))
		require.NoError(t, err)

		resp, err := e.reserve.Execute(ctx, e.titleReq(e.patron3, "2024-01-03"))
		require.NoError(t, err)
		assert.True(t, resp.Queued)
		assert.Nil(t, resp.Reservation.CopyID)
		assert.Empty(t, resp.CopyStatus)
		assert.Equal(t, "2024-01-15", resp.BlockingDueDate)
		assert.Equal(t, "2024-01-16", resp.Reservation.ExpiresOn)
	})
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("取消后副本恢复可借", func(t *testing.T) {
		e := newEnv(t)
		created, err := e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron, "2024-01-01"))
		require.NoError(t, err)

		v, err := e.cancel.Execute(ctx, created.Reservation.ID)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", v.Status)
		assert.Equal(t, circulation.StatusAvailable, e.StatusOf(t, e.copyID, "2024-01-01").Status)
		assert.Equal(t, circulation.EventReservationCancelled, e.Events.Last().Type)

		_, err = e.cancel.Execute(ctx, created.Reservation.ID)
		assert.ErrorIs(t, err, reservation.ErrReservationNotCancellable)
		assert.Equal(t, apperrors.KindAlreadyTerminal, apperrors.GetAppError(err).Kind())
	})

	t.Run("已过有效期的预约不能取消", func(t *testing.T) {
		e := newEnv(t)
		created, err := e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron, "2024-01-01"))
		require.NoError(t, err)

		e.Clock.Set("2024-01-10")
		_, err = e.cancel.Execute(ctx, created.Reservation.ID)
		assert.ErrorIs(t, err, reservation.ErrReservationNotCancellable)

		got, err := e.query.Get(ctx, created.Reservation.ID)
		require.NoError(t, err)
		assert.Equal(t, "expired", got.Status)
	})

	t.Run("预约不存在", func(t *testing.T) {
		e := newEnv(t)
		_, err := e.cancel.Execute(ctx, 999)
		assert.ErrorIs(t, err, reservation.ErrReservationNotFound)
	})
}

func TestExpireReservations(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	second := e.Copy(t, e.titleID, "C102")

	_, err := e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron, "2024-01-01"))
	require.NoError(t, err)
	later := e.copyReq(second, e.patron2, "2024-01-01")
	until := apptest.Day("2024-01-08")
	later.ExpiresOn = &until
	_, err = e.reserve.Execute(ctx, later)
	require.NoError(t, err)

	t.Run("有效期当天仍然有效", func(t *testing.T) {
		resp, err := e.expire.Execute(ctx, apptest.Day("2024-01-04"))
		require.NoError(t, err)
		assert.Equal(t, int64(0), resp.Expired)
	})

	t.Run("只清理有效期早于asOf的预约", func(t *testing.T) {
		resp, err := e.expire.Execute(ctx, apptest.Day("2024-01-05"))
		require.NoError(t, err)
		assert.Equal(t, "2024-01-05", resp.AsOf)
		assert.Equal(t, int64(1), resp.Expired)
		assert.Equal(t, circulation.StatusAvailable, e.StatusOf(t, e.copyID, "2024-01-05").Status)
		assert.Equal(t, circulation.StatusReserved, e.StatusOf(t, second, "2024-01-05").Status)
	})

	t.Run("相同asOf重复执行不再变化", func(t *testing.T) {
		before := len(e.Events.Types())
		resp, err := e.expire.Execute(ctx, apptest.Day("2024-01-05"))
		require.NoError(t, err)
		assert.Equal(t, int64(0), resp.Expired)
		assert.Len(t, e.Events.Types(), before)
	})

	t.Run("asOf为空时取当前日期", func(t *testing.T) {
		e.Clock.Set("2024-01-09")
		resp, err := e.expire.Execute(ctx, time.Time{})
		require.NoError(t, err)
		assert.Equal(t, "2024-01-09", resp.AsOf)
		assert.Equal(t, int64(1), resp.Expired)
		assert.Equal(t, circulation.EventReservationsExpired, e.Events.Last().Type)
	})
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	second := e.Copy(t, e.titleID, "C102")

	first, err := e.reserve.Execute(ctx, e.copyReq(e.copyID, e.patron, "2024-01-01"))
	require.NoError(t, err)
	_, err = e.reserve.Execute(ctx, e.copyReq(second, e.patron, "2024-01-02"))
	require.NoError(t, err)

	t.Run("读者预约列表", func(t *testing.T) {
		resp, err := e.query.ListByPatron(ctx, resapp.ListByPatronRequest{PatronID: e.patron})
		require.NoError(t, err)
		assert.Equal(t, int64(2), resp.Total)
		require.Len(t, resp.List, 2)
		assert.Equal(t, "2024-01-02", resp.List[0].ReservedOn)
	})

	t.Run("有效预约不能删除", func(t *testing.T) {
		assert.ErrorIs(t, e.query.Delete(ctx, first.Reservation.ID), reservation.ErrReservationActive)
	})

	t.Run("取消后可以删除", func(t *testing.T) {
		_, err := e.cancel.Execute(ctx, first.Reservation.ID)
		require.NoError(t, err)
		require.NoError(t, e.query.Delete(ctx, first.Reservation.ID))
		_, err = e.query.Get(ctx, first.Reservation.ID)
		assert.ErrorIs(t, err, reservation.ErrReservationNotFound)
	})
}
