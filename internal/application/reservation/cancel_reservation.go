package reservation

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// CancelReservationUseCase 取消预约用例
type CancelReservationUseCase struct {
	tx           circulation.Transactor
	arbiter      *circulation.Arbiter
	reservations reservation.Repository
	publisher    circulation.Publisher
}

// NewCancelReservationUseCase 创建取消预约用例
func NewCancelReservationUseCase(
	tx circulation.Transactor,
	arbiter *circulation.Arbiter,
	reservations reservation.Repository,
	publisher circulation.Publisher,
) *CancelReservationUseCase {
	return &CancelReservationUseCase{
		tx:           tx,
		arbiter:      arbiter,
		reservations: reservations,
		publisher:    publisher,
	}
}

// Execute 取消预约
// 已过有效期但尚未清理的预约在加锁时会先被置为expired，此时返回不可取消
func (uc *CancelReservationUseCase) Execute(ctx context.Context, reservationID uint) (resp *ReservationView, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CancelReservation")
	start := time.Now()
	defer func() {
		metrics.ObserveOp("cancel_reservation", start, err)
		tracing.EndSpan(span, err)
	}()

	var cancelled *reservation.Reservation
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		r, err := uc.reservations.FindByID(txCtx, reservationID)
		if err != nil {
			return err
		}
		if !r.IsActive() {
			return reservation.ErrReservationNotCancellable
		}

		if _, err := uc.arbiter.LockTitle(txCtx, r.TitleID); err != nil {
			return err
		}
		r, err = uc.reservations.FindByID(txCtx, reservationID)
		if err != nil {
			return err
		}
		if err := r.Cancel(); err != nil {
			return err
		}
		if err := uc.reservations.Update(txCtx, r); err != nil {
			return err
		}
		cancelled = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	circulation.Notify(ctx, uc.publisher, circulation.NewEvent(circulation.EventReservationCancelled, map[string]interface{}{
		"reservation_id": cancelled.ID,
		"title_id":       cancelled.TitleID,
		"copy_id":        cancelled.CopyID,
		"patron_id":      cancelled.PatronID,
	}))

	v := NewReservationView(cancelled)
	return &v, nil
}
