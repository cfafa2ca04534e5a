package reservation

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/reservation"
	"github.com/xiebiao/library/pkg/civil"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// ExpireReservationsUseCase 预约过期清理
// 批量把有效期早于asOf的有效预约置为expired；相同asOf重复执行结果不变
type ExpireReservationsUseCase struct {
	tx           circulation.Transactor
	reservations reservation.Repository
	publisher    circulation.Publisher
	clock        circulation.Clock
}

// NewExpireReservationsUseCase 创建预约过期清理用例
func NewExpireReservationsUseCase(
	tx circulation.Transactor,
	reservations reservation.Repository,
	publisher circulation.Publisher,
	clock circulation.Clock,
) *ExpireReservationsUseCase {
	return &ExpireReservationsUseCase{
		tx:           tx,
		reservations: reservations,
		publisher:    publisher,
		clock:        clock,
	}
}

// ExpireReservationsResponse 清理结果
type ExpireReservationsResponse struct {
	AsOf    string `json:"as_of"`
	Expired int64  `json:"expired"`
}

// Execute 执行清理，asOf零值表示今天
func (uc *ExpireReservationsUseCase) Execute(ctx context.Context, asOf time.Time) (resp *ExpireReservationsResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "ExpireReservations")
	start := time.Now()
	defer func() {
		metrics.ObserveOp("expire_reservations", start, err)
		tracing.EndSpan(span, err)
	}()

	day := circulation.DateOr(asOf, uc.clock)

	var n int64
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		var err error
		n, err = uc.reservations.ExpireLapsed(txCtx, 0, day)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.AddExpired("sweep", n)
	if n > 0 {
		circulation.Notify(ctx, uc.publisher, circulation.NewEvent(circulation.EventReservationsExpired, map[string]interface{}{
			"as_of":   civil.Format(day),
			"expired": n,
		}))
	}

	return &ExpireReservationsResponse{
		AsOf:    civil.Format(day),
		Expired: n,
	}, nil
}
