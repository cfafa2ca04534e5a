package copy

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// DeleteCopyUseCase 删除副本用例
type DeleteCopyUseCase struct {
	tx      circulation.Transactor
	arbiter *circulation.Arbiter
	copies  catalog.CopyRepository
}

// NewDeleteCopyUseCase 创建删除副本用例
func NewDeleteCopyUseCase(tx circulation.Transactor, arbiter *circulation.Arbiter, copies catalog.CopyRepository) *DeleteCopyUseCase {
	return &DeleteCopyUseCase{
		tx:      tx,
		arbiter: arbiter,
		copies:  copies,
	}
}

// Execute 删除副本
// 借出中的副本拒绝删除；被副本级预约占用的也拒绝删除
// 书目级预约只是临时绑定，删除后会转到其他空闲副本或继续排队
func (uc *DeleteCopyUseCase) Execute(ctx context.Context, copyID uint) (err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "DeleteCopy")
	start := time.Now()
	defer func() {
		metrics.ObserveOp("delete_copy", start, err)
		tracing.EndSpan(span, err)
	}()

	return uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		_, st, err := uc.arbiter.LockCopy(txCtx, copyID)
		if err != nil {
			return err
		}
		if st.OnLoan() {
			return catalog.ErrCopyOnLoan
		}
		if st.Reservation != nil && !st.Matched {
			return catalog.ErrCopyReserved
		}
		return uc.copies.Delete(txCtx, copyID)
	})
}
