package copy

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/pkg/civil"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// StatusOfUseCase 副本状态查询
// 状态在加锁事务内推导，与写操作看到的一致
type StatusOfUseCase struct {
	tx      circulation.Transactor
	arbiter *circulation.Arbiter
	clock   circulation.Clock
}

// NewStatusOfUseCase 创建副本状态查询用例
func NewStatusOfUseCase(tx circulation.Transactor, arbiter *circulation.Arbiter, clock circulation.Clock) *StatusOfUseCase {
	return &StatusOfUseCase{tx: tx, arbiter: arbiter, clock: clock}
}

// Execute 查询副本状态，asOf零值表示今天
// 惰性过期只按今天执行，asOf只影响返回的投影，不改变任何记录
func (uc *StatusOfUseCase) Execute(ctx context.Context, copyID uint, asOf time.Time) (resp *StatusView, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "StatusOf")
	start := time.Now()
	defer func() {
		metrics.ObserveOp("status_of", start, err)
		tracing.EndSpan(span, err)
	}()

	day := circulation.DateOr(asOf, uc.clock)
	var expired int64
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		locked, _, err := uc.arbiter.LockCopy(txCtx, copyID)
		if err != nil {
			return err
		}
		expired = locked.Expired
		st, _ := locked.At(day).Of(copyID)
		v := newStatusView(locked.Copy(copyID), st, civil.Format(day))
		resp = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.AddExpired("lazy", expired)
	return resp, nil
}

// Get 查询副本详情（含状态）
func (uc *StatusOfUseCase) Get(ctx context.Context, copyID uint) (*CopyView, error) {
	var resp *CopyView
	err := uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		locked, st, err := uc.arbiter.LockCopy(txCtx, copyID)
		if err != nil {
			return err
		}
		v := newCopyView(locked.Copy(copyID), st)
		resp = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ListByTitle 查询书目下全部副本及状态（按ID升序）
func (uc *StatusOfUseCase) ListByTitle(ctx context.Context, titleID uint) ([]CopyView, error) {
	var list []CopyView
	err := uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		locked, err := uc.arbiter.LockTitle(txCtx, titleID)
		if err != nil {
			return err
		}
		list = make([]CopyView, 0, len(locked.Holdings.Copies))
		for _, st := range locked.Snapshot.All() {
			list = append(list, newCopyView(locked.Copy(st.CopyID), st))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}
