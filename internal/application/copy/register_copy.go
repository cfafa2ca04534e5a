package copy

import (
	"context"
	"strings"
	"time"

	"github.com/xiebiao/library/internal/domain/catalog"
	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// RegisterCopyUseCase 副本登记用例
type RegisterCopyUseCase struct {
	tx      circulation.Transactor
	arbiter *circulation.Arbiter
	copies  catalog.CopyRepository
}

// NewRegisterCopyUseCase 创建副本登记用例
func NewRegisterCopyUseCase(tx circulation.Transactor, arbiter *circulation.Arbiter, copies catalog.CopyRepository) *RegisterCopyUseCase {
	return &RegisterCopyUseCase{
		tx:      tx,
		arbiter: arbiter,
		copies:  copies,
	}
}

// RegisterCopyRequest 副本登记请求DTO
type RegisterCopyRequest struct {
	TitleID      uint
	ExternalCode string
	Disposition  string // circulating（默认）或discarded
}

// Execute 登记副本
// 业务规则：已下架书目只能登记为discarded，永远不会出现可借的新副本
func (uc *RegisterCopyUseCase) Execute(ctx context.Context, req RegisterCopyRequest) (resp *CopyView, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "RegisterCopy")
	start := time.Now()
	defer func() {
		metrics.ObserveOp("register_copy", start, err)
		tracing.EndSpan(span, err)
	}()

	code := strings.TrimSpace(req.ExternalCode)
	if code == "" {
		return nil, catalog.ErrInvalidCode
	}
	disposition, ok := catalog.ParseDisposition(req.Disposition)
	if !ok {
		return nil, catalog.ErrInvalidDisposition
	}

	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		// 锁书目：与下架操作串行，避免下架的同时登记出可借副本
		locked, err := uc.arbiter.LockTitle(txCtx, req.TitleID)
		if err != nil {
			return err
		}
		title := locked.Holdings.Title
		if title.IsDelisted() && disposition != catalog.DispositionDiscarded {
			return catalog.ErrTitleDelisted
		}

		c := catalog.NewCopy(title.ID, code, disposition)
		if err := uc.copies.Create(txCtx, c); err != nil {
			return err
		}

		// 书目级排队的预约会立即绑定到新副本
		locked, err = uc.arbiter.LockTitle(txCtx, title.ID)
		if err != nil {
			return err
		}
		st, ok := locked.Snapshot.Of(c.ID)
		if !ok {
			return catalog.ErrCopyNotFound
		}
		v := newCopyView(c, st)
		resp = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
