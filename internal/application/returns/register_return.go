package returns

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/domain/returns"
	"github.com/xiebiao/library/pkg/civil"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

const tracerName = "application.returns"

// RegisterReturnUseCase 归还登记用例
// 原子完成：借阅active→returned、写归还记录、重新推导副本状态
// 副本上的有效预约不会自动转借阅，副本保持reserved等待预约读者来借
type RegisterReturnUseCase struct {
	tx        circulation.Transactor
	arbiter   *circulation.Arbiter
	loans     loan.Repository
	returns   returns.Repository
	directory member.Directory
	publisher circulation.Publisher
	clock     circulation.Clock
}

// NewRegisterReturnUseCase 创建归还登记用例
func NewRegisterReturnUseCase(
	tx circulation.Transactor,
	arbiter *circulation.Arbiter,
	loans loan.Repository,
	returnRepo returns.Repository,
	directory member.Directory,
	publisher circulation.Publisher,
	clock circulation.Clock,
) *RegisterReturnUseCase {
	return &RegisterReturnUseCase{
		tx:        tx,
		arbiter:   arbiter,
		loans:     loans,
		returns:   returnRepo,
		directory: directory,
		publisher: publisher,
		clock:     clock,
	}
}

// RegisterReturnRequest 归还请求DTO
type RegisterReturnRequest struct {
	LoanID     uint
	OperatorID uint
	ReturnDate time.Time // 零值表示今天
}

// RegisterReturnResponse 归还响应DTO
type RegisterReturnResponse struct {
	ReturnID   uint   `json:"return_id"`
	LoanID     uint   `json:"loan_id"`
	CopyID     uint   `json:"copy_id"`
	OperatorID uint   `json:"operator_id"`
	ReturnedOn string `json:"returned_on"`
	Overdue    bool   `json:"overdue"`
	// CopyStatus 归还后副本的状态：有排队预约时为reserved，否则为available
	CopyStatus string `json:"copy_status"`
	// ReservedFor 副本为哪位读者保留
	ReservedFor uint `json:"reserved_for,omitempty"`
}

// Execute 登记归还
// 检查顺序：借阅存在 → 借阅未终结 → 馆员存在且启用
func (uc *RegisterReturnUseCase) Execute(ctx context.Context, req RegisterReturnRequest) (resp *RegisterReturnResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "RegisterReturn")
	start := time.Now()
	defer func() {
		metrics.ObserveOp("register_return", start, err)
		tracing.EndSpan(span, err)
	}()

	if req.LoanID == 0 || req.OperatorID == 0 {
		return nil, apperrors.ErrInvalidParams.WithDetail("loan_id、operator_id必填")
	}
	returnDate := circulation.DateOr(req.ReturnDate, uc.clock)

	var expired int64
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		resp = nil

		l, err := uc.loans.FindByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}
		if !l.IsActive() {
			// 终态直接返回，不需要加锁（已删除副本的历史借阅也走这里）
			return l.Return(returnDate)
		}

		locked, _, err := uc.arbiter.LockCopy(txCtx, l.CopyID)
		if err != nil {
			return err
		}
		expired = locked.Expired

		l, err = uc.loans.LockByID(txCtx, req.LoanID)
		if err != nil {
			return err
		}
		overdue := l.IsOverdue(returnDate)
		if err := l.Return(returnDate); err != nil {
			return err
		}
		if err := member.RequireActive(txCtx, uc.directory, member.KindOperator, req.OperatorID); err != nil {
			return err
		}

		ret := returns.NewReturn(l.ID, req.OperatorID, returnDate)
		if err := uc.returns.Create(txCtx, ret); err != nil {
			return err
		}
		if err := uc.loans.Update(txCtx, l); err != nil {
			return err
		}

		_, st, err := uc.arbiter.LockCopy(txCtx, l.CopyID)
		if err != nil {
			return err
		}

		resp = &RegisterReturnResponse{
			ReturnID:   ret.ID,
			LoanID:     l.ID,
			CopyID:     l.CopyID,
			OperatorID: req.OperatorID,
			ReturnedOn: civil.Format(ret.ReturnedOn),
			Overdue:    overdue,
			CopyStatus: st.Status.String(),
		}
		if st.Status == circulation.StatusReserved && st.Reservation != nil {
			resp.ReservedFor = st.Reservation.PatronID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.AddExpired("lazy", expired)
	circulation.Notify(ctx, uc.publisher, circulation.NewEvent(circulation.EventReturnRegistered, map[string]interface{}{
		"return_id":   resp.ReturnID,
		"loan_id":     resp.LoanID,
		"copy_id":     resp.CopyID,
		"copy_status": resp.CopyStatus,
		"overdue":     resp.Overdue,
	}))

	return resp, nil
}
