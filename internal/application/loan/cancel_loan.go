package loan

import (
	"context"
	"time"

	"github.com/xiebiao/library/internal/domain/circulation"
	"github.com/xiebiao/library/internal/domain/loan"
	"github.com/xiebiao/library/pkg/metrics"
	"github.com/xiebiao/library/pkg/tracing"
)

// CancelLoanUseCase 取消借阅用例
// 用于登记错误的借出，副本状态随之重新推导
type CancelLoanUseCase struct {
	tx        circulation.Transactor
	arbiter   *circulation.Arbiter
	loans     loan.Repository
	publisher circulation.Publisher
}

// NewCancelLoanUseCase 创建取消借阅用例
func NewCancelLoanUseCase(
	tx circulation.Transactor,
	arbiter *circulation.Arbiter,
	loans loan.Repository,
	publisher circulation.Publisher,
) *CancelLoanUseCase {
	return &CancelLoanUseCase{
		tx:        tx,
		arbiter:   arbiter,
		loans:     loans,
		publisher: publisher,
	}
}

// CancelLoanResponse 取消借阅响应DTO
type CancelLoanResponse struct {
	Loan       LoanView `json:"loan"`
	CopyStatus string   `json:"copy_status"`
}

// Execute 取消借阅
func (uc *CancelLoanUseCase) Execute(ctx context.Context, loanID uint) (resp *CancelLoanResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, tracerName, "CancelLoan")
	start := time.Now()
	defer func() {
		metrics.ObserveOp("cancel_loan", start, err)
		tracing.EndSpan(span, err)
	}()

	var (
		cancelled *loan.Loan
		status    circulation.Status
	)
	err = uc.tx.Transaction(ctx, func(txCtx context.Context) error {
		l, err := uc.loans.FindByID(txCtx, loanID)
		if err != nil {
			return err
		}
		// 终态不会再变化，无需加锁即可判断
		if err := l.Cancel(); err != nil {
			return err
		}

		if _, _, err := uc.arbiter.LockCopy(txCtx, l.CopyID); err != nil {
			return err
		}
		// 锁住书目后重新读取，避免与并发归还交错
		l, err = uc.loans.LockByID(txCtx, loanID)
		if err != nil {
			return err
		}
		if err := l.Cancel(); err != nil {
			return err
		}
		if err := uc.loans.Update(txCtx, l); err != nil {
			return err
		}

		_, st, err := uc.arbiter.LockCopy(txCtx, l.CopyID)
		if err != nil {
			return err
		}
		cancelled, status = l, st.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	circulation.Notify(ctx, uc.publisher, circulation.NewEvent(circulation.EventLoanCancelled, map[string]interface{}{
		"loan_id":   cancelled.ID,
		"copy_id":   cancelled.CopyID,
		"patron_id": cancelled.PatronID,
	}))

	return &CancelLoanResponse{
		Loan:       NewLoanView(cancelled),
		CopyStatus: status.String(),
	}, nil
}
